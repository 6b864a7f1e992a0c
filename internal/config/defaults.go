package config

import "time"

// DefaultPageSize is the number of records per results page.
const DefaultPageSize = 5

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RequestsPerSecond > 0 && cfg.Server.Burst == 0 {
		cfg.Server.Burst = int(cfg.Server.RequestsPerSecond) + 1
	}
	if cfg.Data.SourcePath == "" {
		cfg.Data.SourcePath = "/usr/local/var/medfinder/data.csv"
	}
	if cfg.Data.Table == "" {
		cfg.Data.Table = "doctors"
	}
	if cfg.Search.PageSize <= 0 {
		cfg.Search.PageSize = DefaultPageSize
	}
	if cfg.Session.TTL == 0 {
		cfg.Session.TTL = 24 * time.Hour
	}
	if cfg.Session.MaxSessions == 0 {
		cfg.Session.MaxSessions = 10000
	}
	if cfg.Session.Shards == 0 {
		cfg.Session.Shards = 64
	}
}
