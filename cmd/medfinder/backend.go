package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hyperjump/medfinder/internal/models"
	"github.com/hyperjump/medfinder/internal/search"
	"github.com/hyperjump/medfinder/internal/server"
)

// backend is what the query commands run against: a running server or the
// record source loaded in-process.
type backend interface {
	Find(text string) (*models.SearchResponse, error)
	ByName(query string) (*models.SearchResponse, error)
	BySpeciality(speciality, location string) (*models.SearchResponse, error)
	All() (*models.SearchResponse, error)
	Page(page int) (*models.Page, error)
	Detail(index int, fromResults bool) (*models.DetailResponse, error)
	Market(index int) (*models.MarketReport, error)
	Status() (*models.Status, error)
}

// directBackend runs queries against an in-process service.
type directBackend struct {
	svc    *search.Service
	caller string
}

func (d *directBackend) Find(text string) (*models.SearchResponse, error) {
	return d.svc.Find(d.caller, text)
}

func (d *directBackend) ByName(query string) (*models.SearchResponse, error) {
	return d.svc.ByName(d.caller, query)
}

func (d *directBackend) BySpeciality(speciality, location string) (*models.SearchResponse, error) {
	return d.svc.BySpeciality(d.caller, speciality, location)
}

func (d *directBackend) All() (*models.SearchResponse, error) {
	return d.svc.All(d.caller)
}

func (d *directBackend) Page(page int) (*models.Page, error) {
	return d.svc.Page(d.caller, page)
}

func (d *directBackend) Detail(index int, fromResults bool) (*models.DetailResponse, error) {
	return d.svc.Detail(d.caller, index, fromResults)
}

func (d *directBackend) Market(index int) (*models.MarketReport, error) {
	return d.svc.Market(index)
}

func (d *directBackend) Status() (*models.Status, error) {
	return d.svc.Status(), nil
}

// httpBackend calls the HTTP API. The caller ID issued by the server on the
// first search is reused for later requests.
type httpBackend struct {
	baseURL string
	caller  string
	client  *http.Client
}

func newHTTPBackend(serverURL, caller string) *httpBackend {
	return &httpBackend{
		baseURL: serverURL,
		caller:  caller,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// apiError is an error body returned by the server.
type apiError struct {
	Status  int
	Kind    string `json:"kind"`
	Message string `json:"error"`
}

func (e *apiError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Kind)
}

func (h *httpBackend) do(method, path string, body, out interface{}) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, h.baseURL+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if h.caller != "" {
		req.Header.Set(server.CallerHeader, h.caller)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if id := resp.Header.Get(server.CallerHeader); id != "" && h.caller == "" {
		h.caller = id
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		apiErr := &apiError{Status: resp.StatusCode}
		if json.Unmarshal(b, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = string(bytes.TrimSpace(b))
		}
		return apiErr
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (h *httpBackend) search(path string, body interface{}) (*models.SearchResponse, error) {
	var out models.SearchResponse
	if err := h.do(http.MethodPost, path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (h *httpBackend) Find(text string) (*models.SearchResponse, error) {
	return h.search("/api/v1/search", models.CombinedQuery{Text: text})
}

func (h *httpBackend) ByName(query string) (*models.SearchResponse, error) {
	return h.search("/api/v1/search/name", models.NameQuery{Query: query})
}

func (h *httpBackend) BySpeciality(speciality, location string) (*models.SearchResponse, error) {
	return h.search("/api/v1/search/speciality", models.SpecialityQuery{Speciality: speciality, Location: location})
}

func (h *httpBackend) All() (*models.SearchResponse, error) {
	return h.search("/api/v1/search/all", nil)
}

func (h *httpBackend) Page(page int) (*models.Page, error) {
	var out models.Page
	if err := h.do(http.MethodGet, "/api/v1/results?page="+strconv.Itoa(page), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (h *httpBackend) Detail(index int, fromResults bool) (*models.DetailResponse, error) {
	path := "/api/v1/records/" + strconv.Itoa(index)
	if fromResults {
		path += "?" + url.Values{"from": {"results"}}.Encode()
	}
	var out models.DetailResponse
	if err := h.do(http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (h *httpBackend) Market(index int) (*models.MarketReport, error) {
	var out models.MarketReport
	if err := h.do(http.MethodGet, "/api/v1/records/"+strconv.Itoa(index)+"/market", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (h *httpBackend) Status() (*models.Status, error) {
	var out models.Status
	if err := h.do(http.MethodGet, "/api/v1/status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
