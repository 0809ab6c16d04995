package terminology

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// HTTPCatalogue is a CatalogueRepository over a remote terminology service
// exposing /concepts and /translations endpoints.
type HTTPCatalogue struct {
	client *resty.Client
}

// NewHTTPCatalogue builds a client for the service at baseURL.
func NewHTTPCatalogue(baseURL string) *HTTPCatalogue {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(200*time.Millisecond).
		SetRetryMaxWaitTime(2*time.Second).
		SetHeader("Accept", "application/json")
	return &HTTPCatalogue{client: client}
}

type conceptResponse struct {
	Concepts []Concept `json:"concepts"`
}

type translationResponse struct {
	Display string `json:"display"`
}

// LookupConcept implements CatalogueRepository.
func (r *HTTPCatalogue) LookupConcept(ctx context.Context, code, codeSystem string) (*Concept, error) {
	var out conceptResponse
	resp, err := r.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"code": code, "system": codeSystem}).
		SetResult(&out).
		Get("/concepts")
	if err != nil {
		return nil, fmt.Errorf("terminology: remote lookup: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound || len(out.Concepts) == 0 {
		return nil, ErrConceptNotFound
	}
	if resp.IsError() {
		return nil, fmt.Errorf("terminology: remote lookup: status %d", resp.StatusCode())
	}
	c := out.Concepts[0]
	return &c, nil
}

// LookupAnySystem implements CatalogueRepository.
func (r *HTTPCatalogue) LookupAnySystem(ctx context.Context, code string) (*Concept, error) {
	var out conceptResponse
	resp, err := r.client.R().
		SetContext(ctx).
		SetQueryParam("code", code).
		SetResult(&out).
		Get("/concepts")
	if err != nil {
		return nil, fmt.Errorf("terminology: remote lookup: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound || len(out.Concepts) == 0 {
		return nil, ErrConceptNotFound
	}
	if resp.IsError() {
		return nil, fmt.Errorf("terminology: remote lookup: status %d", resp.StatusCode())
	}
	c := out.Concepts[0]
	return &c, nil
}

// SearchDisplay implements CatalogueRepository.
func (r *HTTPCatalogue) SearchDisplay(ctx context.Context, query string, limit int) ([]*Concept, error) {
	if limit <= 0 {
		limit = 20
	}
	var out conceptResponse
	resp, err := r.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"q": query, "limit": fmt.Sprint(limit)}).
		SetResult(&out).
		Get("/concepts/search")
	if err != nil {
		return nil, fmt.Errorf("terminology: remote search: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("terminology: remote search: status %d", resp.StatusCode())
	}
	result := make([]*Concept, 0, len(out.Concepts))
	for i := range out.Concepts {
		result = append(result, &out.Concepts[i])
	}
	return result, nil
}

// LookupTranslation implements CatalogueRepository.
func (r *HTTPCatalogue) LookupTranslation(ctx context.Context, code, codeSystem, language string) (string, error) {
	var out translationResponse
	resp, err := r.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"code": code, "system": codeSystem, "lang": language}).
		SetResult(&out).
		Get("/translations")
	if err != nil {
		return "", fmt.Errorf("terminology: remote translation: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound || out.Display == "" {
		return "", ErrConceptNotFound
	}
	if resp.IsError() {
		return "", fmt.Errorf("terminology: remote translation: status %d", resp.StatusCode())
	}
	return out.Display, nil
}
