// Package backend is a JSON/HTTP client for the settlement backend. It
// covers the trip and calculation operations used by the settle CLI.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/diewo77/haulage/httpx"
	"github.com/diewo77/haulage/internal/api"
	"github.com/diewo77/haulage/internal/pod"
	"github.com/diewo77/haulage/internal/services"
	"github.com/google/uuid"
)

// APIError is returned for any non-2xx response.
type APIError struct {
	Status  int
	Code    string
	Details any
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("backend: HTTP %d", e.Status)
	}
	return fmt.Sprintf("backend: HTTP %d %s", e.Status, e.Code)
}

// Unwrap maps well-known responses onto local sentinels.
func (e *APIError) Unwrap() error {
	switch {
	case e.Status == http.StatusNotFound:
		return services.ErrNotFound
	case e.Code == "already_at_final_step":
		return pod.ErrFinalStage
	case e.Code == "invalid_transition":
		return pod.ErrInvalidTransition
	case e.Status == http.StatusBadRequest:
		return services.ErrInvalidInput
	}
	return nil
}

type Client struct {
	baseURL string
	http    *http.Client
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

var (
	_ services.CalculationStore = (*Client)(nil)
	_ pod.StatusUpdater         = (*Client)(nil)
)

// do sends one request. There are no retries.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var er httpx.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&er); err == nil {
			apiErr.Code, apiErr.Details = er.Error, er.Details
		}
		return apiErr
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) GetTripsForDriver(ctx context.Context, driverID uint) ([]api.Trip, error) {
	var out api.List[api.Trip]
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/drivers/%d/trips", driverID), nil, &out)
	return out.Items, err
}

func (c *Client) GetTripsForFleetOwner(ctx context.Context, ownerID uint) ([]api.Trip, error) {
	var out api.List[api.Trip]
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/fleet-owners/%d/trips", ownerID), nil, &out)
	return out.Items, err
}

func (c *Client) GetCalculationsForDriver(ctx context.Context, driverID uint) ([]api.Calculation, error) {
	var out api.List[api.Calculation]
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/drivers/%d/calculations", driverID), nil, &out)
	return out.Items, err
}

func (c *Client) GetCalculationsForFleetOwner(ctx context.Context, ownerID uint) ([]api.Calculation, error) {
	var out api.List[api.Calculation]
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/fleet-owners/%d/calculations", ownerID), nil, &out)
	return out.Items, err
}

func (c *Client) GetCalculation(ctx context.Context, id string) (api.Calculation, error) {
	var out api.Calculation
	err := c.do(ctx, http.MethodGet, "/calculations/"+url.PathEscape(id), nil, &out)
	return out, err
}

func (c *Client) CreateCalculation(ctx context.Context, p api.CalculationPayload) (api.Calculation, error) {
	var out api.Calculation
	err := c.do(ctx, http.MethodPost, "/calculations", p, &out)
	return out, err
}

func (c *Client) UpdateCalculation(ctx context.Context, id string, p api.CalculationPayload) (api.Calculation, error) {
	var out api.Calculation
	err := c.do(ctx, http.MethodPut, "/calculations/"+url.PathEscape(id), p, &out)
	return out, err
}

func (c *Client) DeleteCalculation(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/calculations/"+url.PathEscape(id), nil, nil)
}

// UpdateTripPodStatus asks the backend to move the trip to next.
func (c *Client) UpdateTripPodStatus(ctx context.Context, tripID uint, next pod.Stage) (bool, error) {
	var out api.PodStatusResult
	err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/trips/%d/pod-status", tripID), api.PodStatusUpdate{Status: string(next)}, &out)
	if err != nil {
		return false, err
	}
	return out.Success, nil
}

// StatementPDF downloads the rendered statement of a saved calculation.
func (c *Client) StatementPDF(ctx context.Context, id, lang string) ([]byte, error) {
	path := "/calculations/" + url.PathEscape(id) + "/statement.pdf"
	if lang != "" {
		path += "?lang=" + url.QueryEscape(lang)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Request-ID", uuid.NewString())
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{Status: resp.StatusCode}
		var er httpx.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&er); err == nil {
			apiErr.Code = er.Error
		}
		return nil, apiErr
	}
	return io.ReadAll(resp.Body)
}
