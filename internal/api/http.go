package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/maltehallstrom/boka/internal/logger"
	"github.com/maltehallstrom/boka/internal/models"
)

const defaultTimeout = 15 * time.Second

// HTTPClient talks to the booking backend over its JSON API. The session is
// cookie-based; the jar carries it between calls.
type HTTPClient struct {
	base   string
	client *http.Client
}

// NewHTTPClient builds a client for the backend at base.
func NewHTTPClient(base string) (*HTTPClient, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	return &HTTPClient{
		base: base,
		client: &http.Client{
			Jar:     jar,
			Timeout: defaultTimeout,
		},
	}, nil
}

type apiError struct {
	Detail  string `json:"detail"`
	Message string `json:"message"`
}

// mapStatus translates a non-2xx status into the error taxonomy. Whether a
// 401 means bad credentials or an expired session depends on the call site,
// so login endpoints pass authenticating=true.
func mapStatus(status int, authenticating bool) error {
	switch status {
	case http.StatusUnauthorized:
		if authenticating {
			return ErrUnauthorized
		}
		return ErrSessionExpired
	case http.StatusConflict:
		return ErrConflict
	case http.StatusNotFound:
		return ErrNotFound
	}
	return fmt.Errorf("unexpected status %d", status)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out interface{}, authenticating bool) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return &TransientError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return &TransientError{Op: method + " " + path, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var detail apiError
		if err := json.NewDecoder(resp.Body).Decode(&detail); err == nil && detail.Detail != "" {
			logger.Debug("backend error detail", "path", path, "detail", detail.Detail)
		}
		return mapStatus(resp.StatusCode, authenticating)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransientError{Op: method + " " + path, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

type loginResponse struct {
	SubjectID string `json:"apartment_id"`
}

func (c *HTTPClient) AuthenticateToken(ctx context.Context, tag string) (string, error) {
	var resp loginResponse
	err := c.do(ctx, http.MethodPost, "/rfid-login", map[string]string{"uid": tag}, &resp, true)
	if err != nil {
		return "", err
	}
	return resp.SubjectID, nil
}

func (c *HTTPClient) AuthenticateCredential(ctx context.Context, subjectID, secret string) (string, error) {
	var resp loginResponse
	body := map[string]string{"apartment_id": subjectID, "password": secret}
	if err := c.do(ctx, http.MethodPost, "/mobile-login", body, &resp, true); err != nil {
		return "", err
	}
	return resp.SubjectID, nil
}

func (c *HTTPClient) ChangeSecret(ctx context.Context, newSecret string) error {
	body := map[string]string{"new_password": newSecret}
	return c.do(ctx, http.MethodPost, "/mobile-password", body, nil, false)
}

func (c *HTTPClient) ListResources(ctx context.Context) ([]models.Resource, error) {
	var resp struct {
		Resources []models.ResourceRecord `json:"resources"`
	}
	if err := c.do(ctx, http.MethodGet, "/resources", nil, &resp, false); err != nil {
		return nil, err
	}
	return models.NormalizeResources(resp.Resources), nil
}

func (c *HTTPClient) ListBookings(ctx context.Context, subjectID string) ([]models.Booking, error) {
	path := "/bookings"
	if subjectID != "" {
		path += "?apartment_id=" + url.QueryEscape(subjectID)
	}
	var resp struct {
		Bookings []models.BookingRecord `json:"bookings"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp, false); err != nil {
		return nil, err
	}
	return models.NormalizeBookings(resp.Bookings), nil
}

func (c *HTTPClient) GetAvailability(ctx context.Context, resourceID, date string) ([]models.Slot, error) {
	params := url.Values{}
	params.Set("resource_id", resourceID)
	params.Set("date", date)
	var resp struct {
		Slots []models.SlotRecord `json:"slots"`
	}
	if err := c.do(ctx, http.MethodGet, "/slots?"+params.Encode(), nil, &resp, false); err != nil {
		return nil, err
	}
	return models.NormalizeSlots(resp.Slots), nil
}

func (c *HTTPClient) CreateBooking(ctx context.Context, req BookingRequest) (string, error) {
	body := map[string]interface{}{
		"apartment_id": req.SubjectID,
		"resource_id":  req.ResourceID,
		"start_time":   req.StartTime.UTC().Format(time.RFC3339),
		"end_time":     req.EndTime.UTC().Format(time.RFC3339),
		"is_billable":  req.IsBillable,
	}
	var resp struct {
		BookingID string `json:"booking_id"`
	}
	if err := c.do(ctx, http.MethodPost, "/book", body, &resp, false); err != nil {
		return "", err
	}
	return resp.BookingID, nil
}

func (c *HTTPClient) CancelBooking(ctx context.Context, bookingID string) error {
	body := map[string]string{"booking_id": bookingID}
	return c.do(ctx, http.MethodDelete, "/cancel", body, nil, false)
}

func (c *HTTPClient) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil, false)
}
