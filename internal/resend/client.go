// Package resend is a minimal HTTP client for the Resend API, covering the
// contact, transactional-email, and broadcast endpoints this service uses.
package resend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to the Resend REST API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// Sentinel errors for contact lookup/creation outcomes the caller branches on.
var (
	ErrContactNotFound = errors.New("contact not found")
	ErrContactExists   = errors.New("contact already exists")
)

// APIError is a non-2xx response from Resend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("resend: status=%d message=%s", e.StatusCode, e.Message)
}

// New creates a new Resend client. baseURL should be like
// "https://api.resend.com" (no trailing slash); empty selects the default.
func New(baseURL, apiKey string, timeout time.Duration) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = "https://api.resend.com"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// do issues one request and decodes the JSON response into out (if non-nil).
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	if c == nil {
		return errors.New("nil resend client")
	}
	var body io.Reader = http.NoBody
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiError(resp)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func apiError(resp *http.Response) error {
	b, _ := io.ReadAll(resp.Body)
	var payload struct {
		Message string `json:"message"`
		Name    string `json:"name"`
	}
	msg := strings.TrimSpace(string(b))
	if err := json.Unmarshal(b, &payload); err == nil && payload.Message != "" {
		msg = payload.Message
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}

// GetContact looks up a contact by email within an audience.
// Returns ErrContactNotFound when the contact does not exist.
func (c *Client) GetContact(ctx context.Context, audienceID, email string) (*Contact, error) {
	path := fmt.Sprintf("/audiences/%s/contacts/%s", url.PathEscape(audienceID), url.PathEscape(email))
	var out Contact
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, ErrContactNotFound
		}
		return nil, err
	}
	return &out, nil
}

// CreateContact creates a contact in an audience and returns its id.
// Returns ErrContactExists when the provider reports a conflict; the
// provider's per-audience email uniqueness is what makes subscribe idempotent
// under concurrent requests.
func (c *Client) CreateContact(ctx context.Context, audienceID string, p ContactParams) (string, error) {
	path := fmt.Sprintf("/audiences/%s/contacts", url.PathEscape(audienceID))
	var out idResponse
	if err := c.do(ctx, http.MethodPost, path, p, &out); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict {
			return "", ErrContactExists
		}
		return "", err
	}
	if out.ID == "" {
		return "", errors.New("create contact: missing id in response")
	}
	return out.ID, nil
}

// UpdateContact patches a contact, addressed by email, within an audience.
func (c *Client) UpdateContact(ctx context.Context, audienceID, email string, p ContactParams) error {
	path := fmt.Sprintf("/audiences/%s/contacts/%s", url.PathEscape(audienceID), url.PathEscape(email))
	return c.do(ctx, http.MethodPatch, path, p, nil)
}

// ListContacts returns every contact in an audience.
func (c *Client) ListContacts(ctx context.Context, audienceID string) ([]Contact, error) {
	path := fmt.Sprintf("/audiences/%s/contacts", url.PathEscape(audienceID))
	var out struct {
		Data []Contact `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// SendEmail sends one transactional email and returns the provider message id.
func (c *Client) SendEmail(ctx context.Context, p SendEmailParams) (string, error) {
	var out idResponse
	if err := c.do(ctx, http.MethodPost, "/emails", p, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// CreateBroadcast creates a mass-mail campaign and returns its id.
func (c *Client) CreateBroadcast(ctx context.Context, p CreateBroadcastParams) (string, error) {
	var out idResponse
	if err := c.do(ctx, http.MethodPost, "/broadcasts", p, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", errors.New("create broadcast: missing id in response")
	}
	return out.ID, nil
}

// SendBroadcast triggers (or schedules) delivery of a created broadcast.
// scheduledAt is passed through opaquely; Resend accepts both relative
// expressions ("in 1 hour") and absolute RFC3339 timestamps.
func (c *Client) SendBroadcast(ctx context.Context, broadcastID, scheduledAt string) error {
	if strings.TrimSpace(broadcastID) == "" {
		return errors.New("empty broadcast id")
	}
	path := fmt.Sprintf("/broadcasts/%s/send", url.PathEscape(broadcastID))
	var in any
	if strings.TrimSpace(scheduledAt) != "" {
		in = map[string]string{"scheduled_at": scheduledAt}
	}
	return c.do(ctx, http.MethodPost, path, in, nil)
}
