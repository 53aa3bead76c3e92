package idwall

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const defaultBaseURL = "https://api-v3.idwall.co/maestro"

// Conflict messages the vendor uses when an operation was already
// performed. Both classify as success, not failure.
const (
	msgProfileExists = "already exists"
	msgFlowRunning   = "already has same flow running"
)

// StatusError is any vendor answer that is neither success nor a
// recognized idempotency conflict. Body keeps the vendor payload for
// diagnostics.
type StatusError struct {
	StatusCode int
	Message    string
	Body       json.RawMessage
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("idwall: request failed with status %d: %s", e.StatusCode, e.Message)
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(token string) *Client {
	return &Client{
		baseURL:    defaultBaseURL,
		token:      token,
		httpClient: &http.Client{},
	}
}

// CreateProfile registers the profile keyed by its ref, or adopts the
// existing one. Returns true when the profile was just created and
// false when the vendor reported it already exists; both are success.
func (c *Client) CreateProfile(ctx context.Context, profile *Profile) (bool, error) {
	payload, err := json.Marshal(profile)
	if err != nil {
		return false, err
	}

	status, body, err := c.do(ctx, http.MethodPost, c.baseURL+"/profile", bytes.NewReader(payload), "application/json")
	if err != nil {
		return false, err
	}

	if is2xx(status) {
		return true, nil
	}

	msg := vendorMessage(body)
	if strings.Contains(msg, msgProfileExists) {
		return false, nil
	}
	return false, &StatusError{StatusCode: status, Message: msg, Body: rawJSON(body)}
}

// StartFlow triggers the async verification flow for a profile.
// Returns true when the flow was started now and false when the vendor
// reported the same flow is already running; both are success.
func (c *Client) StartFlow(ctx context.Context, ref, flowID string) (bool, error) {
	url := fmt.Sprintf("%s/profile/%s/flow/%s", c.baseURL, ref, flowID)

	status, body, err := c.do(ctx, http.MethodPost, url, nil, "")
	if err != nil {
		return false, err
	}

	if is2xx(status) {
		return true, nil
	}

	msg := vendorMessage(body)
	if strings.Contains(msg, msgFlowRunning) {
		return false, nil
	}
	return false, &StatusError{StatusCode: status, Message: msg, Body: rawJSON(body)}
}

// GetEnrichment fetches the vendor's third-party sourced data for a
// profile. A response without source data is not an error: the
// returned record simply has a nil Personal, meaning "not yet
// enriched".
func (c *Client) GetEnrichment(ctx context.Context, ref string) (*Enrichment, error) {
	url := c.baseURL + "/profile-enrichment/by-profile-ref/" + ref

	status, body, err := c.do(ctx, http.MethodGet, url, nil, "")
	if err != nil {
		return nil, err
	}
	if !is2xx(status) {
		return nil, &StatusError{StatusCode: status, Message: vendorMessage(body), Body: rawJSON(body)}
	}

	var envelope enrichmentEnvelope
	if err = json.Unmarshal(body, &envelope); err != nil {
		return nil, &StatusError{StatusCode: status, Message: "unparseable enrichment response", Body: rawJSON(body)}
	}
	return envelope.ToRecord(), nil
}

// GetProfile fetches the profile detail: the segments attached by the
// vendor and whatever documents it holds.
func (c *Client) GetProfile(ctx context.Context, ref string) (*ProfileDetail, error) {
	status, body, err := c.do(ctx, http.MethodGet, c.baseURL+"/profile/"+ref, nil, "")
	if err != nil {
		return nil, err
	}
	if !is2xx(status) {
		return nil, &StatusError{StatusCode: status, Message: vendorMessage(body), Body: rawJSON(body)}
	}

	var detail profileDetailResponse
	if err = json.Unmarshal(body, &detail); err != nil {
		return nil, &StatusError{StatusCode: status, Message: "unparseable profile response", Body: rawJSON(body)}
	}
	return detail.ToDomain(), nil
}

func (c *Client) do(ctx context.Context, method, url string, body io.Reader, contentType string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return 0, nil, err
	}

	req.Header.Set("Authorization", c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("idw-request-id", "req_"+uuid.NewString())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, respBody, nil
}

func is2xx(status int) bool {
	return status >= 200 && status <= 299
}

// vendorMessage extracts the "message" field the vendor embeds in
// failure bodies; empty when the body is not in that shape.
func vendorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.Message
}

// rawJSON passes valid JSON bodies through untouched and degrades
// anything else to an empty object, so failure details always
// serialize.
func rawJSON(body []byte) json.RawMessage {
	if json.Valid(body) && len(body) > 0 {
		return body
	}
	return json.RawMessage("{}")
}
