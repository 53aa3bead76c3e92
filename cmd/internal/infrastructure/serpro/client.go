package serpro

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"faceid/cmd/internal/domain/entity"
)

const (
	defaultTokenURL = "https://gateway.apiserpro.serpro.gov.br/token"
	defaultBaseURL  = "https://gateway.apiserpro.serpro.gov.br/consulta-cpf-df/v1/cpf/"
)

// ErrTokenUnavailable means the client_credentials grant failed or the
// provider answered without an access_token.
var ErrTokenUnavailable = errors.New("serpro: token unavailable")

// UpstreamError is any non-2xx (or non-JSON) answer from the registry.
// Raw keeps the provider body so the caller can surface it.
type UpstreamError struct {
	StatusCode int
	Raw        string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("serpro: lookup failed with status %d", e.StatusCode)
}

type Client struct {
	tokenURL     string
	baseURL      string
	clientID     string
	clientSecret string
	httpClient   *http.Client
}

func NewClient(clientID, clientSecret string) *Client {
	return &Client{
		tokenURL:     defaultTokenURL,
		baseURL:      defaultBaseURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   &http.Client{},
	}
}

// GetPerson looks up the person of record for an 11-digit CPF. A fresh
// token is fetched for every lookup; tokens are never cached across
// requests.
func (c *Client) GetPerson(ctx context.Context, cpf string) (*entity.RegistryPerson, error) {
	token, err := c.fetchToken(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+cpf, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	contentType := resp.Header.Get("Content-Type")
	if resp.StatusCode < 200 || resp.StatusCode > 299 || !strings.Contains(contentType, "application/json") {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Raw: string(body)}
	}

	var person personResponse
	if err = json.Unmarshal(body, &person); err != nil {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Raw: string(body)}
	}
	return person.ToDomain(), nil
}

// fetchToken posts a client_credentials grant with Basic auth built
// from the credential pair. Any transport failure or a response
// missing access_token classifies as ErrTokenUnavailable; retrying is
// the caller's decision.
func (c *Client) fetchToken(ctx context.Context) (string, error) {
	auth := base64.StdEncoding.EncodeToString([]byte(c.clientID + ":" + c.clientSecret))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL,
		strings.NewReader("grant_type=client_credentials"))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenUnavailable, err)
	}
	defer resp.Body.Close()

	var grant tokenResponse
	if err = json.NewDecoder(resp.Body).Decode(&grant); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenUnavailable, err)
	}

	if grant.AccessToken == "" {
		return "", ErrTokenUnavailable
	}
	return grant.AccessToken, nil
}
