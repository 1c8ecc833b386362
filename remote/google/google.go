// Package google implements remote.Gateway against the cachedContents REST
// API, covering both the Gemini API (API-key auth) and Vertex AI
// (bearer-token auth, regional or global endpoints).
package google

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/unkn0wn-root/ctxcache/cachekey"
	"github.com/unkn0wn-root/ctxcache/remote"
)

const (
	geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	// ProviderGemini selects the Gemini API endpoint and API-key auth;
	// anything else is routed to Vertex AI.
	ProviderGemini = "gemini"

	defaultTimeout = 30 * time.Second
)

// TokenFunc supplies a bearer token for Vertex AI calls.
type TokenFunc func(ctx context.Context) (string, error)

type Config struct {
	// HTTPClient used for all calls. nil => client with a 30s timeout.
	HTTPClient *http.Client

	// APIKey authenticates Gemini API calls (query parameter).
	APIKey string

	// Token authenticates Vertex AI calls.
	Token TokenFunc

	// BaseURL overrides endpoint resolution entirely (tests, proxies).
	BaseURL string
}

type Client struct {
	httpc   *http.Client
	apiKey  string
	token   TokenFunc
	baseURL string
}

var _ remote.Gateway = (*Client)(nil)

func New(cfg Config) *Client {
	httpc := cfg.HTTPClient
	if httpc == nil {
		httpc = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		httpc:   httpc,
		apiKey:  cfg.APIKey,
		token:   cfg.Token,
		baseURL: cfg.BaseURL,
	}
}

func (c *Client) endpointURL(scope cachekey.Scope) (string, error) {
	if c.baseURL != "" {
		return c.baseURL + "/cachedContents", nil
	}
	if scope.Provider == ProviderGemini {
		return geminiBaseURL + "/cachedContents", nil
	}
	if scope.Project == "" || scope.Location == "" {
		return "", fmt.Errorf("google: vertex scope requires project and location, got %+v", scope)
	}
	host := "aiplatform.googleapis.com"
	if scope.Location != "global" {
		host = scope.Location + "-aiplatform.googleapis.com"
	}
	return fmt.Sprintf("https://%s/v1/projects/%s/locations/%s/cachedContents",
		host, scope.Project, scope.Location), nil
}

func (c *Client) newRequest(ctx context.Context, scope cachekey.Scope, method string, body io.Reader) (*http.Request, error) {
	u, err := c.endpointURL(scope)
	if err != nil {
		return nil, err
	}
	if scope.Provider == ProviderGemini && c.apiKey != "" {
		u += "?key=" + url.QueryEscape(c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	if scope.Provider != ProviderGemini && c.token != nil {
		tok, err := c.token(ctx)
		if err != nil {
			return nil, fmt.Errorf("google: token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	return req, nil
}

type cachedContent struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Model       string `json:"model,omitempty"`
	ExpireTime  string `json:"expireTime,omitempty"`
}

type listResponse struct {
	CachedContents []cachedContent `json:"cachedContents"`
}

func (c *Client) LookupByName(ctx context.Context, scope cachekey.Scope, contentKey string) (remote.Entry, bool, error) {
	req, err := c.newRequest(ctx, scope, http.MethodGet, nil)
	if err != nil {
		return remote.Entry{}, false, err
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return remote.Entry{}, false, fmt.Errorf("google: list cached contents: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return remote.Entry{}, false, fmt.Errorf("google: read list response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return remote.Entry{}, false, &remote.Error{StatusCode: resp.StatusCode, Message: string(body)}
	}

	var list listResponse
	if err := json.Unmarshal(body, &list); err != nil {
		return remote.Entry{}, false, fmt.Errorf("google: decode list response: %w", err)
	}

	for _, cc := range list.CachedContents {
		if cc.DisplayName == contentKey && cc.Name != "" {
			return remote.Entry{Name: cc.Name, ExpireTime: parseExpireTime(cc.ExpireTime)}, true, nil
		}
	}
	return remote.Entry{}, false, nil
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text,omitempty"`
}

type createRequest struct {
	Model             string    `json:"model,omitempty"`
	Contents          []content `json:"contents"`
	SystemInstruction *content  `json:"systemInstruction,omitempty"`
	Tools             any       `json:"tools,omitempty"`
	TTL               string    `json:"ttl,omitempty"`
	DisplayName       string    `json:"displayName"`
}

func (c *Client) Create(ctx context.Context, scope cachekey.Scope, in remote.CreateInput) (remote.Entry, error) {
	payload := createRequest{
		Model:       in.Model,
		Tools:       in.Tools,
		DisplayName: in.DisplayName,
	}
	if in.TTL > 0 {
		payload.TTL = ttlString(in.TTL)
	}

	for _, m := range in.Messages {
		parts := make([]part, 0, len(m.Parts))
		for _, p := range m.Parts {
			parts = append(parts, part{Text: p.Text})
		}
		if m.Role == "system" {
			if payload.SystemInstruction == nil {
				payload.SystemInstruction = &content{}
			}
			payload.SystemInstruction.Parts = append(payload.SystemInstruction.Parts, parts...)
			continue
		}
		role := "user"
		if m.Role == "assistant" {
			role = "model"
		}
		payload.Contents = append(payload.Contents, content{Role: role, Parts: parts})
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return remote.Entry{}, fmt.Errorf("google: encode create request: %w", err)
	}

	req, err := c.newRequest(ctx, scope, http.MethodPost, bytes.NewReader(raw))
	if err != nil {
		return remote.Entry{}, err
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return remote.Entry{}, fmt.Errorf("google: create cached content: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return remote.Entry{}, fmt.Errorf("google: read create response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return remote.Entry{}, &remote.Error{StatusCode: resp.StatusCode, Message: string(body)}
	}

	var cc cachedContent
	if err := json.Unmarshal(body, &cc); err != nil {
		return remote.Entry{}, fmt.Errorf("google: decode create response: %w", err)
	}
	if cc.Name == "" {
		return remote.Entry{}, fmt.Errorf("google: create response missing name")
	}
	return remote.Entry{Name: cc.Name, ExpireTime: parseExpireTime(cc.ExpireTime)}, nil
}

// parseExpireTime returns the zero time on malformed input; the
// orchestrator substitutes its default TTL in that case.
func parseExpireTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// ttlString renders a duration in the API's seconds format, e.g. "3600s".
func ttlString(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64) + "s"
}
