package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL      = "https://api.elevenlabs.io"
	DefaultConvaiPrefix = "/v1/convai/knowledge-base"
	DefaultLegacyPrefix = "/v1/knowledge-base"
	DefaultTimeout      = 20 * time.Second

	apiKeyHeader = "xi-api-key"
	maxErrorBody = 512
)

type Options struct {
	BaseURL      string
	ConvaiPrefix string
	LegacyPrefix string
	APIKey       string
	Timeout      time.Duration
	// RequestsPerSecond throttles outgoing calls. Zero disables throttling.
	RequestsPerSecond float64
	HTTPClient        *http.Client
}

type Client struct {
	baseURL      string
	convaiPrefix string
	legacyPrefix string
	apiKey       string
	httpClient   *http.Client
	limiter      *rate.Limiter
}

func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.ConvaiPrefix == "" {
		opts.ConvaiPrefix = DefaultConvaiPrefix
	}
	if opts.LegacyPrefix == "" {
		opts.LegacyPrefix = DefaultLegacyPrefix
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	c := &Client{
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		convaiPrefix: "/" + strings.Trim(opts.ConvaiPrefix, "/"),
		legacyPrefix: "/" + strings.Trim(opts.LegacyPrefix, "/"),
		apiKey:       opts.APIKey,
		httpClient:   httpClient,
	}
	if opts.RequestsPerSecond > 0 {
		burst := int(opts.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}
	return c
}

func (c *Client) DocumentPath(id string) string {
	return c.convaiPrefix + "/" + id
}

func (c *Client) DependentsPath(id string) string {
	return c.convaiPrefix + "/" + id + "/dependent-agents"
}

// ContentPaths lists the content endpoints in fallback order: primary content,
// legacy content, then the base document.
func (c *Client) ContentPaths(id string) []string {
	return []string{
		c.convaiPrefix + "/" + id + "/content",
		c.legacyPrefix + "/" + id + "/content",
		c.DocumentPath(id),
	}
}

// List returns every document in the external store in server order.
func (c *Client) List(ctx context.Context) ([]KnowledgeDocument, error) {
	body, err := c.doJSON(ctx, "list", http.MethodGet, c.convaiPrefix, nil, "knowledge base")
	if err != nil {
		return nil, err
	}
	return ExtractArray[KnowledgeDocument](body, listEnvelopeKeys...), nil
}

func (c *Client) Get(ctx context.Context, id string) (map[string]any, error) {
	body, err := c.doJSON(ctx, "get", http.MethodGet, c.DocumentPath(id), nil, "document "+id)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, &MalformedResponseError{Op: "get", Err: err}
	}
	return doc, nil
}

func (c *Client) CreateURL(ctx context.Context, name, url string) (string, error) {
	return c.create(ctx, "/url", map[string]string{"url": url, "name": name})
}

func (c *Client) CreateText(ctx context.Context, name, text string) (string, error) {
	return c.create(ctx, "/text", map[string]string{"name": name, "text": text})
}

// CreateFile registers file metadata only. Uploading the bytes is not supported.
func (c *Client) CreateFile(ctx context.Context, name string) (string, error) {
	return c.create(ctx, "/file", map[string]string{"name": name})
}

func (c *Client) create(ctx context.Context, suffix string, payload map[string]string) (string, error) {
	body, err := c.doJSON(ctx, "create", http.MethodPost, c.convaiPrefix+suffix, payload, "knowledge base")
	if err != nil {
		return "", err
	}
	var created CreatedDocument
	if err := json.Unmarshal(body, &created); err != nil {
		return "", &MalformedResponseError{Op: "create", Err: err}
	}
	if created.ID == "" {
		return "", &MalformedResponseError{Op: "create", Err: fmt.Errorf("response carries no document id")}
	}
	return created.ID, nil
}

func (c *Client) Update(ctx context.Context, id string, patch map[string]any) (map[string]any, error) {
	body, err := c.doJSON(ctx, "update", http.MethodPatch, c.DocumentPath(id), patch, "document "+id)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if len(bytes.TrimSpace(body)) == 0 {
		return map[string]any{}, nil
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, &MalformedResponseError{Op: "update", Err: err}
	}
	return doc, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	_, err := c.doJSON(ctx, "delete", http.MethodDelete, c.DocumentPath(id), nil, "document "+id)
	return err
}

// GetDependents lists the agents that reference a document.
func (c *Client) GetDependents(ctx context.Context, id string) ([]DependentAgent, error) {
	body, err := c.doJSON(ctx, "dependents", http.MethodGet, c.DependentsPath(id), nil, "document "+id)
	if err != nil {
		return nil, err
	}
	return ExtractArray[DependentAgent](body, dependentsEnvelopeKeys...), nil
}

// Probe performs a single GET and returns the response whatever its status.
// Only transport failures are reported as errors.
func (c *Client) Probe(ctx context.Context, path string) (*RawResponse, error) {
	resp, err := c.send(ctx, "probe", http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransientNetworkError{Op: "probe", Err: err}
	}
	return &RawResponse{
		StatusCode:  resp.StatusCode,
		Status:      resp.Status,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, payload any, resource string) ([]byte, error) {
	resp, err := c.send(ctx, op, method, path, payload)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransientNetworkError{Op: op, Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, &UnauthorizedError{Message: snippet(body)}
	case resp.StatusCode == http.StatusNotFound:
		return nil, &NotFoundError{Resource: resource}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Status:     statusText(resp.StatusCode, resp.Status),
			Body:       snippet(body),
		}
	}
	return body, nil
}

func (c *Client) send(ctx context.Context, op, method, path string, payload any) (*http.Response, error) {
	if c.apiKey == "" {
		return nil, &UnauthorizedError{Message: "missing API key"}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &TransientNetworkError{Op: op, Err: err}
		}
	}

	var reader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s request: %w", op, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", op, err)
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransientNetworkError{Op: op, Err: err}
	}
	return resp, nil
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorBody {
		s = s[:maxErrorBody]
	}
	return s
}

func statusText(code int, status string) string {
	prefix := fmt.Sprintf("%d ", code)
	if text := strings.TrimPrefix(status, prefix); text != "" && text != status {
		return text
	}
	if text := http.StatusText(code); text != "" {
		return text
	}
	return status
}
