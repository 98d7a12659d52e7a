// Package client is the typed REST client for the dsaflash API. It is the
// remote half of the synchronization layer and reports every failure,
// transport or HTTP status, as an error; deciding what to do about it is the
// caller's job.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/starford/dsaflash/internal/models"
)

// DefaultTimeout bounds every request unless overridden with WithTimeout.
const DefaultTimeout = 10 * time.Second

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: status %d", e.Status)
	}
	return fmt.Sprintf("api: status %d: %s", e.Status, e.Message)
}

// Client talks to one dsaflash server. Safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout. The HTTP client is copied first
// so a client passed to WithHTTPClient is left as it was.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc := *c.httpClient
		hc.Timeout = d
		c.httpClient = &hc
	}
}

// New creates a client for baseURL, e.g. "http://localhost:5000".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// BaseURL returns the server root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// Topics returns the topic endpoints.
func (c *Client) Topics() *Topics { return &Topics{c: c} }

// Problems returns the problem endpoints.
func (c *Client) Problems() *Problems { return &Problems{c: c} }

// Notes returns the topic note endpoints.
func (c *Client) Notes() *Notes { return &Notes{c: c} }

// Health is the payload of GET /api/health.
type Health struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Health checks that the server is up.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var h Health
	err := c.do(ctx, http.MethodGet, "/api/health", nil, &h)
	return h, err
}

// UploadImage posts an image as multipart field "image" and returns the URL
// the server serves it under.
func (c *Client) UploadImage(ctx context.Context, name string, r io.Reader) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("image", filepath.Base(name))
	if err != nil {
		return "", fmt.Errorf("client: upload: %w", err)
	}
	if _, err := io.Copy(fw, r); err != nil {
		return "", fmt.Errorf("client: upload: read %s: %w", name, err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("client: upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload", &buf)
	if err != nil {
		return "", fmt.Errorf("client: upload: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out struct {
		ImageURL string `json:"imageUrl"`
	}
	if err := c.send(req, &out); err != nil {
		return "", err
	}
	return out.ImageURL, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("client: encode %s %s: %w", method, path, err)
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		apiErr := &APIError{Status: resp.StatusCode}
		var body struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(raw, &body) == nil && body.Message != "" {
			apiErr.Message = body.Message
		} else {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("client: decode %s %s: %w", req.Method, req.URL.Path, err)
	}
	return nil
}

func escape(id string) string { return url.PathEscape(id) }

// Topics wraps /api/topics.
type Topics struct{ c *Client }

// List returns every topic in server order.
func (t *Topics) List(ctx context.Context) ([]models.Topic, error) {
	var out []models.Topic
	if err := t.c.do(ctx, http.MethodGet, "/api/topics", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create submits a topic without its ID and returns the stored one.
func (t *Topics) Create(ctx context.Context, topic models.Topic) (models.Topic, error) {
	topic.ID = ""
	var out models.Topic
	err := t.c.do(ctx, http.MethodPost, "/api/topics", topic, &out)
	return out, err
}

// Update applies a partial update.
func (t *Topics) Update(ctx context.Context, id string, patch models.TopicPatch) (models.Topic, error) {
	var out models.Topic
	err := t.c.do(ctx, http.MethodPut, "/api/topics/"+escape(id), patch, &out)
	return out, err
}

// Delete removes a topic; the server cascades to its problems and note.
func (t *Topics) Delete(ctx context.Context, id string) error {
	return t.c.do(ctx, http.MethodDelete, "/api/topics/"+escape(id), nil, nil)
}

// Problems wraps /api/problems.
type Problems struct{ c *Client }

// List returns every problem, newest first.
func (p *Problems) List(ctx context.Context) ([]models.Problem, error) {
	var out []models.Problem
	if err := p.c.do(ctx, http.MethodGet, "/api/problems", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByTopic returns the problems of one topic.
func (p *Problems) ListByTopic(ctx context.Context, topicID string) ([]models.Problem, error) {
	var out []models.Problem
	if err := p.c.do(ctx, http.MethodGet, "/api/problems/topic/"+escape(topicID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create submits a problem without its ID and returns the stored one.
func (p *Problems) Create(ctx context.Context, problem models.Problem) (models.Problem, error) {
	problem.ID = ""
	var out models.Problem
	err := p.c.do(ctx, http.MethodPost, "/api/problems", problem, &out)
	return out, err
}

// Update applies a partial update.
func (p *Problems) Update(ctx context.Context, id string, patch models.ProblemPatch) (models.Problem, error) {
	var out models.Problem
	err := p.c.do(ctx, http.MethodPut, "/api/problems/"+escape(id), patch, &out)
	return out, err
}

// Delete removes a problem.
func (p *Problems) Delete(ctx context.Context, id string) error {
	return p.c.do(ctx, http.MethodDelete, "/api/problems/"+escape(id), nil, nil)
}

// Notes wraps /api/topic-notes.
type Notes struct{ c *Client }

// Get returns the note content of a topic, "" when it has none.
func (n *Notes) Get(ctx context.Context, topicID string) (string, error) {
	var out models.NotesBody
	if err := n.c.do(ctx, http.MethodGet, "/api/topic-notes/"+escape(topicID), nil, &out); err != nil {
		return "", err
	}
	return out.Notes, nil
}

// Save upserts the note content of a topic.
func (n *Notes) Save(ctx context.Context, topicID, content string) (string, error) {
	var out models.NotesBody
	err := n.c.do(ctx, http.MethodPost, "/api/topic-notes/"+escape(topicID), models.NotesBody{Notes: content}, &out)
	return out.Notes, err
}
