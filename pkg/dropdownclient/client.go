// Package dropdownclient is a caching Go client for the /api/dropdowns API.
//
// The bulk map returned by action=all is kept for DefaultTTL. Concurrent
// callers that miss the cache share one request, and every successful write
// made through the client drops the cached map.
package dropdownclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const DefaultTTL = 5 * time.Minute

type Value struct {
	ID           uint            `json:"id"`
	Value        string          `json:"value"`
	DisplayOrder int             `json:"display_order"`
	ParentID     *uint           `json:"parent_id"`
	Metadata     json.RawMessage `json:"metadata"`
}

type Category struct {
	CategoryID   uint    `json:"category_id"`
	CategoryKey  string  `json:"category_key"`
	CategoryName string  `json:"category_name"`
	IsSystem     bool    `json:"is_system"`
	Values       []Value `json:"values"`
}

// Snapshot is one bulk fetch: every active category visible to an
// institution type, keyed by category key.
type Snapshot struct {
	InstitutionType string               `json:"institution_type"`
	Dropdowns       map[string]*Category `json:"dropdowns"`
}

type AddedValue struct {
	ID           uint   `json:"id"`
	Value        string `json:"value"`
	CategoryKey  string `json:"category_key"`
	CategoryName string `json:"category_name"`
}

type AddedCategory struct {
	ID           uint   `json:"id"`
	CategoryKey  string `json:"category_key"`
	CategoryName string `json:"category_name"`
}

// APIError is a non-2xx reply from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("dropdown api: %d %s", e.StatusCode, e.Message)
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type Client struct {
	baseURL         string
	token           string
	institutionType string
	httpClient      *http.Client
	ttl             time.Duration
	now             func() time.Time

	mu       sync.RWMutex
	snapshot *Snapshot
	loadedAt time.Time
	gen      uint64

	loads singleflight.Group
}

type Option func(*Client)

// WithToken sends token as a bearer credential.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithInstitutionType pins reads and writes to one institution type instead
// of the server's configured one.
func WithInstitutionType(name string) Option {
	return func(c *Client) { c.institutionType = name }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithTTL(ttl time.Duration) Option {
	return func(c *Client) { c.ttl = ttl }
}

// New returns a client for the server at baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		ttl:        DefaultTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LoadAll returns the cached snapshot, fetching it when absent or expired.
func (c *Client) LoadAll(ctx context.Context) (*Snapshot, error) {
	c.mu.RLock()
	snap, loadedAt, gen := c.snapshot, c.loadedAt, c.gen
	c.mu.RUnlock()
	if snap != nil && c.now().Sub(loadedAt) < c.ttl {
		return snap, nil
	}

	// callers after an Invalidate never join a request started before it
	v, err, _ := c.loads.Do("all:"+strconv.FormatUint(gen, 10), func() (interface{}, error) {
		var fresh Snapshot
		if err := c.call(context.WithoutCancel(ctx), http.MethodGet, url.Values{"action": {"all"}}, nil, &fresh); err != nil {
			return nil, err
		}
		if fresh.Dropdowns == nil {
			fresh.Dropdowns = map[string]*Category{}
		}

		c.mu.Lock()
		// a write invalidated the cache while this request was in flight
		if c.gen == gen {
			c.snapshot, c.loadedAt = &fresh, c.now()
		}
		c.mu.Unlock()
		return &fresh, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

// Invalidate drops the cached snapshot.
func (c *Client) Invalidate() {
	c.mu.Lock()
	c.snapshot = nil
	c.gen++
	c.mu.Unlock()
}

// Values returns the active values of key in display order. An unknown key
// yields an empty slice.
func (c *Client) Values(ctx context.Context, key string) ([]Value, error) {
	snap, err := c.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	if cat, ok := snap.Dropdowns[key]; ok && cat.Values != nil {
		return cat.Values, nil
	}
	return []Value{}, nil
}

// CategoryName returns the display name of key, or the key title-cased when
// it is unknown or the snapshot cannot be loaded.
func (c *Client) CategoryName(ctx context.Context, key string) string {
	if snap, err := c.LoadAll(ctx); err == nil {
		if cat, ok := snap.Dropdowns[key]; ok && cat.CategoryName != "" {
			return cat.CategoryName
		}
	}
	return titleKey(key)
}

// InstitutionType returns the institution type the snapshot was built for.
func (c *Client) InstitutionType(ctx context.Context) (string, error) {
	snap, err := c.LoadAll(ctx)
	if err != nil {
		return "", err
	}
	return snap.InstitutionType, nil
}

func (c *Client) AddValue(ctx context.Context, categoryKey, value string, parentID *uint, metadata interface{}) (*AddedValue, error) {
	body := map[string]interface{}{
		"action":       "add_value",
		"category_key": categoryKey,
		"value":        value,
	}
	if parentID != nil {
		body["parent_id"] = *parentID
	}
	if metadata != nil {
		body["metadata"] = metadata
	}

	var out AddedValue
	if err := c.call(ctx, http.MethodPost, nil, body, &out); err != nil {
		return nil, err
	}
	c.Invalidate()
	return &out, nil
}

func (c *Client) AddCategory(ctx context.Context, key, name string, institutionTypeID *uint, description string) (*AddedCategory, error) {
	body := map[string]interface{}{
		"action":        "add_category",
		"category_key":  key,
		"category_name": name,
		"description":   description,
	}
	if institutionTypeID != nil {
		body["institution_type_id"] = *institutionTypeID
	}

	var out AddedCategory
	if err := c.call(ctx, http.MethodPost, nil, body, &out); err != nil {
		return nil, err
	}
	c.Invalidate()
	return &out, nil
}

func (c *Client) DeleteValue(ctx context.Context, id uint) error {
	q := url.Values{"id": {strconv.FormatUint(uint64(id), 10)}, "type": {"value"}}
	if err := c.call(ctx, http.MethodDelete, q, nil, nil); err != nil {
		return err
	}
	c.Invalidate()
	return nil
}

func (c *Client) DeleteCategory(ctx context.Context, id uint) error {
	q := url.Values{"id": {strconv.FormatUint(uint64(id), 10)}, "type": {"category"}}
	if err := c.call(ctx, http.MethodDelete, q, nil, nil); err != nil {
		return err
	}
	c.Invalidate()
	return nil
}

func (c *Client) call(ctx context.Context, method string, query url.Values, body interface{}, out interface{}) error {
	if query == nil {
		query = url.Values{}
	}
	if c.institutionType != "" {
		query.Set("institution_type", c.institutionType)
	}
	target := c.baseURL + "/api/dropdowns"
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if resp.StatusCode >= 300 {
			return &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode >= 300 || !env.Success {
		return &APIError{StatusCode: resp.StatusCode, Message: env.Message}
	}

	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode data: %w", err)
		}
	}
	return nil
}

// Casers carry state and are built per call.
func titleKey(key string) string {
	return cases.Title(language.Und, cases.NoLower).String(strings.ReplaceAll(key, "_", " "))
}
