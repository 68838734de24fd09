// Package client talks to a remote design API that speaks the same JSON and
// multipart contract as this server's /api/designs endpoints.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/msomdec/design-gallery/internal/designform"
	"github.com/msomdec/design-gallery/internal/domain"
)

// Client is a design API client. It satisfies photoedit.Updater.
type Client struct {
	base  *url.URL
	http  *http.Client
	token string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithToken sends token as a bearer credential on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New creates a Client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url %q must be http or https", baseURL)
	}
	c := &Client{base: base, http: &http.Client{Timeout: 60 * time.Second}}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type designPayload struct {
	ID              int64           `json:"id"`
	ArchitectID     int64           `json:"architectId"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	Location        string          `json:"location"`
	Style           string          `json:"style"`
	AreaSqm         float64         `json:"areaSqm"`
	BuildingPhotos  json.RawMessage `json:"buildingPhotos"`
	FloorPlanPhotos json.RawMessage `json:"floorPlanPhotos"`
}

type designEnvelope struct {
	Design *designPayload `json:"design"`
}

// GetDesign fetches a design. Photo fields are normalized to ordered URL
// lists; relative URLs are resolved against the API base.
func (c *Client) GetDesign(ctx context.Context, id int64) (*domain.Design, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.designURL(id), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	return c.do(req)
}

// UpdateDesign sends update as a multipart PUT and returns the persisted
// design.
func (c *Client) UpdateDesign(ctx context.Context, id int64, update domain.DesignUpdate) (*domain.Design, error) {
	var body bytes.Buffer
	contentType, err := designform.Encode(&body, update)
	if err != nil {
		return nil, fmt.Errorf("encode update: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.designURL(id), &body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	return c.do(req)
}

func (c *Client) designURL(id int64) string {
	return c.base.JoinPath("api", "designs", strconv.FormatInt(id, 10)).String()
}

func (c *Client) do(req *http.Request) (*domain.Design, error) {
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var env designEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode design: %w", err)
	}
	if env.Design == nil {
		return nil, errors.New("decode design: response has no design")
	}
	return c.toDomain(env.Design)
}

func (c *Client) toDomain(p *designPayload) (*domain.Design, error) {
	d := &domain.Design{
		ID:          p.ID,
		ArchitectID: p.ArchitectID,
		Title:       p.Title,
		Description: p.Description,
		Location:    p.Location,
		Style:       p.Style,
		AreaSqm:     p.AreaSqm,
	}
	raw := map[domain.PhotoCategory]json.RawMessage{
		domain.PhotoCategoryBuilding:  p.BuildingPhotos,
		domain.PhotoCategoryFloorPlan: p.FloorPlanPhotos,
	}
	for _, cat := range domain.PhotoCategories {
		urls, err := NormalizePhotoList(raw[cat])
		if err != nil {
			return nil, fmt.Errorf("%s photos: %w", cat, err)
		}
		photos := make([]domain.Photo, len(urls))
		for i, u := range urls {
			photos[i] = domain.Photo{URL: c.resolve(u)}
		}
		d.SetPhotos(cat, photos)
	}
	return d, nil
}

func (c *Client) resolve(ref string) string {
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil || u.IsAbs() {
		return ref
	}
	return c.base.ResolveReference(u).String()
}

// NormalizePhotoList converts the shapes a photo field is seen in (a JSON
// array of strings, a string holding such an array, a single locator string,
// or null) into an ordered list of locators. Entries are trimmed but never
// removed: index i is remote position i, even when that locator is blank.
// A lone blank string means no photos.
func NormalizePhotoList(raw json.RawMessage) ([]string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []string{}, nil
	}

	var list []string
	switch raw[0] {
	case '[':
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("photo list: %w", err)
		}
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("photo list: %w", err)
		}
		s = strings.TrimSpace(s)
		if strings.HasPrefix(s, "[") {
			return NormalizePhotoList(json.RawMessage(s))
		}
		if s == "" {
			return []string{}, nil
		}
		list = []string{s}
	default:
		return nil, fmt.Errorf("photo list: unexpected JSON %.20s", raw)
	}

	out := make([]string, len(list))
	for i, s := range list {
		out[i] = strings.TrimSpace(s)
	}
	return out, nil
}

// statusError maps an error response to the matching domain error, keeping
// the server's message.
func statusError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if json.Unmarshal(data, &body) != nil || body.Error == "" {
		body.Error = strings.TrimSpace(string(data))
	}

	var sentinel error
	switch resp.StatusCode {
	case http.StatusNotFound:
		sentinel = domain.ErrNotFound
	case http.StatusUnauthorized:
		sentinel = domain.ErrUnauthorized
	case http.StatusForbidden:
		sentinel = domain.ErrForbidden
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		sentinel = domain.ErrInvalidInput
	default:
		return fmt.Errorf("design api: status %d: %s", resp.StatusCode, body.Error)
	}
	return fmt.Errorf("%w: %s", sentinel, body.Error)
}
