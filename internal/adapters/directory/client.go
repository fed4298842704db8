package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/nmacchitella/topoi/internal/core/domain"
)

// Client talks to the places directory backend over HTTP. It implements
// ports.PlaceDirectory; all calls are idempotent reads authenticated with a
// bearer token for the active user.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a directory client. baseURL must not end with a slash.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// StatusError reports a non-2xx directory response.
type StatusError struct {
	Code int
	Path string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("directory: HTTP %d for %s", e.Code, e.Path)
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("directory: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return &StatusError{Code: resp.StatusCode, Path: path}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("directory: decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) OwnPlaces(ctx context.Context) ([]domain.Place, error) {
	var places []domain.Place
	if err := c.getJSON(ctx, "/api/places", nil, &places); err != nil {
		return nil, err
	}
	return places, nil
}

func (c *Client) UserPlaces(ctx context.Context, userID string) ([]domain.Place, error) {
	var places []domain.Place
	path := "/api/users/" + url.PathEscape(userID) + "/places"
	if err := c.getJSON(ctx, path, nil, &places); err != nil {
		return nil, err
	}
	return places, nil
}

func (c *Client) UserPlacesInBounds(ctx context.Context, userID string, b domain.Bounds) ([]domain.Place, error) {
	q := url.Values{}
	q.Set("south", formatCoord(b.South))
	q.Set("west", formatCoord(b.West))
	q.Set("north", formatCoord(b.North))
	q.Set("east", formatCoord(b.East))

	var places []domain.Place
	path := "/api/users/" + url.PathEscape(userID) + "/places"
	if err := c.getJSON(ctx, path, q, &places); err != nil {
		return nil, err
	}
	return places, nil
}

func (c *Client) MapMeta(ctx context.Context, userID string) (*domain.SourceMeta, error) {
	var meta domain.SourceMeta
	path := "/api/users/" + url.PathEscape(userID) + "/map-meta"
	if err := c.getJSON(ctx, path, nil, &meta); err != nil {
		return nil, err
	}
	if meta.SourceID == "" {
		meta.SourceID = userID
	}
	if meta.FetchedAt.IsZero() {
		meta.FetchedAt = time.Now()
	}
	return &meta, nil
}

func (c *Client) Collections(ctx context.Context) ([]domain.Collection, error) {
	var cols []domain.Collection
	if err := c.getJSON(ctx, "/api/collections", nil, &cols); err != nil {
		return nil, err
	}
	return cols, nil
}

func (c *Client) Tags(ctx context.Context, userID string) ([]domain.Tag, error) {
	path := "/api/tags"
	if userID != "" {
		path = "/api/users/" + url.PathEscape(userID) + "/tags"
	}
	var tags []domain.Tag
	if err := c.getJSON(ctx, path, nil, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

func (c *Client) Following(ctx context.Context) ([]domain.FollowedUser, error) {
	var users []domain.FollowedUser
	if err := c.getJSON(ctx, "/api/following", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
