// Package idresolve translates between the two numeric identifier spaces a
// deep link can carry: place IDs (a single experience place) and universe IDs
// (the experience as a whole, whose entry point is its root place).
//
// Lookups are plain function values so that route transforms can close over
// them and tests can substitute fakes. The Client type provides the default
// HTTP-backed implementations. Nothing here caches or retries.
package idresolve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// ErrNotFound is returned when the lookup service answered but carried no
// identifier for the input.
var ErrNotFound = errors.New("identifier not found")

// Lookup maps one identifier to another.
type Lookup func(ctx context.Context, id int64) (int64, error)

// DefaultAPIDomain is the domain suffix of the lookup services.
const DefaultAPIDomain = ".roblox.com"

// DefaultTimeout bounds a single lookup request made by NewClient's default
// HTTP client.
const DefaultTimeout = 10 * time.Second

// Client performs identifier lookups against the public web APIs.
type Client struct {
	// HTTP performs the requests. This is the fetch override.
	HTTP *http.Client

	// UniversesBaseURL serves /universes/v1/places/{placeId}/universe.
	UniversesBaseURL string

	// GamesBaseURL serves /v1/games?universeIds={universeId}.
	GamesBaseURL string

	Logger *slog.Logger
}

// NewClient creates a Client for apiDomain (e.g. ".roblox.com").
// A nil httpClient gets a client with DefaultTimeout.
func NewClient(apiDomain string, httpClient *http.Client) *Client {
	if apiDomain == "" {
		apiDomain = DefaultAPIDomain
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		HTTP:             httpClient,
		UniversesBaseURL: "https://apis" + apiDomain,
		GamesBaseURL:     "https://games" + apiDomain,
		Logger:           slog.Default(),
	}
}

type placeUniverseResponse struct {
	UniverseID *int64 `json:"universeId"`
}

type gamesResponse struct {
	Data []struct {
		RootPlaceID *int64 `json:"rootPlaceId"`
	} `json:"data"`
}

// PlaceUniverse returns the universe that owns placeID.
func (c *Client) PlaceUniverse(ctx context.Context, placeID int64) (int64, error) {
	endpoint := fmt.Sprintf("%s/universes/v1/places/%d/universe", c.UniversesBaseURL, placeID)

	var body placeUniverseResponse
	if err := c.getJSON(ctx, endpoint, &body); err != nil {
		return 0, fmt.Errorf("place %d universe: %w", placeID, err)
	}
	if body.UniverseID == nil {
		return 0, fmt.Errorf("place %d universe: %w", placeID, ErrNotFound)
	}
	return *body.UniverseID, nil
}

// UniverseRootPlace returns the root place of universeID.
func (c *Client) UniverseRootPlace(ctx context.Context, universeID int64) (int64, error) {
	endpoint := c.GamesBaseURL + "/v1/games?" + url.Values{
		"universeIds": {strconv.FormatInt(universeID, 10)},
	}.Encode()

	var body gamesResponse
	if err := c.getJSON(ctx, endpoint, &body); err != nil {
		return 0, fmt.Errorf("universe %d root place: %w", universeID, err)
	}
	if len(body.Data) == 0 || body.Data[0].RootPlaceID == nil {
		return 0, fmt.Errorf("universe %d root place: %w", universeID, ErrNotFound)
	}
	return *body.Data[0].RootPlaceID, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if c.Logger != nil {
		c.Logger.Debug("identifier lookup", "url", endpoint, "status", resp.StatusCode)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("request %s: unexpected status %d", endpoint, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode %s: %w", endpoint, err)
	}
	return nil
}

// ParseID parses a decimal identifier as used in URLs.
func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid identifier %q: %w", s, err)
	}
	return id, nil
}
