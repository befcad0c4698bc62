package google

import (
	"context"
	"fmt"
	"net/url"

	"github.com/google/uuid"

	"github.com/hyunwoojo/gilro/internal/core/domain"
)

// Autocomplete session tokens group the keystroke queries leading up to a
// selection into one billable session. Tokens live in the cache keyed by
// navigation session and expire after three minutes of inactivity.
const sessionTokenTTLSeconds = 180

func tokenCacheKey(sessionID string) string {
	return "places:token:" + sessionID
}

// Autocomplete returns place predictions for a partial input, biased to the
// configured country.
func (c *Client) Autocomplete(ctx context.Context, sessionID, input string) ([]domain.Place, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("places: no API key configured")
	}
	if input == "" {
		return nil, nil
	}

	q := url.Values{}
	q.Set("input", input)
	q.Set("language", c.language)
	if c.country != "" {
		q.Set("components", "country:"+c.country)
	}
	q.Set("sessiontoken", c.sessionToken(ctx, sessionID))
	q.Set("key", c.apiKey)

	var resp autocompleteResponse
	if err := c.getJSON(ctx, autocompletePath, q, &resp); err != nil {
		return nil, fmt.Errorf("places: %w", err)
	}
	if resp.Status != statusOK && resp.Status != statusZeroResults {
		return nil, upstreamError("places", resp.Status, resp.ErrorMessage)
	}

	places := make([]domain.Place, 0, len(resp.Predictions))
	for _, p := range resp.Predictions {
		name := p.StructuredFormatting.MainText
		if name == "" {
			name = p.Description
		}
		places = append(places, domain.Place{
			PlaceID: p.PlaceID,
			Name:    name,
			Address: p.Description,
		})
	}
	return places, nil
}

// ResolvePlace fetches the coordinates and address for a selected
// prediction. The selection completes the autocomplete session, so the
// session token is rotated afterwards.
func (c *Client) ResolvePlace(ctx context.Context, sessionID, placeID string) (*domain.Place, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("places: no API key configured")
	}

	q := url.Values{}
	q.Set("place_id", placeID)
	q.Set("fields", "place_id,name,formatted_address,geometry")
	q.Set("language", c.language)
	q.Set("sessiontoken", c.sessionToken(ctx, sessionID))
	q.Set("key", c.apiKey)

	var resp placeDetailsResponse
	if err := c.getJSON(ctx, detailsPath, q, &resp); err != nil {
		return nil, fmt.Errorf("places: %w", err)
	}
	if resp.Status != statusOK {
		return nil, upstreamError("places", resp.Status, resp.ErrorMessage)
	}

	c.rotateToken(ctx, sessionID)

	place := &domain.Place{
		PlaceID: resp.Result.PlaceID,
		Name:    resp.Result.Name,
		Address: resp.Result.FormattedAddress,
	}
	if resp.Result.Geometry != nil {
		place.Location = &domain.GeoPoint{
			Lat: resp.Result.Geometry.Location.Lat,
			Lng: resp.Result.Geometry.Location.Lng,
		}
	}
	return place, nil
}

func (c *Client) sessionToken(ctx context.Context, sessionID string) string {
	key := tokenCacheKey(sessionID)
	if c.cache != nil {
		if cached, err := c.cache.Get(ctx, key); err == nil && len(cached) > 0 {
			return string(cached)
		}
	}
	token := uuid.NewString()
	if c.cache != nil {
		if err := c.cache.Set(ctx, key, []byte(token), sessionTokenTTLSeconds); err != nil {
			c.logger.Warn("failed to persist autocomplete session token", "error", err)
		}
	}
	return token
}

func (c *Client) rotateToken(ctx context.Context, sessionID string) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Delete(ctx, tokenCacheKey(sessionID)); err != nil {
		c.logger.Warn("failed to rotate autocomplete session token", "error", err)
	}
}
