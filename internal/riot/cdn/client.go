// Package cdn is a client for the versioned Data Dragon static dataset:
// catalog versions, the champion index and per-champion detail files.
package cdn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultTimeout = 20 * time.Second

	BaseURL     = "https://ddragon.leagueoflegends.com/cdn"
	versionsURL = "https://ddragon.leagueoflegends.com/api/versions.json"

	DefaultLocale = "en_US"
)

// ErrChampionNotFound marks a detail response that does not carry the
// requested champion key. Sync treats it as a skippable per-item failure.
var ErrChampionNotFound = errors.New("champion not found in detail response")

type Client struct {
	httpClient *http.Client
	baseURL    string
}

func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    BaseURL,
	}
}

// Versions returns the catalog version ids, newest first.
func (c *Client) Versions(ctx context.Context) ([]string, error) {
	v, err := fetch[[]string](ctx, c.httpClient, versionsURL)
	if err == nil && len(v) == 0 {
		return nil, fmt.Errorf("no versions found")
	}
	return v, err
}

// Champions fetches the champion index for a version and locale.
func (c *Client) Champions(ctx context.Context, version, locale string) (ChampionList, error) {
	return fetch[ChampionList](ctx, c.httpClient, c.dataURL(version, locale, "champion.json"))
}

// ChampionDetail fetches the full catalog entry for one champion key.
func (c *Client) ChampionDetail(ctx context.Context, version, locale, key string) (Champion, error) {
	list, err := fetch[ChampionList](ctx, c.httpClient, c.dataURL(version, locale, "champion/"+key+".json"))
	if err != nil {
		return Champion{}, err
	}
	champ, ok := list.Data[key]
	if !ok {
		return Champion{}, fmt.Errorf("%w: %s", ErrChampionNotFound, key)
	}
	return champ, nil
}

func (c *Client) dataURL(version, locale, file string) string {
	return fmt.Sprintf("%s/%s/data/%s/%s", c.baseURL, version, locale, file)
}

// ChampionSquareURL returns the square portrait for a champion's mnemonic
// id ("Aatrox") at a catalog version.
func ChampionSquareURL(version, championID string) string {
	return fmt.Sprintf("%s/%s/img/champion/%s.png", BaseURL, version, championID)
}

func ProfileIconURL(version string, iconID int) string {
	return fmt.Sprintf("%s/%s/img/profileicon/%d.png", BaseURL, version, iconID)
}

func fetch[T any](ctx context.Context, client *http.Client, url string) (target T, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return target, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return target, err
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close response body: %w", closeErr)
		}
	}()
	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return target, fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}
	if err = json.NewDecoder(resp.Body).Decode(&target); err != nil {
		return target, fmt.Errorf("decode %s: %w", url, err)
	}
	return target, nil
}
