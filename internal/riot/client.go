// Package riot is a thin client for the rate-limited Riot ranked API:
// ranked-ladder pages, summoner profiles, accounts, match histories and
// champion masteries.
package riot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultUserAgent = "trackscope/1.0"
	defaultTimeout   = 20 * time.Second

	// Development keys allow 100 requests per 2 minutes; the limiter sits
	// slightly under that so bursts never trip the server-side gate.
	defaultRateRequests = 95
	defaultRateWindow   = 2 * time.Minute
	defaultRateBurst    = 20

	maxRetryAttempts = 3
	retryBaseDelay   = time.Second
	retryMaxDelay    = 30 * time.Second
)

// HTTPStatusError is any non-2xx answer from the Riot API.
type HTTPStatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "riot request failed"
	}
	return fmt.Sprintf("request %s failed: status %d body %q", e.URL, e.StatusCode, e.Body)
}

// IsNotFound reports whether err is a 404 from the Riot API. Callers use
// it to translate "unknown player" into an absence value instead of a
// failure.
func IsNotFound(err error) bool {
	var statusErr *HTTPStatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound
}

type Client struct {
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter

	mu         sync.Mutex
	retryAfter time.Time
}

func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: &http.Client{Timeout: defaultTimeout},
		limiter:    rate.NewLimiter(rate.Every(defaultRateWindow/defaultRateRequests), defaultRateBurst),
	}
}

// LeagueEntries fetches one page of the ranked ladder for a queue, tier
// and division on the given platform region.
func (c *Client) LeagueEntries(ctx context.Context, region, queue, tier, division string, page int) ([]LeagueEntry, error) {
	region, err := requirePlatformRegion(region)
	if err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}

	endpoint := fmt.Sprintf("https://%s.api.riotgames.com/lol/league-exp/v4/entries/%s/%s/%s?page=%d",
		region, url.PathEscape(queue), url.PathEscape(tier), url.PathEscape(division), page)
	var entries []LeagueEntry
	if err := c.doJSON(ctx, endpoint, &entries); err != nil {
		return nil, fmt.Errorf("fetch league entries: %w", err)
	}
	return entries, nil
}

func (c *Client) SummonerByPUUID(ctx context.Context, region, puuid string) (SummonerProfile, error) {
	region, err := requirePlatformRegion(region)
	if err != nil {
		return SummonerProfile{}, err
	}
	puuid, err = requireNonEmpty("puuid", puuid)
	if err != nil {
		return SummonerProfile{}, err
	}

	endpoint := fmt.Sprintf("https://%s.api.riotgames.com/lol/summoner/v4/summoners/by-puuid/%s", region, url.PathEscape(puuid))
	var profile SummonerProfile
	if err := c.doJSON(ctx, endpoint, &profile); err != nil {
		return SummonerProfile{}, fmt.Errorf("fetch summoner by puuid: %w", err)
	}
	return profile, nil
}

func (c *Client) AccountByPUUID(ctx context.Context, region, puuid string) (Account, error) {
	continent, err := requireContinent(region)
	if err != nil {
		return Account{}, err
	}
	puuid, err = requireNonEmpty("puuid", puuid)
	if err != nil {
		return Account{}, err
	}

	endpoint := fmt.Sprintf("https://%s.api.riotgames.com/riot/account/v1/accounts/by-puuid/%s", continent, url.PathEscape(puuid))
	var account Account
	if err := c.doJSON(ctx, endpoint, &account); err != nil {
		return Account{}, fmt.Errorf("fetch account by puuid: %w", err)
	}
	return account, nil
}

func (c *Client) AccountByRiotID(ctx context.Context, region, gameName, tagLine string) (Account, error) {
	continent, err := requireContinent(region)
	if err != nil {
		return Account{}, err
	}
	gameName = strings.TrimSpace(gameName)
	tagLine = strings.TrimPrefix(strings.TrimSpace(tagLine), "#")
	if gameName == "" || tagLine == "" {
		return Account{}, ErrInvalidRiotID
	}

	endpoint := fmt.Sprintf("https://%s.api.riotgames.com/riot/account/v1/accounts/by-riot-id/%s/%s",
		continent, url.PathEscape(gameName), url.PathEscape(tagLine))
	var account Account
	if err := c.doJSON(ctx, endpoint, &account); err != nil {
		return Account{}, fmt.Errorf("fetch account by riot id: %w", err)
	}
	return account, nil
}

func (c *Client) LeagueEntriesByPUUID(ctx context.Context, region, puuid string) ([]LeagueEntry, error) {
	region, err := requirePlatformRegion(region)
	if err != nil {
		return nil, err
	}
	puuid, err = requireNonEmpty("puuid", puuid)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("https://%s.api.riotgames.com/lol/league/v4/entries/by-puuid/%s", region, url.PathEscape(puuid))
	var entries []LeagueEntry
	if err := c.doJSON(ctx, endpoint, &entries); err != nil {
		return nil, fmt.Errorf("fetch league entries by puuid: %w", err)
	}
	return entries, nil
}

func (c *Client) MatchIDs(ctx context.Context, region, puuid string, start, count int) ([]string, error) {
	continent, err := requireContinent(region)
	if err != nil {
		return nil, err
	}
	puuid, err = requireNonEmpty("puuid", puuid)
	if err != nil {
		return nil, err
	}
	if start < 0 {
		start = 0
	}
	if count <= 0 {
		count = 10
	}

	endpoint := fmt.Sprintf("https://%s.api.riotgames.com/lol/match/v5/matches/by-puuid/%s/ids?start=%d&count=%d",
		continent, url.PathEscape(puuid), start, count)
	var ids []string
	if err := c.doJSON(ctx, endpoint, &ids); err != nil {
		return nil, fmt.Errorf("fetch match ids: %w", err)
	}
	return ids, nil
}

func (c *Client) Match(ctx context.Context, region, matchID string) (Match, error) {
	continent, err := requireContinent(region)
	if err != nil {
		return Match{}, err
	}
	matchID, err = requireNonEmpty("match id", matchID)
	if err != nil {
		return Match{}, err
	}

	endpoint := fmt.Sprintf("https://%s.api.riotgames.com/lol/match/v5/matches/%s", continent, url.PathEscape(matchID))
	var match Match
	if err := c.doJSON(ctx, endpoint, &match); err != nil {
		return Match{}, fmt.Errorf("fetch match: %w", err)
	}
	return match, nil
}

func (c *Client) Masteries(ctx context.Context, region, puuid string) ([]ChampionMastery, error) {
	region, err := requirePlatformRegion(region)
	if err != nil {
		return nil, err
	}
	puuid, err = requireNonEmpty("puuid", puuid)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("https://%s.api.riotgames.com/lol/champion-mastery/v4/champion-masteries/by-puuid/%s", region, url.PathEscape(puuid))
	var masteries []ChampionMastery
	if err := c.doJSON(ctx, endpoint, &masteries); err != nil {
		return nil, fmt.Errorf("fetch champion masteries: %w", err)
	}
	return masteries, nil
}

func (c *Client) doJSON(ctx context.Context, endpoint string, target any) error {
	var lastErr error
	for attempt := 0; attempt < maxRetryAttempts; attempt++ {
		if attempt > 0 {
			backoff := min(retryBaseDelay*time.Duration(1<<uint(attempt)), retryMaxDelay)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		if err := c.waitForRateLimit(ctx); err != nil {
			return err
		}

		statusErr, err := c.doRequest(ctx, endpoint, target)
		if err == nil && statusErr == nil {
			return nil
		}
		if err != nil {
			if isRetryableRequestError(err) {
				lastErr = err
				continue
			}
			return err
		}
		if !isRetryableStatus(statusErr.StatusCode) {
			return statusErr
		}
		lastErr = statusErr
	}
	return lastErr
}

func (c *Client) waitForRateLimit(ctx context.Context) error {
	c.mu.Lock()
	until := c.retryAfter
	c.mu.Unlock()

	if now := time.Now(); now.Before(until) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(until.Sub(now)):
		}
	}
	return c.limiter.Wait(ctx)
}

func (c *Client) doRequest(ctx context.Context, endpoint string, target any) (*HTTPStatusError, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("riot api key is required")
	}
	if target == nil {
		return nil, fmt.Errorf("target is nil")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("X-Riot-Token", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return nil, fmt.Errorf("decode %s: %w", endpoint, err)
		}
		return nil, nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	statusErr := &HTTPStatusError{
		URL:        endpoint,
		StatusCode: resp.StatusCode,
		Body:       string(body),
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		if retryAfter := parseRetryAfter(resp); retryAfter > 0 {
			c.mu.Lock()
			if newUntil := time.Now().Add(retryAfter); newUntil.After(c.retryAfter) {
				c.retryAfter = newUntil
			}
			c.mu.Unlock()
		}
	}
	return statusErr, nil
}

func isRetryableStatus(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests ||
		statusCode == http.StatusInternalServerError ||
		statusCode == http.StatusBadGateway ||
		statusCode == http.StatusServiceUnavailable ||
		statusCode == http.StatusGatewayTimeout
}

func isRetryableRequestError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func parseRetryAfter(resp *http.Response) time.Duration {
	val := resp.Header.Get("Retry-After")
	if val == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(val); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(val); err == nil {
		return time.Until(t)
	}
	return 0
}
