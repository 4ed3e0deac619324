// Package geo resolves the country a client IP belongs to.
package geo

import (
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

	"github.com/cenkalti/backoff/v5"
	"github.com/dmitrijs2005/registrar/internal/netx"
)

// ErrNotRoutable is returned for loopback, private and other addresses a
// public geolocation service cannot place.
var ErrNotRoutable = errors.New("address is not publicly routable")

// Locator looks up the country of an IP address.
type Locator interface {
	Country(ctx context.Context, ip string) (string, error)
}

// IPInfoLocator queries an ipinfo.io compatible HTTP API:
// GET <base>/<ip>/json?token=<token>.
type IPInfoLocator struct {
	client   *http.Client
	baseURL  string
	token    string
	maxTries uint
	// initialInterval is the first retry delay; tests shrink it.
	initialInterval time.Duration
}

// NewIPInfoLocator builds a locator whose individual requests are bounded by
// timeout.
func NewIPInfoLocator(baseURL, token string, timeout time.Duration) *IPInfoLocator {
	return &IPInfoLocator{
		client:          &http.Client{Timeout: timeout},
		baseURL:         strings.TrimRight(baseURL, "/"),
		token:           token,
		maxTries:        3,
		initialInterval: 200 * time.Millisecond,
	}
}

type ipinfoResponse struct {
	Country     string `json:"country"`
	CountryName string `json:"country_name"`
	Bogon       bool   `json:"bogon"`
}

// Country returns the country name when the service provides one, otherwise
// its country code. Server errors and 429 are retried with exponential
// backoff; other client errors fail immediately.
func (l *IPInfoLocator) Country(ctx context.Context, ip string) (string, error) {
	if !netx.IsPublicIP(ip) {
		return "", ErrNotRoutable
	}

	endpoint := l.baseURL + "/" + url.PathEscape(ip) + "/json"
	if l.token != "" {
		endpoint += "?token=" + url.QueryEscape(l.token)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = l.initialInterval

	return backoff.Retry(ctx, func() (string, error) {
		return l.fetch(ctx, endpoint)
	}, backoff.WithBackOff(b), backoff.WithMaxTries(l.maxTries))
}

func (l *IPInfoLocator) fetch(ctx context.Context, endpoint string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", backoff.Permanent(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", backoff.Permanent(err)
		}
		return "", err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
			return "", backoff.RetryAfter(secs)
		}
		return "", fmt.Errorf("geolocation: %s", resp.Status)
	case resp.StatusCode >= 500:
		return "", fmt.Errorf("geolocation: %s", resp.Status)
	case resp.StatusCode != http.StatusOK:
		return "", backoff.Permanent(fmt.Errorf("geolocation: %s", resp.Status))
	}

	var body ipinfoResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err != nil {
		return "", backoff.Permanent(fmt.Errorf("geolocation: decode: %w", err))
	}
	if body.Bogon {
		return "", backoff.Permanent(ErrNotRoutable)
	}

	country := body.CountryName
	if country == "" {
		country = body.Country
	}
	if country == "" {
		return "", backoff.Permanent(errors.New("geolocation: no country in response"))
	}
	return country, nil
}
