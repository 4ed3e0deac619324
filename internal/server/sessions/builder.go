// Package sessions derives the session metadata recorded for every login.
package sessions

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/registrar/internal/common"
	"github.com/dmitrijs2005/registrar/internal/logging"
	"github.com/dmitrijs2005/registrar/internal/netx"
	"github.com/dmitrijs2005/registrar/internal/server/geo"
	"github.com/dmitrijs2005/registrar/internal/server/models"
)

// Builder turns request headers and a client address into a
// SessionDescriptor.
type Builder struct {
	locator geo.Locator
	timeout time.Duration
	logger  logging.Logger
	now     func() time.Time
}

// NewBuilder returns a Builder whose geolocation calls are bounded by
// timeout. A nil locator records every country as unknown.
func NewBuilder(locator geo.Locator, timeout time.Duration, logger logging.Logger) *Builder {
	return &Builder{
		locator: locator,
		timeout: timeout,
		logger:  logger,
		now:     time.Now,
	}
}

// Build validates clientIP, classifies the User-Agent and resolves the
// country. Geolocation failures degrade to common.UnknownCountry; an invalid
// IP fails with a validation error.
func (b *Builder) Build(ctx context.Context, headers http.Header, clientIP string) (models.SessionDescriptor, error) {
	ip, err := netx.EnsureIPIsValid(clientIP)
	if err != nil {
		return models.SessionDescriptor{}, err
	}

	return models.SessionDescriptor{
		Time:    b.now().UTC(),
		IP:      ip,
		Country: b.country(ctx, ip),
		Browser: ClassifyBrowser(headers.Get("User-Agent")),
	}, nil
}

func (b *Builder) country(ctx context.Context, ip string) string {
	if b.locator == nil {
		return common.UnknownCountry
	}

	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	country, err := b.locator.Country(ctx, ip)
	if err != nil || country == "" {
		b.logger.Debug(ctx, "geolocation unavailable", "ip", ip, "error", err)
		return common.UnknownCountry
	}
	return country
}
