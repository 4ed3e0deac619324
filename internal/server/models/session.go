package models

import (
	"time"

	"github.com/dmitrijs2005/registrar/internal/common"
	"github.com/dmitrijs2005/registrar/internal/netx"
	"github.com/google/uuid"
)

// Browser is the closed set of browser families a session can record.
type Browser string

const (
	BrowserFirefox   Browser = "Firefox"
	BrowserSeamonkey Browser = "Seamonkey"
	BrowserChrome    Browser = "Chrome"
	BrowserChromium  Browser = "Chromium"
	BrowserSafari    Browser = "Safari"
	BrowserOpera     Browser = "Opera"
	BrowserOther     Browser = "Other"
)

var browsers = map[Browser]struct{}{
	BrowserFirefox:   {},
	BrowserSeamonkey: {},
	BrowserChrome:    {},
	BrowserChromium:  {},
	BrowserSafari:    {},
	BrowserOpera:     {},
	BrowserOther:     {},
}

func (b Browser) Valid() bool {
	_, ok := browsers[b]
	return ok
}

// ParseBrowser converts a stored value back into a Browser.
func ParseBrowser(s string) (Browser, error) {
	b := Browser(s)
	if !b.Valid() {
		return "", common.ValidationError("browser", "unknown browser "+s)
	}
	return b, nil
}

// SessionDescriptor is what a single login looks like from the outside.
type SessionDescriptor struct {
	Time    time.Time
	IP      string
	Country string
	Browser Browser
}

// SessionRecord is one row of a user's append-only login history.
type SessionRecord struct {
	SessionID uuid.UUID
	Username  string
	Time      time.Time
	IP        string
	Country   string
	Browser   Browser
}

// NewSessionRecord assigns a fresh session id to d for username.
func NewSessionRecord(username string, d SessionDescriptor) (*SessionRecord, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, err
	}

	rec := &SessionRecord{
		SessionID: id,
		Username:  username,
		Time:      d.Time.UTC(),
		IP:        d.IP,
		Country:   d.Country,
		Browser:   d.Browser,
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return rec, nil
}

// Validate checks the record's shape. The ip is normalized in place.
func (s *SessionRecord) Validate() error {
	if s.Username == "" {
		return common.ValidationError("username", "required")
	}
	ip, err := netx.EnsureIPIsValid(s.IP)
	if err != nil {
		return err
	}
	s.IP = ip
	if !s.Browser.Valid() {
		return common.ValidationError("browser", "unknown browser "+string(s.Browser))
	}
	if s.Time.IsZero() {
		return common.ValidationError("time", "required")
	}
	return nil
}
