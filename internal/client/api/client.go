// Package api is a thin client for the registrar HTTP endpoints.
package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// RegisterRequest mirrors the "user" object accepted by /user_register.
type RegisterRequest struct {
	First    string `json:"first"`
	Last     string `json:"last"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Session struct {
	IP      string    `json:"ip"`
	Browser string    `json:"browser"`
	Time    time.Time `json:"time"`
	Country string    `json:"country"`
}

type Profile struct {
	Username  string
	First     string
	Last      string
	Thumbnail []byte
	Sessions  []Session
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type profileResponse struct {
	UserBasics struct {
		Username  string `json:"username"`
		First     string `json:"first"`
		Last      string `json:"last"`
		Thumbnail string `json:"thumbnail"`
	} `json:"user_basics"`
	UserSessions []Session `json:"user_sessions"`
}

type errorResponse struct {
	Detail string `json:"detail"`
	Field  string `json:"field"`
}

// Client talks to a single registrar server.
type Client struct {
	baseURL   string
	http      *http.Client
	userAgent string
}

// New returns a client for baseURL, e.g. "http://localhost:8000".
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{Timeout: timeout},
		userAgent: "registrar-cli/1.0",
	}
}

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req, err := c.newRequest(ctx, http.MethodPost, "/user_login", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var tr tokenResponse
	if err := c.do(req, &tr); err != nil {
		return "", err
	}
	return tr.AccessToken, nil
}

// Register creates the account and returns a token for it.
func (c *Client) Register(ctx context.Context, r RegisterRequest) (string, error) {
	body, err := json.Marshal(struct {
		User RegisterRequest `json:"user"`
	}{User: r})
	if err != nil {
		return "", err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/user_register", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	var tr tokenResponse
	if err := c.do(req, &tr); err != nil {
		return "", err
	}
	return tr.AccessToken, nil
}

// Profile fetches the profile of the token's owner.
func (c *Client) Profile(ctx context.Context, token string) (*Profile, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/user_profile", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	var pr profileResponse
	if err := c.do(req, &pr); err != nil {
		return nil, err
	}

	thumb, err := base64.StdEncoding.DecodeString(pr.UserBasics.Thumbnail)
	if err != nil {
		return nil, fmt.Errorf("decode thumbnail: %w", err)
	}

	return &Profile{
		Username:  pr.UserBasics.Username,
		First:     pr.UserBasics.First,
		Last:      pr.UserBasics.Last,
		Thumbnail: thumb,
		Sessions:  pr.UserSessions,
	}, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: %s", ErrUnavailable, resp.Status)
	}
	if resp.StatusCode >= 300 {
		apiErr := &Error{Status: resp.StatusCode}
		var er errorResponse
		if json.NewDecoder(resp.Body).Decode(&er) == nil {
			apiErr.Detail, apiErr.Field = er.Detail, er.Field
		}
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
