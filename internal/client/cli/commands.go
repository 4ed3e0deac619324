package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/registrar/internal/client/api"
	"github.com/dmitrijs2005/registrar/internal/client/tokenfile"
	"github.com/dmitrijs2005/registrar/internal/common"
)

// API is the subset of api.Client the commands use.
type API interface {
	Login(ctx context.Context, username, password string) (string, error)
	Register(ctx context.Context, r api.RegisterRequest) (string, error)
	Profile(ctx context.Context, token string) (*api.Profile, error)
}

// Globals carries the flags shared by every command.
type Globals struct {
	Server    string
	TokenFile string
	Timeout   time.Duration
	Version   string

	In  *bufio.Reader
	Out io.Writer

	api API
}

func (g *Globals) client() API {
	if g.api == nil {
		g.api = api.New(g.Server, g.Timeout)
	}
	return g.api
}

func (g *Globals) token() (string, error) {
	tok, err := tokenfile.Load(g.TokenFile)
	if errors.Is(err, tokenfile.ErrNoToken) {
		return "", fmt.Errorf("%w: run `registrar login` first", err)
	}
	return tok, err
}

type RegisterCmd struct {
	Username string `help:"Account name (no spaces or @)."`
	First    string `help:"First name."`
	Last     string `help:"Last name."`
	Email    string `help:"E-mail address."`
}

func (c *RegisterCmd) Run(ctx context.Context, g *Globals) error {
	var err error
	if c.Username, err = textOrPrompt(g, c.Username, "Username"); err != nil {
		return err
	}
	if c.First, err = textOrPrompt(g, c.First, "First name"); err != nil {
		return err
	}
	if c.Last, err = textOrPrompt(g, c.Last, "Last name"); err != nil {
		return err
	}
	if c.Email, err = textOrPrompt(g, c.Email, "E-mail"); err != nil {
		return err
	}

	pw, err := GetPassword(g.Out, "Password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	confirm, err := GetPassword(g.Out, "Repeat password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	if string(pw) != string(confirm) {
		return errors.New("passwords do not match")
	}

	tok, err := g.client().Register(ctx, api.RegisterRequest{
		First:    c.First,
		Last:     c.Last,
		Username: c.Username,
		Email:    c.Email,
		Password: string(pw),
	})
	if err != nil {
		var apiErr *api.Error
		if errors.As(err, &apiErr) && apiErr.Field != "" {
			return fmt.Errorf("%s is already taken: %w", apiErr.Field, err)
		}
		return err
	}

	if err := tokenfile.Save(g.TokenFile, tok); err != nil {
		return err
	}
	fmt.Fprintf(g.Out, "Registered %s\n", c.Username)
	return nil
}

type LoginCmd struct {
	Username string `arg:"" optional:"" help:"Account name or e-mail."`
}

func (c *LoginCmd) Run(ctx context.Context, g *Globals) error {
	username, err := textOrPrompt(g, c.Username, "Username")
	if err != nil {
		return err
	}

	pw, err := GetPassword(g.Out, "Password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	tok, err := g.client().Login(ctx, username, string(pw))
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			return errors.New("incorrect username or password")
		}
		return err
	}

	if err := tokenfile.Save(g.TokenFile, tok); err != nil {
		return err
	}
	fmt.Fprintf(g.Out, "Logged in as %s\n", username)
	return nil
}

type ProfileCmd struct {
	Thumbnail string `help:"Write the thumbnail PNG to this path." type:"path"`
}

func (c *ProfileCmd) Run(ctx context.Context, g *Globals) error {
	tok, err := g.token()
	if err != nil {
		return err
	}

	p, err := g.client().Profile(ctx, tok)
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			return errors.New("session expired, log in again")
		}
		return err
	}

	fmt.Fprintf(g.Out, "%s %s (%s)\n\n", p.First, p.Last, p.Username)

	tw := tabwriter.NewWriter(g.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tIP\tCOUNTRY\tBROWSER")
	for _, s := range p.Sessions {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.Time.Local().Format(time.DateTime), s.IP, s.Country, s.Browser)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if c.Thumbnail != "" && len(p.Thumbnail) > 0 {
		if err := os.WriteFile(c.Thumbnail, p.Thumbnail, 0o644); err != nil {
			return fmt.Errorf("write thumbnail: %w", err)
		}
		fmt.Fprintf(g.Out, "\nThumbnail saved to %s\n", c.Thumbnail)
	}
	return nil
}

type WhoamiCmd struct{}

func (c *WhoamiCmd) Run(ctx context.Context, g *Globals) error {
	tok, err := g.token()
	if err != nil {
		return err
	}
	claims, err := tokenfile.Inspect(tok)
	if err != nil {
		return err
	}

	state := "valid until " + claims.ExpiresAt.Local().Format(time.DateTime)
	if claims.Expired(time.Now()) {
		state = "expired"
	}
	fmt.Fprintf(g.Out, "%s (%s)\n", claims.Username, state)
	return nil
}

type LogoutCmd struct{}

func (c *LogoutCmd) Run(ctx context.Context, g *Globals) error {
	if err := tokenfile.Remove(g.TokenFile); err != nil {
		return err
	}
	fmt.Fprintln(g.Out, "Logged out")
	return nil
}
