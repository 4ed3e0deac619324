package main

import (
	"bufio"
	"context"
	"os"
	"time"

	"github.com/alecthomas/kong"

	"github.com/dmitrijs2005/registrar/internal/client/cli"
	"github.com/dmitrijs2005/registrar/internal/client/tokenfile"
)

var (
	version = "dev"
	args    struct {
		Register cli.RegisterCmd `cmd:"" help:"Create an account"`
		Login    cli.LoginCmd    `cmd:"" help:"Log in and store the access token"`
		Profile  cli.ProfileCmd  `cmd:"" help:"Show your profile and login history"`
		Whoami   cli.WhoamiCmd   `cmd:"" help:"Show who the stored token belongs to"`
		Logout   cli.LogoutCmd   `cmd:"" help:"Forget the stored token"`

		Server    string        `help:"Server URL" default:"http://localhost:8000" env:"REGISTRAR_SERVER"`
		TokenFile string        `help:"Where the access token is kept" default:"${token_file}" type:"path" env:"REGISTRAR_TOKEN_FILE"`
		Timeout   time.Duration `help:"Request timeout" default:"30s"`
		Version   kong.VersionFlag
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&args,
		kong.Name("registrar"),
		kong.Vars{
			"version":    version,
			"token_file": tokenfile.DefaultPath(),
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&cli.Globals{
		Server:    args.Server,
		TokenFile: args.TokenFile,
		Timeout:   args.Timeout,
		Version:   version,
		In:        bufio.NewReader(os.Stdin),
		Out:       os.Stdout,
	})
	cmd.FatalIfErrorf(err)
}
