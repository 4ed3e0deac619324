// Package cli implements the registrar command-line client.
//
// Each command is a kong command struct with a Run(ctx, *Globals) method.
// Tokens returned by login and register are kept in a 0600 file so that
// later profile and whoami calls can reuse them.
package cli
