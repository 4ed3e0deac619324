// Package directory is the client for the external LDAP directory that owns
// credentials and identity. Every operation opens its own connection, binds,
// does its work and closes the connection before returning.
package directory

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/registrar/internal/common"
	"github.com/dmitrijs2005/registrar/internal/cryptox"
	"github.com/dmitrijs2005/registrar/internal/filex"
	"github.com/dmitrijs2005/registrar/internal/server/config"
	"github.com/go-ldap/ldap/v3"
)

// Conn is the part of *ldap.Conn the client uses.
type Conn interface {
	Bind(username, password string) error
	Search(req *ldap.SearchRequest) (*ldap.SearchResult, error)
	Add(req *ldap.AddRequest) error
	Close() error
}

// Dialer opens a transport-level connection to the directory.
type Dialer func(ctx context.Context) (Conn, error)

// Options are the directory settings the client needs after dialing.
type Options struct {
	AdminDN       string
	AdminPassword string
	BaseDN        string
	UsersOU       string
	Timeout       time.Duration
}

// Entry is a new user as written to the directory.
type Entry struct {
	Username  string
	FirstName string
	LastName  string
	Email     string
	Password  []byte
}

// Client talks to the directory. It is safe for concurrent use; it holds no
// connection between calls.
type Client struct {
	dial Dialer
	opts Options
}

var userObjectClasses = []string{"top", "person", "organizationalPerson", "inetOrgPerson"}

// hashPassword is a seam for tests that do not want to pay for Argon2.
var hashPassword = cryptox.HashPassword

// NewClient builds a Client that dials ldaps://LDAPHost:LDAPPort presenting
// the client certificate <LDAPCertDir>/<LDAPCertName>.{crt,key}.
func NewClient(cfg *config.Config) (*Client, error) {
	tlsConfig, err := newTLSConfig(cfg)
	if err != nil {
		return nil, err
	}

	return NewClientWithDialer(TLSDialer(cfg.LDAPHost, cfg.LDAPPort, tlsConfig, cfg.LDAPTimeout), Options{
		AdminDN:       cfg.LDAPAdminDN,
		AdminPassword: cfg.LDAPAdminPassword,
		BaseDN:        cfg.LDAPBaseDN,
		UsersOU:       cfg.LDAPUsersOU,
		Timeout:       cfg.LDAPTimeout,
	}), nil
}

// NewClientWithDialer builds a Client on an arbitrary transport.
func NewClientWithDialer(dial Dialer, opts Options) *Client {
	if opts.UsersOU == "" {
		opts.UsersOU = "Users"
	}
	return &Client{dial: dial, opts: opts}
}

func newTLSConfig(cfg *config.Config) (*tls.Config, error) {
	certFile, keyFile := filex.CertPairPaths(cfg.LDAPCertDir, cfg.LDAPCertName)
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("load directory client certificate: %w", err)
	}

	tlsConfig := &tls.Config{
		Certificates: []tls.Certificate{cert},
		ServerName:   cfg.LDAPHost,
		MinVersion:   tls.VersionTLS12,
	}

	if cfg.LDAPCAFile != "" {
		pool, err := filex.ReadCertPool(cfg.LDAPCAFile)
		if err != nil {
			return nil, fmt.Errorf("load directory CA: %w", err)
		}
		tlsConfig.RootCAs = pool
	}

	return tlsConfig, nil
}

// TLSDialer dials ldaps:// with the given TLS settings. timeout bounds both
// the TCP/TLS handshake and every subsequent request on the connection.
func TLSDialer(host string, port int, tlsConfig *tls.Config, timeout time.Duration) Dialer {
	url := "ldaps://" + net.JoinHostPort(host, strconv.Itoa(port))

	return func(ctx context.Context) (Conn, error) {
		d := &net.Dialer{Timeout: timeout}
		if deadline, ok := ctx.Deadline(); ok {
			d.Deadline = deadline
		}

		conn, err := ldap.DialURL(url, ldap.DialWithTLSConfig(tlsConfig), ldap.DialWithDialer(d))
		if err != nil {
			return nil, err
		}
		if timeout > 0 {
			conn.SetTimeout(timeout)
		}
		return conn, nil
	}
}

// Connect opens a connection and binds as bindDN. The caller owns the
// returned connection and must Close it. Dial failures and bind failures
// are both returned as *Error; the bind error keeps its LDAP result code
// reachable through errors.As.
func (c *Client) Connect(ctx context.Context, bindDN, password string) (Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, &Error{Op: "connect", Description: "cancelled", Err: err}
	}

	conn, err := c.dial(ctx)
	if err != nil {
		return nil, wrap("connect", err)
	}

	if err := conn.Bind(bindDN, password); err != nil {
		conn.Close()
		return nil, wrap("bind", err)
	}

	return conn, nil
}

func (c *Client) connectAdmin(ctx context.Context) (Conn, error) {
	return c.Connect(ctx, c.opts.AdminDN, c.opts.AdminPassword)
}

// UserDN is the distinguished name new entries are created under.
func (c *Client) UserDN(username string) string {
	return fmt.Sprintf("cn=%s,ou=%s,%s", ldap.EscapeDN(username), ldap.EscapeDN(c.opts.UsersOU), c.opts.BaseDN)
}

// loginFilter matches an entry by common name or mail.
func loginFilter(login string) string {
	v := ldap.EscapeFilter(login)
	return fmt.Sprintf("(&(objectClass=inetOrgPerson)(|(cn=%s)(mail=%s)))", v, v)
}

// mailFilter matches an entry by mail only.
func mailFilter(email string) string {
	return fmt.Sprintf("(&(objectClass=inetOrgPerson)(mail=%s))", ldap.EscapeFilter(email))
}

func (c *Client) searchRequest(filter string, sizeLimit int) *ldap.SearchRequest {
	return ldap.NewSearchRequest(
		c.opts.BaseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		sizeLimit,
		int(c.opts.Timeout/time.Second),
		false,
		filter,
		[]string{"cn", "mail"},
		nil,
	)
}

// Authenticate checks login (a common name or a mail address) and password
// against the directory. On success it returns the entry's common name, which
// is the account's username whichever form was typed.
//
// Wrong password and unknown user both return ("", false, nil). Anything else
// that goes wrong (transport, admin bind, unexpected result codes) returns
// an *Error, never false.
func (c *Client) Authenticate(ctx context.Context, login, password string) (string, bool, error) {
	// An empty password would turn the user bind into an unauthenticated
	// bind, which directories accept.
	if login == "" || password == "" {
		return "", false, nil
	}

	conn, err := c.connectAdmin(ctx)
	if err != nil {
		return "", false, err
	}
	defer conn.Close()

	res, err := conn.Search(c.searchRequest(loginFilter(login), 2))
	if err != nil && !hasResultCode(err, ldap.LDAPResultSizeLimitExceeded) {
		return "", false, wrap("search", err)
	}

	entry, ok := pickEntry(res, login)
	if !ok {
		return "", false, nil
	}
	username, err := entryCN(entry)
	if err != nil {
		return "", false, &Error{Op: "search", Description: "entry has no common name", Err: err}
	}

	if err := ctx.Err(); err != nil {
		return "", false, &Error{Op: "bind", Description: "cancelled", Err: err}
	}

	err = conn.Bind(entry.DN, password)
	switch {
	case err == nil:
		return username, true, nil
	case hasResultCode(err, ldap.LDAPResultInvalidCredentials):
		return "", false, nil
	default:
		return "", false, wrap("bind", err)
	}
}

// pickEntry chooses the entry to bind as. A common-name match wins over a
// mail match; two mail matches are ambiguous and yield no entry.
func pickEntry(res *ldap.SearchResult, login string) (*ldap.Entry, bool) {
	if res == nil || len(res.Entries) == 0 {
		return nil, false
	}
	for _, e := range res.Entries {
		if e.GetAttributeValue("cn") == login {
			return e, true
		}
	}
	if len(res.Entries) == 1 {
		return res.Entries[0], true
	}
	return nil, false
}

// entryCN returns the cn attribute, falling back to the cn in the leading RDN.
func entryCN(e *ldap.Entry) (string, error) {
	if cn := e.GetAttributeValue("cn"); cn != "" {
		return cn, nil
	}
	dn, err := ldap.ParseDN(e.DN)
	if err != nil {
		return "", err
	}
	if len(dn.RDNs) > 0 {
		for _, a := range dn.RDNs[0].Attributes {
			if strings.EqualFold(a.Type, "cn") && a.Value != "" {
				return a.Value, nil
			}
		}
	}
	return "", fmt.Errorf("no cn in %q", e.DN)
}

// CreateUser adds entry to the directory.
//
// It first looks for an existing entry with the same mail and reports
// (false, "email") without writing anything. Otherwise it adds
// cn=<username>,ou=<UsersOU>,<BaseDN>; if the directory answers
// entryAlreadyExists it reports (false, "username").
//
// The mail check and the add are two separate operations: two concurrent
// registrations with the same mail and different usernames can both pass the
// check. Uniqueness of mail across the directory is only as strong as the
// directory's own constraints (e.g. an OpenLDAP unique overlay on mail).
func (c *Client) CreateUser(ctx context.Context, entry Entry) (bool, string, error) {
	if entry.Username == "" || entry.Email == "" {
		return false, "", errors.New("directory entry needs username and email")
	}

	conn, err := c.connectAdmin(ctx)
	if err != nil {
		return false, "", err
	}
	defer conn.Close()

	res, err := conn.Search(c.searchRequest(mailFilter(entry.Email), 1))
	if err != nil && !hasResultCode(err, ldap.LDAPResultSizeLimitExceeded) {
		return false, "", wrap("search", err)
	}
	if res != nil && len(res.Entries) > 0 {
		return false, common.ConflictFieldEmail, nil
	}

	hashed, err := hashPassword(entry.Password)
	if err != nil {
		return false, "", &Error{Op: "add", Description: "password hashing failed", Err: err}
	}

	if err := ctx.Err(); err != nil {
		return false, "", &Error{Op: "add", Description: "cancelled", Err: err}
	}

	req := ldap.NewAddRequest(c.UserDN(entry.Username), nil)
	req.Attribute("objectClass", userObjectClasses)
	req.Attribute("cn", []string{entry.Username})
	req.Attribute("sn", []string{entry.LastName})
	if entry.FirstName != "" {
		req.Attribute("givenName", []string{entry.FirstName})
	}
	req.Attribute("mail", []string{entry.Email})
	req.Attribute("userPassword", []string{hashed})

	err = conn.Add(req)
	switch {
	case err == nil:
		return true, "", nil
	case hasResultCode(err, ldap.LDAPResultEntryAlreadyExists):
		return false, common.ConflictFieldUsername, nil
	default:
		return false, "", wrap("add", err)
	}
}
