package directory

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/dmitrijs2005/registrar/internal/cryptox"
	"github.com/go-ldap/ldap/v3"
)

const (
	testAdminDN = "cn=admin,dc=example,dc=org"
	testAdminPW = "admin-pw"
	testBaseDN  = "dc=example,dc=org"
)

// fakeDirectory is an in-memory directory shared by every connection the
// fake dialer hands out.
type fakeDirectory struct {
	mu      sync.Mutex
	entries map[string]map[string][]string

	dialErr   error
	searchErr error
	addErr    error
	bindErr   error // returned for non-admin binds

	dials    int
	closes   int
	adds     int
	searches []string
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{entries: map[string]map[string][]string{}}
}

func (f *fakeDirectory) dialer() Dialer {
	return func(ctx context.Context) (Conn, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.dials++
		if f.dialErr != nil {
			return nil, f.dialErr
		}
		return &fakeConn{dir: f}, nil
	}
}

func (f *fakeDirectory) client() *Client {
	return NewClientWithDialer(f.dialer(), Options{
		AdminDN:       testAdminDN,
		AdminPassword: testAdminPW,
		BaseDN:        testBaseDN,
		UsersOU:       "Users",
	})
}

// seed stores an entry with a hashed password.
func (f *fakeDirectory) seed(dn, cn, mail, password string) {
	hashed, err := cryptox.HashPassword([]byte(password))
	if err != nil {
		panic(err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[dn] = map[string][]string{
		"cn":           {cn},
		"mail":         {mail},
		"userPassword": {hashed},
	}
}

func (f *fakeDirectory) openConns() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dials - f.closes
}

type fakeConn struct {
	dir    *fakeDirectory
	closed bool
}

func (c *fakeConn) Bind(dn, password string) error {
	f := c.dir
	f.mu.Lock()
	defer f.mu.Unlock()

	if dn == testAdminDN {
		if password == testAdminPW {
			return nil
		}
		return ldap.NewError(ldap.LDAPResultInvalidCredentials, errors.New("bad admin password"))
	}
	if f.bindErr != nil {
		return f.bindErr
	}

	attrs, ok := f.entries[dn]
	if !ok {
		return ldap.NewError(ldap.LDAPResultInvalidCredentials, errors.New("no such entry"))
	}
	match, err := cryptox.VerifyPassword([]byte(password), attrs["userPassword"][0])
	if err != nil || !match {
		return ldap.NewError(ldap.LDAPResultInvalidCredentials, errors.New("wrong password"))
	}
	return nil
}

// Search understands exactly the filters the client builds: an entry matches
// if rebuilding the filter from one of its own values reproduces the request.
func (c *fakeConn) Search(req *ldap.SearchRequest) (*ldap.SearchResult, error) {
	f := c.dir
	f.mu.Lock()
	defer f.mu.Unlock()

	f.searches = append(f.searches, req.Filter)
	if f.searchErr != nil {
		return nil, f.searchErr
	}

	res := &ldap.SearchResult{}
	for dn, attrs := range f.entries {
		if !strings.HasSuffix(dn, req.BaseDN) {
			continue
		}
		cn, mail := attrs["cn"][0], attrs["mail"][0]
		if req.Filter == loginFilter(cn) || req.Filter == loginFilter(mail) || req.Filter == mailFilter(mail) {
			res.Entries = append(res.Entries, ldap.NewEntry(dn, map[string][]string{"cn": {cn}, "mail": {mail}}))
		}
	}
	if req.SizeLimit > 0 && len(res.Entries) > req.SizeLimit {
		res.Entries = res.Entries[:req.SizeLimit]
		return res, ldap.NewError(ldap.LDAPResultSizeLimitExceeded, errors.New("size limit"))
	}
	return res, nil
}

func (c *fakeConn) Add(req *ldap.AddRequest) error {
	f := c.dir
	f.mu.Lock()
	defer f.mu.Unlock()

	f.adds++
	if f.addErr != nil {
		return f.addErr
	}
	if _, exists := f.entries[req.DN]; exists {
		return ldap.NewError(ldap.LDAPResultEntryAlreadyExists, errors.New("exists"))
	}

	attrs := map[string][]string{}
	for _, a := range req.Attributes {
		attrs[a.Type] = a.Vals
	}
	f.entries[req.DN] = attrs
	return nil
}

func (c *fakeConn) Close() error {
	f := c.dir
	f.mu.Lock()
	defer f.mu.Unlock()
	if !c.closed {
		c.closed = true
		f.closes++
	}
	return nil
}
