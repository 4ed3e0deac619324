// Package services contains server-side business logic. This file implements
// UserService, the authentication core: login and registration against the
// directory, session history, token validation and profile reads.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/registrar/internal/common"
	"github.com/dmitrijs2005/registrar/internal/dbx"
	"github.com/dmitrijs2005/registrar/internal/logging"
	"github.com/dmitrijs2005/registrar/internal/netx"
	"github.com/dmitrijs2005/registrar/internal/server/auth"
	"github.com/dmitrijs2005/registrar/internal/server/directory"
	"github.com/dmitrijs2005/registrar/internal/server/models"
	"github.com/dmitrijs2005/registrar/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/registrar/internal/server/thumbnails"
)

// Directory is the credential store. Authenticate resolves a username or
// mail login to the account's username. Wrong credentials are (false, nil);
// infrastructure failures are errors matching common.ErrDirectory.
type Directory interface {
	Authenticate(ctx context.Context, login, password string) (string, bool, error)
	CreateUser(ctx context.Context, entry directory.Entry) (bool, string, error)
}

// SessionBuilder derives session metadata from a request.
type SessionBuilder interface {
	Build(ctx context.Context, headers http.Header, clientIP string) (models.SessionDescriptor, error)
}

// TokenCodec issues and checks access tokens.
type TokenCodec interface {
	Issue(username string) (string, error)
	Decode(token string) (*auth.TokenData, error)
}

// RequestMeta is what the transport knows about the caller.
type RequestMeta struct {
	Headers  http.Header
	ClientIP string
}

// UserService composes the directory, the session builder, the relational
// store and the token codec.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	directory   Directory
	sessions    SessionBuilder
	tokens      TokenCodec
	thumbnails  thumbnails.Store
	logger      logging.Logger

	generateThumbnail func() ([]byte, error)
}

// NewUserService wires a UserService. db may be nil when m does not need a
// database (the in-memory manager); repositories then run without a
// transaction.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, dir Directory, sb SessionBuilder,
	tokens TokenCodec, store thumbnails.Store, logger logging.Logger) *UserService {
	return &UserService{
		db:                db,
		repomanager:       m,
		directory:         dir,
		sessions:          sb,
		tokens:            tokens,
		thumbnails:        store,
		logger:            logger,
		generateThumbnail: func() ([]byte, error) { return thumbnails.Generate(nil) },
	}
}

// Login verifies the credentials against the directory, records a session
// and returns an access token. login may be the username or the account's
// mail address; the session and the token always carry the username.
//
// Wrong credentials yield common.ErrInvalidCredentials. Directory failures
// are returned as they are. A session that cannot be stored is logged and
// does not prevent the token from being issued.
func (s *UserService) Login(ctx context.Context, login, password string, meta RequestMeta) (string, error) {
	if _, err := netx.EnsureIPIsValid(meta.ClientIP); err != nil {
		return "", err
	}

	username, ok, err := s.directory.Authenticate(ctx, login, password)
	if err != nil {
		s.logger.Error(ctx, "directory authentication failed", "login", login, "error", err)
		return "", err
	}
	if !ok {
		s.logger.Info(ctx, "login rejected", "login", login)
		return "", common.ErrInvalidCredentials
	}

	if err := s.recordSession(ctx, dbx.Conn(s.db), username, meta); err != nil {
		s.logger.Error(ctx, "session not recorded", "username", username, "error", err)
	}

	return s.issue(ctx, username)
}

// Register creates the directory entry, stores the profile copy with a fresh
// thumbnail and the first session, and returns an access token.
//
// A taken username or email yields a *common.ConflictError naming the field.
// Failures after the directory entry exists are logged; the token is still
// returned because the account is usable.
func (s *UserService) Register(ctx context.Context, nu models.NewUser, meta RequestMeta) (string, error) {
	if err := nu.Validate(); err != nil {
		return "", err
	}
	if _, err := netx.EnsureIPIsValid(meta.ClientIP); err != nil {
		return "", err
	}

	password := []byte(nu.Password)
	defer common.WipeByteArray(password)

	created, field, err := s.directory.CreateUser(ctx, directory.Entry{
		Username:  nu.Username,
		FirstName: nu.First,
		LastName:  nu.Last,
		Email:     nu.Email,
		Password:  password,
	})
	if err != nil {
		s.logger.Error(ctx, "directory create failed", "username", nu.Username, "error", err)
		return "", err
	}
	if !created {
		s.logger.Info(ctx, "registration conflict", "username", nu.Username, "field", field)
		return "", common.NewConflictError(field)
	}

	info := nu.Info()
	info.ThumbnailKey = s.storeThumbnail(ctx, nu.Username)

	// The session is described before the transaction opens; the geolocation
	// lookup must not hold a connection.
	rec, err := s.newSession(ctx, nu.Username, meta)
	if err != nil {
		s.logger.Error(ctx, "session not recorded", "username", nu.Username, "error", err)
	}

	err = s.withTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.UserInfo(tx).Create(ctx, info); err != nil {
			return fmt.Errorf("store user info: %w", err)
		}
		if rec == nil {
			return nil
		}
		if err := s.repomanager.Sessions(tx).Create(ctx, rec); err != nil {
			return fmt.Errorf("store session: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error(ctx, "profile not recorded", "username", nu.Username, "error", err)
	}

	return s.issue(ctx, nu.Username)
}

// Validate returns the username carried by token, or common.ErrorUnauthorized.
// The reason a token was rejected is never exposed.
func (s *UserService) Validate(ctx context.Context, token string) (string, error) {
	data, err := s.tokens.Decode(token)
	if err != nil {
		s.logger.Debug(ctx, "token rejected", "error", err)
		return "", common.ErrorUnauthorized
	}
	return data.Username, nil
}

// GetProfile joins the stored user info with its session history, oldest
// session first. An unknown user yields common.ErrorNotFound.
func (s *UserService) GetProfile(ctx context.Context, username string) (*models.UserProfile, error) {
	user, err := s.repomanager.UserInfo(dbx.Conn(s.db)).GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	history, err := s.repomanager.Sessions(dbx.Conn(s.db)).ListByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	profile := &models.UserProfile{User: *user, Sessions: history}

	if user.ThumbnailKey != "" && s.thumbnails != nil {
		data, err := s.thumbnails.Get(ctx, user.ThumbnailKey)
		if err != nil {
			s.logger.Warn(ctx, "thumbnail unavailable", "username", username, "key", user.ThumbnailKey, "error", err)
		} else {
			profile.Thumbnail = data
		}
	}

	return profile, nil
}

// --- helpers below ---

func (s *UserService) issue(ctx context.Context, username string) (string, error) {
	token, err := s.tokens.Issue(username)
	if err != nil {
		s.logger.Error(ctx, "token not issued", "username", username, "error", err)
		return "", common.ErrorInternal
	}
	return token, nil
}

func (s *UserService) newSession(ctx context.Context, username string, meta RequestMeta) (*models.SessionRecord, error) {
	d, err := s.sessions.Build(ctx, meta.Headers, meta.ClientIP)
	if err != nil {
		return nil, fmt.Errorf("build session: %w", err)
	}

	rec, err := models.NewSessionRecord(username, d)
	if err != nil {
		return nil, fmt.Errorf("new session: %w", err)
	}
	return rec, nil
}

func (s *UserService) recordSession(ctx context.Context, db dbx.DBTX, username string, meta RequestMeta) error {
	rec, err := s.newSession(ctx, username, meta)
	if err != nil {
		return err
	}

	if err := s.repomanager.Sessions(db).Create(ctx, rec); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// storeThumbnail returns the key of the stored thumbnail, or "" when none
// could be stored.
func (s *UserService) storeThumbnail(ctx context.Context, username string) string {
	if s.thumbnails == nil {
		return ""
	}

	data, err := s.generateThumbnail()
	if err != nil {
		s.logger.Warn(ctx, "thumbnail not generated", "username", username, "error", err)
		return ""
	}

	key := thumbnails.KeyFor(username)
	if err := s.thumbnails.Put(ctx, key, data); err != nil {
		s.logger.Warn(ctx, "thumbnail not stored", "username", username, "error", err)
		return ""
	}
	return key
}

func (s *UserService) withTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	if s.db == nil {
		return fn(ctx, nil)
	}
	return dbx.WithTx(ctx, s.db, nil, fn)
}

// IsClientError reports whether err is the caller's fault rather than the
// server's.
func IsClientError(err error) bool {
	return errors.Is(err, common.ErrInvalidCredentials) ||
		errors.Is(err, common.ErrorUnauthorized) ||
		errors.Is(err, common.ErrConflict) ||
		errors.Is(err, common.ErrorValidation) ||
		errors.Is(err, common.ErrorNotFound)
}
