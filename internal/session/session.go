package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/example/luxejewel-storefront/internal/apiclient"
	"github.com/example/luxejewel-storefront/internal/domain/user"
	"github.com/golang-jwt/jwt/v5"
	log "github.com/sirupsen/logrus"
)

var (
	ErrAuth               = errors.New("not authenticated")
	ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", ErrAuth)
)

// Authenticator is the slice of the backend the session needs.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*apiclient.AuthResponse, error)
	Register(ctx context.Context, name, email, password string) (*apiclient.AuthResponse, error)
}

// Listener is notified after every login, registration and logout.
type Listener interface {
	SessionChanged(ctx context.Context, authenticated bool)
}

// Credentials is what a TokenStore persists.
type Credentials struct {
	Token string    `json:"token"`
	User  user.User `json:"user"`
}

type TokenStore interface {
	Load() (*Credentials, error)
	Save(Credentials) error
	Clear() error
}

// Session holds the bearer credential and the authenticated profile.
type Session struct {
	mu        sync.RWMutex
	token     string
	user      user.User
	auth      Authenticator
	store     TokenStore
	listeners []Listener
	now       func() time.Time
	log       log.FieldLogger
}

func New(auth Authenticator, store TokenStore, logger log.FieldLogger) *Session {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Session{
		auth:  auth,
		store: store,
		now:   time.Now,
		log:   logger.WithField("component", "session"),
	}
}

// Subscribe registers l for change notifications.
func (s *Session) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Restore loads persisted credentials. Expired or unreadable credentials are discarded.
func (s *Session) Restore() {
	if s.store == nil {
		return
	}
	creds, err := s.store.Load()
	if err != nil {
		s.log.WithError(err).Warn("Failed to load stored session")
		return
	}
	if creds == nil || creds.Token == "" {
		return
	}
	if expired(creds.Token, s.now()) {
		s.log.Info("Stored session has expired")
		if err := s.store.Clear(); err != nil {
			s.log.WithError(err).Warn("Failed to clear expired session")
		}
		return
	}

	s.mu.Lock()
	s.token = creds.Token
	s.user = creds.User
	s.mu.Unlock()
}

// Login authenticates against the backend. Bad credentials fail with ErrInvalidCredentials.
func (s *Session) Login(ctx context.Context, email, password string) (string, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return "", ErrInvalidCredentials
	}
	resp, err := s.auth.Login(ctx, email, password)
	if err != nil {
		if apiclient.IsUnauthorized(err) {
			return "", fmt.Errorf("%w (%v)", ErrInvalidCredentials, err)
		}
		return "", err
	}
	s.establish(ctx, resp)
	return resp.AccessToken, nil
}

// Register creates an account and signs it in.
func (s *Session) Register(ctx context.Context, name, email, password string) (string, error) {
	resp, err := s.auth.Register(ctx, name, email, password)
	if err != nil {
		return "", err
	}
	s.establish(ctx, resp)
	return resp.AccessToken, nil
}

func (s *Session) establish(ctx context.Context, resp *apiclient.AuthResponse) {
	s.mu.Lock()
	s.token = resp.AccessToken
	s.user = resp.User
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.Save(Credentials{Token: resp.AccessToken, User: resp.User}); err != nil {
			s.log.WithError(err).Warn("Failed to persist session")
		}
	}
	s.log.WithField("user_id", resp.User.ID).Info("Signed in")

	for _, l := range listeners {
		l.SessionChanged(ctx, true)
	}
}

// Logout drops the credential. It always succeeds.
func (s *Session) Logout() {
	s.mu.Lock()
	s.token = ""
	s.user = user.User{}
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.Clear(); err != nil {
			s.log.WithError(err).Warn("Failed to clear stored session")
		}
	}

	for _, l := range listeners {
		l.SessionChanged(context.Background(), false)
	}
}

// Current returns the signed-in profile, or false when unauthenticated.
func (s *Session) Current() (user.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" || expired(s.token, s.now()) {
		return user.User{}, false
	}
	return s.user, true
}

func (s *Session) Authenticated() bool {
	_, ok := s.Current()
	return ok
}

// Token implements apiclient.TokenSource.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// expired decodes the exp claim without verifying the signature; the backend owns verification.
// Tokens that are not JWTs, or carry no exp, never expire client-side.
func expired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !now.Before(exp.Time)
}
