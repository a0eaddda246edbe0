package session

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/luxejewel-storefront/internal/apiclient"
	"github.com/example/luxejewel-storefront/internal/domain/user"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockAuthenticator struct {
	resp       *apiclient.AuthResponse
	err        error
	loginCalls int
}

func (m *mockAuthenticator) Login(ctx context.Context, email, password string) (*apiclient.AuthResponse, error) {
	m.loginCalls++
	return m.resp, m.err
}

func (m *mockAuthenticator) Register(ctx context.Context, name, email, password string) (*apiclient.AuthResponse, error) {
	return m.resp, m.err
}

type recordingListener struct {
	events []bool
}

func (r *recordingListener) SessionChanged(ctx context.Context, authenticated bool) {
	r.events = append(r.events, authenticated)
}

type memoryStore struct {
	creds   *Credentials
	saveErr error
	cleared int
}

func (m *memoryStore) Load() (*Credentials, error) { return m.creds, nil }
func (m *memoryStore) Save(c Credentials) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.creds = &c
	return nil
}
func (m *memoryStore) Clear() error {
	m.cleared++
	m.creds = nil
	return nil
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	s, err := token.SignedString([]byte("client-never-sees-this-secret"))
	require.NoError(t, err)
	return s
}

func authResponse(token string) *apiclient.AuthResponse {
	return &apiclient.AuthResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        user.User{ID: "user-1", Email: "asha@example.com", Name: "Asha"},
	}
}

func newTestSession(auth *mockAuthenticator) (*Session, *memoryStore, *recordingListener) {
	store := &memoryStore{}
	s := New(auth, store, nil)
	listener := &recordingListener{}
	s.Subscribe(listener)
	return s, store, listener
}

// ============================================
// Login Tests
// ============================================

func TestSession_Login_Success(t *testing.T) {
	token := signedToken(t, time.Now().Add(time.Hour))
	s, store, listener := newTestSession(&mockAuthenticator{resp: authResponse(token)})

	got, err := s.Login(context.Background(), "asha@example.com", "secret123")

	require.NoError(t, err)
	assert.Equal(t, token, got)
	assert.Equal(t, token, s.Token())
	u, ok := s.Current()
	assert.True(t, ok)
	assert.Equal(t, "Asha", u.Name)
	assert.Equal(t, []bool{true}, listener.events)
	require.NotNil(t, store.creds)
	assert.Equal(t, token, store.creds.Token)
}

func TestSession_Login_InvalidCredentials(t *testing.T) {
	auth := &mockAuthenticator{err: &apiclient.Error{
		Method:     http.MethodPost,
		Path:       "/auth/login",
		StatusCode: http.StatusUnauthorized,
		Detail:     "Invalid email or password",
	}}
	s, _, listener := newTestSession(auth)

	_, err := s.Login(context.Background(), "asha@example.com", "wrong")

	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.ErrorIs(t, err, ErrAuth)
	assert.False(t, s.Authenticated())
	assert.Empty(t, listener.events)
}

func TestSession_Login_BlankInputNoNetworkCall(t *testing.T) {
	auth := &mockAuthenticator{}
	s, _, _ := newTestSession(auth)

	_, err := s.Login(context.Background(), " ", "")

	assert.ErrorIs(t, err, ErrAuth)
	assert.Equal(t, 0, auth.loginCalls)
}

func TestSession_Login_NetworkErrorPassesThrough(t *testing.T) {
	netErr := &apiclient.Error{Method: http.MethodPost, Path: "/auth/login", StatusCode: http.StatusBadGateway}
	s, _, _ := newTestSession(&mockAuthenticator{err: netErr})

	_, err := s.Login(context.Background(), "asha@example.com", "secret123")

	assert.ErrorIs(t, err, apiclient.ErrNetwork)
	assert.False(t, errors.Is(err, ErrAuth))
}

func TestSession_Login_StoreFailureIsNotFatal(t *testing.T) {
	token := signedToken(t, time.Now().Add(time.Hour))
	s, store, _ := newTestSession(&mockAuthenticator{resp: authResponse(token)})
	store.saveErr = errors.New("disk full")

	_, err := s.Login(context.Background(), "asha@example.com", "secret123")

	require.NoError(t, err)
	assert.True(t, s.Authenticated())
}

func TestSession_Register(t *testing.T) {
	token := signedToken(t, time.Now().Add(time.Hour))
	s, _, listener := newTestSession(&mockAuthenticator{resp: authResponse(token)})

	_, err := s.Register(context.Background(), "Asha", "asha@example.com", "secret123")

	require.NoError(t, err)
	assert.True(t, s.Authenticated())
	assert.Equal(t, []bool{true}, listener.events)
}

// ============================================
// Logout / Current Tests
// ============================================

func TestSession_Logout(t *testing.T) {
	token := signedToken(t, time.Now().Add(time.Hour))
	s, store, listener := newTestSession(&mockAuthenticator{resp: authResponse(token)})
	_, err := s.Login(context.Background(), "asha@example.com", "secret123")
	require.NoError(t, err)

	s.Logout()

	_, ok := s.Current()
	assert.False(t, ok)
	assert.Empty(t, s.Token())
	assert.Equal(t, []bool{true, false}, listener.events)
	assert.Nil(t, store.creds)
}

func TestSession_Logout_WhenUnauthenticated(t *testing.T) {
	s, _, listener := newTestSession(&mockAuthenticator{})

	s.Logout()

	assert.False(t, s.Authenticated())
	assert.Equal(t, []bool{false}, listener.events)
}

func TestSession_Current_ExpiredToken(t *testing.T) {
	token := signedToken(t, time.Now().Add(time.Hour))
	s, _, _ := newTestSession(&mockAuthenticator{resp: authResponse(token)})
	_, err := s.Login(context.Background(), "asha@example.com", "secret123")
	require.NoError(t, err)

	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, ok := s.Current()
	assert.False(t, ok)
}

func TestSession_Current_OpaqueToken(t *testing.T) {
	s, _, _ := newTestSession(&mockAuthenticator{resp: authResponse("opaque-token")})
	_, err := s.Login(context.Background(), "asha@example.com", "secret123")
	require.NoError(t, err)

	assert.True(t, s.Authenticated())
}

// ============================================
// Restore Tests
// ============================================

func TestSession_Restore(t *testing.T) {
	token := signedToken(t, time.Now().Add(time.Hour))
	store := &memoryStore{creds: &Credentials{Token: token, User: user.User{ID: "user-1", IsAdmin: true}}}
	s := New(&mockAuthenticator{}, store, nil)

	s.Restore()

	u, ok := s.Current()
	assert.True(t, ok)
	assert.True(t, u.IsAdmin)
}

func TestSession_Restore_ExpiredIsDiscarded(t *testing.T) {
	token := signedToken(t, time.Now().Add(-time.Minute))
	store := &memoryStore{creds: &Credentials{Token: token}}
	s := New(&mockAuthenticator{}, store, nil)

	s.Restore()

	assert.False(t, s.Authenticated())
	assert.Equal(t, 1, store.cleared)
}

// ============================================
// FileStore Tests
// ============================================

func TestFileStore_RoundTrip(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "nested", "session.json"))

	creds, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, creds)

	require.NoError(t, store.Save(Credentials{Token: "tok", User: user.User{ID: "user-1"}}))

	creds, err = store.Load()
	require.NoError(t, err)
	require.NotNil(t, creds)
	assert.Equal(t, "tok", creds.Token)
	assert.Equal(t, "user-1", creds.User.ID)

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())
	creds, err = store.Load()
	require.NoError(t, err)
	assert.Nil(t, creds)
}
