package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/seqassist/seqassist/internal/client/models"
	"github.com/seqassist/seqassist/internal/client/session"
	"github.com/seqassist/seqassist/internal/cryptox"
	"github.com/seqassist/seqassist/internal/shared"
)

// ---- helpers ----

func newTestStore(t *testing.T) *session.Store {
	t.Helper()
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, session.RunMigrations(context.Background(), db))

	key, err := shared.RandBytes(cryptox.KeySize)
	require.NoError(t, err)
	box, err := cryptox.NewBox(key)
	require.NoError(t, err)
	return session.NewStore(db, box)
}

func saveSession(t *testing.T, store *session.Store, access, refresh string, expiresAt time.Time) {
	t.Helper()
	require.NoError(t, store.SaveSession(context.Background(), session.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
	}, &models.UserProfile{ID: "u1", Username: "alice", Email: "a@b.com"}))
}

// refreshingBackend is a fake API that serves /api/ping behind bearer auth
// and rotates tokens on /api/auth/refresh.
type refreshingBackend struct {
	mu           sync.Mutex
	validToken   string
	nextToken    string
	refreshFails bool

	refreshCalls atomic.Int64
	pingCalls    atomic.Int64
	refreshDelay time.Duration
}

func (b *refreshingBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		b.refreshCalls.Add(1)
		time.Sleep(b.refreshDelay)
		if b.refreshFails {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"refresh token expired"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(models.RefreshResponse{
			AccessToken:  b.nextToken,
			RefreshToken: "R2",
			TokenType:    "bearer",
			ExpiresIn:    3600,
		})
	})
	mux.HandleFunc("/api/ping", func(w http.ResponseWriter, r *http.Request) {
		b.pingCalls.Add(1)
		b.mu.Lock()
		valid := "Bearer " + b.validToken
		b.mu.Unlock()
		if r.Header.Get("Authorization") != valid {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"token expired"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	return mux
}

func startBackend(t *testing.T, b *refreshingBackend) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(b.handler())
	t.Cleanup(srv.Close)
	return srv
}

// ---- proactive refresh window ----

func TestProactiveRefresh_OutsideWindowSkipsRefresh(t *testing.T) {
	backend := &refreshingBackend{validToken: "T1", nextToken: "T2"}
	srv := startBackend(t, backend)

	store := newTestStore(t)
	saveSession(t, store, "T1", "R1", time.Now().Add(time.Hour))
	c := New(srv.URL, store)

	var out map[string]string
	require.NoError(t, c.Get(context.Background(), "/api/ping", &out))
	assert.EqualValues(t, 0, backend.refreshCalls.Load())
	assert.Equal(t, "ok", out["status"])
}

func TestProactiveRefresh_InsideWindowRefreshesFirst(t *testing.T) {
	backend := &refreshingBackend{validToken: "T2", nextToken: "T2"}
	srv := startBackend(t, backend)

	store := newTestStore(t)
	// expiring in 4 minutes: inside the 5 minute lookahead; the old token
	// would be rejected, so success proves refresh ran before the request
	saveSession(t, store, "T1", "R1", time.Now().Add(4*time.Minute))
	c := New(srv.URL, store)

	require.NoError(t, c.Get(context.Background(), "/api/ping", nil))
	assert.EqualValues(t, 1, backend.refreshCalls.Load())
	assert.EqualValues(t, 1, backend.pingCalls.Load(), "primary request must go out exactly once")

	token, err := store.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "T2", token)
}

func TestProactiveRefresh_MissingExpirySkipsRefresh(t *testing.T) {
	backend := &refreshingBackend{validToken: "T1", nextToken: "T2"}
	srv := startBackend(t, backend)

	store := newTestStore(t)
	saveSession(t, store, "T1", "R1", time.Time{})
	c := New(srv.URL, store)

	require.NoError(t, c.Get(context.Background(), "/api/ping", nil))
	assert.EqualValues(t, 0, backend.refreshCalls.Load())
}

// ---- single-flight ----

func TestRefresh_SingleFlightUnderConcurrency(t *testing.T) {
	backend := &refreshingBackend{validToken: "T2", nextToken: "T2", refreshDelay: 50 * time.Millisecond}
	srv := startBackend(t, backend)

	store := newTestStore(t)
	saveSession(t, store, "T1", "R1", time.Now().Add(-time.Minute)) // already expired
	c := New(srv.URL, store)

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = c.Get(context.Background(), "/api/ping", nil)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "caller %d", i)
	}
	assert.EqualValues(t, 1, backend.refreshCalls.Load(), "exactly one refresh must reach the backend")
}

// ---- reactive retry ----

func TestReactiveRefresh_RetriesOriginalRequestOnce(t *testing.T) {
	backend := &refreshingBackend{validToken: "T2", nextToken: "T2"}
	srv := startBackend(t, backend)

	store := newTestStore(t)
	// no stored expiry: proactive path stays silent, only the 401 triggers
	saveSession(t, store, "stale", "R1", time.Time{})
	c := New(srv.URL, store)

	var out map[string]string
	require.NoError(t, c.Get(context.Background(), "/api/ping", &out))
	assert.Equal(t, "ok", out["status"])
	assert.EqualValues(t, 1, backend.refreshCalls.Load())
	assert.EqualValues(t, 2, backend.pingCalls.Load(), "original request plus exactly one retry")
}

func TestReactiveRefresh_RetryStillUnauthorizedFails(t *testing.T) {
	// refresh succeeds but issues a token the backend keeps rejecting
	backend := &refreshingBackend{validToken: "other", nextToken: "still-bad"}
	srv := startBackend(t, backend)

	store := newTestStore(t)
	saveSession(t, store, "stale", "R1", time.Time{})
	c := New(srv.URL, store)

	err := c.Get(context.Background(), "/api/ping", nil)
	require.ErrorIs(t, err, ErrAuthentication)
	assert.EqualValues(t, 1, backend.refreshCalls.Load())
	assert.EqualValues(t, 2, backend.pingCalls.Load(), "no second retry")
}

func TestRefreshFailure_ClearsCredentialsAndNotifiesOnce(t *testing.T) {
	backend := &refreshingBackend{validToken: "other", nextToken: "T2", refreshFails: true}
	srv := startBackend(t, backend)

	store := newTestStore(t)
	saveSession(t, store, "stale", "R1", time.Time{})
	c := New(srv.URL, store)

	var notifications atomic.Int64
	c.OnSessionExpired(func() { notifications.Add(1) })

	ctx := context.Background()
	err := c.Get(ctx, "/api/ping", nil)
	require.ErrorIs(t, err, ErrSessionExpired)
	require.ErrorIs(t, err, ErrAuthentication)

	// all four fields must be gone together
	token, err2 := store.AccessToken(ctx)
	require.NoError(t, err2)
	assert.Empty(t, token)
	refresh, err2 := store.RefreshToken(ctx)
	require.NoError(t, err2)
	assert.Empty(t, refresh)
	exp, err2 := store.ExpiresAt(ctx)
	require.NoError(t, err2)
	assert.True(t, exp.IsZero())
	user, err2 := store.User(ctx)
	require.NoError(t, err2)
	assert.Nil(t, user)

	// a second failing call must not notify again
	err = c.Get(ctx, "/api/ping", nil)
	require.Error(t, err)
	assert.EqualValues(t, 1, notifications.Load(), "one notification per expiry event")
}

func TestSessionExpiredNotice_RearmsAfterNewSession(t *testing.T) {
	backend := &refreshingBackend{validToken: "other", nextToken: "T2", refreshFails: true}
	srv := startBackend(t, backend)

	store := newTestStore(t)
	saveSession(t, store, "stale", "R1", time.Time{})
	c := New(srv.URL, store)

	var notifications atomic.Int64
	c.OnSessionExpired(func() { notifications.Add(1) })

	ctx := context.Background()
	require.Error(t, c.Get(ctx, "/api/ping", nil))
	assert.EqualValues(t, 1, notifications.Load())

	// logging in again rearms the notification
	saveSession(t, store, "stale2", "R2", time.Time{})
	require.Error(t, c.Get(ctx, "/api/ping", nil))
	assert.EqualValues(t, 2, notifications.Load())
}

// ---- error mapping ----

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		status int
		kind   error
	}{
		{status: http.StatusBadRequest, kind: ErrValidation},
		{status: http.StatusUnauthorized, kind: ErrAuthentication},
		{status: http.StatusForbidden, kind: ErrAuthorization},
		{status: http.StatusInternalServerError, kind: nil},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status %d", tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"detail":"X"}`))
			}))
			defer srv.Close()

			c := New(srv.URL, newTestStore(t))
			err := c.Get(context.Background(), "/api/thing", nil, NoAuth())
			require.Error(t, err)

			var apiErr *Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, "X", apiErr.Detail)
			if tt.kind != nil {
				assert.ErrorIs(t, err, tt.kind)
			} else {
				assert.NotErrorIs(t, err, ErrValidation)
				assert.NotErrorIs(t, err, ErrAuthentication)
				assert.NotErrorIs(t, err, ErrAuthorization)
			}
			assert.NotErrorIs(t, err, ErrNetwork)
		})
	}
}

func TestErrorMapping_ObjectDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail":{"error":"invalid_input","message":"query is required","query":"must not be empty"}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, newTestStore(t))
	err := c.Post(context.Background(), "/api/generate", nil, nil, NoAuth())
	require.ErrorIs(t, err, ErrValidation)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "query is required", apiErr.Detail)
	assert.Equal(t, "must not be empty", apiErr.Fields["query"])
}

func TestErrorMapping_UnparseableBodyFallsBackToStatusText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>oops</html>"))
	}))
	defer srv.Close()

	c := New(srv.URL, newTestStore(t))
	err := c.Get(context.Background(), "/api/thing", nil, NoAuth())

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "Bad Gateway", apiErr.Detail)
}

func TestTransportFailure_IsNetworkError(t *testing.T) {
	// nothing listens here
	c := New("http://127.0.0.1:1", newTestStore(t))

	err := c.Get(context.Background(), "/api/ping", nil, NoAuth())
	require.ErrorIs(t, err, ErrNetwork)
	assert.NotErrorIs(t, err, ErrAuthentication)
	assert.NotErrorIs(t, err, ErrAuthorization)
	assert.NotErrorIs(t, err, ErrValidation)
}

// ---- body handling ----

func TestEmptyBody_IsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(srv.URL, newTestStore(t))
	var out map[string]string
	require.NoError(t, c.Delete(context.Background(), "/api/thing", &out, NoAuth()))
	assert.Empty(t, out)
}

// ---- interceptors ----

func TestInterceptors_RunInRegistrationOrder(t *testing.T) {
	var gotHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-Trace")
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"), "default request-id interceptor must run")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(srv.URL, newTestStore(t))
	c.UseRequest(func(req *http.Request) error {
		req.Header.Set("X-Trace", "first")
		return nil
	})
	c.UseRequest(func(req *http.Request) error {
		req.Header.Set("X-Trace", req.Header.Get("X-Trace")+",second")
		return nil
	})

	var sawResponse bool
	c.UseResponse(func(resp *http.Response) error {
		sawResponse = true
		return nil
	})

	require.NoError(t, c.Get(context.Background(), "/api/thing", nil, NoAuth()))
	assert.Equal(t, "first,second", gotHeader)
	assert.True(t, sawResponse)
}

func TestRequestInterceptorError_AbortsCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("request must not be dispatched")
	}))
	defer srv.Close()

	c := New(srv.URL, newTestStore(t))
	c.UseRequest(func(*http.Request) error { return errors.New("nope") })

	err := c.Get(context.Background(), "/api/thing", nil, NoAuth())
	require.Error(t, err)
}

// ---- auth header ----

func TestBearerHeader_AttachedOnlyWhenAuthRequired(t *testing.T) {
	var authHeaders []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeaders = append(authHeaders, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	store := newTestStore(t)
	saveSession(t, store, "T1", "R1", time.Now().Add(time.Hour))
	c := New(srv.URL, store)

	require.NoError(t, c.Get(context.Background(), "/api/a", nil))
	require.NoError(t, c.Get(context.Background(), "/api/b", nil, NoAuth()))

	require.Len(t, authHeaders, 2)
	assert.Equal(t, "Bearer T1", authHeaders[0])
	assert.Empty(t, authHeaders[1])
}
