// Package session owns the persisted credential record: access and refresh
// tokens, the absolute token expiry, and the cached user profile. Values are
// sealed at rest and all multi-key mutations happen in one transaction, so
// readers never observe a partially written or partially cleared session.
package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/seqassist/seqassist/internal/client/models"
	"github.com/seqassist/seqassist/internal/client/repositories/credentials"
	"github.com/seqassist/seqassist/internal/cryptox"
	"github.com/seqassist/seqassist/internal/dbx"
)

// Storage keys for the four credential fields.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyExpiresAt    = "token_expires_at"
	KeyUser         = "user"
)

// TokenPair is the outcome of a successful token issuance.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Store provides typed access to the credential record. Mutations notify
// subscribers, which is how the UI layer observes external session changes.
type Store struct {
	db  *sql.DB
	box *cryptox.Box

	mu   sync.Mutex
	subs []func()
}

// NewStore binds a Store to an open credential database and a sealing box.
func NewStore(db *sql.DB, box *cryptox.Box) *Store {
	return &Store{db: db, box: box}
}

// Subscribe registers fn to run after every mutation of the stored session.
func (s *Store) Subscribe(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

func (s *Store) notify() {
	s.mu.Lock()
	subs := append([]func(){}, s.subs...)
	s.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}

func (s *Store) get(ctx context.Context, key string) ([]byte, error) {
	sealed, err := credentials.NewSQLiteRepository(s.db).Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if sealed == nil {
		return nil, nil
	}
	value, err := s.box.Open(sealed)
	if err != nil {
		return nil, fmt.Errorf("unseal credential[%s]: %w", key, err)
	}
	return value, nil
}

func (s *Store) set(ctx context.Context, repo credentials.Repository, key string, value []byte) error {
	sealed, err := s.box.Seal(value)
	if err != nil {
		return fmt.Errorf("seal credential[%s]: %w", key, err)
	}
	return repo.Set(ctx, key, sealed)
}

// AccessToken returns the stored access token, or "" when no session exists.
func (s *Store) AccessToken(ctx context.Context) (string, error) {
	v, err := s.get(ctx, KeyAccessToken)
	return string(v), err
}

// RefreshToken returns the stored refresh token, or "" when absent.
func (s *Store) RefreshToken(ctx context.Context) (string, error) {
	v, err := s.get(ctx, KeyRefreshToken)
	return string(v), err
}

// ExpiresAt returns the absolute token expiry, or the zero time when no
// expiry is recorded.
func (s *Store) ExpiresAt(ctx context.Context) (time.Time, error) {
	v, err := s.get(ctx, KeyExpiresAt)
	if err != nil || v == nil {
		return time.Time{}, err
	}
	ms, err := strconv.ParseInt(string(v), 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored expiry: %w", err)
	}
	return time.UnixMilli(ms), nil
}

// User returns the cached user profile, or nil when absent.
func (s *Store) User(ctx context.Context) (*models.UserProfile, error) {
	v, err := s.get(ctx, KeyUser)
	if err != nil || v == nil {
		return nil, err
	}
	var u models.UserProfile
	if err := json.Unmarshal(v, &u); err != nil {
		return nil, fmt.Errorf("decode cached user: %w", err)
	}
	return &u, nil
}

// SaveSession persists a freshly issued token pair together with the user
// profile from the auth response. All four fields land in one transaction.
func (s *Store) SaveSession(ctx context.Context, pair TokenPair, user *models.UserProfile) error {
	encoded, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := credentials.NewSQLiteRepository(tx)
		if err := s.saveTokens(ctx, repo, pair); err != nil {
			return err
		}
		return s.set(ctx, repo, KeyUser, encoded)
	})
	if err != nil {
		return err
	}
	s.notify()
	return nil
}

// SaveTokens persists a refreshed token pair. The cached user profile is
// left untouched; a refresh response carries no identity fields.
func (s *Store) SaveTokens(ctx context.Context, pair TokenPair) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.saveTokens(ctx, credentials.NewSQLiteRepository(tx), pair)
	})
	if err != nil {
		return err
	}
	s.notify()
	return nil
}

func (s *Store) saveTokens(ctx context.Context, repo credentials.Repository, pair TokenPair) error {
	if err := s.set(ctx, repo, KeyAccessToken, []byte(pair.AccessToken)); err != nil {
		return err
	}
	if err := s.set(ctx, repo, KeyRefreshToken, []byte(pair.RefreshToken)); err != nil {
		return err
	}
	if pair.ExpiresAt.IsZero() {
		return repo.Delete(ctx, KeyExpiresAt)
	}
	ms := strconv.FormatInt(pair.ExpiresAt.UnixMilli(), 10)
	return s.set(ctx, repo, KeyExpiresAt, []byte(ms))
}

// Clear removes all four credential fields together. Used on logout and on
// unrecoverable refresh failure.
func (s *Store) Clear(ctx context.Context) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return credentials.NewSQLiteRepository(tx).Clear(ctx)
	})
	if err != nil {
		return err
	}
	s.notify()
	return nil
}
