package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	s := miniredis.RunT(t)
	store, err := NewRedisStore("redis://" + s.Addr())
	if err != nil {
		t.Fatalf("failed to create redis store: %v", err)
	}
	return store, s
}

func TestNewRedisStore(t *testing.T) {
	s := miniredis.RunT(t)
	defer s.Close()

	store, err := NewRedisStore("redis://" + s.Addr())
	if err != nil {
		t.Fatalf("NewRedisStore failed: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.Ping(ctx); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestSaveAndLookupRefreshSession(t *testing.T) {
	store, s := setupTestRedis(t)
	defer store.Close()
	defer s.Close()

	ctx := context.Background()
	expiresAt := time.Now().Add(24 * time.Hour)

	err := store.SaveRefreshSession(ctx, "test-token-hash", TokenData{
		UserID:      "user-123",
		DisplayName: "Ada",
		Role:        "staff",
	}, expiresAt)
	if err != nil {
		t.Fatalf("SaveRefreshSession failed: %v", err)
	}

	data, err := store.LookupRefreshSession(ctx, "test-token-hash")
	if err != nil {
		t.Fatalf("LookupRefreshSession failed: %v", err)
	}
	if data.UserID != "user-123" {
		t.Errorf("expected user ID user-123, got %s", data.UserID)
	}
	if data.Role != "staff" {
		t.Errorf("expected role staff, got %s", data.Role)
	}
}

func TestLookupExpiredSession(t *testing.T) {
	store, s := setupTestRedis(t)
	defer store.Close()
	defer s.Close()

	ctx := context.Background()
	expiresAt := time.Now().Add(1 * time.Millisecond)
	err := store.SaveRefreshSession(ctx, "expired-token", TokenData{UserID: "user-456"}, expiresAt)
	if err != nil {
		t.Fatalf("SaveRefreshSession failed: %v", err)
	}

	s.FastForward(2 * time.Millisecond)

	_, err = store.LookupRefreshSession(ctx, "expired-token")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for expired token, got %v", err)
	}
}

func TestLookupDefaultsEmptyRole(t *testing.T) {
	store, s := setupTestRedis(t)
	defer store.Close()
	defer s.Close()

	ctx := context.Background()
	err := store.SaveRefreshSession(ctx, "roleless", TokenData{UserID: "user-1"}, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("SaveRefreshSession failed: %v", err)
	}

	data, err := store.LookupRefreshSession(ctx, "roleless")
	if err != nil {
		t.Fatalf("LookupRefreshSession failed: %v", err)
	}
	if data.Role != "client" {
		t.Errorf("expected default role client, got %s", data.Role)
	}
}

func TestRevokeRefreshSession(t *testing.T) {
	store, s := setupTestRedis(t)
	defer store.Close()
	defer s.Close()

	ctx := context.Background()
	expiresAt := time.Now().Add(24 * time.Hour)

	err := store.SaveRefreshSession(ctx, "token-to-revoke", TokenData{UserID: "user-789"}, expiresAt)
	if err != nil {
		t.Fatalf("SaveRefreshSession failed: %v", err)
	}

	if err := store.RevokeRefreshSession(ctx, "token-to-revoke"); err != nil {
		t.Fatalf("RevokeRefreshSession failed: %v", err)
	}

	_, err = store.LookupRefreshSession(ctx, "token-to-revoke")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for revoked token, got %v", err)
	}
}

func TestRevokeNonExistentSession(t *testing.T) {
	store, s := setupTestRedis(t)
	defer store.Close()
	defer s.Close()

	if err := store.RevokeRefreshSession(context.Background(), "non-existent-token"); err != nil {
		t.Errorf("RevokeRefreshSession for non-existent token failed: %v", err)
	}
}

func TestAccessTokenRevocation(t *testing.T) {
	store, s := setupTestRedis(t)
	defer store.Close()
	defer s.Close()

	ctx := context.Background()

	revoked, err := store.IsAccessTokenRevoked(ctx, "jti-1")
	if err != nil {
		t.Fatalf("IsAccessTokenRevoked failed: %v", err)
	}
	if revoked {
		t.Error("fresh jti reported revoked")
	}

	if err := store.RevokeAccessToken(ctx, "jti-1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("RevokeAccessToken failed: %v", err)
	}

	revoked, err = store.IsAccessTokenRevoked(ctx, "jti-1")
	if err != nil {
		t.Fatalf("IsAccessTokenRevoked failed: %v", err)
	}
	if !revoked {
		t.Error("revoked jti not reported revoked")
	}

	s.FastForward(2 * time.Hour)

	revoked, err = store.IsAccessTokenRevoked(ctx, "jti-1")
	if err != nil {
		t.Fatalf("IsAccessTokenRevoked failed: %v", err)
	}
	if revoked {
		t.Error("jti still revoked after blacklist expiry")
	}
}

func TestRevokeAccessTokenAlreadyExpired(t *testing.T) {
	store, s := setupTestRedis(t)
	defer store.Close()
	defer s.Close()

	// Token already past its expiry needs no blacklist entry.
	if err := store.RevokeAccessToken(context.Background(), "jti-old", time.Now().Add(-time.Minute)); err != nil {
		t.Errorf("RevokeAccessToken for expired token failed: %v", err)
	}
}

func TestTryAcquireWarningOnce(t *testing.T) {
	store, s := setupTestRedis(t)
	defer store.Close()
	defer s.Close()

	ctx := context.Background()

	ok, err := store.TryAcquireWarning(ctx, "user-1", time.Hour)
	if err != nil {
		t.Fatalf("TryAcquireWarning failed: %v", err)
	}
	if !ok {
		t.Fatal("first acquire should win")
	}

	ok, err = store.TryAcquireWarning(ctx, "user-1", time.Hour)
	if err != nil {
		t.Fatalf("TryAcquireWarning failed: %v", err)
	}
	if ok {
		t.Error("second acquire should lose while marker held")
	}

	// A different user has an independent marker.
	ok, err = store.TryAcquireWarning(ctx, "user-2", time.Hour)
	if err != nil {
		t.Fatalf("TryAcquireWarning failed: %v", err)
	}
	if !ok {
		t.Error("marker for another user should be free")
	}
}

func TestReleaseWarningAllowsRetry(t *testing.T) {
	store, s := setupTestRedis(t)
	defer store.Close()
	defer s.Close()

	ctx := context.Background()

	if ok, _ := store.TryAcquireWarning(ctx, "user-1", time.Hour); !ok {
		t.Fatal("first acquire should win")
	}
	if err := store.ReleaseWarning(ctx, "user-1"); err != nil {
		t.Fatalf("ReleaseWarning failed: %v", err)
	}
	if ok, _ := store.TryAcquireWarning(ctx, "user-1", time.Hour); !ok {
		t.Error("acquire after release should win")
	}
}

func TestWarningMarkerExpires(t *testing.T) {
	store, s := setupTestRedis(t)
	defer store.Close()
	defer s.Close()

	ctx := context.Background()

	if ok, _ := store.TryAcquireWarning(ctx, "user-1", time.Minute); !ok {
		t.Fatal("first acquire should win")
	}
	s.FastForward(2 * time.Minute)
	if ok, _ := store.TryAcquireWarning(ctx, "user-1", time.Minute); !ok {
		t.Error("acquire after marker expiry should win")
	}
}
