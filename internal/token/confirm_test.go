package token

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"ratehub/internal/models"
)

func testUser() *models.User {
	return &models.User{
		ID:                uuid.New(),
		Username:          "reader",
		Email:             "reader@example.com",
		Role:              models.RoleUser,
		ConfirmationEpoch: 1,
	}
}

// TestCodeFor_Deterministic verifies that the code is a pure function of
// (master secret, user identity, epoch): same inputs, same code.
func TestCodeFor_Deterministic(t *testing.T) {
	c := NewConfirmer(nil, "master-secret", time.Hour)
	u := testUser()

	a, err := c.codeFor(u, 1)
	if err != nil {
		t.Fatalf("codeFor: %v", err)
	}
	b, err := c.codeFor(u, 1)
	if err != nil {
		t.Fatalf("codeFor: %v", err)
	}
	if a != b {
		t.Errorf("codes differ for identical state: %q vs %q", a, b)
	}
	if len(a) != 8 {
		t.Errorf("code length = %d, want 8", len(a))
	}
}

// TestCodeFor_EpochRotation verifies that bumping the epoch changes the
// code, the property that makes re-issuance invalidate old codes.
func TestCodeFor_EpochRotation(t *testing.T) {
	c := NewConfirmer(nil, "master-secret", time.Hour)
	u := testUser()

	first, err := c.codeFor(u, 1)
	if err != nil {
		t.Fatalf("codeFor: %v", err)
	}
	second, err := c.codeFor(u, 2)
	if err != nil {
		t.Fatalf("codeFor: %v", err)
	}
	if first == second {
		t.Error("epoch bump produced an identical code")
	}
}

// TestCodeFor_PerUserKeys verifies that users with identical epochs get
// different codes, and that identity changes rotate the key.
func TestCodeFor_PerUserKeys(t *testing.T) {
	c := NewConfirmer(nil, "master-secret", time.Hour)

	u1 := testUser()
	u2 := testUser() // fresh ID
	a, _ := c.codeFor(u1, 1)
	b, _ := c.codeFor(u2, 1)
	if a == b {
		t.Error("distinct users produced an identical code")
	}

	renamed := *u1
	renamed.Username = "renamed"
	r, _ := c.codeFor(&renamed, 1)
	if r == a {
		t.Error("username change did not rotate the code key")
	}
}

// TestCodeFor_MasterSecret verifies that rotating the master secret
// invalidates every code.
func TestCodeFor_MasterSecret(t *testing.T) {
	u := testUser()
	a, _ := NewConfirmer(nil, "secret-one", time.Hour).codeFor(u, 1)
	b, _ := NewConfirmer(nil, "secret-two", time.Hour).codeFor(u, 1)
	if a == b {
		t.Error("master-secret rotation did not change the code")
	}
}

// TestValidate verifies the compare path against a generated code.
func TestValidate(t *testing.T) {
	c := NewConfirmer(nil, "master-secret", time.Hour)
	u := testUser()

	code, err := c.codeFor(u, 1)
	if err != nil {
		t.Fatalf("codeFor: %v", err)
	}

	ok, err := c.validate(u, 1, code)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !ok {
		t.Error("correct code rejected")
	}

	ok, err = c.validate(u, 1, "00000000")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if ok {
		t.Error("wrong code accepted")
	}

	// A code for the previous epoch must not validate at the current one.
	ok, err = c.validate(u, 2, code)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if ok {
		t.Error("stale-epoch code accepted")
	}
}

// --- Integration tests against Valkey ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testValkeyClient returns a Valkey client on DB 15, skipping the test
// when the service is unreachable.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr:     envOr("VALKEY_HOST", "localhost") + ":" + envOr("VALKEY_PORT", "6379"),
		Password: os.Getenv("VALKEY_PASSWORD"),
		DB:       15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		for _, pattern := range []string{"confirm:*", "token:*"} {
			keys, _ := client.Keys(ctx, pattern).Result()
			if len(keys) > 0 {
				client.Del(ctx, keys...)
			}
		}
		client.Close()
	})

	return client
}

// TestIssueVerify_SingleUse verifies the full issue/verify cycle: a valid
// code succeeds exactly once and is gone afterwards.
func TestIssueVerify_SingleUse(t *testing.T) {
	client := testValkeyClient(t)
	c := NewConfirmer(client, "master-secret", time.Hour)
	u := testUser()
	ctx := context.Background()

	code, err := c.Issue(ctx, u)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	ok, err := c.Verify(ctx, u, code)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Fatal("freshly issued code rejected")
	}

	// Second exchange with the same code must fail: single-use.
	ok, err = c.Verify(ctx, u, code)
	if err != nil {
		t.Fatalf("second Verify: %v", err)
	}
	if ok {
		t.Error("code accepted twice")
	}
}

// TestIssueVerify_Reissue verifies that issuing a fresh code (epoch bump)
// invalidates the previous one.
func TestIssueVerify_Reissue(t *testing.T) {
	client := testValkeyClient(t)
	c := NewConfirmer(client, "master-secret", time.Hour)
	u := testUser()
	ctx := context.Background()

	old, err := c.Issue(ctx, u)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	// Re-request: the epoch bumps and a new code is issued.
	u.ConfirmationEpoch++
	fresh, err := c.Issue(ctx, u)
	if err != nil {
		t.Fatalf("reissue: %v", err)
	}

	ok, err := c.Verify(ctx, u, old)
	if err != nil {
		t.Fatalf("Verify old: %v", err)
	}
	if ok {
		t.Error("stale code accepted after reissue")
	}

	ok, err = c.Verify(ctx, u, fresh)
	if err != nil {
		t.Fatalf("Verify fresh: %v", err)
	}
	if !ok {
		t.Error("fresh code rejected")
	}
}

// TestVerify_NothingPending verifies that a user with no pending issuance
// cannot exchange any code.
func TestVerify_NothingPending(t *testing.T) {
	client := testValkeyClient(t)
	c := NewConfirmer(client, "master-secret", time.Hour)
	u := testUser()
	ctx := context.Background()

	code, err := c.codeFor(u, u.ConfirmationEpoch)
	if err != nil {
		t.Fatalf("codeFor: %v", err)
	}

	// The code is arithmetically correct, but nothing was issued.
	ok, err := c.Verify(ctx, u, code)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if ok {
		t.Error("code accepted without a pending issuance")
	}
}

// TestVerify_Expired verifies that the pending record's TTL bounds the
// exchange window.
func TestVerify_Expired(t *testing.T) {
	client := testValkeyClient(t)
	c := NewConfirmer(client, "master-secret", 50*time.Millisecond)
	u := testUser()
	ctx := context.Background()

	code, err := c.Issue(ctx, u)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	ok, err := c.Verify(ctx, u, code)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if ok {
		t.Error("expired code accepted")
	}
}
