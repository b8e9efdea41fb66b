// Package token implements the two credentials of the auth flow: the
// one-time confirmation code emailed at signup and the bearer access token
// it is exchanged for. Codes are never stored in plaintext; the expected
// value is recomputed from user state on every check. Valkey holds the
// pending-issuance record (for expiry and single-use) and the issued
// bearer tokens.
package token

import (
	"context"
	"crypto/sha256"
	"encoding/base32"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/hkdf"

	"ratehub/internal/models"
)

// confirmPrefix namespaces pending-code records in Valkey.
const confirmPrefix = "confirm:"

// hotpOpts fixes the code format: 8 digits, SHA-256.
var hotpOpts = hotp.ValidateOpts{
	Digits:    otp.DigitsEight,
	Algorithm: otp.AlgorithmSHA256,
}

// Confirmer issues and verifies one-time confirmation codes.
//
// The code for a user is HOTP over a per-user key with the user's
// confirmation epoch as the counter. The key is derived with HKDF-SHA256
// from the server master secret and the user's identity, so the expected
// code is always recomputable from user state alone. Each issuance bumps
// the epoch, which invalidates all earlier codes.
//
// On top of the recomputable scheme, Issue records the pending epoch in
// Valkey with a TTL and Verify deletes it on success: a code expires with
// the TTL and is exchangeable at most once.
type Confirmer struct {
	client *redis.Client
	secret []byte
	ttl    time.Duration
}

// NewConfirmer creates a Confirmer backed by the given Valkey client.
func NewConfirmer(client *redis.Client, masterSecret string, ttl time.Duration) *Confirmer {
	return &Confirmer{
		client: client,
		secret: []byte(masterSecret),
		ttl:    ttl,
	}
}

// Issue computes the confirmation code for the user's current epoch and
// records the epoch as pending. The caller bumps the epoch (via the user
// store) before issuing, then dispatches the returned code by email.
func (c *Confirmer) Issue(ctx context.Context, u *models.User) (string, error) {
	code, err := c.codeFor(u, u.ConfirmationEpoch)
	if err != nil {
		return "", fmt.Errorf("confirm issue: %w", err)
	}

	epoch := strconv.FormatInt(u.ConfirmationEpoch, 10)
	if err := c.client.Set(ctx, confirmPrefix+u.ID.String(), epoch, c.ttl).Err(); err != nil {
		return "", fmt.Errorf("confirm record: %w", err)
	}

	return code, nil
}

// Verify checks a submitted code against the user's pending issuance.
// It returns false when no issuance is pending (expired, already used, or
// never requested), when the pending epoch no longer matches the user's
// current epoch, or when the code itself does not match. On success the
// pending record is deleted, so a code verifies at most once.
func (c *Confirmer) Verify(ctx context.Context, u *models.User, code string) (bool, error) {
	key := confirmPrefix + u.ID.String()

	pending, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("confirm lookup: %w", err)
	}

	epoch, err := strconv.ParseInt(pending, 10, 64)
	if err != nil || epoch != u.ConfirmationEpoch {
		return false, nil
	}

	ok, err := c.validate(u, epoch, code)
	if err != nil {
		return false, fmt.Errorf("confirm validate: %w", err)
	}
	if !ok {
		return false, nil
	}

	if err := c.client.Del(ctx, key).Err(); err != nil {
		return false, fmt.Errorf("confirm consume: %w", err)
	}
	return true, nil
}

// codeFor computes the 8-digit code for a user at a given epoch.
func (c *Confirmer) codeFor(u *models.User, epoch int64) (string, error) {
	return hotp.GenerateCodeCustom(c.userKey(u), uint64(epoch), hotpOpts)
}

// validate compares a submitted code in constant time via the HOTP library.
func (c *Confirmer) validate(u *models.User, epoch int64, code string) (bool, error) {
	return hotp.ValidateCustom(code, uint64(epoch), c.userKey(u), hotpOpts)
}

// userKey derives the per-user HOTP key from the master secret and the
// user's identity. Changing the username or email invalidates any pending
// code, as does rotating the master secret.
func (c *Confirmer) userKey(u *models.User) string {
	info := fmt.Sprintf("ratehub-confirm:%s:%s:%s", u.ID, u.Username, u.Email)
	key := make([]byte, 20)
	kdf := hkdf.New(sha256.New, c.secret, nil, []byte(info))
	if _, err := io.ReadFull(kdf, key); err != nil {
		// HKDF only fails when asked for more output than the hash can
		// expand; 20 bytes never hits that limit.
		panic(err)
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(key)
}
