package tokenizer

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPubkey = "02a1b2c3d4e5f60718293a4b5c6d7e8f9000112233445566778899aabbccddeeff"

func newTestCodec(ttl time.Duration) *JWTCodec {
	return NewJWTCodec([]byte("test-secret"), ttl).(*JWTCodec)
}

func TestMintValidateRoundTrip(t *testing.T) {
	codec := newTestCodec(7 * 24 * time.Hour)

	before := time.Now()
	token, err := codec.Mint(testPubkey)
	require.NoError(t, err)

	session := codec.Validate(token)
	require.NotNil(t, session)

	assert.Equal(t, testPubkey, session.Pubkey)
	assert.WithinDuration(t, before.Add(7*24*time.Hour), session.ExpiresAt, 5*time.Second)
	assert.WithinDuration(t, before, session.IssuedAt, 5*time.Second)
}

func TestValidateExpired(t *testing.T) {
	codec := newTestCodec(-time.Minute)

	token, err := codec.Mint(testPubkey)
	require.NoError(t, err)

	assert.Nil(t, codec.Validate(token))
}

func TestValidateTamperedSignature(t *testing.T) {
	codec := newTestCodec(time.Hour)

	token, err := codec.Mint(testPubkey)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)

	sig, err := base64.RawURLEncoding.DecodeString(parts[2])
	require.NoError(t, err)

	// A flipped byte anywhere in the signature must fail validation.
	for i := range sig {
		mangled := append([]byte(nil), sig...)
		mangled[i] ^= 0x01
		forged := parts[0] + "." + parts[1] + "." + base64.RawURLEncoding.EncodeToString(mangled)

		assert.Nil(t, codec.Validate(forged), "flipped byte %d accepted", i)
	}
}

func TestValidateWrongSecret(t *testing.T) {
	token, err := newTestCodec(time.Hour).Mint(testPubkey)
	require.NoError(t, err)

	other := NewJWTCodec([]byte("other-secret"), time.Hour)
	assert.Nil(t, other.Validate(token))
}

func TestValidateGarbage(t *testing.T) {
	codec := newTestCodec(time.Hour)

	for _, tok := range []string{"", "not-a-jwt", "a.b", "a.b.c.d", strings.Repeat("x", 4096)} {
		assert.NotPanics(t, func() {
			assert.Nil(t, codec.Validate(tok))
		})
	}
}

func TestValidateRejectsMalformedSubject(t *testing.T) {
	codec := newTestCodec(time.Hour)

	// Subject must look like a compressed secp256k1 key at the consumption
	// boundary, even when the signature itself checks out.
	token, err := codec.Mint("not-a-pubkey")
	require.NoError(t, err)

	assert.Nil(t, codec.Validate(token))
}
