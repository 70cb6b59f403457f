// Package lnurl builds wallet-scannable login challenges: random k1 tokens,
// bech32-encoded callback URLs and mobile deep links.
package lnurl

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

// Prefix is the human-readable part of encoded challenges.
const Prefix = "lnurl"

// K1Len is the length of a k1 token in bytes before hex encoding.
const K1Len = 32

// NewK1 generates a fresh challenge token: 32 cryptographically random bytes,
// hex encoded. Tokens are never reused.
func NewK1() (string, error) {
	buf := make([]byte, K1Len)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate k1: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// CallbackURL builds the wallet callback URL embedding k1 for the given host.
func CallbackURL(host, k1 string) string {
	return fmt.Sprintf("https://%s/auth/verify?tag=login&k1=%s", host, k1)
}

// EncodeChallenge encodes the callback URL for k1 into an uppercased bech32
// string. Uppercase keeps QR codes in alphanumeric mode.
func EncodeChallenge(host, k1 string) (string, error) {
	converted, err := bech32.ConvertBits([]byte(CallbackURL(host, k1)), 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("failed to convert callback url: %w", err)
	}

	encoded, err := bech32.Encode(Prefix, converted)
	if err != nil {
		return "", fmt.Errorf("failed to encode challenge: %w", err)
	}

	return strings.ToUpper(encoded), nil
}

// DecodeChallenge decodes an encoded challenge back to the callback URL.
// Used by tests and diagnostic tooling; wallets decode on their side.
func DecodeChallenge(encoded string) (string, error) {
	hrp, data, err := bech32.DecodeNoLimit(strings.ToLower(encoded))
	if err != nil {
		return "", fmt.Errorf("failed to decode challenge: %w", err)
	}
	if hrp != Prefix {
		return "", fmt.Errorf("unexpected prefix %q", hrp)
	}

	converted, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return "", fmt.Errorf("failed to convert challenge data: %w", err)
	}

	return string(converted), nil
}

// DeepLink builds an app-invocable URI for mobile wallets. The timestamp is
// advisory only; verification trusts the stored challenge expiry, not this.
func DeepLink(host, k1 string) string {
	return fmt.Sprintf("sphinx.chat://?action=auth&host=%s&challenge=%s&ts=%d", host, k1, time.Now().Unix())
}
