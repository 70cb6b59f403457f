// Package lnauth verifies Lightning wallet signatures over login challenges.
package lnauth

import (
	"encoding/hex"
	"log/slog"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
)

// Verify checks that sigHex is a valid DER-encoded secp256k1 signature over
// the k1 bytes under the compressed public key pubkeyHex.
//
// Wallet callbacks are noisy, adversarial input: every failure mode,
// malformed hex included, returns false rather than an error. Diagnostics log
// input lengths only, never raw key or signature material.
func Verify(k1Hex, sigHex, pubkeyHex string) bool {
	k1, err := hex.DecodeString(k1Hex)
	if err != nil || len(k1) != 32 {
		slog.Debug("lnauth: malformed k1", "len", len(k1Hex))
		return false
	}

	sigBytes, err := hex.DecodeString(sigHex)
	if err != nil {
		slog.Debug("lnauth: malformed signature hex", "len", len(sigHex))
		return false
	}

	keyBytes, err := hex.DecodeString(pubkeyHex)
	if err != nil || len(keyBytes) != 33 {
		slog.Debug("lnauth: malformed pubkey", "len", len(pubkeyHex))
		return false
	}

	pubkey, err := btcec.ParsePubKey(keyBytes)
	if err != nil {
		slog.Debug("lnauth: pubkey not on curve", "len", len(keyBytes))
		return false
	}

	sig, err := ecdsa.ParseDERSignature(sigBytes)
	if err != nil {
		slog.Debug("lnauth: signature not DER", "len", len(sigBytes))
		return false
	}

	if !sig.Verify(k1, pubkey) {
		slog.Debug("lnauth: signature verification failed", "k1_len", len(k1), "sig_len", len(sigBytes))
		return false
	}

	return true
}
