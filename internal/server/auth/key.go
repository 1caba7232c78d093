package auth

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/rnbmx/bmxshop/internal/common"
	"github.com/rnbmx/bmxshop/internal/logging"
)

// MinKeyBytes is the minimum HS512 key size (512 bits).
const MinKeyBytes = 64

const base64Prefix = "base64:"

// KeyPolicy decides what happens at startup when the configured secret is weak.
type KeyPolicy string

const (
	// KeyPolicyStrict refuses to start.
	KeyPolicyStrict KeyPolicy = "strict"
	// KeyPolicyEphemeral generates a random key for this process only.
	KeyPolicyEphemeral KeyPolicy = "ephemeral"
)

func ParseKeyPolicy(s string) (KeyPolicy, error) {
	switch KeyPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", KeyPolicyStrict:
		return KeyPolicyStrict, nil
	case KeyPolicyEphemeral:
		return KeyPolicyEphemeral, nil
	default:
		return "", fmt.Errorf("unknown key policy %q (want strict or ephemeral)", s)
	}
}

// DecodeSecret returns the raw key bytes. A "base64:" prefix selects
// standard base64 decoding; anything else is used verbatim.
func DecodeSecret(secret string) ([]byte, error) {
	if rest, ok := strings.CutPrefix(secret, base64Prefix); ok {
		b, err := base64.StdEncoding.DecodeString(rest)
		if err != nil {
			return nil, fmt.Errorf("decode base64 secret: %w", err)
		}
		return b, nil
	}
	return []byte(secret), nil
}

// EncodeKey renders a key in the form accepted by DecodeSecret.
func EncodeKey(key []byte) string {
	return base64Prefix + base64.StdEncoding.EncodeToString(key)
}

// GenerateKey returns a fresh random key of MinKeyBytes.
func GenerateKey() []byte {
	return common.GenerateRandByteArray(MinKeyBytes)
}

// ResolveSigningKey runs once during startup. A strong secret is returned as
// is. A weak one fails under KeyPolicyStrict; under KeyPolicyEphemeral a new
// key is generated and the operator is told that existing sessions are void.
func ResolveSigningKey(ctx context.Context, secret string, policy KeyPolicy, logger logging.Logger) ([]byte, error) {
	key, err := DecodeSecret(secret)
	if err != nil {
		return nil, err
	}
	if len(key) >= MinKeyBytes {
		return key, nil
	}

	if policy != KeyPolicyEphemeral {
		return nil, fmt.Errorf("%w: got %d bits; set a 64-byte secret or use key policy %q",
			common.ErrWeakSigningKey, len(key)*8, KeyPolicyEphemeral)
	}

	weakBits := len(key) * 8
	key = GenerateKey()
	logger.Warn(ctx, "configured signing secret is too weak, generated an ephemeral key; all previously issued sessions are invalidated",
		"configured_bits", weakBits,
		"generated_key", EncodeKey(key))
	return key, nil
}
