package auth

import (
	"bytes"
	"context"
	"encoding/base64"
	"log/slog"
	"strings"
	"testing"

	"github.com/rnbmx/bmxshop/internal/common"
	"github.com/rnbmx/bmxshop/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bufLogger() (logging.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(&buf, nil))), &buf
}

func TestParseKeyPolicy(t *testing.T) {
	p, err := ParseKeyPolicy("")
	require.NoError(t, err)
	assert.Equal(t, KeyPolicyStrict, p)

	p, err = ParseKeyPolicy("Ephemeral")
	require.NoError(t, err)
	assert.Equal(t, KeyPolicyEphemeral, p)

	_, err = ParseKeyPolicy("lenient")
	require.Error(t, err)
}

func TestDecodeSecret(t *testing.T) {
	raw, err := DecodeSecret("plain")
	require.NoError(t, err)
	assert.Equal(t, []byte("plain"), raw)

	key := GenerateKey()
	dec, err := DecodeSecret(EncodeKey(key))
	require.NoError(t, err)
	assert.Equal(t, key, dec)

	_, err = DecodeSecret("base64:!!!")
	require.Error(t, err)
}

func TestResolveSigningKey_StrongSecretUsedAsIs(t *testing.T) {
	log, buf := bufLogger()
	secret := strings.Repeat("s", MinKeyBytes)

	key, err := ResolveSigningKey(context.Background(), secret, KeyPolicyStrict, log)
	require.NoError(t, err)
	assert.Equal(t, []byte(secret), key)
	assert.Empty(t, buf.String())
}

func TestResolveSigningKey_StrictFailsOnWeak(t *testing.T) {
	log, _ := bufLogger()

	_, err := ResolveSigningKey(context.Background(), "secretKey", KeyPolicyStrict, log)
	require.ErrorIs(t, err, common.ErrWeakSigningKey)
	assert.Contains(t, err.Error(), "72 bits")
}

func TestResolveSigningKey_EphemeralWarnsAndGenerates(t *testing.T) {
	log, buf := bufLogger()

	key, err := ResolveSigningKey(context.Background(), "secretKey", KeyPolicyEphemeral, log)
	require.NoError(t, err)
	require.Len(t, key, MinKeyBytes)

	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "all previously issued sessions are invalidated")
	assert.Contains(t, out, "generated_key=")
	assert.Contains(t, out, EncodeKey(key))

	_, err = NewCodec(key, 1)
	require.NoError(t, err)
}

func TestResolveSigningKey_Base64Secret(t *testing.T) {
	log, _ := bufLogger()
	raw := bytes.Repeat([]byte{0x01}, MinKeyBytes)

	key, err := ResolveSigningKey(context.Background(), "base64:"+base64.StdEncoding.EncodeToString(raw), KeyPolicyStrict, log)
	require.NoError(t, err)
	assert.Equal(t, raw, key)
}
