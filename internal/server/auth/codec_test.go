package auth

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rnbmx/bmxshop/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testKey  = bytes.Repeat([]byte("k"), MinKeyBytes)
	otherKey = bytes.Repeat([]byte("z"), MinKeyBytes)
	t0       = time.Unix(1_700_000_000, 0)
)

func newTestCodec(t *testing.T, ttl time.Duration) *Codec {
	t.Helper()
	c, err := NewCodec(testKey, ttl)
	require.NoError(t, err)
	return c
}

func TestNewCodec_RejectsWeakKeyAndBadTTL(t *testing.T) {
	_, err := NewCodec([]byte("short"), time.Hour)
	require.ErrorIs(t, err, common.ErrWeakSigningKey)

	_, err = NewCodec(testKey, 0)
	require.Error(t, err)
}

func TestNewCodec_CopiesKey(t *testing.T) {
	key := bytes.Repeat([]byte("k"), MinKeyBytes)
	c, err := NewCodec(key, time.Hour)
	require.NoError(t, err)
	tok, err := c.Issue("a@x.com", t0)
	require.NoError(t, err)

	key[0] = 'X'
	sub, err := c.Verify(tok, t0)
	require.NoError(t, err, "caller mutations must not affect the codec")
	assert.Equal(t, "a@x.com", sub)
}

func TestVerify_RoundTripWithinTTL(t *testing.T) {
	ttl := time.Hour
	c := newTestCodec(t, ttl)

	tok, err := c.Issue("a@x.com", t0)
	require.NoError(t, err)

	for _, d := range []time.Duration{0, time.Second, 30 * time.Minute, ttl - time.Second, ttl - time.Millisecond} {
		sub, err := c.Verify(tok, t0.Add(d))
		require.NoErrorf(t, err, "delta %s", d)
		assert.Equal(t, "a@x.com", sub)
	}
}

func TestVerify_FractionalIssueTime(t *testing.T) {
	ttl := time.Hour
	c := newTestCodec(t, ttl)

	for _, issued := range []time.Time{
		time.Unix(1_700_000_000, 900_000_000),
		time.Unix(1_700_000_000, 1),
		time.Unix(1_700_000_000, 123_456_789),
	} {
		tok, err := c.Issue("a@x.com", issued)
		require.NoError(t, err)

		for _, d := range []time.Duration{0, ttl - time.Second, ttl - time.Nanosecond} {
			sub, err := c.Verify(tok, issued.Add(d))
			require.NoErrorf(t, err, "issued %v delta %s", issued, d)
			assert.Equal(t, "a@x.com", sub)
		}
		for _, d := range []time.Duration{ttl, ttl + time.Nanosecond, ttl + 500*time.Millisecond} {
			_, err := c.Verify(tok, issued.Add(d))
			require.ErrorIsf(t, err, common.ErrTokenExpired, "issued %v delta %s", issued, d)
		}
	}
}

func TestVerify_ExpiredAtAndAfterTTL(t *testing.T) {
	ttl := time.Hour
	c := newTestCodec(t, ttl)

	tok, err := c.Issue("a@x.com", t0)
	require.NoError(t, err)

	for _, d := range []time.Duration{ttl, ttl + time.Second, 48 * time.Hour} {
		_, err := c.Verify(tok, t0.Add(d))
		require.ErrorIsf(t, err, common.ErrTokenExpired, "delta %s", d)
	}
}

func TestVerify_OtherKeyIsInvalidSignature(t *testing.T) {
	other, err := NewCodec(otherKey, time.Hour)
	require.NoError(t, err)
	tok, err := other.Issue("a@x.com", t0)
	require.NoError(t, err)

	_, err = newTestCodec(t, time.Hour).Verify(tok, t0)
	require.ErrorIs(t, err, common.ErrTokenInvalidSignature)

	// signature is checked before expiry
	_, err = newTestCodec(t, time.Hour).Verify(tok, t0.Add(72*time.Hour))
	require.ErrorIs(t, err, common.ErrTokenInvalidSignature)
}

func TestVerify_TamperedPayload(t *testing.T) {
	c := newTestCodec(t, time.Hour)
	tok, err := c.Issue("a@x.com", t0)
	require.NoError(t, err)
	forged, err := c.Issue("admin@x.com", t0)
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	forgedParts := strings.Split(forged, ".")
	mixed := parts[0] + "." + forgedParts[1] + "." + parts[2]

	_, err = c.Verify(mixed, t0)
	require.ErrorIs(t, err, common.ErrTokenInvalidSignature)
}

func TestVerify_Malformed(t *testing.T) {
	c := newTestCodec(t, time.Hour)
	for _, tok := range []string{"abc", "a.b.c", "not-a-token.at.all", "....", "eyJhbGciOiJIUzUxMiJ9.%%%.sig"} {
		_, err := c.Verify(tok, t0)
		require.ErrorIsf(t, err, common.ErrTokenMalformed, "token %q", tok)
	}
}

func TestVerify_EmptyToken(t *testing.T) {
	c := newTestCodec(t, time.Hour)
	for _, tok := range []string{"", "   "} {
		_, err := c.Verify(tok, t0)
		require.ErrorIs(t, err, common.ErrTokenEmptyClaims)
	}
}

func TestVerify_UnsupportedAlgorithms(t *testing.T) {
	c := newTestCodec(t, time.Hour)
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "a@x.com",
		ExpiresAt: jwt.NewNumericDate(t0.Add(time.Hour)),
	}}

	hs256, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testKey)
	require.NoError(t, err)
	_, err = c.Verify(hs256, t0)
	require.ErrorIs(t, err, common.ErrTokenUnsupported)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = c.Verify(none, t0)
	require.ErrorIs(t, err, common.ErrTokenUnsupported)
}

func TestVerify_MissingClaims(t *testing.T) {
	c := newTestCodec(t, time.Hour)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(t0.Add(time.Hour)),
	}}).SignedString(testKey)
	require.NoError(t, err)
	_, err = c.Verify(noSubject, t0)
	require.ErrorIs(t, err, common.ErrTokenEmptyClaims)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject: "a@x.com",
	}}).SignedString(testKey)
	require.NoError(t, err)
	_, err = c.Verify(noExpiry, t0)
	require.ErrorIs(t, err, common.ErrTokenEmptyClaims)
}

func TestIssue_EmptySubject(t *testing.T) {
	_, err := newTestCodec(t, time.Hour).Issue(" ", t0)
	require.ErrorIs(t, err, common.ErrTokenEmptyClaims)
}

func TestIssue_ClaimsContent(t *testing.T) {
	c := newTestCodec(t, 2*time.Hour)
	tok, err := c.Issue("a@x.com", t0)
	require.NoError(t, err)

	claims := &Claims{}
	_, _, err = jwt.NewParser().ParseUnverified(tok, claims)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", claims.Subject)
	assert.True(t, claims.IssuedAt.Time.Equal(t0))
	assert.True(t, claims.ExpiresAt.Time.Equal(t0.Add(2*time.Hour)))
	assert.Equal(t, t0.Add(2*time.Hour).UnixNano(), claims.ExpiresAtNanos)

	frac := time.Unix(1_700_000_000, 250_000_000)
	tok, err = c.Issue("a@x.com", frac)
	require.NoError(t, err)
	claims = &Claims{}
	_, _, err = jwt.NewParser().ParseUnverified(tok, claims)
	require.NoError(t, err)
	assert.Equal(t, int64(1_700_007_201), claims.ExpiresAt.Unix(), "exp rounds up to the next second")
	assert.Equal(t, frac.Add(2*time.Hour).UnixNano(), claims.ExpiresAtNanos)
	assert.Equal(t, 2*time.Hour, c.TTL())
}
