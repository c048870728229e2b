package tokens

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSubject = Subject{ID: 42, Name: "Ada", Email: "ada@example.com"}

func newTestService(t *testing.T) *Service {
	t.Helper()
	s, err := NewService([]byte("access-secret"), []byte("refresh-secret"))
	require.NoError(t, err)
	return s
}

func TestNewService_RejectsSharedOrEmptySecrets(t *testing.T) {
	_, err := NewService([]byte("same"), []byte("same"))
	require.ErrorIs(t, err, ErrSigning)

	_, err = NewService(nil, []byte("refresh"))
	require.ErrorIs(t, err, ErrSigning)
}

func TestIssueAndVerify_RoundTrip(t *testing.T) {
	s := newTestService(t)

	access, err := s.IssueAccessToken(testSubject, DefaultAccessTTL)
	require.NoError(t, err)
	assert.Len(t, strings.Split(access, "."), 3)

	claims, err := s.Verify(access, Access)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, "Ada", claims.Name)
	assert.Equal(t, "ada@example.com", claims.Email)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.EqualValues(t, 42, id)

	refresh, err := s.IssueRefreshToken(testSubject, DefaultRefreshTTL)
	require.NoError(t, err)
	rc, err := s.Verify(refresh, Refresh)
	require.NoError(t, err)
	assert.Equal(t, claims.Subject, rc.Subject)
	assert.Equal(t, claims.Name, rc.Name)
	assert.Equal(t, claims.Email, rc.Email)
}

func TestVerify_WrongSecretIsInvalid(t *testing.T) {
	s := newTestService(t)

	access, err := s.IssueAccessToken(testSubject, time.Hour)
	require.NoError(t, err)
	refresh, err := s.IssueRefreshToken(testSubject, time.Hour)
	require.NoError(t, err)

	_, err = s.Verify(access, Refresh)
	require.ErrorIs(t, err, ErrTokenInvalid)

	_, err = s.Verify(refresh, Access)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerify_ExpiredIsDistinct(t *testing.T) {
	s := newTestService(t)

	tok, err := s.IssueAccessToken(testSubject, 100*time.Millisecond)
	require.NoError(t, err)

	time.Sleep(150 * time.Millisecond)

	_, err = s.Verify(tok, Access)
	require.ErrorIs(t, err, ErrTokenExpired)
	require.NotErrorIs(t, err, ErrTokenInvalid)
}

func TestVerify_ExpiryWithControlledClock(t *testing.T) {
	s := newTestService(t)
	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return start }

	tok, err := s.IssueAccessToken(testSubject, time.Hour)
	require.NoError(t, err)

	s.now = func() time.Time { return start.Add(59 * time.Minute) }
	_, err = s.Verify(tok, Access)
	require.NoError(t, err)

	s.now = func() time.Time { return start.Add(61 * time.Minute) }
	_, err = s.Verify(tok, Access)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerify_TamperedPayloadIsInvalid(t *testing.T) {
	s := newTestService(t)
	tok, err := s.IssueAccessToken(testSubject, time.Hour)
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	tampered := strings.Replace(string(payload), `"sub":"42"`, `"sub":"43"`, 1)
	require.NotEqual(t, string(payload), tampered)
	parts[1] = base64.RawURLEncoding.EncodeToString([]byte(tampered))

	claims, err := s.Verify(strings.Join(parts, "."), Access)
	require.ErrorIs(t, err, ErrTokenInvalid)
	assert.Nil(t, claims)

	raw := []byte(tok)
	idx := len(parts[0]) + 3
	raw[idx] ^= 0x01
	_, err = s.Verify(string(raw), Access)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerify_Malformed(t *testing.T) {
	s := newTestService(t)
	for _, raw := range []string{"", "abc", "a.b.c", "Bearer x.y.z"} {
		_, err := s.Verify(raw, Access)
		require.ErrorIs(t, err, ErrTokenInvalid, raw)
	}
}
