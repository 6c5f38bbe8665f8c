package auth_test

import (
	"strings"
	"testing"
	"time"

	domain "authgate/backend/internal/domain/auth"
	"authgate/backend/internal/usecase/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestHasher(t *testing.T, opts ...auth.HasherOption) *auth.BcryptHasher {
	t.Helper()
	h, err := auth.NewBcryptHasher(bcrypt.MinCost, opts...)
	require.NoError(t, err)
	return h
}

func TestNewBcryptHasher_RejectsCostOutOfRange(t *testing.T) {
	_, err := auth.NewBcryptHasher(bcrypt.MinCost - 1)
	assert.Error(t, err)

	_, err = auth.NewBcryptHasher(bcrypt.MaxCost + 1)
	assert.Error(t, err)
}

func TestBcryptHasher_HashAndCompare(t *testing.T) {
	h := newTestHasher(t)

	first, err := h.Hash("correct horse")
	require.NoError(t, err)
	second, err := h.Hash("correct horse")
	require.NoError(t, err)

	assert.NotEqual(t, "correct horse", first)
	assert.NotEqual(t, first, second, "each hash carries its own salt")

	ok, err := h.Compare("correct horse", first)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Compare("wrong horse", first)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBcryptHasher_CompareMalformedHash(t *testing.T) {
	h := newTestHasher(t)

	ok, err := h.Compare("password1", "not-a-bcrypt-hash")
	assert.False(t, ok)
	require.Error(t, err)
	assert.Equal(t, domain.KindInternalFailure, domain.KindOf(err))
}

func TestBcryptHasher_CompareOverlongPasswordIsMismatch(t *testing.T) {
	h := newTestHasher(t)
	hash, err := h.Hash("password1")
	require.NoError(t, err)

	ok, err := h.Compare(strings.Repeat("x", 100), hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBcryptHasher_HashObserver(t *testing.T) {
	var observed []time.Duration
	h := newTestHasher(t, auth.WithHashObserver(func(d time.Duration) {
		observed = append(observed, d)
	}))

	_, err := h.Hash("password1")
	require.NoError(t, err)
	assert.Len(t, observed, 1)
}

func TestBcryptHasher_HashOverlongIsInternal(t *testing.T) {
	h := newTestHasher(t)

	_, err := h.Hash(strings.Repeat("x", 73))
	assert.Equal(t, domain.KindInternalFailure, domain.KindOf(err))
}

func TestBcryptHasher_ValidateStrength(t *testing.T) {
	h := newTestHasher(t)

	tests := []struct {
		name     string
		password string
		valid    bool
		errCount int
	}{
		{name: "empty", password: "", valid: false, errCount: 1},
		{name: "seven", password: "abcdefg", valid: false, errCount: 1},
		{name: "eight", password: "abcdefgh", valid: true},
		{name: "multibyte eight runes", password: "ééééøøøø", valid: true},
		{name: "72 bytes", password: strings.Repeat("a", 72), valid: true},
		{name: "73 bytes", password: strings.Repeat("a", 73), valid: false, errCount: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := h.ValidateStrength(tt.password)
			assert.Equal(t, tt.valid, res.Valid)
			assert.Len(t, res.Errors, tt.errCount)
		})
	}
}

func TestBcryptHasher_ValidateStrengthMessage(t *testing.T) {
	res := newTestHasher(t).ValidateStrength("short")
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "password must be at least 8 characters long", res.Errors[0])
}
