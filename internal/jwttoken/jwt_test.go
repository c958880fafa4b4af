package jwttoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "github.com/nirvagold/DapoMaster/pkg/domain-errors"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := New("test-signing-key", "dapomaster")

	token, err := svc.GenerateToken("operator-1", "Budi", time.Hour)
	require.NoError(t, err)

	actorID, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "operator-1", actorID)
}

func TestExpiredTokenRejected(t *testing.T) {
	svc := New("test-signing-key", "dapomaster")

	token, err := svc.GenerateToken("operator-1", "Budi", -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestWrongKeyRejected(t *testing.T) {
	issuer := New("key-a", "dapomaster")
	verifier := New("key-b", "dapomaster")

	token, err := issuer.GenerateToken("operator-1", "Budi", time.Hour)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestGarbageTokenRejected(t *testing.T) {
	svc := New("test-signing-key", "dapomaster")
	_, err := svc.ValidateToken("not.a.token")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}
