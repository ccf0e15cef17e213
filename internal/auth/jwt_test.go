package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type revokedSet map[string]bool

func (r revokedSet) IsRevoked(_ context.Context, id string) (bool, error) {
	return r[id], nil
}

type accountTable map[string]struct {
	role   string
	active bool
}

func (a accountTable) AccountStatus(_ context.Context, id string) (string, bool, error) {
	acc, ok := a[id]
	if !ok {
		return "", false, errors.New("no such account")
	}
	return acc.role, acc.active, nil
}

func TestIssueAndValidate(t *testing.T) {
	m := NewJWTManager("secret", time.Hour)

	tok, err := m.Issue("u1", "a@example.com", "admin")
	require.NoError(t, err)
	assert.NotEmpty(t, tok.ID)

	claims, err := m.Validate(tok.Value)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "a@example.com", claims.Email)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, tok.ID, claims.ID)
}

func TestValidateRejects(t *testing.T) {
	m := NewJWTManager("secret", time.Hour)
	tok, err := m.Issue("u1", "a@example.com", "user")
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		_, err := NewJWTManager("other", time.Hour).Validate(tok.Value)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		later := NewJWTManager("secret", time.Hour)
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := later.Validate(tok.Value)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("none algorithm", func(t *testing.T) {
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: "u1"}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = m.Validate(unsigned)
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.Validate("not.a.token")
		assert.Error(t, err)
	})
}

func TestValidatorHonoursRevocation(t *testing.T) {
	m := NewJWTManager("secret", time.Hour)
	tok, err := m.Issue("u1", "a@example.com", "user")
	require.NoError(t, err)

	accounts := accountTable{"u1": {role: "user", active: true}}

	claims, err := m.Validator(revokedSet{}, accounts)(context.Background(), tok.Value)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, tok.ID, claims.TokenID)

	_, err = m.Validator(revokedSet{tok.ID: true}, accounts)(context.Background(), tok.Value)
	assert.Error(t, err)
}

func TestValidatorUsesCurrentAccountState(t *testing.T) {
	m := NewJWTManager("secret", time.Hour)
	tok, err := m.Issue("u1", "a@example.com", "admin")
	require.NoError(t, err)
	ctx := context.Background()

	claims, err := m.Validator(revokedSet{}, accountTable{"u1": {role: "user", active: true}})(ctx, tok.Value)
	require.NoError(t, err)
	assert.Equal(t, "user", claims.Role)

	_, err = m.Validator(revokedSet{}, accountTable{"u1": {role: "admin", active: false}})(ctx, tok.Value)
	assert.Error(t, err)

	_, err = m.Validator(revokedSet{}, accountTable{})(ctx, tok.Value)
	assert.Error(t, err)
}
