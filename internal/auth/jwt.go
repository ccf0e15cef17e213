// Package auth issues and validates the storefront's own access tokens.
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/utafrali/storefront/pkg/middleware"
)

const issuer = "storefront"

// Claims is the JWT body. The token ID doubles as the session key.
type Claims struct {
	UserID string `json:"uid"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type Token struct {
	Value     string
	ID        string
	ExpiresAt time.Time
}

type JWTManager struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

func NewJWTManager(secret string, expiry time.Duration) *JWTManager {
	return &JWTManager{secret: []byte(secret), expiry: expiry, now: time.Now}
}

func (m *JWTManager) Expiry() time.Duration { return m.expiry }

// Issue signs a new access token with a fresh token ID.
func (m *JWTManager) Issue(userID, email, role string) (*Token, error) {
	now := m.now().UTC()
	expiresAt := now.Add(m.expiry)
	claims := &Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	return &Token{Value: signed, ID: claims.ID, ExpiresAt: expiresAt}, nil
}

func (m *JWTManager) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("parse access token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid access token claims")
	}
	if claims.ID == "" {
		return nil, fmt.Errorf("access token has no id")
	}
	return claims, nil
}

// RevocationChecker reports whether a token ID was signed out.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// AccountChecker reports a user's current role and whether the account is
// active.
type AccountChecker interface {
	AccountStatus(ctx context.Context, userID string) (role string, active bool, err error)
}

// Validator adapts the manager to the HTTP auth middleware. It rejects
// revoked tokens and deactivated accounts, and takes the role from the
// account rather than the token so role changes apply immediately.
func (m *JWTManager) Validator(revocations RevocationChecker, accounts AccountChecker) middleware.TokenValidator {
	return func(ctx context.Context, token string) (*middleware.Claims, error) {
		claims, err := m.Validate(token)
		if err != nil {
			return nil, err
		}
		revoked, err := revocations.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("check revocation: %w", err)
		}
		if revoked {
			return nil, fmt.Errorf("token %s has been revoked", claims.ID)
		}
		role, active, err := accounts.AccountStatus(ctx, claims.UserID)
		if err != nil {
			return nil, fmt.Errorf("check account %s: %w", claims.UserID, err)
		}
		if !active {
			return nil, fmt.Errorf("account %s is deactivated", claims.UserID)
		}
		return &middleware.Claims{
			UserID:  claims.UserID,
			Email:   claims.Email,
			Role:    role,
			TokenID: claims.ID,
		}, nil
	}
}
