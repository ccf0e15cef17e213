// Package identity is the contract with the service that owns user
// credentials. The storefront never sees passwords beyond passing them on.
package identity

import "context"

// Account is what a successful identity call returns. IDToken is the
// provider's own token and is needed for later profile changes.
type Account struct {
	UID         string
	Email       string
	DisplayName string
	IDToken     string
	NewUser     bool
}

type OAuthProvider string

const (
	Google OAuthProvider = "google"
	GitHub OAuthProvider = "github"
)

func (p OAuthProvider) Valid() bool {
	return p == Google || p == GitHub
}

type Provider interface {
	SignIn(ctx context.Context, email, password string) (*Account, error)
	SignUp(ctx context.Context, email, password, displayName string) (*Account, error)
	// SignInWithProvider exchanges a Google ID token or a GitHub access
	// token for an account, creating it on first use.
	SignInWithProvider(ctx context.Context, provider OAuthProvider, credential string) (*Account, error)
	SignOut(ctx context.Context, idToken string) error
	SendPasswordReset(ctx context.Context, email string) error
	UpdateDisplayName(ctx context.Context, idToken, displayName string) (*Account, error)
}
