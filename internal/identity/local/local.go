// Package local is a self-contained identity provider for development and
// tests. Credentials live in the document store with bcrypt hashes; ID
// tokens are opaque and held in memory.
package local

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/utafrali/storefront/internal/docstore"
	"github.com/utafrali/storefront/internal/identity"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

const (
	Collection        = "credentials"
	MinPasswordLength = 6
)

type credential struct {
	UID          string `json:"uid"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
	DisplayName  string `json:"display_name"`
}

type Provider struct {
	store docstore.Store
	cost  int

	mu     sync.Mutex
	tokens map[string]string // token -> email key
}

var _ identity.Provider = (*Provider)(nil)

// New returns a provider hashing with the given bcrypt cost. A cost of 0
// means bcrypt.DefaultCost.
func New(store docstore.Store, cost int) *Provider {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Provider{store: store, cost: cost, tokens: make(map[string]string)}
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (p *Provider) issue(key string, c credential, isNew bool) *identity.Account {
	token := uuid.NewString()
	p.mu.Lock()
	p.tokens[token] = key
	p.mu.Unlock()
	return &identity.Account{
		UID:         c.UID,
		Email:       c.Email,
		DisplayName: c.DisplayName,
		IDToken:     token,
		NewUser:     isNew,
	}
}

func (p *Provider) load(ctx context.Context, key string) (credential, error) {
	var c credential
	doc, err := p.store.Get(ctx, Collection, key)
	if err != nil {
		return c, err
	}
	err = docstore.Decode(doc, &c)
	return c, err
}

func (p *Provider) SignUp(ctx context.Context, email, password, displayName string) (*identity.Account, error) {
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperrors.InvalidInput("email address is invalid")
	}
	if len(password) < MinPasswordLength {
		return nil, apperrors.InvalidInput(fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	key := emailKey(email)
	c := credential{
		UID:          uuid.NewString(),
		Email:        key,
		PasswordHash: string(hash),
		DisplayName:  displayName,
	}
	data, err := docstore.Encode(c)
	if err != nil {
		return nil, err
	}
	if _, err := p.store.Create(ctx, Collection, docstore.Document{ID: key, Data: data}); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			return nil, apperrors.AlreadyExists("account", "email", key)
		}
		return nil, err
	}
	return p.issue(key, c, true), nil
}

func (p *Provider) SignIn(ctx context.Context, email, password string) (*identity.Account, error) {
	key := emailKey(email)
	c, err := p.load(ctx, key)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.Unauthorized("invalid email or password")
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)) != nil {
		return nil, apperrors.Unauthorized("invalid email or password")
	}
	return p.issue(key, c, false), nil
}

func (p *Provider) SignInWithProvider(_ context.Context, provider identity.OAuthProvider, _ string) (*identity.Account, error) {
	return nil, apperrors.InvalidInput(fmt.Sprintf("sign-in with %s is not available with local accounts", provider))
}

func (p *Provider) SignOut(_ context.Context, idToken string) error {
	p.mu.Lock()
	delete(p.tokens, idToken)
	p.mu.Unlock()
	return nil
}

// SendPasswordReset only checks the address is well formed; nothing is
// sent and unknown addresses are not reported.
func (p *Provider) SendPasswordReset(_ context.Context, email string) error {
	if _, err := mail.ParseAddress(email); err != nil {
		return apperrors.InvalidInput("email address is invalid")
	}
	return nil
}

func (p *Provider) UpdateDisplayName(ctx context.Context, idToken, displayName string) (*identity.Account, error) {
	p.mu.Lock()
	key, ok := p.tokens[idToken]
	p.mu.Unlock()
	if !ok {
		return nil, apperrors.Unauthorized("identity token is invalid or expired")
	}

	doc, err := p.store.Update(ctx, Collection, key, map[string]any{"display_name": displayName})
	if err != nil {
		return nil, err
	}
	var c credential
	if err := docstore.Decode(doc, &c); err != nil {
		return nil, err
	}
	return &identity.Account{UID: c.UID, Email: c.Email, DisplayName: c.DisplayName, IDToken: idToken}, nil
}
