// Package remote talks to a hosted identity service over its accounts REST
// API.
package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/utafrali/storefront/internal/identity"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httpclient"
)

const (
	serviceName    = "identity"
	DefaultBaseURL = "https://identitytoolkit.googleapis.com"
)

type Config struct {
	BaseURL string
	APIKey  string
	// RequestURI is echoed to the service on OAuth sign-in.
	RequestURI string
}

// Provider implements identity.Provider. Calls go through d, which in
// production is a circuit-breaking client.
type Provider struct {
	d   httpclient.Doer
	cfg Config
}

var _ identity.Provider = (*Provider)(nil)

func New(cfg Config, d httpclient.Doer) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.RequestURI == "" {
		cfg.RequestURI = "http://localhost"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Provider{d: d, cfg: cfg}
}

type accountResponse struct {
	LocalID     string `json:"localId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	IDToken     string `json:"idToken"`
	IsNewUser   bool   `json:"isNewUser"`
}

func (r accountResponse) account() *identity.Account {
	return &identity.Account{
		UID:         r.LocalID,
		Email:       r.Email,
		DisplayName: r.DisplayName,
		IDToken:     r.IDToken,
		NewUser:     r.IsNewUser,
	}
}

func (p *Provider) call(ctx context.Context, method string, in, out any) error {
	u := fmt.Sprintf("%s/v1/accounts:%s?key=%s", p.cfg.BaseURL, method, url.QueryEscape(p.cfg.APIKey))
	if err := httpclient.DoJSON(ctx, p.d, http.MethodPost, u, serviceName, in, out); err != nil {
		return mapError(err)
	}
	return nil
}

func (p *Provider) SignIn(ctx context.Context, email, password string) (*identity.Account, error) {
	var resp accountResponse
	err := p.call(ctx, "signInWithPassword", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.account(), nil
}

func (p *Provider) SignUp(ctx context.Context, email, password, displayName string) (*identity.Account, error) {
	var resp accountResponse
	err := p.call(ctx, "signUp", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &resp)
	if err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			return nil, apperrors.AlreadyExists("account", "email", email)
		}
		return nil, err
	}
	acct := resp.account()
	acct.NewUser = true
	if displayName == "" {
		return acct, nil
	}

	updated, err := p.UpdateDisplayName(ctx, acct.IDToken, displayName)
	if err != nil {
		return nil, fmt.Errorf("set display name: %w", err)
	}
	updated.NewUser = true
	return updated, nil
}

var oauthProviderIDs = map[identity.OAuthProvider]struct {
	id, param string
}{
	identity.Google: {id: "google.com", param: "id_token"},
	identity.GitHub: {id: "github.com", param: "access_token"},
}

func (p *Provider) SignInWithProvider(ctx context.Context, provider identity.OAuthProvider, credential string) (*identity.Account, error) {
	pid, ok := oauthProviderIDs[provider]
	if !ok {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unsupported sign-in provider %q", provider))
	}
	postBody := url.Values{}
	postBody.Set(pid.param, credential)
	postBody.Set("providerId", pid.id)

	var resp accountResponse
	err := p.call(ctx, "signInWithIdp", map[string]any{
		"postBody":            postBody.Encode(),
		"requestUri":          p.cfg.RequestURI,
		"returnSecureToken":   true,
		"returnIdpCredential": true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.account(), nil
}

// SignOut has nothing to do remotely: provider ID tokens expire on their
// own and the storefront revokes its session separately.
func (p *Provider) SignOut(context.Context, string) error {
	return nil
}

func (p *Provider) SendPasswordReset(ctx context.Context, email string) error {
	err := p.call(ctx, "sendOobCode", map[string]any{
		"requestType": "PASSWORD_RESET",
		"email":       email,
	}, nil)
	// Unknown addresses are not reported, so the endpoint cannot be used to
	// probe for accounts.
	if errors.Is(err, apperrors.ErrUnauthorized) {
		return nil
	}
	return err
}

func (p *Provider) UpdateDisplayName(ctx context.Context, idToken, displayName string) (*identity.Account, error) {
	var resp accountResponse
	err := p.call(ctx, "update", map[string]any{
		"idToken":           idToken,
		"displayName":       displayName,
		"returnSecureToken": true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	acct := resp.account()
	if acct.IDToken == "" {
		acct.IDToken = idToken
	}
	return acct, nil
}

// mapError turns the service's error codes, carried in the message of a
// 400 answer, into storefront errors.
func mapError(err error) error {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || !errors.Is(err, apperrors.ErrInvalidInput) {
		return err
	}
	msg := appErr.Message
	switch {
	case strings.Contains(msg, "EMAIL_EXISTS"):
		return &apperrors.AppError{Code: "ALREADY_EXISTS", Message: "an account with this email already exists", Status: http.StatusConflict, Err: apperrors.ErrAlreadyExists}
	case strings.Contains(msg, "EMAIL_NOT_FOUND"),
		strings.Contains(msg, "INVALID_PASSWORD"),
		strings.Contains(msg, "INVALID_LOGIN_CREDENTIALS"):
		return apperrors.Unauthorized("invalid email or password")
	case strings.Contains(msg, "INVALID_ID_TOKEN"),
		strings.Contains(msg, "TOKEN_EXPIRED"),
		strings.Contains(msg, "INVALID_IDP_RESPONSE"):
		return apperrors.Unauthorized("identity token is invalid or expired")
	case strings.Contains(msg, "USER_DISABLED"):
		return apperrors.Forbidden("account is disabled")
	case strings.Contains(msg, "WEAK_PASSWORD"):
		return apperrors.InvalidInput("password must be at least 6 characters")
	case strings.Contains(msg, "INVALID_EMAIL"):
		return apperrors.InvalidInput("email address is invalid")
	}
	return err
}
