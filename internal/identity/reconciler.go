package identity

import (
	"context"
	"fmt"

	"mangaledger/pkg/models"
)

// Reconciler runs the login flow: exchange the code, check guild
// membership, then map the external identity onto a local contributor
// row. Rejection happens before any row is touched.
type Reconciler struct {
	Provider       *Provider
	Repo           *Repo
	Tokens         TokenService
	RequiredRoleID string
}

func NewReconciler(provider *Provider, repo *Repo, tokens TokenService, requiredRoleID string) *Reconciler {
	return &Reconciler{
		Provider:       provider,
		Repo:           repo,
		Tokens:         tokens,
		RequiredRoleID: requiredRoleID,
	}
}

// LoginResult is what the transport layer needs after a successful
// login: who the user is and the credential to hand back.
type LoginResult struct {
	Profile      Profile
	SessionToken string
}

// Login drives one authentication attempt end to end.
//
// Error contract: *ExchangeError when the code exchange fails,
// ErrRejected when the required role is missing (nothing is persisted
// in that case), anything else is a provider or store failure.
func (r *Reconciler) Login(ctx context.Context, code string) (*LoginResult, error) {
	tokens, err := r.Provider.ExchangeCode(ctx, code)
	if err != nil {
		return nil, err
	}

	roles, err := r.Provider.MemberRoles(ctx, tokens.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("member roles: %w", err)
	}
	if !containsRole(roles, r.RequiredRoleID) {
		return nil, ErrRejected
	}

	profile, err := r.Provider.FetchProfile(ctx, tokens.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}

	session, _, err := r.Tokens.Sign(profile.ID, profile.Username)
	if err != nil {
		return nil, fmt.Errorf("mint session: %w", err)
	}

	existing, err := r.Repo.GetByExternalID(ctx, profile.ID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		_, err = r.Repo.Create(ctx, models.Contributor{
			Nickname:             profile.Username,
			ExternalID:           profile.ID,
			ProviderAccessToken:  tokens.AccessToken,
			ProviderRefreshToken: tokens.RefreshToken,
			SessionToken:         session,
		})
	} else {
		err = r.Repo.UpdateTokens(ctx, existing.ID, tokens.AccessToken, tokens.RefreshToken, session)
	}
	if err != nil {
		return nil, err
	}

	return &LoginResult{Profile: profile, SessionToken: session}, nil
}

// ProfileByExternalID refreshes the displayed user data with the
// provider tokens already on file, without re-running the handshake.
func (r *Reconciler) ProfileByExternalID(ctx context.Context, externalID string) (Profile, error) {
	contributor, err := r.Repo.GetByExternalID(ctx, externalID)
	if err != nil {
		return Profile{}, err
	}
	if contributor == nil {
		return Profile{}, fmt.Errorf("contributor %q not found", externalID)
	}
	return r.Provider.FetchProfile(ctx, contributor.ProviderAccessToken)
}

func containsRole(roles []string, want string) bool {
	for _, r := range roles {
		if r == want {
			return true
		}
	}
	return false
}
