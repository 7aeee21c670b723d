package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Provider talks to the Discord HTTP API. Only three calls are
// consumed: the oauth2 token exchange, the current-user profile and
// the guild member object (for its role list).
type Provider struct {
	AuthBaseURL string
	APIEndpoint string
	HTTPClient  *http.Client

	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scope        string
	GuildID      string
}

type ProviderConfig struct {
	AuthBaseURL  string
	APIEndpoint  string
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scope        string
	GuildID      string
}

func NewProvider(cfg ProviderConfig) *Provider {
	return &Provider{
		AuthBaseURL:  cfg.AuthBaseURL,
		APIEndpoint:  strings.TrimRight(cfg.APIEndpoint, "/"),
		HTTPClient:   &http.Client{Timeout: 10 * time.Second},
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURI:  cfg.RedirectURI,
		Scope:        cfg.Scope,
		GuildID:      cfg.GuildID,
	}
}

// Tokens is the useful part of the oauth2/token response.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Profile is the public identity of a Discord user.
type Profile struct {
	Username string `json:"username"`
	ID       string `json:"id"`
	Avatar   string `json:"avatar"`
}

// AuthorizeURL builds the provider login link the frontend redirects
// users to.
func (p *Provider) AuthorizeURL() string {
	q := url.Values{}
	q.Set("client_id", p.ClientID)
	q.Set("response_type", "code")
	q.Set("redirect_uri", p.RedirectURI)
	q.Set("scope", p.Scope)
	return p.AuthBaseURL + "?" + q.Encode()
}

// ExchangeCode trades a one-time authorization code for an access and
// refresh token. The request is authenticated with our own client
// credentials via HTTP basic auth.
func (p *Provider) ExchangeCode(ctx context.Context, code string) (Tokens, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", p.RedirectURI)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.APIEndpoint+"/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return Tokens{}, &ExchangeError{Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(p.ClientID, p.ClientSecret)

	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		return Tokens{}, &ExchangeError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Tokens{}, &ExchangeError{Status: resp.StatusCode, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return Tokens{}, &ExchangeError{
			Status: resp.StatusCode,
			Err:    fmt.Errorf("token endpoint: %s", strings.TrimSpace(string(body))),
		}
	}

	var tokens Tokens
	if err := json.Unmarshal(body, &tokens); err != nil {
		return Tokens{}, &ExchangeError{Status: resp.StatusCode, Err: fmt.Errorf("decode tokens: %w", err)}
	}
	if tokens.AccessToken == "" {
		return Tokens{}, &ExchangeError{Status: resp.StatusCode, Err: fmt.Errorf("token endpoint returned no access_token")}
	}
	return tokens, nil
}

// FetchProfile returns the profile behind an access token. A rejected
// token surfaces as *InvalidTokenError, never as an empty profile.
func (p *Provider) FetchProfile(ctx context.Context, accessToken string) (Profile, error) {
	body, status, err := p.get(ctx, "/users/@me", accessToken)
	if err != nil {
		return Profile{}, err
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return Profile{}, &InvalidTokenError{Status: status}
	}
	if status != http.StatusOK {
		return Profile{}, fmt.Errorf("fetch profile: status %d: %s", status, strings.TrimSpace(string(body)))
	}

	var profile Profile
	if err := json.Unmarshal(body, &profile); err != nil {
		return Profile{}, fmt.Errorf("decode profile: %w", err)
	}
	if profile.ID == "" {
		return Profile{}, fmt.Errorf("decode profile: missing id")
	}
	return profile, nil
}

// MemberRoles returns the role ids the token's user holds inside the
// configured guild.
func (p *Provider) MemberRoles(ctx context.Context, accessToken string) ([]string, error) {
	body, status, err := p.get(ctx, "/users/@me/guilds/"+p.GuildID+"/member", accessToken)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return nil, &InvalidTokenError{Status: status}
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("fetch member roles: status %d: %s", status, strings.TrimSpace(string(body)))
	}

	var member struct {
		Roles []string `json:"roles"`
	}
	if err := json.Unmarshal(body, &member); err != nil {
		return nil, fmt.Errorf("decode member: %w", err)
	}
	return member.Roles, nil
}

func (p *Provider) get(ctx context.Context, path, accessToken string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.APIEndpoint+path, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read %s: %w", path, err)
	}
	return body, resp.StatusCode, nil
}
