package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mangaledger/pkg/database"
	"mangaledger/pkg/models"
)

const (
	testGuildID  = "guild-1"
	requiredRole = "role-dit"
)

// fakeProvider serves the three Discord endpoints the reconciler
// consumes. Set grantRole to control the membership check.
func fakeProvider(t *testing.T, grantRole bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("token exchange method = %s, want POST", r.Method)
		}
		if user, pass, ok := r.BasicAuth(); !ok || user != "client-id" || pass != "client-secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if err := r.ParseForm(); err != nil || r.PostForm.Get("grant_type") != "authorization_code" {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error": "invalid_request"}`)
			return
		}
		if r.PostForm.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error": "invalid_grant"}`)
			return
		}
		fmt.Fprint(w, `{"access_token": "new-access", "refresh_token": "new-refresh"}`)
	})

	mux.HandleFunc("/users/@me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer new-access" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `{"username": "alice", "id": "111", "avatar": "abc"}`)
	})

	mux.HandleFunc("/users/@me/guilds/"+testGuildID+"/member", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer new-access" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if grantRole {
			fmt.Fprintf(w, `{"roles": ["other", %q]}`, requiredRole)
			return
		}
		fmt.Fprint(w, `{"roles": ["other"]}`)
	})

	return httptest.NewServer(mux)
}

func newTestReconciler(t *testing.T, providerURL string) (*Reconciler, *sql.DB) {
	t.Helper()
	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("Open(): %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("Migrate(): %v", err)
	}

	provider := NewProvider(ProviderConfig{
		AuthBaseURL:  providerURL + "/authorize",
		APIEndpoint:  providerURL,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "http://localhost/oauth/callback",
		Scope:        "identify guilds.members.read",
		GuildID:      testGuildID,
	})
	tokens := TokenService{Secret: []byte("test-secret"), Issuer: "test", Duration: time.Hour}
	return NewReconciler(provider, NewRepo(db), tokens, requiredRole), db
}

func TestLogin_CreatesContributor(t *testing.T) {
	srv := fakeProvider(t, true)
	defer srv.Close()
	r, db := newTestReconciler(t, srv.URL)

	result, err := r.Login(context.Background(), "good-code")
	if err != nil {
		t.Fatalf("Login(): %v", err)
	}
	if result.Profile.Username != "alice" || result.Profile.ID != "111" {
		t.Fatalf("profile = %+v", result.Profile)
	}
	if result.SessionToken == "" {
		t.Fatal("Login() returned empty session token")
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM contributors`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("contributors = %d, want 1", count)
	}

	stored, err := r.Repo.GetByExternalID(context.Background(), "111")
	if err != nil {
		t.Fatalf("GetByExternalID(): %v", err)
	}
	if stored.ProviderAccessToken != "new-access" || stored.ProviderRefreshToken != "new-refresh" {
		t.Fatalf("stored tokens = (%q, %q)", stored.ProviderAccessToken, stored.ProviderRefreshToken)
	}
	if stored.SessionToken != result.SessionToken {
		t.Fatal("stored session token differs from the returned one")
	}
}

func TestLogin_ReplacesTokensAndMintsFreshCredential(t *testing.T) {
	srv := fakeProvider(t, true)
	defer srv.Close()
	r, _ := newTestReconciler(t, srv.URL)

	first, err := r.Login(context.Background(), "good-code")
	if err != nil {
		t.Fatalf("first Login(): %v", err)
	}
	second, err := r.Login(context.Background(), "good-code")
	if err != nil {
		t.Fatalf("second Login(): %v", err)
	}
	if first.SessionToken == second.SessionToken {
		t.Fatal("second login reused the previous session credential")
	}

	stored, err := r.Repo.GetByExternalID(context.Background(), "111")
	if err != nil {
		t.Fatalf("GetByExternalID(): %v", err)
	}
	if stored.SessionToken != second.SessionToken {
		t.Fatal("stored credential is not the latest one")
	}
}

func TestLogin_RejectedWithoutRequiredRole(t *testing.T) {
	srv := fakeProvider(t, false)
	defer srv.Close()
	r, db := newTestReconciler(t, srv.URL)

	// pre-existing contributor with stale tokens must stay untouched
	if _, err := r.Repo.Create(context.Background(), models.Contributor{
		Nickname:             "alice",
		ExternalID:           "111",
		ProviderAccessToken:  "stale-access",
		ProviderRefreshToken: "stale-refresh",
		SessionToken:         "stale-session",
	}); err != nil {
		t.Fatalf("seed contributor: %v", err)
	}

	_, err := r.Login(context.Background(), "good-code")
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("Login() error = %v, want ErrRejected", err)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM contributors`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("contributors = %d, want 1", count)
	}

	stored, err := r.Repo.GetByExternalID(context.Background(), "111")
	if err != nil {
		t.Fatalf("GetByExternalID(): %v", err)
	}
	if stored.ProviderAccessToken != "stale-access" || stored.SessionToken != "stale-session" {
		t.Fatalf("rejected login mutated the row: %+v", stored)
	}
}

func TestLogin_BadCodeIsExchangeError(t *testing.T) {
	srv := fakeProvider(t, true)
	defer srv.Close()
	r, db := newTestReconciler(t, srv.URL)

	_, err := r.Login(context.Background(), "bad-code")
	var exchangeErr *ExchangeError
	if !errors.As(err, &exchangeErr) {
		t.Fatalf("Login() error = %v, want *ExchangeError", err)
	}
	if errors.Is(err, ErrRejected) {
		t.Fatal("exchange failure must not look like a membership rejection")
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM contributors`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("contributors = %d, want 0", count)
	}
}

func TestFetchProfile_InvalidToken(t *testing.T) {
	srv := fakeProvider(t, true)
	defer srv.Close()
	r, _ := newTestReconciler(t, srv.URL)

	_, err := r.Provider.FetchProfile(context.Background(), "wrong-token")
	var invalid *InvalidTokenError
	if !errors.As(err, &invalid) {
		t.Fatalf("FetchProfile() error = %v, want *InvalidTokenError", err)
	}
}

func TestAuthorizeURL(t *testing.T) {
	srv := fakeProvider(t, true)
	defer srv.Close()
	r, _ := newTestReconciler(t, srv.URL)

	u := r.Provider.AuthorizeURL()
	for _, want := range []string{"client_id=client-id", "response_type=code", "scope="} {
		if !strings.Contains(u, want) {
			t.Fatalf("AuthorizeURL() = %q, missing %q", u, want)
		}
	}
}
