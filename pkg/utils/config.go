package utils

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is everything the binaries read from the environment. A .env
// file in the working directory is loaded first when present.
type Config struct {
	ListenAddr  string
	FrontendURL string

	// Discord OAuth
	AuthBaseURL    string
	APIEndpoint    string
	ClientID       string
	ClientSecret   string
	RedirectURI    string
	Scope          string
	GuildID        string
	RequiredRoleID string

	// local session credential
	JWTSecret   string
	JWTIssuer   string
	JWTDuration time.Duration

	// remote catalog
	CatalogBaseURL  string
	CatalogSeed     string
	CatalogTargetID int64
}

func LoadConfig() (*Config, error) {
	// optional; real deployments set vars directly
	_ = godotenv.Load()

	cfg := &Config{
		ListenAddr:      getenv("LEDGER_LISTEN_ADDR", ":8080"),
		FrontendURL:     getenv("LEDGER_FRONTEND_URL", "http://localhost:3000"),
		AuthBaseURL:     getenv("DISCORD_AUTH_URL", "https://discord.com/oauth2/authorize"),
		APIEndpoint:     getenv("DISCORD_API_ENDPOINT", "https://discord.com/api/v10"),
		ClientID:        os.Getenv("DISCORD_CLIENT_ID"),
		ClientSecret:    os.Getenv("DISCORD_CLIENT_SECRET"),
		RedirectURI:     os.Getenv("DISCORD_REDIRECT_URI"),
		Scope:           getenv("DISCORD_SCOPE", "identify guilds.members.read"),
		GuildID:         os.Getenv("DISCORD_GUILD_ID"),
		RequiredRoleID:  os.Getenv("DISCORD_REQUIRED_ROLE_ID"),
		JWTSecret:       os.Getenv("LEDGER_JWT_SECRET"),
		JWTIssuer:       getenv("LEDGER_JWT_ISSUER", "mangaledger"),
		JWTDuration:     24 * time.Hour,
		CatalogBaseURL:  getenv("CATALOG_BASE_URL", "https://api.mangalib.me/api/manga"),
		CatalogSeed:     os.Getenv("CATALOG_SEED"),
		CatalogTargetID: 0,
	}

	if cfg.JWTSecret == "" {
		// dev default (change for production)
		cfg.JWTSecret = "dev-secret-change-me"
	}

	if ttl := os.Getenv("LEDGER_JWT_TTL_HOURS"); ttl != "" {
		if h, err := strconv.Atoi(ttl); err == nil && h > 0 {
			cfg.JWTDuration = time.Duration(h) * time.Hour
		}
	}

	if target := os.Getenv("CATALOG_TARGET_ID"); target != "" {
		id, err := strconv.ParseInt(target, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse CATALOG_TARGET_ID: %w", err)
		}
		cfg.CatalogTargetID = id
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
