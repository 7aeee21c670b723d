package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"mangaledger/internal/catalog"
	"mangaledger/internal/identity"
	"mangaledger/internal/ledger"
	"mangaledger/pkg/database"
	"mangaledger/pkg/utils"
)

func main() {
	cfg, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	dbCfg := database.DefaultConfig()
	db := database.MustOpen(dbCfg)
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	router := gin.Default()
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})
	router.Use(cors.Default())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": dbCfg.Path})
	})

	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "db_error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "db": "ok"})
	})

	// Identity
	provider := identity.NewProvider(identity.ProviderConfig{
		AuthBaseURL:  cfg.AuthBaseURL,
		APIEndpoint:  cfg.APIEndpoint,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURI:  cfg.RedirectURI,
		Scope:        cfg.Scope,
		GuildID:      cfg.GuildID,
	})
	tokenSvc := identity.TokenService{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Duration: cfg.JWTDuration,
	}
	identityRepo := identity.NewRepo(db)
	reconciler := identity.NewReconciler(provider, identityRepo, tokenSvc, cfg.RequiredRoleID)
	identityHandler := identity.NewHandler(reconciler, cfg.FrontendURL)
	identityHandler.RegisterRoutes(router)

	// Protected API
	api := router.Group("/api")
	api.Use(identity.AuthMiddleware(tokenSvc, identityRepo))
	identityHandler.RegisterAPIRoutes(api)

	// Ledger
	ledgerRepo := ledger.NewRepo(db)
	ledgerHandler := ledger.NewHandler(ledgerRepo)
	ledgerHandler.RegisterRoutes(api)

	// Catalog sync (also runnable via cmd/sync-catalog)
	importer := catalog.NewImporter(
		catalog.NewClient(cfg.CatalogBaseURL, cfg.CatalogSeed, cfg.CatalogTargetID), db)
	api.POST("/sync", func(c *gin.Context) {
		n, err := importer.Synchronize(c.Request.Context())
		if err != nil {
			if errors.Is(err, catalog.ErrSyncInProgress) {
				c.JSON(http.StatusConflict, gin.H{"error": "sync already running"})
				return
			}
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "success", "titles": n})
	})

	httpSrv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("HTTP API server listening on %s", cfg.ListenAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("shutdown signal received: %s", sig)
	case err := <-errCh:
		log.Printf("server error: %v", err)
	}

	log.Println("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}
	log.Println("server stopped")
}
