package identity

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Reconciler  *Reconciler
	FrontendURL string
}

func NewHandler(reconciler *Reconciler, frontendURL string) *Handler {
	return &Handler{Reconciler: reconciler, FrontendURL: frontendURL}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/login/discord", h.loginRedirect)
	r.GET("/oauth/callback", h.oauthCallback)
}

func (h *Handler) RegisterAPIRoutes(rg *gin.RouterGroup) {
	rg.GET("/user_data", h.userData)
}

func (h *Handler) loginRedirect(c *gin.Context) {
	c.Redirect(http.StatusFound, h.Reconciler.Provider.AuthorizeURL())
}

func (h *Handler) oauthCallback(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		c.Redirect(http.StatusFound, h.frontend(url.Values{"error": {"missing_code"}}))
		return
	}

	result, err := h.Reconciler.Login(c.Request.Context(), code)
	switch {
	case err == nil:
		c.Redirect(http.StatusFound, h.frontend(url.Values{"access_token": {result.SessionToken}}))
	case errors.Is(err, ErrRejected):
		c.Redirect(http.StatusFound, h.frontend(url.Values{"error": {"membership_required"}}))
	default:
		var exchangeErr *ExchangeError
		if errors.As(err, &exchangeErr) {
			c.Redirect(http.StatusFound, h.frontend(url.Values{"error": {"exchange_failed"}}))
			return
		}
		c.Redirect(http.StatusFound, h.frontend(url.Values{"error": {"login_failed"}}))
	}
}

func (h *Handler) userData(c *gin.Context) {
	claims := MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	profile, err := h.Reconciler.ProfileByExternalID(c.Request.Context(), claims.ExternalID)
	if err != nil {
		var invalid *InvalidTokenError
		if errors.As(err, &invalid) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "provider token expired, log in again"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "profile fetch failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"username": profile.Username,
		"user_id":  profile.ID,
		"avatar":   profile.Avatar,
	})
}

func (h *Handler) frontend(q url.Values) string {
	return h.FrontendURL + "/?" + q.Encode()
}
