package ledger

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"mangaledger/internal/identity"
	"mangaledger/pkg/database"
)

type Handler struct {
	Repo *Repo
}

func NewHandler(repo *Repo) *Handler {
	return &Handler{Repo: repo}
}

// RegisterRoutes wires the ledger endpoints. The group is expected to
// already carry the session middleware.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/roles", h.listRoles)
	rg.GET("/manga_list", h.listTitles)
	rg.POST("/add", h.recordChapter)
	rg.GET("/chapters", h.listChapters)
}

func (h *Handler) listRoles(c *gin.Context) {
	roles, err := h.Repo.ListRoles(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list roles failed"})
		return
	}

	names := make([]string, 0, len(roles))
	for _, role := range roles {
		names = append(names, role.Name)
	}
	c.JSON(http.StatusOK, names)
}

func (h *Handler) listTitles(c *gin.Context) {
	titles, err := h.Repo.ListTitles(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list titles failed"})
		return
	}

	names := make([]string, 0, len(titles))
	for _, t := range titles {
		names = append(names, t.DisplayName())
	}
	c.JSON(http.StatusOK, names)
}

type recordChapterReq struct {
	Title   string  `json:"title"`
	Role    string  `json:"role"`
	Chapter float64 `json:"chapter"`
}

func (h *Handler) recordChapter(c *gin.Context) {
	claims := identity.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req recordChapterReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.Title == "" || req.Role == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title and role required"})
		return
	}
	if req.Chapter < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "chapter must be >= 0"})
		return
	}

	id, err := h.Repo.RecordChapter(c.Request.Context(), req.Title, req.Role, req.Chapter, claims.ExternalID)
	if err != nil {
		var notFound *NotFoundError
		if errors.As(err, &notFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": notFound.Error()})
			return
		}
		var fkErr *database.ForeignKeyError
		if errors.As(err, &fkErr) {
			c.JSON(http.StatusConflict, gin.H{"error": "record references a missing row"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "record chapter failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "success", "id": id})
}

func (h *Handler) listChapters(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))

	entries, err := h.Repo.ListChapters(c.Request.Context(), page, perPage)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list chapters failed"})
		return
	}
	c.JSON(http.StatusOK, entries)
}
