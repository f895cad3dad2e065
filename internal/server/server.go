package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/toko-tani/assistant/internal/agent/graph/prompts"
	"github.com/toko-tani/assistant/internal/agent/model"
	errx "github.com/toko-tani/assistant/internal/core/error"
	"github.com/toko-tani/assistant/internal/session"
	logx "github.com/toko-tani/assistant/pkg/logger"
)

// Sessions is the session behaviour the HTTP surface depends on.
type Sessions interface {
	Create(ctx context.Context) (session.Session, error)
	Get(id string) (session.Session, error)
	Send(ctx context.Context, id, text string) (string, session.Session, error)
	ShopInfo(ctx context.Context, id string) (string, session.Session, error)
	History(ctx context.Context, id string) ([]model.Turn, error)
	MessageCount(ctx context.Context, id string) (int, error)
	End(ctx context.Context, id string) error
	Len() int
}

// Handler serves the chat surface. One POST is one exchange.
type Handler struct {
	sessions    Sessions
	profile     model.ShopProfile
	catalogOK   bool
	productsNum int
}

// ShopStatus describes how the shop context was built at start-up.
type ShopStatus struct {
	CatalogAvailable bool
	Products         int
}

func NewHandler(sessions Sessions, profile model.ShopProfile, status ShopStatus) *Handler {
	return &Handler{sessions: sessions, profile: profile, catalogOK: status.CatalogAvailable, productsNum: status.Products}
}

type sendMessageRequest struct {
	Text string `json:"text" binding:"required"`
}

type sessionResponse struct {
	session.Session
	MessageCount int `json:"message_count"`
}

type turnResponse struct {
	Role      model.Role `json:"role"`
	Text      string     `json:"text"`
	CreatedAt time.Time  `json:"created_at"`
}

// NewRouter wires middleware and routes.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggingMiddleware())
	r.Use(cors.Default())

	r.GET("/health", h.Health)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/shop", h.Shop)

		sessions := v1.Group("/sessions")
		{
			sessions.POST("", h.CreateSession)
			sessions.GET("/:id", h.GetSession)
			sessions.DELETE("/:id", h.EndSession)
			sessions.GET("/:id/messages", h.ListMessages)
			sessions.POST("/:id/messages", h.SendMessage)
			sessions.POST("/:id/shop-info", h.ShopInfo)
		}
	}
	return r
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":            "healthy",
		"catalog_available": h.catalogOK,
		"live_sessions":     h.sessions.Len(),
	})
}

func (h *Handler) Shop(c *gin.Context) {
	greeting, err := prompts.RenderGreeting(c.Request.Context(), h.profile)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"profile":           h.profile,
		"greeting":          greeting,
		"shop_info_prompt":  prompts.ShopInfoPrompt(),
		"catalog_available": h.catalogOK,
		"products":          h.productsNum,
	})
}

func (h *Handler) CreateSession(c *gin.Context) {
	s, err := h.sessions.Create(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, s)
}

func (h *Handler) GetSession(c *gin.Context) {
	id := c.Param("id")
	s, err := h.sessions.Get(id)
	if err != nil {
		writeError(c, err)
		return
	}
	n, err := h.sessions.MessageCount(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse{Session: s, MessageCount: n})
}

func (h *Handler) EndSession(c *gin.Context) {
	if err := h.sessions.End(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListMessages(c *gin.Context) {
	id := c.Param("id")
	turns, err := h.sessions.History(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	s, err := h.sessions.Get(id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session_id": id,
		"state":      s.State,
		"messages":   toTurnResponses(turns),
	})
}

func (h *Handler) SendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errx.BadRequest("invalid request body: %v", err))
		return
	}
	reply, s, err := h.sessions.Send(c.Request.Context(), c.Param("id"), req.Text)
	h.writeExchange(c, reply, s, err)
}

func (h *Handler) ShopInfo(c *gin.Context) {
	reply, s, err := h.sessions.ShopInfo(c.Request.Context(), c.Param("id"))
	h.writeExchange(c, reply, s, err)
}

func (h *Handler) writeExchange(c *gin.Context, reply string, s session.Session, err error) {
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session_id": s.ID,
		"state":      s.State,
		"reply":      reply,
	})
}

func toTurnResponses(turns []model.Turn) []turnResponse {
	out := make([]turnResponse, 0, len(turns))
	for _, t := range turns {
		out = append(out, turnResponse{Role: t.Role, Text: t.Text, CreatedAt: t.CreatedAt})
	}
	return out
}

// writeError renders err with the status it carries. Unclassified errors
// are logged and hidden behind the generic message.
func writeError(c *gin.Context, err error) {
	status := errx.StatusOf(err)
	msg := errx.SystemErrorMessage
	var appErr *errx.Error
	if errors.As(err, &appErr) {
		msg = appErr.Error()
	}
	if status >= http.StatusInternalServerError {
		logx.Error().Err(err).Str("path", c.Request.URL.Path).Int("status", status).Msg("request failed")
	}
	body := gin.H{"error": msg}
	if appErr != nil {
		body["kind"] = appErr.Kind
	}
	c.AbortWithStatusJSON(status, body)
}

// LoggingMiddleware logs one line per request through zerolog.
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/health") {
			return
		}
		logx.Info().
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("http request")
	}
}
