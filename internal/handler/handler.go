package handler

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"eduscan/internal/attendance"
	"eduscan/internal/auth"
	"eduscan/internal/badge"
	"eduscan/internal/directory"
	"eduscan/internal/entrance"
	"eduscan/internal/httpmiddleware"
)

// Options configures the HTTP surface.
type Options struct {
	Issuer          *auth.Issuer
	RequireToken    bool
	RateLimitPerMin int
	// Uploader publishes badges; nil disables POST /v1/students/:id/badge.
	Uploader badge.Uploader
	// Checks feed /healthz, keyed by component name.
	Checks map[string]func(context.Context) bool
}

// Handler exposes a Controller over HTTP.
type Handler struct {
	ctrl *entrance.Controller
	opts Options
}

// New creates a handler.
func New(ctrl *entrance.Controller, opts Options) *Handler {
	return &Handler{ctrl: ctrl, opts: opts}
}

// Router builds the gin engine with middleware and every route.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:          24 * time.Hour,
	}))
	r.Use(httpmiddleware.SecurityHeaders())
	r.Use(httpmiddleware.NewLimiter(h.opts.RateLimitPerMin, h.opts.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", h.health)
	r.POST("/v1/devices/register", h.registerDevice)

	v1 := r.Group("/v1")
	if h.opts.RequireToken {
		v1.Use(auth.DeviceAuth(h.opts.Issuer))
	}
	v1.POST("/scans", h.scan)
	v1.GET("/students", h.listStudents)
	v1.POST("/students", h.enroll)
	v1.DELETE("/students/:id", h.removeStudent)
	v1.GET("/students/:id/badge", h.badgePNG)
	v1.POST("/students/:id/badge", h.publishBadge)
	v1.GET("/ledger", h.ledger)
	v1.GET("/ledger/:date", h.ledger)
	v1.DELETE("/ledger/:date", h.purge)
	v1.GET("/dates", h.dates)
	v1.GET("/reports", h.reports)
	v1.POST("/day/close", h.closeDay)
	v1.POST("/day/reset", h.resetDay)
	v1.POST("/records/:id/resend", h.resend)
	v1.GET("/events", h.events)
	return r
}

func (h *Handler) health(c *gin.Context) {
	status := http.StatusOK
	body := gin.H{"status": "ok"}
	for name, check := range h.opts.Checks {
		ok := check(c.Request.Context())
		body[name] = ok
		if !ok {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
		}
	}
	c.JSON(status, body)
}

func (h *Handler) registerDevice(c *gin.Context) {
	var req struct {
		DeviceID string `json:"deviceId" binding:"required"`
		Label    string `json:"label"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if h.opts.Issuer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "device tokens not configured"})
		return
	}
	tok, err := h.opts.Issuer.Issue(req.DeviceID, req.Label)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}
	log.Printf("device %s registered", req.DeviceID)
	c.JSON(http.StatusCreated, tok)
}

func (h *Handler) scan(c *gin.Context) {
	var req struct {
		Payload string `json:"payload"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.ctrl.Scan(c.Request.Context(), req.Payload)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) listStudents(c *gin.Context) {
	students, err := h.ctrl.Students(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"students": students})
}

func (h *Handler) enroll(c *gin.Context) {
	var s directory.Student
	if err := c.ShouldBindJSON(&s); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	saved, err := h.ctrl.Enroll(c.Request.Context(), s)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, saved)
}

func (h *Handler) removeStudent(c *gin.Context) {
	if err := h.ctrl.Remove(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) badgePNG(c *gin.Context) {
	s, err := h.ctrl.Student(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	png, err := badge.PNG(s, badge.DefaultSize)
	if err != nil {
		fail(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

func (h *Handler) publishBadge(c *gin.Context) {
	if h.opts.Uploader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "image storage not configured"})
		return
	}
	s, err := h.ctrl.Student(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	url, err := badge.Publish(c.Request.Context(), h.opts.Uploader, s)
	if err != nil {
		log.Printf("badge upload for %s failed: %v", s.ID, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "badge upload failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": s.ID, "url": url})
}

func dateParam(c *gin.Context) (string, bool) {
	date := c.Param("date")
	if date != "" {
		if _, err := time.Parse(attendance.DateLayout, date); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return "", false
		}
	}
	return date, true
}

func (h *Handler) ledger(c *gin.Context) {
	date, ok := dateParam(c)
	if !ok {
		return
	}
	view, err := h.ctrl.Ledger(c.Request.Context(), date)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) purge(c *gin.Context) {
	date, ok := dateParam(c)
	if !ok {
		return
	}
	if err := h.ctrl.Purge(c.Request.Context(), date); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) dates(c *gin.Context) {
	dates, err := h.ctrl.Dates(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dates": dates})
}

func (h *Handler) reports(c *gin.Context) {
	view, err := h.ctrl.Reports(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) closeDay(c *gin.Context) {
	res, err := h.ctrl.CloseDay(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) resetDay(c *gin.Context) {
	counts, err := h.ctrl.ResetDay(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": h.ctrl.Today(), "counts": counts})
}

func (h *Handler) resend(c *gin.Context) {
	del, err := h.ctrl.Resend(c.Request.Context(), c.Param("id"))
	if err != nil && del == nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, del)
}

func (h *Handler) events(c *gin.Context) {
	ch := make(chan entrance.Event, 32)
	cancel := h.ctrl.Subscribe(func(e entrance.Event) {
		select {
		case ch <- e:
		default:
		}
	})
	defer cancel()

	c.Stream(func(w io.Writer) bool {
		select {
		case e := <-ch:
			c.SSEvent(string(e.Type), e)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, entrance.ErrStudentNotFound), errors.Is(err, attendance.ErrNoRecord):
		status = http.StatusNotFound
	case errors.Is(err, directory.ErrDuplicate), errors.Is(err, entrance.ErrStillPending), errors.Is(err, entrance.ErrPurgeToday):
		status = http.StatusConflict
	case errors.Is(err, directory.ErrInvalid):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		log.Printf("request %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
