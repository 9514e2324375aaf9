package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	limiterMem "github.com/ulule/limiter/v3/drivers/store/memory"

	"fixsession/internal/session/model"
	"fixsession/internal/session/service"
	"fixsession/pkg/fix"
	"fixsession/pkg/metrics"
	"fixsession/pkg/middleware"
	"fixsession/pkg/middleware/api"
	"fixsession/pkg/utils"
)

type StatusHandler struct {
	session service.ISession
}

// NewStatusHandler registers the operator routes of one session on r.
func NewStatusHandler(r *gin.Engine, session service.ISession, limit *limiter.Limiter) {
	handler := StatusHandler{session: session}

	r.Use(middleware.RateLimiter(limit))
	r.GET("/health", handler.Health)
	r.GET("/status", handler.Status)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	group := r.Group("/session", api.BasicAuth())
	group.POST("/send", handler.Send)
	group.POST("/logout", handler.Logout)
}

func NewEngine(session service.ISession) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())

	limit := limiter.New(limiterMem.NewStore(), limiter.Rate{
		Period: time.Second,
		Limit:  20,
	})
	NewStatusHandler(engine, session, limit)
	return engine
}

// Serve runs the status server until ctx is done.
func Serve(ctx context.Context, port string, handler http.Handler) error {
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: handler,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			utils.Logger.Error().Err(err).Msg("status server shutdown")
		}
	}()

	utils.Logger.Info().Str("port", port).Msg("status server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (h *StatusHandler) Health(c *gin.Context) {
	phase := h.session.Phase()
	if phase != model.Active {
		c.JSON(http.StatusServiceUnavailable, gin.H{"phase": phase})
		return
	}
	c.JSON(http.StatusOK, gin.H{"phase": phase})
}

func (h *StatusHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.session.Status())
}

func (h *StatusHandler) Send(c *gin.Context) {
	var req model.SendRequest
	if err := utils.UnmarshalAndValidate(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fields := make([]fix.Field, 0, len(req.Fields))
	for _, f := range req.Fields {
		fields = append(fields, fix.NewField(fix.Tag(f.Tag), f.Value))
	}

	if err := h.session.SendApp(req.MsgType, fields...); err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, h.session.Status())
}

func (h *StatusHandler) Logout(c *gin.Context) {
	var req model.LogoutRequest
	if err := utils.UnmarshalAndValidate(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.session.Logout(req.Text); err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, h.session.Status())
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrNotActive):
		return http.StatusConflict
	case errors.Is(err, service.ErrAdminMsgType), errors.Is(err, fix.ErrInvalidField):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrThrottled):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
