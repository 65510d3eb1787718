package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"go-openclaw-applier/internal/database"
	"go-openclaw-applier/internal/models"
	"go-openclaw-applier/internal/orchestrator"
)

// Scheduler starts and restarts apply runs. *orchestrator.Orchestrator
// satisfies it.
type Scheduler interface {
	Submit(ctx context.Context, taskID string) error
	Retry(ctx context.Context, taskID string) (*models.ApplicationTask, error)
}

type TaskHandler struct {
	store     database.Store
	scheduler Scheduler
	logger    *zap.Logger
	now       func() time.Time
}

func NewTaskHandler(store database.Store, scheduler Scheduler, logger *zap.Logger) *TaskHandler {
	if logger == nil {
		logger = zap.L()
	}
	return &TaskHandler{store: store, scheduler: scheduler, logger: logger, now: time.Now}
}

// NewTaskRouter mounts the task API under /api/applications.
func NewTaskRouter(h *TaskHandler) *gin.Engine {
	r := newEngine(h.logger)
	r.GET("/health", handleHealth)

	api := r.Group("/api/applications")
	{
		api.POST("", h.create)
		api.GET("/:id", h.get)
		api.GET("/:id/logs", h.logs)
		api.POST("/:id/retry", h.retry)
		api.DELETE("/:id", h.remove)
	}
	return r
}

type createRequest struct {
	JobURL string           `json:"job_url"`
	Resume models.ResumeRef `json:"resume"`
}

func validJobURL(raw string) bool {
	u, err := url.ParseRequestURI(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func (h *TaskHandler) create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "INVALID_INPUT", "request body must be JSON")
		return
	}
	if !validJobURL(req.JobURL) {
		errorJSON(c, http.StatusBadRequest, "INVALID_INPUT", "job_url must be an http(s) URL")
		return
	}
	if strings.TrimSpace(req.Resume.FilePath) == "" {
		errorJSON(c, http.StatusBadRequest, "INVALID_INPUT", "resume.file_path is required")
		return
	}

	task := models.NewApplicationTask(uuid.NewString(), strings.TrimSpace(req.JobURL), req.Resume, h.now())
	ctx := c.Request.Context()
	if err := h.store.Create(ctx, task); err != nil {
		h.logger.Error("create application", zap.Error(err))
		errorJSON(c, http.StatusInternalServerError, "INTERNAL_ERROR", "could not store application")
		return
	}
	if err := h.scheduler.Submit(ctx, task.ID); err != nil {
		h.logger.Error("dispatch application", zap.String("task_id", task.ID), zap.Error(err))
		errorJSON(c, http.StatusInternalServerError, "DISPATCH_FAILED", "application stored but could not be started")
		return
	}

	h.logger.Info("application accepted", zap.String("task_id", task.ID), zap.String("job_url", task.JobURL))
	c.JSON(http.StatusAccepted, task)
}

func (h *TaskHandler) load(c *gin.Context) (*models.ApplicationTask, bool) {
	task, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, database.ErrNotFound) {
		errorJSON(c, http.StatusNotFound, "NOT_FOUND", "application not found")
		return nil, false
	}
	if err != nil {
		h.logger.Error("load application", zap.String("task_id", c.Param("id")), zap.Error(err))
		errorJSON(c, http.StatusInternalServerError, "INTERNAL_ERROR", "could not load application")
		return nil, false
	}
	return task, true
}

func (h *TaskHandler) get(c *gin.Context) {
	if task, ok := h.load(c); ok {
		c.JSON(http.StatusOK, task)
	}
}

func (h *TaskHandler) logs(c *gin.Context) {
	task, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": task.ID, "status": task.Status, "logs": task.Logs})
}

func (h *TaskHandler) retry(c *gin.Context) {
	task, err := h.scheduler.Retry(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, database.ErrNotFound):
		errorJSON(c, http.StatusNotFound, "NOT_FOUND", "application not found")
	case errors.Is(err, models.ErrNotRetryable):
		errorJSON(c, http.StatusBadRequest, "NOT_RETRYABLE", "only failed applications can be retried")
	case errors.Is(err, orchestrator.ErrAlreadyDispatched):
		// the previous run still holds its slot; the task stays failed
		errorJSON(c, http.StatusConflict, "ALREADY_RUNNING", "application is still finishing, try again")
	case err != nil && task != nil:
		h.logger.Error("dispatch retry", zap.String("task_id", task.ID), zap.Error(err))
		errorJSON(c, http.StatusInternalServerError, "DISPATCH_FAILED", "application could not be restarted")
	case err != nil:
		h.logger.Error("retry application", zap.String("task_id", c.Param("id")), zap.Error(err))
		errorJSON(c, http.StatusInternalServerError, "INTERNAL_ERROR", "could not retry application")
	default:
		c.JSON(http.StatusOK, task)
	}
}

func (h *TaskHandler) remove(c *gin.Context) {
	err := h.store.Delete(c.Request.Context(), c.Param("id"))
	if errors.Is(err, database.ErrNotFound) {
		errorJSON(c, http.StatusNotFound, "NOT_FOUND", "application not found")
		return
	}
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, "INTERNAL_ERROR", "could not delete application")
		return
	}
	c.Status(http.StatusNoContent)
}
