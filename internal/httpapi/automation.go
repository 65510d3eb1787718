package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"go-openclaw-applier/internal/applylog"
	"go-openclaw-applier/internal/models"
	"go-openclaw-applier/internal/remote"
)

// Applier runs one apply attempt. *applier.Flow satisfies it.
type Applier interface {
	Apply(ctx context.Context, req models.ApplyRequest, log *applylog.Collector) error
}

// AutomationHandler serves the wire format that remote.Client speaks.
type AutomationHandler struct {
	applier Applier
	logger  *zap.Logger
}

func NewAutomationHandler(a Applier, logger *zap.Logger) *AutomationHandler {
	if logger == nil {
		logger = zap.L()
	}
	return &AutomationHandler{applier: a, logger: logger}
}

func NewAutomationRouter(h *AutomationHandler) *gin.Engine {
	r := newEngine(h.logger)
	r.POST("/api/apply", h.apply)
	r.GET("/api/health", handleHealth)
	return r
}

func (h *AutomationHandler) apply(c *gin.Context) {
	var payload remote.ApplyPayload
	if err := c.ShouldBindJSON(&payload); err != nil ||
		strings.TrimSpace(payload.JobURL) == "" ||
		strings.TrimSpace(payload.ResumePath) == "" ||
		payload.ResumeData == nil {
		c.JSON(http.StatusBadRequest, remote.ApplyResult{Error: "Missing required parameters", Logs: []remote.WireEntry{}})
		return
	}

	runID := uuid.NewString()
	stream := h.logger.With(zap.String("run_id", runID))
	stream.Info("received application request",
		zap.String("job_url", payload.JobURL),
		zap.String("resume_path", payload.ResumePath),
	)

	log := applylog.New(stream)
	err := h.applier.Apply(c.Request.Context(), models.ApplyRequest{
		TaskID:     runID,
		JobURL:     payload.JobURL,
		ResumePath: payload.ResumePath,
		Profile:    payload.ResumeData.Clone(),
	}, log)

	result := remote.ApplyResult{Success: err == nil}
	if err != nil {
		log.Errorf("Error applying to job: %v", err)
		result.Error = err.Error()
	}
	entries := log.Entries()
	result.Logs = make([]remote.WireEntry, 0, len(entries))
	for _, e := range entries {
		result.Logs = append(result.Logs, remote.NewWireEntry(e))
	}
	c.JSON(http.StatusOK, result)
}
