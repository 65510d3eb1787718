// Package remote delegates apply runs to an automation service over HTTP.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go-openclaw-applier/internal/applylog"
	"go-openclaw-applier/internal/models"
)

const DefaultBaseURL = "http://localhost:3001"

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// ApplyPayload is the body of POST /api/apply.
type ApplyPayload struct {
	JobURL     string                `json:"jobUrl"`
	ResumePath string                `json:"resumePath"`
	ResumeData *models.ResumeProfile `json:"resumeData"`
}

// ApplyResult is the response of POST /api/apply.
type ApplyResult struct {
	Success bool        `json:"success"`
	Logs    []WireEntry `json:"logs"`
	Error   string      `json:"error,omitempty"`
}

// WireEntry is a log entry as sent over the wire. Timestamps are kept as
// text because services disagree on the exact ISO-8601 flavour.
type WireEntry struct {
	Timestamp string          `json:"timestamp"`
	Message   string          `json:"message"`
	Level     models.LogLevel `json:"level"`
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// Entry converts a wire entry; an unparseable timestamp is left zero so the
// collector stamps it on arrival.
func (w WireEntry) Entry() models.LogEntry {
	entry := models.LogEntry{Message: w.Message, Level: w.Level}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, w.Timestamp); err == nil {
			entry.Timestamp = ts
			break
		}
	}
	switch entry.Level {
	case models.LevelDebug, models.LevelInfo, models.LevelWarning, models.LevelError:
	case "warn":
		entry.Level = models.LevelWarning
	default:
		entry.Level = models.LevelInfo
	}
	return entry
}

func NewWireEntry(e models.LogEntry) WireEntry {
	return WireEntry{
		Timestamp: e.Timestamp.UTC().Format(time.RFC3339Nano),
		Message:   e.Message,
		Level:     e.Level,
	}
}

// Apply posts the request and relays the service's log entries into log.
// A non-2xx status or transport failure adds exactly one error entry and
// returns a remote_service_error.
func (c *Client) Apply(ctx context.Context, req models.ApplyRequest, log *applylog.Collector) error {
	profile := req.Profile
	jsonData, err := json.Marshal(ApplyPayload{
		JobURL:     req.JobURL,
		ResumePath: req.ResumePath,
		ResumeData: &profile,
	})
	if err != nil {
		return models.NewApplyError(models.KindUnknown, "failed to encode apply request", err)
	}

	url := c.baseURL + "/api/apply"
	log.Debugf("Sending request to automation service: %s", url)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return models.NewApplyError(models.KindRemoteService, "invalid automation service url", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		log.Errorf("Error communicating with automation service: %v", err)
		return models.NewApplyError(models.KindRemoteService, "automation service unreachable", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Errorf("Error communicating with automation service: %v", err)
		return models.NewApplyError(models.KindRemoteService, "failed to read automation service response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text := strings.TrimSpace(string(body))
		log.Errorf("Error from automation service: %s", text)
		return &models.ApplyError{
			Kind:    models.KindRemoteService,
			Message: fmt.Sprintf("remote automation service returned status %d", resp.StatusCode),
			Detail:  text,
		}
	}

	var result ApplyResult
	if err := json.Unmarshal(body, &result); err != nil {
		log.Errorf("Error communicating with automation service: %v", err)
		return models.NewApplyError(models.KindRemoteService, "malformed automation service response", err)
	}

	for _, w := range result.Logs {
		log.Append(w.Entry())
	}

	if !result.Success {
		return models.NewApplyError(models.KindRemoteService, "automation service could not complete the application", nil)
	}
	return nil
}

// Health reports whether GET /api/health answers 200.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("automation service unhealthy: status %d", resp.StatusCode)
	}
	return nil
}
