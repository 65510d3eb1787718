package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go-openclaw-applier/internal/applylog"
	"go-openclaw-applier/internal/models"
)

func request() models.ApplyRequest {
	return models.ApplyRequest{
		TaskID:     "t-1",
		JobURL:     "https://www.indeed.com/viewjob?jk=1",
		ResumePath: "/app/uploads/cv.pdf",
		Profile: models.ResumeProfile{
			Name:        "Ada",
			ContactInfo: map[string]string{"email": "ada@example.com"},
		},
	}
}

func errorEntries(entries []models.LogEntry) []models.LogEntry {
	var out []models.LogEntry
	for _, e := range entries {
		if e.Level == models.LevelError {
			out = append(out, e)
		}
	}
	return out
}

func TestClient_Apply_Success(t *testing.T) {
	var got ApplyPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/apply", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"logs":[
			{"timestamp":"2024-03-01T10:00:00.000Z","message":"Navigating","level":"info"},
			{"timestamp":"2024-03-01T10:00:01.500000","message":"Could not upload resume","level":"warning"},
			{"timestamp":"garbage","message":"done","level":"shout"}
		]}`))
	}))
	defer srv.Close()

	log := applylog.New(zap.NewNop())
	err := NewClient(srv.URL+"/", time.Second).Apply(context.Background(), request(), log)

	require.NoError(t, err)
	assert.Equal(t, "https://www.indeed.com/viewjob?jk=1", got.JobURL)
	assert.Equal(t, "/app/uploads/cv.pdf", got.ResumePath)
	require.NotNil(t, got.ResumeData)
	assert.Equal(t, "ada@example.com", got.ResumeData.Email())

	var relayed []models.LogEntry
	for _, e := range log.Entries() {
		if e.Level != models.LevelDebug {
			relayed = append(relayed, e)
		}
	}
	require.Len(t, relayed, 3)
	assert.True(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC).Equal(relayed[0].Timestamp))
	assert.Equal(t, models.LevelWarning, relayed[1].Level)
	assert.Equal(t, 500*time.Millisecond, relayed[1].Timestamp.Sub(time.Date(2024, 3, 1, 10, 0, 1, 0, time.UTC)))
	assert.False(t, relayed[2].Timestamp.IsZero())
	assert.Equal(t, models.LevelInfo, relayed[2].Level)
}

func TestClient_Apply_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "browser crashed", http.StatusInternalServerError)
	}))
	defer srv.Close()

	log := applylog.New(zap.NewNop())
	err := NewClient(srv.URL, time.Second).Apply(context.Background(), request(), log)

	require.Error(t, err)
	assert.Equal(t, models.KindRemoteService, models.KindOf(err))
	assert.Equal(t, "remote automation service returned status 500", err.Error())

	errs := errorEntries(log.Entries())
	require.Len(t, errs, 1)
	assert.Equal(t, "Error from automation service: browser crashed", errs[0].Message)
}

func TestClient_Apply_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	log := applylog.New(zap.NewNop())
	err := NewClient(url, time.Second).Apply(context.Background(), request(), log)

	assert.Equal(t, models.KindRemoteService, models.KindOf(err))
	errs := errorEntries(log.Entries())
	require.Len(t, errs, 1)
	assert.True(t, strings.HasPrefix(errs[0].Message, "Error communicating with automation service"))
}

func TestClient_Apply_ReportedFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"logs":[{"timestamp":"2024-03-01T10:00:00Z","message":"Could not find apply button","level":"warning"}]}`))
	}))
	defer srv.Close()

	log := applylog.New(zap.NewNop())
	err := NewClient(srv.URL, time.Second).Apply(context.Background(), request(), log)

	assert.Equal(t, models.KindRemoteService, models.KindOf(err))
	assert.Equal(t, "automation service could not complete the application", err.Error())
	assert.Empty(t, errorEntries(log.Entries()))
}

func TestClient_Health(t *testing.T) {
	var healthy atomic.Bool
	healthy.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/health", r.URL.Path)
		if !healthy.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	assert.NoError(t, c.Health(context.Background()))

	healthy.Store(false)
	assert.Error(t, c.Health(context.Background()))
}

func TestWireEntryRoundTrip(t *testing.T) {
	at := time.Date(2024, 5, 6, 7, 8, 9, 123000000, time.UTC)
	e := NewWireEntry(models.LogEntry{Timestamp: at, Message: "x", Level: models.LevelDebug}).Entry()

	assert.True(t, at.Equal(e.Timestamp))
	assert.Equal(t, models.LevelDebug, e.Level)
}
