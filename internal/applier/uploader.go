package applier

import (
	"context"
	"time"

	"go-openclaw-applier/internal/applylog"
	"go-openclaw-applier/internal/driver"
	"go-openclaw-applier/internal/models"
)

type Uploader struct {
	Candidates []driver.Target
	Timeout    time.Duration
	Log        *applylog.Collector
}

// Upload attaches filePath to the first matching file input. It returns
// false with a nil error when no input exists; whether that is fatal is the
// caller's decision. A found input that rejects the file is an upload_error.
func (u *Uploader) Upload(ctx context.Context, q driver.Querier, filePath string) (bool, error) {
	candidates := u.Candidates
	if candidates == nil {
		candidates = FileInputCandidates
	}

	u.Log.Info("Attempting to upload resume")
	input, idx, ok := Locate(ctx, q, candidates, u.Timeout, u.Log)
	if !ok {
		u.Log.Warn("Could not find a resume upload field, attempting to proceed anyway")
		return false, nil
	}

	if err := input.SetFile(ctx, filePath); err != nil {
		u.Log.Warnf("Error uploading with selector %s: %v", candidates[idx].Selector, err)
		return false, models.NewApplyError(models.KindUpload, "failed to attach resume", err)
	}
	u.Log.Infof("Uploaded resume using selector: %s", candidates[idx].Selector)
	return true, nil
}
