package applier

import (
	"context"
	"fmt"
	"time"

	"go-openclaw-applier/internal/applylog"
	"go-openclaw-applier/internal/driver"
	"go-openclaw-applier/internal/jobboard"
	"go-openclaw-applier/internal/models"
)

type Options struct {
	NavigationTimeout time.Duration
	CandidateTimeout  time.Duration
	FormIdleTimeout   time.Duration
	SubmitIdleTimeout time.Duration
	// RequireUpload fails the run when no resume upload field exists.
	RequireUpload bool
	// StrictConfirmation fails the run when the page does not go idle
	// after submit.
	StrictConfirmation bool
}

func DefaultOptions() Options {
	return Options{
		NavigationTimeout: 60 * time.Second,
		CandidateTimeout:  DefaultCandidateTimeout,
		FormIdleTimeout:   30 * time.Second,
		SubmitIdleTimeout: DefaultSubmitIdleTimeout,
	}
}

// ResumeResolver turns the requested resume path into a readable local file.
type ResumeResolver interface {
	Resolve(path string, log *applylog.Collector) (string, error)
}

// ScreenshotArchive stores debug screenshots and returns where they went.
type ScreenshotArchive interface {
	Save(ctx context.Context, key string, png []byte) (string, error)
}

// Flow is the in-process apply run over a driver.Driver.
type Flow struct {
	driver  driver.Driver
	opts    Options
	resumes ResumeResolver
	shots   ScreenshotArchive
}

type FlowOption func(*Flow)

func WithResumeResolver(r ResumeResolver) FlowOption {
	return func(f *Flow) { f.resumes = r }
}

func WithScreenshots(a ScreenshotArchive) FlowOption {
	return func(f *Flow) { f.shots = a }
}

func NewFlow(d driver.Driver, opts Options, options ...FlowOption) *Flow {
	f := &Flow{driver: d, opts: opts}
	for _, o := range options {
		o(f)
	}
	return f
}

// Apply runs one attempt. A nil error means the application was submitted.
// The session is closed on every return path, panics included.
func (f *Flow) Apply(ctx context.Context, req models.ApplyRequest, log *applylog.Collector) error {
	resumePath := req.ResumePath
	if f.resumes != nil {
		resolved, err := f.resumes.Resolve(req.ResumePath, log)
		if err != nil {
			return err
		}
		if resolved != resumePath {
			log.Infof("Using resume file %s", resolved)
		}
		resumePath = resolved
	}

	log.Debug("Opening automation session")
	sess, err := f.driver.OpenSession(ctx, log)
	if err != nil {
		return models.NewApplyError(models.KindUnknown, "could not open automation session", err)
	}
	defer func() {
		if err := sess.Close(); err != nil {
			log.Warnf("Error closing automation session: %v", err)
		}
		log.Debug("Automation session closed")
	}()

	log.Infof("Navigating to %s", req.JobURL)
	err = sess.Navigate(ctx, req.JobURL, driver.NavigateOptions{
		WaitUntil: driver.WaitNetworkIdle,
		Timeout:   f.opts.NavigationTimeout,
	})
	if err != nil {
		log.Warnf("Navigation failed: %v", err)
		return models.NewApplyError(models.KindNavigation, "job page did not load", err)
	}
	log.Infof("Loaded page: %s", req.JobURL)

	board, domain := jobboard.Describe(req.JobURL)
	log.Infof("Detected job board: %s (%s)", board, domain)
	f.checkpoint(ctx, sess, req.TaskID, "job-page", log)

	profile := profileFor(board)
	if len(profile.signIn) > 0 {
		if _, _, found := Locate(ctx, sess, profile.signIn, f.opts.CandidateTimeout, log); found {
			log.Warnf("%s requires sign-in before applying", board)
			return models.NewApplyError(models.KindElementNotFound, "job board requires sign-in", nil)
		}
	}

	log.Info("Looking for apply button")
	clicked, clickErr := ClickFirst(ctx, sess, profile.applyCandidates(), f.opts.CandidateTimeout, log)
	if clicked < 0 {
		if err := interrupted(ctx); err != nil {
			return err
		}
		if clickErr != nil {
			log.Warnf("Error with apply button: %v", clickErr)
			return models.NewApplyError(models.KindUnknown, "failed to click apply button", clickErr)
		}
		log.Warn("could not find apply button")
		f.checkpoint(ctx, sess, req.TaskID, "no-apply-button", log)
		return models.NewApplyError(models.KindElementNotFound, "could not find apply button", nil)
	}
	log.Info("Clicked apply button")

	if err := sess.WaitForIdle(ctx, f.opts.FormIdleTimeout); err != nil {
		log.Warnf("No navigation occurred after clicking apply: %v", err)
	}
	f.checkpoint(ctx, sess, req.TaskID, "after-apply-click", log)

	uploader := &Uploader{Timeout: f.opts.CandidateTimeout, Log: log}
	uploaded, err := uploader.Upload(ctx, sess, resumePath)
	if err != nil {
		return err
	}
	if !uploaded && f.opts.RequireUpload {
		return models.NewApplyError(models.KindUpload, "could not find resume upload field", nil)
	}

	filler := &Filler{Timeout: f.opts.CandidateTimeout, Log: log}
	filler.Fill(ctx, sess, req.Profile)

	confirmer := &Confirmer{
		Timeout:     f.opts.CandidateTimeout,
		IdleTimeout: f.opts.SubmitIdleTimeout,
		Strict:      f.opts.StrictConfirmation,
		Log:         log,
	}
	submitted, err := confirmer.Submit(ctx, sess)
	if err != nil {
		return err
	}
	if !submitted {
		if err := interrupted(ctx); err != nil {
			return err
		}
		return models.NewApplyError(models.KindElementNotFound, "could not find submit button", nil)
	}

	f.checkpoint(ctx, sess, req.TaskID, "application-submitted", log)
	log.Info("Application submitted successfully")
	return nil
}

// interrupted reports a cancelled or expired run so it is not mistaken for
// a missing element.
func interrupted(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return models.NewApplyError(models.KindUnknown, "apply run interrupted", err)
	}
	return nil
}

func (f *Flow) checkpoint(ctx context.Context, sess driver.Session, taskID, name string, log *applylog.Collector) {
	if f.shots == nil {
		return
	}
	shooter, ok := sess.(driver.Screenshotter)
	if !ok {
		return
	}

	png, err := shooter.Screenshot(ctx)
	if err != nil {
		log.Debugf("Screenshot %s skipped: %v", name, err)
		return
	}
	key := fmt.Sprintf("%s/%s.png", taskID, name)
	if taskID == "" {
		key = fmt.Sprintf("adhoc/%d-%s.png", time.Now().UnixNano(), name)
	}
	location, err := f.shots.Save(ctx, key, png)
	if err != nil {
		log.Warnf("Failed to save screenshot %s: %v", name, err)
		return
	}
	log.Infof("Saved screenshot %s", location)
}
