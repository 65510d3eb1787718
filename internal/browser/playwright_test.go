package browser_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go-openclaw-applier/internal/applier"
	"go-openclaw-applier/internal/applylog"
	"go-openclaw-applier/internal/browser"
	"go-openclaw-applier/internal/driver"
	"go-openclaw-applier/internal/models"
)

const jobPage = `<html><head><title>Backend Engineer</title></head><body>
<h1>Backend Engineer</h1>
<button onclick="document.getElementById('form').style.display='block'">Apply Now</button>
<form id="form" style="display:none" onsubmit="event.preventDefault(); document.body.dataset.sent='yes'">
  <input type="file" name="resume" style="display:none">
  <input name="full_name">
  <input name="email">
  <textarea name="summary"></textarea>
  <button type="submit">Submit</button>
</form>
</body></html>`

func setupManager(t *testing.T) *browser.PlaywrightManager {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping browser integration test in short mode")
	}
	pm, err := browser.NewPlaywright(browser.Options{Headless: true})
	if err != nil {
		t.Skipf("could not launch playwright: %v", err)
	}
	t.Cleanup(func() { _ = pm.Close() })
	return pm
}

func TestPlaywrightSession_QueryAndFill(t *testing.T) {
	pm := setupManager(t)
	page, closePage, err := pm.Page()
	require.NoError(t, err)
	defer closePage()

	require.NoError(t, page.SetContent(jobPage))
	loc := page.Locator("input[name='full_name']")
	require.NoError(t, loc.Fill("Ada"))
	value, err := loc.InputValue()
	require.NoError(t, err)
	assert.Equal(t, "Ada", value)
}

func TestPlaywrightFlow_AppliesOnMockPage(t *testing.T) {
	pm := setupManager(t)

	resume := filepath.Join(t.TempDir(), "cv.pdf")
	require.NoError(t, os.WriteFile(resume, []byte("%PDF-1.4\n"), 0o644))

	flow := applier.NewFlow(&routingDriver{pm: pm}, applier.DefaultOptions())
	log := applylog.New(zap.NewNop())

	err := flow.Apply(context.Background(), models.ApplyRequest{
		TaskID:     "it-1",
		JobURL:     "https://careers.example.com/jobs/1",
		ResumePath: resume,
		Profile: models.ResumeProfile{
			Name:        "Ada Lovelace",
			Summary:     "Engineer",
			ContactInfo: map[string]string{"email": "ada@example.com"},
		},
	}, log)

	require.NoError(t, err)
	var submitted bool
	for _, e := range log.Entries() {
		if e.Message == "Application submitted successfully" {
			submitted = true
		}
	}
	assert.True(t, submitted)
}

func TestPlaywrightSession_ForwardsConsoleOutput(t *testing.T) {
	pm := setupManager(t)
	d := &routingDriver{pm: pm, body: `<html><body><script>
console.log("widget ready");
setTimeout(() => { throw new Error("boom"); }, 0);
</script></body></html>`}
	log := applylog.New(zap.NewNop())

	sess, err := d.OpenSession(context.Background(), log)
	require.NoError(t, err)
	defer sess.Close()

	require.NoError(t, sess.Navigate(context.Background(), "https://careers.example.com/jobs/2", driver.NavigateOptions{
		WaitUntil: driver.WaitLoad,
		Timeout:   10 * time.Second,
	}))

	has := func(level models.LogLevel, prefix string) bool {
		for _, e := range log.Entries() {
			if e.Level == level && strings.HasPrefix(e.Message, prefix) {
				return true
			}
		}
		return false
	}
	assert.Eventually(t, func() bool { return has(models.LevelDebug, "Console: widget ready") }, 5*time.Second, 50*time.Millisecond)
	assert.Eventually(t, func() bool { return has(models.LevelError, "Page error: ") }, 5*time.Second, 50*time.Millisecond)
}

// routingDriver serves jobPage (or body, when set) for every request of every session.
type routingDriver struct {
	pm   *browser.PlaywrightManager
	body string
}

func (d *routingDriver) OpenSession(ctx context.Context, log driver.PageLogger) (driver.Session, error) {
	bctx, err := d.pm.NewContext(nil)
	if err != nil {
		return nil, err
	}
	body := d.body
	if body == "" {
		body = jobPage
	}
	if err := bctx.Route("**/*", func(route playwright.Route) {
		_ = route.Fulfill(playwright.RouteFulfillOptions{
			Status:      playwright.Int(200),
			ContentType: playwright.String("text/html"),
			Body:        body,
		})
	}); err != nil {
		_ = bctx.Close()
		return nil, err
	}
	s, err := browser.NewSession(bctx, false)
	if err != nil {
		return nil, err
	}
	s.Forward(log)
	return s, nil
}
