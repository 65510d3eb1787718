package browser

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadCookies(t *testing.T) {
	path := writeFile(t, t.TempDir(), "cookies-linkedin.json", `[
		{"name":"li_at","value":"abc","domain":".linkedin.com","path":"/","expires":1900000000,"httpOnly":true,"secure":true,"sameSite":"None"},
		{"name":"lang","value":"en","domain":".linkedin.com","sameSite":"Lax"},
		{"name":"","value":"dropped","domain":".linkedin.com"}
	]`)

	cookies, err := LoadCookies(path)
	require.NoError(t, err)
	require.Len(t, cookies, 2)

	first := cookies[0]
	assert.Equal(t, "li_at", first.Name)
	assert.Equal(t, ".linkedin.com", *first.Domain)
	assert.Equal(t, 1900000000.0, *first.Expires)
	assert.True(t, *first.HttpOnly)
	assert.True(t, *first.Secure)
	assert.Equal(t, playwright.SameSiteAttributeNone, first.SameSite)

	second := cookies[1]
	assert.Equal(t, "/", *second.Path)
	assert.Nil(t, second.Expires)
	assert.Nil(t, second.HttpOnly)
	assert.Equal(t, playwright.SameSiteAttributeLax, second.SameSite)
}

func TestLoadCookies_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadCookies(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	_, err = LoadCookies(writeFile(t, dir, "broken.json", `{not json`))
	assert.Error(t, err)
}

func TestLoadCookieDir_SkipsBadFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.json", `[{"name":"a","value":"1","domain":"example.com"}]`)
	writeFile(t, dir, "b.json", `oops`)
	writeFile(t, dir, "c.json", `[{"name":"c","value":"3","domain":"example.org"}]`)
	writeFile(t, dir, "notes.txt", `ignored`)

	cookies, err := LoadCookieDir(dir)

	require.NoError(t, err)
	require.Len(t, cookies, 2)
	assert.Equal(t, "a", cookies[0].Name)
	assert.Equal(t, "c", cookies[1].Name)
}

func TestRandomDelay(t *testing.T) {
	start := time.Now()
	require.NoError(t, RandomDelay(context.Background(), 5*time.Millisecond, 10*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, RandomDelay(ctx, time.Hour, 2*time.Hour), context.Canceled)
}

func TestBudget(t *testing.T) {
	ms, err := budget(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, float64(defaultActionTimeout.Milliseconds()), *ms)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	ms, err = budget(ctx, time.Minute)
	require.NoError(t, err)
	assert.LessOrEqual(t, *ms, 50.0)

	done, cancelDone := context.WithCancel(context.Background())
	cancelDone()
	_, err = budget(done, time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}
