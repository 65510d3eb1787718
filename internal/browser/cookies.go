package browser

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

// Cookie is one entry of an exported cookie JSON file.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
	SameSite string  `json:"sameSite"`
}

func LoadCookies(path string) ([]playwright.OptionalCookie, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cookies []Cookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	out := make([]playwright.OptionalCookie, 0, len(cookies))
	for _, c := range cookies {
		if c.Name == "" || c.Domain == "" {
			continue
		}
		out = append(out, c.ToPlaywright())
	}
	return out, nil
}

// LoadCookieDir loads every *.json file in dir. Unreadable files are
// skipped with a warning so one stale export does not block the rest.
func LoadCookieDir(dir string) ([]playwright.OptionalCookie, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	var all []playwright.OptionalCookie
	for _, f := range files {
		cookies, err := LoadCookies(f)
		if err != nil {
			zap.L().Warn("⚠️ could not load cookies, continuing", zap.String("file", f), zap.Error(err))
			continue
		}
		zap.L().Info("🍪 loaded cookies", zap.String("file", filepath.Base(f)), zap.Int("count", len(cookies)))
		all = append(all, cookies...)
	}
	return all, nil
}

func (c Cookie) ToPlaywright() playwright.OptionalCookie {
	path := c.Path
	if path == "" {
		path = "/"
	}
	pw := playwright.OptionalCookie{
		Name:   c.Name,
		Value:  c.Value,
		Domain: playwright.String(c.Domain),
		Path:   playwright.String(path),
	}

	if c.Expires > 0 {
		pw.Expires = playwright.Float(c.Expires)
	}
	if c.HTTPOnly {
		pw.HttpOnly = playwright.Bool(true)
	}
	if c.Secure {
		pw.Secure = playwright.Bool(true)
	}

	switch c.SameSite {
	case "Lax", "lax":
		pw.SameSite = playwright.SameSiteAttributeLax
	case "Strict", "strict":
		pw.SameSite = playwright.SameSiteAttributeStrict
	case "None", "no_restriction":
		pw.SameSite = playwright.SameSiteAttributeNone
	}
	return pw
}
