// Package resume locates and checks the resume file before an apply run.
package resume

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"

	"go-openclaw-applier/internal/applylog"
	"go-openclaw-applier/internal/models"
)

const DefaultUploadDir = "/app/uploads"

// Accepted resume formats, compared with mimetype's alias-aware Is.
var allowedTypes = []string{
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"text/rtf",
	"text/plain",
}

// Resolver finds the resume file, falling back to the same base name in
// FallbackDirs when the stored path does not exist on this host (e.g. a
// path recorded by another container).
type Resolver struct {
	FallbackDirs []string
}

func NewResolver(fallbackDirs ...string) *Resolver {
	if len(fallbackDirs) == 0 {
		fallbackDirs = []string{DefaultUploadDir}
	}
	return &Resolver{FallbackDirs: fallbackDirs}
}

// Resolve returns a readable path to a supported resume file. Failures are
// upload_error ApplyErrors. Each lookup step goes to log, which may be nil.
func (r *Resolver) Resolve(path string, log *applylog.Collector) (string, error) {
	if path == "" {
		return "", models.NewApplyError(models.KindUpload, "no resume file given", nil)
	}

	found, err := r.find(path, log)
	if err != nil {
		return "", err
	}

	mt, err := mimetype.DetectFile(found)
	if err != nil {
		return "", models.NewApplyError(models.KindUpload, "could not read resume file", err)
	}
	if !supported(mt) {
		return "", models.NewApplyError(models.KindUpload,
			fmt.Sprintf("unsupported resume file type %s", mt.String()), nil)
	}
	return found, nil
}

func (r *Resolver) find(path string, log *applylog.Collector) (string, error) {
	candidates := []string{path}
	for _, dir := range r.FallbackDirs {
		candidates = append(candidates, filepath.Join(dir, filepath.Base(path)))
	}

	for i, c := range candidates {
		if i > 0 && log != nil {
			log.Infof("Trying alternative path: %s", c)
		}
		info, err := os.Stat(c)
		if err == nil && info.Mode().IsRegular() {
			return c, nil
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			if log != nil {
				log.Warnf("Could not read resume file at %s: %v", c, err)
			}
			return "", models.NewApplyError(models.KindUpload, "could not read resume file", err)
		}
		if i == 0 && log != nil {
			log.Warnf("Resume file not found at %s", c)
		}
	}
	return "", models.NewApplyError(models.KindUpload, fmt.Sprintf("resume file not found at %s", path), nil)
}

func supported(mt *mimetype.MIME) bool {
	for m := mt; m != nil; m = m.Parent() {
		for _, allowed := range allowedTypes {
			if m.Is(allowed) {
				return true
			}
		}
	}
	return false
}
