package pdf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-openclaw-applier/internal/models"
)

func sampleResume() *models.Resume {
	return &models.Resume{
		PersonalInformation: models.PersonalInformation{
			FullName: "Ada Lovelace",
			JobTitle: "Backend Engineer",
			Email:    "ada@example.com",
			Links:    models.Link{GitHub: "github.com/ada"},
		},
		Summary: "Builds <reliable> services.",
		Skills: models.Skills{
			Languages: []string{"Go", "SQL"},
		},
		Experience: []models.Experience{
			{Role: "Engineer", Company: "Analytical Engines", Duration: "2020 - now"},
		},
	}
}

func TestRenderHTML_BuiltinTemplate(t *testing.T) {
	g, err := NewGenerator(nil, "")
	require.NoError(t, err)

	html, err := g.RenderHTML(sampleResume())
	require.NoError(t, err)

	assert.Contains(t, html, "<h1>Ada Lovelace</h1>")
	assert.Contains(t, html, "Go, SQL")
	assert.Contains(t, html, "Analytical Engines")
	assert.Contains(t, html, "Builds &lt;reliable&gt; services.")
	assert.NotContains(t, html, "Education")
}

func TestRenderHTML_CustomTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mini.html")
	require.NoError(t, os.WriteFile(path, []byte(`{{.PersonalInformation.FullName}}|{{join .Skills.Languages "/"}}`), 0o644))

	g, err := NewGenerator(nil, path)
	require.NoError(t, err)

	html, err := g.RenderHTML(sampleResume())
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace|Go/SQL", html)
}

func TestNewGenerator_MissingTemplate(t *testing.T) {
	_, err := NewGenerator(nil, filepath.Join(t.TempDir(), "nope.html"))
	assert.Error(t, err)
}

func TestSaveToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "resume.pdf")
	require.NoError(t, SaveToFile([]byte("%PDF-1.4"), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))
}
