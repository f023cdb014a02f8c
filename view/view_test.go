package view

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diewo77/golf-referee/i18n"
)

func writeTemplates(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "partials"), 0o755))
	files := map[string]string{
		"layout.html":          `<html><body>{{template "header" .}}{{template "content" .}}</body></html>`,
		"partials/header.html": `{{define "header"}}<nav>{{t "nav.dashboard"}}</nav>{{end}}`,
		"page.html":            `{{define "content"}}<p>{{.Msg}} {{t "required"}}</p>{{end}}`,
		"standalone.html":      `<!DOCTYPE html><p>{{lang}}</p>`,
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func TestRenderWithLayout(t *testing.T) {
	ResetForTests()
	SetBaseDir(writeTemplates(t))
	t.Cleanup(ResetForTests)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, Render(rec, r, "page.html", map[string]any{"Msg": "ciao"}))
	assert.Contains(t, rec.Body.String(), "<nav>Dashboard</nav>")
	assert.Contains(t, rec.Body.String(), "<p>ciao Obbligatorio</p>")
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	// English requests get their own cached template.
	r = r.WithContext(i18n.WithLang(r.Context(), i18n.English))
	rec = httptest.NewRecorder()
	require.NoError(t, Render(rec, r, "page.html", map[string]any{"Msg": "hi"}))
	assert.Contains(t, rec.Body.String(), "<p>hi Required</p>")
}

func TestRenderStandalone(t *testing.T) {
	ResetForTests()
	SetBaseDir(writeTemplates(t))
	t.Cleanup(ResetForTests)

	rec := httptest.NewRecorder()
	require.NoError(t, Render(rec, httptest.NewRequest(http.MethodGet, "/", nil), "standalone.html", nil))
	assert.Equal(t, "<!DOCTYPE html><p>it</p>", rec.Body.String())
}

func TestRenderMissingTemplate(t *testing.T) {
	ResetForTests()
	SetBaseDir(t.TempDir())
	t.Cleanup(ResetForTests)

	err := Render(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil), "nope.html", nil)
	assert.Error(t, err)
}

func TestDictHelper(t *testing.T) {
	dict := Funcs(httptest.NewRequest(http.MethodGet, "/", nil))["dict"].(func(...any) map[string]any)
	assert.Equal(t, map[string]any{"A": 1}, dict("A", 1))
	assert.Nil(t, dict("odd"))
}

func TestCachedTemplateUsesRequestPermissions(t *testing.T) {
	ResetForTests()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "perm.html"),
		[]byte(`<!doctype html>{{if can "tournament" "create"}}yes{{else}}no{{end}}`), 0o644))
	SetBaseDir(dir)
	SetCanProfileResolver(func(r *http.Request, _, _ string) bool { return r.Header.Get("X-Admin") == "1" })
	t.Cleanup(func() {
		canProfileResolver = nil
		ResetForTests()
	})

	admin := httptest.NewRequest(http.MethodGet, "/", nil)
	admin.Header.Set("X-Admin", "1")
	rec := httptest.NewRecorder()
	require.NoError(t, Render(rec, admin, "perm.html", nil))
	assert.Contains(t, rec.Body.String(), "yes")

	rec = httptest.NewRecorder()
	require.NoError(t, Render(rec, httptest.NewRequest(http.MethodGet, "/", nil), "perm.html", nil))
	assert.Contains(t, rec.Body.String(), "no")
}

// Every page shipped under templates/ must parse together with the layout
// and partials.
func TestProjectTemplatesParse(t *testing.T) {
	ResetForTests()
	SetBaseDir("../templates")
	t.Cleanup(ResetForTests)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	var pages []string
	err := filepath.WalkDir("../templates", func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(path) != ".html" {
			return err
		}
		rel, _ := filepath.Rel("../templates", path)
		if rel == "layout.html" || filepath.Dir(rel) == "partials" {
			return nil
		}
		pages = append(pages, filepath.ToSlash(rel))
		return nil
	})
	require.NoError(t, err)
	require.NotEmpty(t, pages)
	for _, page := range pages {
		_, err := parse(r, page)
		assert.NoError(t, err, page)
	}
}
