// Package view renders html/template pages from the templates directory with
// a shared layout, partials and helper funcs.
package view

import (
	"bytes"
	"crypto/sha1"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/diewo77/golf-referee/auth"
	"github.com/diewo77/golf-referee/i18n"
)

const dateLayout = "02/01/2006"

var (
	baseDir  string
	once     sync.Once
	devMode  bool
	tplCache = struct {
		sync.RWMutex
		m map[string]*template.Template
	}{m: map[string]*template.Template{}}

	// Permission resolvers set by the host app so templates can hide links.
	canProfileResolver func(*http.Request, string, string) bool
	isAdminResolver    func(*http.Request) bool
)

// SetDev disables template caching so edits show up on reload.
func SetDev(dev bool) { devMode = dev }

// SetCanProfileResolver sets a callback used by templates to check profile-level permissions.
func SetCanProfileResolver(f func(*http.Request, string, string) bool) {
	if f != nil {
		canProfileResolver = f
	}
}

// SetIsAdminResolver sets a callback used by templates to detect admin users.
func SetIsAdminResolver(f func(*http.Request) bool) {
	if f != nil {
		isAdminResolver = f
	}
}

// layoutBase walks upward from a template path to find the directory that contains layout.html.
func layoutBase(mainPath string) string {
	d := filepath.Dir(mainPath)
	for {
		if fi, err := os.Stat(filepath.Join(d, "layout.html")); err == nil && !fi.IsDir() {
			return d
		}
		p := filepath.Dir(d)
		if p == d {
			return filepath.Dir(mainPath)
		}
		d = p
	}
}

func detectBase() {
	for _, c := range []string{"templates", "../templates", "../../templates"} {
		if fi, err := os.Stat(filepath.Clean(c)); err == nil && fi.IsDir() {
			baseDir = filepath.Clean(c)
			return
		}
	}
	baseDir = "templates"
}

// Funcs returns the standard func map including i18n and simple helpers.
func Funcs(r *http.Request) template.FuncMap {
	lang := i18n.LangFromContext(r.Context())
	return template.FuncMap{
		"t":    func(code string) string { return i18n.T(lang, code) },
		"lang": func() string { return lang },
		"can": func(resource, action string) bool {
			return canProfileResolver != nil && canProfileResolver(r, resource, action)
		},
		"isAdmin": func() bool {
			return isAdminResolver != nil && isAdminResolver(r)
		},
		"year": func() int { return time.Now().Year() },
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format(dateLayout)
		},
		// isodate formats for <input type="date">.
		"isodate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("2006-01-02")
		},
		"deref": func(p *uint) uint {
			if p == nil {
				return 0
			}
			return *p
		},
		"asset": versionedAsset,
		// dict creates a map from key-value pairs for passing to sub-templates.
		"dict": func(values ...any) map[string]any {
			if len(values)%2 != 0 {
				return nil
			}
			m := make(map[string]any, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				if key, ok := values[i].(string); ok {
					m[key] = values[i+1]
				}
			}
			return m
		},
	}
}

// versionedAsset returns /static/<name>?v=<hash> for cache busting.
func versionedAsset(rel string) string {
	if strings.HasPrefix(rel, "http://") || strings.HasPrefix(rel, "https://") || strings.HasPrefix(rel, "//") {
		return rel
	}
	b, err := os.ReadFile(filepath.Join("static", rel))
	if err != nil {
		return "/static/" + rel
	}
	h := sha1.Sum(b)
	return fmt.Sprintf("/static/%s?v=%x", rel, h[:8])
}

// SetBaseDir overrides the template base directory (useful for tests).
func SetBaseDir(path string) {
	if path == "" {
		return
	}
	baseDir = filepath.Clean(path)
	once = sync.Once{}
}

// ResetForTests clears caches and forces base dir detection to rerun.
func ResetForTests() {
	tplCache.Lock()
	tplCache.m = map[string]*template.Template{}
	tplCache.Unlock()
	baseDir = ""
	once = sync.Once{}
}

func findTemplate(name string) (string, error) {
	mainPath := filepath.Join(baseDir, name)
	if _, err := os.Stat(mainPath); err == nil {
		return mainPath, nil
	}
	for _, c := range []string{
		filepath.Join("templates", name),
		filepath.Join("../templates", name),
		filepath.Join("../../templates", name),
		filepath.Join("../../../templates", name),
	} {
		if fi, err := os.Stat(c); err == nil && !fi.IsDir() {
			return c, nil
		}
	}
	return "", fmt.Errorf("template %s not found under %s", name, baseDir)
}

func parse(r *http.Request, name string) (*template.Template, error) {
	mainPath, err := findTemplate(name)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(mainPath)
	if err != nil {
		return nil, err
	}
	funcMap := Funcs(r)
	// Full documents skip the layout.
	if bytes.Contains(bytes.ToLower(content), []byte("<!doctype")) {
		return template.New(name).Funcs(funcMap).ParseFiles(mainPath)
	}
	root := layoutBase(mainPath)
	layoutPath := filepath.Join(root, "layout.html")
	if _, err := os.Stat(layoutPath); err != nil {
		return template.New(name).Funcs(funcMap).ParseFiles(mainPath)
	}
	files := []string{layoutPath, mainPath}
	partials, _ := filepath.Glob(filepath.Join(root, "partials", "*.html"))
	files = append(files, partials...)
	return template.New("layout.html").Funcs(funcMap).ParseFiles(files...)
}

// Render parses and executes a template file with shared funcs.
// name is the path relative to the templates directory (e.g., "dashboard.html").
func Render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) error {
	if baseDir == "" {
		once.Do(detectBase)
	}
	if data == nil {
		data = map[string]any{}
	}
	if _, exists := data["IsLoggedIn"]; !exists {
		_, loggedIn := auth.UserIDFromContext(r.Context())
		data["IsLoggedIn"] = loggedIn
	}
	// The cache holds parsed templates that are never executed; each request
	// runs a clone carrying its own funcs (permissions depend on the request).
	key := i18n.LangFromContext(r.Context()) + "/" + name
	var t *template.Template
	if !devMode {
		tplCache.RLock()
		t = tplCache.m[key]
		tplCache.RUnlock()
	}
	if t == nil {
		var err error
		t, err = parse(r, name)
		if err != nil {
			return err
		}
		if !devMode {
			tplCache.Lock()
			tplCache.m[key] = t
			tplCache.Unlock()
		}
	}
	run, err := t.Clone()
	if err != nil {
		return err
	}
	return execute(w, run.Funcs(Funcs(r)), data)
}

// execute buffers output so a template error never leaves a half-written page.
func execute(w http.ResponseWriter, t *template.Template, data map[string]any) error {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err := buf.WriteTo(w)
	return err
}
