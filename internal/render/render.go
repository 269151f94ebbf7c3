// Package render parses the embedded HTML templates and renders full pages
// and the list fragments that pages swap in wholesale on live updates.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/gamehub/internal/catalog"
	"github.com/olegiv/gamehub/internal/i18n"
	"github.com/olegiv/gamehub/internal/session"
)

// Renderer handles template rendering with caching.
type Renderer struct {
	pages          map[string]*template.Template
	fragments      *template.Template
	sessionManager *scs.SessionManager
	isDev          bool
	toastDuration  time.Duration
	now            func() time.Time
}

// Config holds renderer configuration.
type Config struct {
	TemplatesFS    fs.FS
	SessionManager *scs.SessionManager
	IsDev          bool
	// ToastDuration is how long a toast stays visible before auto-dismissing.
	ToastDuration time.Duration
}

// New creates a new Renderer with parsed templates.
func New(cfg Config) (*Renderer, error) {
	if cfg.ToastDuration <= 0 {
		cfg.ToastDuration = 3 * time.Second
	}
	r := &Renderer{
		pages:          make(map[string]*template.Template),
		sessionManager: cfg.SessionManager,
		isDev:          cfg.IsDev,
		toastDuration:  cfg.ToastDuration,
		now:            time.Now,
	}

	if err := r.parseTemplates(cfg.TemplatesFS); err != nil {
		return nil, err
	}

	return r, nil
}

// parseTemplates parses the fragment set and one template set per page.
func (r *Renderer) parseTemplates(templatesFS fs.FS) error {
	partials, err := r.getTemplateFiles(templatesFS, "partials")
	if err != nil {
		return fmt.Errorf("getting partials: %w", err)
	}
	fragments, err := r.getTemplateFiles(templatesFS, "fragments")
	if err != nil {
		return fmt.Errorf("getting fragments: %w", err)
	}
	if len(fragments) == 0 {
		return fmt.Errorf("no fragment templates found")
	}

	shared := append(append([]string{}, partials...), fragments...)
	r.fragments, err = template.New("").Funcs(r.templateFuncs()).ParseFS(templatesFS, shared...)
	if err != nil {
		return fmt.Errorf("parsing fragments: %w", err)
	}

	pages, err := r.getTemplateFiles(templatesFS, "pages")
	if err != nil {
		return fmt.Errorf("getting pages: %w", err)
	}

	baseLayout := "layouts/base.html"
	for _, tmplPath := range pages {
		name := strings.TrimSuffix(path.Base(tmplPath), ".html")

		// Parse in order: base layout, partials, fragments, page template
		files := append([]string{baseLayout}, shared...)
		files = append(files, tmplPath)

		tmpl, err := template.New("").Funcs(r.templateFuncs()).ParseFS(templatesFS, files...)
		if err != nil {
			return fmt.Errorf("parsing template %s: %w", name, err)
		}
		r.pages[name] = tmpl
	}

	return nil
}

// getTemplateFiles returns all .html files in a directory.
func (r *Renderer) getTemplateFiles(templatesFS fs.FS, dir string) ([]string, error) {
	var files []string

	entries, err := fs.ReadDir(templatesFS, dir)
	if err != nil {
		// Directory might not exist, that's ok
		return files, nil
	}

	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".html") {
			files = append(files, path.Join(dir, entry.Name()))
		}
	}

	return files, nil
}

// templateFuncs returns custom template functions.
func (r *Renderer) templateFuncs() template.FuncMap {
	return template.FuncMap{
		"t": i18n.T,
		"relTime": func(t time.Time, lang string) string {
			return FormatRelative(t, r.now(), lang)
		},
		"fullDate": FormatDate,
		"markdown": Markdown,
		"categoryLabel": func(lang, category string) string {
			return i18n.T(lang, "category."+category)
		},
		"launchPath": LaunchPath,
		"actionLabel": func(lang string, flavor catalog.Flavor) string {
			if flavor == catalog.FlavorTools {
				return i18n.T(lang, "btn.use")
			}
			return i18n.T(lang, "btn.play")
		},
		"add": func(a, b int) int {
			return a + b
		},
	}
}

// LaunchPath is the play/use route of an entry.
func LaunchPath(flavor catalog.Flavor, id string) string {
	if flavor == catalog.FlavorTools {
		return "/tools/" + id + "/use"
	}
	return "/games/" + id + "/play"
}

// TemplateData holds data passed to page templates.
type TemplateData struct {
	Title       string
	Page        string
	Lang        string
	Session     *session.Context
	Data        any
	Flash       string
	FlashType   string
	CurrentYear int
	ToastMillis int64
	Languages   []string
}

// Render renders a page with the given data.
func (r *Renderer) Render(w http.ResponseWriter, req *http.Request, name string, data TemplateData) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("template %s not found", name)
	}

	r.fillDefaults(req, name, &data)

	// Render to buffer first to catch errors
	buf := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(buf, "base", data); err != nil {
		return fmt.Errorf("executing template %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
	return nil
}

func (r *Renderer) fillDefaults(req *http.Request, name string, data *TemplateData) {
	data.CurrentYear = r.now().Year()
	data.ToastMillis = r.toastDuration.Milliseconds()
	data.Languages = i18n.SupportedLanguages
	if data.Page == "" {
		data.Page = name
	}
	if data.Session == nil {
		data.Session = session.FromContext(req.Context())
	}
	if data.Lang == "" {
		data.Lang = data.Session.Lang
	}
	if data.Lang == "" {
		data.Lang = i18n.Default()
	}

	if r.sessionManager != nil && data.Flash == "" {
		data.Flash, data.FlashType = session.PopFlash(req.Context(), r.sessionManager)
	}
}

// RenderFragment executes a fragment template into w.
func (r *Renderer) RenderFragment(w io.Writer, name string, data any) error {
	buf := new(bytes.Buffer)
	if err := r.fragments.ExecuteTemplate(buf, name, data); err != nil {
		return fmt.Errorf("executing fragment %s: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// SetFlash sets a flash message in the session.
func (r *Renderer) SetFlash(req *http.Request, message, flashType string) {
	if r.sessionManager != nil {
		session.SetFlash(req.Context(), r.sessionManager, message, flashType)
	}
}
