package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/nkiryanov/microblog/internal/handlers/userctx"
	"github.com/nkiryanov/microblog/internal/models"
	"github.com/nkiryanov/microblog/internal/reporting"
	"github.com/nkiryanov/microblog/internal/session"
)

//go:embed all:templates
var templatesFS embed.FS

const layout = "base.html"

type errorLogger interface {
	Error(msg string, args ...any)
}

// Data every page template gets
type pageData struct {
	CurrentUser *models.User
	Flashes     []string
	CSRFToken   string

	// Page specific
	Data any
}

// Renderer of HTML pages
// Every page is base.html layout plus page template, partials are templates with '_' prefix
type Renderer struct {
	pages    map[string]*template.Template
	logger   errorLogger
	reporter reporting.Reporter
}

func NewRenderer(l errorLogger, reporter reporting.Reporter) (*Renderer, error) {
	if reporter == nil {
		reporter = reporting.Nop{}
	}

	base, err := template.ParseFS(templatesFS, "templates/"+layout, "templates/_*.html")
	if err != nil {
		return nil, fmt.Errorf("can't parse layout templates. Err: %w", err)
	}

	files, err := fs.Glob(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	pages := make(map[string]*template.Template, len(files))
	for _, file := range files {
		name := path.Base(file)
		if name == layout || strings.HasPrefix(name, "_") {
			continue
		}

		t, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := t.ParseFS(templatesFS, file); err != nil {
			return nil, fmt.Errorf("can't parse template %s. Err: %w", name, err)
		}
		pages[name] = t
	}

	return &Renderer{
		pages:    pages,
		logger:   l,
		reporter: reporter,
	}, nil
}

// Render page with layout
// Current user, pending flashes and CSRF token are taken from request context
func (rr *Renderer) Page(w http.ResponseWriter, r *http.Request, name string, status int, data any) {
	t, ok := rr.pages[name]
	if !ok {
		rr.fail(w, r, fmt.Errorf("template %s not found", name))
		return
	}

	pd := pageData{Data: data}
	if user, ok := userctx.FromContext(r.Context()); ok {
		pd.CurrentUser = &user
	}
	s, hasSession := session.FromContext(r.Context())
	if hasSession {
		pd.Flashes = s.PendingFlashes()
		pd.CSRFToken = s.CSRFToken()
	}

	buf := &bytes.Buffer{}
	if err := t.ExecuteTemplate(buf, layout, pd); err != nil {
		rr.fail(w, r, fmt.Errorf("can't execute template %s. Err: %w", name, err))
		return
	}

	// Flashes are shown, forget them
	if hasSession {
		s.Flashes()
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func (rr *Renderer) NotFound(w http.ResponseWriter, r *http.Request) {
	rr.Page(w, r, "404.html", http.StatusNotFound, nil)
}

func (rr *Renderer) BadRequest(w http.ResponseWriter, r *http.Request, message string) {
	rr.Page(w, r, "400.html", http.StatusBadRequest, message)
}

// Log and report unexpected error, then render 500 page
func (rr *Renderer) ServerError(w http.ResponseWriter, r *http.Request, err error) {
	rr.logger.Error("internal server error", "error", err, "method", r.Method, "uri", r.RequestURI)
	rr.reporter.Report(r.Context(), err, r)
	rr.Page(w, r, "500.html", http.StatusInternalServerError, nil)
}

// Page could not be rendered at all
func (rr *Renderer) fail(w http.ResponseWriter, r *http.Request, err error) {
	rr.logger.Error("can't render page", "error", err, "uri", r.RequestURI)
	rr.reporter.Report(r.Context(), err, r)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
