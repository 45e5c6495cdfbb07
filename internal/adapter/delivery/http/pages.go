package http

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"time"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

var funcs = template.FuncMap{
	"datetime": func(t time.Time) string {
		return t.UTC().Format("2006-01-02 15:04 UTC")
	},
}

type pages struct {
	tmpl *template.Template
}

// newPages parses the embedded templates. They are compiled into the binary,
// so a parse failure is a programming error.
func newPages() *pages {
	tmpl := template.Must(template.New("").Funcs(funcs).ParseFS(templatesFS, "templates/*.html"))

	return &pages{tmpl: tmpl}
}

// render writes the named template with status. Output is buffered until
// execution succeeds.
func (p *pages) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer

	if err := p.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		logError(r, err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func staticHandler() http.Handler {
	return http.FileServer(http.FS(staticFS))
}
