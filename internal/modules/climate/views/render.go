package views

import (
	"embed"
	"errors"
	"html/template"
	"io"
	"io/fs"
)

//go:embed templates
var viewsFS embed.FS

var indexTmpl *template.Template

// loadTemplatesFromFS is split out so tests can feed it a broken fs.
func loadTemplatesFromFS(fsys fs.FS, dir string) error {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return err
	}
	tmpl, err := template.ParseFS(sub, "*.html")
	if err != nil {
		return err
	}
	indexTmpl = tmpl
	return nil
}

// LoadTemplates parses the embedded templates. Call it during startup; if it
// returns an error, do not start the server.
func LoadTemplates() error {
	return loadTemplatesFromFS(viewsFS, "templates")
}

type Route struct {
	Path        string
	Description string
}

type IndexData struct {
	Routes        []Route
	DateFormat    string
	FirstDataDate string
	LastDataDate  string
	StationID     string
	CutoffDate    string
}

func RenderIndex(w io.Writer, data *IndexData) error {
	if indexTmpl == nil {
		return errors.New("index template not loaded: call views.LoadTemplates during startup")
	}
	return indexTmpl.ExecuteTemplate(w, "index.html", data)
}
