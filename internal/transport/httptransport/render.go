package httptransport

import (
	"embed"
	"html/template"
	"io"

	"github.com/labstack/echo/v4"

	"github.com/NastyaGoryachaya/crypto-converter/internal/service/converter"
)

const pageTemplate = "index.html"

//go:embed templates/*.html
var templatesFS embed.FS

type pageData struct {
	ID      string
	Options converter.OptionSet
	View    converter.View
}

// Renderer — html/template для echo
type Renderer struct {
	tmpl *template.Template
}

func NewRenderer() *Renderer {
	return &Renderer{
		tmpl: template.Must(template.ParseFS(templatesFS, "templates/*.html")),
	}
}

func (r *Renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	return r.tmpl.ExecuteTemplate(w, name, data)
}
