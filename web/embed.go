// Package web holds the embedded HTML shell pages. The pages are a thin
// skin over the JSON API and are deliberately minimal.
package web

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var templateFiles embed.FS

// Templates parses every embedded page template.
func Templates() *template.Template {
	return template.Must(template.ParseFS(templateFiles, "templates/*.html"))
}
