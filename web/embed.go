// Package web holds the dashboard's page templates and browser assets.
package web

import (
	"embed"
	"html/template"
	"io/fs"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static/*
var staticFS embed.FS

// Templates parses every page template with funcs available to all of them.
func Templates(funcs template.FuncMap) (*template.Template, error) {
	return template.New("").Funcs(funcs).ParseFS(templatesFS, "templates/*.html")
}

// Static is the asset tree rooted at static/, served under /static/.
func Static() (fs.FS, error) {
	return fs.Sub(staticFS, "static")
}
