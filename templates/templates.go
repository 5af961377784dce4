// Package templates holds the embedded html/template set for the interactive
// views. Embedding keeps rendering independent of the working directory.
package templates

import (
	"embed"
	"html/template"
)

//go:embed *.html
var files embed.FS

// Load parses the embedded template set.
func Load() *template.Template {
	t := template.New("").Funcs(template.FuncMap{
		"deref": func(p *uint) uint {
			if p == nil {
				return 0
			}
			return *p
		},
	})
	return template.Must(t.ParseFS(files, "*.html"))
}
