// Package web embeds the page templates and static assets.
package web

import (
	"embed"
	"fmt"
	"io/fs"
)

//go:embed static templates
var assets embed.FS

func sub(dir string) fs.FS {
	s, err := fs.Sub(assets, dir)
	if err != nil {
		panic(fmt.Sprintf("embedded %s directory: %v", dir, err))
	}
	return s
}

// StaticFS returns the stylesheet and images served under /static/.
func StaticFS() fs.FS { return sub("static") }

// TemplatesFS returns the HTML templates.
func TemplatesFS() fs.FS { return sub("templates") }
