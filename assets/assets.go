// Package assets holds the files shipped inside the binaries.
package assets

import (
	"embed"
	"io/fs"
)

//go:embed templates/email/*
var files embed.FS

// EmailTemplates returns the email templates directory.
func EmailTemplates() fs.FS {
	sub, err := fs.Sub(files, "templates/email")
	if err != nil {
		panic(err) // the path is embedded at build time
	}
	return sub
}
