package web

import (
	"embed"
	"io/fs"
)

// assetFS embeds the page templates and static assets into the Go binary so
// the gate ships as a single self-contained executable.
//
//go:embed all:templates all:static
var assetFS embed.FS

// Templates returns the embedded filesystem holding the HTML templates.
func Templates() fs.FS {
	sub, err := fs.Sub(assetFS, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

// Static returns the embedded filesystem holding JS and CSS assets.
func Static() fs.FS {
	sub, err := fs.Sub(assetFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
