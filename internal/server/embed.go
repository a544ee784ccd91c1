package server

import (
	"embed"
	"io/fs"
)

//go:embed all:web
var webFS embed.FS

// GetDistFS returns the embedded web UI filesystem
func GetDistFS() fs.FS {
	subFS, err := fs.Sub(webFS, "web")
	if err != nil {
		return nil
	}
	return subFS
}
