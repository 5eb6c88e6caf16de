package dashboard

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed assets
var assets embed.FS

// Handler serves the embedded dashboard: index.html at /, style.css and
// app.js next to it. The page renders /api/state and drives /api/check.
func Handler() http.Handler {
	sub, err := fs.Sub(assets, "assets")
	if err != nil {
		// "assets" is embedded at build time.
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}
