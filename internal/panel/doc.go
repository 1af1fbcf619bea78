// Package panel serves the doorbell admin page as an embedded asset.
//
// The page (HTML, script and stylesheet) is embedded into the Go binary
// using the go:embed directive, so the doorbell has no runtime dependency
// on external files. Handler serves these assets with SPA fallback
// routing: if a requested file does not exist, index.html is served.
//
// Assets are served with no-cache headers so a firmware update is picked
// up on the next page load.
package panel
