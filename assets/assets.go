// Package assets embeds the web UI templates.
package assets

import "embed"

// Templates holds `_base.gohtml`, the layout shared by every page, and one `<page>.gohtml` per page.
//
//go:embed templates/*.gohtml
var Templates embed.FS
