// Package html embeds the dashboard slideshow and the OAuth2 consent page templates.
package html

import (
	"embed"
)

//go:embed *.html
var HTML embed.FS
