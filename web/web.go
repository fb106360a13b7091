// Package web embeds the HTML templates so the server binary is
// self-contained.
package web

import "embed"

//go:embed templates/*.html
var Templates embed.FS
