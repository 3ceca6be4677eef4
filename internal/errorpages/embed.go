package errorpages

import "embed"

// templatesFS holds the error page templates, compiled into the binary.
//
//go:embed templates/*.html
var templatesFS embed.FS
