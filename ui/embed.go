package ui

import "embed"

// Templates and static assets ship inside the binary so the dashboard
// needs nothing on disk beyond the artifact root.
//
//go:embed templates static
var assets embed.FS
