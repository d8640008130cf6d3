package content

import (
	"github.com/microcosm-cc/bluemonday"
	"github.com/russross/blackfriday/v2"
)

var policy = bluemonday.UGCPolicy()

// RenderMarkdown converts markdown text to sanitized HTML
func RenderMarkdown(markdown string) string {
	if markdown == "" {
		return ""
	}
	unsafe := blackfriday.Run([]byte(markdown))
	return string(policy.SanitizeBytes(unsafe))
}
