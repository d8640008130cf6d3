package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const defaultTheme = "auto"

// renderMarkdown styles markdown with glamour for a terminal and returns it
// untouched for pipes and files
func renderMarkdown(markdown, theme string, isTerminal bool) string {
	if !isTerminal {
		return markdown
	}
	rendered, err := glamour.Render(markdown, theme)
	if err != nil {
		return markdown
	}
	return rendered
}

// printMarkdown writes markdown to the command output in the active context's theme
func printMarkdown(cmd *cobra.Command, markdown string) error {
	out := cmd.OutOrStdout()
	f, ok := out.(*os.File)
	tty := ok && term.IsTerminal(int(f.Fd()))

	_, err := fmt.Fprint(out, renderMarkdown(markdown, getCliContext(cmd).Config.Theme(), tty))
	return err
}

// Theme is the glamour style of the active context
func (c *Config) Theme() string {
	if c == nil {
		return defaultTheme
	}
	ctx, err := c.GetCurrentContext()
	if err != nil || ctx.Rendering.Theme == "" {
		return defaultTheme
	}
	return ctx.Rendering.Theme
}
