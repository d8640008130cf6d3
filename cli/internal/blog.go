package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/brightsun/solarsite/internal/content"
)

func newBlogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blog",
		Short: "Preview the blog posts shipped with the site",
	}

	cmd.AddCommand(newBlogListCommand())
	cmd.AddCommand(newBlogShowCommand())

	return cmd
}

func newBlogListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List blog posts, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := content.Default()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PUBLISHED\tSLUG\tTITLE")
			for _, p := range store.Posts() {
				fmt.Fprintf(w, "%s\t%s\t%s\n", p.PublishedAt.Format("2006-01-02"), p.Slug, p.Title)
			}
			return w.Flush()
		},
	}
}

func newBlogShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show SLUG",
		Short: "Render one blog post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := content.Default()
			if err != nil {
				return err
			}

			post, ok := store.Post(args[0])
			if !ok {
				return fmt.Errorf("post %q not found", args[0])
			}

			var md strings.Builder
			fmt.Fprintf(&md, "# %s\n\n", post.Title)
			fmt.Fprintf(&md, "*%s*", post.PublishedAt.Format("02/01/2006"))
			if len(post.Tags) > 0 {
				fmt.Fprintf(&md, " · %s", strings.Join(post.Tags, ", "))
			}
			md.WriteString("\n\n")
			md.WriteString(post.Body)

			return printMarkdown(cmd, md.String())
		},
	}
}
