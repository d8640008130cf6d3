package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage partner environments (contexts)",
		Long:  `Each context names a partner base URL and username, similar to kubectl contexts.`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "current-context",
			Short: "Print the active context",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				fmt.Fprintln(cmd.OutOrStdout(), getCliContext(cmd).Config.CurrentContext)
				return nil
			},
		},
		&cobra.Command{
			Use:   "use-context NAME",
			Short: "Switch the active context",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return updateConfig(cmd, func(cfg *Config) (string, error) {
					return fmt.Sprintf("Switched to context %q", args[0]), cfg.Use(args[0])
				})
			},
		},
		&cobra.Command{
			Use:     "list-contexts",
			Aliases: []string{"get-contexts"},
			Short:   "List contexts",
			Args:    cobra.NoArgs,
			RunE:    listContexts,
		},
		newAddContextCommand(),
		&cobra.Command{
			Use:   "delete-context NAME",
			Short: "Delete a context that is not active",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return updateConfig(cmd, func(cfg *Config) (string, error) {
					return fmt.Sprintf("Context %q deleted", args[0]), cfg.Remove(args[0])
				})
			},
		},
		&cobra.Command{
			Use:   "show",
			Short: "Show the active context",
			Args:  cobra.NoArgs,
			RunE:  showContext,
		},
	)

	return cmd
}

// updateConfig applies change to the loaded config, saves it and prints the
// returned message. Nothing is saved when change fails.
func updateConfig(cmd *cobra.Command, change func(*Config) (string, error)) error {
	cfg := getCliContext(cmd).Config
	msg, err := change(cfg)
	if err != nil {
		return err
	}
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), msg)
	return nil
}

func newAddContextCommand() *cobra.Command {
	var ctx Context

	cmd := &cobra.Command{
		Use:   "add-context NAME",
		Short: "Add or replace a context",
		Example: `  solarctl config add-context staging --base-url https://partner.example/api --username integrador
  solarctl config use-context staging`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateConfig(cmd, func(cfg *Config) (string, error) {
				added := ctx
				cfg.Put(args[0], &added)
				return fmt.Sprintf("Context %q saved", args[0]), nil
			})
		},
	}

	cmd.Flags().StringVar(&ctx.Fortlev.BaseURL, "base-url", "", "Partner API base URL")
	cmd.Flags().StringVar(&ctx.Fortlev.Username, "username", "", "Partner API username")
	cmd.Flags().StringVar(&ctx.Rendering.Theme, "theme", defaultTheme, "Glamour theme (auto, dark, light, notty)")
	cmd.MarkFlagRequired("base-url")

	return cmd
}

func listContexts(cmd *cobra.Command, args []string) error {
	cfg := getCliContext(cmd).Config
	if len(cfg.Contexts) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No contexts configured")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "CURRENT\tNAME\tBASE URL\tUSERNAME\tTHEME")
	for _, name := range cfg.Names() {
		ctx := cfg.Contexts[name]
		marker := ""
		if name == cfg.CurrentContext {
			marker = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			marker, name, orDash(ctx.Fortlev.BaseURL), orDash(ctx.Fortlev.Username), orDash(ctx.Rendering.Theme))
	}
	return w.Flush()
}

func showContext(cmd *cobra.Command, args []string) error {
	cfg := getCliContext(cmd).Config
	ctx, err := cfg.GetCurrentContext()
	if err != nil {
		return err
	}
	path, _ := ConfigPath()

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Context:\t%s\n", cfg.CurrentContext)
	fmt.Fprintf(w, "Base URL:\t%s\n", orDash(ctx.Fortlev.BaseURL))
	fmt.Fprintf(w, "Username:\t%s\n", orDash(ctx.Fortlev.Username))
	fmt.Fprintf(w, "Theme:\t%s\n", orDash(ctx.Rendering.Theme))
	fmt.Fprintf(w, "Config file:\t%s\n", path)
	return w.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
