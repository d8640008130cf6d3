package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/brightsun/solarsite/internal/domain/services"
	"github.com/brightsun/solarsite/internal/fortlev"
	"github.com/brightsun/solarsite/internal/pkg/logger"
)

type contextKey string

const cliContextKey contextKey = "cliContext"

// CliContext is shared by every subcommand of one invocation
type CliContext struct {
	Config         *Config
	Logger         *slog.Logger
	PromptPassword bool
}

// logFlags mirrors the server's logging flags, with quieter defaults
type logFlags struct {
	level        string
	file         string
	toStderr     bool
	alsoToStderr bool
	format       string
}

func (f *logFlags) register(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.StringVar(&f.level, "log-level", "warn", "Log level (debug, info, warn, error)")
	pf.StringVar(&f.file, "log-file", "", "Log file path (if specified, logs to file instead of stderr)")
	pf.BoolVar(&f.toStderr, "logtostderr", false, "Log to stderr (default behavior unless --log-file specified)")
	pf.BoolVar(&f.alsoToStderr, "alsologtostderr", false, "Log to both file and stderr")
	pf.StringVar(&f.format, "log-format", "text", "Log format (text, json)")
}

// install builds the logger and makes it the slog default
func (f *logFlags) install() (*slog.Logger, error) {
	l, err := logger.SetupLogger(logger.Config{
		Level:         logger.ParseLevel(f.level),
		LogFile:       f.file,
		LogToStderr:   f.toStderr || f.file == "",
		AlsoLogStderr: f.alsoToStderr,
		Format:        f.format,
	})
	if err != nil {
		return nil, err
	}
	slog.SetDefault(l)
	return l, nil
}

// NewRootCommand creates the solarctl command tree
func NewRootCommand() *cobra.Command {
	var (
		cc    CliContext
		flags logFlags
	)

	rootCmd := &cobra.Command{
		Use:   "solarctl",
		Short: "Operator CLI for the solar kit partner API",
		Long: `solarctl talks to the partner API with the same client the site uses.
It browses the component catalog, requests kit quotes and previews blog posts.`,
		SilenceUsage:  true,
		SilenceErrors: true, // main prints the error
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := flags.install()
			if err != nil {
				return fmt.Errorf("failed to setup logging: %w", err)
			}
			cc.Logger = logger.WithComponent(l, "cli")

			cfg, err := LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			cc.Config = cfg
			cc.Logger.Debug("CLI started", "command", cmd.CommandPath(), "context", cfg.CurrentContext)

			cmd.SetContext(context.WithValue(cmd.Context(), cliContextKey, &cc))
			return nil
		},
	}

	rootCmd.PersistentFlags().BoolVar(&cc.PromptPassword, "prompt-password", false,
		"Prompt for the partner password when FORTLEV_PASSWORD is not set")
	flags.register(rootCmd)

	rootCmd.AddCommand(
		newConfigCommand(),
		newCatalogCommand(),
		newQuoteCommand(),
		newDiagCommand(),
		newBlogCommand(),
	)

	return rootCmd
}

func getCliContext(cmd *cobra.Command) *CliContext {
	return cmd.Context().Value(cliContextKey).(*CliContext)
}

// currentCredentials resolves the partner credentials for the active context
func currentCredentials(cmd *cobra.Command) (fortlev.Credentials, error) {
	cc := getCliContext(cmd)
	current, err := cc.Config.GetCurrentContext()
	if err != nil {
		cc.Logger.Debug("no usable context, using environment only", "error", err)
	}
	return resolveCredentials(current, cc.PromptPassword, os.Stdin, cmd.ErrOrStderr())
}

// newKitService builds an authenticated partner client for one invocation
func newKitService(cmd *cobra.Command) (*services.KitService, error) {
	creds, err := currentCredentials(cmd)
	if err != nil {
		return nil, err
	}
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	cc := getCliContext(cmd)
	client := fortlev.New(creds, fortlev.WithLogger(cc.Logger))
	return services.NewKitService(client, "", "", cc.Logger), nil
}
