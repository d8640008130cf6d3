package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/brightsun/solarsite/internal/domain/entities"
	"github.com/brightsun/solarsite/internal/fortlev"
)

func newCatalogCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Print the partner component catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			kits, err := newKitService(cmd)
			if err != nil {
				return err
			}

			resp, err := kits.Catalog(cmd.Context())
			if err != nil {
				return err
			}
			if err := printJSON(cmd.OutOrStdout(), resp.BodyOrNull()); err != nil {
				return err
			}
			return checkStatus(resp.StatusCode)
		},
	}
}

func newQuoteCommand() *cobra.Command {
	var (
		req     = entities.NewQuoteRequest()
		surface string
		city    string
		raw     bool
	)

	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Request PV kits for an installation",
		Example: `  # 5.5 kWp on a ceramic roof in Goiânia, single phase 220 V
  solarctl quote --power 5.5 --surface ceramico --city Goiânia

  # Three-phase 380 V, full partner response
  solarctl quote --power 12 --voltage 380 --phase 3 --raw`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if surface != "" {
				req.Surface = &surface
			}
			if city != "" {
				req.City = &city
			}

			kits, err := newKitService(cmd)
			if err != nil {
				return err
			}

			result, err := kits.Quote(cmd.Context(), req)
			if err != nil {
				return err
			}

			body := result.Raw
			if !raw {
				body, err = json.Marshal(result.PVKits)
				if err != nil {
					return fmt.Errorf("failed to encode kits: %w", err)
				}
			}
			if err := printJSON(cmd.OutOrStdout(), body); err != nil {
				return err
			}
			return checkStatus(result.StatusCode)
		},
	}

	cmd.Flags().Float64Var(&req.Power, "power", 0, "Installed power in kWp")
	cmd.Flags().StringVar(&req.Voltage, "voltage", entities.DefaultVoltage, "Grid voltage")
	cmd.Flags().Float64Var(&req.Phase, "phase", entities.DefaultPhase, "Number of grid phases")
	cmd.Flags().StringVar(&surface, "surface", "", "Mounting surface (omitted when empty)")
	cmd.Flags().StringVar(&city, "city", "", "Installation city (omitted when empty)")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the full partner response instead of the flattened kits")

	return cmd
}

func newDiagCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "diag",
		Short: "Report which partner settings are present",
		Long:  "Report, without revealing them, which of the partner base URL, username and password are configured.",
		RunE: func(cmd *cobra.Command, args []string) error {
			creds, err := currentCredentials(cmd)
			if err != nil {
				return err
			}
			p := creds.Presence()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SETTING\tSTATUS")
			fmt.Fprintf(w, "%s\t%s\n", fortlev.EnvBaseURL, presence(p.BaseURL))
			fmt.Fprintf(w, "%s\t%s\n", fortlev.EnvUsername, presence(p.Username))
			fmt.Fprintf(w, "%s\t%s\n", fortlev.EnvPassword, presence(p.Password))
			return w.Flush()
		},
	}
}

func presence(ok bool) string {
	if ok {
		return "set"
	}
	return "missing"
}

func printJSON(out io.Writer, body json.RawMessage) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, body, "", "  "); err != nil {
		return fmt.Errorf("failed to format response: %w", err)
	}
	buf.WriteByte('\n')
	_, err := buf.WriteTo(out)
	return err
}

func checkStatus(status int) error {
	if status < 200 || status > 299 {
		return fmt.Errorf("partner returned status %d", status)
	}
	return nil
}
