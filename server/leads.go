package main

import (
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/brightsun/solarsite/internal/config"
	"github.com/brightsun/solarsite/internal/domain/entities"
	"github.com/brightsun/solarsite/internal/domain/services"
	"github.com/brightsun/solarsite/internal/infrastructure/database/postgres"
	"github.com/brightsun/solarsite/internal/pkg/idgen"
)

func newLeadsCommand(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leads",
		Short: "Lead management commands",
		Long:  "Commands for inspecting and recording sales leads directly in the database",
	}

	cmd.AddCommand(newLeadsListCommand(configPath))
	cmd.AddCommand(newLeadsCreateCommand(configPath))

	return cmd
}

func newLeadsListCommand(configPath *string) *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the most recent leads",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := openLeadService(cmd, *configPath)
			if err != nil {
				return err
			}
			defer closeFn()

			leads, total, err := svc.ListLeads(cmd.Context(), limit, offset)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCREATED\tNAME\tCONTACT\tCITY\tBILL\tSOURCE")
			for _, l := range leads {
				contact := l.Email
				if contact == "" {
					contact = l.Phone
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%.2f\t%s\n",
					l.ID, l.CreatedAt.Format("2006-01-02 15:04"), l.Name, contact, l.City, l.MonthlyBill, l.Source)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nShowing %d of %d lead(s)\n", len(leads), total)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of leads to show")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of leads to skip")
	return cmd
}

func newLeadsCreateCommand(configPath *string) *cobra.Command {
	var in entities.LeadInput

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Record a lead received outside the site (phone, event, referral)",
		Example: `  solarsite leads create --name "Maria Souza" --phone "(62) 99876-5432" --city Goiânia --state GO --source phone`,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := openLeadService(cmd, *configPath)
			if err != nil {
				return err
			}
			defer closeFn()

			lead, err := svc.CreateLead(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Lead created: %s\n", lead.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Name, "name", "", "Contact name (required)")
	cmd.Flags().StringVar(&in.Email, "email", "", "Contact email")
	cmd.Flags().StringVar(&in.Phone, "phone", "", "Contact phone")
	cmd.Flags().StringVar(&in.City, "city", "", "City")
	cmd.Flags().StringVar(&in.State, "state", "", "Two-letter state code")
	cmd.Flags().Float64Var(&in.MonthlyBill, "monthly-bill", 0, "Average monthly electricity bill")
	cmd.Flags().StringVar(&in.Message, "message", "", "Notes")
	cmd.Flags().StringVar(&in.Source, "source", "manual", "Where the lead came from")
	cmd.MarkFlagRequired("name")

	return cmd
}

// openLeadService wires a lead service straight to the database, without the HTTP layer
func openLeadService(cmd *cobra.Command, configPath string) (*services.LeadService, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := idgen.Initialize(cfg.IDGen.NodeID); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize ID generator: %w", err)
	}

	log := slog.Default()
	pgConn, err := openDatabase(cmd.Context(), cfg, log)
	if err != nil {
		return nil, nil, err
	}

	notifier, err := newNotifier(cfg, log)
	if err != nil {
		pgConn.Close()
		return nil, nil, fmt.Errorf("failed to initialize lead notifier: %w", err)
	}

	svc := services.NewLeadService(postgres.NewLeadRepository(pgConn.DB), notifier, log)
	return svc, func() { pgConn.Close() }, nil
}
