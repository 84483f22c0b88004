package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	appsub "github.com/bryanwahyu/partner-review/internal/application/submissions"
	"github.com/bryanwahyu/partner-review/internal/bootstrap"
	domain "github.com/bryanwahyu/partner-review/internal/domain/submissions"
)

func submissionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "submissions",
		Aliases: []string{"subs"},
		Short:   "Query submissions",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List submissions, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, closeFn, err := openService(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			q, _ := cmd.Flags().GetString("query")
			limit, _ := cmd.Flags().GetInt("limit")
			subs, err := svc.ListAll(cmd.Context(), q, limit)
			if err != nil {
				return err
			}
			if asJSON(cmd) {
				return printJSON(cmd, subs)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tPARTNER\tSTATUS\tSUBMITTED\tPASS/FAIL/PENDING")
			for _, s := range subs {
				c := s.Counts()
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d/%d/%d\n",
					s.ID, s.PartnerName, s.Status, s.SubmittedAt.Format("2006-01-02 15:04"), c.Passed, c.Failed, c.Pending)
			}
			return tw.Flush()
		},
	}
	list.Flags().StringP("query", "q", "", "free-text filter")
	list.Flags().Int("limit", 50, "maximum rows (0 = all)")
	list.Flags().String("output", "table", "output format (table, json)")

	report := &cobra.Command{
		Use:   "report <id>",
		Short: "Print the validation report of one submission",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := openService(cmd)
			if err != nil {
				return err
			}
			defer closeFn()
			rep, err := svc.Report(cmd.Context(), domain.SubmissionID(args[0]))
			if err != nil {
				return err
			}
			return printJSON(cmd, rep)
		},
	}

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Count submissions per status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, closeFn, err := openService(cmd)
			if err != nil {
				return err
			}
			defer closeFn()
			counts, err := svc.StatusCounts(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, counts)
		},
	}

	cmd.AddCommand(list, report, stats)
	return cmd
}

func openService(cmd *cobra.Command) (*appsub.Service, func(), error) {
	st, err := bootstrap.OpenStores(cmd.Context(), cfg)
	if err != nil {
		return nil, nil, err
	}
	svc := &appsub.Service{
		Repo:               st.Repo,
		Outputs:            st.Outputs,
		Settings:           st.Settings,
		Audit:              st.Audit,
		Policy:             cfg.IntakePolicy(),
		MaxConflictRetries: cfg.Review.MaxConflictRetries,
		PageSize:           cfg.Review.PageSize,
	}
	return svc, func() { _ = st.Close() }, nil
}

func asJSON(cmd *cobra.Command) bool {
	out, _ := cmd.Flags().GetString("output")
	return out == "json"
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
