package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/partner-review/internal/bootstrap"
	mysqlp "github.com/bryanwahyu/partner-review/internal/infra/db/mysql"
)

func thresholdCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "threshold",
		Short: "Show or change the confidence gate threshold",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Print the effective threshold",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := bootstrap.OpenStores(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.Close()
			v, err := st.Settings.ConfidenceThreshold(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%.2f\n", v)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set <value>",
		Short: "Store a new threshold (0.8, 80 or 80%)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := mysqlp.ParseThreshold(args[0])
			if err != nil {
				return err
			}
			st, err := bootstrap.OpenStores(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.Close()
			if st.MySQLSettings == nil {
				return errors.New("threshold is read from review.confidenceThreshold for this driver; edit the config file")
			}
			if err := st.MySQLSettings.SetConfidenceThreshold(cmd.Context(), v); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "threshold set to %.2f\n", v)
			return nil
		},
	})
	return cmd
}
