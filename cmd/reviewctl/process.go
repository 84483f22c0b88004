package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/bryanwahyu/partner-review/internal/application/analysis"
	"github.com/bryanwahyu/partner-review/internal/bootstrap"
	domain "github.com/bryanwahyu/partner-review/internal/domain/submissions"
	openaiClient "github.com/bryanwahyu/partner-review/internal/infra/ai/openai"
	"github.com/bryanwahyu/partner-review/internal/infra/catalog"
)

func processCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process [id...]",
		Short: "Run the AI analysis for Pending submissions",
		Long: "Runs the analysis synchronously for the given submissions, or for every\n" +
			"Pending submission with --pending. Submissions that fail stay Pending.",
		RunE: func(cmd *cobra.Command, args []string) error {
			all, _ := cmd.Flags().GetBool("pending")
			if len(args) == 0 && !all {
				return errors.New("pass submission ids or --pending")
			}
			if cfg.OpenAI.APIKey == "" {
				return errors.New("openai.apiKey (or OPENAI_API_KEY) is required")
			}

			svc, closeFn, err := openService(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			ids := make([]domain.SubmissionID, 0, len(args))
			for _, a := range args {
				ids = append(ids, domain.SubmissionID(a))
			}
			if all {
				for sub, err := range svc.ListSubmissions(cmd.Context(), "") {
					if err != nil {
						return err
					}
					if sub.Status == domain.StatusPending {
						ids = append(ids, sub.ID)
					}
				}
			}
			if len(ids) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no pending submissions")
				return nil
			}

			blobs, err := bootstrap.OpenBlobs(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			cat, err := catalog.Load(cfg.CatalogPath)
			if err != nil {
				return err
			}
			svc.Blobs = blobs.Store
			p := &analysis.Pipeline{
				Submissions: svc,
				Blobs:       blobs.Store,
				Outputs:     svc.Outputs,
				AI:          openaiClient.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model),
				Catalog:     cat,
			}

			bar := progressbar.NewOptions(len(ids),
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionSetDescription("analysing submissions"),
				progressbar.OptionShowCount(),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowElapsedTimeOnFinish(),
			)
			failed := 0
			for _, id := range ids {
				if err := runOne(cmd.Context(), p, id); err != nil {
					failed++
					slog.Error("analysis failed", "submission_id", id, "error", err)
				}
				_ = bar.Add(1)
			}
			_ = bar.Finish()
			fmt.Fprintf(cmd.OutOrStdout(), "\nprocessed %d, failed %d\n", len(ids)-failed, failed)
			if failed > 0 {
				return fmt.Errorf("%d submissions failed analysis", failed)
			}
			return nil
		},
	}
	cmd.Flags().Bool("pending", false, "process every Pending submission")
	return cmd
}

func runOne(ctx context.Context, p *analysis.Pipeline, id domain.SubmissionID) error {
	ctx, cancel := context.WithTimeout(ctx, cfg.OpenAI.Timeout)
	defer cancel()
	_, err := p.Run(ctx, id)
	return err
}
