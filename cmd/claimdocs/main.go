package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/rowanrose/claimdocs/internal/app"
	"github.com/rowanrose/claimdocs/internal/config"
	"github.com/rowanrose/claimdocs/internal/model"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	rootCmd := newRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "claimdocs: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "claimdocs",
		Short: "Claim letter generation CLI",
		Long: `claimdocs drives the letter pipeline from the command line: generate the
authority and follow-up letters for a single case, or sweep every case still
waiting for its authority letter.`,
		SilenceUsage: true,
	}
	cmd.AddCommand(
		newGenerateCmd(),
		newPendingCmd(),
	)
	return cmd
}

func buildApp(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return app.Build(ctx, cfg)
}

func newGenerateCmd() *cobra.Command {
	var kind string
	var skipStatus bool
	cmd := &cobra.Command{
		Use:   "generate <caseId>",
		Short: "Generate letters for one case",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			caseID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid case id %q", args[0])
			}
			documentKind := model.DocumentKind(kind)
			if !documentKind.Valid() {
				return fmt.Errorf("unknown document kind %q", kind)
			}

			a, err := buildApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			res := a.Pipeline.Generate(ctx, model.GenerateRequest{
				CaseID:           caseID,
				DocumentKind:     documentKind,
				SkipStatusUpdate: skipStatus,
			})
			printResult(cmd, res)
			if res.Status == model.ResultError {
				return fmt.Errorf("generation failed: %s", res.Error)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", string(model.KindAuthorityLetter), "Document kind (AUTHORITY_LETTER or FOLLOWUP_LETTER)")
	cmd.Flags().BoolVar(&skipStatus, "skip-status", false, "Generate without touching the case status")
	return cmd
}

func newPendingCmd() *cobra.Command {
	var skipStatus bool
	cmd := &cobra.Command{
		Use:   "pending",
		Short: "Generate authority letters for every case still waiting for one",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := buildApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			ids, err := a.Repo.PendingCases(ctx)
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				cmd.Println("no pending cases")
				return nil
			}

			failed := 0
			for _, id := range ids {
				res := a.Pipeline.Generate(ctx, model.GenerateRequest{
					CaseID:           id,
					DocumentKind:     model.KindAuthorityLetter,
					SkipStatusUpdate: skipStatus,
				})
				printResult(cmd, res)
				if res.Status == model.ResultError {
					failed++
				}
				if ctx.Err() != nil {
					return ctx.Err()
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d pending cases failed", failed, len(ids))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipStatus, "skip-status", false, "Generate without touching case statuses")
	return cmd
}

func printResult(cmd *cobra.Command, res *model.GenerateResult) {
	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		cmd.Printf("case %d: %s\n", res.CaseID, res.Status)
		return
	}
	cmd.Println(string(out))
}
