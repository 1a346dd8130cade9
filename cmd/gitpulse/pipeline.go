package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gitpulse/gitpulse/internal/config"
	"github.com/gitpulse/gitpulse/internal/health"
	"github.com/gitpulse/gitpulse/internal/pipeline"
	"github.com/gitpulse/gitpulse/internal/poll"
	"github.com/gitpulse/gitpulse/internal/probe"
	"github.com/gitpulse/gitpulse/internal/render"
)

var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Check a project's CI setup and diagnose its latest pipeline",
	Long: "Runs the comprehensive check set (API, project, runners, pipelines) — every check " +
		"runs regardless of the others — then walks the latest pipeline's jobs and surfaces " +
		"actionable hints, most commonly \"no runner assigned\".",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := setupLogger()

		cfg, err := config.Resolve(cfgFile)
		if err != nil {
			return err
		}
		applyFlags(cmd, cfg)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		tc, err := resolveTarget(ctx, cfg, logger)
		if err != nil {
			return err
		}
		if tc.Project == "" {
			return fmt.Errorf("no project: pass --project or set target.project in config")
		}
		if tc.APIToken == "" {
			return fmt.Errorf("no API token: pass --token or set target.api_token in config")
		}

		client := pipeline.NewClient(tc.BaseURL(), tc.APIToken)

		probes := append([]probe.Probe{
			&probe.HTTPProbe{ProbeName: "http_connectivity", URL: tc.BaseURL()},
		}, pipeline.Checks(client, tc.Project)...)
		set := health.NewSet(logger, probes...)

		policy := poll.Policy{MaxAttempts: cfg.Poll.Retries, Interval: cfg.Poll.Interval.Duration}
		logger.Info("polling pipeline checks", "target", tc.Host, "project", tc.Project,
			"retries", policy.MaxAttempts, "interval", policy.Interval)

		outcome, pollErr := poll.Run(ctx, logger, policy, set.Run)
		if pollErr != nil && !errors.Is(pollErr, poll.ErrCancelled) {
			return pollErr
		}

		r := render.New(noColor)
		if outcome.Report != nil {
			fmt.Print(r.HealthReport(outcome.Report, outcome.Attempts))
			recordTransition(logger, cfg, tc, "pipeline", outcome.Report)
		}
		if errors.Is(pollErr, poll.ErrCancelled) {
			fmt.Println("overall: CANCELLED")
			os.Exit(exitCancelled)
		}

		inspector := pipeline.NewInspector(client, tc.Project, logger)
		inspection := inspector.Inspect(ctx)
		fmt.Print(r.PipelineReport(inspection))

		code := exitCodeFor(outcome.Report.Status)
		if code == exitHealthy && !inspection.Retrieved {
			code = exitWarning
		}
		os.Exit(code)
		return nil
	},
}

func init() {
	pipelineCmd.Flags().String("project", "", "project path (group/name) or numeric id")
	pipelineCmd.Flags().String("token", "", "API token")
	rootCmd.AddCommand(pipelineCmd)
}
