package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gitpulse/gitpulse/internal/audit"
	"github.com/gitpulse/gitpulse/internal/config"
	"github.com/gitpulse/gitpulse/internal/health"
	"github.com/gitpulse/gitpulse/internal/poll"
	"github.com/gitpulse/gitpulse/internal/probe"
	"github.com/gitpulse/gitpulse/internal/render"
	"github.com/gitpulse/gitpulse/internal/target"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Poll a server's readiness chain until healthy or retries run out",
	Long: "Runs the gating readiness chain (HTTP, SSH, services, web interface, external URL, " +
		"system resources) and repeats it until every check passes or the retry budget is spent. " +
		"Each check only runs when the one before it passed.",
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

		quick, _ := cmd.Flags().GetBool("quick")
		chain := health.NewChain(logger, readinessProbes(tc, cfg, quick)...)

		policy := poll.Policy{MaxAttempts: cfg.Poll.Retries, Interval: cfg.Poll.Interval.Duration}
		logger.Info("polling readiness", "target", tc.Host, "retries", policy.MaxAttempts,
			"interval", policy.Interval, "window", policy.Window(), "quick", quick)

		outcome, pollErr := poll.Run(ctx, logger, policy, chain.Run)
		if pollErr != nil && !errors.Is(pollErr, poll.ErrCancelled) {
			return pollErr
		}

		r := render.New(noColor)
		if outcome.Report != nil {
			fmt.Print(r.HealthReport(outcome.Report, outcome.Attempts))
			recordTransition(logger, cfg, tc, "health", outcome.Report)
		}

		if errors.Is(pollErr, poll.ErrCancelled) {
			fmt.Println("overall: CANCELLED")
			os.Exit(exitCancelled)
		}
		os.Exit(exitCodeFor(outcome.Report.Status))
		return nil
	},
}

func init() {
	healthCmd.Flags().Bool("quick", false, "connectivity checks only (HTTP and SSH)")
	healthCmd.Flags().String("ssh-user", "", "SSH username")
	healthCmd.Flags().String("ssh-key", "", "SSH private key path")
	rootCmd.AddCommand(healthCmd)
}

// readinessProbes builds the gating chain for one target. Order matters:
// each probe only runs when the previous one passed.
func readinessProbes(tc target.Context, cfg *config.Config, quick bool) []probe.Probe {
	runner := &probe.SSHRunner{Host: tc.Host, User: tc.SSHUser, KeyPath: tc.SSHKeyPath}

	probes := []probe.Probe{
		&probe.HTTPProbe{
			ProbeName:    "http_connectivity",
			URL:          tc.BaseURL(),
			FailPatterns: []string{"422"},
		},
		&probe.RemoteCommandProbe{
			ProbeName:      "ssh_connectivity",
			Runner:         runner,
			Command:        `echo "SSH connection successful"`,
			SuccessPattern: "SSH connection successful",
		},
	}
	if quick {
		return probes
	}

	probes = append(probes,
		&probe.ServiceStatusProbe{
			ProbeName: "gitlab_services",
			Runner:    runner,
		},
		&probe.HTTPProbe{
			ProbeName: "web_interface",
			URL:       tc.BaseURL() + "/users/sign_in",
			Accept:    []int{200},
			WantBody:  "GitLab",
		},
		&probe.RemoteCommandProbe{
			ProbeName:      "external_url",
			Runner:         runner,
			Command:        `sudo grep "^external_url" /etc/gitlab/gitlab.rb`,
			SuccessPattern: tc.Host,
		},
		&probe.RemoteCommandProbe{
			ProbeName: "system_resources",
			Runner:    runner,
			Command:   "df -h / && free -h",
		},
	)

	for _, check := range cfg.Checks {
		probes = append(probes, &probe.CommandProbe{
			ProbeName:      check.Name,
			Command:        check.Command,
			Args:           check.Args,
			SuccessPattern: check.Pattern,
			Timeout:        check.Timeout.Duration,
		})
	}
	return probes
}

// recordTransition appends the final status to the audit log. Log failures
// are reported but never change the exit code.
func recordTransition(logger *slog.Logger, cfg *config.Config, tc target.Context, mode string, report *health.Report) {
	log, err := audit.Open(cfg.LogFile)
	if err != nil {
		logger.Error("opening audit log failed", "error", err)
		return
	}
	defer log.Close()
	if err := log.Transition(tc.Host, mode, "unknown", string(report.Status), report.Pass, report.Total); err != nil {
		logger.Error("writing audit log failed", "error", err)
	}
}

func exitCodeFor(status health.Status) int {
	switch status {
	case health.StatusHealthy:
		return exitHealthy
	case health.StatusWarning:
		return exitWarning
	default:
		return exitUnhealthy
	}
}
