package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/gitpulse/gitpulse/internal/audit"
	"github.com/gitpulse/gitpulse/internal/config"
	"github.com/gitpulse/gitpulse/internal/health"
	"github.com/gitpulse/gitpulse/internal/notify"
	"github.com/gitpulse/gitpulse/internal/target"
)

const defaultSchedule = "*/10 * * * *"

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the readiness chain on a schedule and notify on transitions",
	Long: "Daemon mode: runs one readiness round per schedule tick, appends status transitions " +
		"to the audit log, and sends notifications when the status changes. The config file is " +
		"reloaded when it changes on disk.",
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

		log, err := audit.Open(cfg.LogFile)
		if err != nil {
			return err
		}
		defer log.Close()

		w := &watcher{logger: logger, cfg: cfg, tc: tc, auditLog: log, last: "unknown"}

		schedule := cfg.Watch.Schedule
		if schedule == "" {
			schedule = defaultSchedule
		}
		c := cron.New()
		if _, err := c.AddFunc(schedule, func() { w.tick(ctx) }); err != nil {
			return fmt.Errorf("invalid schedule %q: %w", schedule, err)
		}

		if cfgFile != "" {
			fw, err := watchConfig(cfgFile, logger, w)
			if err != nil {
				return err
			}
			defer fw.Close()
		}

		logger.Info("watch started", "target", tc.Host, "schedule", schedule)
		w.tick(ctx)
		c.Start()
		<-ctx.Done()
		<-c.Stop().Done()
		logger.Info("watch stopped")
		return nil
	},
}

func init() {
	watchCmd.Flags().String("ssh-user", "", "SSH username")
	watchCmd.Flags().String("ssh-key", "", "SSH private key path")
	rootCmd.AddCommand(watchCmd)
}

// watcher holds the daemon's only mutable state: the last observed status.
type watcher struct {
	logger   *slog.Logger
	auditLog *audit.Log

	mu   sync.Mutex
	cfg  *config.Config
	tc   target.Context
	last string
}

// tick runs one readiness round and handles a status transition.
func (w *watcher) tick(ctx context.Context) {
	w.mu.Lock()
	cfg, tc, last := w.cfg, w.tc, w.last
	w.mu.Unlock()

	chain := health.NewChain(w.logger, readinessProbes(tc, cfg, false)...)
	report := chain.Run(ctx)
	current := string(report.Status)

	w.logger.Info("round complete", "status", current, "pass", report.Pass, "total", report.Total)
	if current == last {
		return
	}

	w.logger.Info("status transition", "from", last, "to", current)
	if err := w.auditLog.Transition(tc.Host, "watch", last, current, report.Pass, report.Total); err != nil {
		w.logger.Error("writing audit log failed", "error", err)
	}
	w.sendNotifications(cfg, tc, last, report)

	w.mu.Lock()
	w.last = current
	w.mu.Unlock()
}

func (w *watcher) sendNotifications(cfg *config.Config, tc target.Context, previous string, report *health.Report) {
	if len(cfg.Notify.Services) == 0 {
		return
	}

	var failures []string
	for _, pr := range report.Results {
		if !pr.Passed() && !pr.Skipped {
			failures = append(failures, fmt.Sprintf("%s: %s", pr.Name, pr.Reason))
		}
	}
	data := notify.TemplateData{
		Target:     tc.Host,
		Mode:       "watch",
		Previous:   previous,
		Current:    string(report.Status),
		Pass:       report.Pass,
		Total:      report.Total,
		Failures:   failures,
		StatusIcon: notify.StatusIcon(string(report.Status)),
	}

	targets, err := notify.ResolveTargets(cfg.Notify.Services, serviceDefs(cfg), cfg.Notify.Template, data)
	if err != nil {
		w.logger.Error("resolving notification targets failed", "error", err)
		return
	}
	for _, t := range targets {
		if err := notify.Send(t); err != nil {
			w.logger.Error("notification failed", "service", t.ServiceName, "error", err)
			continue
		}
		w.logger.Info("notification sent", "service", t.ServiceName)
	}
}

// reload swaps in a freshly loaded config. The target is rebuilt too, since
// the config may point somewhere new.
func (w *watcher) reload(ctx context.Context, path string) {
	cfg, err := config.Load(path)
	if err != nil {
		w.logger.Error("config reload failed, keeping previous config", "error", err)
		return
	}
	tc, err := resolveTarget(ctx, cfg, w.logger)
	if err != nil {
		w.logger.Error("config reload failed, keeping previous target", "error", err)
		return
	}

	w.mu.Lock()
	w.cfg = cfg
	w.tc = tc
	w.mu.Unlock()
	w.logger.Info("config reloaded", "path", path)
}

func watchConfig(path string, logger *slog.Logger, w *watcher) (*fsnotify.Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating config watcher: %w", err)
	}
	if err := fw.Add(path); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watching config: %w", err)
	}

	go func() {
		for {
			select {
			case event, ok := <-fw.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
					w.reload(context.Background(), path)
				}
			case err, ok := <-fw.Errors:
				if !ok {
					return
				}
				logger.Error("config watcher error", "error", err)
			}
		}
	}()
	return fw, nil
}

func serviceDefs(cfg *config.Config) map[string]notify.ServiceDef {
	defs := make(map[string]notify.ServiceDef, len(cfg.Services))
	for name, svc := range cfg.Services {
		defs[name] = notify.ServiceDef{URL: svc.URL, Params: svc.Params}
	}
	return defs
}
