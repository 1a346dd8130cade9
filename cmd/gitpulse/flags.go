package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/gitpulse/gitpulse/internal/config"
	"github.com/gitpulse/gitpulse/internal/target"
)

// applyFlags overlays CLI flag values onto the config. Only flags explicitly
// set by the user are applied, so config-file values survive.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("target") {
		cfg.Target.Host, _ = flags.GetString("target")
	}
	if flags.Changed("retries") {
		cfg.Poll.Retries, _ = flags.GetInt("retries")
	}
	if flags.Changed("interval") {
		seconds, _ := flags.GetInt("interval")
		cfg.Poll.Interval = config.Duration{Duration: time.Duration(seconds) * time.Second}
	}
	if flags.Changed("log-file") {
		cfg.LogFile, _ = flags.GetString("log-file")
	}
	if flags.Changed("ssh-user") {
		cfg.Target.SSHUser, _ = flags.GetString("ssh-user")
	}
	if flags.Changed("ssh-key") {
		cfg.Target.SSHKey, _ = flags.GetString("ssh-key")
	}
	if flags.Changed("token") {
		cfg.Target.APIToken, _ = flags.GetString("token")
	}
	if flags.Changed("project") {
		cfg.Target.Project, _ = flags.GetString("project")
	}
}

// resolveTarget builds the immutable target context, discovering the host
// from EC2 tags when none was given and discovery is configured. All
// validation happens here, before any retry loop starts.
func resolveTarget(ctx context.Context, cfg *config.Config, logger *slog.Logger) (target.Context, error) {
	host := cfg.Target.Host
	if host == "" && cfg.Discovery.TagValue != "" {
		logger.Info("no target given, discovering from instance tags",
			"region", cfg.Discovery.Region, "tag", cfg.Discovery.TagKey+"="+cfg.Discovery.TagValue)
		discoverer, err := target.NewDiscoverer(ctx, cfg.Discovery.Region)
		if err != nil {
			return target.Context{}, err
		}
		tagKey := cfg.Discovery.TagKey
		if tagKey == "" {
			tagKey = "Name"
		}
		host, err = discoverer.DiscoverHost(ctx, tagKey, cfg.Discovery.TagValue)
		if err != nil {
			return target.Context{}, err
		}
		logger.Info("discovered target", "host", host)
	}
	if host == "" {
		return target.Context{}, fmt.Errorf("no target: pass --target or configure discovery")
	}

	tc := target.Context{
		Host:       host,
		Scheme:     cfg.Target.Scheme,
		SSHUser:    cfg.Target.SSHUser,
		SSHKeyPath: cfg.Target.SSHKey,
		APIToken:   cfg.Target.APIToken,
		Project:    cfg.Target.Project,
	}
	if err := tc.Validate(); err != nil {
		return target.Context{}, err
	}
	return tc, nil
}
