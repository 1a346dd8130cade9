package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gitpulse/gitpulse/internal/config"
	"github.com/gitpulse/gitpulse/internal/notify"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration without running any checks",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Resolve(cfgFile)
		if err != nil {
			return err
		}
		applyFlags(cmd, cfg)

		for name, svc := range cfg.Services {
			t := notify.Target{ServiceName: name, URL: svc.URL}
			if err := notify.Validate(t); err != nil {
				return err
			}
		}

		fmt.Printf("config OK: target=%q retries=%d interval=%s services=%d extra_checks=%d\n",
			cfg.Target.Host, cfg.Poll.Retries, cfg.Poll.Interval.Duration, len(cfg.Services), len(cfg.Checks))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
