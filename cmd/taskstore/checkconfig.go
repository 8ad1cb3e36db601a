package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/girmesh03/Task-Manager-sub001/config"
	"github.com/girmesh03/Task-Manager-sub001/datastore"
	"github.com/girmesh03/Task-Manager-sub001/observe"
)

var errConfigInvalid = errors.New("configuration is invalid")

func newCheckConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-config",
		Short: "Validate the configuration without connecting",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("config")

			cfg, err := config.Load(cmd.Context(), path, nil)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("%w: %w", errConfigInvalid, err)
			}
			if _, err := datastore.DefaultRegistry.For(cfg.Datastore); err != nil {
				return fmt.Errorf("%w: %w", errConfigInvalid, err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "datastore:  %s\n", observe.RedactURI(cfg.Datastore.URI))
			fmt.Fprintf(out, "pool:       min %d, selection timeout %s\n",
				cfg.Datastore.MinPoolSize, cfg.Datastore.SelectionTimeout)
			fmt.Fprintf(out, "health:     every %s, timeout %s, threshold %d\n",
				cfg.Health.Interval, cfg.Health.Timeout, cfg.Health.FailureThreshold)
			fmt.Fprintln(out, "configuration ok")
			return nil
		},
	}
}
