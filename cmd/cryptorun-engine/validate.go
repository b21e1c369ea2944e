package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cryptorun/engine/play"
)

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <play.yaml>",
		Short: "Compile a Play file and report any validation errors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := play.LoadPlay(args[0])
			if err != nil {
				return wrapExit(ExitCompileFailure, fmt.Errorf("validate: %w", err))
			}
			log.Info().
				Str("play_id", p.ID).
				Int("actions", len(p.Actions)).
				Int("features", len(p.Features)).
				Int("structures", len(p.Structures)).
				Msg("play compiled successfully")
			fmt.Printf("OK: %s (version %s) — %d features, %d structures, %d actions\n",
				p.ID, p.Version, len(p.Features), len(p.Structures), len(p.Actions))
			return nil
		},
	}
	return cmd
}
