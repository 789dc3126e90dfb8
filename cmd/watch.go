package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/spaghettifunk/anima-io/engine/assets"
	"github.com/spaghettifunk/anima-io/engine/core"
)

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch KEY...",
		Short: "Load assets and reload them whenever their files change",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEngine(cmd)
			if err != nil {
				return err
			}
			defer e.Shutdown()

			am, err := e.Watch()
			if err != nil {
				return err
			}

			// signal channel to capture system calls
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
			defer stop()

			if err := am.Load(ctx, assets.Keys(args...)...); err != nil {
				return err
			}
			core.LogInfo("watching %d assets, press ctrl+c to stop", len(am.Keys()))
			return watchLoop(ctx, cmd, am)
		},
	}
}

func watchLoop(ctx context.Context, cmd *cobra.Command, am *assets.AssetManager) error {
	out := cmd.OutOrStdout()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-am.Events():
			if !ok {
				return nil
			}
			if ev.Err != nil {
				fmt.Fprintf(out, "%s %s failed: %s\n", ev.Op, ev.Key, ev.Err)
				continue
			}
			b, err := am.Get(ev.Key)
			if err != nil {
				continue
			}
			fmt.Fprintf(out, "%s %s (%d bytes)\n", ev.Op, ev.Key, len(b))
		}
	}
}
