package main

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/app"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one gesture session in the foreground",
	Long: `Run opens the camera and controls the player for --mode until
Ctrl-C or the camera stops delivering frames.`,
	RunE: runSession,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runSession(cmd *cobra.Command, args []string) error {
	d, err := setup(cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ended := make(chan app.Event, 1)
	d.controller.Subscribe(app.PublisherFunc(func(e app.Event) {
		if e.Type == app.EventSessionEnded {
			ended <- e
		}
	}))

	info, err := d.controller.Start(d.cfg.Mode)
	if err != nil {
		return err
	}
	d.log.WithField("session", info.ID).Infof("%s session running, press Ctrl-C to stop", info.Mode.Title())

	var e app.Event
	select {
	case e = <-ended:
	case <-ctx.Done():
		if err := d.controller.Stop(d.cfg.Mode); err != nil && !errors.Is(err, app.ErrSessionNotRunning) {
			return err
		}
		e = <-ended
	}

	if !e.Success {
		return errors.New(e.Reason)
	}
	d.log.WithField("reason", e.Reason).Info("Session ended")
	return nil
}
