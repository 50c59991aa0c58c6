package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/tray"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and session launcher",
	Long: `Serve starts the HTTP API for starting and stopping sessions, the
/metrics endpoint and the /api/events stream. With --tray a system tray menu
launches YouTube and OTT sessions as well.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":8080", "Address to listen on")
	serveCmd.Flags().Bool("tray", false, "Show the system tray launcher")
}

func runServe(cmd *cobra.Command, args []string) error {
	d, err := setup(cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := server.NewEventHub(d.log)
	d.controller.Subscribe(hub)

	srv := server.New(server.Config{
		Controller: d.controller,
		Store:      d.store,
		Events:     hub,
		Logger:     d.log,
	})

	if !d.cfg.Server.Tray {
		return srv.ListenAndServe(ctx, d.cfg.Server.Addr)
	}

	t := tray.New(d.controller, d.log)
	d.controller.Subscribe(t)
	t.OnQuit(stop)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe(ctx, d.cfg.Server.Addr)
		t.Quit()
	}()

	// The tray owns the main goroutine until Quit.
	t.Run()
	stop()
	return <-errCh
}
