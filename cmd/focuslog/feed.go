package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/focuslog/focuslog/internal/focus/feed"
	"github.com/focuslog/focuslog/internal/ui"
	"github.com/spf13/cobra"
)

var feedCmd = &cobra.Command{
	Use:     "feed",
	GroupID: "data",
	Short:   "Serve stored sessions over HTTP and WebSocket",
	Long: `Start the live feed server on localhost.

Endpoints:
  /ws        WebSocket stream of store statistics
  /sessions  JSON list of sessions (?from=&to=, RFC 3339 or epoch millis)
  /health    health check`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		port, _ := cmd.Flags().GetInt("port")
		if !cmd.Flags().Changed("port") && a.cfg.Feed.Port > 0 {
			port = a.cfg.Feed.Port
		}

		store, err := a.openReadyStore()
		if err != nil {
			return err
		}
		defer store.Close()

		server := feed.NewServer(feed.Config{Port: port, Sessions: store, Logger: a.logger})
		if err := server.Start(); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s Feed listening on http://%s\n", ui.RenderAccent("●"), server.Addr())
		fmt.Fprintf(out, "   WebSocket: ws://%s/ws\n", server.Addr())
		fmt.Fprintf(out, "   Sessions: http://%s/sessions\n", server.Addr())
		fmt.Fprintf(out, "\nPress Ctrl+C to stop\n")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		<-ctx.Done()

		fmt.Fprintf(out, "\n%s Shutting down feed\n", ui.RenderWarn("⚠"))
		return server.Stop()
	},
}

func init() {
	feedCmd.Flags().IntP("port", "p", 8787, "Port to listen on")
	rootCmd.AddCommand(feedCmd)
}
