package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/climalyze/internal/gallery"
	"github.com/KaramelBytes/climalyze/internal/utils"
)

var (
	serveAddr   string
	serveOutDir string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the rendered charts in a captioned web gallery",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		addr, dir := c.Addr, c.VisualsDir
		if cmd.Flags().Changed("addr") {
			addr = serveAddr
		}
		if cmd.Flags().Changed("out") {
			dir = serveOutDir
		}
		srv, err := gallery.New(utils.ExpandHome(dir), gallery.NewCaptions(c.Captions))
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return srv.ListenAndServe(ctx, addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config, default :5000)")
	serveCmd.Flags().StringVarP(&serveOutDir, "out", "o", "", "directory of rendered visuals (overrides config)")
}
