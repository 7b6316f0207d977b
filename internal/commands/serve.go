package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mwiater/panchakarma/internal/server"
)

// serveCmd exposes the answer engine over HTTP.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve POST /answer over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		engine, ix, err := openEngine(ctx)
		if err != nil {
			return err
		}
		defer engine.Close()

		return server.New(engine, ix.Manifest()).ListenAndServe(ctx, GetConfig().ListenAddr)
	},
}

func init() {
	serveCmd.Flags().String("listenAddr", ":8080", "address to listen on")
	_ = viper.BindPFlag("listenAddr", serveCmd.Flags().Lookup("listenAddr"))
	rootCmd.AddCommand(serveCmd)
}
