package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/uni-matcher/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the recommendation HTTP API",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", "", "address to listen on (default from server.listen)")

	viper.BindPFlag("server.listen", serveCmd.Flags().Lookup("listen"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config, logger, m := prepare(ctx)

	logger.Info("starting the uni-matcher api", zap.String("version", resolveVersion()))

	srv, err := server.New(m, config.Server, resolveVersion(), logger)
	if err != nil {
		logger.Fatal("creating a server", zap.Error(err))
	}

	if err := srv.Run(ctx); err != nil {
		logger.Fatal("serving", zap.Error(err))
	}

	logger.Info("exiting", zap.String("reason", "server stopped"))
}
