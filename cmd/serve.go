package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/interview-screener/internal/interview"
	"github.com/spigell/interview-screener/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the interview HTTP API",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", "", "address to listen on (default is :8080)")

	viper.BindPFlag("server.listen", serveCmd.Flags().Lookup("listen"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, config := bootstrap("serve")
	defer logger.Sync()

	d, err := newDeps(ctx, config, logger)
	if err != nil {
		logger.Fatal("connecting to backends", zap.Error(err))
	}
	defer d.Close(context.Background())

	questions, err := d.loadCatalog(ctx)
	if err != nil {
		logger.Fatal("loading the question catalog", zap.Error(err))
	}

	logger.Info("question catalog loaded",
		zap.String("source", config.Catalog.Source),
		zap.Int("questions", questions.Len()),
	)

	evaluator, err := d.evaluator(ctx)
	if err != nil {
		logger.Fatal("creating the answer evaluator", zap.Error(err))
	}

	dispatcher, err := d.dispatcher()
	if err != nil {
		logger.Fatal("configuring result delivery", zap.Error(err))
	}

	hub := server.NewHub(logger)
	go hub.Run(ctx)

	var finalizer interview.Finalizer
	if dispatcher != nil {
		finalizer = dispatcher

		events, unsubscribe := dispatcher.Subscribe(64)
		defer unsubscribe()
		go hub.Forward(ctx, events)
	}

	container := &server.Container{
		Machine:   interview.NewMachine(questions, evaluator, finalizer, logger),
		Sessions:  d.sessionStore(),
		Results:   d.results,
		Dashboard: d.dashboard,
		Hub:       hub,
		Logger:    logger,
	}

	srv := &http.Server{
		Addr:              config.Server.Listen,
		Handler:           server.NewRouter(container),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
	}

	if dispatcher != nil {
		logger.Info("waiting for pending result deliveries")
		dispatcher.Wait()
	}
}
