package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"brain-health-assessment/internal/app"
	apphttp "brain-health-assessment/internal/http"
	"brain-health-assessment/internal/observability"
)

const (
	healthServiceName = "brain.health.AssessmentService"
	shutdownTimeout   = 10 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve assessments over HTTP",
	Long: `Start the assessment gateway, the metrics endpoint and the gRPC
health service. SIGINT or SIGTERM stops all three.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := newApplication(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer application.Shutdown()

		if err := application.Start(); err != nil {
			return err
		}
		return serve(cmd.Context(), application)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context, application *app.Application) error {
	cfg := application.Cfg
	log := application.Logger.With().Str("component", "server").Logger()

	httpServer := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           apphttp.NewRouter(application),
		ReadHeaderTimeout: 10 * time.Second,
	}

	obsServer := observability.NewServer(
		cfg.Observability.MetricsAddr,
		application.Gatherer,
		application.Health.Check,
		log,
	)

	lis, err := net.Listen("tcp", ":"+cfg.Server.GRPCHealthPort)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(observability.UnaryServerInterceptor(application.Metrics, log)),
		grpc.StreamInterceptor(observability.StreamServerInterceptor(application.Metrics, log)),
	)

	// Register gRPC health check service
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(healthServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	// Enable gRPC reflection for debugging tools like grpcurl
	reflection.Register(grpcServer)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", cfg.Server.HTTPAddr).Msg("Assessment gateway started")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http serve failed: %w", err)
		}
		return nil
	})

	g.Go(obsServer.ListenAndServe)

	g.Go(func() error {
		log.Info().Str("port", cfg.Server.GRPCHealthPort).Msg("gRPC health service started")
		if err := grpcServer.Serve(lis); err != nil {
			return fmt.Errorf("grpc serve failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down servers")

		healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
		grpcServer.GracefulStop()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return errors.Join(
			httpServer.Shutdown(shutdownCtx),
			obsServer.Shutdown(shutdownCtx),
		)
	})

	return g.Wait()
}
