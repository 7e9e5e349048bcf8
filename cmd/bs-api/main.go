package main

import (
	"BotSpectra/internal/api"
	"BotSpectra/internal/config"
	"BotSpectra/internal/engine/classifier"
	"BotSpectra/internal/engine/manager"
	"BotSpectra/internal/engine/processor"
	"BotSpectra/internal/metrics"
	"BotSpectra/internal/notification"
	"context"
	"flag"
	"log"
	"math/rand/v2"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// serviceName is the gRPC health service reporting analysis availability.
const serviceName = "botspectra.Analyzer"

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to the configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	rnd := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), uint64(os.Getpid())))
	clf, err := classifier.New(cfg.Classifier, rnd)
	if err != nil {
		log.Fatalf("Failed to create classifier: %v", err)
	}
	notifier, closeNotifier, err := notification.New(cfg.Notifier)
	if err != nil {
		log.Fatalf("Failed to create notifier: %v", err)
	}
	defer closeNotifier()

	mgr, err := manager.NewManager(cfg, processor.New(clf, rnd), notifier, metrics.New(reg))
	if err != nil {
		log.Fatalf("Failed to create manager: %v", err)
	}

	// Health reports NOT_SERVING while a run holds the pipeline.
	healthServer := health.NewServer()
	healthServer.SetServingStatus(serviceName, healthpb.HealthCheckResponse_SERVING)
	mgr.OnChange(func(s manager.State) {
		status := healthpb.HealthCheckResponse_SERVING
		if s.Processing {
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
		healthServer.SetServingStatus(serviceName, status)
	})

	// Run gRPC server
	grpcServer := grpc.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	if cfg.API.GRPCListenAddr != "" {
		lis, err := net.Listen("tcp", cfg.API.GRPCListenAddr)
		if err != nil {
			log.Fatalf("Failed to listen on %s: %v", cfg.API.GRPCListenAddr, err)
		}
		go func() {
			log.Printf("gRPC health server starting on %s", cfg.API.GRPCListenAddr)
			if err := grpcServer.Serve(lis); err != nil {
				log.Fatalf("Failed to serve gRPC: %v", err)
			}
		}()
	}

	// Run HTTP server
	httpServer := &http.Server{
		Addr:              cfg.API.HTTPListenAddr,
		Handler:           api.NewRouter(mgr, reg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("HTTP API server starting on %s", cfg.API.HTTPListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Servers shutting down...")

	healthServer.Shutdown()
	mgr.Reset()
	grpcServer.GracefulStop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP server forced to shutdown: %v", err)
	}

	log.Println("All servers exited.")
}
