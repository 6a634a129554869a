package main

import (
	"fmt"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"connectrpc.com/grpchealth"
	"connectrpc.com/grpcreflect"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mrodz/fieldz/internal/scheduler"
	"github.com/mrodz/fieldz/internal/wire/schedulerv1/schedulerv1connect"
)

func setupServer(cfg *Config, services *Services) *http.Server {
	mux := http.NewServeMux()

	// Setup CORS middleware
	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})

	// Register the scheduler service behind auth
	schedulerPath, schedulerHandler := schedulerv1connect.NewSchedulerServiceHandler(
		services.Scheduler,
		connect.WithInterceptors(services.Auth),
	)
	mux.Handle(schedulerPath, schedulerHandler)

	// Standard gRPC health service for application-layer probes
	checker := grpchealth.NewStaticChecker(schedulerv1connect.SchedulerServiceName)
	mux.Handle(grpchealth.NewHandler(checker))

	// Setup reflection for grpcui/grpcurl
	reflector := grpcreflect.NewStaticReflector(schedulerv1connect.SchedulerServiceName)
	mux.Handle(grpcreflect.NewHandlerV1(reflector))
	mux.Handle(grpcreflect.NewHandlerV1Alpha(reflector))

	// Editor progress bridge
	mux.HandleFunc("/progress", services.Bridge.HandleProgress)

	// Plain health check endpoint for load balancers
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	handler := c.Handler(mux)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
		// streams run long; the per-stream deadline is enforced here
		WriteTimeout: scheduler.StreamDeadline,
	}

	if cfg.TLSCertFile != "" {
		// TLS termination enables native HTTP/2
		server.Handler = handler
	} else {
		server.Handler = h2c.NewHandler(handler, &http2.Server{
			IdleTimeout: scheduler.StreamIdleTimeout,
		})
	}

	return server
}
