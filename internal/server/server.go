package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"parking-core/internal/logging"
	"parking-core/internal/parking"
)

type Server struct {
	httpServer *http.Server
	handler    *Handler
	hub        *Hub
	stopHub    context.CancelFunc
}

func NewServer(port string, lot *parking.InstrumentedLot, telemetry *parking.TelemetryProvider, serviceName string) *Server {
	handler := NewHandler(lot, serviceName)

	hub := NewHub()
	lot.OnChange(hub.Publish)
	hub.Publish(lot.Lot.Snapshot())

	hubCtx, stopHub := context.WithCancel(context.Background())
	go hub.Run(hubCtx)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		parking.NewLotCollector(lot.Lot),
	)

	r := chi.NewRouter()

	r.Use(RecoveryMiddleware)
	r.Use(TracingMiddleware(serviceName, telemetry.TracerProvider()))
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)
	r.Use(CORSMiddleware)

	r.Get("/health", handler.HealthCheck)
	r.Get("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}).ServeHTTP)
	r.Get("/ws", hub.ServeWS)

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", handler.LegacyStatus)
		r.Get("/snapshot", handler.GetSnapshot)
		r.Post("/park", handler.ParkVehicle)
		r.Post("/remove", handler.RemoveVehicle)
		r.Post("/slots/{slot}/park", handler.ParkAtSlot)
		r.Post("/slots/{slot}/leave", handler.LeaveSlot)
		r.Get("/find/{plate}", handler.FindByPlate)
	})

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		handler:    handler,
		hub:        hub,
		stopHub:    stopHub,
	}
}

func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Start() error {
	logging.Info(context.Background()).Str("addr", s.httpServer.Addr).Msg("starting HTTP server")
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info(ctx).Msg("shutting down HTTP server")
	s.stopHub()
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) GetAddress() string {
	return fmt.Sprintf("http://localhost%s", s.httpServer.Addr)
}
