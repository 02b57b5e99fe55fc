package service

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/ethereum/go-ethereum/log"

	"github.com/testops/spec-harness/metrics"
)

const (
	HealthzHost = "0.0.0.0"
	HealthzPort = "8080"

	MetricsHost = "0.0.0.0"
	MetricsPort = "7300"

	StatusHost = "0.0.0.0"
	StatusPort = "8090"
)

// Config overrides the default listen addresses. Empty fields keep the
// package defaults.
type Config struct {
	HealthzAddr string
	MetricsAddr string
	StatusAddr  string
}

type Service struct {
	Healthz *HealthzServer
	Metrics *MetricsServer
	Status  *StatusServer
	Tracker *RunTracker

	cfg Config
}

func New(cfg Config) *Service {
	if cfg.HealthzAddr == "" {
		cfg.HealthzAddr = net.JoinHostPort(HealthzHost, HealthzPort)
	}
	if cfg.MetricsAddr == "" {
		cfg.MetricsAddr = net.JoinHostPort(MetricsHost, MetricsPort)
	}
	if cfg.StatusAddr == "" {
		cfg.StatusAddr = net.JoinHostPort(StatusHost, StatusPort)
	}

	tracker := NewRunTracker()
	s := &Service{
		Healthz: &HealthzServer{},
		Metrics: &MetricsServer{},
		Status:  NewStatusServer(tracker),
		Tracker: tracker,
		cfg:     cfg,
	}
	return s
}

func (s *Service) Start(ctx context.Context) {
	log.Info("service starting")

	go func() {
		log.Info("starting healthz server", "addr", s.cfg.HealthzAddr)
		if err := s.Healthz.Start(ctx, s.cfg.HealthzAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("error starting healthz server", "err", err)
			metrics.RecordErrorDetails("error starting healthz server", err)
		}
	}()

	go func() {
		log.Info("starting metrics server", "addr", s.cfg.MetricsAddr)
		if err := s.Metrics.Start(ctx, s.cfg.MetricsAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("error starting metrics server", "err", err)
			metrics.RecordErrorDetails("error starting metrics server", err)
		}
	}()

	go func() {
		log.Info("starting status server", "addr", s.cfg.StatusAddr)
		if err := s.Status.Start(s.cfg.StatusAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("error starting status server", "err", err)
			metrics.RecordErrorDetails("error starting status server", err)
		}
	}()

	log.Info("service started")
}

func (s *Service) Shutdown() {
	log.Info("service shutting down")

	_ = s.Healthz.Shutdown()
	log.Info("healthz stopped")

	_ = s.Metrics.Shutdown()
	log.Info("metrics stopped")

	_ = s.Status.Shutdown()
	log.Info("status stopped")

	log.Info("service stopped")
}
