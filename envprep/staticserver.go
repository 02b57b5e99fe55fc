package envprep

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/ethereum/go-ethereum/log"
	"github.com/rs/cors"
)

// FixtureServer serves static fixture files to running specs. Browser
// runners fetch cross-origin, so every response carries CORS headers. It
// binds a dynamic localhost port; the URL is exported to runners through
// SPEC_HARNESS_FIXTURE_URL.
type FixtureServer struct {
	dir string
	log log.Logger

	mu     sync.Mutex
	server *http.Server
	url    string
}

func NewFixtureServer(dir string, logger log.Logger) *FixtureServer {
	if logger == nil {
		logger = log.New()
	}
	return &FixtureServer{
		dir: dir,
		log: logger,
	}
}

func (s *FixtureServer) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server != nil {
		return fmt.Errorf("fixture server already started")
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("failed to bind fixture server: %w", err)
	}

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodHead},
	})
	server := &http.Server{
		Handler: c.Handler(http.FileServer(http.Dir(s.dir))),
	}

	s.server = server
	s.url = fmt.Sprintf("http://%s", ln.Addr().String())
	s.log.Info("Fixture server started", "url", s.url, "dir", s.dir)

	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("Fixture server failed", "error", err)
		}
	}()

	return nil
}

func (s *FixtureServer) Stop(ctx context.Context) error {
	s.mu.Lock()
	server := s.server
	s.server = nil
	s.mu.Unlock()

	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}

// URL returns the base URL of the running server, or empty before Start.
func (s *FixtureServer) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.url
}
