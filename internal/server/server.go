package server

import (
	"log"
	"net/http"
	"time"

	"github.com/gradeworks/omr-engine/internal/classifier"
	"github.com/gradeworks/omr-engine/internal/config"
	"github.com/gradeworks/omr-engine/internal/omr"
)

// Server is the HTTP service wrapping the decoding engine.
type Server struct {
	cfg    *config.Config
	tuning omr.Config

	fetcher    *http.Client
	classifier *classifier.Client
}

// New builds a server from process configuration and resolved pipeline
// tuning. The classifier client is only constructed when a classifier URL
// is configured; without it the classifier strategy is rejected per request.
func New(cfg *config.Config, tuning omr.Config) (*Server, error) {
	s := &Server{
		cfg:     cfg,
		tuning:  tuning,
		fetcher: &http.Client{Timeout: cfg.FetchTimeout},
	}

	if cfg.ClassifierURL != "" {
		client, err := classifier.NewClient(cfg.ClassifierURL, nil)
		if err != nil {
			return nil, err
		}
		s.classifier = client
	}

	return s, nil
}

// Routes returns the service handler: the two endpoints behind a permissive
// CORS layer, so browser-held edge functions can call the service directly.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/process-omr", s.handleProcess)
	return withCORS(mux)
}

// Run starts the HTTP server and blocks until it exits.
func (s *Server) Run() error {
	srv := &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("OMR service listening on %s", srv.Addr)
	return srv.ListenAndServe()
}

// withCORS answers preflight requests and stamps permissive CORS headers on
// every response.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
