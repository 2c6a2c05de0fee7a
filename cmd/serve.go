package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sntry/leadgen-cli/internal/addr"
	"github.com/sntry/leadgen-cli/internal/cleaner"
	"github.com/sntry/leadgen-cli/internal/compliance"
	"github.com/sntry/leadgen-cli/internal/fusion"
	"github.com/sntry/leadgen-cli/internal/model"
	"github.com/sntry/leadgen-cli/pkg/crm"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for the pipeline stages",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		var source fusion.RelationshipSource
		if cfg.Fusion.CustomerCSV != "" {
			s, err := crm.LoadMemorySource(cfg.Fusion.CustomerCSV)
			if err != nil {
				return err
			}
			source = s
		}
		scorer, err := newLeadScorer(source)
		if err != nil {
			return err
		}

		api := &apiServer{
			gate:   newGate(),
			scorer: scorer,
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           api.router(cfg.Server.AllowedOrigins),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				zap.L().Warn("server shutdown", zap.Error(err))
			}
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// apiServer exposes the pipeline stages over HTTP.
type apiServer struct {
	gate   *compliance.Gate
	scorer *fusion.Scorer
}

func (a *apiServer) router(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/addresses/parse", a.handleParse)
		r.Post("/records/clean", a.handleClean)
		r.Post("/compliance/session", a.handleCompliance)
		r.Post("/leads/score", a.handleLeads)
	})

	return r
}

func (a *apiServer) handleParse(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Addresses []string `json:"addresses"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Addresses) == 0 {
		respondError(w, http.StatusBadRequest, "addresses is required")
		return
	}

	parsed, err := addr.StandardizeBatch(r.Context(), req.Addresses)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "address parsing failed")
		return
	}

	results := make([]parseResult, len(parsed))
	for i, pa := range parsed {
		ok, issues := addr.Validate(pa)
		score := addr.CompletenessScore(pa)
		results[i] = parseResult{
			Input:      req.Addresses[i],
			Address:    pa,
			Valid:      &ok,
			Issues:     issues,
			Score:      &score,
			Candidates: addr.GeocodingCandidates(pa),
		}
	}
	respondJSON(w, http.StatusOK, results)
}

func (a *apiServer) handleClean(w http.ResponseWriter, r *http.Request) {
	var raws []model.BusinessRecord
	if err := json.NewDecoder(r.Body).Decode(&raws); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cleaned, err := cleaner.CleanBatch(r.Context(), raws)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "cleaning failed")
		return
	}
	respondJSON(w, http.StatusOK, cleaned)
}

func (a *apiServer) handleCompliance(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URLs []string `json:"urls"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.URLs) == 0 {
		respondError(w, http.StatusBadRequest, "urls is required")
		return
	}

	respondJSON(w, http.StatusOK, a.gate.CheckSession(r.Context(), req.URLs))
}

func (a *apiServer) handleLeads(w http.ResponseWriter, r *http.Request) {
	var records []model.CleanedBusinessRecord
	if err := json.NewDecoder(r.Body).Decode(&records); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	leads, err := a.scorer.Score(r.Context(), records)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "scoring failed")
		return
	}
	respondJSON(w, http.StatusOK, leads)
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("write response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
