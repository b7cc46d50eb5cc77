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
	"golang.org/x/time/rate"

	"github.com/clearcomply/assess-cli/internal/gap"
	"github.com/clearcomply/assess-cli/internal/match"
	"github.com/clearcomply/assess-cli/internal/model"
	"github.com/clearcomply/assess-cli/internal/scoring"
	"github.com/clearcomply/assess-cli/internal/store"
	"github.com/clearcomply/assess-cli/internal/strategy"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the scoring API",
	Long: `Expose the scoring pipeline over HTTP for the reporting UI.

All endpoints are pure reads over stored data except POST /score, which
recomputes and persists an assessment's risk score and findings.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           newRouter(s),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			zap.L().Info("serve: listening", zap.Int("port", cfg.Server.Port))
			errCh <- srv.ListenAndServe()
		}()

		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return eris.Wrap(err, "serve: shutdown")
			}
			return nil
		case err := <-errCh:
			if eris.Is(err, http.ErrServerClosed) {
				return nil
			}
			return eris.Wrap(err, "serve: listen")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// newRouter builds the chi router over the store. Split out of the command
// for handler tests.
func newRouter(s store.Store) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))
	r.Use(rateLimiter(rate.Limit(cfg.Server.RatePerSec), cfg.Server.RateBurst))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/assessments/{id}", func(r chi.Router) {
		r.Post("/score", scoreHandler(s))
		r.Get("/gaps", gapsHandler(s))
		r.Get("/matrix", matrixHandler(s))
		r.Get("/matches", matchesHandler(s))
	})

	return r
}

// rateLimiter applies a shared token bucket across all API callers.
func rateLimiter(limit rate.Limit, burst int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(limit, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func scoreHandler(s store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		a, err := s.GetAssessment(r.Context(), id)
		if err != nil {
			writeError(w, http.StatusNotFound, "assessment not found")
			return
		}

		score, err := scoring.AssessmentRiskScore(a.Answers)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}

		gaps, risks := gap.Derive(a.ID, a.Answers, cfg.Scoring)
		if err := s.ReplaceFindings(r.Context(), a.ID, gaps, risks); err != nil {
			zap.L().Error("serve: save findings", zap.String("assessment_id", a.ID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "persist findings")
			return
		}
		if err := s.CompleteWithScore(r.Context(), a.ID, score, cfg.Scoring.Hash()); err != nil {
			zap.L().Error("serve: save score", zap.String("assessment_id", a.ID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "persist score")
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"assessment_id": a.ID,
			"risk_score":    score,
			"gap_count":     len(gaps),
			"risk_count":    len(risks),
		})
	}
}

func gapsHandler(s store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		gaps, err := s.ListGaps(r.Context(), id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "list gaps")
			return
		}
		risks, err := s.ListRisks(r.Context(), id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "list risks")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"gaps": gaps, "risks": risks})
	}
}

func matrixHandler(s store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		gaps, err := s.ListGaps(r.Context(), id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "list gaps")
			return
		}
		vendors, err := s.ListVendors(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "list vendors")
			return
		}
		writeJSON(w, http.StatusOK, strategy.Build(gaps, vendors, cfg.Scoring))
	}
}

func matchesHandler(s store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		a, err := s.GetAssessment(r.Context(), id)
		if err != nil {
			writeError(w, http.StatusNotFound, "assessment not found")
			return
		}
		gaps, err := s.ListGaps(r.Context(), a.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "list gaps")
			return
		}
		vendors, err := s.ListVendors(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "list vendors")
			return
		}
		prio, err := s.GetPriorities(r.Context(), a.OrgID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "get priorities")
			return
		}
		if prio == nil {
			prio = &model.OrganizationPriorities{OrgID: a.OrgID}
		}
		writeJSON(w, http.StatusOK, match.Rank(gaps, *prio, vendors, cfg.Scoring))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
