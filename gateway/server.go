package gateway

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tranchepool/native/pool"
	"tranchepool/native/safe"
	"tranchepool/native/tranche"
)

// Server exposes read-only views over the pool accounting state. All
// mutations stay behind the native modules' capability checks; nothing here
// writes.
type Server struct {
	pool *pool.Pool
	safe *safe.Safe
	log  *slog.Logger
}

// New constructs the HTTP handler serving the accounting views, the health
// probe and the prometheus scrape endpoint.
func New(p *pool.Pool, s *safe.Safe, log *slog.Logger) http.Handler {
	srv := &Server{pool: p, safe: s, log: log}

	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/v1/tranches", srv.getTranches)
	r.Get("/v1/safe", srv.getSafe)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

type tranchesResponse struct {
	SeniorAssets string `json:"seniorAssets"`
	JuniorAssets string `json:"juniorAssets"`
	SeniorLoss   string `json:"seniorLoss"`
	JuniorLoss   string `json:"juniorLoss"`
	TotalAssets  string `json:"totalAssets"`
	Policy       string `json:"policy"`
}

func (s *Server) getTranches(w http.ResponseWriter, _ *http.Request) {
	assets, losses, err := s.pool.Tranches()
	if err != nil {
		s.writeError(w, err)
		return
	}
	resp := tranchesResponse{
		SeniorAssets: assets[tranche.Senior].String(),
		JuniorAssets: assets[tranche.Junior].String(),
		SeniorLoss:   losses[tranche.Senior].String(),
		JuniorLoss:   losses[tranche.Junior].String(),
		TotalAssets:  assets.Total().String(),
		Policy:       s.pool.Policy().Name(),
	}
	writeJSON(w, http.StatusOK, resp)
}

type safeResponse struct {
	TotalBalance      string            `json:"totalBalance"`
	AvailableForPool  string            `json:"availableForPool"`
	AvailableForFees  string            `json:"availableForFees"`
	UnprocessedProfit map[string]string `json:"unprocessedProfit"`
}

func (s *Server) getSafe(w http.ResponseWriter, _ *http.Request) {
	balance, err := s.safe.TotalBalance()
	if err != nil {
		s.writeError(w, err)
		return
	}
	forPool, err := s.safe.AvailableBalanceForPool()
	if err != nil {
		s.writeError(w, err)
		return
	}
	forFees, err := s.safe.AvailableBalanceForFees()
	if err != nil {
		s.writeError(w, err)
		return
	}

	reg := s.safe.Cache().Registry()
	senior, err := s.safe.UnprocessedProfit(reg.SeniorTrancheVault())
	if err != nil {
		s.writeError(w, err)
		return
	}
	junior, err := s.safe.UnprocessedProfit(reg.JuniorTrancheVault())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, safeResponse{
		TotalBalance:     balance.String(),
		AvailableForPool: forPool.String(),
		AvailableForFees: forFees.String(),
		UnprocessedProfit: map[string]string{
			"senior": senior.String(),
			"junior": junior.String(),
		},
	})
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	if s.log != nil {
		s.log.Error("gateway query failed", "error", err)
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
