// Package server exposes the wallet trade store and syncer over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"solana-wallet-sync/internal/domain"
	"solana-wallet-sync/internal/ingestion"
	"solana-wallet-sync/internal/observability"
	"solana-wallet-sync/internal/storage"
	"solana-wallet-sync/internal/trades"
)

const syncTimeout = 10 * time.Minute

// Server serves the read API and triggers wallet syncs.
type Server struct {
	store    storage.TradeStore
	syncer   *trades.Syncer
	balances ingestion.BalanceSource
	logger   *log.Logger

	started time.Time

	mu           sync.Mutex
	lastSync     time.Time
	syncRuns     int
	syncRunning  bool
	lastSyncSize int
}

// New creates an HTTP server over the given collaborators. balances may
// be nil, in which case /balance returns 503.
func New(store storage.TradeStore, syncer *trades.Syncer, balances ingestion.BalanceSource, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(os.Stdout, "[http] ", log.LstdFlags|log.Lshortfile)
	}
	return &Server{
		store:    store,
		syncer:   syncer,
		balances: balances,
		logger:   logger,
		started:  time.Now(),
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/trades", s.handleTrades)
	mux.HandleFunc("/trades/token", s.handleTradesByToken)
	mux.HandleFunc("/sync", s.handleSync)
	mux.HandleFunc("/balance", s.handleBalance)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/status", s.handleStatus)
	mux.Handle("/metrics", observability.Handler())
	return mux
}

// tradesResponse is the JSON body of the trade read endpoints. A read
// failure degrades to an empty list with the error attached so dashboard
// clients keep rendering.
type tradesResponse struct {
	Wallet string                `json:"wallet,omitempty"`
	Token  string                `json:"token,omitempty"`
	Count  int                   `json:"count"`
	Trades []*domain.WalletTrade `json:"trades"`
	Error  string                `json:"error,omitempty"`
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	wallet := r.URL.Query().Get("wallet")
	if wallet == "" {
		writeError(w, http.StatusBadRequest, "wallet query parameter is required")
		return
	}
	if err := validateWallet(wallet); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	days, err := parseLookbackDays(r.URL.Query().Get("days"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sortBy, dir, err := validateSort(r.URL.Query().Get("sort_by"), r.URL.Query().Get("sort_dir"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := tradesResponse{Wallet: wallet, Trades: []*domain.WalletTrade{}}
	list, err := s.store.GetByWalletSorted(r.Context(), wallet, sortBy, dir)
	switch {
	case errors.Is(err, storage.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		s.logger.Printf("trades read failed for %s: %v", wallet, err)
		observability.RecordDBError("get_by_wallet")
		resp.Error = "trade lookup failed"
	default:
		resp.Trades = tradesSince(list, lookbackCutoff(days, time.Now()))
	}
	resp.Count = len(resp.Trades)
	writeJSON(w, http.StatusOK, resp)
}

// lookbackCutoff is the start of the day days back, the same alignment
// the sync planner uses for fetch windows.
func lookbackCutoff(days int, now time.Time) time.Time {
	day := now.AddDate(0, 0, -days)
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
}

// tradesSince keeps rows whose last activity falls on or after cutoff.
// Rows with no recorded trade time are outside any window.
func tradesSince(list []*domain.WalletTrade, cutoff time.Time) []*domain.WalletTrade {
	out := make([]*domain.WalletTrade, 0, len(list))
	for _, t := range list {
		if t.LastTrade != nil && !t.LastTrade.Before(cutoff) {
			out = append(out, t)
		}
	}
	return out
}

func (s *Server) handleTradesByToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	token := r.URL.Query().Get("address")
	if token == "" {
		writeError(w, http.StatusBadRequest, "address query parameter is required")
		return
	}
	if err := validateTokenAddress(token); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := tradesResponse{Token: token, Trades: []*domain.WalletTrade{}}
	list, err := s.store.GetByToken(r.Context(), token)
	if err != nil {
		s.logger.Printf("trades read failed for token %s: %v", token, err)
		observability.RecordDBError("get_by_token")
		resp.Error = "trade lookup failed"
	} else {
		resp.Trades = list
	}
	resp.Count = len(resp.Trades)
	writeJSON(w, http.StatusOK, resp)
}

// syncRequest is the POST /sync body.
type syncRequest struct {
	Wallets []string `json:"wallets"`
	Days    int      `json:"days"`
}

// syncResponse reports per-wallet outcomes.
type syncResponse struct {
	Results []trades.WalletResult `json:"results"`
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req syncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if len(req.Wallets) == 0 {
		writeError(w, http.StatusBadRequest, "wallets list is required")
		return
	}
	for _, wallet := range req.Wallets {
		if err := validateWallet(wallet); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	days, err := validateLookbackDays(req.Days)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	if s.syncRunning {
		s.mu.Unlock()
		writeError(w, http.StatusConflict, "a sync is already running")
		return
	}
	s.syncRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(r.Context(), syncTimeout)
	defer cancel()

	results := s.syncer.SyncAll(ctx, req.Wallets, days)

	s.mu.Lock()
	s.syncRunning = false
	s.lastSync = time.Now()
	s.syncRuns++
	s.lastSyncSize = len(req.Wallets)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, syncResponse{Results: results})
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.balances == nil {
		writeError(w, http.StatusServiceUnavailable, "balance source not configured")
		return
	}

	wallet := r.URL.Query().Get("wallet")
	if wallet == "" {
		writeError(w, http.StatusBadRequest, "wallet query parameter is required")
		return
	}
	if err := validateWallet(wallet); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	balance, err := s.balances.FetchBalance(r.Context(), wallet)
	if err != nil {
		s.logger.Printf("balance lookup failed for %s: %v", wallet, err)
		writeError(w, http.StatusBadGateway, "balance lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, balance)
}

// statusResponse is the JSON response for /status.
type statusResponse struct {
	Status       string    `json:"status"`
	Uptime       string    `json:"uptime"`
	SyncRuns     int       `json:"sync_runs"`
	SyncRunning  bool      `json:"sync_running"`
	LastSync     time.Time `json:"last_sync,omitempty"`
	LastSyncSize int       `json:"last_sync_wallets"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	resp := statusResponse{
		Status:       "running",
		Uptime:       time.Since(s.started).Round(time.Second).String(),
		SyncRuns:     s.syncRuns,
		SyncRunning:  s.syncRunning,
		LastSync:     s.lastSync,
		LastSyncSize: s.lastSyncSize,
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, resp)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// ListenAndServe runs the HTTP server until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: syncTimeout + 30*time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Printf("listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
