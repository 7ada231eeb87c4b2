package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rocketscienceinc/chess-relay/internal/entity"
	"github.com/rocketscienceinc/chess-relay/internal/repository"
	"github.com/rocketscienceinc/chess-relay/internal/transport/relay"
)

type Handlers interface {
	PingHandler(w http.ResponseWriter, _ *http.Request)

	StatsHandler(w http.ResponseWriter, _ *http.Request)
	MatchesHandler(w http.ResponseWriter, r *http.Request)
	MatchHandler(w http.ResponseWriter, r *http.Request)
	DeleteMatchHandler(w http.ResponseWriter, r *http.Request)
}

type statsProvider interface {
	Stats() relay.Stats
}

type matchStore interface {
	GetByID(ctx context.Context, id string) (*entity.Match, error)
	DeleteByID(ctx context.Context, id string) error
	ListIDs(ctx context.Context) ([]string, error)
}

type handlers struct {
	logger  *slog.Logger
	stats   statsProvider
	matches matchStore
}

func NewHandlers(logger *slog.Logger, stats statsProvider, matches matchStore) Handlers {
	return &handlers{
		logger:  logger.With("component", "rest"),
		stats:   stats,
		matches: matches,
	}
}

func (that *handlers) PingHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
}

// StatsHandler - roster size, pairing state and traffic counters of the relay.
func (that *handlers) StatsHandler(w http.ResponseWriter, _ *http.Request) {
	that.writeJSON(w, http.StatusOK, that.stats.Stats())
}

func (that *handlers) MatchesHandler(w http.ResponseWriter, r *http.Request) {
	ids, err := that.matches.ListIDs(r.Context())
	if err != nil {
		that.logger.Error("failed to list matches", "error", err)
		http.Error(w, "Failed to list matches", http.StatusInternalServerError)
		return
	}

	that.writeJSON(w, http.StatusOK, map[string][]string{"matches": ids})
}

func (that *handlers) MatchHandler(w http.ResponseWriter, r *http.Request) {
	match, err := that.matches.GetByID(r.Context(), r.PathValue("id"))
	if errors.Is(err, repository.ErrMatchNotFound) {
		http.Error(w, "Match not found", http.StatusNotFound)
		return
	}

	if err != nil {
		that.logger.Error("failed to get match", "error", err)
		http.Error(w, "Failed to get match", http.StatusInternalServerError)
		return
	}

	that.writeJSON(w, http.StatusOK, match)
}

// DeleteMatchHandler - drops a match record from the ledger.
func (that *handlers) DeleteMatchHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	err := that.matches.DeleteByID(r.Context(), id)
	if errors.Is(err, repository.ErrMatchNotFound) {
		http.Error(w, "Match not found", http.StatusNotFound)
		return
	}

	if err != nil {
		that.logger.Error("failed to delete match", "match", id, "error", err)
		http.Error(w, "Failed to delete match", http.StatusInternalServerError)
		return
	}

	that.logger.Info("match deleted", "match", id)
	w.WriteHeader(http.StatusNoContent)
}

func (that *handlers) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		that.logger.Error("failed to write response", "error", err)
	}
}
