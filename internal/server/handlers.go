package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/LeJamon/restaked/internal/core/events"
	"github.com/LeJamon/restaked/internal/core/ledger/store"
	"github.com/LeJamon/restaked/internal/core/tx"
)

const (
	defaultEventLimit = 100
	maxEventLimit     = 1000
	maxTxBodyBytes    = 1 << 20
)

type errorResponse struct {
	Error string `json:"error"`
}

// SubmitResponse is the body returned for a submitted transaction.
type SubmitResponse struct {
	ID      uuid.UUID    `json:"id"`
	Type    string       `json:"type"`
	Result  tx.Result    `json:"result"`
	Applied bool         `json:"applied"`
	Message string       `json:"message"`
	Detail  string       `json:"detail,omitempty"`
	Events  []EventEntry `json:"events,omitempty"`
}

// EventEntry is one emitted event keyed by its name.
type EventEntry struct {
	Name    string       `json:"name"`
	Payload events.Event `json:"payload"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("server: encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

// writeLookupError maps a failed ledger lookup to 404 or 500.
func (s *Server) writeLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	s.log.Error("server: ledger lookup failed", "error", err)
	s.writeError(w, http.StatusInternalServerError, err)
}

func pathKey(r *http.Request, name string) (solana.PublicKey, error) {
	raw := chi.URLParam(r, name)
	key, err := solana.PublicKeyFromBase58(raw)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid %s %q: %w", name, raw, err)
	}
	return key, nil
}

func pathKeys(r *http.Request, names ...string) ([]solana.PublicKey, error) {
	keys := make([]solana.PublicKey, len(names))
	for i, name := range names {
		key, err := pathKey(r, name)
		if err != nil {
			return nil, err
		}
		keys[i] = key
	}
	return keys, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMainState(w http.ResponseWriter, r *http.Request) {
	main, err := pathKey(r, "main")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	state, err := store.MainState(s.cfg.Engine.View(), main)
	if err != nil {
		s.writeLookupError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleVaults(w http.ResponseWriter, r *http.Request) {
	main, err := pathKey(r, "main")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	vaults, err := store.Vaults(s.cfg.Engine.View(), main)
	if err != nil {
		s.writeLookupError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, vaults)
}

func (s *Server) handleVault(w http.ResponseWriter, r *http.Request) {
	main, err := pathKey(r, "main")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	lst, err := pathKey(r, "lst")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	vault, err := store.Vault(s.cfg.Engine.View(), main, lst)
	if err != nil {
		s.writeLookupError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, vault)
}

func (s *Server) handleStrategies(w http.ResponseWriter, r *http.Request) {
	main, err := pathKey(r, "main")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	var lst solana.PublicKey
	if raw := r.URL.Query().Get("lst"); raw != "" {
		if lst, err = solana.PublicKeyFromBase58(raw); err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid lst %q: %w", raw, err))
			return
		}
	}
	strategies, err := store.Strategies(s.cfg.Engine.View(), main, lst)
	if err != nil {
		s.writeLookupError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, strategies)
}

func (s *Server) handleStrategy(w http.ResponseWriter, r *http.Request) {
	keys, err := pathKeys(r, "main", "lst", "state")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	strategy, err := store.Strategy(s.cfg.Engine.View(), keys[0], keys[1], keys[2])
	if err != nil {
		s.writeLookupError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, strategy)
}

func (s *Server) handleTickets(w http.ResponseWriter, r *http.Request) {
	main, err := pathKey(r, "main")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	tickets, err := store.Tickets(s.cfg.Engine.View(), main)
	if err != nil {
		s.writeLookupError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, tickets)
}

func (s *Server) handleTicket(w http.ResponseWriter, r *http.Request) {
	id, err := pathKey(r, "ticket")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	ticket, err := store.Ticket(s.cfg.Engine.View(), id)
	if err != nil {
		s.writeLookupError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, store.TicketRef{ID: id, Ticket: ticket})
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	main, err := pathKey(r, "main")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	var tolerance uint64
	if raw := r.URL.Query().Get("tolerance"); raw != "" {
		if tolerance, err = strconv.ParseUint(raw, 10, 64); err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid tolerance: %w", err))
			return
		}
	}
	report, err := store.Audit(s.cfg.Engine.View(), main, tolerance)
	if err != nil {
		s.writeLookupError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Journal == nil {
		s.writeError(w, http.StatusNotImplemented, errors.New("event journal disabled"))
		return
	}
	q := r.URL.Query()
	var (
		from  uint64
		limit = defaultEventLimit
		err   error
	)
	if raw := q.Get("from"); raw != "" {
		if from, err = strconv.ParseUint(raw, 10, 64); err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid from: %w", err))
			return
		}
	}
	if raw := q.Get("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil || limit <= 0 {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", raw))
			return
		}
		limit = min(limit, maxEventLimit)
	}

	records, err := s.cfg.Journal.List(r.Context(), from, limit)
	if err != nil {
		s.log.Error("server: list events", "error", err)
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if records == nil {
		records = []events.Record{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"events":   records,
		"next_seq": s.cfg.Journal.NextSeq(),
	})
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Journal == nil {
		s.writeError(w, http.StatusNotImplemented, errors.New("event journal disabled"))
		return
	}
	seq, err := strconv.ParseUint(chi.URLParam(r, "seq"), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid seq: %w", err))
		return
	}
	rec, err := s.cfg.Journal.Get(r.Context(), seq)
	if err != nil {
		if events.IsNotFound(err) {
			s.writeError(w, http.StatusNotFound, fmt.Errorf("event %d not found", seq))
			return
		}
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleTxTypes(w http.ResponseWriter, _ *http.Request) {
	types := tx.SupportedTypes()
	names := make([]string, 0, len(types))
	for _, t := range types {
		names = append(names, t.String())
	}
	s.writeJSON(w, http.StatusOK, names)
}

// handleSubmit decodes a transaction by its TransactionType field, checks
// its signature and applies it. Unsigned or badly signed transactions answer
// 401; rejected ones answer 422 with the result code.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxTxBodyBytes))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("read body: %w", err))
		return
	}
	txn, err := tx.FromJSON(body)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := tx.VerifySignature(txn); err != nil {
		s.writeError(w, http.StatusUnauthorized, err)
		return
	}

	res := s.cfg.Engine.Apply(r.Context(), txn)
	resp := SubmitResponse{
		ID:      res.ID,
		Type:    txn.TxType().String(),
		Result:  res.Result,
		Applied: res.Applied,
		Message: res.Message,
		Detail:  res.Detail,
	}
	for _, ev := range res.Events {
		resp.Events = append(resp.Events, EventEntry{Name: ev.EventName(), Payload: ev})
	}

	status := http.StatusOK
	if !res.Result.IsSuccess() {
		status = http.StatusUnprocessableEntity
	}
	s.log.Debug("server: transaction submitted", "type", resp.Type, "result", res.Result.String(), "id", res.ID)
	s.writeJSON(w, status, resp)
}
