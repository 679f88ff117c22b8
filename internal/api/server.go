package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/calpoll/calpoll/internal/event"
	"github.com/calpoll/calpoll/internal/render"
	"github.com/calpoll/calpoll/internal/scheduler"
	"github.com/calpoll/calpoll/internal/security"
)

// Service is the command surface the server exposes over HTTP.
type Service interface {
	CreateEvent(ctx context.Context, name string) (string, error)
	DeleteEvent(ctx context.Context, id string) error
	Propose(ctx context.Context, id string, when time.Time) (int, error)
	Unpropose(ctx context.Context, id string, idx int) error
	Accept(ctx context.Context, id, uid string, idx int) error
	Reject(ctx context.Context, id, uid string, idx int) error
	Finalize(ctx context.Context, id string, idx int) error
	Unfinalize(ctx context.Context, id string) error
	Invite(ctx context.Context, id, uid string) error
	Uninvite(ctx context.Context, id, uid string) error
	ImportDates(ctx context.Context, id string, payload []byte) ([]int, error)
	Summary(id string) (event.Summary, error)
	List(f event.Filter) []event.Summary
	ExportICS() (string, error)
}

type Server struct {
	svc     Service
	auth    security.BearerAuth
	log     *slog.Logger
	httpSrv *http.Server
}

type Options struct {
	Service Service
	Auth    security.BearerAuth
	Logger  *slog.Logger
}

func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{svc: opts.Service, auth: opts.Auth, log: logger}
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/events", s.handleEvents)
	mux.HandleFunc("/v1/events/delete", s.handleDelete)
	mux.HandleFunc("/v1/events/propose", s.handlePropose)
	mux.HandleFunc("/v1/events/unpropose", s.handleUnpropose)
	mux.HandleFunc("/v1/events/accept", s.handleAccept)
	mux.HandleFunc("/v1/events/reject", s.handleReject)
	mux.HandleFunc("/v1/events/finalize", s.handleFinalize)
	mux.HandleFunc("/v1/events/unfinalize", s.handleUnfinalize)
	mux.HandleFunc("/v1/events/invite", s.handleInvite)
	mux.HandleFunc("/v1/events/uninvite", s.handleUninvite)
	mux.HandleFunc("/v1/events/import-dates", s.handleImportDates)
	mux.HandleFunc("/v1/events/summary", s.handleSummary)
	mux.HandleFunc("/v1/export.ics", s.handleExport)
	s.httpSrv = &http.Server{Handler: s.wrapAuth(mux), ReadHeaderTimeout: 5 * time.Second}
	return s
}

func (s *Server) ServeTCP(ctx context.Context, bind string) error {
	if bind == "" {
		return errors.New("bind required")
	}
	ln, err := net.Listen("tcp", bind)
	if err != nil {
		return err
	}
	go s.shutdownOnContext(ctx)
	return s.httpSrv.Serve(ln)
}

func (s *Server) ServeUnix(ctx context.Context, path string) error {
	if path == "" {
		return errors.New("socket path required")
	}
	_ = os.Remove(path)
	ln, err := net.Listen("unix", path)
	if err != nil {
		return err
	}
	if err := os.Chmod(path, 0o600); err != nil {
		return err
	}
	go s.shutdownOnContext(ctx)
	return s.httpSrv.Serve(ln)
}

func (s *Server) wrapAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/healthz" && !s.auth.Authorize(r) {
			writeErr(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) shutdownOnContext(ctx context.Context) {
	<-ctx.Done()
	timeout, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = s.httpSrv.Shutdown(timeout)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleEvents serves creation (POST) and filtered listing (GET).
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var payload struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeErr(w, http.StatusBadRequest, "invalid json")
			return
		}
		if strings.TrimSpace(payload.Name) == "" {
			writeErr(w, http.StatusBadRequest, "name is required")
			return
		}
		id, err := s.svc.CreateEvent(r.Context(), payload.Name)
		if err != nil {
			s.writeServiceErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"event_id": id})
	case http.MethodGet:
		f, err := filterFromQuery(r)
		if err != nil {
			writeErr(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, s.svc.List(f))
	default:
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func filterFromQuery(r *http.Request) (event.Filter, error) {
	q := r.URL.Query()
	f := event.Filter{
		Finalized:   q.Get("finalized") == "true",
		Unfinalized: q.Get("unfinalized") == "true",
		Invited:     q.Get("invited"),
	}
	if v := q.Get("before"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return event.Filter{}, errors.New("invalid before timestamp")
		}
		f.Before = &t
	}
	if v := q.Get("after"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return event.Filter{}, errors.New("invalid after timestamp")
		}
		f.After = &t
	}
	return f, nil
}

type commandRequest struct {
	EventID string `json:"event_id"`
	Invitee string `json:"invitee"`
	Index   *int   `json:"index"`
	Date    string `json:"date"`
	ICS     string `json:"ics"`
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	s.handleCommand(w, r, func(ctx context.Context, req commandRequest) (any, error) {
		return map[string]string{"event_id": req.EventID}, s.svc.DeleteEvent(ctx, req.EventID)
	})
}

func (s *Server) handlePropose(w http.ResponseWriter, r *http.Request) {
	s.handleCommand(w, r, func(ctx context.Context, req commandRequest) (any, error) {
		when, err := time.Parse(time.RFC3339, req.Date)
		if err != nil {
			return nil, errBadInput("invalid date, want RFC3339")
		}
		idx, err := s.svc.Propose(ctx, req.EventID, when)
		if err != nil {
			return nil, err
		}
		return map[string]int{"index": idx}, nil
	})
}

func (s *Server) handleUnpropose(w http.ResponseWriter, r *http.Request) {
	s.handleIndexCommand(w, r, s.svc.Unpropose)
}

func (s *Server) handleFinalize(w http.ResponseWriter, r *http.Request) {
	s.handleIndexCommand(w, r, s.svc.Finalize)
}

func (s *Server) handleIndexCommand(w http.ResponseWriter, r *http.Request, run func(context.Context, string, int) error) {
	s.handleCommand(w, r, func(ctx context.Context, req commandRequest) (any, error) {
		if req.Index == nil {
			return nil, errBadInput("index is required")
		}
		return map[string]string{"event_id": req.EventID}, run(ctx, req.EventID, *req.Index)
	})
}

func (s *Server) handleAccept(w http.ResponseWriter, r *http.Request) {
	s.handleVoteCommand(w, r, s.svc.Accept)
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	s.handleVoteCommand(w, r, s.svc.Reject)
}

func (s *Server) handleVoteCommand(w http.ResponseWriter, r *http.Request, run func(context.Context, string, string, int) error) {
	s.handleCommand(w, r, func(ctx context.Context, req commandRequest) (any, error) {
		if req.Invitee == "" {
			return nil, errBadInput("invitee is required")
		}
		if req.Index == nil {
			return nil, errBadInput("index is required")
		}
		return map[string]string{"event_id": req.EventID}, run(ctx, req.EventID, req.Invitee, *req.Index)
	})
}

func (s *Server) handleUnfinalize(w http.ResponseWriter, r *http.Request) {
	s.handleCommand(w, r, func(ctx context.Context, req commandRequest) (any, error) {
		return map[string]string{"event_id": req.EventID}, s.svc.Unfinalize(ctx, req.EventID)
	})
}

func (s *Server) handleInvite(w http.ResponseWriter, r *http.Request) {
	s.handleRosterCommand(w, r, s.svc.Invite)
}

func (s *Server) handleUninvite(w http.ResponseWriter, r *http.Request) {
	s.handleRosterCommand(w, r, s.svc.Uninvite)
}

func (s *Server) handleRosterCommand(w http.ResponseWriter, r *http.Request, run func(context.Context, string, string) error) {
	s.handleCommand(w, r, func(ctx context.Context, req commandRequest) (any, error) {
		if req.Invitee == "" {
			return nil, errBadInput("invitee is required")
		}
		return map[string]string{"event_id": req.EventID}, run(ctx, req.EventID, req.Invitee)
	})
}

func (s *Server) handleImportDates(w http.ResponseWriter, r *http.Request) {
	s.handleCommand(w, r, func(ctx context.Context, req commandRequest) (any, error) {
		if req.ICS == "" {
			return nil, errBadInput("ics payload is required")
		}
		indices, err := s.svc.ImportDates(ctx, req.EventID, []byte(req.ICS))
		if err != nil {
			return nil, err
		}
		return map[string][]int{"indices": indices}, nil
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	sum, err := s.svc.Summary(r.URL.Query().Get("event_id"))
	if err != nil {
		s.writeServiceErr(w, err)
		return
	}
	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, strings.Join(render.Lines(sum), "\n")+"\n")
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	out, err := s.svc.ExportICS()
	if err != nil {
		s.writeServiceErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	_, _ = io.WriteString(w, out)
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request, run func(context.Context, commandRequest) (any, error)) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.EventID == "" {
		writeErr(w, http.StatusBadRequest, "event_id is required")
		return
	}
	out, err := run(r.Context(), req)
	if err != nil {
		s.writeServiceErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type badInputError string

func errBadInput(msg string) error    { return badInputError(msg) }
func (e badInputError) Error() string { return string(e) }

// writeServiceErr maps negotiation errors onto HTTP statuses: missing
// things are 404, state conflicts are 409, caller mistakes are 400.
func (s *Server) writeServiceErr(w http.ResponseWriter, err error) {
	var bad badInputError
	switch {
	case errors.As(err, &bad):
		writeErr(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, scheduler.ErrEventNotFound), errors.Is(err, event.ErrInvalidProposal):
		writeErr(w, http.StatusNotFound, err.Error())
	case errors.Is(err, event.ErrEventFinalized),
		errors.Is(err, event.ErrEventAlreadyFinalized),
		errors.Is(err, event.ErrEventNotFinalized):
		writeErr(w, http.StatusConflict, err.Error())
	default:
		s.log.Error("command failed", "error", err)
		writeErr(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
