package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"holdings-pricer/internal/application"
	"holdings-pricer/internal/domain"
	infraconfig "holdings-pricer/internal/infrastructure/config"
	"holdings-pricer/internal/infrastructure/logx"
	"holdings-pricer/internal/infrastructure/worker"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"go.uber.org/zap"
)

// RefreshTrigger hands refresh requests to the background worker.
type RefreshTrigger interface {
	Enqueue(req worker.RefreshRequest) (coalesced bool)
}

// HTTPMetrics records served requests and exposes the scrape endpoint.
type HTTPMetrics interface {
	ObserveHTTP(route, method string, status int, d time.Duration)
	Handler() http.Handler
}

type Server struct {
	svc     *application.PortfolioService
	trigger RefreshTrigger
	ping    func(ctx context.Context) error
	metrics HTTPMetrics

	stopOnce sync.Once
	stop     chan struct{}
}

func NewServer(svc *application.PortfolioService, trigger RefreshTrigger) *Server {
	return &Server{svc: svc, trigger: trigger, stop: make(chan struct{})}
}

func (s *Server) SetReadyCheck(fn func(ctx context.Context) error) { s.ping = fn }
func (s *Server) SetMetrics(m HTTPMetrics)                         { s.metrics = m }

// CloseStreams ends all websocket streams; hijacked connections are not
// closed by http.Server.Shutdown.
func (s *Server) CloseStreams() { s.stopOnce.Do(func() { close(s.stop) }) }

func (s *Server) ListHoldings(w http.ResponseWriter, r *http.Request) {
	hs, err := s.svc.ListHoldings(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]holdingResponse, len(hs))
	for i, h := range hs {
		out[i] = toHoldingResponse(h)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) CreateHolding(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeHolding(w, r)
	if !ok {
		return
	}
	h, err := s.svc.AddHolding(r.Context(), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Location", "/holdings/"+h.ID)
	writeJSON(w, http.StatusCreated, toHoldingResponse(h))
}

func (s *Server) GetHolding(w http.ResponseWriter, r *http.Request) {
	id, ok := pathParam(w, r, "id")
	if !ok {
		return
	}
	h, err := s.svc.GetHolding(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toHoldingResponse(h))
}

func (s *Server) UpdateHolding(w http.ResponseWriter, r *http.Request) {
	id, ok := pathParam(w, r, "id")
	if !ok {
		return
	}
	in, ok := decodeHolding(w, r)
	if !ok {
		return
	}
	h, err := s.svc.UpdateHolding(r.Context(), id, in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toHoldingResponse(h))
}

func (s *Server) DeleteHolding(w http.ResponseWriter, r *http.Request) {
	id, ok := pathParam(w, r, "id")
	if !ok {
		return
	}
	if err := s.svc.DeleteHolding(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) GetSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.svc.Summary(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryResponse(sum))
}

func (s *Server) TriggerRefresh(w http.ResponseWriter, r *http.Request) {
	var force bool
	if err := runtime.BindQueryParameter("form", true, false, "force", r.URL.Query(), &force); err != nil {
		writeError(w, http.StatusBadRequest, "force must be a boolean")
		return
	}
	tid := logx.TraceID(r.Context())
	coalesced := s.trigger.Enqueue(worker.RefreshRequest{Force: force, TraceID: tid, RequestedAt: time.Now().UTC()})
	logx.WithFields(r.Context()).Info("refresh.triggered", zap.Bool("force", force), zap.Bool("coalesced", coalesced))
	writeJSON(w, http.StatusAccepted, refreshAccepted{Status: "accepted", Force: force, Coalesced: coalesced, TraceID: tid})
}

func (s *Server) GetRefreshState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, toRefreshStateResponse(s.svc.RefreshState()))
}

func (s *Server) ClearCache(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.ClearCache(r.Context()); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) GetHistory(w http.ResponseWriter, r *http.Request) {
	symbol, ok := pathParam(w, r, "symbol")
	if !ok {
		return
	}
	limit := infraconfig.DefaultHistoryLimit
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &limit); err != nil {
		writeError(w, http.StatusBadRequest, "limit must be an integer")
		return
	}
	hist, err := s.svc.History(r.Context(), symbol, limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]historyResponse, len(hist))
	for i, h := range hist {
		out[i] = historyResponse{Symbol: string(h.Symbol), Price: h.Price, QuotedAt: h.QuotedAt, Source: h.Source, BatchID: h.BatchID}
	}
	writeJSON(w, http.StatusOK, out)
}

func decodeHolding(w http.ResponseWriter, r *http.Request) (application.HoldingInput, bool) {
	var body holdingRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		badRequest(w, "invalid JSON body")
		return application.HoldingInput{}, false
	}
	in, err := body.input()
	if err != nil {
		badRequest(w, err.Error())
		return application.HoldingInput{}, false
	}
	return in, true
}

func pathParam(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	var v string
	if err := runtime.BindStyledParameterWithLocation("simple", false, name, runtime.ParamLocationPath, chi.URLParam(r, name), &v); err != nil || v == "" {
		badRequest(w, "invalid "+name)
		return "", false
	}
	return v, true
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, application.ErrBadRequest):
		badRequest(w, err.Error())
	case errors.Is(err, application.ErrNotFound), errors.Is(err, domain.ErrNotFound):
		notFound(w)
	case errors.Is(err, application.ErrConflict), errors.Is(err, application.ErrRefreshInProgress):
		writeError(w, http.StatusConflict, err.Error())
	default:
		logx.WithFields(r.Context()).Error("http.internal_error", zap.String("path", r.URL.Path), zap.Error(err))
		internalError(w)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Code: status, Message: msg})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusBadRequest, msg)
}

func notFound(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, http.StatusText(http.StatusNotFound))
}

func internalError(w http.ResponseWriter) {
	writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}
