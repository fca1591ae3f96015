package server

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/raysh454/nyxguard/internal/logging"
	"github.com/raysh454/nyxguard/internal/model"
	"github.com/raysh454/nyxguard/internal/monitor"
	"github.com/raysh454/nyxguard/internal/settings"
)

// --- Sessions ---

// handleSubmitFeatures godoc
// @Summary Submit content features for a session's current page
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param features body model.ContentFeatures true "Page features"
// @Success 200 {object} model.DetectionResult
// @Failure 400 {object} ErrorResponse
// @Router /sessions/{id}/features [post]
func (s *Server) handleSubmitFeatures(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var cf model.ContentFeatures
	if err := decodeBody(w, r, &cf); err != nil {
		s.logger.Warn("decoding features body", logging.Err(err))
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	res, err := s.svc.Monitor.SubmitFeatures(r.Context(), id, cf)
	if err != nil {
		s.logger.Warn("submitting features", logging.Field{Key: "session", Value: id}, logging.Err(err))
		writeError(w, statusFor(err), err.Error())
		return
	}
	s.logger.Info("evaluated page",
		logging.Field{Key: "session", Value: id},
		logging.Field{Key: "score", Value: res.Score},
		logging.Field{Key: "level", Value: string(res.Level)})
	writeJSON(w, http.StatusOK, res)
}

// handleTrackerHits godoc
// @Summary Record tracker hits for a session
// @Description Hits are folded into a debounced re-evaluation.
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param hits body TrackerHitsRequest true "Hit count or request URLs"
// @Success 202 {object} TrackerHitsResponse
// @Failure 400 {object} ErrorResponse
// @Router /sessions/{id}/trackers [post]
func (s *Server) handleTrackerHits(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body TrackerHitsRequest
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if body.Hits < 0 {
		writeError(w, http.StatusBadRequest, "hits must not be negative")
		return
	}
	hits := body.Hits + s.svc.Trackers.Count(body.URLs)

	if err := s.svc.Monitor.RecordTrackerHits(id, hits); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, TrackerHitsResponse{Recorded: hits})
}

// handleNavigate godoc
// @Summary Start a new page in a session
// @Tags sessions
// @Accept json
// @Param id path string true "Session ID"
// @Param navigation body NavigateRequest true "New page"
// @Success 204
// @Failure 400 {object} ErrorResponse
// @Router /sessions/{id}/navigate [post]
func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body NavigateRequest
	if err := decodeBody(w, r, &body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := s.svc.Monitor.Navigate(r.Context(), id, body.URL); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleScan godoc
// @Summary Fetch and evaluate a page for a session
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param scan body ScanRequest true "Page to scan"
// @Success 200 {object} model.DetectionResult
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /sessions/{id}/scan [post]
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if s.svc.Scanner == nil {
		writeError(w, http.StatusServiceUnavailable, "scanning is not configured")
		return
	}
	id := chi.URLParam(r, "id")

	var body ScanRequest
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	res, err := s.svc.Scanner.Scan(r.Context(), id, body.URL)
	if err != nil {
		s.logger.Warn("scanning page", logging.Field{Key: "session", Value: id}, logging.Err(err))
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			status = http.StatusBadGateway
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleGetResult godoc
// @Summary Latest result of a session
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} model.DetectionResult
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id}/result [get]
func (s *Server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	res, err := s.svc.Monitor.Result(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleCloseSession godoc
// @Summary Close a session and drop its state
// @Tags sessions
// @Param id path string true "Session ID"
// @Success 204
// @Router /sessions/{id} [delete]
func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.svc.Monitor.CloseSession(r.Context(), id); err != nil {
		s.logger.Warn("closing session", logging.Field{Key: "session", Value: id}, logging.Err(err))
		writeError(w, statusFor(err), err.Error())
		return
	}
	s.logger.Info("closed session", logging.Field{Key: "session", Value: id})
	w.WriteHeader(http.StatusNoContent)
}

// --- Settings ---

// handleGetSettings godoc
// @Summary Current settings
// @Tags settings
// @Produce json
// @Success 200 {object} settings.Settings
// @Router /settings [get]
func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.Settings.Load(r.Context())
	if err != nil {
		s.logger.Warn("loading settings", logging.Err(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// handlePutSettings godoc
// @Summary Update settings
// @Description Fields left out keep their current value. Out-of-range values are normalized.
// @Tags settings
// @Accept json
// @Produce json
// @Param settings body settings.Settings true "Settings fields"
// @Success 200 {object} settings.Settings
// @Failure 400 {object} ErrorResponse
// @Router /settings [put]
func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var patch map[string]any
	if err := decodeBody(w, r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	current, err := s.svc.Settings.Load(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	raw := settings.ToRaw(current)
	for k, v := range patch {
		raw[k] = v
	}

	saved, err := s.svc.Settings.Save(r.Context(), settings.FromRaw(raw))
	if err != nil {
		s.logger.Warn("saving settings", logging.Err(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Info("saved settings")
	writeJSON(w, http.StatusOK, saved)
}

// handleResetSettings godoc
// @Summary Restore default settings
// @Tags settings
// @Produce json
// @Success 200 {object} settings.Settings
// @Router /settings/reset [post]
func (s *Server) handleResetSettings(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.Settings.Reset(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Info("reset settings")
	writeJSON(w, http.StatusOK, st)
}

// --- Lists ---

// handlePutLists godoc
// @Summary Replace one or both domain lists
// @Tags lists
// @Accept json
// @Produce json
// @Param lists body settings.DomainListsUpdate true "Lists to replace"
// @Success 200 {object} settings.Settings
// @Router /lists [put]
func (s *Server) handlePutLists(w http.ResponseWriter, r *http.Request) {
	var upd settings.DomainListsUpdate
	if err := decodeBody(w, r, &upd); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	st, err := s.svc.Settings.UpdateDomainLists(r.Context(), upd)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// handleAddDomain godoc
// @Summary Add a domain to the allow or deny list
// @Tags lists
// @Accept json
// @Produce json
// @Param list path string true "allow or deny"
// @Param domain body AddDomainRequest true "Domain"
// @Success 200 {object} settings.Settings
// @Failure 400 {object} ErrorResponse
// @Router /lists/{list} [post]
func (s *Server) handleAddDomain(w http.ResponseWriter, r *http.Request) {
	list, err := settings.ParseList(chi.URLParam(r, "list"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var body AddDomainRequest
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	st, err := s.svc.Settings.AddDomain(r.Context(), list, body.Domain)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	s.logger.Info("added domain",
		logging.Field{Key: "list", Value: string(list)},
		logging.Field{Key: "domain", Value: body.Domain})
	writeJSON(w, http.StatusOK, st)
}

// handleImportDomains godoc
// @Summary Replace a list from newline-separated text
// @Description Accepts text/plain or JSON {"text": "..."}. Invalid lines are skipped and reported.
// @Tags lists
// @Accept json,plain
// @Produce json
// @Param list path string true "allow or deny"
// @Param domains body ImportDomainsRequest true "Domains"
// @Success 200 {object} ImportDomainsResponse
// @Failure 400 {object} ErrorResponse
// @Router /lists/{list}/import [post]
func (s *Server) handleImportDomains(w http.ResponseWriter, r *http.Request) {
	list, err := settings.ParseList(chi.URLParam(r, "list"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var text string
	if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt == "text/plain" {
		b, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			writeError(w, http.StatusBadRequest, "unreadable body")
			return
		}
		text = string(b)
	} else {
		var body ImportDomainsRequest
		if err := decodeBody(w, r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return
		}
		text = body.Text
	}

	sum, err := s.svc.Settings.ImportDomainLines(r.Context(), list, text)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ImportDomainsResponse{
		List:     string(sum.List),
		Imported: sum.Imported,
		Invalid:  sum.Invalid,
		Message:  sum.Message(),
	})
}

// --- WebSockets ---

const (
	wsWriteWait  = 10 * time.Second
	wsPingPeriod = 30 * time.Second
)

// handleSessionWS streams a session's events. The latest result, if any,
// is sent first.
func (s *Server) handleSessionWS(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, monitor.ErrInvalidSession.Error())
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading to websocket", logging.Err(err))
		return
	}
	defer conn.Close()

	events, cancel := s.svc.Monitor.Subscribe(id, 16)
	defer cancel()

	if res, err := s.svc.Monitor.Result(r.Context(), id); err == nil {
		if err := writeEvent(conn, monitor.Event{Type: monitor.EventResult, SessionID: id, Result: &res}); err != nil {
			return
		}
	}

	// Reader goroutine: notices client close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	s.logger.Info("websocket subscribed", logging.Field{Key: "session", Value: id})
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := writeEvent(conn, ev); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		case <-closed:
			return
		case <-r.Context().Done():
			return
		}
	}
}

func writeEvent(conn *websocket.Conn, ev monitor.Event) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(ev)
}
