package web

import (
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/jaminalder/codex-arcade/internal/app"
	"github.com/jaminalder/codex-arcade/internal/domain"
)

type handlers struct {
	svc *app.Service
	tpl *templates
	log *logrus.Logger
}

// errorMessage maps service and engine errors to user-facing text.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, app.ErrGameOver):
		return "Game is over"
	case errors.Is(err, app.ErrLockedCell):
		return "That cell is a clue"
	case errors.Is(err, app.ErrNoHints):
		return "No hints remaining"
	case errors.Is(err, domain.ErrPendingPair):
		return "Resolve the open pair first"
	case errors.Is(err, domain.ErrCellUnavailable):
		return "Cell is already open"
	case errors.Is(err, domain.ErrOutOfBounds):
		return "Out of bounds"
	case errors.Is(err, domain.ErrUnsolvable):
		return "Board cannot be solved from here"
	case errors.Is(err, domain.ErrInvalidGrid), errors.Is(err, domain.ErrInvalidDirection):
		return "Invalid input"
	default:
		return "Something went wrong"
	}
}

func parseDirection(s string) (domain.Direction, bool) {
	switch s {
	case "left":
		return domain.Left, true
	case "up":
		return domain.Up, true
	case "right":
		return domain.Right, true
	case "down":
		return domain.Down, true
	default:
		return 0, false
	}
}

func (h *handlers) renderMergeBoard(st app.MergeState, errMsg string) []byte {
	return renderTemplate(h.tpl.mergeBoard, mergeView{State: st, Directions: directionNames, Error: errMsg})
}

func (h *handlers) renderPlacementBoard(st app.PlacementState, errMsg, status string) []byte {
	return renderTemplate(h.tpl.placementBoard, placementView{State: st, Error: errMsg, Status: status})
}

func (h *handlers) renderPairsBoard(st app.PairsState, errMsg string) []byte {
	return renderTemplate(h.tpl.pairsBoard, pairsView{State: st, Error: errMsg})
}

func writeHTML(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(body)
}

// ---- index ----

func (h *handlers) index(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.svc.List(r.Context())
	if err != nil {
		h.log.WithError(err).Warn("listing sessions")
	}
	data := struct{ Sessions []app.Snapshot }{Sessions: sessions}
	writeHTML(w, renderTemplate(h.tpl.index, data))
}

// ---- merge ----

func (h *handlers) mergeCreate(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.NewMergeGame(r.Context())
	if err != nil {
		h.log.WithError(err).Error("creating merge session")
		http.Error(w, "failed to create", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/merge/"+st.ID, http.StatusSeeOther)
}

func (h *handlers) mergeView(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	st, err := h.svc.GetMerge(r.Context(), id)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	data := struct {
		ID        string
		BoardHTML template.HTML
	}{ID: st.ID, BoardHTML: template.HTML(h.renderMergeBoard(*st, ""))}
	writeHTML(w, renderTemplate(h.tpl.mergePage, data))
}

func (h *handlers) mergeMove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	_ = r.ParseForm()
	dir, ok := parseDirection(r.Form.Get("dir"))
	if !ok {
		st, err := h.svc.GetMerge(r.Context(), id)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		writeHTML(w, h.renderMergeBoard(*st, "Invalid input"))
		return
	}
	st, err := h.svc.MergeMove(r.Context(), id, dir)
	if err != nil {
		if errors.Is(err, app.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		if got, gerr := h.svc.GetMerge(r.Context(), id); gerr == nil {
			writeHTML(w, h.renderMergeBoard(*got, errorMessage(err)))
			return
		}
		http.Error(w, errorMessage(err), http.StatusInternalServerError)
		return
	}
	writeHTML(w, h.renderMergeBoard(*st, ""))
}

func (h *handlers) mergeRestart(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	st, err := h.svc.RestartMerge(r.Context(), id)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	writeHTML(w, h.renderMergeBoard(*st, ""))
}

// ---- placement ----

func (h *handlers) placementCreate(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	d := domain.ParseDifficulty(r.Form.Get("difficulty"))
	st, err := h.svc.NewPlacementGame(r.Context(), d)
	if err != nil {
		h.log.WithError(err).Error("creating placement session")
		http.Error(w, "failed to create", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/placement/"+st.ID, http.StatusSeeOther)
}

func (h *handlers) placementView(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	st, err := h.svc.GetPlacement(r.Context(), id)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	data := struct {
		ID         string
		Difficulty string
		ElapsedSec int
		BoardHTML  template.HTML
	}{
		ID:         st.ID,
		Difficulty: st.Difficulty.String(),
		ElapsedSec: st.ElapsedSec,
		BoardHTML:  template.HTML(h.renderPlacementBoard(*st, "", "")),
	}
	writeHTML(w, renderTemplate(h.tpl.placementPage, data))
}

// placementRespond renders the board fragment, refetching state when the
// failed operation did not return one.
func (h *handlers) placementRespond(w http.ResponseWriter, r *http.Request, id string, st *app.PlacementState, err error, status string) {
	var errMsg string
	if err != nil {
		if errors.Is(err, app.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		errMsg = errorMessage(err)
	}
	if st == nil {
		got, gerr := h.svc.GetPlacement(r.Context(), id)
		if gerr != nil {
			http.NotFound(w, r)
			return
		}
		st = got
	}
	writeHTML(w, h.renderPlacementBoard(*st, errMsg, status))
}

func (h *handlers) placementSetCell(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	_ = r.ParseForm()
	row, rerr := strconv.Atoi(r.Form.Get("r"))
	col, cerr := strconv.Atoi(r.Form.Get("c"))
	if rerr != nil || cerr != nil {
		h.placementRespond(w, r, id, nil, domain.ErrOutOfBounds, "")
		return
	}
	var v uint8
	if raw := r.Form.Get("v"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 || n > 9 {
			h.placementRespond(w, r, id, nil, domain.ErrInvalidGrid, "")
			return
		}
		v = uint8(n)
	}
	st, err := h.svc.SetPlacementCell(r.Context(), id, row, col, v)
	h.placementRespond(w, r, id, st, err, "")
}

func (h *handlers) placementHint(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	st, err := h.svc.PlacementHint(r.Context(), id)
	h.placementRespond(w, r, id, st, err, "")
}

func (h *handlers) placementCheck(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	valid, complete, err := h.svc.CheckPlacement(r.Context(), id)
	var status string
	if err == nil {
		switch {
		case complete:
			status = "Solved!"
		case valid:
			status = "No mistakes so far"
		default:
			status = "Some cells are wrong"
		}
	}
	h.placementRespond(w, r, id, nil, err, status)
}

func (h *handlers) placementSolve(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	st, err := h.svc.SolvePlacement(r.Context(), id)
	h.placementRespond(w, r, id, st, err, "")
}

// placementElapsed is a beacon endpoint; the page posts its timer so
// elapsed time survives reloads.
func (h *handlers) placementElapsed(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	_ = r.ParseForm()
	seconds, err := strconv.Atoi(r.Form.Get("seconds"))
	if err != nil || seconds < 0 {
		http.Error(w, "bad seconds", http.StatusBadRequest)
		return
	}
	if err := h.svc.UpdatePlacementElapsed(r.Context(), id, seconds); err != nil {
		http.NotFound(w, r)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- sessions ----

func (h *handlers) sessionDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.log.WithError(err).WithField("id", id).Warn("deleting session")
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// ---- pairs ----

func (h *handlers) pairsCreate(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	pairs, err := strconv.Atoi(r.Form.Get("pairs"))
	if err != nil {
		pairs = 8
	}
	st, err := h.svc.NewPairsGame(r.Context(), pairs)
	if err != nil {
		if errors.Is(err, app.ErrBadPairCount) {
			http.Error(w, "bad pair count", http.StatusBadRequest)
			return
		}
		h.log.WithError(err).Error("creating pairs session")
		http.Error(w, "failed to create", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/pairs/"+st.ID, http.StatusSeeOther)
}

func (h *handlers) pairsView(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	st, err := h.svc.GetPairs(r.Context(), id)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	data := struct {
		ID        string
		BoardHTML template.HTML
	}{ID: st.ID, BoardHTML: template.HTML(h.renderPairsBoard(*st, ""))}
	writeHTML(w, renderTemplate(h.tpl.pairsPage, data))
}

func (h *handlers) pairsOpen(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	_ = r.ParseForm()
	cell, cerr := strconv.Atoi(r.Form.Get("cell"))
	var st *app.PairsState
	var err error
	if cerr != nil {
		err = domain.ErrOutOfBounds
	} else {
		st, err = h.svc.PairsOpen(r.Context(), id, cell)
	}
	if err != nil {
		if errors.Is(err, app.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		got, gerr := h.svc.GetPairs(r.Context(), id)
		if gerr != nil {
			http.NotFound(w, r)
			return
		}
		writeHTML(w, h.renderPairsBoard(*got, errorMessage(err)))
		return
	}
	writeHTML(w, h.renderPairsBoard(*st, ""))
}

func (h *handlers) pairsResolve(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	st, err := h.svc.PairsResolve(r.Context(), id)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	writeHTML(w, h.renderPairsBoard(*st, ""))
}

// ---- SSE ----

var heartbeatInterval = 15 * time.Second

func (h *handlers) events(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	// In tests or non-EventSource requests, just acknowledge headers and return
	if r.Header.Get("Accept") != "text/event-stream" {
		w.WriteHeader(http.StatusOK)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		w.WriteHeader(http.StatusOK)
		return
	}
	ctx := r.Context()
	ch, _ := h.svc.Subscribe(ctx, id)
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	flusher.Flush()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = io.WriteString(w, ": ping\n\n")
			flusher.Flush()
		case b, ok := <-ch:
			if !ok {
				return
			}
			_, _ = fmt.Fprintf(w, "event: board\n")
			_, _ = fmt.Fprintf(w, "data: %s\n\n", b)
			flusher.Flush()
		}
	}
}
