package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/jaminalder/codex-arcade/internal/domain"
)

// The /api endpoints expose the board engines directly as JSON, with no
// session state: the caller supplies the grids.

type apiError struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "bad request body"})
		return false
	}
	return true
}

// ---- merge ----

type mergeMoveReq struct {
	Grid      domain.MergeGrid `json:"grid"`
	Direction string           `json:"direction"`
}

type mergeMoveResp struct {
	Grid         domain.MergeGrid `json:"grid"`
	PointsGained int              `json:"pointsGained"`
	Changed      bool             `json:"changed"`
	AnyMoveLeft  bool             `json:"anyMoveLeft"`
}

func (h *handlers) apiMergeMove(w http.ResponseWriter, r *http.Request) {
	var req mergeMoveReq
	if !decodeJSON(w, r, &req) {
		return
	}
	dir, ok := parseDirection(req.Direction)
	if !ok {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "bad direction"})
		return
	}
	res, err := domain.ApplyMove(req.Grid, dir)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, apiError{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, mergeMoveResp{
		Grid:         res.Grid,
		PointsGained: res.PointsGained,
		Changed:      res.Changed,
		AnyMoveLeft:  domain.HasAnyLegalMove(res.Grid),
	})
}

// ---- placement ----

type generateReq struct {
	Difficulty string `json:"difficulty,omitempty"`
	Seed       int64  `json:"seed,omitempty"`
}

type generateResp struct {
	Clues      domain.ConstraintGrid `json:"clues"`
	Solution   domain.ConstraintGrid `json:"solution"`
	Difficulty string                `json:"difficulty"`
	Seed       int64                 `json:"seed"`
}

func (h *handlers) apiPlacementGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateReq
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Seed == 0 {
		req.Seed = time.Now().UnixNano()
	}
	d := domain.ParseDifficulty(req.Difficulty)
	p := domain.NewPuzzle(d, domain.NewRand(req.Seed))
	writeJSON(w, http.StatusOK, generateResp{
		Clues:      p.Clues,
		Solution:   p.Solution,
		Difficulty: d.String(),
		Seed:       req.Seed,
	})
}

type solveReq struct {
	Grid domain.ConstraintGrid `json:"grid"`
}

type solveResp struct {
	Solved domain.ConstraintGrid `json:"solved"`
}

func (h *handlers) apiPlacementSolve(w http.ResponseWriter, r *http.Request) {
	var req solveReq
	if !decodeJSON(w, r, &req) {
		return
	}
	solved, err := domain.Solve(req.Grid, nil)
	if err != nil {
		code := http.StatusUnprocessableEntity
		if errors.Is(err, domain.ErrInvalidGrid) {
			code = http.StatusBadRequest
		}
		writeJSON(w, code, apiError{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, solveResp{Solved: solved})
}

type validateReq struct {
	Working  domain.ConstraintGrid `json:"working"`
	Solution domain.ConstraintGrid `json:"solution"`
}

type validateResp struct {
	Valid    bool `json:"valid"`
	Complete bool `json:"complete"`
}

func (h *handlers) apiPlacementValidate(w http.ResponseWriter, r *http.Request) {
	var req validateReq
	if !decodeJSON(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, validateResp{
		Valid:    domain.Validate(req.Working, req.Solution),
		Complete: domain.IsComplete(req.Working, req.Solution),
	})
}
