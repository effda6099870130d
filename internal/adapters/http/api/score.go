package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/kpiboard/internal/domain/model"
	"github.com/okian/kpiboard/internal/domain/scoring"
	"github.com/okian/kpiboard/internal/domain/types"
)

const maxScoreBody = 1 << 16

// ScoreDependencies defines the interface for ad-hoc scoring.
type ScoreDependencies interface {
	Score(ctx context.Context, in scoring.Input) types.Breakdown
}

// ScoreHandler handles score requests.
type ScoreHandler struct {
	deps ScoreDependencies
}

// NewScoreHandler creates a new score handler.
func NewScoreHandler(deps ScoreDependencies) *ScoreHandler {
	return &ScoreHandler{deps: deps}
}

// scoreRequest mirrors the OpenAPI schema for POST /score. A missing
// attendance_target means the default working-day count.
type scoreRequest struct {
	SalesActual      float64  `json:"sales_actual"`
	SalesTarget      float64  `json:"sales_target"`
	CommissionActual float64  `json:"commission_actual"`
	CommissionTarget float64  `json:"commission_target"`
	AttendanceActual float64  `json:"attendance_actual"`
	AttendanceTarget *float64 `json:"attendance_target"`
}

func (req scoreRequest) input() scoring.Input {
	in := scoring.Input{
		SalesActual:      req.SalesActual,
		SalesTarget:      req.SalesTarget,
		CommissionActual: req.CommissionActual,
		CommissionTarget: req.CommissionTarget,
		AttendanceActual: req.AttendanceActual,
		AttendanceTarget: model.DefaultAttendanceTarget,
	}
	if req.AttendanceTarget != nil {
		in.AttendanceTarget = *req.AttendanceTarget
	}
	return in
}

// HandlePostScore handles POST /score requests.
func (h *ScoreHandler) HandlePostScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_score"
	if r.Method != http.MethodPost {
		methodNotAllowed(w, op, http.MethodPost)
		return
	}

	var req scoreRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxScoreBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", opError(op, ErrBadRequest, err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Score(r.Context(), req.input()))
}
