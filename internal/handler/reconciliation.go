package handler

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fabionascimentodev/Bahia-Driver-sub001/internal/redis"
	"github.com/fabionascimentodev/Bahia-Driver-sub001/internal/service"
)

// ReconciliationHandler handles HTTP requests for driver reconciliation.
type ReconciliationHandler struct {
	reconciler *service.Reconciler
	runCache   redis.RunCacheInterface
}

// NewReconciliationHandler creates a new ReconciliationHandler. runCache
// may be nil when Redis is disabled.
func NewReconciliationHandler(reconciler *service.Reconciler, runCache redis.RunCacheInterface) *ReconciliationHandler {
	return &ReconciliationHandler{
		reconciler: reconciler,
		runCache:   runCache,
	}
}

// ReconcileDriverRequest is the HTTP request body for reconciling one driver.
type ReconcileDriverRequest struct {
	Apply bool `json:"apply"`
}

// RunRequest is the HTTP request body for a full reconciliation run.
type RunRequest struct {
	Apply bool `json:"apply"`
	Limit int  `json:"limit"`
}

// RecordResponse is the HTTP response for one reconciled driver.
type RecordResponse struct {
	DriverID        string  `json:"driver_id"`
	RideCount       int     `json:"ride_count"`
	StoredBalance   float64 `json:"stored_balance"`
	StoredDebt      float64 `json:"stored_debt"`
	ComputedBalance float64 `json:"computed_balance"`
	ComputedDebt    float64 `json:"computed_debt"`
	BalanceDiff     float64 `json:"balance_diff"`
	DebtDiff        float64 `json:"debt_diff"`
	Mismatched      bool    `json:"mismatched"`
	Applied         bool    `json:"applied"`
}

// FailureResponse is a driver skipped during a run.
type FailureResponse struct {
	DriverID string `json:"driver_id"`
	Error    string `json:"error"`
}

// RunResponse is the HTTP response for a reconciliation run.
type RunResponse struct {
	RunID      string            `json:"run_id"`
	Mode       string            `json:"mode"`
	StartedAt  string            `json:"started_at"`
	FinishedAt string            `json:"finished_at"`
	Drivers    int               `json:"drivers"`
	Matched    int               `json:"matched"`
	Mismatched int               `json:"mismatched"`
	Applied    int               `json:"applied"`
	Failed     int               `json:"failed"`
	Records    []RecordResponse  `json:"records"`
	Failures   []FailureResponse `json:"failures"`
}

// GetDriverReconciliation handles GET /v1/admin/drivers/:id/reconciliation
func (h *ReconciliationHandler) GetDriverReconciliation(c *gin.Context) {
	outcome, err := h.reconciler.ReconcileDriver(c.Request.Context(), c.Param("id"), false)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRecordResponse(*outcome))
}

// ReconcileDriver handles POST /v1/admin/drivers/:id/reconciliation
func (h *ReconciliationHandler) ReconcileDriver(c *gin.Context) {
	var req ReconcileDriverRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	outcome, err := h.reconciler.ReconcileDriver(c.Request.Context(), c.Param("id"), req.Apply)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRecordResponse(*outcome))
}

// Run handles POST /v1/admin/reconciliations
func (h *ReconciliationHandler) Run(c *gin.Context) {
	var req RunRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if req.Limit < 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must not be negative"})
		return
	}

	report, err := h.reconciler.Run(c.Request.Context(), service.RunOptions{
		Apply: req.Apply,
		Limit: req.Limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRunResponse(report))
}

// GetLastRun handles GET /v1/admin/reconciliations/last
func (h *ReconciliationHandler) GetLastRun(c *gin.Context) {
	if h.runCache == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "run history is disabled"})
		return
	}

	summary, err := h.runCache.GetLastRun(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	if summary == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "no reconciliation run recorded"})
		return
	}

	respondJSON(c, http.StatusOK, summary)
}

// bindOptionalJSON binds a JSON body, treating an empty body as defaults.
func bindOptionalJSON(c *gin.Context, obj any) error {
	err := c.ShouldBindJSON(obj)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func toRecordResponse(o service.Outcome) RecordResponse {
	rec := o.Record
	return RecordResponse{
		DriverID:        rec.DriverID,
		RideCount:       rec.RideCount,
		StoredBalance:   rec.StoredBalance,
		StoredDebt:      rec.StoredDebt,
		ComputedBalance: rec.ComputedBalance,
		ComputedDebt:    rec.ComputedDebt,
		BalanceDiff:     rec.BalanceDiff,
		DebtDiff:        rec.DebtDiff,
		Mismatched:      o.Mismatched,
		Applied:         o.Applied,
	}
}

func toRunResponse(r *service.Report) RunResponse {
	matched, mismatched, applied := r.Counts()

	resp := RunResponse{
		RunID:      r.RunID,
		Mode:       r.Mode(),
		StartedAt:  r.StartedAt.Format(time.RFC3339),
		FinishedAt: r.FinishedAt.Format(time.RFC3339),
		Drivers:    len(r.Outcomes) + len(r.Failures),
		Matched:    matched,
		Mismatched: mismatched,
		Applied:    applied,
		Failed:     len(r.Failures),
		Records:    make([]RecordResponse, 0, len(r.Outcomes)),
		Failures:   make([]FailureResponse, 0, len(r.Failures)),
	}

	for _, o := range r.Outcomes {
		resp.Records = append(resp.Records, toRecordResponse(o))
	}
	for _, f := range r.Failures {
		resp.Failures = append(resp.Failures, FailureResponse{DriverID: f.DriverID, Error: f.Err.Error()})
	}

	return resp
}
