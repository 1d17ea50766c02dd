package server

import (
	"bytes"
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"osdashboard/internal/domain"
	"osdashboard/internal/export"
	"osdashboard/internal/report"
	"osdashboard/internal/session"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Views is the read side served to the dashboard.
type Views interface {
	Filtered(ctx context.Context, f report.Filter) ([]report.MergedRow, error)
	Summary(ctx context.Context, f report.Filter) (report.Summary, error)
	Options(ctx context.Context) (report.Options, error)
	InProgress(ctx context.Context) ([]report.InProgressRow, error)
	Details(ctx context.Context, orderNumber int64) ([]domain.DetailLine, error)
}

type Syncer interface {
	Run(ctx context.Context) session.Outcome
}

type Scheduler interface {
	Start() bool
	Stop() bool
	Running() bool
}

type Handler struct {
	views                 Views
	syncer                Syncer
	scheduler             Scheduler
	state                 *session.State
	credentialsConfigured bool
}

func NewHandler(views Views, syncer Syncer, scheduler Scheduler, state *session.State, credentialsConfigured bool) *Handler {
	return &Handler{
		views:                 views,
		syncer:                syncer,
		scheduler:             scheduler,
		state:                 state,
		credentialsConfigured: credentialsConfigured,
	}
}

type statusResponse struct {
	session.Status
	SchedulerRunning bool `json:"scheduler_running"`
}

type ordersResponse struct {
	Count int                `json:"count"`
	Rows  []report.MergedRow `json:"rows"`
}

func (h *Handler) ListOrders(c *gin.Context) {
	f, ok := bindFilter(c)
	if !ok {
		return
	}
	rows, err := h.views.Filtered(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordersResponse{Count: len(rows), Rows: rows})
}

func (h *Handler) ListInProgress(c *gin.Context) {
	rows, err := h.views.InProgress(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if rows == nil {
		rows = []report.InProgressRow{}
	}
	c.JSON(http.StatusOK, gin.H{"count": len(rows), "rows": rows})
}

func (h *Handler) GetSummary(c *gin.Context) {
	f, ok := bindFilter(c)
	if !ok {
		return
	}
	summary, err := h.views.Summary(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) GetFilterOptions(c *gin.Context) {
	opts, err := h.views.Options(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, opts)
}

func (h *Handler) GetDetails(c *gin.Context) {
	number, err := strconv.ParseInt(strings.TrimSpace(c.Query("order")), 10, 64)
	if err != nil || number <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "order must be a positive integer"})
		return
	}
	lines, err := h.views.Details(c.Request.Context(), number)
	if err != nil {
		respondError(c, err)
		return
	}
	if lines == nil {
		lines = []domain.DetailLine{}
	}
	c.JSON(http.StatusOK, gin.H{"order": number, "lines": lines})
}

func (h *Handler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, statusResponse{
		Status:           h.state.Status(),
		SchedulerRunning: h.scheduler.Running(),
	})
}

// Refresh runs one sync cycle in the request goroutine.
func (h *Handler) Refresh(c *gin.Context) {
	out := h.syncer.Run(c.Request.Context())
	if out.Rejected {
		c.JSON(http.StatusConflict, out)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) StartScheduler(c *gin.Context) {
	if !h.credentialsConfigured {
		c.JSON(http.StatusBadRequest, gin.H{"error": "login and password must be configured before starting the scheduler"})
		return
	}
	if !h.scheduler.Start() {
		c.JSON(http.StatusConflict, gin.H{"started": false, "running": h.scheduler.Running()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"started": true, "running": true})
}

func (h *Handler) StopScheduler(c *gin.Context) {
	stopped := h.scheduler.Stop()
	c.JSON(http.StatusOK, gin.H{"stopped": stopped, "running": h.scheduler.Running()})
}

func (h *Handler) ExportXLSX(c *gin.Context) {
	f, ok := bindFilter(c)
	if !ok {
		return
	}
	rows, err := h.views.Filtered(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	var buf bytes.Buffer
	if err := export.Write(&buf, rows); err != nil {
		log.Printf("export xlsx error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not build workbook"})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="os.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func bindFilter(c *gin.Context) (report.Filter, bool) {
	f := report.Filter{
		Plate:     c.Query("plate"),
		Brand:     c.Query("brand"),
		Type:      c.Query("type"),
		Situation: c.Query("situation"),
		Mechanic:  c.Query("mechanic"),
		Driver:    c.Query("driver"),
		Supplier:  c.Query("supplier"),
	}
	year := strings.TrimSpace(c.Query("year"))
	if year != "" && !strings.EqualFold(year, report.All) {
		y, err := strconv.Atoi(year)
		if err != nil || y <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "year must be a number or " + report.All})
			return report.Filter{}, false
		}
		f.Year = y
	}
	return f, true
}

func respondError(c *gin.Context, err error) {
	if errors.Is(err, report.ErrNoData) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	log.Printf("api error path=%s: %v", c.FullPath(), err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
