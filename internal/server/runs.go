package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/wonk/config"
	"github.com/mohammad-safakhou/wonk/internal/pipeline"
	"github.com/mohammad-safakhou/wonk/internal/telemetry"
)

// RunsHandler exposes the pipeline driver surface over HTTP
type RunsHandler struct {
	cfg  *config.Config
	ctrl *pipeline.Controller
	tele *telemetry.Telemetry
}

func NewRunsHandler(cfg *config.Config, ctrl *pipeline.Controller, tele *telemetry.Telemetry) *RunsHandler {
	return &RunsHandler{cfg: cfg, ctrl: ctrl, tele: tele}
}

func (h *RunsHandler) Register(g *echo.Group) {
	g.POST("/runs", h.start)
	g.GET("/runs/:run_id", h.poll)
	g.GET("/runs/:run_id/report", h.report)
	g.GET("/runs/:run_id/report.md", h.markdown)
	g.GET("/stats", h.stats)
}

type startRequest struct {
	Topic string `json:"topic"`
}

func (h *RunsHandler) start(c echo.Context) error {
	var req startRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	topic := req.Topic
	if topic == "" {
		topic = h.cfg.General.DefaultTopic
	}
	runID, err := h.ctrl.Start(topic)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, map[string]string{"run_id": runID, "topic": topic})
}

func (h *RunsHandler) poll(c echo.Context) error {
	snap, err := h.ctrl.Poll(c.Param("run_id"))
	if err != nil {
		return httpErr(err)
	}
	return c.JSON(http.StatusOK, snap)
}

func (h *RunsHandler) report(c echo.Context) error {
	report, err := h.ctrl.Report(c.Param("run_id"))
	if err != nil {
		return httpErr(err)
	}
	return c.JSON(http.StatusOK, report)
}

func (h *RunsHandler) markdown(c echo.Context) error {
	report, err := h.ctrl.Report(c.Param("run_id"))
	if err != nil {
		return httpErr(err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="policy_report.md"`)
	return c.Blob(http.StatusOK, "text/markdown; charset=utf-8", []byte(report.Markdown()))
}

func (h *RunsHandler) stats(c echo.Context) error {
	return c.JSON(http.StatusOK, h.tele.Snapshot())
}

// httpErr maps pipeline errors onto HTTP status codes.
func httpErr(err error) error {
	if errors.Is(err, pipeline.ErrUnknownRun) {
		return echo.NewHTTPError(http.StatusNotFound, "run not found")
	}
	var stateErr *pipeline.StateError
	if errors.As(err, &stateErr) {
		return echo.NewHTTPError(http.StatusConflict, stateErr.Error())
	}
	return err
}
