package handlers

import (
	"net/http"
	"time"

	"live-voting/internal/domain"
	"live-voting/internal/store"
	"live-voting/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StateSource reports the push channel's lifecycle state.
type StateSource interface {
	State() domain.ConnectionState
}

// ViewHandler serves the store's current views as JSON.
type ViewHandler struct {
	store   *store.Store
	channel StateSource
	log     logger.Logger
}

type StatusResponse struct {
	Connection   string               `json:"connection"`
	HasVoted     bool                 `json:"has_voted"`
	VotedFor     *int                 `json:"voted_candidate_id"`
	Loading      bool                 `json:"loading"`
	Error        string               `json:"error,omitempty"`
	Notification *domain.Notification `json:"notification,omitempty"`
}

type ResultsResponse struct {
	Results    []domain.ResultWithPercentage `json:"results"`
	TotalVotes int                           `json:"total_votes"`
}

func NewViewHandler(st *store.Store, channel StateSource, log logger.Logger) *ViewHandler {
	return &ViewHandler{
		store:   st,
		channel: channel,
		log:     log,
	}
}

func (h *ViewHandler) GetResults(c echo.Context) error {
	return c.JSON(http.StatusOK, ResultsResponse{
		Results:    h.store.ResultsWithPercentage.Get(),
		TotalVotes: h.store.Results.Get().TotalVotes,
	})
}

func (h *ViewHandler) GetSortedResults(c echo.Context) error {
	return c.JSON(http.StatusOK, h.store.SortedResults.Get())
}

func (h *ViewHandler) GetWinner(c echo.Context) error {
	winner := h.store.Winner.Get()
	if winner == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "No results yet"})
	}
	return c.JSON(http.StatusOK, winner)
}

func (h *ViewHandler) GetCandidates(c echo.Context) error {
	return c.JSON(http.StatusOK, h.store.Candidates.Get())
}

func (h *ViewHandler) GetStatus(c echo.Context) error {
	status := h.store.VoteStatus.Get()
	return c.JSON(http.StatusOK, StatusResponse{
		Connection:   h.channel.State().String(),
		HasVoted:     status.HasVoted,
		VotedFor:     status.VotedCandidateID,
		Loading:      h.store.Loading.Get(),
		Error:        h.store.Error.Get(),
		Notification: h.store.Notification.Get(),
	})
}

func (h *ViewHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":     "healthy",
		"connection": h.channel.State().String(),
		"timestamp":  time.Now().Format(time.RFC3339),
	})
}

// NewViewServer wires the view routes, health and metrics into an echo
// instance.
func NewViewServer(h *ViewHandler, gatherer prometheus.Gatherer) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{echo.GET, echo.HEAD, echo.OPTIONS},
	}))

	views := e.Group("/api/views")
	views.GET("/results", h.GetResults)
	views.GET("/sorted", h.GetSortedResults)
	views.GET("/winner", h.GetWinner)
	views.GET("/candidates", h.GetCandidates)
	views.GET("/status", h.GetStatus)

	e.GET("/health", h.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	return e
}
