package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ZanzyTHEbar/impact-effort-matrix/internal/analysis"
	"github.com/ZanzyTHEbar/impact-effort-matrix/internal/dashboard"
	"github.com/ZanzyTHEbar/impact-effort-matrix/internal/errors"
	"github.com/ZanzyTHEbar/impact-effort-matrix/internal/monitoring"
)

type filterRequest struct {
	Kind     analysis.FilterKind `json:"kind" binding:"required"`
	Value    string              `json:"value" binding:"required"`
	Included bool                `json:"included"`
}

type sortRequest struct {
	Field analysis.SortField `json:"field" binding:"required"`
	Order analysis.SortOrder `json:"order"`
}

func (s *Server) fail(c *gin.Context, err error) {
	appErr := errors.ToAppError(err)
	appErr.RequestID = c.GetHeader(monitoring.RequestIDHeader)
	errors.LogError(c, appErr)
	c.JSON(appErr.HTTPStatus, appErr.Body())
}

func (s *Server) apply(c *gin.Context, ev dashboard.Event) {
	snap, err := s.session.Dispatch(ev)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Server) health(c *gin.Context) {
	store := s.session.Store()
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   s.version,
		"uptime":    time.Since(s.started).String(),
		"dataset": gin.H{
			"id":          store.ID(),
			"source":      store.Source(),
			"loaded_at":   store.LoadedAt().Format(time.RFC3339),
			"evaluations": store.Len(),
			"people":      len(store.People()),
			"issues":      len(store.Issues()),
		},
	})
}

func (s *Server) metricsStats(c *gin.Context) {
	stats := s.metrics.GetStats()
	if s.cache != nil {
		stats["cache"] = s.cache.Stats()
	}
	stats["rate_limited_ips"] = s.security.TrackedIPs()
	stats["compression"] = s.gzip.GetStats()
	c.JSON(http.StatusOK, stats)
}

func (s *Server) view(c *gin.Context) {
	c.JSON(http.StatusOK, s.session.Snapshot())
}

func (s *Server) state(c *gin.Context) {
	c.JSON(http.StatusOK, s.session.State())
}

func (s *Server) dispatchEvent(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		s.fail(c, errors.NewValidationError("failed to read request body", err.Error()))
		return
	}

	ev, err := dashboard.DecodeEvent(body)
	if err != nil {
		s.fail(c, err)
		return
	}
	if f, ok := ev.(dashboard.ToggleFilter); ok {
		if err := s.security.ValidateName(f.Value); err != nil {
			s.fail(c, errors.NewValidationError("invalid filter value", err.Error()))
			return
		}
	}
	s.apply(c, ev)
}

func (s *Server) setWeights(c *gin.Context) {
	var req dashboard.WeightInputs
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, errors.NewValidationError("invalid request body", err.Error()))
		return
	}

	s.apply(c, dashboard.SetWeights{Weights: req.Parse()})
}

func (s *Server) toggleFilter(c *gin.Context) {
	var req filterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, errors.NewValidationError("invalid request body", err.Error()))
		return
	}
	if err := s.security.ValidateName(req.Value); err != nil {
		s.fail(c, errors.NewValidationError("invalid filter value", err.Error()))
		return
	}

	s.apply(c, dashboard.ToggleFilter{Kind: req.Kind, Value: req.Value, Included: req.Included})
}

func (s *Server) toggleScaling(c *gin.Context) {
	s.apply(c, dashboard.ToggleScaling{Metric: analysis.Metric(c.Param("metric"))})
}

func (s *Server) switchView(c *gin.Context) {
	s.apply(c, dashboard.SwitchView{View: dashboard.View(c.Param("view"))})
}

func (s *Server) sortTable(c *gin.Context) {
	var req sortRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, errors.NewValidationError("invalid request body", err.Error()))
		return
	}

	s.apply(c, dashboard.SortTable{Field: req.Field, Order: req.Order})
}

func (s *Server) toggleQuadrant(c *gin.Context) {
	s.apply(c, dashboard.SelectQuadrant{Quadrant: analysis.Quadrant(c.Param("quadrant"))})
}

func (s *Server) clearQuadrant(c *gin.Context) {
	s.apply(c, dashboard.ClearQuadrant{})
}

// feature names may contain slashes, so the route is a catch-all
func (s *Server) feature(c *gin.Context) {
	name := strings.TrimPrefix(c.Param("name"), "/")
	if err := s.security.ValidateName(name); err != nil {
		s.fail(c, errors.NewValidationError("invalid feature name", err.Error()))
		return
	}

	f, err := s.session.Feature(name)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

func (s *Server) palette(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"palette":  analysis.Palette(),
		"fallback": analysis.FallbackColor,
	})
}

func (s *Server) issues(c *gin.Context) {
	store := s.session.Store()
	issues := store.Issues()
	if issues == nil {
		issues = []analysis.Issue{}
	}
	c.JSON(http.StatusOK, gin.H{
		"source": store.Source(),
		"count":  len(issues),
		"issues": issues,
	})
}

func (s *Server) reloadDataset(c *gin.Context) {
	if s.reload == nil {
		s.fail(c, errors.NewConfigurationError("reload is not configured", nil))
		return
	}
	if s.cache != nil {
		s.cache.Clear()
	}

	store := s.reload(c.Request.Context())
	snap := s.session.Replace(store)
	s.logger.SystemLogger("dataset_reloaded", store.Source())
	c.JSON(http.StatusOK, snap)
}
