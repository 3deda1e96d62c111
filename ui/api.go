package ui

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"depositscope/app"
	"depositscope/internal/errors"
	"depositscope/internal/metrics"
)

// apiError maps the artifact error taxonomy onto JSON statuses: invalid
// input is the caller's fault, a missing artifact is absent data, and
// everything else is a server failure.
func apiError(c *gin.Context, err error) {
	switch {
	case errors.IsFeatureMismatch(err), errors.IsUnknownModel(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.IsArtifactMissing(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (s *Server) handleAPISummary(c *gin.Context) {
	summary, err := s.store.ProjectSummary()
	if err != nil {
		apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) handleAPIModels(c *gin.Context) {
	metric := comparisonMetric(c.Query("sort"))
	limit := intQuery(c, "limit", 0, 100)
	results, err := s.reporting.Comparison(metric, limit)
	if err != nil {
		apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"metric": metric,
		"count":  len(results),
		"models": results,
	})
}

func (s *Server) handleAPIRecords(c *gin.Context) {
	ds, err := s.store.CleanedData()
	if err != nil {
		apiError(c, err)
		return
	}
	filtered := filterFromQuery(c).Apply(ds.Records)
	total := len(filtered)

	limit := intQuery(c, "limit", 100, 1000)
	if limit > 0 && len(filtered) > limit {
		filtered = filtered[:limit]
	}
	c.JSON(http.StatusOK, gin.H{
		"total":   total,
		"count":   len(filtered),
		"records": filtered,
	})
}

type predictRequest struct {
	Model string `json:"model"`
	app.PredictionInput
}

func (s *Server) handleAPIPredict(c *gin.Context) {
	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	result, err := s.predictions.Predict(req.Model, req.PredictionInput)
	if err != nil {
		status := "failed"
		if errors.IsFeatureMismatch(err) || errors.IsUnknownModel(err) {
			status = "invalid"
		}
		metrics.PredictionsTotal.WithLabelValues(req.Model, status).Inc()
		apiError(c, err)
		return
	}
	metrics.PredictionsTotal.WithLabelValues(req.Model, "ok").Inc()
	c.JSON(http.StatusOK, result)
}

func intQuery(c *gin.Context, name string, fallback, ceiling int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	if ceiling > 0 && v > ceiling {
		return ceiling
	}
	return v
}
