package routes

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"docqa-platform/internal/config"
	"docqa-platform/internal/telemetry"
	"docqa-platform/models"
	"docqa-platform/services"
	"docqa-platform/utils"
)

// SetupAskRoutes wires the question-answering endpoint.
func SetupAskRoutes(router *gin.Engine, cfg *config.Config, qa *services.QAService, metrics *telemetry.Metrics) {
	router.POST("/ask", func(c *gin.Context) {
		var req models.AskRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "invalid request body", gin.H{"error": err.Error()})
			return
		}
		k := req.TopK
		if k == 0 {
			k = cfg.TopK
		}
		if k < 0 {
			utils.RespondWithBadRequest(c, "k must be positive", nil)
			return
		}

		start := time.Now()
		resp, err := qa.Ask(c.Request.Context(), req.SessionID, req.Question, k)
		elapsed := time.Since(start).Seconds()

		if err != nil {
			if errors.Is(err, services.ErrGenerationUnavailable) && resp != nil {
				// Evidence survived; the client retries generation only.
				metrics.RecordQuestion(c.Request.Context(), false, true, elapsed)
				c.JSON(http.StatusServiceUnavailable, resp)
				return
			}
			metrics.RecordQuestion(c.Request.Context(), false, false, elapsed)
			utils.RespondWithEngineError(c, err)
			return
		}

		metrics.RecordQuestion(c.Request.Context(), resp.Cached, false, elapsed)
		c.JSON(http.StatusOK, resp)
	})
}
