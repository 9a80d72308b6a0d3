package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docqa-platform/models"
	"docqa-platform/services"
	"docqa-platform/utils"
)

// SetupDocumentRoutes wires listing and deletion of indexed documents.
func SetupDocumentRoutes(router *gin.Engine, registry services.DocumentRegistry,
	sessions services.SessionStore, ingestion *services.IngestionService) {

	router.GET("/documents", func(c *gin.Context) {
		sessionID := c.Query("session_id")
		if sessionID == "" {
			utils.RespondWithBadRequest(c, "session_id is required", nil)
			return
		}

		sess, err := sessions.Get(c.Request.Context(), sessionID)
		if err != nil {
			utils.RespondWithInternalError(c, "failed to load session", nil)
			return
		}
		if sess == nil {
			c.JSON(http.StatusOK, gin.H{"session_id": sessionID, "documents": []models.Document{}})
			return
		}

		docs := make([]models.Document, 0, len(sess.DocumentIDs))
		for _, id := range sess.DocumentIDs {
			doc, err := registry.Get(c.Request.Context(), id)
			if err != nil {
				utils.RespondWithInternalError(c, "failed to load document", gin.H{"document_id": id})
				return
			}
			if doc != nil {
				docs = append(docs, *doc)
			}
		}
		c.JSON(http.StatusOK, gin.H{"session_id": sessionID, "documents": docs})
	})

	router.DELETE("/documents/:id", func(c *gin.Context) {
		fingerprint := c.Param("id")

		doc, err := registry.Get(c.Request.Context(), fingerprint)
		if err != nil {
			utils.RespondWithInternalError(c, "failed to load document", nil)
			return
		}
		if doc == nil {
			utils.RespondWithNotFound(c, "document not found")
			return
		}

		if err := ingestion.Delete(c.Request.Context(), fingerprint); err != nil {
			utils.RespondWithInternalError(c, "failed to delete document", nil)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "deleted", "document_id": fingerprint})
	})
}
