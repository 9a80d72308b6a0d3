package routes

import (
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"docqa-platform/internal/config"
	"docqa-platform/internal/queue"
	"docqa-platform/internal/telemetry"
	"docqa-platform/models"
	"docqa-platform/services"
	"docqa-platform/utils"
)

// SetupIngestRoutes wires the document upload endpoint. Small files are
// processed inline; large files (or async=true) are spooled to disk and
// handed to the asynq worker.
func SetupIngestRoutes(router *gin.Engine, cfg *config.Config, ingestion *services.IngestionService,
	files *services.FileStore, queueClient *asynq.Client, metrics *telemetry.Metrics) {

	router.POST("/ingest", func(c *gin.Context) {
		sessionID := c.PostForm("session_id")
		if sessionID == "" {
			sessionID = c.GetHeader("X-Session-ID")
		}
		if sessionID == "" {
			utils.RespondWithBadRequest(c, "session_id is required", nil)
			return
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			utils.RespondWithBadRequest(c, "file is required", gin.H{"error": err.Error()})
			return
		}
		if fileHeader.Size > cfg.MaxFileSize {
			utils.RespondWithError(c, http.StatusRequestEntityTooLarge, "file_too_large",
				"file exceeds the maximum allowed size", gin.H{"max_bytes": cfg.MaxFileSize})
			return
		}

		mimeType := resolveMimeType(fileHeader.Header.Get("Content-Type"), fileHeader.Filename)
		if !mimeAllowed(cfg.AllowedTypes, mimeType) {
			utils.RespondWithError(c, http.StatusUnsupportedMediaType, "unsupported_format",
				"file type is not supported", gin.H{"mime_type": mimeType})
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			utils.RespondWithInternalError(c, "failed to open upload", nil)
			return
		}
		defer file.Close()
		fileBytes, err := io.ReadAll(file)
		if err != nil {
			utils.RespondWithInternalError(c, "failed to read upload", nil)
			return
		}

		async := c.PostForm("async") == "true" || fileHeader.Size > cfg.SyncProcessingLimit
		if async && queueClient != nil {
			path, err := files.Store(fileBytes, fileHeader.Filename)
			if err != nil {
				utils.RespondWithInternalError(c, "failed to spool upload", nil)
				return
			}
			task, err := queue.NewIngestTask(sessionID, fileHeader.Filename, mimeType, path)
			if err != nil {
				files.Cleanup(path)
				utils.RespondWithInternalError(c, "failed to create ingestion task", nil)
				return
			}
			info, err := queueClient.Enqueue(task)
			if err != nil {
				files.Cleanup(path)
				utils.RespondWithInternalError(c, "failed to enqueue ingestion task", nil)
				return
			}
			c.JSON(http.StatusAccepted, models.IngestResponse{
				Status:     "queued",
				DocumentID: services.Fingerprint(fileBytes),
				Filename:   fileHeader.Filename,
				TaskID:     info.ID,
			})
			return
		}

		start := time.Now()
		resp, err := ingestion.Ingest(c.Request.Context(), sessionID, fileHeader.Filename, mimeType, fileBytes)
		if resp != nil {
			metrics.RecordIngestion(c.Request.Context(), resp.Status, resp.ChunkCount, time.Since(start).Seconds())
		}
		if err != nil {
			// resp still describes the failed document; expose both the
			// stable kind and the reason.
			status := http.StatusInternalServerError
			switch services.ErrorKind(err) {
			case "unsupported_format":
				status = http.StatusUnsupportedMediaType
			case "corrupt_document":
				status = http.StatusUnprocessableEntity
			case "embedding_unavailable":
				status = http.StatusServiceUnavailable
			}
			c.JSON(status, gin.H{
				"error_code": services.ErrorKind(err),
				"message":    err.Error(),
				"result":     resp,
			})
			return
		}

		httpStatus := http.StatusCreated
		if resp.Status == string(models.OutcomeAlreadyIndexed) {
			httpStatus = http.StatusOK
		}
		c.JSON(httpStatus, resp)
	})
}

func resolveMimeType(headerType, filename string) string {
	if headerType != "" && headerType != "application/octet-stream" {
		if i := strings.Index(headerType, ";"); i >= 0 {
			headerType = headerType[:i]
		}
		return strings.TrimSpace(strings.ToLower(headerType))
	}
	if byExt := mime.TypeByExtension(filepath.Ext(filename)); byExt != "" {
		if i := strings.Index(byExt, ";"); i >= 0 {
			byExt = byExt[:i]
		}
		return strings.ToLower(byExt)
	}
	return headerType
}

func mimeAllowed(allowed []string, mimeType string) bool {
	for _, t := range allowed {
		if strings.EqualFold(strings.TrimSpace(t), mimeType) {
			return true
		}
	}
	return false
}
