package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"docqa-platform/services"
)

const TaskIngestDocument = "document:ingest"

// IngestPayload carries a spooled upload to the worker. The file itself
// stays on disk; only the path travels through Redis.
type IngestPayload struct {
	SessionID string `json:"session_id"`
	Filename  string `json:"filename"`
	MimeType  string `json:"mime_type"`
	FilePath  string `json:"file_path"`
}

// NewIngestTask creates an asynq task for asynchronous document ingestion.
func NewIngestTask(sessionID, filename, mimeType, filePath string) (*asynq.Task, error) {
	payload, err := json.Marshal(IngestPayload{
		SessionID: sessionID,
		Filename:  filename,
		MimeType:  mimeType,
		FilePath:  filePath,
	})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskIngestDocument,
		payload,
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
		asynq.Queue("ingestion"),
	), nil
}

// TaskProcessor executes queued ingestion tasks against the shared engine.
type TaskProcessor struct {
	ingestion *services.IngestionService
	files     *services.FileStore
	log       *slog.Logger
}

func NewTaskProcessor(ingestion *services.IngestionService, files *services.FileStore, log *slog.Logger) *TaskProcessor {
	if log == nil {
		log = slog.Default()
	}
	return &TaskProcessor{ingestion: ingestion, files: files, log: log}
}

func (p *TaskProcessor) ProcessIngest(ctx context.Context, t *asynq.Task) error {
	var payload IngestPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal failed: %w", asynq.SkipRetry)
	}

	p.log.Info("processing queued ingestion",
		"session_id", payload.SessionID, "filename", payload.Filename)

	fileBytes, err := p.files.Read(payload.FilePath)
	if err != nil {
		// The spooled file is gone; retrying cannot help.
		p.log.Error("spooled upload missing", "path", payload.FilePath, "error", err)
		return fmt.Errorf("read upload: %v: %w", err, asynq.SkipRetry)
	}

	resp, err := p.ingestion.Ingest(ctx, payload.SessionID, payload.Filename, payload.MimeType, fileBytes)
	if err != nil {
		if services.Retryable(err) {
			// Ingestion already rolled back; asynq will re-run the task and
			// the fresh register call re-accepts the failed document.
			return err
		}
		// Permanent failure: the registry records the reason, nothing to retry.
		p.files.Cleanup(payload.FilePath)
		p.log.Warn("queued ingestion failed permanently",
			"filename", payload.Filename, "kind", services.ErrorKind(err), "error", err)
		return errors.Join(err, asynq.SkipRetry)
	}

	p.files.Cleanup(payload.FilePath)
	p.log.Info("queued ingestion finished",
		"document_id", resp.DocumentID, "status", resp.Status, "chunks", resp.ChunkCount)
	return nil
}
