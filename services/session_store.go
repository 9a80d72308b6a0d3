package services

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"docqa-platform/models"
)

// SessionStore records which documents a session has ingested. Deduplication
// itself is global and fingerprint-based; the session set only exists so a
// conversation can enumerate its own documents.
type SessionStore interface {
	// Track appends fingerprint to the session's document set, creating the
	// session on first use. Appending an already-present fingerprint is a
	// no-op.
	Track(ctx context.Context, sessionID, fingerprint string) error
	Get(ctx context.Context, sessionID string) (*models.Session, error)
}

// MemorySessionStore keeps sessions in process memory.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]*models.Session)}
}

func (s *MemorySessionStore) Track(ctx context.Context, sessionID, fingerprint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = &models.Session{ID: sessionID, CreatedAt: time.Now()}
		s.sessions[sessionID] = sess
	}
	for _, id := range sess.DocumentIDs {
		if id == fingerprint {
			return nil
		}
	}
	sess.DocumentIDs = append(sess.DocumentIDs, fingerprint)
	sess.UpdatedAt = time.Now()
	return nil
}

func (s *MemorySessionStore) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	cp := *sess
	cp.DocumentIDs = append([]string(nil), sess.DocumentIDs...)
	return &cp, nil
}

// MongoSessionStore persists sessions with $addToSet so the append is atomic
// and idempotent server-side.
type MongoSessionStore struct {
	col *mongo.Collection
}

func NewMongoSessionStore(db *mongo.Database) *MongoSessionStore {
	return &MongoSessionStore{col: db.Collection("sessions")}
}

func (s *MongoSessionStore) Track(ctx context.Context, sessionID, fingerprint string) error {
	now := time.Now()
	_, err := s.col.UpdateOne(ctx,
		bson.M{"_id": sessionID},
		bson.M{
			"$addToSet":    bson.M{"document_ids": fingerprint},
			"$set":         bson.M{"updated_at": now},
			"$setOnInsert": bson.M{"created_at": now},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

func (s *MongoSessionStore) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	var sess models.Session
	err := s.col.FindOne(ctx, bson.M{"_id": sessionID}).Decode(&sess)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}
