package service

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/portfolio-go-api/internal/attachment"
)

const uploadProgressTTL = time.Hour

// UploadProgressStore mirrors in-flight upload progress for polling clients.
type UploadProgressStore interface {
	For(assignmentID uint) attachment.ProgressSink
	Snapshot(ctx context.Context, assignmentID uint) (map[string]float64, error)
}

// NewUploadProgressStore returns a Redis-backed store, or an in-process one
// when client is nil.
func NewUploadProgressStore(client *redis.Client, logger zerolog.Logger) UploadProgressStore {
	if client == nil {
		return &memoryProgressStore{uploads: make(map[uint]map[string]float64)}
	}
	return &redisProgressStore{
		client: client,
		logger: logger.With().Str("component", "upload_progress").Logger(),
	}
}

type redisProgressStore struct {
	client *redis.Client
	logger zerolog.Logger
}

func (s *redisProgressStore) key(assignmentID uint) string {
	return fmt.Sprintf("upload:progress:%d", assignmentID)
}

func (s *redisProgressStore) For(assignmentID uint) attachment.ProgressSink {
	return redisProgressSink{store: s, key: s.key(assignmentID)}
}

func (s *redisProgressStore) Snapshot(ctx context.Context, assignmentID uint) (map[string]float64, error) {
	raw, err := s.client.HGetAll(ctx, s.key(assignmentID)).Result()
	if err != nil {
		return nil, err
	}
	uploads := make(map[string]float64, len(raw))
	for tempID, value := range raw {
		percent, err := strconv.ParseFloat(value, 64)
		if err != nil {
			continue
		}
		uploads[tempID] = percent
	}
	return uploads, nil
}

type redisProgressSink struct {
	store *redisProgressStore
	key   string
}

func (s redisProgressSink) Publish(tempID string, percent float64) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	pipe := s.store.client.TxPipeline()
	pipe.HSet(ctx, s.key, tempID, strconv.FormatFloat(percent, 'f', 1, 64))
	pipe.Expire(ctx, s.key, uploadProgressTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		s.store.logger.Debug().Err(err).Str("temp_id", tempID).Msg("failed to mirror upload progress")
	}
}

func (s redisProgressSink) Clear(tempID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.store.client.HDel(ctx, s.key, tempID).Err(); err != nil {
		s.store.logger.Debug().Err(err).Str("temp_id", tempID).Msg("failed to clear upload progress")
	}
}

type memoryProgressStore struct {
	mu      sync.Mutex
	uploads map[uint]map[string]float64
}

func (s *memoryProgressStore) For(assignmentID uint) attachment.ProgressSink {
	return memoryProgressSink{store: s, assignmentID: assignmentID}
}

func (s *memoryProgressStore) Snapshot(_ context.Context, assignmentID uint) (map[string]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	uploads := make(map[string]float64, len(s.uploads[assignmentID]))
	for tempID, percent := range s.uploads[assignmentID] {
		uploads[tempID] = percent
	}
	return uploads, nil
}

type memoryProgressSink struct {
	store        *memoryProgressStore
	assignmentID uint
}

func (s memoryProgressSink) Publish(tempID string, percent float64) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	uploads, ok := s.store.uploads[s.assignmentID]
	if !ok {
		uploads = make(map[string]float64)
		s.store.uploads[s.assignmentID] = uploads
	}
	uploads[tempID] = percent
}

func (s memoryProgressSink) Clear(tempID string) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	delete(s.store.uploads[s.assignmentID], tempID)
	if len(s.store.uploads[s.assignmentID]) == 0 {
		delete(s.store.uploads, s.assignmentID)
	}
}
