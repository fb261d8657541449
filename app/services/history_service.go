package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/commission-finder/app/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// IHistoryService stores reload attempts.
type IHistoryService interface {
	Record(ctx context.Context, entry *models.ReloadHistory) error
	// List returns the newest entries first. An empty marketplace lists all.
	List(ctx context.Context, marketplace string, limit int) ([]models.ReloadHistory, error)
	Close() error
}

// MongoHistoryService keeps reload history in the reload_history collection.
type MongoHistoryService struct {
	collection *mongo.Collection
	logger     *zap.Logger
}

// NewMongoHistoryService prepares the collection and its indexes.
func NewMongoHistoryService(db *mongo.Database, logger *zap.Logger) (*MongoHistoryService, error) {
	collection := db.Collection("reload_history")

	indexModels := []mongo.IndexModel{
		{
			Keys: bson.D{bson.E{Key: "marketplace", Value: 1}, bson.E{Key: "started_at", Value: -1}},
		},
		{
			Keys: bson.D{bson.E{Key: "started_at", Value: -1}},
		},
		{
			Keys:    bson.D{bson.E{Key: "reload_id", Value: 1}, bson.E{Key: "marketplace", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := collection.Indexes().CreateMany(ctx, indexModels); err != nil {
		logger.Warn("Cannot create reload_history indexes", zap.Error(err))
	}

	return &MongoHistoryService{collection: collection, logger: logger}, nil
}

func (mhs *MongoHistoryService) Record(ctx context.Context, entry *models.ReloadHistory) error {
	if _, err := mhs.collection.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("insert reload history: %w", err)
	}
	return nil
}

func (mhs *MongoHistoryService) List(ctx context.Context, marketplace string, limit int) ([]models.ReloadHistory, error) {
	filter := bson.M{}
	if marketplace != "" {
		filter["marketplace"] = marketplace
	}
	opts := options.Find().SetSort(bson.D{bson.E{Key: "started_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := mhs.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("query reload history: %w", err)
	}
	defer cursor.Close(ctx)

	entries := []models.ReloadHistory{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("decode reload history: %w", err)
	}
	return entries, nil
}

// Close is a no-op; the client is owned by the caller.
func (mhs *MongoHistoryService) Close() error {
	return nil
}

// MemoryHistoryService keeps the last capacity entries in process. Used when
// no MongoDB is configured.
type MemoryHistoryService struct {
	mu       sync.RWMutex
	entries  []models.ReloadHistory
	capacity int
}

// NewMemoryHistoryService creates a bounded in-memory history.
func NewMemoryHistoryService(capacity int) *MemoryHistoryService {
	if capacity <= 0 {
		capacity = 500
	}
	return &MemoryHistoryService{capacity: capacity}
}

func (m *MemoryHistoryService) Record(ctx context.Context, entry *models.ReloadHistory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, *entry)
	if over := len(m.entries) - m.capacity; over > 0 {
		m.entries = append([]models.ReloadHistory(nil), m.entries[over:]...)
	}
	return nil
}

func (m *MemoryHistoryService) List(ctx context.Context, marketplace string, limit int) ([]models.ReloadHistory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []models.ReloadHistory{}
	for i := len(m.entries) - 1; i >= 0; i-- {
		e := m.entries[i]
		if marketplace != "" && e.Marketplace != marketplace {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *MemoryHistoryService) Close() error {
	return nil
}
