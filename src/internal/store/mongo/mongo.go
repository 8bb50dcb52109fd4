// FILE: logvault/src/internal/store/mongo/mongo.go
package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"logvault/src/internal/config"
	"logvault/src/internal/core"
	"logvault/src/internal/filter"
	"logvault/src/internal/store"

	"github.com/lixenwraith/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Store is the MongoDB backend. The client is pooled and safe for concurrent use.
type Store struct {
	config *config.StoreConfig
	client *mongo.Client
	logs   *mongo.Collection
	users  *mongo.Collection
	logger *log.Logger

	// Statistics
	totalInserts atomic.Uint64
	totalFinds   atomic.Uint64
	totalErrors  atomic.Uint64
}

var _ store.Store = (*Store)(nil)

// New connects to MongoDB, verifies the connection and ensures indexes
func New(ctx context.Context, cfg *config.StoreConfig, logger *log.Logger) (*Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("store config cannot be nil")
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(time.Duration(cfg.ConnectTimeoutMS) * time.Millisecond)
	if cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(uint64(cfg.MaxPoolSize))
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.ConnectTimeoutMS)*time.Millisecond)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	db := client.Database(cfg.Database)
	s := &Store{
		config: cfg,
		client: client,
		logs:   db.Collection(cfg.LogCollection),
		users:  db.Collection(cfg.UserCollection),
		logger: logger,
	}

	if cfg.CreateIndexes {
		if err := s.ensureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
	}

	logger.Info("msg", "MongoDB store connected",
		"component", "mongo_store",
		"database", cfg.Database,
		"log_collection", cfg.LogCollection,
		"user_collection", cfg.UserCollection)

	return s, nil
}

// ensureIndexes creates the unique username index and the text index used by $text
func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("username_unique"),
	})
	if err != nil {
		return fmt.Errorf("failed to create user index: %w", err)
	}

	textKeys := bson.D{}
	for _, field := range core.TextFields {
		textKeys = append(textKeys, bson.E{Key: field, Value: "text"})
	}

	_, err = s.logs.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: textKeys, Options: options.Index().SetName("log_text")},
		{Keys: bson.D{{Key: core.FieldTimestamp, Value: 1}}, Options: options.Index().SetName("log_timestamp")},
		{Keys: bson.D{{Key: core.FieldResourceID, Value: 1}}, Options: options.Index().SetName("log_resource")},
		{Keys: bson.D{{Key: core.FieldTraceID, Value: 1}}, Options: options.Index().SetName("log_trace")},
	})
	if err != nil {
		return fmt.Errorf("failed to create log indexes: %w", err)
	}

	s.logger.Debug("msg", "MongoDB indexes ensured",
		"component", "mongo_store")
	return nil
}

func (s *Store) Logs() store.LogRepository {
	return logRepo{s}
}

func (s *Store) Users() store.UserRepository {
	return userRepo{s}
}

// Close disconnects the client
func (s *Store) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect mongodb: %w", err)
	}
	s.logger.Info("msg", "MongoDB store disconnected",
		"component", "mongo_store")
	return nil
}

func (s *Store) GetStats() map[string]any {
	return map[string]any{
		"type":          "mongo",
		"database":      s.config.Database,
		"total_inserts": s.totalInserts.Load(),
		"total_finds":   s.totalFinds.Load(),
		"total_errors":  s.totalErrors.Load(),
	}
}

// opContext applies the configured per-operation budget, if any
func (s *Store) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.config.OperationTimeoutMS > 0 {
		return context.WithTimeout(ctx, time.Duration(s.config.OperationTimeoutMS)*time.Millisecond)
	}
	return ctx, func() {}
}

func (s *Store) fail(op string, err error) error {
	s.totalErrors.Add(1)
	s.logger.Error("msg", "MongoDB operation failed",
		"component", "mongo_store",
		"operation", op,
		"error", err)
	return fmt.Errorf("%w: %s: %w", core.ErrPersistence, op, err)
}

type logRepo struct {
	s *Store
}

func (r logRepo) Insert(ctx context.Context, record core.LogRecord) (string, error) {
	if record.ID == "" {
		record.ID = primitive.NewObjectID().Hex()
	}

	ctx, cancel := r.s.opContext(ctx)
	defer cancel()

	if _, err := r.s.logs.InsertOne(ctx, record); err != nil {
		return "", r.s.fail("insert log", err)
	}
	r.s.totalInserts.Add(1)
	return record.ID, nil
}

func (r logRepo) Find(ctx context.Context, f *filter.Filter) ([]core.LogRecord, error) {
	query, err := ToBSON(f)
	if err != nil {
		return nil, err
	}

	ctx, cancel := r.s.opContext(ctx)
	defer cancel()

	cursor, err := r.s.logs.Find(ctx, query)
	if err != nil {
		if isRegexError(err) {
			return nil, fmt.Errorf("%w: %v", core.ErrInvalidQuery, err)
		}
		return nil, r.s.fail("find logs", err)
	}
	defer cursor.Close(ctx)

	results := make([]core.LogRecord, 0)
	if err := cursor.All(ctx, &results); err != nil {
		return nil, r.s.fail("decode logs", err)
	}
	r.s.totalFinds.Add(1)
	return results, nil
}

// Server codes for a $regex the server cannot compile
const (
	codeBadValue     = 2
	codeRegexInvalid = 51091
)

func isRegexError(err error) bool {
	var se mongo.ServerError
	if !errors.As(err, &se) {
		return false
	}
	return se.HasErrorCode(codeRegexInvalid) ||
		(se.HasErrorCode(codeBadValue) && strings.Contains(err.Error(), "regex"))
}

type userRepo struct {
	s *Store
}

func (r userRepo) Create(ctx context.Context, user core.User) (string, error) {
	if user.ID == "" {
		user.ID = primitive.NewObjectID().Hex()
	}

	ctx, cancel := r.s.opContext(ctx)
	defer cancel()

	// Pre-check mirrors the unique index so deployments without indexes still reject duplicates
	existing, err := r.FindByUsername(ctx, user.Username)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return "", core.ErrDuplicateUsername
	}

	if _, err := r.s.users.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", core.ErrDuplicateUsername
		}
		return "", r.s.fail("create user", err)
	}
	return user.ID, nil
}

func (r userRepo) FindByUsername(ctx context.Context, username string) (*core.User, error) {
	ctx, cancel := r.s.opContext(ctx)
	defer cancel()

	var user core.User
	err := r.s.users.FindOne(ctx, bson.D{{Key: "username", Value: username}}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, r.s.fail("find user", err)
	}
	return &user, nil
}
