package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/huynhanx03/go-batching/pkg/settings"
	"github.com/huynhanx03/go-batching/pkg/utils"
)

const (
	defaultMaxPoolSize     = 10
	defaultMinPoolSize     = 1
	defaultMaxConnIdleTime = 60 // seconds
	defaultTimeout         = 5  // seconds
)

// MongoEngine holds an established MongoDB client bound to one database.
type MongoEngine struct {
	client *mongo.Client
	config *settings.MongoDB
}

// NewConnection creates and returns a new MongoDB engine
func NewConnection(cfg *settings.MongoDB) (*MongoEngine, error) {
	if err := settings.Validate(cfg); err != nil {
		return nil, err
	}

	engine := &MongoEngine{
		config: cfg,
	}

	if err := engine.connect(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	return engine, nil
}

// connect initializes the MongoDB client
func (m *MongoEngine) connect() error {
	m.setDefaultConfig()

	// Build URI
	uri := fmt.Sprintf("mongodb://%s", m.config.Host)
	if m.config.Port > 0 {
		uri = fmt.Sprintf("%s:%d", uri, m.config.Port)
	}

	opts := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(m.config.MaxPoolSize).
		SetMinPoolSize(m.config.MinPoolSize).
		SetMaxConnIdleTime(utils.ToDuration(int(m.config.MaxConnIdleTime))).
		SetConnectTimeout(utils.ToDuration(m.config.Timeout))

	if m.config.Username != "" {
		opts.SetAuth(options.Credential{
			Username: m.config.Username,
			Password: m.config.Password,
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), utils.ToDuration(m.config.Timeout))
	defer cancel()

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return err
	}

	// Ping test
	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("%w: %v", ErrPingFailed, err)
	}

	m.client = client
	return nil
}

// setDefaultConfig sets default values for MongoDB configuration
func (m *MongoEngine) setDefaultConfig() {
	if m.config.MaxPoolSize == 0 {
		m.config.MaxPoolSize = defaultMaxPoolSize
	}
	if m.config.MinPoolSize == 0 {
		m.config.MinPoolSize = defaultMinPoolSize
	}
	if m.config.MaxConnIdleTime == 0 {
		m.config.MaxConnIdleTime = defaultMaxConnIdleTime
	}
	if m.config.Timeout == 0 {
		m.config.Timeout = defaultTimeout
	}
}

// Database returns the configured database handle.
func (m *MongoEngine) Database() *mongo.Database {
	return m.client.Database(m.config.Database)
}

// Close disconnects the MongoDB client
func (m *MongoEngine) Close(ctx context.Context) error {
	if m.client != nil {
		return m.client.Disconnect(ctx)
	}
	return nil
}

// Client returns the underlying mongo client (Escape hatch)
func (m *MongoEngine) Client() *mongo.Client {
	return m.client
}
