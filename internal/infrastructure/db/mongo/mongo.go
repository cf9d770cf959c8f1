package mongo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/singleflight"

	"github.com/inventory-system/backoffice-api/internal/core/domain"
)

const defaultTimeout = 10 * time.Second

// Config captures the minimal settings required to establish a MongoDB connection.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Connect establishes a MongoDB client, verifies connectivity with a ping, and
// returns both the client and the selected database. A default timeout is
// applied when none is provided.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	return client, client.Database(cfg.Database), nil
}

// ConnectFunc opens a client and database.
type ConnectFunc func(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error)

// Provider is the process-wide database handle. The first caller connects;
// concurrent first callers share that attempt. A failed attempt is not cached.
type Provider struct {
	cfg     Config
	connect ConnectFunc
	group   singleflight.Group

	mu     sync.RWMutex
	client *mongo.Client
	db     *mongo.Database
}

func NewProvider(cfg Config) *Provider {
	return &Provider{cfg: cfg, connect: Connect}
}

func (p *Provider) cached() *mongo.Database {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.db
}

// Database returns the shared database, connecting on first use.
func (p *Provider) Database(ctx context.Context) (*mongo.Database, error) {
	if db := p.cached(); db != nil {
		return db, nil
	}

	v, err, _ := p.group.Do("connect", func() (interface{}, error) {
		if db := p.cached(); db != nil {
			return db, nil
		}

		client, db, err := p.connect(ctx, p.cfg)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
		}

		p.mu.Lock()
		p.client, p.db = client, db
		p.mu.Unlock()
		return db, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*mongo.Database), nil
}

// Ping checks that the shared client can reach the server.
func (p *Provider) Ping(ctx context.Context) error {
	db, err := p.Database(ctx)
	if err != nil {
		return err
	}
	return db.Client().Ping(ctx, nil)
}

// Close disconnects the shared client. The next Database call reconnects.
func (p *Provider) Close(ctx context.Context) error {
	p.mu.Lock()
	client := p.client
	p.client, p.db = nil, nil
	p.mu.Unlock()

	if client == nil {
		return nil
	}
	return client.Disconnect(ctx)
}

// storeError wraps driver errors, tagging connectivity failures so the API
// can answer 503 instead of 500.
func storeError(op string, err error) error {
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) || errors.Is(err, mongo.ErrClientDisconnected) {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
