package mongo

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/inventory-system/backoffice-api/internal/core/domain"
)

func TestProvider_ConnectsOnceUnderConcurrentFirstAccess(t *testing.T) {
	var calls atomic.Int32
	want := new(mongo.Database)

	p := NewProvider(Config{URI: "mongodb://unused", Database: "inventory"})
	p.connect = func(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return nil, want, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			db, err := p.Database(context.Background())
			if err != nil {
				t.Errorf("Database: %v", err)
				return
			}
			if db != want {
				t.Errorf("got a different handle")
			}
		}()
	}
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Fatalf("expected a single connect, got %d", got)
	}
}

func TestProvider_RetriesAfterFailure(t *testing.T) {
	var calls int
	want := new(mongo.Database)

	p := NewProvider(Config{})
	p.connect = func(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
		calls++
		if calls == 1 {
			return nil, nil, errors.New("connection refused")
		}
		return nil, want, nil
	}

	if _, err := p.Database(context.Background()); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}

	db, err := p.Database(context.Background())
	if err != nil {
		t.Fatalf("expected retry to succeed: %v", err)
	}
	if db != want || calls != 2 {
		t.Fatalf("unexpected state: db=%p calls=%d", db, calls)
	}
}

func TestProvider_CloseWithoutConnect(t *testing.T) {
	p := NewProvider(Config{})
	if err := p.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
