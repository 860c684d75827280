package flows

import (
	"context"
	"time"

	"github.com/MrEthical07/goSession/session"
)

// Persister is the flow-local view of the session persister.
type Persister interface {
	Save(ctx context.Context, key string, rec *session.Record, ttl time.Duration) error
	Load(ctx context.Context, key string) (*session.Record, error)
	Delete(ctx context.Context, key string) error
}
