package throttle

import (
	"context"
	"time"

	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// Throttle caps the number of outbound application messages per second for one key.
type Throttle struct {
	limiter *limiter.Limiter
	key     string
}

func New(perSecond int64, key string) *Throttle {
	return &Throttle{
		limiter: limiter.New(memory.NewStore(), limiter.Rate{
			Period: time.Second,
			Limit:  perSecond,
		}),
		key: key,
	}
}

// Allow consumes one slot and reports whether the limit still holds.
func (t *Throttle) Allow(ctx context.Context) (bool, error) {
	lctx, err := t.limiter.Get(ctx, t.key)
	if err != nil {
		return false, err
	}
	return !lctx.Reached, nil
}
