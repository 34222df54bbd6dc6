package gate

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultTTL bounds how long a workflow token may stay registered.  A
// console that crashes mid-workflow stops holding the gate after this long.
const DefaultTTL = 2 * time.Minute

// RedisGate shares the work-in-progress signal between console processes.
// Each workflow adds a random token to a sorted set scored by its expiry;
// Busy prunes expired tokens and checks what is left.  Workflows of this
// process are also counted locally so Redis outages never hide them.
type RedisGate struct {
	rdb    *redis.Client
	key    string
	ttl    time.Duration
	local  LocalGate
	logger *zap.Logger
	now    func() time.Time
}

// NewRedisGate returns a RedisGate storing tokens under key.
func NewRedisGate(rdb *redis.Client, key string, ttl time.Duration, logger *zap.Logger) *RedisGate {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisGate{rdb: rdb, key: key, ttl: ttl, logger: logger, now: time.Now}
}

func (g *RedisGate) Begin(ctx context.Context, name string) (func(), error) {
	releaseLocal, err := g.local.Begin(ctx, name)
	if err != nil {
		return nil, err
	}
	token := name + ":" + uuid.NewString()
	expires := g.now().Add(g.ttl).UnixMilli()
	if err := g.rdb.ZAdd(ctx, g.key, redis.Z{Score: float64(expires), Member: token}).Err(); err != nil {
		g.logger.Warn("gate: register workflow", zap.String("workflow", name), zap.Error(err))
		return releaseLocal, nil
	}
	return once(func() {
		releaseLocal()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := g.rdb.ZRem(ctx, g.key, token).Err(); err != nil {
			g.logger.Warn("gate: release workflow", zap.String("workflow", name), zap.Error(err))
		}
	}), nil
}

func (g *RedisGate) Busy(ctx context.Context) bool {
	if g.local.Busy(ctx) {
		return true
	}
	now := strconv.FormatInt(g.now().UnixMilli(), 10)
	pipe := g.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, g.key, "-inf", now)
	card := pipe.ZCard(ctx, g.key)
	if _, err := pipe.Exec(ctx); err != nil {
		g.logger.Warn("gate: check workflows", zap.Error(err))
		return false
	}
	return card.Val() > 0
}
