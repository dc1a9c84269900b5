package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/visiontf/authcore/internal/common"
)

// unlockScript deletes the lock key only if it still holds our token, so an
// expired lock re-acquired by another holder is never released by us.
var unlockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Lock is a best-effort distributed mutex over a redis key. It serializes
// sweeps that must not run concurrently across process instances.
type Lock struct {
	rdb   redis.UniversalClient
	key   string
	token string
}

func NewLock(rdb redis.UniversalClient, key string) *Lock {
	return &Lock{
		rdb:   rdb,
		key:   key,
		token: common.GenerateToken(16),
	}
}

// TryAcquire takes the lock for at most maxAge. It returns false without
// blocking when another holder has it.
func (l *Lock) TryAcquire(ctx context.Context, maxAge time.Duration) (bool, error) {
	return l.rdb.SetNX(ctx, l.key, l.token, maxAge).Result()
}

func (l *Lock) Release(ctx context.Context) error {
	return unlockScript.Run(ctx, l.rdb, []string{l.key}, l.token).Err()
}
