package cache

import (
	"context"
	"time"
)

// Cache key-value кэш с TTL. Кэш — только оптимизация чтения:
// ошибки нижнего уровня деградируют до промаха и наружу не выходят,
// поэтому интерфейс ошибок не возвращает.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Forget(ctx context.Context, key string)
}
