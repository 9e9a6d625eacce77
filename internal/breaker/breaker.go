package breaker

import (
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Registry набор circuit breaker'ов, по одному на локацию Shopify.
// Состояние живёт в памяти процесса и защищено мьютексом; терять его
// не страшно — после cool-down breaker сам возвращается к работе.
type Registry struct {
	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker

	threshold uint32
	cooldown  time.Duration
	logger    *zap.Logger
}

// NewRegistry создаёт реестр: threshold подряд идущих ошибок открывает
// breaker, cooldown — пауза до следующей живой попытки.
func NewRegistry(threshold uint32, cooldown time.Duration, logger *zap.Logger) *Registry {
	return &Registry{
		breakers:  make(map[string]*gobreaker.CircuitBreaker),
		threshold: threshold,
		cooldown:  cooldown,
		logger:    logger,
	}
}

// Execute прогоняет fn через breaker указанной локации
func (r *Registry) Execute(locationGID string, fn func() (interface{}, error)) (interface{}, error) {
	return r.get(locationGID).Execute(fn)
}

// State возвращает текущее состояние breaker'а локации
func (r *Registry) State(locationGID string) gobreaker.State {
	return r.get(locationGID).State()
}

func (r *Registry) get(locationGID string) *gobreaker.CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cb, ok := r.breakers[locationGID]; ok {
		return cb
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        locationGID,
		MaxRequests: 1, // после cool-down — одна живая проба
		Timeout:     r.cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= r.threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			r.logger.Warn("Circuit breaker state changed",
				zap.String("location_gid", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	r.breakers[locationGID] = cb
	return cb
}
