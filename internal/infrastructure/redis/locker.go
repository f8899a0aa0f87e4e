// Package redis implementa el lock distribuido de corta duración que serializa las verificaciones
// de unicidad (cédula, referencia de comprobante) entre instancias de la API.
package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/jhoicas/Financiamiento-api/internal/application/ports"
	"github.com/jhoicas/Financiamiento-api/pkg/config"
)

// DefaultTTL vida máxima de un lock si el proceso muere antes de liberarlo.
const DefaultTTL = 10 * time.Second

const keyPrefix = "fin:lock:"

var _ ports.Locker = (*Locker)(nil)

// release borra la clave solo si sigue siendo nuestra.
var release = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Locker implementa ports.Locker con SET NX PX.
type Locker struct {
	client *goredis.Client
	ttl    time.Duration
}

// NewClient construye el cliente y verifica la conexión.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// NewLocker construye el locker. ttl <= 0 usa DefaultTTL.
func NewLocker(client *goredis.Client, ttl time.Duration) *Locker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Locker{client: client, ttl: ttl}
}

// Acquire toma key o devuelve ports.ErrLocked si otra operación la tiene.
func (l *Locker) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.New().String()
	ok, err := l.client.SetNX(ctx, keyPrefix+key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lock %s: %w", key, err)
	}
	if !ok {
		return nil, ports.ErrLocked
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = release.Run(ctx, l.client, []string{keyPrefix + key}, token).Err()
		})
	}, nil
}
