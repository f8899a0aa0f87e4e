package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Financiamiento-api/internal/application/store"
)

const unlistenTimeout = 2 * time.Second

// DefaultChannel canal de NOTIFY que publican los triggers de la migración.
const DefaultChannel = "fin_cambios"

var _ store.ChangeFeed = (*ChangeFeed)(nil)

// ChangeFeed escucha LISTEN sobre una conexión dedicada del pool. El payload de cada aviso es el
// nombre de la tabla que cambió.
type ChangeFeed struct {
	pool    *pgxpool.Pool
	channel string
	log     zerolog.Logger
}

// NewChangeFeed construye el feed. channel vacío usa DefaultChannel.
func NewChangeFeed(pool *pgxpool.Pool, channel string, log zerolog.Logger) *ChangeFeed {
	if channel == "" {
		channel = DefaultChannel
	}
	return &ChangeFeed{pool: pool, channel: channel, log: log.With().Str("component", "change_feed").Logger()}
}

// Listen bloquea hasta que ctx termine o se caiga la conexión. Solo avisa colecciones conocidas.
func (f *ChangeFeed) Listen(ctx context.Context, notify func(collection string)) error {
	conn, err := f.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire listen conn: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{f.channel}.Sanitize()); err != nil {
		_ = conn.Conn().Close(context.Background())
		return fmt.Errorf("listen %s: %w", f.channel, err)
	}
	f.log.Info().Str("channel", f.channel).Msg("escuchando cambios")

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				unlisten(conn.Conn(), f.channel)
				return ctx.Err()
			}
			// la conexión quedó en estado desconocido: no devolverla al pool
			_ = conn.Conn().Close(context.Background())
			return fmt.Errorf("wait notification: %w", err)
		}
		name := strings.TrimSpace(n.Payload)
		if !knownCollection(name) {
			f.log.Debug().Str("payload", n.Payload).Msg("aviso ignorado")
			continue
		}
		notify(name)
	}
}

// listenerConn lo que unlisten necesita de *pgx.Conn.
type listenerConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Close(ctx context.Context) error
}

// unlisten deja la conexión sin suscripciones antes de devolverla al pool. Si UNLISTEN falla (por ejemplo,
// porque pgx cerró la conexión al cancelarse la espera) la cierra para que el pool la descarte.
func unlisten(conn listenerConn, channel string) {
	ctx, cancel := context.WithTimeout(context.Background(), unlistenTimeout)
	defer cancel()
	if _, err := conn.Exec(ctx, "UNLISTEN "+pgx.Identifier{channel}.Sanitize()); err != nil {
		_ = conn.Close(ctx)
	}
}

func knownCollection(name string) bool {
	for _, c := range store.Names {
		if c == name {
			return true
		}
	}
	return false
}

// NewSource colecciones completas leídas del pool para el store.
func NewSource(pool *pgxpool.Pool) store.Source {
	return store.RepoSource{Repos: NewRepos(pool)}
}
