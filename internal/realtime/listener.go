package realtime

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"complaint-service/internal/model"
)

const defaultReconnectDelay = 5 * time.Second

// Loader reads the current version of a complaint.
type Loader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Complaint, error)
}

// PGListener turns NOTIFY payloads on a channel into events for a
// publisher. It owns a dedicated connection outside the gorm pool.
type PGListener struct {
	dsn            string
	channel        string
	loader         Loader
	publisher      Publisher
	reconnectDelay time.Duration
	log            zerolog.Logger
}

func NewPGListener(dsn, channel string, loader Loader, publisher Publisher, log zerolog.Logger) *PGListener {
	return &PGListener{
		dsn:            dsn,
		channel:        channel,
		loader:         loader,
		publisher:      publisher,
		reconnectDelay: defaultReconnectDelay,
		log:            log.With().Str("component", "pg_listener").Str("channel", channel).Logger(),
	}
}

// Run listens until ctx is canceled, reconnecting after failures.
func (l *PGListener) Run(ctx context.Context) {
	for {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			return
		}
		l.log.Warn().Err(err).Dur("retry_in", l.reconnectDelay).Msg("change feed disconnected")

		select {
		case <-ctx.Done():
			return
		case <-time.After(l.reconnectDelay):
		}
	}
}

func (l *PGListener) listen(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, l.dsn)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.channel}.Sanitize()); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	l.log.Info().Msg("listening for complaint changes")

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}
		if err := l.handle(ctx, n.Payload); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			l.log.Warn().Err(err).Msg("skipping change notification")
		}
	}
}

// handle loads the row named by a notification and publishes it.
func (l *PGListener) handle(ctx context.Context, payload string) error {
	change, err := DecodeChange([]byte(payload))
	if err != nil {
		return err
	}
	complaint, err := l.loader.GetByID(ctx, change.ID)
	if err != nil {
		return fmt.Errorf("load complaint %s: %w", change.ID, err)
	}
	l.publisher.Publish(Event{Kind: change.Kind, Complaint: *complaint})
	return nil
}
