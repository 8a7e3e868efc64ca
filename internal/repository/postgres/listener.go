package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"

	"ngo-backend/internal/logger"
)

const (
	minReconnectInterval = 2 * time.Second
	maxReconnectInterval = time.Minute
	listenerPingInterval = 90 * time.Second
)

func channelFor(collection string) string {
	return collection + "_changed"
}

// watchChannel reloads the collection once, then again on every
// notification on its channel. A nil notification means the listener
// reconnected and may have missed events, so it also triggers a reload.
func watchChannel(ctx context.Context, connStr, collection string, reload func(context.Context) error) error {
	channel := channelFor(collection)
	listener := pq.NewListener(connStr, minReconnectInterval, maxReconnectInterval, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			logger.Warn("Postgres listener event", "channel", channel, "event", ev, "error", err)
		}
	})
	defer listener.Close()

	if err := listener.Listen(channel); err != nil {
		return fmt.Errorf("failed to listen on %s: %w", channel, err)
	}
	logger.Info("Subscribed to collection changes", "collection", collection)

	if err := reload(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(listenerPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-listener.Notify:
			if err := reload(ctx); err != nil {
				return err
			}
		case <-ticker.C:
			go func() {
				if err := listener.Ping(); err != nil {
					logger.Warn("Postgres listener ping failed", "channel", channel, "error", err)
				}
			}()
		}
	}
}
