// internal/notify/setup.go
package notify

import (
	"context"
	"errors"
	"fmt"
	"io"

	"mergington-activities/internal/common/aws"
	"mergington-activities/internal/common/config"
	"mergington-activities/internal/common/database"
	"mergington-activities/internal/common/logger"
)

// FromConfig builds and starts a Dispatcher with every enabled sink. The
// returned closer drains the queue and then releases the connections it opened.
func FromConfig(ctx context.Context, cfg config.NotificationConfig, log logger.Logger) (*Dispatcher, io.Closer, error) {
	var (
		sinks   []Sink
		closers closerList
	)

	if cfg.Redis.Enabled {
		client := database.NewRedis(cfg.Redis)
		closers = append(closers, client)
		sinks = append(sinks, NewRedisJournal(client, cfg.Redis.EventsKey, cfg.Redis.Channel, cfg.Redis.MaxLen))
	}

	if cfg.Postgres.Enabled {
		client, err := database.NewPostgres(cfg.Postgres)
		if err != nil {
			_ = closers.Close()
			return nil, nil, err
		}
		closers = append(closers, client)
		if err := client.EnsureAuditSchema(ctx); err != nil {
			// the sink stays registered; inserts will surface the problem
			log.Warn("could not prepare audit table", map[string]interface{}{"error": err})
		}
		sinks = append(sinks, NewPostgresAudit(client))
	}

	if cfg.SES.Enabled {
		client, err := aws.NewSESClient(ctx, cfg.SES.Region)
		if err != nil {
			_ = closers.Close()
			return nil, nil, fmt.Errorf("ses client: %w", err)
		}
		sinks = append(sinks, NewMailer(client, cfg.SES.FromEmail))
	}

	if cfg.SNS.Enabled {
		client, err := aws.NewSNSClient(ctx, cfg.SNS.Region)
		if err != nil {
			_ = closers.Close()
			return nil, nil, fmt.Errorf("sns client: %w", err)
		}
		sinks = append(sinks, NewTopic(client, cfg.SNS.TopicARN))
	}

	names := make([]string, 0, len(sinks))
	for _, s := range sinks {
		names = append(names, s.Name())
	}
	log.Info("notification sinks configured", map[string]interface{}{"sinks": names})

	d := NewDispatcher(log, config.GetDuration(cfg.Timeout), sinks, WithQueueSize(cfg.QueueSize))
	d.Start()

	// drain pending deliveries before the connections they need go away
	return d, append(closerList{d}, closers...), nil
}

type closerList []io.Closer

func (c closerList) Close() error {
	var errs []error
	for _, cl := range c {
		errs = append(errs, cl.Close())
	}
	return errors.Join(errs...)
}
