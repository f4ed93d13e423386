// internal/notify/sinks.go
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"mergington-activities/internal/common/aws"
	"mergington-activities/internal/common/database"
	"mergington-activities/internal/enrollment"
)

// Retried deliveries reuse the change ID, so a row that already landed is skipped.
const insertAudit = `INSERT INTO enrollment_audit (id, event_type, activity, email, occurred_at) VALUES ($1, $2, $3, $4, $5) ON CONFLICT (id) DO NOTHING`

// RedisJournal keeps a capped list of recent changes and publishes each one.
// A retry after a failed publish does not push the change a second time.
type RedisJournal struct {
	client  *database.RedisClient
	key     string
	channel string
	maxLen  int64

	mu     sync.Mutex
	pushed string // ID of the last change written to the list
}

func NewRedisJournal(client *database.RedisClient, key, channel string, maxLen int64) *RedisJournal {
	return &RedisJournal{client: client, key: key, channel: channel, maxLen: maxLen}
}

func (j *RedisJournal) Name() string { return "redis" }

func (j *RedisJournal) Deliver(ctx context.Context, change enrollment.Change) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.pushed != change.ID {
		if err := j.client.PushCapped(ctx, j.key, string(payload), j.maxLen); err != nil {
			return err
		}
		j.pushed = change.ID
	}
	_, err = j.client.Publish(ctx, j.channel, string(payload))
	return err
}

func (j *RedisJournal) Ping(ctx context.Context) error { return j.client.Ping(ctx) }

// PostgresAudit appends every change to the enrollment_audit table.
type PostgresAudit struct {
	client *database.PostgresClient
}

func NewPostgresAudit(client *database.PostgresClient) *PostgresAudit {
	return &PostgresAudit{client: client}
}

func (a *PostgresAudit) Name() string { return "postgres" }

func (a *PostgresAudit) Deliver(ctx context.Context, change enrollment.Change) error {
	_, err := a.client.Exec(ctx, insertAudit,
		change.ID, string(change.Type), change.Activity, change.Email, change.OccurredAt)
	if err != nil {
		return fmt.Errorf("insert audit row: %w", err)
	}
	return nil
}

func (a *PostgresAudit) Ping(ctx context.Context) error { return a.client.Ping(ctx) }

// EmailSender is satisfied by *aws.SESClient.
type EmailSender interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

// Mailer sends the participant a confirmation of the change.
type Mailer struct {
	sender EmailSender
	from   string
}

func NewMailer(sender EmailSender, from string) *Mailer {
	return &Mailer{sender: sender, from: from}
}

func (m *Mailer) Name() string { return "ses" }

func (m *Mailer) Deliver(ctx context.Context, change enrollment.Change) error {
	subject, body := confirmationText(change)
	_, err := m.sender.SendEmail(ctx, aws.PlainTextEmail(m.from, change.Email, subject, body))
	return err
}

func confirmationText(c enrollment.Change) (subject, body string) {
	switch c.Type {
	case enrollment.ChangeUnregister:
		return fmt.Sprintf("You left %s", c.Activity),
			fmt.Sprintf("Hi,\n\n%s is no longer registered for %s.\n\nMergington High School Activities\n", c.Email, c.Activity)
	default:
		return fmt.Sprintf("You joined %s", c.Activity),
			fmt.Sprintf("Hi,\n\n%s is now signed up for %s (%d of %d places taken).\n\nMergington High School Activities\n",
				c.Email, c.Activity, c.Participants, c.MaxParticipants)
	}
}

// TopicPublisher is satisfied by *aws.SNSClient.
type TopicPublisher interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

// Topic publishes the change as JSON to an SNS topic.
type Topic struct {
	publisher TopicPublisher
	arn       string
}

func NewTopic(publisher TopicPublisher, arn string) *Topic {
	return &Topic{publisher: publisher, arn: arn}
}

func (t *Topic) Name() string { return "sns" }

func (t *Topic) Deliver(ctx context.Context, change enrollment.Change) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return err
	}
	_, err = t.publisher.Publish(ctx, aws.TopicMessage(t.arn, string(payload), map[string]string{
		"event_type": string(change.Type),
	}))
	return err
}
