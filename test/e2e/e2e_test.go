// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mergington-activities/internal/api"
	"mergington-activities/internal/common/config"
	"mergington-activities/internal/common/database"
	apihttp "mergington-activities/internal/common/http"
	"mergington-activities/internal/common/logger"
	"mergington-activities/internal/common/observability"
	"mergington-activities/internal/enrollment"
	"mergington-activities/internal/notify"
	"mergington-activities/pkg/registry"
)

type mailbox struct {
	mu   sync.Mutex
	sent []*ses.SendEmailInput
}

func (m *mailbox) SendEmail(_ context.Context, in *ses.SendEmailInput) (*ses.SendEmailOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, in)
	return &ses.SendEmailOutput{}, nil
}

type topic struct {
	mu        sync.Mutex
	published []*sns.PublishInput
}

func (t *topic) Publish(_ context.Context, in *sns.PublishInput) (*sns.PublishOutput, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.published = append(t.published, in)
	return &sns.PublishOutput{}, nil
}

type stack struct {
	server     *httptest.Server
	client     *apihttp.Client
	dispatcher *notify.Dispatcher
	redis  *miniredis.Miniredis
	audit  sqlmock.Sqlmock
	mail   *mailbox
	topic  *topic
}

func (s *stack) url(path string, email string) string {
	u := s.server.URL + path
	if email != "" {
		u += "?email=" + url.QueryEscape(email)
	}
	return u
}

func newStack(t *testing.T) *stack {
	t.Helper()
	log := logger.NewTestLogger(t)

	mr := miniredis.RunT(t)
	rdb := database.NewRedis(config.RedisConfig{Address: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	db, audit, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mail := &mailbox{}
	tp := &topic{}

	dispatcher := notify.NewDispatcher(log, time.Second, []notify.Sink{
		notify.NewRedisJournal(rdb, "enrollment:events", "enrollment:changes", 100),
		notify.NewPostgresAudit(&database.PostgresClient{DB: db}),
		notify.NewMailer(mail, "activities@mergington.edu"),
		notify.NewTopic(tp, "arn:aws:sns:us-east-1:123456789012:enrollment"),
	}, notify.WithBackoff(time.Millisecond))
	dispatcher.Start()
	t.Cleanup(func() { _ = dispatcher.Close() })

	obs, err := observability.New(observability.Settings{
		ServiceName:    "e2e",
		TracingEnabled: true,
		Registerer:     promclient.NewRegistry(),
		Logger:         log,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = obs.Shutdown(context.Background()) })

	reg, err := enrollment.FromSeed(registry.DefaultSeed(),
		enrollment.WithTracer(obs.Tracer()),
		enrollment.WithObserver(api.ParticipantGauge()),
		enrollment.WithObserver(dispatcher),
	)
	require.NoError(t, err)

	handler := api.NewHandler(reg, log, api.WithHealthChecker(dispatcher), api.WithRecorder(obs))
	srv := httptest.NewServer(api.NewRouter(handler, api.RouterConfig{MetricsPath: "/metrics"}))
	t.Cleanup(srv.Close)

	return &stack{
		server:     srv,
		client:     apihttp.NewClient(5 * time.Second),
		dispatcher: dispatcher,
		redis:      mr,
		audit:      audit,
		mail:       mail,
		topic:      tp,
	}
}

// flush waits until every queued notification has been delivered.
func (s *stack) flush(t *testing.T) {
	t.Helper()
	require.NoError(t, s.dispatcher.Close())
}

func TestEnrollmentLifecycle(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	const email = "new.student@mergington.edu"

	s.audit.ExpectExec("INSERT INTO enrollment_audit").
		WithArgs(sqlmock.AnyArg(), "signup", "Science Olympiad", email, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.audit.ExpectExec("INSERT INTO enrollment_audit").
		WithArgs(sqlmock.AnyArg(), "unregister", "Science Olympiad", email, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	var confirmation struct {
		Message string `json:"message"`
	}
	require.NoError(t, s.client.PostJSON(ctx, s.url("/activities/Science%20Olympiad/signup", email), &confirmation))
	assert.Equal(t, "Signed up new.student@mergington.edu for Science Olympiad", confirmation.Message)

	var activities map[string]struct {
		Participants []string `json:"participants"`
	}
	require.NoError(t, s.client.GetJSON(ctx, s.url("/activities", ""), &activities))
	assert.Equal(t, []string{"ryan@mergington.edu", email}, activities["Science Olympiad"].Participants)

	require.NoError(t, s.client.PostJSON(ctx, s.url("/activities/Science%20Olympiad/unregister", email), &confirmation))
	assert.Equal(t, "Unregistered new.student@mergington.edu from Science Olympiad", confirmation.Message)

	s.flush(t)

	events, err := s.redis.List("enrollment:events")
	require.NoError(t, err)
	require.Len(t, events, 2)
	var latest enrollment.Change
	require.NoError(t, json.Unmarshal([]byte(events[0]), &latest))
	assert.Equal(t, enrollment.ChangeUnregister, latest.Type)
	assert.Equal(t, 1, latest.Participants)

	assert.NoError(t, s.audit.ExpectationsWereMet())
	assert.Len(t, s.mail.sent, 2)
	assert.Len(t, s.topic.published, 2)
}

func TestRejectedRequestsProduceNoNotifications(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	err := s.client.PostJSON(ctx, s.url("/activities/Chess%20Club/signup", "michael@mergington.edu"), nil)
	var statusErr *apihttp.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
	assert.JSONEq(t, `{"detail":"Student already signed up for this activity"}`, statusErr.Body)

	err = s.client.PostJSON(ctx, s.url("/activities/Underwater%20Basket%20Weaving/signup", "a@mergington.edu"), nil)
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)

	s.flush(t)

	assert.False(t, s.redis.Exists("enrollment:events"))
	assert.Empty(t, s.mail.sent)
	assert.NoError(t, s.audit.ExpectationsWereMet())
}

func TestFailingSinkDoesNotFailSignup(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	s.redis.Close()
	s.audit.ExpectExec("INSERT INTO enrollment_audit").WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.client.PostJSON(ctx, s.url("/activities/Art%20Studio/signup", "painter@mergington.edu"), nil))
	s.flush(t)
	assert.Len(t, s.mail.sent, 1)

	s.audit.ExpectPing()
	var health struct {
		Status       string            `json:"status"`
		Dependencies map[string]string `json:"dependencies"`
	}
	err := s.client.GetJSON(ctx, s.url("/health", ""), &health)
	var statusErr *apihttp.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	require.NoError(t, json.Unmarshal([]byte(statusErr.Body), &health))
	assert.Equal(t, "degraded", health.Status)
	assert.Equal(t, "ok", health.Dependencies["postgres"])
	assert.NotEqual(t, "ok", health.Dependencies["redis"])
}
