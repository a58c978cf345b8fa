package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"CoinCast/pkg/logger"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

type delivery struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

func TestParsePayload(t *testing.T) {
	want := delivery{ChatID: "42", Text: "hi"}

	got, err := ParsePayload[delivery](json.RawMessage(`{"chat_id":"42","text":"hi"}`))
	require.NoError(t, err)
	assert.Equal(t, want, *got)

	got, err = ParsePayload[delivery](map[string]interface{}{"chat_id": "42", "text": "hi"})
	require.NoError(t, err)
	assert.Equal(t, want, *got)

	got, err = ParsePayload[delivery](want)
	require.NoError(t, err)
	assert.Equal(t, want, *got)

	_, err = ParsePayload[delivery](42)
	assert.Error(t, err)

	_, err = ParsePayload[delivery](json.RawMessage(`{`))
	assert.Error(t, err)
}

type flakyJob struct {
	mu       sync.Mutex
	failures int
	seen     []delivery
}

func (*flakyJob) Name() string { return "flaky" }
func (*flakyJob) Type() string { return "test.delivery" }

func (j *flakyJob) Handle(_ context.Context, payload interface{}) error {
	d, err := ParsePayload[delivery](payload)
	if err != nil {
		return err
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.failures > 0 {
		j.failures--
		return errors.New("transient")
	}
	j.seen = append(j.seen, *d)
	return nil
}

func (j *flakyJob) handled() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.seen)
}

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("redis container test skipped in short mode")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	cli := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { _ = cli.Close() })
	return cli
}

func TestRedisQueueRetriesThenDeadLetters(t *testing.T) {
	cli := setupRedis(t)
	ctx := context.Background()

	job := &flakyJob{failures: 1}
	q := NewRedisQueue(logger.NewNop(), QueueConfig{
		Workers:      1,
		RetryLimit:   1,
		RetryDelay:   time.Millisecond,
		PollInterval: 50 * time.Millisecond,
	}, cli, WithKeyPrefix("test:queue"))
	q.RegisterJob(job)

	_, err := q.Enqueue(ctx, "unknown.type", delivery{})
	assert.Error(t, err)

	require.NoError(t, q.Start(ctx))
	t.Cleanup(func() { _ = q.Stop(context.Background()) })

	require.NoError(t, q.PublishMessage(ctx, "test.delivery", delivery{ChatID: "42", Text: "hi"}))
	assert.Eventually(t, func() bool { return job.handled() == 1 }, 10*time.Second, 20*time.Millisecond)

	job.mu.Lock()
	job.failures = 10
	job.mu.Unlock()
	require.NoError(t, q.PublishMessage(ctx, "test.delivery", delivery{ChatID: "7", Text: "never"}))
	assert.Eventually(t, func() bool {
		n, err := q.DeadLetters(ctx)
		return err == nil && n == 1
	}, 10*time.Second, 50*time.Millisecond)
	assert.Equal(t, 1, job.handled())
}

func TestRedisQueueRequeueMovesMemberOnce(t *testing.T) {
	cli := setupRedis(t)
	ctx := context.Background()
	q := NewRedisQueue(logger.NewNop(), QueueConfig{}, cli, WithKeyPrefix("test:requeue"))

	require.NoError(t, cli.ZAdd(ctx, q.retryKey(), redis.Z{Score: 1, Member: "msg-1"}).Err())

	moved, err := q.requeue(ctx, "msg-1")
	require.NoError(t, err)
	assert.True(t, moved)

	// a second poller that read the same due member must not push it again
	moved, err = q.requeue(ctx, "msg-1")
	require.NoError(t, err)
	assert.False(t, moved)

	n, err := cli.LLen(ctx, q.queueKey()).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	left, err := cli.ZCard(ctx, q.retryKey()).Result()
	require.NoError(t, err)
	assert.Zero(t, left)
}
