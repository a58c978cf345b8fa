package clickhouse

import (
	"testing"
	"time"

	ch "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/stretchr/testify/assert"
)

func TestOptionsFromConfig(t *testing.T) {
	cfg := &ClientConfig{Port: 9000, Database: "default", DialTimeout: time.Second}
	for _, opt := range []ClientOption{
		WithHost("ch.internal", 9440),
		WithDatabase("coincast"),
		WithCredentials("writer", "secret"),
		WithAsyncInsert(true, false),
		WithMaxExecutionTime(30 * time.Second),
		WithTimeouts(0, 3*time.Second),
	} {
		opt(cfg)
	}

	o := options(cfg)
	assert.Equal(t, []string{"ch.internal:9440"}, o.Addr)
	assert.Equal(t, ch.Native, o.Protocol)
	assert.Equal(t, "coincast", o.Auth.Database)
	assert.Equal(t, "writer", o.Auth.Username)
	assert.Equal(t, 1, o.Settings["async_insert"])
	assert.Equal(t, 0, o.Settings["wait_for_async_insert"])
	assert.Equal(t, 30, o.Settings["max_execution_time"])
	assert.Equal(t, time.Second, o.DialTimeout)
	assert.Equal(t, 3*time.Second, o.ReadTimeout)
}

func TestOptionsHTTP(t *testing.T) {
	cfg := &ClientConfig{Host: "localhost", Port: 8123}
	WithHTTP(true)(cfg)

	o := options(cfg)
	assert.Equal(t, ch.HTTP, o.Protocol)
	assert.Empty(t, o.Settings)
}
