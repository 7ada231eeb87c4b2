package suite

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"
)

const (
	expireDuration  = 120
	maxWaitDuration = 120 * time.Second
)

const (
	redisPort  = "6379/tcp"
	redisImage = "redis"
	redisTag   = "alpine"

	// set to run against a real redis container instead of miniredis
	dockerEnv = "CHESS_RELAY_TEST_DOCKER"
)

type Suite struct {
	*testing.T
	Logger *slog.Logger

	Storage *redis.Client
	// Mini is nil when the suite runs against docker.
	Mini *miniredis.Miniredis
}

// New - redis-backed test suite. Uses a dockerized redis when CHESS_RELAY_TEST_DOCKER
// is set and docker answers, miniredis otherwise.
func New(t *testing.T) (context.Context, *Suite) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), maxWaitDuration)
	t.Cleanup(func() {
		cancel()
	})

	st := &Suite{
		T:      t,
		Logger: NewLogger(),
	}

	if os.Getenv(dockerEnv) != "" {
		if client, ok := startDocker(ctx, t); ok {
			st.Storage = client
			return ctx, st
		}
	}

	mr := miniredis.RunT(t)
	st.Mini = mr
	st.Storage = redis.NewClient(&redis.Options{Addr: mr.Addr()})

	t.Cleanup(func() {
		_ = st.Storage.Close()
	})

	return ctx, st
}

// NewLogger - logger for tests; set CHESS_RELAY_TEST_LOG to see the output.
func NewLogger() *slog.Logger {
	var out io.Writer = io.Discard
	if os.Getenv("CHESS_RELAY_TEST_LOG") != "" {
		out = os.Stdout
	}

	return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// FastForward - expires keys by moving the clock; no-op against docker.
func (that *Suite) FastForward(d time.Duration) {
	if that.Mini != nil {
		that.Mini.FastForward(d)
	}
}

func startDocker(ctx context.Context, t *testing.T) (*redis.Client, bool) {
	t.Helper()

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Logf("could not connect to docker, using miniredis: %v", err)
		return nil, false
	}

	if err = pool.Client.Ping(); err != nil {
		t.Logf("docker is not reachable, using miniredis: %v", err)
		return nil, false
	}

	// pulls an image, creates a container based on it and runs it
	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: redisImage,
		Tag:        redisTag,
		Env:        []string{},
	}, func(config *docker.HostConfig) {
		// set AutoRemove to true so that stopped container goes away by itself
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("could not start resource: %v", err)
	}

	// never returns error
	_ = resource.Expire(expireDuration)

	redisHost := resource.GetHostPort(redisPort)

	pool.MaxWait = maxWaitDuration

	var redisClient *redis.Client
	if err = pool.Retry(func() error {
		redisClient = redis.NewClient(&redis.Options{
			Addr: redisHost,
		})
		return redisClient.Ping(ctx).Err()
	}); err != nil {
		if err = pool.Purge(resource); err != nil {
			t.Fatalf("could not purge resource: %v", err)
		}

		t.Fatalf("could not connect to redis: %v", err)
	}

	if err = redisClient.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("could not flush database: %v", err)
	}

	t.Cleanup(func() {
		t.Helper()

		_ = redisClient.Close()

		if err = pool.Purge(resource); err != nil {
			t.Fatalf("could not purge resource: %v", err)
		}
	})

	return redisClient, true
}
