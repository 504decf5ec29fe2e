package api

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/iho/splitledger/internal/adapter/api/apitest"
	"github.com/iho/splitledger/internal/domain"
	"github.com/iho/splitledger/internal/infrastructure/metrics"
)

type testEnv struct {
	server  *apitest.Server
	client  *Client
	metrics *metrics.Metrics
}

func newTestEnv(t *testing.T, tweak ...func(*Config)) *testEnv {
	t.Helper()

	srv := apitest.NewServer()
	t.Cleanup(srv.Close)

	cfg := Config{
		BaseURL:         srv.URL,
		AuthURL:         srv.URL,
		Timeout:         5 * time.Second,
		MaxRetries:      2,
		BreakerFailures: 5,
		InitialBackoff:  time.Millisecond,
	}
	for _, fn := range tweak {
		fn(&cfg)
	}

	m := metrics.New()
	return &testEnv{
		server:  srv,
		client:  New(cfg, nil, m, zerolog.Nop()),
		metrics: m,
	}
}

func (e *testEnv) login(t *testing.T, name, email string) *domain.Session {
	t.Helper()

	e.server.AddUser(name, email, "secret1")
	session, err := NewAuthGateway(e.client).Login(context.Background(), email, "secret1")
	require.NoError(t, err)
	return session
}
