package docstore

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	natsgo "github.com/nats-io/nats.go"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/nats"
)

const natsImg = "nats:2.11.6-alpine"

// NatsNotifierSuite is a test suite for the NATS-backed change notifier.
type NatsNotifierSuite struct {
	suite.Suite
	ctx           context.Context
	logger        *slog.Logger
	natsContainer *nats.NATSContainer
	nc            *natsgo.Conn
	notifier      *NatsNotifier
}

// SetupSuite starts a NATS container and connects the notifier to it.
func (s *NatsNotifierSuite) SetupSuite() {
	s.ctx = context.Background()
	s.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	var err error
	s.natsContainer, err = nats.Run(s.ctx, natsImg)
	require.NoError(s.T(), err, "Failed to run NATS container")

	natsURL, _ := s.natsContainer.ConnectionString(s.ctx)
	s.nc, err = natsgo.Connect(natsURL)
	require.NoError(s.T(), err, "Failed to connect to NATS")

	s.notifier = NewNatsNotifier(s.nc, "docs", s.logger)
	s.logger.Info("Initialization complete for NatsNotifierSuite")
}

// TearDownSuite cleans up the NATS container after tests are done.
func (s *NatsNotifierSuite) TearDownSuite() {
	s.nc.Close()
	if err := testcontainers.TerminateContainer(s.natsContainer); err != nil {
		s.logger.Error("Failed to terminate NATS container", "error", err)
	}
}

// TestNatsNotifierIntegration runs the NATS notifier integration tests.
func TestNatsNotifierIntegration(t *testing.T) {
	if os.Getenv(skipIntegrationTests) == "1" {
		t.Skip("Skipping integration tests based on " + skipIntegrationTests + " env var")
	}
	suite.Run(t, new(NatsNotifierSuite))
}

func (s *NatsNotifierSuite) TestPublishReachesSubscriber() {
	// given
	signals := make(chan struct{}, 4)
	cancel, err := s.notifier.Subscribe(CollectionCartLines, "alice", func() {
		signals <- struct{}{}
	})
	require.NoError(s.T(), err)
	defer cancel()

	// when
	err = s.notifier.Publish(s.ctx, Change{Collection: CollectionCartLines, OwnerID: "alice"})
	require.NoError(s.T(), err)

	// then
	select {
	case <-signals:
	case <-time.After(5 * time.Second):
		s.T().Fatal("expected a change signal within the timeout")
	}
}

func (s *NatsNotifierSuite) TestSignalsAreScopedToOwnerAndCollection() {
	// given
	aliceCart := make(chan struct{}, 4)
	cancel, err := s.notifier.Subscribe(CollectionCartLines, "alice", func() {
		aliceCart <- struct{}{}
	})
	require.NoError(s.T(), err)
	defer cancel()

	// when: signals for another owner and another collection
	require.NoError(s.T(), s.notifier.Publish(s.ctx, Change{Collection: CollectionCartLines, OwnerID: "bob"}))
	require.NoError(s.T(), s.notifier.Publish(s.ctx, Change{Collection: CollectionFavoriteMarks, OwnerID: "alice"}))

	// then
	select {
	case <-aliceCart:
		s.T().Fatal("signal leaked across owner or collection boundary")
	case <-time.After(500 * time.Millisecond):
	}
}

func (s *NatsNotifierSuite) TestCancelStopsDelivery() {
	// given
	signals := make(chan struct{}, 4)
	cancel, err := s.notifier.Subscribe(CollectionFavoriteMarks, "alice", func() {
		signals <- struct{}{}
	})
	require.NoError(s.T(), err)

	require.NoError(s.T(), s.notifier.Publish(s.ctx, Change{Collection: CollectionFavoriteMarks, OwnerID: "alice"}))
	select {
	case <-signals:
	case <-time.After(5 * time.Second):
		s.T().Fatal("expected a change signal before cancelling")
	}

	// when
	cancel()
	require.NoError(s.T(), s.notifier.Publish(s.ctx, Change{Collection: CollectionFavoriteMarks, OwnerID: "alice"}))

	// then
	select {
	case <-signals:
		s.T().Fatal("signal delivered after cancel")
	case <-time.After(500 * time.Millisecond):
	}
}
