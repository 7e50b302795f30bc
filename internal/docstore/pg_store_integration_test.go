package docstore

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const skipIntegrationTests = "STOREFRONT_SKIP_INTEGRATION_TESTS"

// PgStoreSuite is a test suite for the PostgreSQL Store implementation.
type PgStoreSuite struct {
	suite.Suite
	pgContainer *postgres.PostgresContainer
	dbPool      *pgxpool.Pool
	store       Store
	logger      *slog.Logger
	ctx         context.Context
}

// SetupSuite starts a PostgreSQL container, connects a pool and applies migrations.
func (s *PgStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	var err error
	s.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	dbName := "storefront_db"
	dbUser := "user"
	dbPassword := "password"

	s.pgContainer, err = postgres.Run(s.ctx,
		"postgres:17.5-alpine",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort("5432/tcp"),
		),
	)
	require.NoError(s.T(), err, "Failed to run PostgreSQL container")

	connStr, err := s.pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	require.NoError(s.T(), err, "Failed to get connection string from container")

	s.dbPool, err = pgxpool.New(s.ctx, connStr)
	require.NoError(s.T(), err, "Failed to create pgxpool")

	for i := range 10 {
		s.logger.Info("Pinging PostgreSQL database", "attempt", i+1)
		err = s.dbPool.Ping(s.ctx)
		if err == nil {
			break
		}
		time.Sleep(time.Second * 2)
	}
	require.NoError(s.T(), err, "Failed to connect to PostgreSQL after retries")

	wd, _ := os.Getwd()
	migrationsPath := filepath.Join(wd, "../../migrations")
	sourceURL := "file://" + migrationsPath
	m, err := migrate.New(sourceURL, connStr)
	require.NoError(s.T(), err, "Failed to create migrate instance")
	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		_, _ = m.Close()
		require.NoError(s.T(), err, "Failed to apply migrations")
	}
	s.logger.Info("Migrations applied for integration tests")

	s.store = NewPgStore(s.dbPool, NewLocalNotifier(), s.logger)
	s.logger.Info("Initialization complete for PgStoreSuite")
}

// TearDownSuite cleans up resources after all tests in the suite have run.
func (s *PgStoreSuite) TearDownSuite() {
	s.logger.Info("Tearing down suite...")
	if s.dbPool != nil {
		s.dbPool.Close()
	}
	if s.pgContainer != nil {
		if err := s.pgContainer.Terminate(s.ctx); err != nil {
			s.logger.Warn("failed to terminate PostgreSQL container", "error", err)
		}
	}
}

// SetupTest truncates both owned collections before each test.
func (s *PgStoreSuite) SetupTest() {
	_, err := s.dbPool.Exec(s.ctx, "TRUNCATE TABLE cart_lines, favorite_marks")
	require.NoError(s.T(), err, "Failed to truncate tables")
}

// TestPgStoreIntegration runs the PostgreSQL store integration tests.
func TestPgStoreIntegration(t *testing.T) {
	if os.Getenv(skipIntegrationTests) == "1" {
		t.Skip("Skipping integration tests based on " + skipIntegrationTests + " env var")
	}
	suite.Run(t, new(PgStoreSuite))
}

func (s *PgStoreSuite) TestAddCartLine() {
	s.SetupTest()
	// given

	// when
	created, err := s.store.AddCartLine(s.ctx, "alice", "wildflower", 2)

	// then
	require.NoError(s.T(), err)
	require.NotZero(s.T(), created.ID)
	require.Equal(s.T(), "alice", created.OwnerID)
	require.Equal(s.T(), "wildflower", created.ProductID)
	require.Equal(s.T(), int32(2), created.Quantity)
	require.NotZero(s.T(), created.CreatedAt)
}

func (s *PgStoreSuite) TestAddCartLine_IncrementsExistingLine() {
	s.SetupTest()
	// given
	first, err := s.store.AddCartLine(s.ctx, "alice", "wildflower", 2)
	require.NoError(s.T(), err)

	// when
	second, err := s.store.AddCartLine(s.ctx, "alice", "wildflower", 3)

	// then
	require.NoError(s.T(), err)
	require.Equal(s.T(), first.ID, second.ID, "increment must reuse the existing line")
	require.Equal(s.T(), int32(5), second.Quantity)

	lines, err := s.store.ListCartLines(s.ctx, "alice")
	require.NoError(s.T(), err)
	require.Len(s.T(), lines, 1)
}

func (s *PgStoreSuite) TestSetCartLineQuantity() {
	s.SetupTest()
	// given
	_, err := s.store.AddCartLine(s.ctx, "alice", "wildflower", 2)
	require.NoError(s.T(), err)

	// when
	updated, err := s.store.SetCartLineQuantity(s.ctx, "alice", "wildflower", 7)

	// then
	require.NoError(s.T(), err)
	require.Equal(s.T(), int32(7), updated.Quantity)
}

func (s *PgStoreSuite) TestSetCartLineQuantity_NotFound() {
	s.SetupTest()
	// given (no lines)

	// when
	_, err := s.store.SetCartLineQuantity(s.ctx, "alice", "wildflower", 7)

	// then
	require.ErrorIs(s.T(), err, ErrNotFound)
}

func (s *PgStoreSuite) TestDeleteCartLine_Idempotent() {
	s.SetupTest()
	// given
	_, err := s.store.AddCartLine(s.ctx, "alice", "wildflower", 2)
	require.NoError(s.T(), err)

	// when / then
	require.NoError(s.T(), s.store.DeleteCartLine(s.ctx, "alice", "wildflower"))
	require.NoError(s.T(), s.store.DeleteCartLine(s.ctx, "alice", "wildflower"))

	lines, err := s.store.ListCartLines(s.ctx, "alice")
	require.NoError(s.T(), err)
	require.Empty(s.T(), lines)
}

func (s *PgStoreSuite) TestClearCartLines() {
	s.SetupTest()
	// given
	_, err := s.store.AddCartLine(s.ctx, "alice", "wildflower", 2)
	require.NoError(s.T(), err)
	_, err = s.store.AddCartLine(s.ctx, "alice", "acacia", 1)
	require.NoError(s.T(), err)
	_, err = s.store.AddCartLine(s.ctx, "bob", "manuka", 4)
	require.NoError(s.T(), err)

	// when
	require.NoError(s.T(), s.store.ClearCartLines(s.ctx, "alice"))

	// then
	aliceLines, err := s.store.ListCartLines(s.ctx, "alice")
	require.NoError(s.T(), err)
	assert.Empty(s.T(), aliceLines)

	bobLines, err := s.store.ListCartLines(s.ctx, "bob")
	require.NoError(s.T(), err)
	assert.Len(s.T(), bobLines, 1, "clearing alice's cart must not touch bob's")
}

func (s *PgStoreSuite) TestCreateFavoriteMark_ConflictTolerant() {
	s.SetupTest()
	// given
	created, err := s.store.CreateFavoriteMark(s.ctx, "alice", "wildflower")
	require.NoError(s.T(), err)

	// when
	again, err := s.store.CreateFavoriteMark(s.ctx, "alice", "wildflower")

	// then
	require.NoError(s.T(), err)
	require.Equal(s.T(), created.ID, again.ID, "duplicate create must return the existing mark")

	marks, err := s.store.ListFavoriteMarks(s.ctx, "alice")
	require.NoError(s.T(), err)
	require.Len(s.T(), marks, 1)
}

func (s *PgStoreSuite) TestDeleteFavoriteMark_Idempotent() {
	s.SetupTest()
	// given
	_, err := s.store.CreateFavoriteMark(s.ctx, "alice", "wildflower")
	require.NoError(s.T(), err)

	// when / then
	require.NoError(s.T(), s.store.DeleteFavoriteMark(s.ctx, "alice", "wildflower"))
	require.NoError(s.T(), s.store.DeleteFavoriteMark(s.ctx, "alice", "wildflower"))

	marks, err := s.store.ListFavoriteMarks(s.ctx, "alice")
	require.NoError(s.T(), err)
	require.Empty(s.T(), marks)
}

func (s *PgStoreSuite) TestSubscribeCartLines_DeliversSnapshots() {
	s.SetupTest()
	// given
	var snapshots [][]CartLine
	cancel, err := s.store.SubscribeCartLines(s.ctx, "alice", func(lines []CartLine) {
		snapshots = append(snapshots, lines)
	})
	require.NoError(s.T(), err)
	defer cancel()
	require.Len(s.T(), snapshots, 1, "initial snapshot must arrive on subscribe")
	require.Empty(s.T(), snapshots[0])

	// when
	_, err = s.store.AddCartLine(s.ctx, "alice", "wildflower", 2)
	require.NoError(s.T(), err)

	// then
	require.Len(s.T(), snapshots, 2)
	require.Len(s.T(), snapshots[1], 1)
	assert.Equal(s.T(), "wildflower", snapshots[1][0].ProductID)
	assert.Equal(s.T(), int32(2), snapshots[1][0].Quantity)
}

func (s *PgStoreSuite) TestSubscribeFavoriteMarks_DeliversSnapshots() {
	s.SetupTest()
	// given
	var snapshots [][]FavoriteMark
	cancel, err := s.store.SubscribeFavoriteMarks(s.ctx, "alice", func(marks []FavoriteMark) {
		snapshots = append(snapshots, marks)
	})
	require.NoError(s.T(), err)
	defer cancel()
	require.Len(s.T(), snapshots, 1)

	// when
	_, err = s.store.CreateFavoriteMark(s.ctx, "alice", "wildflower")
	require.NoError(s.T(), err)
	require.NoError(s.T(), s.store.DeleteFavoriteMark(s.ctx, "alice", "wildflower"))

	// then
	require.Len(s.T(), snapshots, 3)
	assert.Len(s.T(), snapshots[1], 1)
	assert.Empty(s.T(), snapshots[2])
}
