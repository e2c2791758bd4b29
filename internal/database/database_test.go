package database

import (
	"context"
	"flag"
	"log"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/scythe504/gyeongdo-backend/internal"
)

var testConfig Config

func mustStartPostgresContainer() (func(context.Context) error, error) {
	var (
		dbName = "database"
		dbPwd  = "password"
		dbUser = "user"
	)

	dbContainer, err := postgres.Run(
		context.Background(),
		"postgres:latest",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPwd),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second)),
	)
	if err != nil {
		return nil, err
	}

	dbHost, err := dbContainer.Host(context.Background())
	if err != nil {
		return dbContainer.Terminate, err
	}
	dbPort, err := dbContainer.MappedPort(context.Background(), "5432/tcp")
	if err != nil {
		return dbContainer.Terminate, err
	}

	testConfig = Config{
		Host:     dbHost,
		Port:     dbPort.Port(),
		Database: dbName,
		Username: dbUser,
		Password: dbPwd,
	}
	return dbContainer.Terminate, nil
}

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}
	teardown, err := mustStartPostgresContainer()
	if err != nil {
		log.Fatalf("could not start postgres container: %v", err)
	}

	code := m.Run()

	if teardown != nil && teardown(context.Background()) != nil {
		log.Fatalf("could not teardown postgres container: %v", err)
	}
	os.Exit(code)
}

func newService(t *testing.T) Service {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container in short mode")
	}
	srv, err := New(context.Background(), testConfig, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })
	return srv
}

func TestNew(t *testing.T) {
	srv := newService(t)
	assert.NotNil(t, srv)
}

func TestHealth(t *testing.T) {
	srv := newService(t)

	stats := srv.Health()
	assert.Equal(t, "up", stats["status"])
	assert.NotContains(t, stats, "error")
	assert.Equal(t, "It's healthy", stats["message"])
}

func TestArchiveGameEnded(t *testing.T) {
	srv := newService(t)
	ctx := context.Background()

	started := time.Now().Add(-time.Minute).UTC().Truncate(time.Millisecond)
	ended := started.Add(time.Minute)
	players := []internal.PlayerView{
		{SessionID: "A", Nickname: "alice", Team: internal.TeamThief, Status: internal.StatusDead, IsHost: true},
		{SessionID: "B", Nickname: "bob", Team: internal.TeamPolice, Status: internal.StatusAlive},
	}

	require.NoError(t, srv.Publish(ctx, internal.LifecycleEvent{
		Type: internal.LifecycleGameStarted, RoomID: "ignored", At: started,
	}))
	require.NoError(t, srv.Publish(ctx, internal.LifecycleEvent{
		Type:      internal.LifecycleGameEnded,
		RoomID:    "R1",
		At:        ended,
		Reason:    internal.ReasonPoliceWin,
		Winner:    internal.WinnerPolice,
		StartTime: &started,
		Remaining: 1740,
		Players:   players,
	}))

	results, err := srv.RecentResults(ctx, 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	got := results[0]
	assert.Equal(t, "R1", got.RoomID)
	assert.Equal(t, internal.WinnerPolice, got.Winner)
	assert.Equal(t, internal.ReasonPoliceWin, got.Reason)
	assert.Equal(t, 1740, got.RemainingTime)
	require.NotNil(t, got.StartedAt)
	assert.True(t, got.StartedAt.Equal(started))
	assert.True(t, got.EndedAt.Equal(ended))
	assert.Equal(t, players, got.Players)

	for _, r := range results {
		assert.NotEqual(t, "ignored", r.RoomID)
	}
}

func TestClose(t *testing.T) {
	srv := newService(t)
	assert.NoError(t, srv.Close())
}
