package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/scythe504/gyeongdo-backend/internal"
)

// Service represents a service that interacts with a database.
type Service interface {
	// Health returns a map of health status information.
	// The keys and values in the map are service-specific.
	Health() map[string]string

	// Publish archives finished games. Other lifecycle events are ignored.
	Publish(ctx context.Context, ev internal.LifecycleEvent) error

	// RecentResults returns the latest archived games, newest first.
	RecentResults(ctx context.Context, limit int) ([]GameResult, error)

	// Close terminates the database connection.
	// It returns an error if the connection cannot be closed.
	Close() error
}

type Config struct {
	Host     string
	Port     string
	Database string
	Username string
	Password string
	Schema   string
}

func (c Config) DSN() string {
	schema := c.Schema
	if schema == "" {
		schema = "public"
	}
	q := url.Values{}
	q.Set("sslmode", "disable")
	q.Set("search_path", schema)
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Username, c.Password),
		Host:     net.JoinHostPort(c.Host, c.Port),
		Path:     "/" + c.Database,
		RawQuery: q.Encode(),
	}
	return u.String()
}

type GameResult struct {
	ID            int64                 `json:"id"`
	RoomID        string                `json:"roomId"`
	Winner        internal.Winner       `json:"winner"`
	Reason        string                `json:"reason"`
	StartedAt     *time.Time            `json:"startedAt,omitempty"`
	EndedAt       time.Time             `json:"endedAt"`
	RemainingTime int                   `json:"remainingTime"`
	Players       []internal.PlayerView `json:"players"`
}

type service struct {
	db  *sql.DB
	log *zap.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS game_results (
	id                BIGSERIAL PRIMARY KEY,
	room_id           TEXT        NOT NULL,
	winner            TEXT        NOT NULL,
	reason            TEXT        NOT NULL,
	started_at        TIMESTAMPTZ,
	ended_at          TIMESTAMPTZ NOT NULL,
	remaining_seconds INTEGER     NOT NULL,
	players           JSONB       NOT NULL DEFAULT '[]'
);
CREATE INDEX IF NOT EXISTS game_results_ended_at_idx ON game_results (ended_at DESC);
`

// New opens the pool and makes sure the archive table exists.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("pgx", cfg.DSN())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Database, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &service{db: db, log: logger}, nil
}

// Health checks the health of the database connection by pinging the database.
// It returns a map with keys indicating various health statistics.
func (s *service) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	stats := make(map[string]string)

	err := s.db.PingContext(ctx)
	if err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		s.log.Error("[Health] db down", zap.Error(err))
		return stats
	}

	stats["status"] = "up"
	stats["message"] = "It's healthy"

	dbStats := s.db.Stats()
	stats["open_connections"] = strconv.Itoa(dbStats.OpenConnections)
	stats["in_use"] = strconv.Itoa(dbStats.InUse)
	stats["idle"] = strconv.Itoa(dbStats.Idle)
	stats["wait_count"] = strconv.FormatInt(dbStats.WaitCount, 10)
	stats["wait_duration"] = dbStats.WaitDuration.String()
	stats["max_idle_closed"] = strconv.FormatInt(dbStats.MaxIdleClosed, 10)
	stats["max_lifetime_closed"] = strconv.FormatInt(dbStats.MaxLifetimeClosed, 10)

	if dbStats.OpenConnections > 40 {
		stats["message"] = "The database is experiencing heavy load."
	}
	if dbStats.WaitCount > 1000 {
		stats["message"] = "The database has a high number of wait events, indicating potential bottlenecks."
	}

	return stats
}

func (s *service) Publish(ctx context.Context, ev internal.LifecycleEvent) error {
	if ev.Type != internal.LifecycleGameEnded {
		return nil
	}
	players := ev.Players
	if players == nil {
		players = []internal.PlayerView{}
	}
	raw, err := json.Marshal(players)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO game_results (room_id, winner, reason, started_at, ended_at, remaining_seconds, players)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		ev.RoomID, string(ev.Winner), ev.Reason, ev.StartTime, ev.At, ev.Remaining, raw)
	if err != nil {
		return fmt.Errorf("archive room %s: %w", ev.RoomID, err)
	}
	return nil
}

func (s *service) RecentResults(ctx context.Context, limit int) ([]GameResult, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, room_id, winner, reason, started_at, ended_at, remaining_seconds, players
		FROM game_results
		ORDER BY ended_at DESC, id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []GameResult{}
	for rows.Next() {
		var (
			res     GameResult
			winner  string
			started sql.NullTime
			raw     []byte
		)
		if err := rows.Scan(&res.ID, &res.RoomID, &winner, &res.Reason, &started, &res.EndedAt, &res.RemainingTime, &raw); err != nil {
			return nil, err
		}
		res.Winner = internal.Winner(winner)
		if started.Valid {
			t := started.Time
			res.StartedAt = &t
		}
		if err := json.Unmarshal(raw, &res.Players); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

// Close closes the database connection.
// It logs a message indicating the disconnection from the specific database.
// If the connection is successfully closed, it returns nil.
// If an error occurs while closing the connection, it returns the error.
func (s *service) Close() error {
	s.log.Info("[Close] disconnected from database")
	return s.db.Close()
}
