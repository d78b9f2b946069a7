package postgis

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/kass/go-geo-zones/pkg/models"
)

// Config holds connection settings for the agent table
type Config struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN returns the lib/pq connection string
func (c Config) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, sslMode)
}

// AgentStore reads and writes agents in a PostGIS table
type AgentStore struct {
	db *sql.DB
}

// Open connects to PostGIS
func Open(ctx context.Context, cfg Config) (*AgentStore, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &AgentStore{db: db}, nil
}

// InitSchema creates the agents table and its spatial index
func (s *AgentStore) InitSchema(ctx context.Context) error {
	queries := []string{
		`CREATE EXTENSION IF NOT EXISTS postgis;`,
		`CREATE TABLE IF NOT EXISTS agents (
			id TEXT PRIMARY KEY,
			location GEOMETRY(POINT, 4326) NOT NULL,
			attributes JSONB NOT NULL DEFAULT '{}'::jsonb
		);`,
		`CREATE INDEX IF NOT EXISTS idx_agents_location ON agents USING GIST(location);`,
	}

	for _, query := range queries {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query '%s': %w", query, err)
		}
	}
	return nil
}

// BulkInsertAgents inserts agents in batches, committing every batchSize rows
func (s *AgentStore) BulkInsertAgents(ctx context.Context, agents []*models.Agent) error {
	const batchSize = 10000

	stmt, err := s.db.PrepareContext(ctx, `
		INSERT INTO agents (id, location, attributes)
		VALUES ($1, ST_SetSRID(ST_MakePoint($2, $3), 4326), $4)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	txStmt := tx.StmtContext(ctx, stmt)

	for i, agent := range agents {
		attrs, err := json.Marshal(agent.Attributes)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to encode attributes of agent %s: %w", agent.ID, err)
		}
		if _, err := txStmt.ExecContext(ctx, agent.ID,
			agent.Position.LongitudeDegrees, agent.Position.LatitudeDegrees, string(attrs)); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert agent %s: %w", agent.ID, err)
		}

		if (i+1)%batchSize == 0 {
			if err := tx.Commit(); err != nil {
				return fmt.Errorf("failed to commit batch: %w", err)
			}
			if tx, err = s.db.BeginTx(ctx, nil); err != nil {
				return fmt.Errorf("failed to begin new transaction: %w", err)
			}
			txStmt = tx.StmtContext(ctx, stmt)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit final batch: %w", err)
	}
	return nil
}

const selectAgents = `
	SELECT id, ST_Y(location) AS lat, ST_X(location) AS lon, attributes
	FROM agents
`

// LoadAgents reads every agent in the table
func (s *AgentStore) LoadAgents(ctx context.Context) ([]*models.Agent, error) {
	return s.queryAgents(ctx, selectAgents)
}

// LoadAgentsInBox reads the agents inside a bounding box
func (s *AgentStore) LoadAgentsInBox(ctx context.Context, box models.BoundingBox) ([]*models.Agent, error) {
	query, args := boxQuery(box)
	return s.queryAgents(ctx, query, args...)
}

// boxQuery selects agents by envelope. ST_MakeEnvelope takes x (longitude) first.
func boxQuery(box models.BoundingBox) (string, []any) {
	return selectAgents + `WHERE location && ST_MakeEnvelope($1, $2, $3, $4, 4326)`,
		[]any{
			box.BottomLeft.LongitudeDegrees, box.BottomLeft.LatitudeDegrees,
			box.TopRight.LongitudeDegrees, box.TopRight.LatitudeDegrees,
		}
}

func (s *AgentStore) queryAgents(ctx context.Context, query string, args ...any) ([]*models.Agent, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	var agents []*models.Agent
	for rows.Next() {
		var (
			id       string
			lat, lon float64
			raw      []byte
		)
		if err := rows.Scan(&id, &lat, &lon, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		agent, err := decodeAgent(id, lat, lon, raw)
		if err != nil {
			return nil, err
		}
		agents = append(agents, agent)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return agents, nil
}

func decodeAgent(id string, lat, lon float64, raw []byte) (*models.Agent, error) {
	attrs := make(map[string]any)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &attrs); err != nil {
			return nil, fmt.Errorf("failed to decode attributes of agent %s: %w", id, err)
		}
	}
	return &models.Agent{
		ID:         id,
		Position:   models.NewPosition(lat, lon),
		Attributes: attrs,
	}, nil
}

// Count returns the number of agents in the table
func (s *AgentStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM agents").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count agents: %w", err)
	}
	return count, nil
}

// Close closes the database connection
func (s *AgentStore) Close() error {
	return s.db.Close()
}
