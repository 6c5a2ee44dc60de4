// persistence/postgresql.go
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	// PostgreSQL 驱动
	_ "github.com/lib/pq"

	"github.com/wfunc/partycards/models"
)

const queryTimeout = 5 * time.Second

// PostgreSQL 使用 lib/pq 的会话存储，快照保存在 JSONB 列中
type PostgreSQL struct {
	db *sql.DB
}

// NewPostgreSQL 创建 PostgreSQL 数据库连接
func NewPostgreSQL(opts Options) (*PostgreSQL, error) {
	db, err := sql.Open("postgres", opts.dsn())
	if err != nil {
		return nil, err
	}

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	if err := closeOnError(db, db.PingContext(ctx)); err != nil {
		return nil, err
	}

	// 设置连接池参数
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := closeOnError(db, initTables(ctx, db)); err != nil {
		return nil, err
	}

	return &PostgreSQL{db: db}, nil
}

// initTables 初始化表结构，列与 gorm 模型 GormGameSession 保持一致
func initTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS game_sessions (
            id BIGSERIAL PRIMARY KEY,
            created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
            deleted_at TIMESTAMPTZ,
            game_id TEXT NOT NULL,
            phase TEXT NOT NULL,
            players BIGINT DEFAULT 0,
            snapshot JSONB NOT NULL
        )
    `)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
        CREATE UNIQUE INDEX IF NOT EXISTS idx_game_sessions_game_id ON game_sessions(game_id);
        CREATE INDEX IF NOT EXISTS idx_game_sessions_deleted_at ON game_sessions(deleted_at);
    `)
	return err
}

// Save 保存会话快照 (UPSERT)
func (p *PostgreSQL) Save(ctx context.Context, g *models.GameSession) error {
	snapshot, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("encode game %s: %w", g.GameID, err)
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
        INSERT INTO game_sessions (game_id, phase, players, snapshot)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (game_id)
        DO UPDATE SET phase = $2, players = $3, snapshot = $4, updated_at = CURRENT_TIMESTAMP, deleted_at = NULL
    `

	_, err = p.db.ExecContext(ctx, query, g.GameID, string(g.Phase()), len(g.Players), snapshot)
	return err
}

// Load 加载会话快照
func (p *PostgreSQL) Load(ctx context.Context, gameID string) (*models.GameSession, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var data []byte
	query := `SELECT snapshot FROM game_sessions WHERE game_id = $1 AND deleted_at IS NULL`
	err := p.db.QueryRowContext(ctx, query, gameID).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: game %s", ErrRecordNotFound, gameID)
		}
		return nil, err
	}

	return decodeSnapshot(data)
}

// Close 关闭数据库连接
func (p *PostgreSQL) Close() error {
	return p.db.Close()
}

func decodeSnapshot(data []byte) (*models.GameSession, error) {
	var g models.GameSession
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("decode game snapshot: %w", err)
	}
	return &g, nil
}
