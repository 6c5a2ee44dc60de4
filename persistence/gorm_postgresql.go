// persistence/gorm_postgresql.go
package persistence

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wfunc/partycards/models"
)

// GormPostgreSQL 使用GORM的PostgreSQL实现
type GormPostgreSQL struct {
	db *gorm.DB
}

// NewGormPostgreSQL 创建GORM PostgreSQL数据库连接
func NewGormPostgreSQL(opts Options) (*GormPostgreSQL, error) {
	// 配置GORM日志
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,   // 慢SQL阈值
			LogLevel:      logger.Silent, // 日志级别
			Colorful:      false,
		},
	)

	db, err := gorm.Open(postgres.Open(opts.dsn()), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 设置连接池
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := closeOnError(sqlDB, db.AutoMigrate(&models.GormGameSession{})); err != nil {
		return nil, fmt.Errorf("migrate game_sessions: %w", err)
	}

	return &GormPostgreSQL{db: db}, nil
}

// Save 保存会话快照，不存在则创建
func (p *GormPostgreSQL) Save(ctx context.Context, g *models.GameSession) error {
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.GormGameSession
		result := tx.Where("game_id = ?", g.GameID).First(&row)

		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return tx.Create(toRow(g)).Error
		} else if result.Error != nil {
			return result.Error
		}

		row.Phase = string(g.Phase())
		row.Players = len(g.Players)
		row.Snapshot = g
		return tx.Save(&row).Error
	})
}

// Load 加载会话快照
func (p *GormPostgreSQL) Load(ctx context.Context, gameID string) (*models.GameSession, error) {
	var row models.GormGameSession
	if err := p.db.WithContext(ctx).Where("game_id = ?", gameID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: game %s", ErrRecordNotFound, gameID)
		}
		return nil, err
	}
	if row.Snapshot == nil {
		return nil, fmt.Errorf("game %s has an empty snapshot", gameID)
	}
	return row.Snapshot, nil
}

// Close 关闭数据库连接
func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toRow(g *models.GameSession) *models.GormGameSession {
	return &models.GormGameSession{
		GameID:   g.GameID,
		Phase:    string(g.Phase()),
		Players:  len(g.Players),
		Snapshot: g,
	}
}
