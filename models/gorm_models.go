// models/gorm_models.go
package models

import (
	"gorm.io/gorm"
)

// GormGameSession 游戏会话快照，整局状态以 JSONB 保存
type GormGameSession struct {
	gorm.Model
	GameID   string       `gorm:"uniqueIndex;not null"`
	Phase    string       `gorm:"not null"`
	Players  int          `gorm:"default:0"`
	Snapshot *GameSession `gorm:"serializer:json;type:jsonb;not null"`
}

// TableName keeps the table shared with the raw lib/pq store.
func (GormGameSession) TableName() string {
	return "game_sessions"
}
