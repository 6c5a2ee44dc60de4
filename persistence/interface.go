// persistence/interface.go
package persistence

import (
	"context"
	"fmt"
	"io"

	"github.com/wfunc/partycards/models"
)

// Store 游戏会话存储接口，按 gameId 读写整局快照，最后一次写入生效
type Store interface {
	Load(ctx context.Context, gameID string) (*models.GameSession, error)
	Save(ctx context.Context, g *models.GameSession) error
	Close() error
}

// 错误定义
var (
	ErrRecordNotFound = fmt.Errorf("record not found")
)

// Options 数据库连接参数
type Options struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func (o Options) dsn() string {
	sslmode := o.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		o.Host, o.Port, o.User, o.Password, o.DBName, sslmode)
}

// Open 根据驱动名创建存储: memory / postgres / gorm
func Open(driver string, opts Options) (Store, error) {
	switch driver {
	case "", "memory":
		return NewMemoryStore(), nil
	case "postgres":
		db, err := NewPostgreSQL(opts)
		if err != nil {
			return nil, err
		}
		return db, nil
	case "gorm":
		db, err := NewGormPostgreSQL(opts)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", driver)
	}
}

// closeOnError 在初始化失败时释放连接池
func closeOnError(c io.Closer, err error) error {
	if err != nil {
		c.Close()
	}
	return err
}
