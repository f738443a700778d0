package database

import (
	"fmt"
	"strings"

	"github.com/wfunc/monopoly-game/internal/logger"
	"github.com/wfunc/monopoly-game/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Models 返回需要迁移的模型
func Models() []interface{} {
	return []interface{}{
		// 用户
		&models.User{},

		// 游戏会话
		&models.GameSession{},
		&models.Participant{},

		// 账本
		&models.Transaction{},
		&models.JackpotEntry{},

		// 卡牌
		&models.Card{},
		&models.ParticipantCard{},
		&models.DrawnCard{},
		&models.GameBovedaMarket{},
		&models.CardUsageLog{},

		// 地产
		&models.Property{},
		&models.ParticipantProperty{},

		// 拍卖与交易
		&models.Auction{},
		&models.Trade{},

		// 掷骰日志
		&models.DiceRoll{},
		&models.RouletteSpin{},
		&models.SpecialDiceRoll{},
		&models.RevokedSession{},
	}
}

// AutoMigrate 自动迁移数据库表结构
func AutoMigrate() error {
	if DB == nil {
		return fmt.Errorf("数据库未初始化")
	}

	// 清理过期锁文件
	CleanupStaleLocks()

	// 获取迁移锁，避免多个进程同时迁移
	dbPath := getDBPath()
	if dbPath != "" {
		lockFile, err := acquireMigrationLock(dbPath)
		if err != nil {
			logger.Error("无法获取迁移锁", zap.Error(err))
			return fmt.Errorf("获取迁移锁失败: %w", err)
		}
		defer releaseMigrationLock(lockFile)
	}

	logger.Info("开始数据库迁移...")

	if err := MigrateModels(DB); err != nil {
		return err
	}

	if err := createIndexes(DB); err != nil {
		return err
	}

	if err := SeedCatalog(DB); err != nil {
		return err
	}

	logger.Info("数据库迁移完成")
	return nil
}

// MigrateModels 迁移全部模型
func MigrateModels(db *gorm.DB) error {
	if db.Dialector.Name() != "sqlite" {
		return migrateAll(db)
	}
	// PRAGMA 只对当前连接生效，重建表期间固定在同一个连接上关闭外键检查
	return db.Connection(func(conn *gorm.DB) error {
		if err := conn.Exec("PRAGMA foreign_keys = OFF").Error; err != nil {
			return err
		}
		defer conn.Exec("PRAGMA foreign_keys = ON")
		return migrateAll(conn)
	})
}

func migrateAll(db *gorm.DB) error {
	for _, model := range Models() {
		if err := db.AutoMigrate(model); err != nil {
			logger.Error("迁移失败",
				zap.String("model", fmt.Sprintf("%T", model)),
				zap.Error(err),
			)
			return err
		}
		logger.Debug("迁移成功", zap.String("model", fmt.Sprintf("%T", model)))
	}
	return nil
}

// createIndexes 创建组合查询索引
func createIndexes(db *gorm.DB) error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_transactions_game_created ON transactions(game_id, created_at)",
		"CREATE INDEX IF NOT EXISTS idx_auctions_game_status ON auctions(game_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_trades_game_status ON trades(game_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_game_sessions_status_created ON game_sessions(status, created_at)",
	}
	for _, idx := range indexes {
		if err := db.Exec(idx).Error; err != nil {
			if !strings.Contains(err.Error(), "already exists") {
				logger.Warn("创建索引失败", zap.String("index", idx), zap.Error(err))
			}
		}
	}

	logger.Info("数据库索引创建完成")
	return nil
}
