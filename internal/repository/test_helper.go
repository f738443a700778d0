package repository

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/monopoly-game/internal/config"
	"github.com/wfunc/monopoly-game/internal/database"
	"github.com/wfunc/monopoly-game/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB 为测试套件创建内存数据库并写入卡牌与地产目录
func SetupTestDB() *gorm.DB {
	// 内存库每个连接都是独立的数据库，必须固定为单连接
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		panic(err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		panic(err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.MigrateModels(db); err != nil {
		panic(err)
	}
	if err := database.SeedCatalog(db); err != nil {
		panic(err)
	}

	return db
}

// SetupFileTestDB 使用默认连接池配置的临时 sqlite 文件库，供并发用例使用
func SetupFileTestDB(t *testing.T) *gorm.DB {
	cfg := config.Default().Database
	cfg.DSN = filepath.Join(t.TempDir(), "monopoly-test.db")

	db, err := database.Open(&cfg, logger.Default.LogMode(logger.Silent))
	require.NoError(t, err)
	t.Cleanup(func() { CleanupTestDB(db) })

	require.NoError(t, database.MigrateModels(db))
	require.NoError(t, database.SeedCatalog(db))
	return db
}

// CleanupTestDB 清理测试数据库
func CleanupTestDB(db *gorm.DB) {
	sqlDB, _ := db.DB()
	if sqlDB != nil {
		sqlDB.Close()
	}
}

// CreateTestUser 创建测试用户
func CreateTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	user := &models.User{
		Username:     username,
		PasswordHash: "test-hash",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateTestGame 创建等待中的测试游戏
func CreateTestGame(t *testing.T, db *gorm.DB, host *models.User) *models.GameSession {
	game := &models.GameSession{
		Code:       fmt.Sprintf("T%03d", host.ID),
		HostUserID: host.ID,
		Name:       "Test Game",
		Status:     models.GameStatusWaiting,
	}
	require.NoError(t, db.Create(game).Error)
	return game
}

// CreateTestParticipant 直接写入带余额的玩家
func CreateTestParticipant(t *testing.T, db *gorm.DB, gameID, userID uint, balance int64) *models.Participant {
	p := &models.Participant{
		GameID:  gameID,
		UserID:  userID,
		Balance: decimal.NewFromInt(balance),
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

// FindCardByTitle 按标题查目录卡牌
func FindCardByTitle(t *testing.T, db *gorm.DB, deck models.DeckType, title string) *models.Card {
	var card models.Card
	require.NoError(t, db.Where("type = ? AND title = ?", deck, title).First(&card).Error)
	return &card
}

// FindPropertyByName 按名称查地产
func FindPropertyByName(t *testing.T, db *gorm.DB, name string) *models.Property {
	var p models.Property
	require.NoError(t, db.Where("name = ?", name).First(&p).Error)
	return &p
}
