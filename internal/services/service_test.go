package services

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-dm-backend/internal/domain"
	"github.com/tbourn/go-dm-backend/internal/repo"
)

// newTestDB opens a throwaway SQLite database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("svc_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if err := db.AutoMigrate(&domain.User{}, &domain.Chat{}, &domain.Message{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// gormChatRepo adapts the repo free functions to the ChatRepo interface for
// tests; the HTTP router carries the production twin.
type gormChatRepo struct{}

func (gormChatRepo) CreateChat(ctx context.Context, db *gorm.DB, a, b string) (*domain.Chat, error) {
	return repo.CreateChat(ctx, db, a, b)
}

func (gormChatRepo) GetChat(ctx context.Context, db *gorm.DB, id string) (*domain.Chat, error) {
	return repo.GetChat(ctx, db, id)
}

func (gormChatRepo) ListChatsForUser(ctx context.Context, db *gorm.DB, userID string) ([]domain.Chat, error) {
	return repo.ListChatsForUser(ctx, db, userID)
}

func (gormChatRepo) GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error) {
	return repo.GetUser(ctx, db, id)
}

func (gormChatRepo) GetLastMessage(ctx context.Context, db *gorm.DB, chatID string) (*domain.Message, error) {
	return repo.GetLastMessage(ctx, db, chatID)
}

// seedUser inserts an account row directly.
func seedUser(t *testing.T, db *gorm.DB, id, username, email string) {
	t.Helper()
	u := domain.User{ID: id, Username: username, Email: email, Password: "hash"}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("seed user %s: %v", id, err)
	}
}
