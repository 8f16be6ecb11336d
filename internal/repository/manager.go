package repository

import (
	"context"
	"sync"

	"gorm.io/gorm"
)

// Manager 仓储管理器，提供所有仓储的统一访问接口
type Manager struct {
	db *gorm.DB

	// 仓储实例（使用懒加载）
	snapshotOnce sync.Once
	snapshot     SnapshotRepository

	gameResultOnce sync.Once
	gameResult     GameResultRepository
}

// NewManager 创建仓储管理器
func NewManager(db *gorm.DB) *Manager {
	return &Manager{db: db}
}

// Snapshot 获取状态快照仓储
func (m *Manager) Snapshot() SnapshotRepository {
	m.snapshotOnce.Do(func() {
		m.snapshot = NewSnapshotRepository(m.db)
	})
	return m.snapshot
}

// GameResult 获取游戏结果仓储
func (m *Manager) GameResult() GameResultRepository {
	m.gameResultOnce.Do(func() {
		m.gameResult = NewGameResultRepository(m.db)
	})
	return m.gameResult
}

// WithTransaction 在事务中执行函数，fn 收到的管理器绑定到该事务
func (m *Manager) WithTransaction(ctx context.Context, fn func(tx *Manager) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewManager(tx))
	})
}
