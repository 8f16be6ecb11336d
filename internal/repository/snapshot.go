package repository

import (
	"context"
	"time"

	"github.com/wfunc/party-game/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SnapshotRepository 游戏状态快照仓储接口
type SnapshotRepository interface {
	Get(ctx context.Context, sessionKey string) (*models.GameSnapshot, error)
	Save(ctx context.Context, sessionKey string, data []byte) error
	Delete(ctx context.Context, sessionKey string) (bool, error)
	CleanupBefore(ctx context.Context, before time.Time) (int64, error)
}

// snapshotRepo 快照仓储实现
type snapshotRepo struct {
	*BaseRepo
}

// NewSnapshotRepository 创建快照仓储
func NewSnapshotRepository(db *gorm.DB) SnapshotRepository {
	return &snapshotRepo{
		BaseRepo: NewBaseRepo(db),
	}
}

// Get 按会话键读取快照，不存在时返回 gorm.ErrRecordNotFound
func (r *snapshotRepo) Get(ctx context.Context, sessionKey string) (*models.GameSnapshot, error) {
	var snapshot models.GameSnapshot
	err := r.conn(ctx).
		Where("session_key = ?", sessionKey).
		First(&snapshot).Error
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// Save 写入快照，已存在则覆盖
func (r *snapshotRepo) Save(ctx context.Context, sessionKey string, data []byte) error {
	snapshot := &models.GameSnapshot{
		SessionKey: sessionKey,
		StateData:  datatypes.JSON(data),
	}
	return r.conn(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"state_data", "updated_at"}),
		}).
		Create(snapshot).Error
}

// Delete 删除快照，返回是否确实删除了记录
func (r *snapshotRepo) Delete(ctx context.Context, sessionKey string) (bool, error) {
	result := r.conn(ctx).
		Where("session_key = ?", sessionKey).
		Delete(&models.GameSnapshot{})
	return result.RowsAffected > 0, result.Error
}

// CleanupBefore 删除指定时间之前未更新的快照
func (r *snapshotRepo) CleanupBefore(ctx context.Context, before time.Time) (int64, error) {
	result := r.conn(ctx).
		Where("updated_at < ?", before).
		Delete(&models.GameSnapshot{})
	return result.RowsAffected, result.Error
}
