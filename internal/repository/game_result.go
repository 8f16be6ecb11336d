package repository

import (
	"context"
	"time"

	"github.com/wfunc/party-game/internal/models"
	"gorm.io/gorm"
)

// GameResultRepository 游戏结果仓储接口
type GameResultRepository interface {
	Create(ctx context.Context, result *models.GameResult) error
	FindBySessionKey(ctx context.Context, sessionKey string, p *Pagination) ([]*models.GameResult, error)
	ListRecent(ctx context.Context, p *Pagination) ([]*models.GameResult, error)
	GetStatistics(ctx context.Context, startTime, endTime time.Time) (*ResultStatistics, error)
}

// ResultStatistics 结果统计
type ResultStatistics struct {
	TotalGames      int64   `json:"total_games"`
	HorrorGames     int64   `json:"horror_games"`
	AverageDuration float64 `json:"average_duration"`
	LongestDuration int     `json:"longest_duration"`
	AverageCards    float64 `json:"average_cards"`
}

// gameResultRepo 游戏结果仓储实现
type gameResultRepo struct {
	*BaseRepo
}

// NewGameResultRepository 创建游戏结果仓储
func NewGameResultRepository(db *gorm.DB) GameResultRepository {
	return &gameResultRepo{
		BaseRepo: NewBaseRepo(db),
	}
}

// Create 创建游戏结果
func (r *gameResultRepo) Create(ctx context.Context, result *models.GameResult) error {
	if result.FinishedAt.IsZero() {
		result.FinishedAt = time.Now()
	}
	return r.conn(ctx).Create(result).Error
}

// FindBySessionKey 查询某个会话的历史结果
func (r *gameResultRepo) FindBySessionKey(ctx context.Context, sessionKey string, p *Pagination) ([]*models.GameResult, error) {
	var results []*models.GameResult

	// 查询总数
	if err := r.conn(ctx).
		Model(&models.GameResult{}).
		Where("session_key = ?", sessionKey).
		Count(&p.Total).Error; err != nil {
		return nil, err
	}

	// 查询数据
	err := r.conn(ctx).
		Where("session_key = ?", sessionKey).
		Order("finished_at desc").
		Scopes(Paginate(p)).
		Find(&results).Error
	return results, err
}

// ListRecent 最近结束的游戏
func (r *gameResultRepo) ListRecent(ctx context.Context, p *Pagination) ([]*models.GameResult, error) {
	var results []*models.GameResult

	if err := r.conn(ctx).
		Model(&models.GameResult{}).
		Count(&p.Total).Error; err != nil {
		return nil, err
	}

	err := r.conn(ctx).
		Order("finished_at desc").
		Scopes(Paginate(p)).
		Find(&results).Error
	return results, err
}

// GetStatistics 统计时间段内的游戏结果
func (r *gameResultRepo) GetStatistics(ctx context.Context, startTime, endTime time.Time) (*ResultStatistics, error) {
	var stats ResultStatistics
	err := r.conn(ctx).
		Model(&models.GameResult{}).
		Select(`
			COUNT(*) as total_games,
			COALESCE(SUM(CASE WHEN horror_unlocked THEN 1 ELSE 0 END), 0) as horror_games,
			COALESCE(AVG(duration_seconds), 0) as average_duration,
			COALESCE(MAX(duration_seconds), 0) as longest_duration,
			COALESCE(AVG(cards_played), 0) as average_cards
		`).
		Where("finished_at BETWEEN ? AND ?", startTime, endTime).
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
