package game

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"sync"
	"time"

	"github.com/wfunc/party-game/internal/errors"
	"github.com/wfunc/party-game/internal/models"
	"github.com/wfunc/party-game/internal/repository"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// StateDocument 持久化的状态文档
type StateDocument struct {
	Data      []byte
	UpdatedAt time.Time
}

// StatePersister 状态持久化接口，一个键对应一份完整的 JSON 文档
type StatePersister interface {
	Save(ctx context.Context, key string, data []byte) error
	// Load 不存在时返回 ErrStateNotFound
	Load(ctx context.Context, key string) (*StateDocument, error)
	Delete(ctx context.Context, key string) error
}

// StateCleaner 支持批量清理过期存档的持久化器
type StateCleaner interface {
	// CleanupBefore 删除 before 之前未更新的存档，返回删除数量
	CleanupBefore(ctx context.Context, before time.Time) (int64, error)
}

// NewStatePersister 按配置创建持久化器
func NewStatePersister(kind string, db *gorm.DB) (StatePersister, error) {
	switch kind {
	case "memory":
		return NewMemoryStatePersister(), nil
	case "database":
		if db == nil {
			return nil, errors.New(errors.ErrDatabaseConnect, "数据库持久化需要数据库连接")
		}
		return NewDatabaseStatePersister(repository.NewSnapshotRepository(db)), nil
	case "cache":
		if db == nil {
			return nil, errors.New(errors.ErrDatabaseConnect, "数据库持久化需要数据库连接")
		}
		return NewCacheStatePersister(NewMemoryStatePersister(), NewDatabaseStatePersister(repository.NewSnapshotRepository(db))), nil
	}
	return nil, errors.Newf(errors.ErrConfigValidate, "未知的持久化方式: %s", kind)
}

// MemoryStatePersister 内存状态持久化（用于测试）
type MemoryStatePersister struct {
	mu     sync.RWMutex
	states map[string]StateDocument
}

// NewMemoryStatePersister 创建内存持久化器
func NewMemoryStatePersister() *MemoryStatePersister {
	return &MemoryStatePersister{
		states: make(map[string]StateDocument),
	}
}

// Save 保存状态
func (p *MemoryStatePersister) Save(ctx context.Context, key string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.states[key] = StateDocument{Data: append([]byte(nil), data...), UpdatedAt: time.Now()}
	return nil
}

// Load 加载状态
func (p *MemoryStatePersister) Load(ctx context.Context, key string) (*StateDocument, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	doc, exists := p.states[key]
	if !exists {
		return nil, errors.New(errors.ErrStateNotFound, key)
	}

	return &StateDocument{Data: append([]byte(nil), doc.Data...), UpdatedAt: doc.UpdatedAt}, nil
}

// Delete 删除状态
func (p *MemoryStatePersister) Delete(ctx context.Context, key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.states, key)
	return nil
}

// CleanupBefore 清理过期存档
func (p *MemoryStatePersister) CleanupBefore(ctx context.Context, before time.Time) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var removed int64
	for key, doc := range p.states {
		if doc.UpdatedAt.Before(before) {
			delete(p.states, key)
			removed++
		}
	}
	return removed, nil
}

// DatabaseStatePersister 数据库状态持久化
type DatabaseStatePersister struct {
	repo repository.SnapshotRepository
}

// NewDatabaseStatePersister 创建数据库持久化器
func NewDatabaseStatePersister(repo repository.SnapshotRepository) *DatabaseStatePersister {
	return &DatabaseStatePersister{repo: repo}
}

// Save 保存状态到数据库
func (p *DatabaseStatePersister) Save(ctx context.Context, key string, data []byte) error {
	if err := p.repo.Save(ctx, key, data); err != nil {
		return errors.Wrap(err, errors.ErrDatabaseUpdate, "保存状态失败")
	}
	return nil
}

// Load 从数据库加载状态
func (p *DatabaseStatePersister) Load(ctx context.Context, key string) (*StateDocument, error) {
	snapshot, err := p.repo.Get(ctx, key)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.ErrStateNotFound, key)
		}
		return nil, errors.Wrap(err, errors.ErrDatabaseQuery, "查询状态失败")
	}

	return &StateDocument{Data: []byte(snapshot.StateData), UpdatedAt: snapshot.UpdatedAt}, nil
}

// Delete 从数据库删除状态
func (p *DatabaseStatePersister) Delete(ctx context.Context, key string) error {
	if _, err := p.repo.Delete(ctx, key); err != nil {
		return errors.Wrap(err, errors.ErrDatabaseDelete, "删除状态失败")
	}
	return nil
}

// CleanupBefore 清理数据库中的过期存档
func (p *DatabaseStatePersister) CleanupBefore(ctx context.Context, before time.Time) (int64, error) {
	n, err := p.repo.CleanupBefore(ctx, before)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrDatabaseDelete, "清理过期状态失败")
	}
	return n, nil
}

// CacheStatePersister 带缓存的持久化器（装饰器模式）
type CacheStatePersister struct {
	cache   StatePersister // 缓存层
	storage StatePersister // 存储层
}

// NewCacheStatePersister 创建带缓存的持久化器
func NewCacheStatePersister(cache, storage StatePersister) *CacheStatePersister {
	return &CacheStatePersister{
		cache:   cache,
		storage: storage,
	}
}

// Save 保存状态（同时保存到缓存和存储）
func (p *CacheStatePersister) Save(ctx context.Context, key string, data []byte) error {
	if err := p.storage.Save(ctx, key, data); err != nil {
		return err
	}

	// 缓存失败不影响主流程
	_ = p.cache.Save(ctx, key, data)

	return nil
}

// Load 加载状态（优先从缓存加载）
func (p *CacheStatePersister) Load(ctx context.Context, key string) (*StateDocument, error) {
	if doc, err := p.cache.Load(ctx, key); err == nil {
		return doc, nil
	}

	doc, err := p.storage.Load(ctx, key)
	if err != nil {
		return nil, err
	}

	_ = p.cache.Save(ctx, key, doc.Data)

	return doc, nil
}

// Delete 删除状态（同时删除缓存和存储）
func (p *CacheStatePersister) Delete(ctx context.Context, key string) error {
	_ = p.cache.Delete(ctx, key)
	return p.storage.Delete(ctx, key)
}

// CleanupBefore 先清理缓存再清理存储，数量以存储层为准
func (p *CacheStatePersister) CleanupBefore(ctx context.Context, before time.Time) (int64, error) {
	if cleaner, ok := p.cache.(StateCleaner); ok {
		_, _ = cleaner.CleanupBefore(ctx, before)
	}
	cleaner, ok := p.storage.(StateCleaner)
	if !ok {
		return 0, nil
	}
	return cleaner.CleanupBefore(ctx, before)
}

// ResultRecorder 记录已结束的游戏
type ResultRecorder interface {
	Record(ctx context.Context, key string, state *GameState, summary Summary) error
}

// DatabaseResultRecorder 在同一事务中写入结果记录和最终快照
type DatabaseResultRecorder struct {
	repos *repository.Manager
}

// NewDatabaseResultRecorder 创建数据库结果记录器
func NewDatabaseResultRecorder(repos *repository.Manager) *DatabaseResultRecorder {
	return &DatabaseResultRecorder{repos: repos}
}

// Record 保存游戏结果
func (r *DatabaseResultRecorder) Record(ctx context.Context, key string, state *GameState, summary Summary) error {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return errors.Wrap(err, errors.ErrStateEncode)
	}
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return errors.Wrap(err, errors.ErrStateEncode)
	}

	result := &models.GameResult{
		SessionKey:      key,
		WinnerID:        state.GameWinner,
		FinalPhase:      state.CurrentPhase,
		HorrorUnlocked:  state.HorrorUnlocked,
		DurationSeconds: state.GameTimer,
		CardsPlayed:     countEvents(state.GameHistory, EventCardCompleted),
		Summary:         datatypes.JSON(summaryJSON),
	}
	if team, ok := state.FindTeam(state.GameWinner); ok {
		result.WinnerName = team.Name
	}

	err = r.repos.WithTransaction(ctx, func(tx *repository.Manager) error {
		if err := tx.GameResult().Create(ctx, result); err != nil {
			return err
		}
		return tx.Snapshot().Save(ctx, key, stateJSON)
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrDatabaseInsert, "保存游戏结果失败")
	}
	return nil
}
