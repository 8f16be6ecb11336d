package game

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/wfunc/party-game/internal/errors"
	"go.uber.org/zap"
)

// 计时状态从不恢复，重启后计时器总是暂停
const skipRestoreKey = "isTimerRunning"

// RecoveryManager 游戏恢复管理器
type RecoveryManager struct {
	logger    *zap.Logger
	persister StatePersister
	timeout   time.Duration // 会话超时时间，0 表示不过期
}

// NewRecoveryManager 创建恢复管理器
func NewRecoveryManager(logger *zap.Logger, persister StatePersister, timeout time.Duration) *RecoveryManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecoveryManager{
		logger:    logger,
		persister: persister,
		timeout:   timeout,
	}
}

// Recover 从存储中恢复会话状态
//
// 存档不存在、已过期、无法解析或尚未开局时保持原始状态，返回 false。
// 只有存储本身出错时返回错误。
func (rm *RecoveryManager) Recover(ctx context.Context, session *Session) (bool, error) {
	if rm.persister == nil {
		return false, nil
	}

	if rm.timeout > 0 {
		rm.cleanupExpired(ctx)
	}

	doc, err := rm.persister.Load(ctx, session.Key())
	if err != nil {
		if errors.Is(err, errors.ErrStateNotFound) {
			rm.logger.Info("没有存档，使用初始状态", zap.String("session_key", session.Key()))
			return false, nil
		}
		return false, err
	}

	// 检查会话是否超时
	if rm.timeout > 0 && !doc.UpdatedAt.IsZero() && time.Since(doc.UpdatedAt) > rm.timeout {
		rm.logger.Warn("会话已超时",
			zap.String("session_key", session.Key()),
			zap.Time("last_update", doc.UpdatedAt),
			zap.Duration("timeout", rm.timeout))

		if err := rm.persister.Delete(ctx, session.Key()); err != nil {
			rm.logger.Error("删除超时会话失败", zap.Error(err))
		}
		return false, nil
	}

	actions, err := ReplayActions(doc.Data)
	if err != nil {
		rm.logger.Warn("存档格式错误，按无存档处理",
			zap.String("session_key", session.Key()),
			zap.Error(err))
		return false, nil
	}
	if len(actions) == 0 {
		return false, nil
	}

	state := session.Replay(ctx, actions)

	rm.logger.Info("会话恢复成功",
		zap.String("session_key", session.Key()),
		zap.Int("phase", state.CurrentPhase),
		zap.Int("teams", len(state.Teams)),
		zap.Int("timer", state.GameTimer))

	return true, nil
}

// cleanupExpired 清理所有超时的存档，失败只记录日志
func (rm *RecoveryManager) cleanupExpired(ctx context.Context) {
	cleaner, ok := rm.persister.(StateCleaner)
	if !ok {
		return
	}

	removed, err := cleaner.CleanupBefore(ctx, time.Now().Add(-rm.timeout))
	if err != nil {
		rm.logger.Warn("清理过期存档失败", zap.Error(err))
		return
	}
	if removed > 0 {
		rm.logger.Info("已清理过期存档", zap.Int64("count", removed))
	}
}

// ReplayActions 将存档文档转换为 restore_state 动作序列
//
// 只有 gameStarted 为 true 的存档会被回放；isTimerRunning 永远跳过。
func ReplayActions(data []byte) ([]Action, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, errors.ErrStateCorrupted)
	}
	if doc == nil {
		return nil, errors.New(errors.ErrStateCorrupted, "存档为空")
	}

	var started bool
	if raw, ok := doc["gameStarted"]; ok {
		if err := json.Unmarshal(raw, &started); err != nil {
			return nil, errors.Wrap(err, errors.ErrStateCorrupted, "gameStarted 格式错误")
		}
	}
	if !started {
		return nil, nil
	}

	// 逐字段回放之前先整体校验，任何字段不合法都视为存档损坏
	snapshot := NewGameState()
	if err := json.Unmarshal(data, snapshot); err != nil {
		return nil, errors.Wrap(err, errors.ErrStateCorrupted, "存档字段类型错误")
	}
	if err := validateSnapshot(snapshot); err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(doc))
	for k := range doc {
		if k == skipRestoreKey {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	actions := make([]Action, 0, len(keys))
	for _, k := range keys {
		actions = append(actions, RestoreState(k, doc[k]))
	}
	return actions, nil
}

// validateSnapshot 检查存档状态的基本约束
func validateSnapshot(s *GameState) error {
	maxPhase := len(Categories) - 1
	if s.HorrorUnlocked {
		maxPhase = len(Categories)
	}
	if s.CurrentPhase < 1 || s.CurrentPhase > maxPhase {
		return errors.Newf(errors.ErrStateCorrupted, "阶段超出范围: %d", s.CurrentPhase)
	}

	if s.CurrentTeamIndex < 0 || (len(s.Teams) > 0 && s.CurrentTeamIndex >= len(s.Teams)) {
		return errors.Newf(errors.ErrStateCorrupted, "当前队伍索引超出范围: %d", s.CurrentTeamIndex)
	}

	for _, team := range s.Teams {
		if _, ok := s.Scores[team.ID]; !ok {
			return errors.Newf(errors.ErrStateCorrupted, "队伍 %s 缺少分数", team.ID)
		}
	}
	return nil
}
