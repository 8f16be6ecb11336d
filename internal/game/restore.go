package game

import (
	"bytes"
	"encoding/json"

	"go.uber.org/zap"
)

// restorers 顶层字段名 -> 覆盖函数
var restorers = map[string]func(next *GameState, raw json.RawMessage) error{
	"gameStarted":       restoreInto(func(s *GameState) *bool { return &s.GameStarted }),
	"currentPhase":      restoreInto(func(s *GameState) *int { return &s.CurrentPhase }),
	"teams":             restoreInto(func(s *GameState) *[]Team { return &s.Teams }),
	"currentTeamIndex":  restoreInto(func(s *GameState) *int { return &s.CurrentTeamIndex }),
	"scores":            restoreInto(func(s *GameState) *ScoreBoard { return &s.Scores }),
	"currentCard":       restoreInto(func(s *GameState) **Card { return &s.CurrentCard }),
	"cardsRemaining":    restoreInto(func(s *GameState) *map[Category][]Card { return &s.CardsRemaining }),
	"shameHatHolder":    restoreInto(func(s *GameState) *string { return &s.ShameHatHolder }),
	"drinkingPenalties": restoreInto(func(s *GameState) *map[string]int { return &s.DrinkingPenalties }),
	"gameTimer":         restoreInto(func(s *GameState) *int { return &s.GameTimer }),
	"isTimerRunning":    restoreInto(func(s *GameState) *bool { return &s.IsTimerRunning }),
	"horrorUnlocked":    restoreInto(func(s *GameState) *bool { return &s.HorrorUnlocked }),
	"gameWinner":        restoreInto(func(s *GameState) *string { return &s.GameWinner }),
	"achievements":      restoreInto(func(s *GameState) *[]Achievement { return &s.Achievements }),
	"wildcardEffects":   restoreInto(func(s *GameState) *[]WildcardEffect { return &s.WildcardEffects }),
	"gameHistory":       restoreInto(func(s *GameState) *[]HistoryEvent { return &s.GameHistory }),
}

// restoreInto 先解码到临时变量，成功后再写入字段
//
// null 只清空引用类型，标量字段保持原值，与整体解码存档时一致。
func restoreInto[T any](field func(s *GameState) *T) func(next *GameState, raw json.RawMessage) error {
	return func(next *GameState, raw json.RawMessage) error {
		var v T
		if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			v = *field(next)
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		*field(next) = v
		return nil
	}
}

func applyRestoreState(e *Engine, s *GameState, a Action) *GameState {
	p, ok := payloadAs[RestoreStatePayload](a)
	if !ok {
		return s
	}
	restore, ok := restorers[p.Key]
	if !ok {
		e.logger.Debug("忽略未知的恢复字段", zap.String("key", p.Key))
		return s
	}

	next := s.Clone()
	if err := restore(next, p.Value); err != nil {
		e.logger.Warn("恢复字段失败", zap.String("key", p.Key), zap.Error(err))
		return s
	}
	normalize(next)
	return next
}

// normalize 将存档中的 null 集合替换为空集合，保持与初始状态相同的形状
func normalize(s *GameState) {
	if s.Teams == nil {
		s.Teams = []Team{}
	}
	if s.Scores == nil {
		s.Scores = ScoreBoard{}
	}
	if s.CardsRemaining == nil {
		s.CardsRemaining = emptyDecks()
	}
	for _, c := range Categories {
		if s.CardsRemaining[c] == nil {
			s.CardsRemaining[c] = []Card{}
		}
	}
	if s.DrinkingPenalties == nil {
		s.DrinkingPenalties = map[string]int{}
	}
	if s.Achievements == nil {
		s.Achievements = []Achievement{}
	}
	if s.WildcardEffects == nil {
		s.WildcardEffects = []WildcardEffect{}
	}
	if s.GameHistory == nil {
		s.GameHistory = []HistoryEvent{}
	}
}
