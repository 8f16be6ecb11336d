package game

import (
	"time"

	"go.uber.org/zap"
)

// transitionFunc 状态转换函数：返回输入本身表示无变化
type transitionFunc func(e *Engine, s *GameState, a Action) *GameState

// Engine 状态转换引擎，GameState 的唯一写入者
type Engine struct {
	rules       Rules
	rng         RandomGenerator
	now         func() time.Time
	logger      *zap.Logger
	transitions map[ActionType]transitionFunc
}

// NewEngine 创建转换引擎
func NewEngine(rules Rules, rng RandomGenerator, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if rng == nil {
		rng = NewCryptoRandomGenerator()
	}
	e := &Engine{
		rules:  rules,
		rng:    rng,
		now:    time.Now,
		logger: logger,
	}
	e.initTransitions()
	return e
}

// WithClock 替换时间源（测试用）
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Rules 返回引擎使用的规则
func (e *Engine) Rules() Rules {
	return e.rules
}

// RNG 返回引擎共享的随机数生成器
func (e *Engine) RNG() RandomGenerator {
	return e.rng
}

// initTransitions 初始化状态转换表
func (e *Engine) initTransitions() {
	e.transitions = map[ActionType]transitionFunc{
		ActionStartGame:          applyStartGame,
		ActionDrawCard:           applyDrawCard,
		ActionCompleteCard:       applyCompleteCard,
		ActionAdvancePhase:       applyAdvancePhase,
		ActionUnlockHorror:       applyUnlockHorror,
		ActionSetShameHat:        applySetShameHat,
		ActionAddDrinkingPenalty: applyDrinkingPenalty,
		ActionSetWinner:          applySetWinner,
		ActionAddAchievement:     applyAddAchievement,
		ActionApplyWildcard:      applyWildcard,
		ActionDecayWildcards:     applyDecayWildcards,
		ActionApocalypseReset:    applyApocalypseReset,
		ActionStartTimer:         applyTimerRunning(true),
		ActionStopTimer:          applyTimerRunning(false),
		ActionUpdateTimer:        applyUpdateTimer,
		ActionResetGame:          applyResetGame,
		ActionRestoreState:       applyRestoreState,
	}
}

// Apply 计算动作作用后的新状态
//
// 输入状态不会被修改。未知动作、前置条件不满足或载荷错误时原样返回输入。
func (e *Engine) Apply(state *GameState, action Action) *GameState {
	if state == nil {
		state = NewGameState()
	}

	transition, ok := e.transitions[action.Type]
	if !ok {
		e.logger.Debug("忽略未知动作", zap.String("action", string(action.Type)))
		return state
	}

	return transition(e, state, action)
}

// event 生成带时间戳的历史事件
func (e *Engine) event(t EventType, payload EventPayload) HistoryEvent {
	return HistoryEvent{Type: t, Payload: payload, Timestamp: e.now().UnixMilli()}
}

func applyStartGame(e *Engine, s *GameState, a Action) *GameState {
	p, ok := payloadAs[StartGamePayload](a)
	if !ok {
		return s
	}

	next := s.Clone()
	next.GameStarted = true
	next.Teams = cloneTeams(p.Teams)
	next.Scores = make(ScoreBoard, len(p.Teams))
	next.DrinkingPenalties = make(map[string]int, len(p.Teams))
	for _, t := range p.Teams {
		next.Scores[t.ID] = PhaseScores{}
		next.DrinkingPenalties[t.ID] = 0
	}

	next.CardsRemaining = emptyDecks()
	for cat, cards := range p.Cards {
		next.CardsRemaining[cat] = append([]Card{}, cards...)
	}

	return next
}

func applyDrawCard(e *Engine, s *GameState, a Action) *GameState {
	// 同一时间只允许一张牌在途
	if s.CurrentCard != nil {
		return s
	}

	category, ok := CategoryForPhase(s.CurrentPhase)
	if !ok {
		return s
	}

	card, remaining, err := Draw(s.CardsRemaining[category], e.rng)
	if err != nil {
		e.logger.Debug("牌堆已空，忽略抽牌", zap.String("category", string(category)))
		return s
	}

	next := s.Clone()
	next.CurrentCard = &card
	next.CardsRemaining[category] = remaining

	payload := EventPayload{Card: &card}
	if team, ok := s.CurrentTeam(); ok {
		payload.Team = &team
	}
	next.GameHistory = append(next.GameHistory, e.event(EventCardDrawn, payload))

	return next
}

func applyCompleteCard(e *Engine, s *GameState, a Action) *GameState {
	if s.CurrentCard == nil {
		return s
	}
	team, ok := s.CurrentTeam()
	if !ok {
		return s
	}
	p, _ := payloadAs[CompleteCardPayload](a)

	next := s.Clone()
	if p.Success {
		scores := next.Scores[team.ID]
		score := scores.Get(s.CurrentPhase) + 1
		// 分数不超过本阶段胜利条件
		if def, ok := e.rules.Phase(s.CurrentPhase); ok && score > def.WinCondition {
			score = def.WinCondition
		}
		next.Scores[team.ID] = scores.With(s.CurrentPhase, score)
	}

	card := *s.CurrentCard
	next.CurrentCard = nil
	next.CurrentTeamIndex = (s.CurrentTeamIndex + 1) % len(s.Teams)

	success := p.Success
	next.GameHistory = append(next.GameHistory, e.event(EventCardCompleted, EventPayload{
		Card:    &card,
		Team:    &team,
		Success: &success,
	}))

	return next
}

func applyAdvancePhase(e *Engine, s *GameState, a Action) *GameState {
	next := s.Clone()
	next.CurrentPhase = s.CurrentPhase + 1
	next.CurrentTeamIndex = 0
	next.GameHistory = append(next.GameHistory, e.event(EventPhaseAdvanced, EventPayload{NewPhase: next.CurrentPhase}))
	return next
}

func applyUnlockHorror(e *Engine, s *GameState, a Action) *GameState {
	next := s.Clone()
	next.HorrorUnlocked = true
	next.GameHistory = append(next.GameHistory, e.event(EventHorrorUnlocked, EventPayload{}))
	return next
}

func applySetShameHat(e *Engine, s *GameState, a Action) *GameState {
	p, ok := payloadAs[TeamPayload](a)
	if !ok || p.TeamID == "" {
		return s
	}

	next := s.Clone()
	next.ShameHatHolder = p.TeamID
	next.GameHistory = append(next.GameHistory, e.event(EventShameHatAssigned, EventPayload{TeamID: p.TeamID}))
	return next
}

func applyDrinkingPenalty(e *Engine, s *GameState, a Action) *GameState {
	p, ok := payloadAs[DrinkingPenaltyPayload](a)
	if !ok || p.Count == 0 {
		return s
	}
	if _, known := s.DrinkingPenalties[p.TeamID]; !known {
		return s
	}

	next := s.Clone()
	next.DrinkingPenalties[p.TeamID] += p.Count
	return next
}

func applySetWinner(e *Engine, s *GameState, a Action) *GameState {
	p, ok := payloadAs[TeamPayload](a)
	if !ok || p.TeamID == "" {
		return s
	}

	next := s.Clone()
	next.GameWinner = p.TeamID
	next.GameHistory = append(next.GameHistory, e.event(EventGameWon, EventPayload{Winner: p.TeamID}))
	return next
}

func applyAddAchievement(e *Engine, s *GameState, a Action) *GameState {
	achievement, ok := payloadAs[Achievement](a)
	if !ok || achievement.Name == "" || s.HasAchievement(achievement.Name) {
		return s
	}

	next := s.Clone()
	next.Achievements = append(next.Achievements, achievement)
	return next
}

func applyWildcard(e *Engine, s *GameState, a Action) *GameState {
	effect, ok := payloadAs[WildcardEffect](a)
	if !ok || !effect.Type.Valid() || effect.CardsRemaining < 0 {
		return s
	}
	if effect.CardsRemaining == 0 {
		effect.CardsRemaining = effect.Duration
	}

	next := s.Clone()
	next.WildcardEffects = append(next.WildcardEffects, effect)
	next.GameHistory = append(next.GameHistory, e.event(EventWildcardApplied, EventPayload{Effect: &effect}))
	return next
}

func applyDecayWildcards(e *Engine, s *GameState, a Action) *GameState {
	if len(s.WildcardEffects) == 0 {
		return s
	}

	next := s.Clone()
	next.WildcardEffects = UpdateWildcardEffects(s.WildcardEffects)
	return next
}

func applyApocalypseReset(e *Engine, s *GameState, a Action) *GameState {
	next := s.Clone()
	next.CurrentPhase = 1
	next.CurrentTeamIndex = 0
	for id := range next.Scores {
		next.Scores[id] = PhaseScores{}
	}
	next.ShameHatHolder = ""
	next.GameHistory = append(next.GameHistory, e.event(EventApocalypseReset, EventPayload{}))
	return next
}

func applyTimerRunning(running bool) transitionFunc {
	return func(e *Engine, s *GameState, a Action) *GameState {
		if s.IsTimerRunning == running {
			return s
		}
		next := s.Clone()
		next.IsTimerRunning = running
		return next
	}
}

func applyUpdateTimer(e *Engine, s *GameState, a Action) *GameState {
	seconds, ok := payloadAs[int](a)
	if !ok || seconds < 0 || seconds == s.GameTimer {
		return s
	}

	next := s.Clone()
	next.GameTimer = seconds
	return next
}

func applyResetGame(e *Engine, s *GameState, a Action) *GameState {
	return NewGameState()
}
