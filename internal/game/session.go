package game

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/wfunc/party-game/internal/errors"
	"go.uber.org/zap"
)

// Observer 状态提交后的订阅者
//
// 在会话锁内同步调用，不能再调用 Session 的方法。
type Observer func(prev, next *GameState, action Action)

// SessionOptions 会话参数
type SessionOptions struct {
	Key          string
	TickInterval time.Duration
	MaxTeams     int
}

// Session 游戏会话：持有唯一的状态和引擎，串行处理所有动作
type Session struct {
	mu        sync.Mutex
	key       string
	engine    *Engine
	state     *GameState
	logger    *zap.Logger
	persister StatePersister
	recorder  ResultRecorder
	observers []Observer

	tickInterval time.Duration
	maxTeams     int
	loadDecks    func() (map[Category][]Card, error)

	// 计时器
	tickCancel context.CancelFunc
	tickWG     sync.WaitGroup
	closed     bool
}

// NewSession 创建会话，初始为原始状态
func NewSession(opts SessionOptions, engine *Engine, persister StatePersister, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	if opts.MaxTeams < minTeams {
		opts.MaxTeams = 6
	}
	return &Session{
		key:          opts.Key,
		engine:       engine,
		state:        NewGameState(),
		logger:       logger,
		persister:    persister,
		tickInterval: opts.TickInterval,
		maxTeams:     opts.MaxTeams,
		loadDecks:    LoadDefaultDecks,
	}
}

// WithRecorder 设置游戏结果记录器
func (s *Session) WithRecorder(r ResultRecorder) *Session {
	s.recorder = r
	return s
}

// WithDeckSource 设置开局时的牌堆来源
func (s *Session) WithDeckSource(fn func() (map[Category][]Card, error)) *Session {
	s.loadDecks = fn
	return s
}

// Key 会话键
func (s *Session) Key() string {
	return s.key
}

// Rules 会话使用的规则
func (s *Session) Rules() Rules {
	return s.engine.Rules()
}

// State 当前已提交的状态（只读）
func (s *Session) State() *GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe 注册状态变更订阅者
func (s *Session) Subscribe(fn Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// NewRoster 按会话的队伍上限创建队伍编辑器
func (s *Session) NewRoster() *Roster {
	return NewRoster(s.maxTeams)
}

// Dispatch 处理单个动作并返回提交后的状态
func (s *Session) Dispatch(ctx context.Context, action Action) *GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dispatchLocked(ctx, action)
}

func (s *Session) dispatchLocked(ctx context.Context, action Action) *GameState {
	prev := s.state
	next := s.engine.Apply(prev, action)
	if next == prev {
		return prev
	}

	s.commitLocked(ctx, prev, next, action)

	if action.Type == ActionRestoreState || action.Type == ActionAddAchievement {
		return s.state
	}

	for _, achievement := range EvaluateAchievements(s.state, action) {
		s.dispatchLocked(ctx, AddAchievement(achievement))
	}

	if action.Type == ActionSetWinner {
		s.recordResultLocked(ctx)
	}

	return s.state
}

// commitLocked 提交新状态并依次通知计时器、持久化和订阅者
func (s *Session) commitLocked(ctx context.Context, prev, next *GameState, action Action) {
	s.state = next

	if action.Type != ActionUpdateTimer {
		s.logger.Debug("状态提交",
			zap.String("session_key", s.key),
			zap.String("action", string(action.Type)),
			zap.Int("phase", next.CurrentPhase))
	}

	if action.Type != ActionRestoreState && len(next.GameHistory) > len(prev.GameHistory) {
		for _, ev := range next.GameHistory[len(prev.GameHistory):] {
			s.logger.Info("游戏事件",
				zap.String("session_key", s.key),
				zap.String("event", string(ev.Type)),
				zap.Int("phase", next.CurrentPhase))
		}
	}

	s.syncTimerLocked()
	s.persistLocked(ctx)

	for _, fn := range s.observers {
		fn(prev, next, action)
	}
}

// persistLocked 将完整状态写入存储，失败只记录日志
func (s *Session) persistLocked(ctx context.Context) {
	if s.persister == nil {
		return
	}
	data, err := json.Marshal(s.state)
	if err != nil {
		s.logger.Error("序列化状态失败", zap.String("session_key", s.key), zap.Error(err))
		return
	}
	if err := s.persister.Save(ctx, s.key, data); err != nil {
		s.logger.Error("持久化状态失败", zap.String("session_key", s.key), zap.Error(err))
	}
}

func (s *Session) recordResultLocked(ctx context.Context) {
	if s.recorder == nil || s.state.GameWinner == "" {
		return
	}
	summary := Summarize(s.state, s.engine.Rules())
	if err := s.recorder.Record(ctx, s.key, s.state, summary); err != nil {
		s.logger.Error("记录游戏结果失败", zap.String("session_key", s.key), zap.Error(err))
		return
	}
	s.logger.Info("游戏结束",
		zap.String("session_key", s.key),
		zap.String("winner", s.state.GameWinner),
		zap.Int("duration", s.state.GameTimer))
}

// ResolveCard 结算当前卡牌：衰减效果、计分、应用万能牌，再判断阶段走向
func (s *Session) ResolveCard(ctx context.Context, success bool) *GameState {
	s.mu.Lock()
	defer s.mu.Unlock()

	card := s.state.CurrentCard
	team, ok := s.state.CurrentTeam()
	if card == nil || !ok {
		return s.state
	}
	drawn := *card

	s.dispatchLocked(ctx, DecayWildcards())
	s.dispatchLocked(ctx, CompleteCard(success))

	if !success {
		return s.state
	}

	if drawn.IsWildcard {
		s.applyCardEffectLocked(ctx, drawn)
	}

	if s.state.GameWinner != "" {
		return s.state
	}
	switch Decide(s.state, team.ID, s.engine.Rules()) {
	case OutcomeWin:
		s.dispatchLocked(ctx, SetWinner(team.ID))
	case OutcomeAdvance:
		s.dispatchLocked(ctx, AdvancePhase())
	}
	return s.state
}

func (s *Session) applyCardEffectLocked(ctx context.Context, card Card) {
	if card.Effect == EffectApocalypseReset {
		s.dispatchLocked(ctx, ApocalypseReset())
		return
	}
	effect, ok := EffectForCard(card, s.engine.Rules())
	if !ok {
		s.logger.Warn("万能牌缺少效果", zap.String("card", card.ID))
		return
	}
	s.dispatchLocked(ctx, ApplyWildcard(effect))
}

// PenalizeTeam 按当前效果处理喝酒惩罚
//
// 数量必须为正；当前阶段类别被免疫时忽略；反转生效时改为减少惩罚，最低为 0。
func (s *Session) PenalizeTeam(ctx context.Context, teamID string, count int) *GameState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.state
	if count <= 0 {
		s.logger.Warn("忽略非正数的惩罚", zap.String("team", teamID), zap.Int("count", count))
		return state
	}
	if category, ok := CategoryForPhase(state.CurrentPhase); ok && IsTeamImmune(state.WildcardEffects, category) {
		s.logger.Debug("队伍免疫，忽略惩罚", zap.String("team", teamID), zap.String("category", string(category)))
		return state
	}

	if ShouldReverseDrinking(state.WildcardEffects) {
		current := state.DrinkingPenalties[teamID]
		if count > current {
			count = current
		}
		count = -count
	}

	return s.dispatchLocked(ctx, AddDrinkingPenalty(teamID, count))
}

// ResetTimer 停止计时并归零
func (s *Session) ResetTimer(ctx context.Context) *GameState {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dispatchLocked(ctx, StopTimer())
	return s.dispatchLocked(ctx, UpdateTimer(0))
}

// Replay 回放存档动作，全部应用后只持久化一次
func (s *Session) Replay(ctx context.Context, actions []Action) *GameState {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.state
	next := prev
	for _, a := range actions {
		next = s.engine.Apply(next, a)
	}
	if next == prev {
		return prev
	}
	s.commitLocked(ctx, prev, next, Action{Type: ActionRestoreState})
	return s.state
}

// Handle 处理来自外部的动作，执行开局校验和宿主层的前置条件
func (s *Session) Handle(ctx context.Context, action Action) (*GameState, error) {
	switch action.Type {
	case ActionStartGame:
		return s.startGame(ctx, action)
	case ActionDrawCard, ActionCompleteCard, ActionAdvancePhase, ActionAddDrinkingPenalty,
		ActionSetShameHat, ActionApplyWildcard, ActionStartTimer:
		if !s.State().GameStarted {
			return s.State(), errors.New(errors.ErrGameNotStarted)
		}
	case ActionUnlockHorror:
		if !CanOfferHorrorUnlock(s.State()) {
			return s.State(), errors.New(errors.ErrInvalidAction, "当前阶段不能解锁恐怖阶段")
		}
	case ActionRestoreState:
		return s.State(), errors.New(errors.ErrInvalidAction, "restore_state 只用于存档回放")
	}

	switch action.Type {
	case ActionCompleteCard:
		p, _ := payloadAs[CompleteCardPayload](action)
		return s.ResolveCard(ctx, p.Success), nil
	case ActionAddDrinkingPenalty:
		p, _ := payloadAs[DrinkingPenaltyPayload](action)
		if p.Count <= 0 {
			return s.State(), errors.Newf(errors.ErrInvalidAction, "惩罚数量必须为正: %d", p.Count)
		}
		return s.PenalizeTeam(ctx, p.TeamID, p.Count), nil
	}
	return s.Dispatch(ctx, action), nil
}

func (s *Session) startGame(ctx context.Context, action Action) (*GameState, error) {
	p, _ := payloadAs[StartGamePayload](action)

	current := s.State()
	if current.GameStarted && current.GameWinner == "" {
		return current, errors.New(errors.ErrGameAlreadyStarted)
	}

	teams, err := ValidateTeams(p.Teams)
	if err != nil {
		return current, err
	}
	if len(teams) > s.maxTeams {
		return current, errors.Newf(errors.ErrTeamLimit, "最多 %d 支队伍", s.maxTeams)
	}

	decks := p.Cards
	if len(decks) == 0 {
		if decks, err = s.loadDecks(); err != nil {
			return current, err
		}
	}
	decks = ShuffleDecks(decks, s.engine.RNG())

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.GameStarted && s.state.GameWinner == "" {
		return s.state, errors.New(errors.ErrGameAlreadyStarted)
	}
	if s.state.GameStarted {
		s.dispatchLocked(ctx, ResetGame())
	}
	return s.dispatchLocked(ctx, StartGame(teams, decks)), nil
}

// syncTimerLocked 根据 isTimerRunning 启停计时协程
func (s *Session) syncTimerLocked() {
	running := s.state.IsTimerRunning
	switch {
	case running && s.tickCancel == nil && !s.closed:
		ctx, cancel := context.WithCancel(context.Background())
		s.tickCancel = cancel
		s.tickWG.Add(1)
		go s.tickLoop(ctx)
	case !running && s.tickCancel != nil:
		s.tickCancel()
		s.tickCancel = nil
	}
}

func (s *Session) tickLoop(ctx context.Context) {
	defer s.tickWG.Done()

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Session) tick(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// 停止后不再修改状态
	if ctx.Err() != nil || !s.state.IsTimerRunning {
		return
	}
	s.dispatchLocked(context.Background(), UpdateTimer(s.state.GameTimer+1))
}

// Close 停止计时器并等待计时协程退出
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	if s.tickCancel != nil {
		s.tickCancel()
		s.tickCancel = nil
	}
	s.mu.Unlock()

	s.tickWG.Wait()
}
