package game

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/party-game/internal/errors"
)

type recordingRecorder struct {
	mu        sync.Mutex
	keys      []string
	winners   []string
	summaries []Summary
}

func (r *recordingRecorder) Record(ctx context.Context, key string, state *GameState, summary Summary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, key)
	r.winners = append(r.winners, state.GameWinner)
	r.summaries = append(r.summaries, summary)
	return nil
}

func newTestSession(t *testing.T, persister StatePersister) *Session {
	t.Helper()
	s := NewSession(SessionOptions{Key: "test-session", TickInterval: 10 * time.Millisecond, MaxTeams: 3}, newTestEngine(), persister, nil)
	t.Cleanup(s.Close)
	return s
}

// playCard 当前队伍抽牌并结算
func playCard(ctx context.Context, s *Session, success bool) *GameState {
	s.Dispatch(ctx, DrawCard())
	return s.ResolveCard(ctx, success)
}

func TestSession_FullGame(t *testing.T) {
	ctx := context.Background()
	recorder := &recordingRecorder{}
	s := newTestSession(t, nil).WithRecorder(recorder)

	_, err := s.Handle(ctx, StartGame(testTeams(2), testDecks(10)))
	require.NoError(t, err)

	// team-1 每次成功，team-2 每次失败
	for phase := 1; phase <= 3; phase++ {
		require.Equal(t, phase, s.State().CurrentPhase)
		for i := 0; i < 3; i++ {
			playCard(ctx, s, true)
			if i < 2 {
				playCard(ctx, s, false)
			}
		}
	}

	final := s.State()
	assert.Equal(t, "team-1", final.GameWinner)
	assert.Equal(t, 3, final.CurrentPhase)
	assert.Equal(t, PhaseScores{Phase1: 3, Phase2: 3, Phase3: 3}, final.Scores["team-1"])
	assert.Equal(t, PhaseScores{}, final.Scores["team-2"])
	assert.True(t, final.HasAchievement(AchievementSurvivor))
	assert.Equal(t, 2, countEvents(final.GameHistory, EventPhaseAdvanced))
	assert.Equal(t, 1, countEvents(final.GameHistory, EventGameWon))

	require.Len(t, recorder.keys, 1)
	assert.Equal(t, "test-session", recorder.keys[0])
	assert.Equal(t, "team-1", recorder.winners[0])
	assert.Equal(t, 15, recorder.summaries[0].CardsPlayed)
	assert.Equal(t, 1, recorder.summaries[0].AchievementCount)

	// 胜者产生后不再有阶段推进或第二个胜者
	playCard(ctx, s, true)
	playCard(ctx, s, false)
	playCard(ctx, s, true)
	assert.Equal(t, 1, countEvents(s.State().GameHistory, EventGameWon))
	assert.Equal(t, 3, s.State().CurrentPhase)
	assert.Len(t, recorder.keys, 1)
}

func TestSession_HorrorExtendsGame(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t, nil)

	s.Dispatch(ctx, StartGame(testTeams(2), testDecks(10)))
	s.Dispatch(ctx, AdvancePhase())
	s.Dispatch(ctx, AdvancePhase())
	_, err := s.Handle(ctx, UnlockHorror())
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		playCard(ctx, s, true)
		if i < 2 {
			playCard(ctx, s, false)
		}
	}
	require.Equal(t, 4, s.State().CurrentPhase)
	require.Equal(t, 0, s.State().CurrentTeamIndex)
	assert.Empty(t, s.State().GameWinner)

	playCard(ctx, s, true)
	playCard(ctx, s, false)
	playCard(ctx, s, true)

	assert.Equal(t, "team-1", s.State().GameWinner)
	assert.Equal(t, 2, s.State().Scores["team-1"].Phase4)
}

func TestSession_WildcardLifetime(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t, nil)

	decks := testDecks(10)
	decks[CategoryMind] = append([]Card{wildcard(CategoryMind, EffectReverseDrinking, 3)}, decks[CategoryMind]...)
	s.Dispatch(ctx, StartGame(testTeams(2), decks))

	state := playCard(ctx, s, true)
	require.Len(t, state.WildcardEffects, 1)
	assert.Equal(t, 3, state.WildcardEffects[0].CardsRemaining)
	assert.Equal(t, 1, countEvents(state.GameHistory, EventWildcardApplied))

	state = playCard(ctx, s, false)
	require.Len(t, state.WildcardEffects, 1)
	state = playCard(ctx, s, false)
	require.Len(t, state.WildcardEffects, 1)
	assert.Equal(t, 1, state.WildcardEffects[0].CardsRemaining)

	assert.True(t, ShouldReverseDrinking(state.WildcardEffects))

	state = playCard(ctx, s, false)
	assert.Empty(t, state.WildcardEffects)
	assert.False(t, ShouldReverseDrinking(state.WildcardEffects))
}

func TestSession_FirstPhaseAdvance(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t, nil)
	s.Dispatch(ctx, StartGame(testTeams(2), testDecks(10)))

	playCard(ctx, s, true)
	playCard(ctx, s, false)
	playCard(ctx, s, true)
	playCard(ctx, s, false)
	state := playCard(ctx, s, true)

	assert.Equal(t, 3, state.Scores["team-1"].Phase1)
	assert.Equal(t, 2, state.CurrentPhase)
	assert.Equal(t, 0, state.CurrentTeamIndex)
	assert.Empty(t, state.GameWinner)
	assert.Equal(t, EventPhaseAdvanced, state.GameHistory[len(state.GameHistory)-1].Type)
}

func TestSession_FailedWildcardHasNoEffect(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t, nil)

	decks := testDecks(5)
	decks[CategoryMind] = append([]Card{wildcard(CategoryMind, EffectNuclearOption, 1)}, decks[CategoryMind]...)
	s.Dispatch(ctx, StartGame(testTeams(2), decks))

	state := playCard(ctx, s, false)
	assert.Empty(t, state.WildcardEffects)
}

func TestSession_ApocalypseReset(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t, nil)

	decks := testDecks(5)
	decks[CategoryBody] = append([]Card{wildcard(CategoryBody, EffectApocalypseReset, 0)}, decks[CategoryBody]...)
	s.Dispatch(ctx, StartGame(testTeams(2), decks))
	s.Dispatch(ctx, SetShameHat("team-2"))
	s.Dispatch(ctx, AdvancePhase())

	state := playCard(ctx, s, true)

	assert.Equal(t, 1, state.CurrentPhase)
	assert.Equal(t, 0, state.CurrentTeamIndex)
	assert.Equal(t, PhaseScores{}, state.Scores["team-1"])
	assert.Empty(t, state.ShameHatHolder)
	assert.Empty(t, state.WildcardEffects)
	assert.Equal(t, 1, countEvents(state.GameHistory, EventApocalypseReset))
}

func TestSession_PenaltyReversal(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t, nil)
	s.Dispatch(ctx, StartGame(testTeams(2), testDecks(5)))

	s.PenalizeTeam(ctx, "team-1", 2)
	s.Dispatch(ctx, ApplyWildcard(NewWildcardEffect(EffectReverseDrinking, 3)))

	state := s.PenalizeTeam(ctx, "team-1", 1)
	assert.Equal(t, 1, state.DrinkingPenalties["team-1"])

	state = s.PenalizeTeam(ctx, "team-1", 5)
	assert.Equal(t, 0, state.DrinkingPenalties["team-1"], "反转后不会低于 0")

	state = s.PenalizeTeam(ctx, "team-2", 1)
	assert.Equal(t, 0, state.DrinkingPenalties["team-2"])
}

func TestSession_PenaltyRejectsNonPositiveCount(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t, nil)
	s.Dispatch(ctx, StartGame(testTeams(2), testDecks(5)))

	s.PenalizeTeam(ctx, "team-1", 2)
	s.Dispatch(ctx, ApplyWildcard(NewWildcardEffect(EffectReverseDrinking, 3)))

	state := s.PenalizeTeam(ctx, "team-2", -4)
	assert.Equal(t, 0, state.DrinkingPenalties["team-2"], "反转时负数不会变成加罚")

	state, err := s.Handle(ctx, AddDrinkingPenalty("team-1", -4))
	assert.True(t, errors.Is(err, errors.ErrInvalidAction))
	assert.Equal(t, 2, state.DrinkingPenalties["team-1"])

	_, err = s.Handle(ctx, AddDrinkingPenalty("team-1", 0))
	assert.True(t, errors.Is(err, errors.ErrInvalidAction))

	s.Dispatch(ctx, DecayWildcards())
	s.Dispatch(ctx, DecayWildcards())
	s.Dispatch(ctx, DecayWildcards())
	require.Empty(t, s.State().WildcardEffects)

	state = s.PenalizeTeam(ctx, "team-1", -4)
	assert.Equal(t, 2, state.DrinkingPenalties["team-1"], "负数不会把惩罚减到 0 以下")
}

func TestSession_PenaltyImmunity(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t, nil)
	s.Dispatch(ctx, StartGame(testTeams(2), testDecks(5)))
	s.Dispatch(ctx, ApplyWildcard(NewWildcardEffect(EffectImmunityPhysical, 2)))

	// 第一阶段是智力挑战，身体免疫不生效
	state := s.PenalizeTeam(ctx, "team-1", 1)
	assert.Equal(t, 1, state.DrinkingPenalties["team-1"])

	s.Dispatch(ctx, AdvancePhase())
	state = s.PenalizeTeam(ctx, "team-1", 1)
	assert.Equal(t, 1, state.DrinkingPenalties["team-1"])
}

func TestSession_Timer(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t, nil)
	s.Dispatch(ctx, StartGame(testTeams(2), testDecks(1)))

	s.Dispatch(ctx, StartTimer())
	assert.Eventually(t, func() bool {
		return s.State().GameTimer >= 3
	}, 2*time.Second, 5*time.Millisecond)

	s.Dispatch(ctx, StopTimer())
	stopped := s.State().GameTimer
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, stopped, s.State().GameTimer, "停止后不再计时")

	state := s.ResetTimer(ctx)
	assert.Equal(t, 0, state.GameTimer)
	assert.False(t, state.IsTimerRunning)
}

func TestSession_CloseStopsTimer(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t, nil)
	s.Dispatch(ctx, StartTimer())

	s.Close()
	stopped := s.State().GameTimer
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, stopped, s.State().GameTimer)
}

func TestSession_PersistsEveryCommit(t *testing.T) {
	ctx := context.Background()
	persister := NewMemoryStatePersister()
	s := newTestSession(t, persister)

	_, err := persister.Load(ctx, "test-session")
	assert.True(t, errors.Is(err, errors.ErrStateNotFound))

	s.Dispatch(ctx, StartGame(testTeams(2), testDecks(3)))
	s.Dispatch(ctx, SetShameHat("team-2"))

	doc, err := persister.Load(ctx, "test-session")
	require.NoError(t, err)

	var saved GameState
	require.NoError(t, json.Unmarshal(doc.Data, &saved))
	assert.True(t, saved.GameStarted)
	assert.Equal(t, "team-2", saved.ShameHatHolder)
	assert.Len(t, saved.Teams, 2)
	assert.Len(t, saved.CardsRemaining[CategoryMind], 3)
	assert.Len(t, saved.Achievements, 1)

	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(doc.Data, &fields))
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	assert.ElementsMatch(t, []string{
		"gameStarted", "currentPhase", "teams", "currentTeamIndex", "scores", "currentCard",
		"cardsRemaining", "shameHatHolder", "drinkingPenalties", "gameTimer", "isTimerRunning",
		"horrorUnlocked", "gameWinner", "achievements", "wildcardEffects", "gameHistory",
	}, keys)
}

func TestSession_Observers(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t, nil)

	var seen []ActionType
	s.Subscribe(func(prev, next *GameState, action Action) {
		assert.NotSame(t, prev, next)
		seen = append(seen, action.Type)
	})

	s.Dispatch(ctx, StartGame(testTeams(2), testDecks(3)))
	s.Dispatch(ctx, CompleteCard(true)) // 没有在途卡牌，不产生提交
	s.Dispatch(ctx, SetShameHat("team-1"))

	assert.Equal(t, []ActionType{ActionStartGame, ActionSetShameHat, ActionAddAchievement}, seen)
}

func TestSession_Replay(t *testing.T) {
	ctx := context.Background()
	persister := NewMemoryStatePersister()
	s := newTestSession(t, persister)

	commits := 0
	s.Subscribe(func(prev, next *GameState, action Action) { commits++ })

	state := s.Replay(ctx, []Action{
		RestoreState("gameStarted", json.RawMessage(`true`)),
		RestoreState("currentPhase", json.RawMessage(`2`)),
		RestoreState("gameTimer", json.RawMessage(`300`)),
	})

	assert.Equal(t, 1, commits)
	assert.True(t, state.GameStarted)
	assert.Equal(t, 2, state.CurrentPhase)
	assert.Equal(t, 300, state.GameTimer)
	assert.False(t, state.IsTimerRunning)

	_, err := persister.Load(ctx, "test-session")
	assert.NoError(t, err)
}

func TestSession_HandleErrors(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t, nil)

	_, err := s.Handle(ctx, DrawCard())
	assert.True(t, errors.Is(err, errors.ErrGameNotStarted))

	_, err = s.Handle(ctx, UnlockHorror())
	assert.True(t, errors.Is(err, errors.ErrInvalidAction))

	_, err = s.Handle(ctx, RestoreState("gameTimer", json.RawMessage(`1`)))
	assert.True(t, errors.Is(err, errors.ErrInvalidAction))

	_, err = s.Handle(ctx, StartGame(testTeams(1), nil))
	assert.True(t, errors.Is(err, errors.ErrInvalidTeams))

	_, err = s.Handle(ctx, StartGame(testTeams(4), nil))
	assert.True(t, errors.Is(err, errors.ErrTeamLimit))

	state, err := s.Handle(ctx, StartGame(testTeams(2), nil))
	require.NoError(t, err)
	assert.NotEmpty(t, state.CardsRemaining[CategoryMind], "没有传入卡牌时加载内置牌堆")

	_, err = s.Handle(ctx, StartGame(testTeams(2), nil))
	assert.True(t, errors.Is(err, errors.ErrGameAlreadyStarted))

	_, err = s.Handle(ctx, UnlockHorror())
	assert.True(t, errors.Is(err, errors.ErrInvalidAction), "第一阶段不能解锁恐怖阶段")
}

func TestSession_HandleRoutesGameplay(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t, nil)

	_, err := s.Handle(ctx, StartGame(testTeams(2), testDecks(5)))
	require.NoError(t, err)

	_, err = s.Handle(ctx, DrawCard())
	require.NoError(t, err)
	state, err := s.Handle(ctx, CompleteCard(true))
	require.NoError(t, err)
	assert.Equal(t, 1, state.Scores["team-1"].Phase1)

	s.Dispatch(ctx, ApplyWildcard(NewWildcardEffect(EffectReverseDrinking, 2)))
	state, err = s.Handle(ctx, AddDrinkingPenalty("team-1", 1))
	require.NoError(t, err)
	assert.Equal(t, 0, state.DrinkingPenalties["team-1"])
}

func TestSession_RestartAfterWinner(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t, nil)

	s.Dispatch(ctx, StartGame(testTeams(2), testDecks(3)))
	s.Dispatch(ctx, SetShameHat("team-2"))
	s.Dispatch(ctx, SetWinner("team-1"))

	state, err := s.Handle(ctx, StartGame(testTeams(3), testDecks(3)))
	require.NoError(t, err)
	assert.Len(t, state.Teams, 3)
	assert.Empty(t, state.GameWinner)
	assert.Empty(t, state.ShameHatHolder)
	assert.Empty(t, state.Achievements)
	assert.Empty(t, state.GameHistory)
}

func TestSession_NewRoster(t *testing.T) {
	s := newTestSession(t, nil)
	r := s.NewRoster()

	_, err := r.AddTeam("")
	require.NoError(t, err)
	_, err = r.AddTeam("")
	assert.True(t, errors.Is(err, errors.ErrTeamLimit))
}
