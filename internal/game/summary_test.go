package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankTeams(t *testing.T) {
	s := startedState(newTestEngine(), 3)
	s.Scores["team-1"] = PhaseScores{Phase1: 1}
	s.Scores["team-2"] = PhaseScores{Phase1: 3, Phase2: 1}
	s.Scores["team-3"] = PhaseScores{Phase1: 1}
	s.DrinkingPenalties["team-3"] = 2

	standings := RankTeams(s)

	require.Len(t, standings, 3)
	assert.Equal(t, "team-2", standings[0].Team.ID)
	assert.Equal(t, 4, standings[0].Total)
	// 同分保持原顺序
	assert.Equal(t, "team-1", standings[1].Team.ID)
	assert.Equal(t, "team-3", standings[2].Team.ID)
	assert.Equal(t, 2, standings[2].Penalties)
}

func TestSummarize(t *testing.T) {
	e := newTestEngine()
	s := startedState(e, 2)
	s = e.Apply(s, DrawCard())
	s = e.Apply(s, CompleteCard(true))
	s = e.Apply(s, ApplyWildcard(NewWildcardEffect(EffectReverseDrinking, 3)))
	s = e.Apply(s, AdvancePhase())
	s = e.Apply(s, UpdateTimer(95))
	s = e.Apply(s, SetShameHat("team-2"))
	s = e.Apply(s, AddAchievement(AchievementCatalog[AchievementFirstBlood]))

	sum := Summarize(s, DefaultRules())

	assert.True(t, sum.Started)
	assert.Equal(t, 2, sum.Phase)
	assert.Equal(t, "BODY", sum.PhaseName)
	assert.Equal(t, "Paddy's", sum.CurrentTeam)
	assert.Equal(t, 95, sum.Duration)
	assert.Equal(t, 1, sum.CardsPlayed)
	assert.Equal(t, 1, sum.WildcardsTriggered)
	assert.Equal(t, 1, sum.PhasesCompleted)
	assert.Equal(t, 1, sum.AchievementCount)
	assert.Equal(t, 9, sum.CardsLeft[CategoryMind])
	assert.Equal(t, 10, sum.CardsLeft[CategoryHorror])
	assert.Equal(t, "team-2", sum.ShameHatHolder)
	assert.False(t, sum.HorrorAvailable)
	require.Len(t, sum.ActiveEffects, 1)
	require.Len(t, sum.Standings, 2)
	assert.Equal(t, "team-1", sum.Standings[0].Team.ID)
}

func TestSummarize_InitialState(t *testing.T) {
	sum := Summarize(NewGameState(), DefaultRules())

	assert.False(t, sum.Started)
	assert.Equal(t, "MIND", sum.PhaseName)
	assert.Empty(t, sum.CurrentTeam)
	assert.Empty(t, sum.Standings)
	assert.NotNil(t, sum.ActiveEffects)
}

func TestRecentHistory(t *testing.T) {
	s := NewGameState()
	for _, typ := range []EventType{EventCardDrawn, EventCardCompleted, EventPhaseAdvanced} {
		s.GameHistory = append(s.GameHistory, HistoryEvent{Type: typ})
	}

	recent := RecentHistory(s, 2)
	require.Len(t, recent, 2)
	assert.Equal(t, EventPhaseAdvanced, recent[0].Type)
	assert.Equal(t, EventCardCompleted, recent[1].Type)

	assert.Len(t, RecentHistory(s, 10), 3)
	assert.Empty(t, RecentHistory(s, 0))
}
