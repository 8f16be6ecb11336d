package game

import (
	"fmt"
	"time"
)

// sequenceRNG 按顺序返回预设值，用完后总是返回 min
type sequenceRNG struct {
	values []int
}

func (r *sequenceRNG) NextInt(min, max int) int {
	if len(r.values) == 0 {
		return min
	}
	v := r.values[0]
	r.values = r.values[1:]
	if v < min || v >= max {
		return min
	}
	return v
}

var testNow = time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC)

func newTestEngine() *Engine {
	return NewEngine(DefaultRules(), &sequenceRNG{}, nil).WithClock(func() time.Time { return testNow })
}

func testTeams(n int) []Team {
	names := []string{"Paddy's", "The Gang", "Frank's Fluids", "Wolf Cola"}
	teams := make([]Team, n)
	for i := range teams {
		teams[i] = Team{
			ID:      fmt.Sprintf("team-%d", i+1),
			Name:    names[i%len(names)],
			Players: []string{fmt.Sprintf("player-%d", i+1)},
		}
	}
	return teams
}

func normalCards(category Category, n int) []Card {
	cards := make([]Card, n)
	for i := range cards {
		cards[i] = Card{
			ID:         fmt.Sprintf("%s-%03d", category, i+1),
			Category:   "Test",
			Title:      fmt.Sprintf("%s card %d", category, i+1),
			Challenge:  "Do the thing",
			Difficulty: DifficultyEasy,
			Phase:      category,
		}
	}
	return cards
}

func wildcard(category Category, effect EffectType, duration int) Card {
	return Card{
		ID:             fmt.Sprintf("%s-wc-%s", category, effect),
		Category:       "Wildcard",
		Title:          "Wildcard, Bitches!",
		Difficulty:     DifficultySpecial,
		IsWildcard:     true,
		Phase:          category,
		Effect:         effect,
		EffectDuration: duration,
	}
}

// testDecks 每个类别 n 张普通牌
func testDecks(n int) map[Category][]Card {
	decks := make(map[Category][]Card, len(Categories))
	for _, c := range Categories {
		decks[c] = normalCards(c, n)
	}
	return decks
}

// startedState 已开局的状态
func startedState(e *Engine, teams int) *GameState {
	return e.Apply(NewGameState(), StartGame(testTeams(teams), testDecks(10)))
}

// withCurrentCard 设置在途卡牌
func withCurrentCard(s *GameState, card Card) *GameState {
	next := s.Clone()
	next.CurrentCard = &card
	return next
}
