package game

import "sort"

// TeamStanding 队伍排名信息
type TeamStanding struct {
	Team      Team        `json:"team"`
	Scores    PhaseScores `json:"scores"`
	Total     int         `json:"total"`
	Penalties int         `json:"penalties"`
}

// Summary 游戏概况
type Summary struct {
	Started            bool             `json:"started"`
	Phase              int              `json:"phase"`
	PhaseName          string           `json:"phaseName"`
	CurrentTeam        string           `json:"currentTeam,omitempty"`
	Duration           int              `json:"duration"`
	CardsPlayed        int              `json:"cardsPlayed"`
	WildcardsTriggered int              `json:"wildcardsTriggered"`
	PhasesCompleted    int              `json:"phasesCompleted"`
	HorrorUnlocked     bool             `json:"horrorUnlocked"`
	HorrorAvailable    bool             `json:"horrorAvailable"`
	AchievementCount   int              `json:"achievements"`
	CardsLeft          map[Category]int `json:"cardsLeft"`
	Standings          []TeamStanding   `json:"finalScores"`
	ShameHatHolder     string           `json:"shameHatHolder,omitempty"`
	Winner             string           `json:"winner,omitempty"`
	ActiveEffects      []WildcardEffect `json:"activeEffects"`
}

// RankTeams 按总分降序排列队伍，分数相同保持原顺序
func RankTeams(state *GameState) []TeamStanding {
	standings := make([]TeamStanding, 0, len(state.Teams))
	for _, t := range state.Teams {
		scores := state.Scores[t.ID]
		standings = append(standings, TeamStanding{
			Team:      t,
			Scores:    scores,
			Total:     scores.Total(),
			Penalties: state.DrinkingPenalties[t.ID],
		})
	}
	sort.SliceStable(standings, func(i, j int) bool {
		return standings[i].Total > standings[j].Total
	})
	return standings
}

// Summarize 生成游戏概况
func Summarize(state *GameState, rules Rules) Summary {
	s := Summary{
		Started:            state.GameStarted,
		Phase:              state.CurrentPhase,
		Duration:           state.GameTimer,
		CardsPlayed:        countEvents(state.GameHistory, EventCardDrawn),
		WildcardsTriggered: countEvents(state.GameHistory, EventWildcardApplied),
		PhasesCompleted:    countEvents(state.GameHistory, EventPhaseAdvanced),
		HorrorUnlocked:     state.HorrorUnlocked,
		HorrorAvailable:    CanOfferHorrorUnlock(state) && HorrorUnlockEligible(state),
		AchievementCount:   len(state.Achievements),
		CardsLeft:          make(map[Category]int, len(Categories)),
		Standings:          RankTeams(state),
		ShameHatHolder:     state.ShameHatHolder,
		Winner:             state.GameWinner,
		ActiveEffects:      append([]WildcardEffect{}, state.WildcardEffects...),
	}
	if def, ok := rules.Phase(state.CurrentPhase); ok {
		s.PhaseName = def.Name
	}
	if team, ok := state.CurrentTeam(); ok {
		s.CurrentTeam = team.Name
	}
	for _, c := range Categories {
		s.CardsLeft[c] = len(state.CardsRemaining[c])
	}
	return s
}

// RecentHistory 最近 n 条历史事件，新的在前
func RecentHistory(state *GameState, n int) []HistoryEvent {
	if n <= 0 {
		return []HistoryEvent{}
	}
	if n > len(state.GameHistory) {
		n = len(state.GameHistory)
	}
	out := make([]HistoryEvent, 0, n)
	for i := len(state.GameHistory) - 1; i >= len(state.GameHistory)-n; i-- {
		out = append(out, state.GameHistory[i])
	}
	return out
}

// countEvents 统计指定类型的历史事件数量
func countEvents(history []HistoryEvent, t EventType) int {
	n := 0
	for _, ev := range history {
		if ev.Type == t {
			n++
		}
	}
	return n
}
