package game

// enduranceSeconds 超过该时长获得 Endurance Test
const enduranceSeconds = 7200

// chaosAgentWildcards 抽到该数量的万能牌获得 Chaos Agent
const chaosAgentWildcards = 3

// EvaluateAchievements 根据已提交的状态和刚处理的动作计算新获得的成就
//
// 已获得的成就不会重复返回。调用方负责为每条结果派发 add_achievement。
func EvaluateAchievements(state *GameState, action Action) []Achievement {
	var earned []Achievement
	award := func(name string) {
		if state.HasAchievement(name) {
			return
		}
		for _, a := range earned {
			if a.Name == name {
				return
			}
		}
		earned = append(earned, AchievementCatalog[name])
	}

	if action.Type == ActionSetShameHat {
		award(AchievementFirstBlood)
	}

	if countWildcardDraws(state.GameHistory) >= chaosAgentWildcards {
		award(AchievementChaosAgent)
	}

	if action.Type == ActionSetWinner && state.GameWinner != "" && !everWoreShameHat(state, state.GameWinner) {
		award(AchievementSurvivor)
	}

	if state.GameTimer > enduranceSeconds {
		award(AchievementEnduranceTest)
	}

	return earned
}

func countWildcardDraws(history []HistoryEvent) int {
	n := 0
	for _, ev := range history {
		if ev.Type == EventCardDrawn && ev.Payload.Card != nil && ev.Payload.Card.IsWildcard {
			n++
		}
	}
	return n
}

// everWoreShameHat 队伍是否曾经持有羞耻帽
func everWoreShameHat(state *GameState, teamID string) bool {
	if state.ShameHatHolder == teamID {
		return true
	}
	for _, ev := range state.GameHistory {
		if ev.Type == EventShameHatAssigned && ev.Payload.TeamID == teamID {
			return true
		}
	}
	return false
}
