package game

// Outcome 一张牌结算后的阶段判定结果
type Outcome int

const (
	OutcomeNone    Outcome = iota // 继续当前阶段
	OutcomeAdvance                // 进入下一阶段
	OutcomeWin                    // 游戏结束
)

// horror 解锁条件阈值
const (
	horrorPenaltyThreshold  = 5
	horrorTimerThreshold    = 3600
	horrorWildcardThreshold = 3
	horrorPhaseThreshold    = 3
	horrorRequiredSignals   = 3
)

// CheckPhaseWin 队伍在当前阶段是否达到胜利条件
func CheckPhaseWin(state *GameState, teamID string, rules Rules) bool {
	def, ok := rules.Phase(state.CurrentPhase)
	if !ok {
		return false
	}
	scores, ok := state.Scores[teamID]
	if !ok {
		return false
	}
	return scores.Get(state.CurrentPhase) >= def.WinCondition
}

// CheckGameWin 队伍是否赢得整局游戏（在最后一个阶段达到胜利条件）
func CheckGameWin(state *GameState, teamID string, rules Rules) bool {
	if state.CurrentPhase != rules.FinalPhase(state.HorrorUnlocked) {
		return false
	}
	return CheckPhaseWin(state, teamID, rules)
}

// Decide 在队伍完成卡牌后判断阶段走向
//
// 已有胜者时不再产生任何结果。
func Decide(state *GameState, teamID string, rules Rules) Outcome {
	if state.GameWinner != "" || !CheckPhaseWin(state, teamID, rules) {
		return OutcomeNone
	}
	if state.CurrentPhase >= rules.FinalPhase(state.HorrorUnlocked) {
		return OutcomeWin
	}
	return OutcomeAdvance
}

// CanOfferHorrorUnlock 是否可以提供恐怖阶段解锁
func CanOfferHorrorUnlock(state *GameState) bool {
	return !state.HorrorUnlocked && state.CurrentPhase >= horrorPhaseThreshold
}

// HorrorUnlockEligible 游戏是否已经足够混乱，满足解锁恐怖阶段的条件
func HorrorUnlockEligible(state *GameState) bool {
	signals := 0

	for _, n := range state.DrinkingPenalties {
		if n >= horrorPenaltyThreshold {
			signals++
			break
		}
	}
	if state.ShameHatHolder != "" {
		signals++
	}
	if state.GameTimer > horrorTimerThreshold {
		signals++
	}

	if countEvents(state.GameHistory, EventWildcardApplied) >= horrorWildcardThreshold {
		signals++
	}
	if state.CurrentPhase >= horrorPhaseThreshold {
		signals++
	}

	return signals >= horrorRequiredSignals
}
