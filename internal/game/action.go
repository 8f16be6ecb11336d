package game

import (
	"encoding/json"
	"strings"

	apperrors "github.com/wfunc/party-game/internal/errors"
)

// ActionType 动作类型
type ActionType string

const (
	ActionStartGame          ActionType = "start_game"
	ActionDrawCard           ActionType = "draw_card"
	ActionCompleteCard       ActionType = "complete_card"
	ActionAdvancePhase       ActionType = "advance_phase"
	ActionUnlockHorror       ActionType = "unlock_horror"
	ActionSetShameHat        ActionType = "set_shame_hat"
	ActionAddDrinkingPenalty ActionType = "add_drinking_penalty"
	ActionSetWinner          ActionType = "set_winner"
	ActionAddAchievement     ActionType = "add_achievement"
	ActionApplyWildcard      ActionType = "apply_wildcard"
	ActionDecayWildcards     ActionType = "decay_wildcards"
	ActionApocalypseReset    ActionType = "apocalypse_reset"
	ActionStartTimer         ActionType = "start_timer"
	ActionStopTimer          ActionType = "stop_timer"
	ActionUpdateTimer        ActionType = "update_timer"
	ActionResetGame          ActionType = "reset_game"
	ActionRestoreState       ActionType = "restore_state"
)

// Action 动作（类型 + 与类型对应的载荷）
type Action struct {
	Type    ActionType  `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// StartGamePayload 开始游戏载荷
type StartGamePayload struct {
	Teams []Team              `json:"teams"`
	Cards map[Category][]Card `json:"cards"`
}

// CompleteCardPayload 完成卡牌载荷
type CompleteCardPayload struct {
	Success bool `json:"success"`
}

// TeamPayload 只携带队伍ID的载荷
type TeamPayload struct {
	TeamID string `json:"teamId"`
}

// DrinkingPenaltyPayload 喝酒惩罚载荷
type DrinkingPenaltyPayload struct {
	TeamID string `json:"teamId"`
	Count  int    `json:"count"`
}

// RestoreStatePayload 恢复单个字段的载荷
type RestoreStatePayload struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// StartGame 开始游戏
func StartGame(teams []Team, cards map[Category][]Card) Action {
	return Action{Type: ActionStartGame, Payload: StartGamePayload{Teams: teams, Cards: cards}}
}

// DrawCard 抽牌
func DrawCard() Action { return Action{Type: ActionDrawCard} }

// CompleteCard 完成当前卡牌
func CompleteCard(success bool) Action {
	return Action{Type: ActionCompleteCard, Payload: CompleteCardPayload{Success: success}}
}

// AdvancePhase 进入下一阶段
func AdvancePhase() Action { return Action{Type: ActionAdvancePhase} }

// UnlockHorror 解锁恐怖阶段
func UnlockHorror() Action { return Action{Type: ActionUnlockHorror} }

// SetShameHat 指定羞耻帽持有者
func SetShameHat(teamID string) Action {
	return Action{Type: ActionSetShameHat, Payload: TeamPayload{TeamID: teamID}}
}

// AddDrinkingPenalty 增加喝酒惩罚
func AddDrinkingPenalty(teamID string, count int) Action {
	return Action{Type: ActionAddDrinkingPenalty, Payload: DrinkingPenaltyPayload{TeamID: teamID, Count: count}}
}

// SetWinner 设置胜者
func SetWinner(teamID string) Action {
	return Action{Type: ActionSetWinner, Payload: TeamPayload{TeamID: teamID}}
}

// AddAchievement 添加成就
func AddAchievement(a Achievement) Action {
	return Action{Type: ActionAddAchievement, Payload: a}
}

// ApplyWildcard 记录万能牌效果
func ApplyWildcard(effect WildcardEffect) Action {
	return Action{Type: ActionApplyWildcard, Payload: effect}
}

// DecayWildcards 所有效果剩余张数减一
func DecayWildcards() Action { return Action{Type: ActionDecayWildcards} }

// ApocalypseReset 末日重置
func ApocalypseReset() Action { return Action{Type: ActionApocalypseReset} }

// StartTimer 启动计时器
func StartTimer() Action { return Action{Type: ActionStartTimer} }

// StopTimer 停止计时器
func StopTimer() Action { return Action{Type: ActionStopTimer} }

// UpdateTimer 设置计时器秒数
func UpdateTimer(seconds int) Action {
	return Action{Type: ActionUpdateTimer, Payload: seconds}
}

// ResetGame 重置游戏
func ResetGame() Action { return Action{Type: ActionResetGame} }

// RestoreState 覆盖单个顶层字段（仅用于存档回放）
func RestoreState(key string, value json.RawMessage) Action {
	return Action{Type: ActionRestoreState, Payload: RestoreStatePayload{Key: key, Value: value}}
}

// wireAction 线上格式
type wireAction struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// DecodeAction 解析 {type, payload} 格式的动作
//
// 类型名大小写不敏感；未知类型原样保留（由引擎忽略）。
func DecodeAction(data []byte) (Action, error) {
	var w wireAction
	if err := json.Unmarshal(data, &w); err != nil {
		return Action{}, apperrors.Wrap(err, apperrors.ErrInvalidAction, "动作格式错误")
	}
	if w.Type == "" {
		return Action{}, apperrors.New(apperrors.ErrInvalidAction, "缺少动作类型")
	}

	action := Action{Type: ActionType(strings.ToLower(w.Type))}

	var err error
	switch action.Type {
	case ActionStartGame:
		action.Payload, err = decodePayload[StartGamePayload](w.Payload)
	case ActionCompleteCard:
		action.Payload, err = decodePayload[CompleteCardPayload](w.Payload)
	case ActionSetShameHat, ActionSetWinner:
		action.Payload, err = decodePayload[TeamPayload](w.Payload)
	case ActionAddDrinkingPenalty:
		action.Payload, err = decodePayload[DrinkingPenaltyPayload](w.Payload)
	case ActionAddAchievement:
		action.Payload, err = decodePayload[Achievement](w.Payload)
	case ActionApplyWildcard:
		action.Payload, err = decodePayload[WildcardEffect](w.Payload)
	case ActionUpdateTimer:
		action.Payload, err = decodePayload[int](w.Payload)
	case ActionRestoreState:
		action.Payload, err = decodePayload[RestoreStatePayload](w.Payload)
	default:
		if len(w.Payload) > 0 {
			action.Payload = w.Payload
		}
	}
	if err != nil {
		return Action{}, apperrors.Wrapf(err, apperrors.ErrInvalidAction, "动作 %s 载荷错误", action.Type)
	}

	return action, nil
}

func decodePayload[T any](raw json.RawMessage) (T, error) {
	var v T
	if len(raw) == 0 {
		return v, nil
	}
	err := json.Unmarshal(raw, &v)
	return v, err
}

// payloadAs 取出指定类型的载荷，兼容指针形式
func payloadAs[T any](a Action) (T, bool) {
	switch p := a.Payload.(type) {
	case T:
		return p, true
	case *T:
		if p != nil {
			return *p, true
		}
	}
	var zero T
	return zero, false
}
