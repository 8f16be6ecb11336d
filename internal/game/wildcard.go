package game

// NewWildcardEffect 创建持续 duration 张牌的效果
func NewWildcardEffect(t EffectType, duration int) WildcardEffect {
	if duration < 0 {
		duration = 0
	}
	return WildcardEffect{Type: t, Duration: duration, CardsRemaining: duration}
}

// EffectForCard 根据卡牌上的效果标签生成效果
//
// 卡牌自带持续张数时优先使用，否则使用规则中的默认值。
func EffectForCard(card Card, rules Rules) (WildcardEffect, bool) {
	if !card.IsWildcard || !card.Effect.Valid() {
		return WildcardEffect{}, false
	}
	duration := card.EffectDuration
	if duration <= 0 {
		duration = rules.WildcardDurations[card.Effect]
	}
	return NewWildcardEffect(card.Effect, duration), true
}

// UpdateWildcardEffects 每结算一张牌，所有效果剩余张数减一，归零的效果被移除
func UpdateWildcardEffects(effects []WildcardEffect) []WildcardEffect {
	out := make([]WildcardEffect, 0, len(effects))
	for _, effect := range effects {
		effect.CardsRemaining--
		if effect.CardsRemaining > 0 {
			out = append(out, effect)
		}
	}
	return out
}

// HasActiveEffect 是否存在指定类型的生效中效果
func HasActiveEffect(effects []WildcardEffect, t EffectType) bool {
	for _, effect := range effects {
		if effect.Type == t && effect.CardsRemaining > 0 {
			return true
		}
	}
	return false
}

// IsTeamImmune 当前效果是否使队伍免于该类别的挑战
func IsTeamImmune(effects []WildcardEffect, category Category) bool {
	switch category {
	case CategoryBody:
		return HasActiveEffect(effects, EffectImmunityPhysical)
	case CategorySpirit:
		return HasActiveEffect(effects, EffectImmunityEmotional)
	}
	return false
}

// ShouldReverseDrinking 是否应反转喝酒惩罚
func ShouldReverseDrinking(effects []WildcardEffect) bool {
	return HasActiveEffect(effects, EffectReverseDrinking)
}
