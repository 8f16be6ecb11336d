package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWildcardEffect(t *testing.T) {
	effect := NewWildcardEffect(EffectImmunityPhysical, 2)
	assert.Equal(t, WildcardEffect{Type: EffectImmunityPhysical, Duration: 2, CardsRemaining: 2}, effect)

	assert.Equal(t, 0, NewWildcardEffect(EffectNuclearOption, -3).CardsRemaining)
}

func TestEffectForCard(t *testing.T) {
	rules := DefaultRules()

	effect, ok := EffectForCard(wildcard(CategoryMind, EffectReverseDrinking, 0), rules)
	require.True(t, ok)
	assert.Equal(t, 3, effect.CardsRemaining, "没有自带持续张数时使用规则默认值")

	effect, ok = EffectForCard(wildcard(CategorySpirit, EffectImmunityEmotional, 5), rules)
	require.True(t, ok)
	assert.Equal(t, 5, effect.CardsRemaining)

	_, ok = EffectForCard(normalCards(CategoryMind, 1)[0], rules)
	assert.False(t, ok)

	bad := wildcard(CategoryMind, EffectReverseDrinking, 1)
	bad.Effect = "free_beer"
	_, ok = EffectForCard(bad, rules)
	assert.False(t, ok)
}

func TestUpdateWildcardEffects(t *testing.T) {
	effects := []WildcardEffect{NewWildcardEffect(EffectReverseDrinking, 3)}

	for i := 0; i < 2; i++ {
		effects = UpdateWildcardEffects(effects)
		require.Len(t, effects, 1, "第 %d 次结算后仍然生效", i+1)
	}
	assert.Equal(t, 1, effects[0].CardsRemaining)

	effects = UpdateWildcardEffects(effects)
	assert.Empty(t, effects)
	assert.NotNil(t, effects)
}

func TestUpdateWildcardEffects_DoesNotMutateInput(t *testing.T) {
	effects := []WildcardEffect{NewWildcardEffect(EffectImmunityPhysical, 2), NewWildcardEffect(EffectNuclearOption, 1)}

	out := UpdateWildcardEffects(effects)

	require.Len(t, out, 1)
	assert.Equal(t, EffectImmunityPhysical, out[0].Type)
	assert.Equal(t, 2, effects[0].CardsRemaining)
	assert.Equal(t, 1, effects[1].CardsRemaining)
}

func TestIsTeamImmune(t *testing.T) {
	physical := []WildcardEffect{NewWildcardEffect(EffectImmunityPhysical, 2)}
	emotional := []WildcardEffect{NewWildcardEffect(EffectImmunityEmotional, 3)}

	assert.True(t, IsTeamImmune(physical, CategoryBody))
	assert.False(t, IsTeamImmune(physical, CategorySpirit))
	assert.True(t, IsTeamImmune(emotional, CategorySpirit))
	assert.False(t, IsTeamImmune(emotional, CategoryMind))
	assert.False(t, IsTeamImmune(nil, CategoryBody))

	expired := []WildcardEffect{{Type: EffectImmunityPhysical, Duration: 2}}
	assert.False(t, IsTeamImmune(expired, CategoryBody))
}

func TestShouldReverseDrinking(t *testing.T) {
	assert.False(t, ShouldReverseDrinking(nil))
	assert.True(t, ShouldReverseDrinking([]WildcardEffect{NewWildcardEffect(EffectReverseDrinking, 1)}))
	assert.False(t, ShouldReverseDrinking([]WildcardEffect{NewWildcardEffect(EffectNuclearOption, 1)}))
}
