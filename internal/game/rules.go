package game

import (
	"github.com/wfunc/party-game/internal/config"
)

// Rules 静态游戏规则，加载后不再修改
type Rules struct {
	Phases            map[int]PhaseDefinition
	WildcardDurations map[EffectType]int
}

// 成就名称
const (
	AchievementFirstBlood         = "First Blood"
	AchievementShameSpiral        = "Shame Spiral"
	AchievementEmotionalBreakdown = "Emotional Breakdown"
	AchievementSurvivor           = "Survivor"
	AchievementChaosAgent         = "Chaos Agent"
	AchievementTheDennis          = "The Dennis"
	AchievementTheCharlie         = "The Charlie"
	AchievementFriendshipEnder    = "Friendship Ender"
	AchievementEnduranceTest      = "Endurance Test"
)

// AchievementCatalog 成就目录
var AchievementCatalog = map[string]Achievement{
	AchievementFirstBlood:         {Name: AchievementFirstBlood, Description: "First person to make someone cry"},
	AchievementShameSpiral:        {Name: AchievementShameSpiral, Description: "Wear the Shame Hat 3 times in one game"},
	AchievementEmotionalBreakdown: {Name: AchievementEmotionalBreakdown, Description: "Successfully break someone's spirit"},
	AchievementSurvivor:           {Name: AchievementSurvivor, Description: "Complete all phases without crying"},
	AchievementChaosAgent:         {Name: AchievementChaosAgent, Description: "Draw 3 wildcards in one game"},
	AchievementTheDennis:          {Name: AchievementTheDennis, Description: "Win through pure narcissism"},
	AchievementTheCharlie:         {Name: AchievementTheCharlie, Description: "Win despite making no sense"},
	AchievementFriendshipEnder:    {Name: AchievementFriendshipEnder, Description: "Cause someone to leave the game"},
	AchievementEnduranceTest:      {Name: AchievementEnduranceTest, Description: "Play for over 2 hours"},
}

// WildcardDescriptions 万能牌效果说明
var WildcardDescriptions = map[EffectType]string{
	EffectReverseDrinking:   "All drinking penalties are reversed for next 3 cards",
	EffectImmunityPhysical:  "Team immune to physical challenges for 2 cards",
	EffectImmunityEmotional: "Team immune to emotional damage for 3 cards",
	EffectNuclearOption:     "Everyone reveals most toxic trait, worst one gets Shame Hat",
	EffectApocalypseReset:   "All progress reset, game begins anew",
}

// DefaultRules 默认规则
func DefaultRules() Rules {
	return Rules{
		Phases: map[int]PhaseDefinition{
			1: {Number: 1, Name: "MIND", Description: "Your intellect is weak, like your grip strength.", WinCondition: 3, Category: CategoryMind},
			2: {Number: 2, Name: "BODY", Description: "There will be blood, and that's fine.", WinCondition: 3, Category: CategoryBody},
			3: {Number: 3, Name: "SPIRIT", Description: "Now we break each other emotionally.", WinCondition: 3, Category: CategorySpirit},
			4: {Number: 4, Name: "HORROR", Description: "Unlocked when everyone is emotionally unstable.", WinCondition: 2, Category: CategoryHorror},
		},
		WildcardDurations: map[EffectType]int{
			EffectReverseDrinking:   3,
			EffectImmunityPhysical:  2,
			EffectImmunityEmotional: 3,
			EffectNuclearOption:     1,
		},
	}
}

// RulesFromConfig 根据配置生成规则
func RulesFromConfig(cfg config.GameConfig) Rules {
	rules := DefaultRules()

	phases := []config.PhaseConfig{cfg.Phases.Mind, cfg.Phases.Body, cfg.Phases.Spirit, cfg.Phases.Horror}
	for i, pc := range phases {
		def := rules.Phases[i+1]
		if pc.Name != "" {
			def.Name = pc.Name
		}
		if pc.Description != "" {
			def.Description = pc.Description
		}
		if pc.WinCondition > 0 {
			def.WinCondition = pc.WinCondition
		}
		rules.Phases[i+1] = def
	}

	for name, duration := range cfg.WildcardDurations {
		effect := EffectType(name)
		if effect.Valid() && duration >= 0 {
			rules.WildcardDurations[effect] = duration
		}
	}

	return rules
}

// Phase 返回阶段定义
func (r Rules) Phase(number int) (PhaseDefinition, bool) {
	def, ok := r.Phases[number]
	return def, ok
}

// FinalPhase 最后一个可解锁的阶段
func (r Rules) FinalPhase(horrorUnlocked bool) int {
	if horrorUnlocked {
		return 4
	}
	return 3
}
