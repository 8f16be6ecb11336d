package game

// Category 卡牌类别（与阶段一一对应）
type Category string

const (
	CategoryMind   Category = "mind"   // 第一阶段：智力
	CategoryBody   Category = "body"   // 第二阶段：身体
	CategorySpirit Category = "spirit" // 第三阶段：精神
	CategoryHorror Category = "horror" // 第四阶段：恐怖
)

// Categories 按阶段顺序排列的全部类别
var Categories = []Category{CategoryMind, CategoryBody, CategorySpirit, CategoryHorror}

// CategoryForPhase 返回阶段对应的卡牌类别
func CategoryForPhase(phase int) (Category, bool) {
	if phase < 1 || phase > len(Categories) {
		return "", false
	}
	return Categories[phase-1], true
}

// Difficulty 卡牌难度
type Difficulty string

const (
	DifficultyEasy      Difficulty = "easy"
	DifficultyMedium    Difficulty = "medium"
	DifficultyHard      Difficulty = "hard"
	DifficultyExtreme   Difficulty = "extreme"
	DifficultyNightmare Difficulty = "nightmare"
	DifficultySpecial   Difficulty = "special"
)

// Valid 检查难度是否合法
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard,
		DifficultyExtreme, DifficultyNightmare, DifficultySpecial:
		return true
	}
	return false
}

// EffectType 万能牌效果类型
type EffectType string

const (
	EffectReverseDrinking   EffectType = "reverse_drinking"
	EffectImmunityPhysical  EffectType = "immunity_physical"
	EffectImmunityEmotional EffectType = "immunity_emotional"
	EffectNuclearOption     EffectType = "nuclear_option"
	EffectApocalypseReset   EffectType = "apocalypse_reset"
)

// Valid 检查效果类型是否合法
func (t EffectType) Valid() bool {
	switch t {
	case EffectReverseDrinking, EffectImmunityPhysical, EffectImmunityEmotional,
		EffectNuclearOption, EffectApocalypseReset:
		return true
	}
	return false
}

// Team 队伍
type Team struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Players []string `json:"players"`
}

// PhaseDefinition 阶段定义（静态配置）
type PhaseDefinition struct {
	Number       int      `json:"number"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	WinCondition int      `json:"winCondition"`
	Category     Category `json:"category"`
}

// Card 挑战卡牌（值对象）
type Card struct {
	ID             string     `json:"id"`
	Category       string     `json:"category"`
	Title          string     `json:"title"`
	Challenge      string     `json:"challenge"`
	Difficulty     Difficulty `json:"difficulty"`
	IsWildcard     bool       `json:"isWildcard"`
	Phase          Category   `json:"phase"`
	Effect         EffectType `json:"effect,omitempty"`
	EffectDuration int        `json:"effectDuration,omitempty"`
}

// PhaseScores 单个队伍各阶段成功次数
type PhaseScores struct {
	Phase1 int `json:"phase1"`
	Phase2 int `json:"phase2"`
	Phase3 int `json:"phase3"`
	Phase4 int `json:"phase4"`
}

// Get 返回指定阶段的分数
func (p PhaseScores) Get(phase int) int {
	switch phase {
	case 1:
		return p.Phase1
	case 2:
		return p.Phase2
	case 3:
		return p.Phase3
	case 4:
		return p.Phase4
	}
	return 0
}

// With 返回设置了指定阶段分数的副本
func (p PhaseScores) With(phase, value int) PhaseScores {
	switch phase {
	case 1:
		p.Phase1 = value
	case 2:
		p.Phase2 = value
	case 3:
		p.Phase3 = value
	case 4:
		p.Phase4 = value
	}
	return p
}

// Total 所有阶段分数之和
func (p PhaseScores) Total() int {
	return p.Phase1 + p.Phase2 + p.Phase3 + p.Phase4
}

// ScoreBoard 队伍ID -> 各阶段分数
type ScoreBoard map[string]PhaseScores

// WildcardEffect 限时生效的万能牌效果
type WildcardEffect struct {
	Type           EffectType `json:"type"`
	Duration       int        `json:"duration"`
	CardsRemaining int        `json:"cardsRemaining"`
}

// EventType 历史事件类型
type EventType string

const (
	EventCardDrawn        EventType = "card_drawn"
	EventCardCompleted    EventType = "card_completed"
	EventPhaseAdvanced    EventType = "phase_advanced"
	EventShameHatAssigned EventType = "shame_hat_assigned"
	EventHorrorUnlocked   EventType = "horror_unlocked"
	EventWildcardApplied  EventType = "wildcard_applied"
	EventGameWon          EventType = "game_won"
	EventApocalypseReset  EventType = "apocalypse_reset"
)

// EventPayload 历史事件附带数据，按事件类型填充
type EventPayload struct {
	Card     *Card           `json:"card,omitempty"`
	Team     *Team           `json:"team,omitempty"`
	TeamID   string          `json:"teamId,omitempty"`
	Success  *bool           `json:"success,omitempty"`
	NewPhase int             `json:"newPhase,omitempty"`
	Effect   *WildcardEffect `json:"effect,omitempty"`
	Winner   string          `json:"winner,omitempty"`
}

// HistoryEvent 只追加的历史记录
type HistoryEvent struct {
	Type      EventType    `json:"type"`
	Payload   EventPayload `json:"payload"`
	Timestamp int64        `json:"timestamp"` // 毫秒
}

// Achievement 成就记录
type Achievement struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// GameState 游戏状态（聚合根）
//
// 只能通过 Engine.Apply 产生新的状态；已提交的状态视为只读。
// 字段为空字符串的 ShameHatHolder / GameWinner 表示不存在。
type GameState struct {
	GameStarted       bool                `json:"gameStarted"`
	CurrentPhase      int                 `json:"currentPhase"`
	Teams             []Team              `json:"teams"`
	CurrentTeamIndex  int                 `json:"currentTeamIndex"`
	Scores            ScoreBoard          `json:"scores"`
	CurrentCard       *Card               `json:"currentCard"`
	CardsRemaining    map[Category][]Card `json:"cardsRemaining"`
	ShameHatHolder    string              `json:"shameHatHolder"`
	DrinkingPenalties map[string]int      `json:"drinkingPenalties"`
	GameTimer         int                 `json:"gameTimer"`
	IsTimerRunning    bool                `json:"isTimerRunning"`
	HorrorUnlocked    bool                `json:"horrorUnlocked"`
	GameWinner        string              `json:"gameWinner"`
	Achievements      []Achievement       `json:"achievements"`
	WildcardEffects   []WildcardEffect    `json:"wildcardEffects"`
	GameHistory       []HistoryEvent      `json:"gameHistory"`
}

// NewGameState 创建初始状态
func NewGameState() *GameState {
	return &GameState{
		CurrentPhase:      1,
		Teams:             []Team{},
		Scores:            ScoreBoard{},
		CardsRemaining:    emptyDecks(),
		DrinkingPenalties: map[string]int{},
		Achievements:      []Achievement{},
		WildcardEffects:   []WildcardEffect{},
		GameHistory:       []HistoryEvent{},
	}
}

func emptyDecks() map[Category][]Card {
	decks := make(map[Category][]Card, len(Categories))
	for _, c := range Categories {
		decks[c] = []Card{}
	}
	return decks
}

// Clone 深拷贝状态
func (s *GameState) Clone() *GameState {
	c := *s

	c.Teams = cloneTeams(s.Teams)

	c.Scores = make(ScoreBoard, len(s.Scores))
	for id, sc := range s.Scores {
		c.Scores[id] = sc
	}

	if s.CurrentCard != nil {
		card := *s.CurrentCard
		c.CurrentCard = &card
	}

	c.CardsRemaining = make(map[Category][]Card, len(s.CardsRemaining))
	for cat, cards := range s.CardsRemaining {
		c.CardsRemaining[cat] = append([]Card{}, cards...)
	}

	c.DrinkingPenalties = make(map[string]int, len(s.DrinkingPenalties))
	for id, n := range s.DrinkingPenalties {
		c.DrinkingPenalties[id] = n
	}

	c.Achievements = append([]Achievement{}, s.Achievements...)
	c.WildcardEffects = append([]WildcardEffect{}, s.WildcardEffects...)

	// 历史事件只追加不修改，复制切片头即可保证旧状态不受影响
	c.GameHistory = append([]HistoryEvent{}, s.GameHistory...)

	return &c
}

func cloneTeams(teams []Team) []Team {
	out := make([]Team, len(teams))
	for i, t := range teams {
		out[i] = Team{ID: t.ID, Name: t.Name, Players: append([]string{}, t.Players...)}
	}
	return out
}

// CurrentTeam 返回当前回合的队伍
func (s *GameState) CurrentTeam() (Team, bool) {
	if s.CurrentTeamIndex < 0 || s.CurrentTeamIndex >= len(s.Teams) {
		return Team{}, false
	}
	return s.Teams[s.CurrentTeamIndex], true
}

// FindTeam 按ID查找队伍
func (s *GameState) FindTeam(id string) (Team, bool) {
	for _, t := range s.Teams {
		if t.ID == id {
			return t, true
		}
	}
	return Team{}, false
}

// HasAchievement 是否已获得指定成就
func (s *GameState) HasAchievement(name string) bool {
	for _, a := range s.Achievements {
		if a.Name == name {
			return true
		}
	}
	return false
}
