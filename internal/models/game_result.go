package models

import (
	"time"

	"gorm.io/datatypes"
)

// GameResult 已结束游戏的结果记录
type GameResult struct {
	BaseModel
	SessionKey      string         `gorm:"index;size:64;not null" json:"session_key"`
	WinnerID        string         `gorm:"size:64;not null" json:"winner_id"`
	WinnerName      string         `gorm:"size:100" json:"winner_name"`
	FinalPhase      int            `json:"final_phase"`
	HorrorUnlocked  bool           `gorm:"default:false" json:"horror_unlocked"`
	DurationSeconds int            `json:"duration_seconds"`
	CardsPlayed     int            `json:"cards_played"`
	Summary         datatypes.JSON `json:"summary"`
	FinishedAt      time.Time      `gorm:"index" json:"finished_at"`
}

// TableName 指定表名
func (GameResult) TableName() string {
	return "game_results"
}
