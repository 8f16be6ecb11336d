package models

import (
	"gorm.io/datatypes"
)

// GameSnapshot 游戏状态快照（每个会话键一行，保存完整的状态 JSON）
type GameSnapshot struct {
	BaseModel
	SessionKey string         `gorm:"uniqueIndex;size:64;not null" json:"session_key"`
	StateData  datatypes.JSON `json:"state_data"`
}

// TableName 指定表名
func (GameSnapshot) TableName() string {
	return "game_snapshots"
}
