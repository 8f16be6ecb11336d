package game

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/wfunc/party-game/internal/errors"
)

// minTeams 开局所需的最少队伍数
const minTeams = 2

// Roster 开局前的队伍编辑器
type Roster struct {
	teams    []Team
	maxTeams int
}

// NewRoster 创建队伍编辑器，预置两支空队伍
func NewRoster(maxTeams int) *Roster {
	if maxTeams < minTeams {
		maxTeams = minTeams
	}
	r := &Roster{maxTeams: maxTeams}
	r.teams = []Team{
		{ID: uuid.NewString(), Name: "Team 1", Players: []string{}},
		{ID: uuid.NewString(), Name: "Team 2", Players: []string{}},
	}
	return r
}

// Teams 当前队伍列表的副本
func (r *Roster) Teams() []Team {
	return cloneTeams(r.teams)
}

// AddTeam 新增队伍，名称为空时自动命名
func (r *Roster) AddTeam(name string) (Team, error) {
	if len(r.teams) >= r.maxTeams {
		return Team{}, errors.Newf(errors.ErrTeamLimit, "最多 %d 支队伍", r.maxTeams)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Team " + strconv.Itoa(len(r.teams)+1)
	}
	team := Team{ID: uuid.NewString(), Name: name, Players: []string{}}
	r.teams = append(r.teams, team)
	return team, nil
}

// RemoveTeam 删除队伍，至少保留两支
func (r *Roster) RemoveTeam(id string) error {
	idx := r.index(id)
	if idx < 0 {
		return errors.New(errors.ErrTeamNotFound, id)
	}
	if len(r.teams) <= minTeams {
		return errors.Newf(errors.ErrInvalidTeams, "至少需要 %d 支队伍", minTeams)
	}
	r.teams = append(r.teams[:idx], r.teams[idx+1:]...)
	return nil
}

// RenameTeam 修改队名
func (r *Roster) RenameTeam(id, name string) error {
	idx := r.index(id)
	if idx < 0 {
		return errors.New(errors.ErrTeamNotFound, id)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New(errors.ErrInvalidParam, "队名不能为空")
	}
	r.teams[idx].Name = name
	return nil
}

// AddPlayer 向队伍添加玩家，空白名称忽略
func (r *Roster) AddPlayer(teamID, player string) error {
	idx := r.index(teamID)
	if idx < 0 {
		return errors.New(errors.ErrTeamNotFound, teamID)
	}
	player = strings.TrimSpace(player)
	if player == "" {
		return nil
	}
	r.teams[idx].Players = append(r.teams[idx].Players, player)
	return nil
}

// RemovePlayer 按下标移除玩家
func (r *Roster) RemovePlayer(teamID string, playerIndex int) error {
	idx := r.index(teamID)
	if idx < 0 {
		return errors.New(errors.ErrTeamNotFound, teamID)
	}
	players := r.teams[idx].Players
	if playerIndex < 0 || playerIndex >= len(players) {
		return errors.Newf(errors.ErrInvalidParam, "玩家下标越界: %d", playerIndex)
	}
	r.teams[idx].Players = append(players[:playerIndex], players[playerIndex+1:]...)
	return nil
}

// Validate 返回可以开局的队伍（至少一名玩家）
func (r *Roster) Validate() ([]Team, error) {
	return ValidateTeams(r.teams)
}

func (r *Roster) index(id string) int {
	for i, t := range r.teams {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// ValidateTeams 过滤掉没有玩家的队伍，剩余队伍不足两支时报错
func ValidateTeams(teams []Team) ([]Team, error) {
	valid := make([]Team, 0, len(teams))
	seen := make(map[string]struct{}, len(teams))
	for _, t := range teams {
		if t.ID == "" || len(t.Players) == 0 {
			continue
		}
		if _, dup := seen[t.ID]; dup {
			return nil, errors.Newf(errors.ErrInvalidTeams, "队伍ID重复: %s", t.ID)
		}
		seen[t.ID] = struct{}{}
		valid = append(valid, t)
	}
	if len(valid) < minTeams {
		return nil, errors.Newf(errors.ErrInvalidTeams, "至少需要 %d 支有玩家的队伍", minTeams)
	}
	return cloneTeams(valid), nil
}
