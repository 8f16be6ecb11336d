package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/party-game/internal/errors"
)

func TestRoster_Defaults(t *testing.T) {
	r := NewRoster(4)
	teams := r.Teams()

	require.Len(t, teams, 2)
	assert.Equal(t, "Team 1", teams[0].Name)
	assert.Equal(t, "Team 2", teams[1].Name)
	assert.NotEqual(t, teams[0].ID, teams[1].ID)
	assert.NotEmpty(t, teams[0].ID)
}

func TestRoster_AddAndRemoveTeams(t *testing.T) {
	r := NewRoster(3)

	team, err := r.AddTeam("  ")
	require.NoError(t, err)
	assert.Equal(t, "Team 3", team.Name)

	_, err = r.AddTeam("Wolf Cola")
	assert.True(t, errors.Is(err, errors.ErrTeamLimit))

	require.NoError(t, r.RemoveTeam(team.ID))
	assert.Len(t, r.Teams(), 2)

	err = r.RemoveTeam(r.Teams()[0].ID)
	assert.True(t, errors.Is(err, errors.ErrInvalidTeams), "不能少于两支队伍")

	assert.True(t, errors.Is(r.RemoveTeam("ghost"), errors.ErrTeamNotFound))
}

func TestRoster_RenameTeam(t *testing.T) {
	r := NewRoster(4)
	id := r.Teams()[0].ID

	require.NoError(t, r.RenameTeam(id, "Paddy's Pub"))
	assert.Equal(t, "Paddy's Pub", r.Teams()[0].Name)

	assert.True(t, errors.Is(r.RenameTeam(id, ""), errors.ErrInvalidParam))
	assert.True(t, errors.Is(r.RenameTeam("ghost", "x"), errors.ErrTeamNotFound))
}

func TestRoster_Players(t *testing.T) {
	r := NewRoster(4)
	id := r.Teams()[0].ID

	require.NoError(t, r.AddPlayer(id, "Dennis"))
	require.NoError(t, r.AddPlayer(id, " "))
	require.NoError(t, r.AddPlayer(id, "Mac"))
	assert.Equal(t, []string{"Dennis", "Mac"}, r.Teams()[0].Players)

	require.NoError(t, r.RemovePlayer(id, 0))
	assert.Equal(t, []string{"Mac"}, r.Teams()[0].Players)

	assert.True(t, errors.Is(r.RemovePlayer(id, 5), errors.ErrInvalidParam))
	assert.True(t, errors.Is(r.AddPlayer("ghost", "Frank"), errors.ErrTeamNotFound))
}

func TestRoster_TeamsReturnsCopy(t *testing.T) {
	r := NewRoster(4)
	teams := r.Teams()
	teams[0].Name = "changed"
	assert.Equal(t, "Team 1", r.Teams()[0].Name)
}

func TestRoster_Validate(t *testing.T) {
	r := NewRoster(4)
	_, err := r.Validate()
	assert.True(t, errors.Is(err, errors.ErrInvalidTeams))

	teams := r.Teams()
	require.NoError(t, r.AddPlayer(teams[0].ID, "Dee"))
	require.NoError(t, r.AddPlayer(teams[1].ID, "Charlie"))
	_, err = r.AddTeam("Empty")
	require.NoError(t, err)

	valid, err := r.Validate()
	require.NoError(t, err)
	assert.Len(t, valid, 2, "没有玩家的队伍被过滤")
}

func TestValidateTeams(t *testing.T) {
	_, err := ValidateTeams(nil)
	assert.True(t, errors.Is(err, errors.ErrInvalidTeams))

	dup := []Team{
		{ID: "a", Name: "A", Players: []string{"x"}},
		{ID: "a", Name: "B", Players: []string{"y"}},
	}
	_, err = ValidateTeams(dup)
	assert.True(t, errors.Is(err, errors.ErrInvalidTeams))

	in := testTeams(2)
	out, err := ValidateTeams(in)
	require.NoError(t, err)
	out[0].Players[0] = "changed"
	assert.Equal(t, "player-1", in[0].Players[0])
}
