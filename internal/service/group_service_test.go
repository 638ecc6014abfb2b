package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fathima-sithara/campus-connect/internal/apperr"
	"github.com/fathima-sithara/campus-connect/internal/models"
)

func memberIDs(users []models.User) []string {
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids
}

func TestCreateGroup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	g, err := f.groups.CreateGroup(ctx, as("carol"), CreateGroupInput{
		Name:    " Robotics ",
		Members: []string{"bob", "carol", "bob"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Robotics", g.Name)
	assert.Equal(t, models.GroupCustom, g.Type)
	assert.Equal(t, "carol", g.CreatedBy)
	assert.Equal(t, []string{"carol", "bob"}, g.Members)
}

func TestCreateGroupValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   CreateGroupInput
		kind apperr.Kind
	}{
		{"missing name", CreateGroupInput{Name: " "}, apperr.KindInvalidInput},
		{"second world", CreateGroupInput{Name: "w", Type: models.GroupWorld}, apperr.KindInvalidInput},
		{"club without id", CreateGroupInput{Name: "c", Type: models.GroupClub}, apperr.KindInvalidInput},
		{"unknown type", CreateGroupInput{Name: "x", Type: "secret"}, apperr.KindInvalidInput},
		{"unknown member", CreateGroupInput{Name: "x", Members: []string{"ghost"}}, apperr.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.groups.CreateGroup(ctx, as("alice"), tt.in)
			assert.Equal(t, tt.kind, apperr.KindOf(err))
		})
	}

	club, err := f.groups.CreateGroup(ctx, as("alice"), CreateGroupInput{Name: "Drama", Type: models.GroupClub, ClubID: "club-7"})
	require.NoError(t, err)
	assert.Equal(t, "club-7", club.ClubID)
}

func TestWorldGroupOpenToEveryone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.groups.EnsureWorld(ctx))
	require.NoError(t, f.groups.EnsureWorld(ctx))

	groups, err := f.groups.ListGroups(ctx, as("mallory"))
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, models.WorldGroupID, groups[0].ID)

	_, err = f.groups.PostGroupMessage(ctx, as("mallory"), models.WorldGroupID, "hello campus")
	require.NoError(t, err)
	msgs, err := f.groups.ListGroupMessages(ctx, as("alice"), models.WorldGroupID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Mallory", msgs[0].Sender.DisplayName)
	assert.Len(t, f.hints.broadcast, 1)

	members, err := f.groups.ListMembers(ctx, as("bob"), models.WorldGroupID)
	require.NoError(t, err)
	assert.Len(t, members, 4)

	_, err = f.groups.AddMembers(ctx, as("alice"), models.WorldGroupID, []string{"bob"})
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestGroupMembershipGatesMessages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g, _ := f.groups.CreateGroup(ctx, as("carol"), CreateGroupInput{Name: "Robotics", Members: []string{"bob"}})

	_, err := f.groups.PostGroupMessage(ctx, as("mallory"), g.ID, "let me in")
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	_, err = f.groups.ListGroupMessages(ctx, as("mallory"), g.ID)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	_, err = f.groups.ListMembers(ctx, as("mallory"), g.ID)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	_, err = f.groups.PostGroupMessage(ctx, as("bob"), g.ID, "")
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
	_, err = f.groups.ListGroupMessages(ctx, as("bob"), "missing")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	for _, text := range []string{"one", "two", "three"} {
		_, err := f.groups.PostGroupMessage(ctx, as("bob"), g.ID, text)
		require.NoError(t, err)
	}
	msgs, err := f.groups.ListGroupMessages(ctx, as("carol"), g.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "one", msgs[0].Content)
	assert.Equal(t, "three", msgs[2].Content)
	assert.Len(t, f.hints.notified["carol"], 4, "create plus three posts")
}

func TestAddMembers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g, _ := f.groups.CreateGroup(ctx, as("carol"), CreateGroupInput{Name: "Robotics", Members: []string{"bob"}})

	_, err := f.groups.AddMembers(ctx, as("mallory"), g.ID, []string{"mallory"})
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	_, err = f.groups.AddMembers(ctx, as("bob"), g.ID, nil)
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
	_, err = f.groups.AddMembers(ctx, as("bob"), g.ID, []string{"ghost"})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	updated, err := f.groups.AddMembers(ctx, as("bob"), g.ID, []string{"alice", "carol"})
	require.NoError(t, err)
	assert.Equal(t, []string{"carol", "bob", "alice"}, updated.Members)

	members, err := f.groups.ListMembers(ctx, as("alice"), g.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"carol", "bob", "alice"}, memberIDs(members))
}

func TestGroupRemovalGuard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.groups.EnsureWorld(ctx))
	g, err := f.groups.CreateGroup(ctx, as("carol"), CreateGroupInput{Name: "Robotics", Members: []string{"mallory"}})
	require.NoError(t, err)

	_, err = f.groups.RemoveMember(ctx, as("carol"), g.ID, "carol")
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	_, err = f.groups.RemoveMember(ctx, as("carol"), models.WorldGroupID, "mallory")
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	updated, err := f.groups.RemoveMember(ctx, as("carol"), g.ID, "mallory")
	require.NoError(t, err)
	assert.Equal(t, []string{"carol"}, updated.Members)

	members, err := f.groups.ListMembers(ctx, as("carol"), g.ID)
	require.NoError(t, err)
	assert.NotContains(t, memberIDs(members), "mallory")

	_, err = f.groups.RemoveMember(ctx, as("carol"), g.ID, "mallory")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestRemoveMemberPermissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g, _ := f.groups.CreateGroup(ctx, as("carol"), CreateGroupInput{Name: "Robotics", Members: []string{"bob", "alice"}})

	_, err := f.groups.RemoveMember(ctx, as("bob"), g.ID, "alice")
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	updated, err := f.groups.RemoveMember(ctx, as("bob"), g.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, []string{"carol", "alice"}, updated.Members)

	_, err = f.groups.RemoveMember(ctx, as("carol"), "missing", "bob")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
