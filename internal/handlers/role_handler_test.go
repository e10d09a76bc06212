package handlers

import (
	"testing"

	"github.com/ad/discord-key-hunt/internal/db"
	"github.com/ad/discord-key-hunt/internal/models"
	"github.com/ad/discord-key-hunt/internal/services"
	"github.com/bwmarrin/discordgo"
)

const championRole = "role-champion"

func newRoleHarness(t *testing.T) (*RoleHandler, *db.HunterRepository, func()) {
	t.Helper()

	queue, cleanup := setupTestDB(t)
	repo := db.NewHunterRepository(queue)
	keys := testKeys(t)
	engine := services.NewProgressEngine(repo, keys)
	handler := NewRoleHandler(engine, repo, NewEventNotifier(nil, "", keys), championRole)
	return handler, repo, cleanup
}

func memberUpdate(userID string, roles, beforeRoles []string) *discordgo.GuildMemberUpdate {
	update := &discordgo.GuildMemberUpdate{
		Member: &discordgo.Member{
			User:  &discordgo.User{ID: userID},
			Roles: roles,
		},
	}
	if beforeRoles != nil {
		update.BeforeUpdate = &discordgo.Member{
			User:  &discordgo.User{ID: userID},
			Roles: beforeRoles,
		}
	}
	return update
}

func TestHandleGuildMemberUpdate_GrantFinishesHunter(t *testing.T) {
	handler, repo, cleanup := newRoleHarness(t)
	defer cleanup()

	if _, err := repo.GetOrCreate("u1"); err != nil {
		t.Fatal(err)
	}
	if err := repo.SetKeyToFind("u1", models.DecodeKey); err != nil {
		t.Fatal(err)
	}

	handler.HandleGuildMemberUpdate(nil, memberUpdate("u1", []string{"other", championRole}, []string{"other"}))

	hunter, err := repo.GetByID("u1")
	if err != nil {
		t.Fatal(err)
	}
	if !hunter.Completed {
		t.Error("Granting the champion role must complete the hunter")
	}
	if !hunter.CompletedStage(models.DecodeStageID) {
		t.Error("Expected a decode completion timestamp")
	}
}

func TestHandleGuildMemberUpdate_UnknownUser(t *testing.T) {
	handler, repo, cleanup := newRoleHarness(t)
	defer cleanup()

	// The grant alone must not create a hunter record.
	handler.HandleGuildMemberUpdate(nil, memberUpdate("stranger", []string{championRole}, nil))

	if _, err := repo.GetByID("stranger"); err == nil {
		t.Error("Role grants for users who never played must be ignored")
	}
}

func TestHandleGuildMemberUpdate_Ignored(t *testing.T) {
	handler, repo, cleanup := newRoleHarness(t)
	defer cleanup()

	if _, err := repo.GetOrCreate("u1"); err != nil {
		t.Fatal(err)
	}

	// Unrelated role change.
	handler.HandleGuildMemberUpdate(nil, memberUpdate("u1", []string{"other"}, nil))
	// Champion role present before and after.
	handler.HandleGuildMemberUpdate(nil, memberUpdate("u1", []string{championRole}, []string{championRole}))

	hunter, err := repo.GetByID("u1")
	if err != nil {
		t.Fatal(err)
	}
	if hunter.Completed {
		t.Error("Neither update should complete the hunter")
	}
}

func TestHandleGuildMemberUpdate_AlreadyCompleted(t *testing.T) {
	handler, repo, cleanup := newRoleHarness(t)
	defer cleanup()

	if _, err := repo.GetOrCreate("u1"); err != nil {
		t.Fatal(err)
	}
	if err := repo.SetKeyToFind("u1", models.DecodeKey); err != nil {
		t.Fatal(err)
	}
	if err := repo.SetCompleted("u1"); err != nil {
		t.Fatal(err)
	}

	handler.HandleGuildMemberUpdate(nil, memberUpdate("u1", []string{championRole}, nil))

	hunter, err := repo.GetByID("u1")
	if err != nil {
		t.Fatal(err)
	}
	if hunter.CompletedStage(models.DecodeStageID) {
		t.Error("A re-grant must not record another decode completion")
	}
}
