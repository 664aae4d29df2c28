package service

import (
	"context"
	"testing"

	"github.com/sakif/stickyboard/internal/auth"
	"github.com/sakif/stickyboard/internal/model"
)

func TestDashboardStats(t *testing.T) {
	ctx := context.Background()
	users := newFakeUserRepo()
	authSvc, _ := newTestAuthService(t, users)
	notes, repo := newTestNoteService(t)

	a, _ := authSvc.Register(ctx, "admin@example.com", "password123")
	u, _ := authSvc.Register(ctx, "user@example.com", "password123")
	aID := identityOf(a.User)
	uID := identityOf(u.User)

	notes.Create(ctx, aID, NoteInput{Body: strPtr(`"hello"`)})
	notes.Create(ctx, uID, NoteInput{})
	notes.Create(ctx, uID, NoteInput{Body: strPtr(`"\"double\""`)})
	// A row with broken JSON still counts, using fallbacks.
	repo.Create(ctx, &model.Note{Body: "plain text", Colors: "nope", Position: "nope"})

	svc := NewDashboardService(notes, authSvc, testLogger())

	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.TotalNotes != 4 {
		t.Errorf("TotalNotes = %d, want 4", stats.TotalNotes)
	}
	if stats.WithBody != 3 || stats.EmptyBody != 1 {
		t.Errorf("WithBody/EmptyBody = %d/%d, want 3/1", stats.WithBody, stats.EmptyBody)
	}
	if stats.TotalUsers != 2 || stats.Admins != 1 {
		t.Errorf("TotalUsers/Admins = %d/%d, want 2/1", stats.TotalUsers, stats.Admins)
	}
	if stats.NotesPerUser[u.User.ID] != 2 || stats.NotesPerUser[a.User.ID] != 1 {
		t.Errorf("NotesPerUser = %v", stats.NotesPerUser)
	}
	if stats.CreatedToday != 4 {
		t.Errorf("CreatedToday = %d, want 4", stats.CreatedToday)
	}
}

func identityOf(u *model.User) auth.Identity {
	return auth.Identity{UserID: u.ID, Role: u.Role}
}
