package library_test

import (
	"testing"

	"cinespot/models"
	"cinespot/services/library"
)

func TestServiceAddListAndPersist(t *testing.T) {
	dir := t.TempDir()
	svc, err := library.NewService(dir)
	if err != nil {
		t.Fatalf("expected service, got error: %v", err)
	}

	added, err := svc.Add(models.DefaultUserID, models.LibraryUpsert{
		Title: models.Title{ID: 603, Name: "The Matrix", MediaType: "movie"},
	})
	if err != nil {
		t.Fatalf("failed to add item: %v", err)
	}
	if added.WatchStatus != models.WatchStatusPlanToWatch {
		t.Fatalf("expected default watch status, got %q", added.WatchStatus)
	}
	if added.AddedAt.IsZero() {
		t.Fatalf("expected AddedAt to be set")
	}

	items := svc.List(models.DefaultUserID)
	if len(items) != 1 {
		t.Fatalf("expected 1 library item, got %d", len(items))
	}

	reloaded, err := library.NewService(dir)
	if err != nil {
		t.Fatalf("failed to reload service: %v", err)
	}
	reloadedItems := reloaded.List(models.DefaultUserID)
	if len(reloadedItems) != 1 {
		t.Fatalf("expected 1 item after reload, got %d", len(reloadedItems))
	}
	if reloadedItems[0].Title.Name != "The Matrix" {
		t.Fatalf("expected name to survive reload, got %q", reloadedItems[0].Title.Name)
	}
	if !reloaded.Contains(models.DefaultUserID, 603) {
		t.Fatalf("expected Contains to see reloaded item")
	}
}

func TestServiceUpdateKeepsAddedAt(t *testing.T) {
	svc, err := library.NewService(t.TempDir())
	if err != nil {
		t.Fatalf("expected service, got error: %v", err)
	}

	first, err := svc.Add(models.DefaultUserID, models.LibraryUpsert{
		Title: models.Title{ID: 1, Name: "Pilot", MediaType: "tv"},
	})
	if err != nil {
		t.Fatalf("failed to seed library: %v", err)
	}

	updated, err := svc.Add(models.DefaultUserID, models.LibraryUpsert{
		Title:        models.Title{ID: 1, Name: "Pilot", MediaType: "tv"},
		WatchStatus:  models.WatchStatusCompleted,
		RewatchCount: 2,
	})
	if err != nil {
		t.Fatalf("failed to update item: %v", err)
	}
	if !updated.AddedAt.Equal(first.AddedAt) {
		t.Fatalf("update must not bump AddedAt")
	}
	if updated.WatchStatus != models.WatchStatusCompleted || updated.RewatchCount != 2 {
		t.Fatalf("update did not persist fields: %+v", updated)
	}
	if len(svc.List(models.DefaultUserID)) != 1 {
		t.Fatalf("update should not duplicate the item")
	}
}

func TestServiceRemove(t *testing.T) {
	svc, err := library.NewService(t.TempDir())
	if err != nil {
		t.Fatalf("expected service, got error: %v", err)
	}

	if _, err := svc.Add(models.DefaultUserID, models.LibraryUpsert{Title: models.Title{ID: 7, Name: "Seven"}}); err != nil {
		t.Fatalf("failed to seed library: %v", err)
	}

	removed, err := svc.Remove(models.DefaultUserID, 7)
	if err != nil {
		t.Fatalf("remove returned error: %v", err)
	}
	if !removed {
		t.Fatalf("remove returned false")
	}
	if svc.Contains(models.DefaultUserID, 7) {
		t.Fatalf("Contains should be false after removal")
	}

	removedAgain, err := svc.Remove(models.DefaultUserID, 7)
	if err != nil {
		t.Fatalf("second remove returned error: %v", err)
	}
	if removedAgain {
		t.Fatalf("second remove should report false")
	}
}

func TestServiceIsolatesUsers(t *testing.T) {
	svc, err := library.NewService(t.TempDir())
	if err != nil {
		t.Fatalf("expected service, got error: %v", err)
	}

	if _, err := svc.Add("alice", models.LibraryUpsert{Title: models.Title{ID: 1, Name: "A"}}); err != nil {
		t.Fatalf("failed to add for alice: %v", err)
	}
	if _, err := svc.Add("bob", models.LibraryUpsert{Title: models.Title{ID: 2, Name: "B"}}); err != nil {
		t.Fatalf("failed to add for bob: %v", err)
	}

	if svc.Contains("alice", 2) || svc.Contains("bob", 1) {
		t.Fatalf("library items leaked across users")
	}
	if len(svc.Titles("alice")) != 1 {
		t.Fatalf("expected 1 title for alice")
	}
}

func TestServiceValidation(t *testing.T) {
	svc, err := library.NewService("")
	if err != nil {
		t.Fatalf("expected memory-only service, got error: %v", err)
	}

	if _, err := svc.Add("", models.LibraryUpsert{Title: models.Title{ID: 1}}); err != library.ErrUserIDRequired {
		t.Fatalf("expected ErrUserIDRequired, got %v", err)
	}
	if _, err := svc.Add(models.DefaultUserID, models.LibraryUpsert{}); err != library.ErrTitleIDRequired {
		t.Fatalf("expected ErrTitleIDRequired, got %v", err)
	}
}
