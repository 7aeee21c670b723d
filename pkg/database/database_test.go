package database

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestMigrate_IsIdempotent(t *testing.T) {
	db, err := Open(Config{Path: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("Open(): %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	for i := 0; i < 2; i++ {
		if err := Migrate(db); err != nil {
			t.Fatalf("Migrate() run %d: %v", i+1, err)
		}
	}
}

func TestWrapWriteError_ForeignKeyViolation(t *testing.T) {
	db, err := Open(Config{Path: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("Open(): %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate(): %v", err)
	}

	// all three referenced rows are missing
	_, execErr := db.Exec(`
		INSERT INTO chapter_records (title_id, chapter, role_id, contributor_id)
		VALUES (99, 1, 99, 99)
	`)
	if execErr == nil {
		t.Fatal("insert with dangling foreign keys succeeded")
	}

	wrapped := WrapWriteError("insert chapter record", execErr)
	var fkErr *ForeignKeyError
	if !errors.As(wrapped, &fkErr) {
		t.Fatalf("WrapWriteError() = %v, want *ForeignKeyError", wrapped)
	}
	if fkErr.Op != "insert chapter record" {
		t.Fatalf("Op = %q", fkErr.Op)
	}
}

func TestWrapWriteError_PassesOtherErrorsThrough(t *testing.T) {
	plain := errors.New("boom")
	wrapped := WrapWriteError("op", plain)

	var fkErr *ForeignKeyError
	if errors.As(wrapped, &fkErr) {
		t.Fatalf("WrapWriteError() = %v, plain error became ForeignKeyError", wrapped)
	}
	if !errors.Is(wrapped, plain) {
		t.Fatal("WrapWriteError() lost the original error")
	}

	if WrapWriteError("op", nil) != nil {
		t.Fatal("WrapWriteError(nil) != nil")
	}
}
