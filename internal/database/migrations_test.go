package database

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
}

func TestReadMigrationFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "000002_add_comments.up.sql", "CREATE TABLE c();")
	writeFile(t, dir, "000001_initial_schema.up.sql", "CREATE TABLE a();")
	writeFile(t, dir, "000001_initial_schema.down.sql", "DROP TABLE a;")
	writeFile(t, dir, "000003_orphan_down.down.sql", "DROP TABLE x;")
	writeFile(t, dir, "README.md", "ignored")
	writeFile(t, dir, "nounderscore.up.sql", "ignored")

	migrations, err := ReadMigrationFiles(dir)
	if err != nil {
		t.Fatalf("ReadMigrationFiles() error = %v", err)
	}

	if len(migrations) != 2 {
		t.Fatalf("expected 2 migrations, got %d", len(migrations))
	}

	first := migrations[0]
	if first.Version != "000001" || first.Name != "initial_schema" || first.Title != "initial schema" {
		t.Errorf("unexpected first migration: %+v", first)
	}
	if first.DownSQL != "DROP TABLE a;" {
		t.Errorf("DownSQL = %q", first.DownSQL)
	}
	if first.Checksum != calculateChecksum("CREATE TABLE a();") {
		t.Errorf("checksum mismatch for %s", first.Version)
	}
	if migrations[1].Version != "000002" {
		t.Errorf("expected second migration 000002, got %s", migrations[1].Version)
	}
}

func TestValidateChecksums(t *testing.T) {
	migrations := []Migration{
		{Version: "000001", Title: "initial schema", Checksum: calculateChecksum("a")},
		{Version: "000002", Title: "add comments", Checksum: calculateChecksum("b")},
	}

	tests := []struct {
		name    string
		applied map[string]string
		wantErr bool
	}{
		{name: "nothing applied", applied: map[string]string{}},
		{name: "matching", applied: map[string]string{"000001": calculateChecksum("a")}},
		{name: "legacy without checksum", applied: map[string]string{"000001": ""}},
		{name: "modified", applied: map[string]string{"000002": calculateChecksum("changed")}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateChecksums(migrations, tt.applied)
			if (err != nil) != tt.wantErr {
				t.Fatalf("validateChecksums() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !strings.Contains(err.Error(), "000002") {
				t.Errorf("error should name the modified version: %v", err)
			}
		})
	}
}

func TestProjectMigrationsParse(t *testing.T) {
	migrations, err := ReadMigrationFiles(filepath.Join("..", "..", "migrations"))
	if err != nil {
		t.Fatalf("ReadMigrationFiles() error = %v", err)
	}
	if len(migrations) == 0 {
		t.Fatal("expected at least one migration")
	}
	for _, m := range migrations {
		if m.DownSQL == "" {
			t.Errorf("migration %s has no down script", m.Version)
		}
	}
}
