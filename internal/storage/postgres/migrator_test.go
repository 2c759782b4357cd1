package postgres

import (
	"strings"
	"testing"
	"testing/fstest"
)

func TestLoadMigrationsFromFS(t *testing.T) {
	fsys := fstest.MapFS{
		"sql/migrations/0002_add_indexes.sql": {Data: []byte("CREATE INDEX i ON t (a);")},
		"sql/migrations/0001_shop_schema.sql": {Data: []byte("CREATE TABLE t (a INT);")},
	}

	migrations, err := loadMigrationsFromFS(fsys)
	if err != nil {
		t.Fatalf("loadMigrationsFromFS: %v", err)
	}
	if len(migrations) != 2 {
		t.Fatalf("expected 2 migrations, got %d", len(migrations))
	}
	// Применяются по возрастанию версии.
	if migrations[0].Version != 1 || migrations[1].Version != 2 {
		t.Fatalf("unexpected order: %d, %d", migrations[0].Version, migrations[1].Version)
	}
	if migrations[0].Name != "shop_schema" {
		t.Errorf("unexpected name: %s", migrations[0].Name)
	}
	if !strings.Contains(migrations[0].SQL, "CREATE TABLE") {
		t.Errorf("migration body lost: %q", migrations[0].SQL)
	}
}

func TestLoadMigrationsRejectsBadName(t *testing.T) {
	fsys := fstest.MapFS{
		"sql/migrations/first-bad name.sql": {Data: []byte("SELECT 1;")},
	}

	if _, err := loadMigrationsFromFS(fsys); err == nil {
		t.Fatal("expected error for malformed migration file name")
	}
}

func TestLoadMigrationsRejectsDuplicateVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"sql/migrations/0001_one.sql": {Data: []byte("SELECT 1;")},
		"sql/migrations/001_two.sql":  {Data: []byte("SELECT 2;")},
	}

	if _, err := loadMigrationsFromFS(fsys); err == nil {
		t.Fatal("expected error for duplicate migration version")
	}
}

func TestEmbeddedMigrationsAreWellFormed(t *testing.T) {
	migrations, err := loadMigrationsFromFS(migrationsFS)
	if err != nil {
		t.Fatalf("loadMigrationsFromFS(embedded): %v", err)
	}
	if len(migrations) == 0 {
		t.Fatal("expected at least one embedded migration")
	}
	for _, m := range migrations {
		if strings.TrimSpace(m.SQL) == "" {
			t.Errorf("migration %d_%s is empty", m.Version, m.Name)
		}
	}
}
