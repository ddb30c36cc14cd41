package postgres

import (
	"io/fs"
	"strings"
	"testing"
)

func TestMigrationsDeclareUniqueness(t *testing.T) {
	t.Parallel()

	names, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(names) == 0 {
		t.Fatal("no migrations embedded")
	}

	var all strings.Builder
	for _, name := range names {
		body, err := migrations.ReadFile(name)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		all.Write(body)
	}
	schema := all.String()

	for _, want := range []string{
		"UNIQUE (user_id, listing_id)",
		"UNIQUE (listing_id, worker_id)",
		"UNIQUE (listing_id, employer_id, worker_id)",
		"(LEAST(employer_id, worker_id), GREATEST(employer_id, worker_id))",
		"REFERENCES conversations(id)",
		"CHECK (credits >= 0)",
	} {
		if !strings.Contains(schema, want) {
			t.Errorf("schema lacks %q", want)
		}
	}
}
