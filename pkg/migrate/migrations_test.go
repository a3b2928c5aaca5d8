package migrate

import (
	"os"
	"strings"
	"testing"
)

func TestMigrationsDirIsValid(t *testing.T) {
	if err := ValidateDir("migrations"); err != nil {
		t.Fatalf("migrations dir invalid: %v", err)
	}
}

func TestMigrationsCoverCoreTables(t *testing.T) {
	entries, err := os.ReadDir("migrations")
	if err != nil {
		t.Fatalf("read migrations: %v", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	joined := strings.Join(names, " ")

	for _, table := range []string{"users", "shows", "share_links", "user_subscriptions", "user_entitlements"} {
		if !strings.Contains(joined, table) {
			t.Fatalf("missing migration for table %s (have %s)", table, joined)
		}
	}
}
