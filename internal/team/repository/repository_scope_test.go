package repository

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestBuildListWhereIsTenantScoped(t *testing.T) {
	role := "sales_manager"
	active := true
	where, args := buildListWhere(ListParams{
		OrganizationID: uuid.New(),
		Role:           &role,
		Active:         &active,
		Search:         "jane",
	})

	if !strings.HasPrefix(where, "organization_id = $1") {
		t.Fatalf("expected organization filter first, got %q", where)
	}
	for _, fragment := range []string{"role = $2", "is_active = $3", "full_name ILIKE $4"} {
		if !strings.Contains(where, fragment) {
			t.Fatalf("expected fragment %q in %q", fragment, where)
		}
	}
	if len(args) != 4 || args[3] != "%jane%" {
		t.Fatalf("unexpected args %v", args)
	}
}

func TestBuildListWhereEscapesSearchWildcards(t *testing.T) {
	_, args := buildListWhere(ListParams{OrganizationID: uuid.New(), Search: "j_doe"})
	if len(args) != 2 || args[1] != `%j\_doe%` {
		t.Fatalf("expected underscore to match literally, got %v", args)
	}
}
