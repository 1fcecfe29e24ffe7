package repository

import (
	"strings"
	"testing"
)

func TestMembershipQueryJoinsOrganization(t *testing.T) {
	query := strings.ToLower(membershipQuery)

	for _, fragment := range []string{
		"from crm_team_members tm",
		"join crm_organizations o on o.id = tm.organization_id",
		"where tm.user_id = $1",
	} {
		if !strings.Contains(query, fragment) {
			t.Fatalf("expected membership query fragment %q", fragment)
		}
	}
}

func TestPendingMemberQueryOnlyMatchesUnlinkedActiveProfiles(t *testing.T) {
	query := strings.ToLower(pendingMemberQuery)

	for _, fragment := range []string{"tm.user_id is null", "tm.is_active", "lower(tm.email) = lower($1)"} {
		if !strings.Contains(query, fragment) {
			t.Fatalf("expected pending member query fragment %q", fragment)
		}
	}
}
