package validate

import (
	"slices"

	"github.com/alexanderramin/boardsync/internal/domain"
)

// MigrateBoard rewrites tasks that still carry the legacy single-assignee
// field into the assignee list and drops the legacy field. It is idempotent
// and returns how many tasks were rewritten.
func MigrateBoard(b *domain.Board) int {
	if b == nil {
		return 0
	}
	migrated := 0
	for id, t := range b.Tasks {
		if t.LegacyAssignedUserID == "" {
			continue
		}
		if !slices.Contains(t.AssignedUserIDs, t.LegacyAssignedUserID) {
			t.AssignedUserIDs = append(slices.Clone(t.AssignedUserIDs), t.LegacyAssignedUserID)
		}
		t.LegacyAssignedUserID = ""
		b.Tasks[id] = t
		migrated++
	}
	return migrated
}
