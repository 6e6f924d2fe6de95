package validate

import (
	"testing"

	"github.com/alexanderramin/boardsync/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestMigrateBoard_RewritesLegacyAssignee(t *testing.T) {
	b := domain.EmptyBoard()
	b.Tasks["t1"] = domain.Task{ID: "t1", LegacyAssignedUserID: "u1"}
	b.Tasks["t2"] = domain.Task{ID: "t2", AssignedUserIDs: []string{"u2"}, LegacyAssignedUserID: "u3"}
	b.Tasks["t3"] = domain.Task{ID: "t3", AssignedUserIDs: []string{"u4"}}

	n := MigrateBoard(&b)

	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"u1"}, b.Tasks["t1"].AssignedUserIDs)
	assert.Empty(t, b.Tasks["t1"].LegacyAssignedUserID)
	assert.Equal(t, []string{"u2", "u3"}, b.Tasks["t2"].AssignedUserIDs)
	assert.Equal(t, []string{"u4"}, b.Tasks["t3"].AssignedUserIDs)
}

func TestMigrateBoard_Idempotent(t *testing.T) {
	b := domain.EmptyBoard()
	b.Tasks["t1"] = domain.Task{ID: "t1", AssignedUserIDs: []string{"u1"}, LegacyAssignedUserID: "u1"}

	assert.Equal(t, 1, MigrateBoard(&b))
	assert.Equal(t, 0, MigrateBoard(&b))
	assert.Equal(t, []string{"u1"}, b.Tasks["t1"].AssignedUserIDs, "no duplicate assignee")
}

func TestMigrateBoard_Nil(t *testing.T) {
	assert.Equal(t, 0, MigrateBoard(nil))
}
