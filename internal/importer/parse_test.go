package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTaskContent(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"- [ ] Review PR (30 min)", "Review pr"},
		{"- Buy milk", "Buy milk"},
		{"* water plants", "Water plants"},
		{"• Stretch", "Stretch"},
		{"12. Call the bank", "Call the bank"},
		{"- [x] Done already", "X done already"},
		{"[Optional] read chapter", "Optional read chapter"},
		{"Write report (2 Hours)", "Write report"},
		{"Write report (1hr)", "Write report"},
		{"Deploy -- after standup", "Deploy"},
		{"Plan trip — flights first", "Plan trip"},
		{"Nap (later)", "Nap (later)"},
		{"   ", ""},
		{"- ", ""},
		{"émile's party", "Émile's party"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseTaskContent(tt.in))
		})
	}
}

func TestParseTasks(t *testing.T) {
	assert.Equal(t, []string{"Review pr", "Buy milk"}, ParseTasks("- [ ] Review PR (30 min)\n- Buy milk"))
	assert.Equal(t, []string{"One", "Two"}, ParseTasks("\n  one\r\n\n- \ntwo\n"))
	assert.Empty(t, ParseTasks(""))
}
