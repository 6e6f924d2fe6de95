package cli

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/boardsync/internal/cli/formatter"
	"github.com/alexanderramin/boardsync/internal/domain"
)

// pick resolves input against candidate ids: exact id, then exact display
// id, then unique prefix of either. title, when set, also matches
// case-insensitively before prefixes are tried.
func pick(kind, input string, ids []string, title func(id string) string) (string, error) {
	if input == "" {
		return "", fmt.Errorf("%s is required", kind)
	}
	for _, id := range ids {
		if id == input || formatter.ShortID(id) == input {
			return id, nil
		}
	}
	if title != nil {
		var named []string
		for _, id := range ids {
			if strings.EqualFold(strings.TrimSpace(title(id)), strings.TrimSpace(input)) {
				named = append(named, id)
			}
		}
		if len(named) == 1 {
			return named[0], nil
		}
		if len(named) > 1 {
			return "", fmt.Errorf("%s name %q is ambiguous (%d matches)", kind, input, len(named))
		}
	}

	var matches []string
	for _, id := range ids {
		if strings.HasPrefix(id, input) || strings.HasPrefix(formatter.ShortID(id), input) {
			matches = append(matches, id)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%s not found: %q", kind, input)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%s ID prefix %q is ambiguous (%d matches)", kind, input, len(matches))
	}
}

// resolveColumn accepts a column id, its short form, its title or a
// unique id prefix.
func resolveColumn(b domain.Board, input string) (string, error) {
	return pick("column", input, b.ColumnOrder, func(id string) string { return b.Columns[id].Title })
}

// resolveTask accepts a task id, a unique prefix or the task's exact text.
func resolveTask(b domain.Board, input string) (string, error) {
	ids := make([]string, 0, len(b.Tasks))
	for _, col := range b.OrderedColumns() {
		ids = append(ids, col.TaskIDs...)
	}
	return pick("task", input, ids, func(id string) string { return b.Tasks[id].Content })
}

func resolveUser(r domain.Roster, input string) (string, error) {
	users := r.SortedUsers()
	ids := make([]string, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	return pick("user", input, ids, func(id string) string { return r.Users[id].Name })
}

func resolveUsers(r domain.Roster, inputs []string) ([]string, error) {
	out := make([]string, 0, len(inputs))
	for _, in := range inputs {
		id, err := resolveUser(r, in)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}
