package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/boardsync/internal/coordinator"
)

// BackupStatus is the backup half of the status dashboard.
type BackupStatus struct {
	Authenticated bool
	AutoEnabled   bool
	IntervalHours int
	LastBackup    time.Time
}

// FormatStatus renders the sync and backup state as a two-column table.
func FormatStatus(s coordinator.Status, b BackupStatus, now time.Time) string {
	live := StyleYellow.Render("polling off")
	if s.Live {
		live = StyleGreen.Render("live")
	}
	if s.Closed {
		live = StyleRed.Render("closed")
	}

	pending := Dim("none")
	if s.PendingSaves {
		pending = StyleYellow.Render("waiting")
	}

	drive := Dim("signed out")
	if b.Authenticated {
		drive = StyleGreen.Render("signed in")
	}
	auto := Dim("off")
	if b.AutoEnabled {
		auto = fmt.Sprintf("every %dh", b.IntervalHours)
	}

	rows := [][]string{
		{"storage", Bold(string(s.Kind))},
		{"updates", live},
		{"board saved", when(s.LastBoardSave, now)},
		{"users saved", when(s.LastUsersSave, now)},
		{"pending saves", pending},
		{"remote applied", fmt.Sprint(s.AppliedUpdates)},
		{"remote blocked", blocked(s.BlockedUpdates)},
		{"drive", drive},
		{"auto backup", auto},
		{"last backup", when(b.LastBackup, now)},
	}
	var out strings.Builder
	out.WriteString(RenderTable([]string{"SYNC", ""}, rows))
	if s.BlockedUpdates > 0 {
		out.WriteString("\n\n")
		out.WriteString(StyleYellow.Render("Some remote updates were ignored because they would have wiped local data."))
	}
	return out.String()
}

func when(t, now time.Time) string {
	if t.IsZero() {
		return Dim("never")
	}
	return Ago(t, now)
}

func blocked(n int) string {
	if n == 0 {
		return "0"
	}
	return StyleRed.Render(fmt.Sprint(n))
}
