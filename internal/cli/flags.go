package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/pflag"

	"github.com/alexanderramin/boardsync/internal/domain"
)

// iconsValue is a repeatable, comma-separated flag of icon tags.
type iconsValue []string

var _ pflag.Value = (*iconsValue)(nil)

func (v *iconsValue) String() string { return strings.Join(*v, ",") }

func (v *iconsValue) Type() string { return "icons" }

func (v *iconsValue) Set(s string) error {
	for _, part := range strings.Split(s, ",") {
		icon := strings.ToLower(strings.TrimSpace(part))
		if icon == "" {
			continue
		}
		if !domain.ValidIcons[icon] {
			return fmt.Errorf("unknown icon %q (want energy, effort, calm or daily)", part)
		}
		if !slices.Contains(*v, icon) {
			*v = append(*v, icon)
		}
	}
	return nil
}

func iconsFlag(fs *pflag.FlagSet, v *iconsValue) {
	fs.Var(v, "icon", "Icon tags: energy, effort, calm, daily (repeatable)")
}
