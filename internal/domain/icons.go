package domain

import "strings"

// Category icon tags that can be attached to a task.
const (
	IconEnergy = "energy"
	IconEffort = "effort"
	IconCalm   = "calm"
	IconDaily  = "daily"
)

// ValidIcons is the canonical set of accepted icon tags.
var ValidIcons = map[string]bool{
	IconEnergy: true, IconEffort: true, IconCalm: true, IconDaily: true,
}

const gradientPrefix = "linear-gradient"

// IsGradient reports whether a background reference is a gradient token
// rather than an image path.
func IsGradient(ref string) bool {
	return strings.HasPrefix(ref, gradientPrefix)
}
