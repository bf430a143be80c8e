package dedupe

import (
	"strings"

	"github.com/estate-crm/estate-crm-server/internal/models"
)

// Tolerances for considering two listings the same unit
const (
	AreaTolerance  = 50.0
	PriceTolerance = 10000
)

// Group is a set of listings believed to describe the same unit. The first
// element is the anchor the rest were matched against.
type Group []*models.Property

// Detect scans properties in order and groups likely duplicates. Each
// property joins at most one group: once grouped it is consumed and never
// reconsidered as an anchor or a match.
func Detect(properties []*models.Property) []Group {
	var groups []Group
	consumed := make(map[int]bool, len(properties))

	for i, anchor := range properties {
		if consumed[i] {
			continue
		}

		var matches []*models.Property
		var matchIndexes []int

		for j := i + 1; j < len(properties); j++ {
			if consumed[j] {
				continue
			}
			if isDuplicate(anchor, properties[j]) {
				matches = append(matches, properties[j])
				matchIndexes = append(matchIndexes, j)
			}
		}

		if len(matches) == 0 {
			continue
		}

		group := make(Group, 0, len(matches)+1)
		group = append(group, anchor)
		group = append(group, matches...)
		groups = append(groups, group)

		consumed[i] = true
		for _, j := range matchIndexes {
			consumed[j] = true
		}
	}

	return groups
}

// isDuplicate reports whether two listings describe the same unit: same
// address ignoring case, area within AreaTolerance sqft and price within
// PriceTolerance.
func isDuplicate(a, b *models.Property) bool {
	if !strings.EqualFold(a.Address, b.Address) {
		return false
	}
	if abs(a.AreaSqft-b.AreaSqft) > AreaTolerance {
		return false
	}
	if absInt(a.Price-b.Price) > PriceTolerance {
		return false
	}
	return true
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func absInt(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
