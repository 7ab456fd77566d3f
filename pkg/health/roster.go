package health

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cuemby/randpick/pkg/types"
)

// RosterSource loads the full roster
type RosterSource interface {
	LoadAll() ([]types.Student, []types.Group, error)
}

// RosterChecker verifies the roster can produce a draw and that its ids and
// group members are consistent
type RosterChecker struct {
	roster RosterSource
}

// NewRosterChecker creates a roster checker
func NewRosterChecker(roster RosterSource) *RosterChecker {
	return &RosterChecker{roster: roster}
}

// Check inspects the loaded roster
func (r *RosterChecker) Check(ctx context.Context) Result {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return result(start, false, fmt.Sprintf("check cancelled: %v", err))
	}

	students, groups, err := r.roster.LoadAll()
	if err != nil {
		return result(start, false, fmt.Sprintf("load failed: %v", err))
	}

	var problems []string

	ids := make(map[types.StudentID]bool, len(students))
	selectable := 0
	for _, s := range students {
		if ids[s.ID] {
			problems = append(problems, fmt.Sprintf("duplicate id %s", s.ID))
		}
		ids[s.ID] = true
		if s.Active && s.Weight > 0 {
			selectable++
		}
	}
	if selectable == 0 {
		problems = append(problems, "no active student with a positive weight")
	}

	for _, g := range groups {
		for _, id := range g.Members {
			if !ids[id] {
				problems = append(problems, fmt.Sprintf("group %s lists unknown student %s", g.Name, id))
			}
		}
	}

	if len(problems) > 0 {
		return result(start, false, strings.Join(problems, "; "))
	}
	return result(start, true, fmt.Sprintf("%d students (%d selectable), %d groups", len(students), selectable, len(groups)))
}

// Type returns the health check type
func (r *RosterChecker) Type() CheckType {
	return CheckTypeRoster
}

// Name identifies the check
func (r *RosterChecker) Name() string {
	return "roster"
}
