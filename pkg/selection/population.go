package selection

import (
	"github.com/cuemby/randpick/pkg/log"
	"github.com/cuemby/randpick/pkg/types"
)

// Scope decides which students take part in a draw
type Scope struct {
	// Global draws from every active student
	Global bool

	// Groups lists the enabled group indices used when Global is false
	Groups []int
}

// Roster is the view of the roster a population is built from
type Roster interface {
	ActiveIndices() []int
	Group(index int) (types.Group, bool)
	GroupMemberIndices(group types.Group) []int
}

// Settings is the view of the configuration a scope is read from
type Settings interface {
	Bool(section, key string, fallback bool) bool
	IntList(section, key string) []int
}

// ScopeFromConfig reads Group/global and Group/groups
func ScopeFromConfig(cfg Settings) Scope {
	return Scope{
		Global: cfg.Bool("Group", "global", true),
		Groups: cfg.IntList("Group", "groups"),
	}
}

// Population returns the candidate roster positions for scope.
//
// Grouped scopes take the union of the enabled groups' members in group
// order, keeping the first occurrence of a student that sits in several
// groups. Group members are drawn whether or not they are active. A grouped
// scope with no enabled groups falls back to the global population.
func Population(roster Roster, scope Scope) []int {
	if scope.Global || len(scope.Groups) == 0 {
		return roster.ActiveIndices()
	}

	logger := log.WithComponent("selection")
	seen := make(map[int]bool)
	population := make([]int, 0)

	for _, gi := range scope.Groups {
		group, ok := roster.Group(gi)
		if !ok {
			logger.Warn().Int("group_index", gi).Msg("Enabled group does not exist, skipping")
			continue
		}
		for _, idx := range roster.GroupMemberIndices(group) {
			if seen[idx] {
				continue
			}
			seen[idx] = true
			population = append(population, idx)
		}
	}

	logger.Debug().Ints("groups", scope.Groups).Int("population", len(population)).Msg("Built grouped population")
	return population
}

// UniformWeights reports whether every weight equals the first one
func UniformWeights(weights []float64) bool {
	for _, w := range weights {
		if w != weights[0] {
			return false
		}
	}
	return true
}
