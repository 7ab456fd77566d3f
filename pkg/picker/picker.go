package picker

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cuemby/randpick/pkg/config"
	"github.com/cuemby/randpick/pkg/events"
	"github.com/cuemby/randpick/pkg/history"
	"github.com/cuemby/randpick/pkg/log"
	"github.com/cuemby/randpick/pkg/metrics"
	"github.com/cuemby/randpick/pkg/roster"
	"github.com/cuemby/randpick/pkg/selection"
	"github.com/cuemby/randpick/pkg/types"
)

var (
	// ErrGroupExists is returned when creating or renaming onto a taken name
	ErrGroupExists = errors.New("group already exists")

	// ErrGroupNotFound is returned when no group has the given name
	ErrGroupNotFound = errors.New("group not found")

	// ErrUnknownStudent is returned when a member id is not in the roster
	ErrUnknownStudent = errors.New("unknown student")
)

// Result is the outcome of one draw.
// When Found is false Student holds the "no result" sentinel.
type Result struct {
	Mode        types.Mode
	Index       int
	Student     types.Student
	Group       types.Group
	MemberNames []string
	Found       bool

	// Err reports a history write failure; the draw itself still happened
	Err error
}

// Picker runs draws against the roster and records them in the history
type Picker struct {
	config  *config.Resolver
	roster  *roster.Store
	history *history.Log
	engine  *selection.Engine
	broker  *events.Broker
	logger  zerolog.Logger
}

// New creates a picker. broker may be nil.
func New(cfg *config.Resolver, store *roster.Store, hist *history.Log, engine *selection.Engine, broker *events.Broker) *Picker {
	return &Picker{
		config:  cfg,
		roster:  store,
		history: hist,
		engine:  engine,
		broker:  broker,
		logger:  log.WithComponent("picker"),
	}
}

// PickPerson draws one student from the configured scope
func (p *Picker) PickPerson(note string) Result {
	results := p.PickPeople(1, note)
	return results[0]
}

// PickPeople draws k distinct students and records one history entry per
// student. An empty population yields a single "no result".
func (p *Picker) PickPeople(k int, note string) []Result {
	if k < 1 {
		k = 1
	}

	scope := selection.ScopeFromConfig(p.config)
	population := selection.Population(p.roster, scope)
	weights := p.roster.Weights(population)
	metrics.PopulationSize.Observe(float64(len(population)))

	mode := types.ModeWeighted
	if selection.UniformWeights(weights) {
		mode = types.ModePerson
	}

	var picked []int
	if k == 1 {
		if idx, ok := p.engine.PickPerson(population, weights); ok {
			picked = []int{idx}
		}
	} else {
		picked = p.engine.PickMany(population, weights, k)
	}
	if len(picked) == 0 {
		return []Result{p.noResult(types.ModePerson, len(population))}
	}

	results := make([]Result, 0, len(picked))
	for _, idx := range picked {
		st, ok := p.roster.Lookup(idx)
		if !ok {
			// The roster shrank between building the population and the lookup
			results = append(results, p.noResult(mode, len(population)))
			continue
		}

		result := Result{
			Mode:    mode,
			Index:   idx,
			Student: st,
			Found:   true,
		}
		result.Err = p.record(types.HistoryEntry{
			Mode:    mode,
			Subject: types.StudentSubject(st),
			Note:    note,
		})

		metrics.PicksTotal.WithLabelValues(string(mode)).Inc()
		studentLogger := log.WithStudentID(string(st.ID))
		studentLogger.Info().
			Str("component", "picker").
			Int("index", idx).
			Str("name", st.Name).
			Float64("weight", st.Weight).
			Str("mode", string(mode)).
			Msg("Student selected")
		p.broker.Publish(&events.Event{
			Type:    events.EventPersonSelected,
			Message: fmt.Sprintf("Selected %s", st.Name),
			Metadata: map[string]string{
				"student_id": string(st.ID),
				"index":      strconv.Itoa(idx),
				"mode":       string(mode),
			},
		})
		results = append(results, result)
	}
	return results
}

// PickGroup draws one group uniformly. Without any groups it falls back to
// PickPerson over the configured scope.
func (p *Picker) PickGroup(note string) Result {
	groups := p.roster.Groups()

	gi, ok := p.engine.PickGroup(len(groups))
	if !ok {
		p.logger.Info().Msg("No groups defined, falling back to a person draw")
		return p.PickPerson(note)
	}

	group := groups[gi]
	names := p.roster.GroupMemberNames(group)

	result := Result{
		Mode:        types.ModeGroup,
		Index:       gi,
		Group:       group,
		MemberNames: names,
		Found:       true,
	}
	result.Err = p.record(types.HistoryEntry{
		Mode:    types.ModeGroup,
		Subject: types.GroupSubject(group, names),
		Note:    note,
	})

	metrics.PicksTotal.WithLabelValues(string(types.ModeGroup)).Inc()
	p.logger.Info().
		Int("index", gi).
		Str("group", group.Name).
		Strs("members", names).
		Msg("Group selected")
	p.broker.Publish(&events.Event{
		Type:    events.EventGroupSelected,
		Message: fmt.Sprintf("Selected group %s", group.Name),
		Metadata: map[string]string{
			"group":   group.Name,
			"index":   strconv.Itoa(gi),
			"members": strings.Join(names, ", "),
		},
	})
	return result
}

func (p *Picker) noResult(mode types.Mode, population int) Result {
	metrics.NoResultTotal.WithLabelValues(string(mode)).Inc()
	p.logger.Warn().Int("population", population).Msg("Nothing selectable, returning no result")
	p.broker.Publish(&events.Event{
		Type:    events.EventNoResult,
		Message: "Nothing selectable",
		Metadata: map[string]string{
			"mode": string(mode),
		},
	})
	return Result{
		Mode:    mode,
		Index:   -1,
		Student: types.NoResult(),
	}
}

func (p *Picker) record(entry types.HistoryEntry) error {
	if err := p.history.Add(entry); err != nil {
		return fmt.Errorf("selection not saved to history: %w", err)
	}
	return nil
}
