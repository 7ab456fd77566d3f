package picker

import (
	"fmt"
	"strconv"

	"github.com/cuemby/randpick/pkg/events"
	"github.com/cuemby/randpick/pkg/types"
)

// CreateGroup appends a group with the given members
func (p *Picker) CreateGroup(name string, members []types.StudentID) error {
	groups := p.roster.Groups()
	if _, ok := findGroup(groups, name); ok {
		return fmt.Errorf("%w: %s", ErrGroupExists, name)
	}
	if err := p.checkMembers(members); err != nil {
		return err
	}

	groups = append(groups, types.Group{Name: name, Members: append([]types.StudentID(nil), members...)})
	if err := p.roster.SaveAll(nil, &groups); err != nil {
		return err
	}

	p.logger.Info().Str("group", name).Int("members", len(members)).Msg("Group created")
	p.broker.Publish(&events.Event{
		Type:     events.EventGroupCreated,
		Message:  fmt.Sprintf("Created group %s", name),
		Metadata: map[string]string{"group": name},
	})
	return nil
}

// DeleteGroup removes the first group named name
func (p *Picker) DeleteGroup(name string) error {
	groups := p.roster.Groups()
	i, ok := findGroup(groups, name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrGroupNotFound, name)
	}

	groups = append(groups[:i], groups[i+1:]...)
	if err := p.roster.SaveAll(nil, &groups); err != nil {
		return err
	}

	p.logger.Info().Str("group", name).Msg("Group deleted")
	p.broker.Publish(&events.Event{
		Type:     events.EventGroupDeleted,
		Message:  fmt.Sprintf("Deleted group %s", name),
		Metadata: map[string]string{"group": name},
	})
	return nil
}

// RenameGroup changes a group's name, keeping its members and position
func (p *Picker) RenameGroup(oldName, newName string) error {
	groups := p.roster.Groups()
	i, ok := findGroup(groups, oldName)
	if !ok {
		return fmt.Errorf("%w: %s", ErrGroupNotFound, oldName)
	}
	if _, taken := findGroup(groups, newName); taken && newName != oldName {
		return fmt.Errorf("%w: %s", ErrGroupExists, newName)
	}

	groups[i].Name = newName
	return p.saveGroups(groups, fmt.Sprintf("Renamed group %s to %s", oldName, newName))
}

// SetGroupMembers replaces a group's member list
func (p *Picker) SetGroupMembers(name string, members []types.StudentID) error {
	groups := p.roster.Groups()
	i, ok := findGroup(groups, name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrGroupNotFound, name)
	}
	if err := p.checkMembers(members); err != nil {
		return err
	}

	groups[i].Members = append([]types.StudentID(nil), members...)
	return p.saveGroups(groups, fmt.Sprintf("Updated members of group %s", name))
}

// ImportStudents merges or replaces the student list
func (p *Picker) ImportStudents(students []types.Student, replace bool) error {
	if err := p.roster.Import(students, replace); err != nil {
		return err
	}

	p.logger.Info().Int("students", len(students)).Bool("replace", replace).Msg("Students imported")
	p.broker.Publish(&events.Event{
		Type:    events.EventRosterImported,
		Message: fmt.Sprintf("Imported %d students", len(students)),
		Metadata: map[string]string{
			"count":   strconv.Itoa(len(students)),
			"replace": strconv.FormatBool(replace),
		},
	})
	return nil
}

// ResetWeights gives every student the same weight
func (p *Picker) ResetWeights(w float64) error {
	if err := p.roster.ResetWeights(w); err != nil {
		return err
	}
	p.publishRosterSaved(fmt.Sprintf("Reset all weights to %g", w))
	return nil
}

// ResetActive marks every student active or inactive
func (p *Picker) ResetActive(active bool) error {
	if err := p.roster.ResetActive(active); err != nil {
		return err
	}
	p.publishRosterSaved(fmt.Sprintf("Set every student active=%t", active))
	return nil
}

// ClearHistory empties the history log
func (p *Picker) ClearHistory() error {
	if err := p.history.Clear(); err != nil {
		return err
	}
	p.broker.Publish(&events.Event{
		Type:    events.EventHistoryCleared,
		Message: "History cleared",
	})
	return nil
}

// Configure writes section, key, value triples to the override config
func (p *Picker) Configure(args ...string) error {
	if err := p.config.Write(args...); err != nil {
		return err
	}
	for i := 0; i+2 < len(args); i += 3 {
		p.broker.Publish(&events.Event{
			Type:    events.EventConfigChanged,
			Message: fmt.Sprintf("Set %s.%s", args[i], args[i+1]),
			Metadata: map[string]string{
				"section": args[i],
				"key":     args[i+1],
				"value":   args[i+2],
			},
		})
	}
	return nil
}

func (p *Picker) saveGroups(groups []types.Group, message string) error {
	if err := p.roster.SaveAll(nil, &groups); err != nil {
		return err
	}
	p.publishRosterSaved(message)
	return nil
}

func (p *Picker) publishRosterSaved(message string) {
	p.logger.Info().Msg(message)
	p.broker.Publish(&events.Event{
		Type:    events.EventRosterSaved,
		Message: message,
	})
}

func (p *Picker) checkMembers(members []types.StudentID) error {
	for _, id := range members {
		if _, ok := p.roster.FindStudentIndexByID(id); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownStudent, id)
		}
	}
	return nil
}

func findGroup(groups []types.Group, name string) (int, bool) {
	for i, g := range groups {
		if g.Name == name {
			return i, true
		}
	}
	return 0, false
}
