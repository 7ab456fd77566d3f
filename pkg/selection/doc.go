/*
Package selection draws students and groups for randpick.

The engine knows nothing about files or settings
and works on roster positions and weights handed to it by the caller. The
population for a draw is built separately from the roster and the Group
settings.

# Weighted Draws

PickPerson chooses one position with probability proportional to its
weight. Weights are relative, so {1, 3} means the second student is drawn
three times as often as the first. Zero weights are never drawn.

	engine := selection.NewDefault()
	population := selection.Population(store, selection.ScopeFromConfig(cfg))
	idx, ok := engine.PickPerson(population, store.Weights(population))
	if !ok {
		// nothing selectable, show the "no result" student
	}

PickMany repeats the draw without replacement and PickGroup picks a group
uniformly.

# Scopes

A Scope is either global (all active students) or grouped (the union of the
members of the enabled groups). The union is de-duplicated, so a student in
two enabled groups is not double-weighted:

	groups A={0,1} and B={1,2} enabled  ->  population [0 1 2]

# Testing

NewSeeded gives a reproducible engine for tests:

	engine := selection.NewSeeded(42)
*/
package selection
