/*
Package health checks the randpick data directory.

A Checker inspects one thing and returns a Result; Run performs a list of
checkers, each under its own timeout, and returns a Report per checker. The
"doctor" command prints these reports.

# Checkers

DocumentChecker reads a stored document and verifies it parses, as JSON or
INI. Documents that have not been created yet pass unless Required is set,
since every component treats a missing document as empty.

RosterChecker loads the roster and fails when nothing can be drawn (no active
student with a positive weight), when two students share an id, or when a
group lists an id that is not in the roster.

	reports := health.Run(ctx, health.DefaultConfig(),
		health.NewJSONChecker(backend, storage.RosterDocument),
		health.NewINIChecker(backend, storage.ConfigDocument),
		health.NewRosterChecker(store),
	)
	if !health.Healthy(reports) {
		os.Exit(1)
	}
*/
package health
