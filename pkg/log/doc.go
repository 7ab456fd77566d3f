/*
Package log provides structured logging for randpick using zerolog.

Every component logs through the global Logger, usually via a child logger
that carries a component field, so output can be filtered per component:

	2024-06-03T10:15:00+02:00 WRN Roster document is corrupt, continuing with an empty roster backup=students.json.corrupt-1717402500000000000 component=roster document=students.json

# Configuration

Init must run before components are constructed, since child loggers copy
the global logger when they are created:

	log.Init(log.Config{
		Level:      log.ParseLevel("debug"),
		JSONOutput: true,
	})

Console output is the default and goes to stderr, leaving stdout to command
results. JSONOutput switches to one JSON object per line.

# Child Loggers

	logger := log.WithComponent("picker")
	logger.Info().Int("index", 3).Msg("Student selected")

	logger = log.WithDocument("history", "log/history.json")
	logger.Warn().Err(err).Msg("History document is corrupt")

	logger = log.WithStudentID("1001")

# Levels

debug shows every config lookup and history write, info shows draws and
roster changes, warn shows recoverable problems such as corrupt documents,
and error shows failed writes. The CLI defaults to warn.
*/
package log
