// Package picker ties the roster, the selection engine and the history log
// together. It builds the population from the Group settings, draws, records
// the draw and publishes an event for it. Group and roster maintenance that
// should be announced to subscribers also goes through here.
package picker
