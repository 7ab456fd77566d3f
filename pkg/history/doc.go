// Package history keeps the newest-first log of selections in
// log/history.json. Whether entries reach the disk is decided by the
// History/record setting at the moment each entry is added, and the
// persisted log is capped at History/max entries.
package history
