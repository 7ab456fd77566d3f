/*
Package types defines the data model shared by every randpick package.

# Core Types

Roster:
  - Student: id, display name, relative weight, active flag
  - Group: named set of student ids
  - RosterDocument: the persisted {"students": [...], "groups": [...]} object

History:
  - HistoryEntry: mode, subject snapshot, timestamp, optional note
  - Subject: copy of the selected student or group taken at selection time
  - Mode: person, group, weighted, other
  - HistoryDocument: the persisted {"historys": [...]} object, newest first

# Compatibility

Roster and history files are plain JSON that people edit by hand and that
older releases wrote with looser types. Decoding is therefore lenient:

  - Student ids may be JSON numbers or strings; they are kept as strings.
  - Weights may be numbers or numeric strings; a missing weight means 1.
  - A missing active flag means the student is active.
  - Modes may be the legacy integer codes (0 person, 1 group).
  - Groups may carry only the legacy positional "stu" list; the roster
    package migrates those to id-based Members on load.

Encoding is strict: ids are written as strings, modes by name, and times as
"2006-01-02 15:04:05" in local time.

# Sentinel

NoResult returns the placeholder student
{id: "000000", name: "<no result>", weight: 1, active: true} that lookups and
draws hand back to the display layer instead of an error. Internally the
roster and selection packages use (value, ok) results and only convert to the
sentinel at their outer methods.
*/
package types
