/*
Package roster owns the students and groups of randpick.

Both lists live in one JSON document, students.json:

	{
	    "students": [{"id": "1", "name": "Alice", "weight": 1, "active": true}],
	    "groups":   [{"name": "Table 1", "members": ["1"], "stu": [0]}]
	}

Every getter re-reads the document before answering, so manual edits are
seen without a restart. Positions returned by the store are zero-based and
refer to the students list as it was at that read.

# Groups

Group membership is stored as student ids and resolved to positions at read
time, so reordering or deleting students never points a group at the wrong
person. The positional "stu" list is still written on every save for older
readers, and documents that only carry "stu" are migrated on load.

# Errors

Lookups never fail: Student returns the "no result" sentinel and the other
finders report ok=false. A document that cannot be parsed is backed up next
to the original and the store continues with an empty roster. SaveAll
validates every student and group before writing anything.
*/
package roster
