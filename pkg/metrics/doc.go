/*
Package metrics exposes Prometheus metrics for randpick.

randpick is a short-lived command, so metrics are not served over HTTP.
With --metrics-file the CLI writes the default registry in the text
exposition format after each command, ready for a node_exporter textfile
collector.

# Metrics

Selection:
  - randpick_picks_total{mode}: draws by history mode
  - randpick_no_result_total{mode}: draws that found nothing selectable
  - randpick_population_size: candidates per person draw

Roster:
  - randpick_students_total{state}: active and inactive students
  - randpick_groups_total: groups
  - randpick_roster_reload_duration_seconds: time to re-read students.json

History and storage:
  - randpick_history_entries: entries held in memory
  - randpick_history_persist_failures_total: entries that could not be written
  - randpick_corrupt_documents_total{document}: documents reset after a parse failure

# Usage

	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.RosterReloadDuration)

	metrics.NewCollector(store, historyLog).Collect()
	if err := metrics.WriteTextfile("/var/lib/node_exporter/randpick.prom"); err != nil {
		return err
	}
*/
package metrics
