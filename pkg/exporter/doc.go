// Package exporter writes the selection history as CSV, XLSX or JSON.
package exporter
