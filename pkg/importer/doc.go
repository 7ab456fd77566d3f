// Package importer reads student lists from CSV, XLSX and YAML files.
package importer
