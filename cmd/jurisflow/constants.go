package main

// Default limits for CLI commands.
const (
	DefaultSearchLimit = 10
	DefaultAuditLimit  = 50
)

// Valid timeline output formats.
var validFormats = []string{"table", "json", "csv", "markdown"}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
