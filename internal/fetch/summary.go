package fetch

import (
	"fmt"
	"strings"
)

// FormatSyncSummary returns a human-readable summary of a SyncResult.
func FormatSyncSummary(result SyncResult) string {
	if result.Fetched == 0 {
		msg := "Found 0 work orders."
		if result.Dropped > 0 {
			msg = fmt.Sprintf("Found 0 usable work orders (%d dropped).", result.Dropped)
		}
		return withWarnings(msg, result.PersistenceErrors)
	}

	msg := fmt.Sprintf("Fetched %d work orders", result.Fetched)
	if result.Dropped > 0 {
		msg += fmt.Sprintf(" (%d dropped)", result.Dropped)
	}
	msg += fmt.Sprintf(": %d qualifying, %d persisted, %d in session",
		result.Qualifying, result.Upserted, result.Transient)

	if result.DetailRequested > 0 {
		parts := []string{fmt.Sprintf("%d fetched", result.DetailFetched)}
		if result.DetailSkipped > 0 {
			parts = append(parts, fmt.Sprintf("%d skipped", result.DetailSkipped))
		}
		if result.DetailFailed > 0 {
			parts = append(parts, fmt.Sprintf("%d failed", result.DetailFailed))
		}
		if result.DetailsPersisted > 0 {
			parts = append(parts, fmt.Sprintf("%d saved", result.DetailsPersisted))
		}
		msg += fmt.Sprintf("; details for %d orders: %s", result.DetailRequested, strings.Join(parts, ", "))
	}
	msg += "."
	return withWarnings(msg, result.PersistenceErrors)
}

func withWarnings(msg string, warnings []string) string {
	if len(warnings) == 0 {
		return msg
	}
	return msg + fmt.Sprintf("\nWarnings:\n%s", strings.Join(warnings, "\n"))
}
