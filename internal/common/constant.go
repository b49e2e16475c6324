package common

import "fmt"

// Job and bookkeeping identifiers. The periodic refresh job is globally
// deduplicated under RefreshJobName; download jobs are unique per file id.
const (
	RefreshJobName = "widget_refresh_work"

	MetaLastUpdateTime   = "last_update_time"
	MetaCachedItemCount  = "cached_remind_count"
	MetaUpdateIntervalHr = "update_interval_hours"
)

// CacheFileName returns the image cache key for a file id.
func CacheFileName(fileID int64) string {
	return fmt.Sprintf("remind_%d.jpg", fileID)
}
