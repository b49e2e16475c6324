package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/snapvault/widgetsync/internal/flagx"
	"github.com/snapvault/widgetsync/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so intervals can be written either as strings like "3s" or
// as integer nanoseconds. After parsing, values are copied into the runtime
// Config.
type JsonConfig struct {
	APIBaseURL           string         `json:"api_base_url"`
	APIToken             string         `json:"api_token"`
	RefreshIntervalHours int            `json:"refresh_interval_hours"`
	FlipInterval         timex.Duration `json:"flip_interval"`
	HTTPTimeout          timex.Duration `json:"http_timeout"`
	DataDir              string         `json:"data_dir"`
	CacheDir             string         `json:"cache_dir"`
}

// parseJson overlays cfg with values loaded from the JSON file named by the
// -c/-config flags. If no file is named, nothing happens. Read or unmarshal
// errors panic (caller should recover if desired). Zero-value fields in the
// file do not override existing settings.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.APIBaseURL != "" {
		cfg.APIBaseURL = jc.APIBaseURL
	}
	if jc.APIToken != "" {
		cfg.APIToken = jc.APIToken
	}
	if jc.RefreshIntervalHours > 0 {
		cfg.RefreshIntervalHours = jc.RefreshIntervalHours
	}
	if jc.FlipInterval.Duration > 0 {
		cfg.FlipInterval = time.Duration(jc.FlipInterval.Duration)
	}
	if jc.HTTPTimeout.Duration > 0 {
		cfg.HTTPTimeout = time.Duration(jc.HTTPTimeout.Duration)
	}
	if jc.DataDir != "" {
		cfg.DataDir = jc.DataDir
	}
	if jc.CacheDir != "" {
		cfg.CacheDir = jc.CacheDir
	}
}
