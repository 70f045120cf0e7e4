package bus

import "strings"

// Event code roots and well-known codes.
const (
	SensorsData    = "/sensors/data"
	SensorTempRoot = "/sensors/data/ds18b20/temp/"

	RelayData        = "/relay/data"
	RelayFlag        = "/relay/data/relay_flag"
	RelaySetFlag     = "/relay/settings/relay_flag"
	RelaySettingsDir = "/relay/settings"

	SystemSettings  = "/system/settings"
	SystemSleepFlag = "/system/settings/sleep_flag"
	SystemSleepTime = "/system/settings/sleep_time"
	SystemReset     = "/system/settings/reset"
)

// SensorTempCode returns the reading code for the probe named name.
func SensorTempCode(name string) string {
	return SensorTempRoot + name
}

// HasPrefix reports whether code lies under prefix in the path hierarchy.
// The match is segment-aware: "/relay/data" matches "/relay/data" and
// "/relay/data/relay_flag" but not "/relay/database". A prefix ending in '/'
// matches any code that starts with it.
func HasPrefix(code, prefix string) bool {
	if !strings.HasPrefix(code, prefix) {
		return false
	}
	if len(code) == len(prefix) || strings.HasSuffix(prefix, "/") {
		return true
	}
	return code[len(prefix)] == '/'
}
