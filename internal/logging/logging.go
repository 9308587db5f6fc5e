package logging

import (
	"fmt"
	"path/filepath"
	"time"
)

// LogFilePath names the log file for one run of appName. The timestamp is
// UTC so files from different hosts sort together.
func LogFilePath(logsDir, appName string, sessionStart time.Time) string {
	name := fmt.Sprintf("%s_%s.log", appName, sessionStart.UTC().Format("20060102T150405Z"))
	return filepath.Join(logsDir, name)
}
