// Package tarlog provides the narrow structured-logging surface tarstream
// uses internally, the same way rclone's backends call through fs.Debugf/
// fs.Infof rather than reaching for logrus directly at every call site.
package tarlog

import "github.com/sirupsen/logrus"

var log = logrus.New()

// SetLevel adjusts verbosity; callers embedding tarstream in a CLI typically
// wire this to a --verbose flag.
func SetLevel(level logrus.Level) {
	log.SetLevel(level)
}

// Debugf logs at debug level. Disabled by default, matching logrus's
// InfoLevel default so embedding a Streamer in a quiet library context
// produces no output.
func Debugf(format string, args ...interface{}) {
	log.Debugf(format, args...)
}

// Infof logs at info level.
func Infof(format string, args ...interface{}) {
	log.Infof(format, args...)
}

// Errorf logs at error level.
func Errorf(format string, args ...interface{}) {
	log.Errorf(format, args...)
}
