// Package monitoring carries the process-wide diagnostic log hook.
//
// Library packages report per-forward diagnostics (index coverage, run
// timing) through Logf instead of holding a logger of their own. The
// default sink is the stdlib logger; callers that want the output
// redirected or silenced install a replacement with SetLogger.
package monitoring

import "log"

// Logf emits one diagnostic line. Defaults to log.Printf. Replace it via
// SetLogger rather than assigning the variable directly.
var Logf func(format string, v ...interface{}) = log.Printf

// discard drops a diagnostic line.
func discard(string, ...interface{}) {}

// SetLogger installs f as the diagnostic sink. Passing nil mutes all
// diagnostics.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = discard
		return
	}
	Logf = f
}
