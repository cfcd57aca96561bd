package loadctl

// Both are nil by default, so the package is silent unless the caller
// plugs a logger in, e.g. log.Printf or a zap SugaredLogger's Infof.
var (
	InfoLogFunc  func(format string, a ...any)
	DebugLogFunc func(format string, a ...any)
)

func log(f string, a ...any) {
	if fn := InfoLogFunc; fn != nil {
		fn(f, a...)
	}
}

func debugLog(f string, a ...any) {
	if fn := DebugLogFunc; fn != nil {
		fn(f, a...)
	}
}
