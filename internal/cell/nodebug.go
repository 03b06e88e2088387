//go:build !chrono_debug

package cell

func assertf(cond bool, format string, args ...any) {}
