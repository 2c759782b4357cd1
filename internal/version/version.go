// Package version хранит информацию о сборке, заполняемую через -ldflags.
package version

import (
	"fmt"
	"runtime"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Info возвращает версию, коммит и дату сборки.
func Info() (v, c, d string) { return version, commit, date }

// String собирает строку для логов запуска и /healthz.
func String() string {
	return fmt.Sprintf("version=%s commit=%s date=%s go=%s", version, commit, date, runtime.Version())
}
