package version

import "fmt"

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Info возвращает компоненты версии, заполняемые через -ldflags.
func Info() (v, c, d string) { return version, commit, date }

// String собирает человекочитаемую строку версии.
func String() string {
	return fmt.Sprintf("version=%s commit=%s date=%s", version, commit, date)
}
