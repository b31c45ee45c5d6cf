package cli

import (
	"io"

	"gopkg.in/op/go-logging.v1"
)

var log = logging.MustGetLogger("sum")

func init() {
	logging.SetLevel(logging.WARNING, "sum")
}

const logFormat = "%{time:15:04:05.000} %{level:7s}: %{message}"

// InitLogging sends log records at or above level to w.
func InitLogging(w io.Writer, level logging.Level) {
	backend := logging.NewBackendFormatter(logging.NewLogBackend(w, "", 0), logging.MustStringFormatter(logFormat))
	leveled := logging.AddModuleLevel(backend)
	leveled.SetLevel(level, "")
	logging.SetBackend(leveled)
}
