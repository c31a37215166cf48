package latency

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// LogLevel represents severity.
type LogLevel int32

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	}
	return "info"
}

var levelNames = map[string]LogLevel{
	"debug":   LevelDebug,
	"info":    LevelInfo,
	"warn":    LevelWarn,
	"warning": LevelWarn,
	"error":   LevelError,
}

var currentLevel = int32(LevelInfo)

var (
	logMu      sync.Mutex
	logOut     io.Writer = os.Stderr
	baseLogger           = log.New(logOut, "", log.Ldate|log.Ltime|log.Lmicroseconds)
)

// SetLogLevel parses and sets the global log level. Unknown names are reported
// back as false and leave the level untouched.
func SetLogLevel(s string) bool {
	l, ok := levelNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return false
	}
	atomic.StoreInt32(&currentLevel, int32(l))
	return true
}

// GetLogLevel returns the current global log level.
func GetLogLevel() LogLevel { return LogLevel(atomic.LoadInt32(&currentLevel)) }

// SetLogOutput redirects log lines to w and returns the previous writer.
// Lines written to anything but stderr carry no timestamp.
func SetLogOutput(w io.Writer) io.Writer {
	logMu.Lock()
	defer logMu.Unlock()
	prev := logOut
	logOut = w
	flags := 0
	if w == os.Stderr {
		flags = log.Ldate | log.Ltime | log.Lmicroseconds
	}
	baseLogger = log.New(w, "", flags)
	return prev
}

func logf(l LogLevel, format string, args ...interface{}) {
	if GetLogLevel() > l {
		return
	}
	msg := format
	// a finished message may carry literal % signs (e.g. "100.0% of rows")
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	logMu.Lock()
	lg := baseLogger
	logMu.Unlock()
	lg.Printf("[%s] %s", strings.ToUpper(l.String()), msg)
}

func Debugf(format string, a ...interface{}) { logf(LevelDebug, format, a...) }
func Infof(format string, a ...interface{})  { logf(LevelInfo, format, a...) }
func Warnf(format string, a ...interface{})  { logf(LevelWarn, format, a...) }
func Errorf(format string, a ...interface{}) { logf(LevelError, format, a...) }

// TimeTrack logs how long a phase took, at debug level. Use as
// defer TimeTrack(time.Now(), "load").
func TimeTrack(start time.Time, label string) {
	Debugf("%s took %s", label, time.Since(start).Round(time.Microsecond))
}
