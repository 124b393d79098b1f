package logger

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogFile is the name of the rotated log file inside the log directory.
const LogFile = "calversion.log"

var levelMap = map[int]zapcore.Level{
	5: zapcore.DebugLevel,
	4: zapcore.InfoLevel,
	3: zapcore.WarnLevel,
	2: zapcore.ErrorLevel,
}

// Level maps the numeric setting (2 error .. 5 debug) to a zap level.
// Unknown values fall back to info.
func Level(ll int) zapcore.Level {
	if l, ok := levelMap[ll]; ok {
		return l
	}
	return zapcore.InfoLevel
}

// New builds a logger writing human-readable lines to stderr and, when
// logDir is set, JSON lines to a rotated file in logDir.
func New(logDir string, ll int) *zap.SugaredLogger {
	atom := zap.NewAtomicLevelAt(Level(ll))

	consoleCfg := zap.NewDevelopmentEncoderConfig()
	consoleCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), zapcore.Lock(os.Stderr), atom),
	}

	if logDir != "" {
		w := zapcore.AddSync(&lumberjack.Logger{
			Filename:   filepath.Join(logDir, LogFile),
			MaxSize:    10, // megabytes
			MaxBackups: 10,
			MaxAge:     5, // days
		})
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			w,
			atom,
		))
	}

	return zap.New(zapcore.NewTee(cores...)).Sugar()
}

// Nop returns a logger that discards everything.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
