// Package logger wraps a process-wide zap logger. It logs to the console
// until Init is called.
package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	// FileName is the log file written under the configured directory.
	FileName = "mlinfer.log"

	encodeTimeFormat = "2006-01-02 15:04:05.000"

	defaultRotateMaxSize    = 100
	defaultRotateMaxAge     = 7
	defaultRotateMaxBackups = 10
)

// RotateConfig controls lumberjack file rotation. Zero values take defaults.
type RotateConfig struct {
	MaxSize    int
	MaxAge     int
	MaxBackups int
}

var (
	level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	sugar *zap.SugaredLogger
)

func init() {
	log, err := newConsoleLogger()
	if err != nil {
		log = zap.NewNop()
	}
	sugar = log.Sugar()
}

// Init switches the process logger to the console or to a rotated JSON file
// under dir.
func Init(console bool, dir string, rotate RotateConfig) error {
	if console {
		log, err := newConsoleLogger()
		if err != nil {
			return err
		}
		SetLogger(log.Sugar())
		return nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	if rotate.MaxSize <= 0 {
		rotate.MaxSize = defaultRotateMaxSize
	}
	if rotate.MaxAge <= 0 {
		rotate.MaxAge = defaultRotateMaxAge
	}
	if rotate.MaxBackups <= 0 {
		rotate.MaxBackups = defaultRotateMaxBackups
	}

	writer := &lumberjack.Logger{
		Filename:   filepath.Join(dir, FileName),
		MaxSize:    rotate.MaxSize,
		MaxAge:     rotate.MaxAge,
		MaxBackups: rotate.MaxBackups,
		LocalTime:  true,
		Compress:   true,
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(encodeTimeFormat)
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(writer), level)

	SetLogger(zap.New(core, zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel), zap.AddCallerSkip(1)).Sugar())
	return nil
}

func newConsoleLogger() (*zap.Logger, error) {
	config := zap.NewDevelopmentConfig()
	config.Level = level
	config.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(encodeTimeFormat)
	return config.Build(zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel), zap.AddCallerSkip(1))
}

func SetLogger(log *zap.SugaredLogger) {
	sugar = log
}

// SetLevel changes the level of every logger created by this package.
func SetLevel(l zapcore.Level) {
	if level.Level() == l {
		return
	}
	Infof("change log level to %s", l.String())
	level.SetLevel(l)
}

// ParseLevel accepts zap level names such as debug, info, warn, error.
func ParseLevel(text string) (zapcore.Level, error) {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(text)); err != nil {
		return l, err
	}
	return l, nil
}

func Level() zapcore.Level {
	return level.Level()
}

func With(args ...interface{}) *zap.SugaredLogger {
	return sugar.With(args...)
}

func Debugf(template string, args ...interface{}) {
	sugar.Debugf(template, args...)
}

func Infof(template string, args ...interface{}) {
	sugar.Infof(template, args...)
}

func Info(args ...interface{}) {
	sugar.Info(args...)
}

func Warnf(template string, args ...interface{}) {
	sugar.Warnf(template, args...)
}

func Errorf(template string, args ...interface{}) {
	sugar.Errorf(template, args...)
}

func Error(args ...interface{}) {
	sugar.Error(args...)
}

func Sync() {
	_ = sugar.Sync()
}
