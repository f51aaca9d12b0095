package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pdu-collector/pkg/config"
)

type Logger = zap.Logger

var (
	// InitLogger 之前 baseLogger 为 nop，单测里可以直接调用
	baseLogger       = zap.NewNop()
	defaultCollector string
	loggerInitOnce   sync.Once
	mu               sync.RWMutex
)

const timeLayout = "2006-01-02 15:04:05.000 -07:00"

// InitLogger 初始化全局日志：控制台 + 按天切割的 JSON 文件
func InitLogger(cfg *config.ZapLogConfig) (*Logger, error) {
	var err error
	loggerInitOnce.Do(func() {
		level := parseLevel(cfg.Level)

		if err = os.MkdirAll(cfg.Path, 0755); err != nil {
			return
		}

		opts := []rotatelogs.Option{
			rotatelogs.WithRotationTime(24 * time.Hour),
		}
		if cfg.MaxSize > 0 {
			opts = append(opts, rotatelogs.WithRotationSize(int64(cfg.MaxSize)*1024*1024))
		}
		// rotatelogs 不允许同时设置 MaxAge 和 RotationCount
		if cfg.MaxAge > 0 {
			opts = append(opts, rotatelogs.WithMaxAge(time.Duration(cfg.MaxAge)*24*time.Hour))
		} else if cfg.MaxBackup > 0 {
			opts = append(opts, rotatelogs.WithRotationCount(uint(cfg.MaxBackup)))
		}
		writer, wErr := rotatelogs.New(filepath.Join(cfg.Path, "pdu-collector-%Y%m%d.log"), opts...)
		if wErr != nil {
			err = wErr
			return
		}

		var stdoutEncoder zapcore.Encoder
		if cfg.Format == "json" {
			stdoutEncoder = zapcore.NewJSONEncoder(jsonEncoderConfig())
		} else {
			stdoutEncoder = zapcore.NewConsoleEncoder(consoleEncoderConfig())
		}

		core := zapcore.NewTee(
			zapcore.NewCore(stdoutEncoder, zapcore.AddSync(os.Stdout), level),
			zapcore.NewCore(zapcore.NewJSONEncoder(jsonEncoderConfig()), zapcore.AddSync(writer), level),
		)

		mu.Lock()
		baseLogger = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.ErrorLevel))
		mu.Unlock()
	})
	if err != nil {
		return nil, err
	}
	return GetGlobalLogger(), nil
}

func parseLevel(s string) zapcore.Level {
	switch strings.ToLower(s) {
	case "dbg", "debug":
		return zapcore.DebugLevel
	case "war", "warn":
		return zapcore.WarnLevel
	case "err", "error":
		return zapcore.ErrorLevel
	case "dpanic":
		return zapcore.DPanicLevel
	case "pan", "panic":
		return zapcore.PanicLevel
	case "fat", "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

func consoleEncoderConfig() zapcore.EncoderConfig {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.ConsoleSeparator = " "
	encCfg.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(fmt.Sprintf("\033[34m%s\033[0m", t.Format(timeLayout)))
	}
	encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	// 两级路径 pkg/file.go:line
	encCfg.EncodeCaller = func(c zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
		rel := filepath.Join(filepath.Base(filepath.Dir(c.File)), filepath.Base(c.File))
		enc.AppendString(fmt.Sprintf("%s:%d", rel, c.Line))
	}
	return encCfg
}

func jsonEncoderConfig() zapcore.EncoderConfig {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.Format(timeLayout))
	}
	encCfg.EncodeLevel = zapcore.LowercaseLevelEncoder
	return encCfg
}

// SetDefaultCollector 设置每条日志附带的 collector 字段
func SetDefaultCollector(collector string) {
	mu.Lock()
	defer mu.Unlock()
	defaultCollector = collector
}

func GetDefaultCollector() string {
	mu.RLock()
	defer mu.RUnlock()
	return defaultCollector
}

func getGID() string {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	idField := strings.Fields(strings.TrimPrefix(string(buf[:n]), "goroutine "))
	if len(idField) > 0 {
		if id, err := strconv.Atoi(idField[0]); err == nil {
			return strconv.Itoa(id)
		}
	}
	return "0"
}

func log(level zapcore.Level, msg string, fields ...zap.Field) {
	mu.RLock()
	l, collector := baseLogger, defaultCollector
	mu.RUnlock()

	ce := l.WithOptions(zap.AddCallerSkip(1)).Check(level, msg)
	if ce == nil {
		return
	}
	ce.Write(append([]zap.Field{zap.String("collector", collector), zap.String("goid", getGID())}, fields...)...)
}

func Debug(msg string, fields ...zap.Field) { log(zap.DebugLevel, msg, fields...) }
func Info(msg string, fields ...zap.Field)  { log(zap.InfoLevel, msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { log(zap.WarnLevel, msg, fields...) }
func Error(msg string, fields ...zap.Field) { log(zap.ErrorLevel, msg, fields...) }
func Panic(msg string, fields ...zap.Field) { log(zap.PanicLevel, msg, fields...) }
func Fatal(msg string, fields ...zap.Field) { log(zap.FatalLevel, msg, fields...) }

func Sync() error {
	return GetGlobalLogger().Sync()
}

// GetGlobalLogger 返回底层 zap logger，例如给 promhttp 的 ErrorLog 使用
func GetGlobalLogger() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return baseLogger
}
