package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

var (
	diagLog    zerolog.Logger
	playedLog  zerolog.Logger
	diagFile   *os.File
	playedFile *os.File
	logMu      sync.Mutex
	logReady   bool
	pid        int
	dir        string
)

// ResolveDir picks the log directory: -logpath flag, then
// DOORBELL_LOG_PATH, then the default location.
func ResolveDir(flagPath string) (string, error) {
	if flagPath != "" {
		if !filepath.IsAbs(flagPath) {
			wd, err := os.Getwd()
			if err != nil {
				return "", err
			}
			return filepath.Join(wd, flagPath), nil
		}
		return flagPath, nil
	}

	envPath := os.Getenv("DOORBELL_LOG_PATH")
	if envPath != "" {
		if !filepath.IsAbs(envPath) {
			wd, err := os.Getwd()
			if err != nil {
				return "", err
			}
			return filepath.Join(wd, envPath), nil
		}
		return envPath, nil
	}

	return getDefaultDir()
}

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

// Init opens the diagnostics and played-sound logs and starts the
// background event writer.
func Init() error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	pid = os.Getpid()

	var err error

	diagPath := filepath.Join(dir, "diagnostics_log.txt")
	diagFile, err = os.OpenFile(diagPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	playedPath := filepath.Join(dir, "played_log.txt")
	playedFile, err = os.OpenFile(playedPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		diagFile.Close()
		return err
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}
	diagLog = zerolog.New(consoleWriter).With().Timestamp().Int("pid", pid).Logger()
	playedLog = zerolog.New(playedFile).With().Timestamp().Logger()

	startWriter()

	logReady = true
	return nil
}

// Close releases the log files. Call Drain first so queued played-sound
// events reach disk.
func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	if playedFile != nil {
		playedFile.Close()
		playedFile = nil
	}
	logReady = false
}

func Info(msg string) {
	if logReady {
		diagLog.Info().Msg(msg)
	}
}

func Infof(format string, args ...any) {
	if logReady {
		diagLog.Info().Msg(fmt.Sprintf(format, args...))
	}
}

func Error(msg string) {
	if logReady {
		diagLog.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if logReady {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

func Warn(msg string) {
	if logReady {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if logReady {
		diagLog.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

// Request logs one handled connection with its correlation id.
func Request(id, cmd, outcome string) {
	if logReady {
		diagLog.Info().
			Str("req", id).
			Str("cmd", cmd).
			Str("outcome", outcome).
			Msg("request")
	}
}

// PrewarmStats logs the aggregate result of a cache pass.
func PrewarmStats(total, built, upToDate, failed int) {
	if logReady {
		diagLog.Info().
			Int("total", total).
			Int("built", built).
			Int("up_to_date", upToDate).
			Int("failed", failed).
			Msg("prewarm")
	}
}
