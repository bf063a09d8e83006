package main

import (
	"flag"
	"os"
	"strconv"
)

// Defaults match the paths the installer lays down. Flags win over
// environment variables, which win over these.
const (
	defaultListen    = "127.0.0.1:5800"
	defaultSoundsDir = "/usr/share/doorbell/sounds"
	defaultCacheDir  = "/var/cache/doorbell"
	defaultDevice    = "doorbell" // softvol-capable logical device
	defaultCard      = 0
	defaultWorkers   = 4
)

type config struct {
	listen    string
	soundsDir string
	cacheDir  string
	device    string
	card      int
	logPath   string
	workers   int
	transcode bool
	watch     bool

	doctor   bool
	selftest bool
	version  bool
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func loadConfig(args []string) (config, error) {
	var cfg config

	fs := flag.NewFlagSet("doorbell", flag.ContinueOnError)
	fs.StringVar(&cfg.listen, "listen", envOr("DOORBELL_LISTEN", defaultListen), "address to accept commands on")
	fs.StringVar(&cfg.soundsDir, "sounds", defaultSoundsDir, "directory of source sound files")
	fs.StringVar(&cfg.cacheDir, "cache", defaultCacheDir, "directory for prewarmed WAVs")
	fs.StringVar(&cfg.device, "device", envOr("DOORBELL_DEVICE", defaultDevice), "playback device name")
	fs.IntVar(&cfg.card, "card", envIntOr("DOORBELL_CARD", defaultCard), "sound card index for mixer and fallback device")
	fs.StringVar(&cfg.logPath, "logpath", "", "log directory (overrides DOORBELL_LOG_PATH)")
	fs.IntVar(&cfg.workers, "workers", defaultWorkers, "connection handler pool size")
	noTranscode := fs.Bool("no-transcode", false, "never invoke ffmpeg during prewarm")
	fs.BoolVar(&cfg.watch, "watch", false, "rescan the sounds directory on changes")
	fs.BoolVar(&cfg.doctor, "doctor", false, "run environment diagnostics and exit")
	fs.BoolVar(&cfg.selftest, "selftest", false, "play a test tone and exit")
	fs.BoolVar(&cfg.version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	cfg.transcode = !*noTranscode
	if cfg.workers < 1 {
		cfg.workers = 1
	}
	return cfg, nil
}
