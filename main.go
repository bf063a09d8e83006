package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/FalconNL93/DoorbellSvc/audio"
	"github.com/FalconNL93/DoorbellSvc/cache"
	"github.com/FalconNL93/DoorbellSvc/doctor"
	"github.com/FalconNL93/DoorbellSvc/log"
	"github.com/FalconNL93/DoorbellSvc/player"
	"github.com/FalconNL93/DoorbellSvc/shutdown"
)

var version = "dev"

const drainTimeout = 5 * time.Second

func main() {
	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	if cfg.version {
		fmt.Printf("doorbell %s\n", version)
		return
	}

	logDir, err := log.ResolveDir(cfg.logPath)
	if err != nil {
		fatal("resolving log directory: %v", err)
	}
	log.SetDir(logDir)

	if cfg.doctor {
		os.Exit(doctor.Run(doctor.Env{
			SoundsDir: cfg.soundsDir,
			CacheDir:  cfg.cacheDir,
			LogDir:    logDir,
			Device:    cfg.device,
			Card:      cfg.card,
		}))
	}

	if err := log.Init(); err != nil {
		fatal("initializing logging: %v", err)
	}
	log.Infof("doorbell %s starting, device=%s card=%d", version, cfg.device, cfg.card)

	// Device and mixer are process-wide singletons; failing to open either
	// is unrecoverable, there is no degraded no-audio mode.
	mix, err := audio.OpenMixer(cfg.card)
	if err != nil {
		fatal("opening mixer: %v", err)
	}
	dev, err := audio.OpenDevice(cfg.device, cfg.card)
	if err != nil {
		mix.Close()
		fatal("opening device: %v", err)
	}
	log.Infof("playback device: %s", dev.Name())

	engine := player.New(dev, mix, player.Config{
		SoundsDir: cfg.soundsDir,
		CacheDir:  cfg.cacheDir,
	})

	if cfg.selftest {
		err := runSelfTest(dev, mix)
		log.Drain(drainTimeout)
		log.Close()
		mix.Close()
		dev.Close()
		if err != nil {
			fatal("self-test: %v", err)
		}
		fmt.Println("self-test tone played")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tc := cache.NewFFmpeg()
	if stats, err := cache.Prewarm(ctx, cfg.soundsDir, cfg.cacheDir, tc, cfg.transcode); err != nil {
		log.Warnf("initial prewarm: %v", err)
	} else {
		log.Infof("prewarm: %d built, %d up-to-date, %d failed", stats.Built, stats.UpToDate, stats.Failed)
	}

	if cfg.watch {
		if err := cache.Watch(ctx, cfg.soundsDir, cfg.cacheDir, tc, cfg.transcode); err != nil {
			log.Warnf("sounds watcher: %v", err)
		}
	}

	srv := newServer(cfg, engine, tc)
	if err := srv.listen(); err != nil {
		mix.Close()
		dev.Close()
		fatal("listening on %s: %v", cfg.listen, err)
	}
	log.Infof("listening on %s", srv.addr())
	go srv.serve()

	sigCh := make(chan os.Signal, 1)
	shutdown.Notify(sigCh)
	sig := <-sigCh
	log.Infof("received %v, shutting down", sig)

	// Order matters: stop taking work, flush the played-sound queue, then
	// release mixer and device.
	srv.shutdown()
	cancel()
	log.Drain(drainTimeout)
	log.Close()
	mix.Close()
	dev.Close()
}

func fatal(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, msg)
	log.Error(msg)
	log.Close()
	os.Exit(1)
}
