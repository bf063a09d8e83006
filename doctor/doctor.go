// Package doctor runs environment diagnostics for the daemon: directories,
// the transcoder binary, and the sound hardware.
package doctor

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/FalconNL93/DoorbellSvc/audio"
)

// Env carries everything the checks need from the daemon configuration.
type Env struct {
	SoundsDir string
	CacheDir  string
	LogDir    string
	Device    string
	Card      int
}

// Run executes all checks and returns an exit code (0=all pass, 1=any fail).
func Run(env Env) int {
	fmt.Println("doorbell doctor - system diagnostics")
	fmt.Println("====================================")

	allPass := true

	if !checkReadableDir("sounds directory", env.SoundsDir) {
		allPass = false
	}
	if !checkWritableDir("cache directory", env.CacheDir) {
		allPass = false
	}
	if !checkWritableDir("log directory", env.LogDir) {
		allPass = false
	}
	if !checkFFmpeg() {
		allPass = false
	}
	if !checkMixer(env.Card) {
		allPass = false
	}
	if !checkDevice(env.Device, env.Card) {
		allPass = false
	}

	fmt.Println()
	if allPass {
		fmt.Println("All checks passed!")
		return 0
	}
	fmt.Println("Some checks failed. See details above.")
	return 1
}

func checkReadableDir(label, dir string) bool {
	fmt.Printf("\n[%s] %s\n", label, dir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}
	fmt.Printf("  PASS: readable, %d entries\n", len(entries))
	return true
}

func checkWritableDir(label, dir string) bool {
	fmt.Printf("\n[%s] %s\n", label, dir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}
	probe := filepath.Join(dir, ".doctor-probe")
	if err := os.WriteFile(probe, nil, 0644); err != nil {
		fmt.Printf("  FAIL: not writable: %v\n", err)
		return false
	}
	os.Remove(probe)
	fmt.Println("  PASS: writable")
	return true
}

func checkFFmpeg() bool {
	fmt.Println("\n[transcoder] ffmpeg")
	path, err := exec.LookPath("ffmpeg")
	if err != nil {
		fmt.Println("  WARN: ffmpeg not in PATH; prewarm will skip non-WAV sounds")
		// Not fatal: the daemon runs without it.
		return true
	}
	fmt.Printf("  PASS: %s\n", path)
	return true
}

func checkMixer(card int) bool {
	fmt.Printf("\n[mixer] card %d\n", card)
	m, err := audio.OpenMixer(card)
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}
	m.Close()
	fmt.Println("  PASS: mixer opened")
	return true
}

func checkDevice(device string, card int) bool {
	fmt.Printf("\n[device] %s (fallback hw:%d,0)\n", device, card)
	d, err := audio.OpenDevice(device, card)
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}
	name := d.Name()
	d.Close()
	fmt.Printf("  PASS: opened %s\n", name)
	return true
}
