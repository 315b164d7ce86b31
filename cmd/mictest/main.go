package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"go-practice/audio"
	"go-practice/config"
	"go-practice/detector"
	"go-practice/dsp"
	"go-practice/pitch"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Config error: %v\n", err)
		os.Exit(1)
	}

	switch os.Args[1] {
	case "list":
		listDevices()
	case "level":
		showLevel(ctx, cfg)
	case "pitch":
		showPitch(ctx, cfg)
	case "chord":
		showChord(ctx, cfg, os.Args[2:])
	case "selftest":
		selfTest(ctx, cfg)
	default:
		usage()
	}
}

func usage() {
	fmt.Println("Microphone Test Scripts")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list            - List audio input devices")
	fmt.Println("  level           - Print the input level")
	fmt.Println("  pitch           - Print each stable note heard")
	fmt.Println("  chord NOTE...   - Watch for a chord, e.g. chord C4 E4 G4")
	fmt.Println("  selftest        - Run the detectors on a generated tone")
	fmt.Println("")
	fmt.Println("PRACTICE_INPUT_DEVICE selects the device.")
}

func input(cfg *config.Config) audio.Input {
	return audio.NewPortAudio(cfg.Input.SampleRate, cfg.Input.Device, cfg.Input.OpenTimeout.Duration)
}

func listDevices() {
	fmt.Println("=== Audio Input Devices ===")
	fmt.Println("(waiting up to 3 seconds...)")

	type result struct {
		devices []audio.DeviceInfo
		err     error
	}
	ch := make(chan result, 1)
	go func() {
		d, err := audio.ListDevices()
		ch <- result{devices: d, err: err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			fmt.Printf("Error: %v\n", r.err)
			return
		}
		for i, d := range r.devices {
			mark := " "
			if d.Default {
				mark = "*"
			}
			fmt.Printf("%s %d: %s (%s, %d ch, %.0f Hz)\n", mark, i, d.Name, d.HostAPI, d.Channels, d.SampleRate)
		}
	case <-time.After(3 * time.Second):
		fmt.Println("\nTIMEOUT! The audio host is not answering.")
	}
}

func showLevel(ctx context.Context, cfg *config.Config) {
	stream, err := input(cfg).Open(ctx, 2048)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer stream.Close()

	fmt.Printf("Gate is %.0f. Ctrl+C to stop.\n", cfg.Single.VolumeThreshold)
	for ctx.Err() == nil {
		frame, err := stream.Read(2048)
		if err != nil {
			fmt.Printf("Read error: %v\n", err)
			return
		}
		rms := dsp.RMS(frame)
		bar := strings.Repeat("#", min(int(rms/100), 60))
		gate := " "
		if rms >= cfg.Single.VolumeThreshold {
			gate = "*"
		}
		fmt.Printf("\r%s %6.0f %-60s", gate, rms, bar)
	}
	fmt.Println()
}

func showPitch(ctx context.Context, cfg *config.Config) {
	q := detector.NewQueue(16)
	d := detector.NewSinglePitch(input(cfg), cfg.Detector().Single, q, nil)
	if err := d.Start(ctx); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer d.Stop(time.Second)

	fmt.Println("Play single notes. Ctrl+C to stop.")
	poll(ctx, q, func(r detector.Result) {
		n, _ := pitch.Parse(r.Note)
		fmt.Printf("[%s] %-4s %7.2f Hz\n", r.At.Format("15:04:05.000"), r.Note, pitch.Frequency(n))
	})
}

func showChord(ctx context.Context, cfg *config.Config, notes []string) {
	if len(notes) < 2 {
		fmt.Println("Give at least two notes")
		return
	}
	q := detector.NewQueue(16)
	d := detector.NewChord(input(cfg), cfg.Detector().Chord, q, nil)
	d.SetTargets(notes)
	if len(d.Targets()) < 2 {
		fmt.Printf("Not enough valid notes in %v\n", notes)
		return
	}
	if err := d.Start(ctx); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer d.Stop(time.Second)

	fmt.Printf("Play %s. Ctrl+C to stop.\n", strings.Join(d.Targets(), " "))
	poll(ctx, q, func(r detector.Result) {
		var parts []string
		for _, n := range d.Targets() {
			mark := "-"
			if r.Found[n] {
				mark = "+"
			}
			parts = append(parts, mark+n)
		}
		state := ""
		if r.Confirmed {
			state = "CONFIRMED"
		}
		fmt.Printf("\r%s %-10s", strings.Join(parts, " "), state)
	})
	fmt.Println()
}

func poll(ctx context.Context, q *detector.Queue, fn func(detector.Result)) {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for {
				r, ok := q.Poll()
				if !ok {
					break
				}
				fn(r)
			}
		}
	}
}

// selfTest drives the coordinator with generated tones instead of a device
func selfTest(ctx context.Context, cfg *config.Config) {
	gen := audio.NewGenerator(cfg.Input.SampleRate, 2000)
	gen.Realtime = true
	coord := detector.NewCoordinator(gen, cfg.Detector(), nil)
	defer coord.StopAll()

	cases := [][]string{{"A4"}, {"C4"}, {"C4", "E4", "G4"}, {"A3", "C4", "E4"}}
	for _, targets := range cases {
		var freqs []float64
		for _, name := range targets {
			n, err := pitch.Parse(name)
			if err != nil {
				fmt.Printf("Bad note %q: %v\n", name, err)
				return
			}
			freqs = append(freqs, pitch.Frequency(n))
		}
		gen.Play(freqs...)

		start := time.Now()
		if err := coord.SelectAndStart(ctx, targets); err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		if ok := waitFor(ctx, coord, targets); ok {
			fmt.Printf("PASS %-12s in %v\n", strings.Join(targets, " "), time.Since(start).Round(time.Millisecond))
		} else {
			fmt.Printf("FAIL %-12s\n", strings.Join(targets, " "))
		}
		coord.StopAll()
		gen.Play()
	}
}

func waitFor(ctx context.Context, coord *detector.Coordinator, targets []string) bool {
	deadline := time.After(5 * time.Second)
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return false
		case <-deadline:
			return false
		case now := <-ticker.C:
			r, ok := coord.Poll(now)
			if !ok {
				continue
			}
			if r.Kind == detector.Single && r.Note == targets[0] {
				return true
			}
			if r.Kind == detector.ChordKind && r.Confirmed {
				return true
			}
		}
	}
}
