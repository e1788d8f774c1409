package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cwbudde/algo-crystalizer/dsp/effects/crystalizer"
	"github.com/cwbudde/algo-crystalizer/internal/audio"
	"github.com/cwbudde/algo-crystalizer/internal/testutil"
)

func TestParseIntensity(t *testing.T) {
	tests := []struct {
		arg       string
		wantBand  int
		wantValue float32
		wantErr   bool
	}{
		{arg: "4", wantBand: -1, wantValue: 4},
		{arg: "3:2.5", wantBand: 3, wantValue: 2.5},
		{arg: " 12 : 40 ", wantBand: 12, wantValue: 40},
		{arg: ":5", wantErr: true},
		{arg: "a:1", wantErr: true},
		{arg: "-1:1", wantErr: true},
		{arg: "2:", wantErr: true},
		{arg: "", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.arg, func(t *testing.T) {
			band, value, err := parseIntensity(tc.arg)
			if tc.wantErr {
				if !errors.Is(err, errBadIntensity) {
					t.Fatalf("err = %v, want errBadIntensity", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseIntensity: %v", err)
			}
			if band != tc.wantBand || value != tc.wantValue {
				t.Fatalf("got %d:%v, want %d:%v", band, value, tc.wantBand, tc.wantValue)
			}
		})
	}
}

func TestControlFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.json")
	if err := os.WriteFile(path, []byte(`{"bands":[{"band":1,"intensity":7},{"band":2,"mute":true}]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	f := controlFlags{
		Intensity: []string{"2", "5:9"},
		Mute:      []int{12},
		Bypass:    []int{0},
		Preset:    path,
	}
	controls, err := f.controls(crystalizer.NumBands)
	if err != nil {
		t.Fatalf("controls: %v", err)
	}

	// A bare intensity overrides the preset for every band.
	if controls[1].Intensity != 2 || controls[5].Intensity != 9 || controls[7].Intensity != 2 {
		t.Fatalf("intensities = %v, %v, %v", controls[1].Intensity, controls[5].Intensity, controls[7].Intensity)
	}
	if !controls[2].Mute || !controls[12].Mute || controls[3].Mute {
		t.Fatal("mute flags not applied")
	}
	if !controls[0].Bypass || controls[1].Bypass {
		t.Fatal("bypass flags not applied")
	}
}

func TestControlFlagsErrors(t *testing.T) {
	tests := []struct {
		name  string
		flags controlFlags
		want  error
	}{
		{name: "intensity band", flags: controlFlags{Intensity: []string{"13:1"}}, want: crystalizer.ErrBandIndex},
		{name: "mute band", flags: controlFlags{Mute: []int{-1}}, want: crystalizer.ErrBandIndex},
		{name: "bypass band", flags: controlFlags{Bypass: []int{20}}, want: crystalizer.ErrBandIndex},
		{name: "bad intensity", flags: controlFlags{Intensity: []string{"loud"}}, want: errBadIntensity},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tc.flags.controls(crystalizer.NumBands); !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}

	missing := controlFlags{Preset: filepath.Join(t.TempDir(), "missing.json")}
	if _, err := missing.controls(crystalizer.NumBands); err == nil {
		t.Fatal("missing preset accepted")
	}
}

func TestBlockSizes(t *testing.T) {
	if got := (&controlFlags{BlockSize: 256}).blockSizes(); len(got) != 1 || got[0] != 256 {
		t.Fatalf("fixed = %v", got)
	}
	got := (&controlFlags{BlockSize: 256, VaryBlock: true}).blockSizes()
	want := []int{256, 256, 128, 256, 512}
	if len(got) != len(want) {
		t.Fatalf("varying = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("varying = %v, want %v", got, want)
		}
	}
}

func TestNewSession(t *testing.T) {
	clip := &audio.Clip{SampleRate: 48000}
	var latencies []time.Duration

	f := controlFlags{BlockSize: 480, Intensity: []string{"0:3"}}
	session, delay, err := f.newSession(clip, slog.New(slog.DiscardHandler), func(d time.Duration) { latencies = append(latencies, d) })
	if err != nil {
		t.Fatalf("newSession: %v", err)
	}
	if delay != 960 {
		t.Fatalf("delay = %d, want 960", delay)
	}
	if session.SampleRate() != 48000 || session.State() != crystalizer.StateUnconfigured {
		t.Fatalf("session at %d Hz in state %v", session.SampleRate(), session.State())
	}
	if v, _ := session.Intensity(0); v != 3 {
		t.Fatalf("intensity 0 = %v, want 3", v)
	}

	if _, err := session.Process(make([]float32, 2*480)); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(latencies) != 1 || latencies[0] != 10*time.Millisecond {
		t.Fatalf("latencies = %v, want [10ms]", latencies)
	}

	if _, _, err := (&controlFlags{BlockSize: 0}).newSession(clip, slog.New(slog.DiscardHandler), nil); err == nil {
		t.Fatal("zero block size accepted")
	}
}

func TestProcessRun(t *testing.T) {
	dir := t.TempDir()
	in := &audio.Clip{SampleRate: 48000, Samples: testutil.StereoNoise(12, 0.3, 4800)}

	cmd := &ProcessCmd{
		controlFlags: controlFlags{BlockSize: 256},
		Input:        "in.wav",
		Output:       filepath.Join(dir, "out.wav"),
		SavePreset:   filepath.Join(dir, "used.json"),
	}
	rc := &runContext{Ctx: context.Background(), Logger: slog.New(slog.DiscardHandler)}

	r, err := cmd.run(rc.Ctx, rc, in, func(time.Duration) {}, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if r.Frames != 4800 {
		t.Fatalf("report covers %d frames, want 4800", r.Frames)
	}

	out, err := readClip(cmd.Output)
	if err != nil {
		t.Fatalf("readClip: %v", err)
	}
	if out.SampleRate != 48000 || out.Frames() != 4800 {
		t.Fatalf("output %d Hz, %d frames", out.SampleRate, out.Frames())
	}
	testutil.RequireFinite32(t, out.Samples)

	if _, err := os.Stat(cmd.SavePreset); err != nil {
		t.Fatalf("preset not saved: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("%d files in output dir, want out.wav and used.json", len(entries))
	}
}

func TestProcessRunCanceled(t *testing.T) {
	dir := t.TempDir()
	in := &audio.Clip{SampleRate: 48000, Samples: testutil.StereoNoise(13, 0.3, 48000)}

	cmd := &ProcessCmd{
		controlFlags: controlFlags{BlockSize: 256},
		Output:       filepath.Join(dir, "out.wav"),
	}
	ctx, cancel := context.WithCancel(context.Background())
	rc := &runContext{Ctx: ctx, Logger: slog.New(slog.DiscardHandler)}

	// Quit partway through, as the progress view does on q or ctrl+c.
	progress := func(done, total int) {
		if done >= total/4 {
			cancel()
		}
	}
	if _, err := cmd.run(ctx, rc, in, func(time.Duration) {}, progress); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("canceled run left %d files, first %q", len(entries), entries[0].Name())
	}
}

func TestOpenDebugLog(t *testing.T) {
	logger, closeLog, err := openDebugLog("")
	if err != nil || logger == nil {
		t.Fatalf("discard logger: %v", err)
	}
	closeLog()

	path := filepath.Join(t.TempDir(), "debug.log")
	logger, closeLog, err = openDebugLog(path)
	if err != nil {
		t.Fatalf("openDebugLog: %v", err)
	}
	logger.Debug("rebuilding filters", "frames", 512)
	closeLog()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) == 0 {
		t.Fatal("debug log is empty")
	}
}

func TestProcessWritesPCM(t *testing.T) {
	dir := t.TempDir()
	in := &audio.Clip{SampleRate: 44100, Samples: testutil.StereoSine(1000, 44100, 0.5, 2000)}

	for _, format := range []string{"pcm16", "pcm24"} {
		cmd := &ProcessCmd{
			controlFlags: controlFlags{BlockSize: 441},
			Output:       filepath.Join(dir, format+".wav"),
			Format:       format,
			Dither:       "tpdf",
			NoiseShaping: true,
		}
		rc := &runContext{Ctx: context.Background(), Logger: slog.New(slog.DiscardHandler)}
		if _, err := cmd.run(rc.Ctx, rc, in, func(time.Duration) {}, nil); err != nil {
			t.Fatalf("%s: run: %v", format, err)
		}

		out, err := readClip(cmd.Output)
		if err != nil {
			t.Fatalf("%s: readClip: %v", format, err)
		}
		if out.Frames() != 2000 {
			t.Fatalf("%s: %d frames, want 2000", format, out.Frames())
		}
	}
}
