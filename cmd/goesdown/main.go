package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	cfgpkg "github.com/goeslapse/goesdown/internal/config"
	errpkg "github.com/goeslapse/goesdown/internal/errors"
	"github.com/goeslapse/goesdown/internal/goes"
	"github.com/goeslapse/goesdown/internal/run"
	"github.com/goeslapse/goesdown/internal/status"
	"github.com/goeslapse/goesdown/internal/transfer"
)

const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

type cliFlags struct {
	input     string
	start     string
	ago       string
	duration  string
	stride    int
	satellite string
	root      string
	report    string
}

func main() {
	os.Exit(execute())
}

func execute() int {
	var flags cliFlags
	flag.StringVar(&flags.input, "input", "", "file with one URL per line ('#' starts a comment)")
	flag.StringVar(&flags.start, "start", "", "range start in RFC 3339 (e.g. 2024-11-30T12:00:00Z)")
	flag.StringVar(&flags.ago, "ago", "", "range start as an offset from now (e.g. 2d12h20m)")
	flag.StringVar(&flags.duration, "duration", "", "range length (e.g. 6h); defaults to now minus start")
	flag.IntVar(&flags.stride, "stride", 10, "minutes between frames (multiple of 10)")
	flag.StringVar(&flags.satellite, "satellite", "east", "satellite: east or west")
	flag.StringVar(&flags.root, "root", "", "output directory (overrides GOESDOWN_OUTPUT_DIR)")
	flag.StringVar(&flags.report, "report", "", "write the final report as JSON to this path")
	flag.Parse()

	// A missing .env is fine; explicit environment always wins.
	_ = godotenv.Load()

	cfg, err := cfgpkg.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		return exitUsage
	}
	if flags.root != "" {
		cfg.OutputDir = flags.root
	}

	cfgpkg.SetupLogger(cfg)
	slog.Info("configuration loaded successfully")

	urls, outputDir, err := buildJob(&flags, cfg)
	if err != nil {
		slog.Error("invalid job", "error", err)
		return exitUsage
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	unit := transfer.NewUnit(nil, cfg, slog.Default())
	coordinator := run.New(cfg, outputDir, unit, slog.Default())

	if cfg.StatusAddr != "" {
		server := status.NewServer(cfg.StatusAddr, coordinator.Progress(), slog.Default())
		server.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				slog.Error("status server shutdown failed", "error", err)
			}
		}()
	}

	report, err := coordinator.Run(ctx, urls)
	if err != nil {
		if errors.Is(err, errpkg.ErrNoURLs) {
			slog.Error("nothing to download")
		} else {
			slog.Error("run failed to start", "error", err)
		}
		return exitUsage
	}

	if flags.report != "" {
		if err := run.WriteReportFile(flags.report, report); err != nil {
			slog.Error("failed to write report file", "path", flags.report, "error", err)
		}
	}

	if !report.OK() {
		return exitFailed
	}
	return exitOK
}

// buildJob turns the CLI flags into a URL list and an output directory,
// either from an input file or from a GOES time range.
func buildJob(flags *cliFlags, cfg *cfgpkg.Config) ([]string, string, error) {
	if flags.input != "" {
		if flags.start != "" || flags.ago != "" {
			return nil, "", fmt.Errorf("-input cannot be combined with -start or -ago")
		}
		urls, err := readURLList(flags.input)
		if err != nil {
			return nil, "", err
		}
		// The -root override bypasses the MkdirAll in config.Load; an
		// unusable directory must fail the job here, not as one opaque
		// IoError per URL once transfers start.
		if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
			return nil, "", fmt.Errorf("failed to create output directory %s: %w", cfg.OutputDir, err)
		}
		return urls, cfg.OutputDir, nil
	}

	sat, err := goes.ParseSatellite(flags.satellite)
	if err != nil {
		return nil, "", err
	}

	frameRange, err := buildRange(flags, time.Now())
	if err != nil {
		return nil, "", err
	}

	outputDir := filepath.Join(cfg.OutputDir, frameRange.DirName())
	if _, err := os.Stat(outputDir); err == nil {
		return nil, "", fmt.Errorf("%w: %s", errpkg.ErrFrameDirExists, outputDir)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, "", fmt.Errorf("failed to create frame directory %s: %w", outputDir, err)
	}

	slog.Info("fetching frames",
		"satellite", sat,
		"start", frameRange.Start,
		"end", frameRange.End,
		"stride", frameRange.Stride,
		"directory", outputDir,
	)

	return frameRange.URLs(sat), outputDir, nil
}

func buildRange(flags *cliFlags, now time.Time) (goes.Range, error) {
	var start time.Time
	switch {
	case flags.start != "" && flags.ago != "":
		return goes.Range{}, fmt.Errorf("specify either -start or -ago, not both")
	case flags.start != "":
		t, err := time.Parse(time.RFC3339, flags.start)
		if err != nil {
			return goes.Range{}, fmt.Errorf("invalid start time: %w", err)
		}
		start = t
	case flags.ago != "":
		offset, err := goes.ParseOffset(flags.ago)
		if err != nil {
			return goes.Range{}, err
		}
		start = now.Add(-offset)
	default:
		return goes.Range{}, fmt.Errorf("specify -input, -start, or -ago")
	}

	end := now
	if flags.duration != "" {
		length, err := goes.ParseOffset(flags.duration)
		if err != nil {
			return goes.Range{}, err
		}
		end = start.Add(length)
	}

	return goes.NewRange(start, end, time.Duration(flags.stride)*time.Minute, now)
}

// readURLList reads one URL per line, skipping blanks and '#' comments.
func readURLList(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open URL list: %w", err)
	}
	defer file.Close()

	var urls []string
	scanner := bufio.NewScanner(file)
	// Lines beyond bufio's default 64 KiB token limit must error via
	// scanner.Err, not be silently dropped.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read URL list: %w", err)
	}

	return urls, nil
}
