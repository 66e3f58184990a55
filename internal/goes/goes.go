// Package goes generates source URLs for GOES full-disk GEOCOLOR
// imagery hosted on the NOAA STAR CDN. Frames are published every ten
// minutes; each snapshot URL refers to a fixed, immutable file.
package goes

import (
	"fmt"
	"strings"
	"time"
)

// Satellite selects which spacecraft's imagery to fetch.
type Satellite string

const (
	East Satellite = "GOES16"
	West Satellite = "GOES18"
)

// ParseSatellite maps a CLI-friendly name to a Satellite.
func ParseSatellite(name string) (Satellite, error) {
	switch strings.ToLower(name) {
	case "east":
		return East, nil
	case "west":
		return West, nil
	default:
		return "", fmt.Errorf("unknown satellite %q (want east or west)", name)
	}
}

const cdnHost = "cdn.star.nesdis.noaa.gov"

// FrameInterval is the cadence at which the CDN publishes frames. All
// times and strides must land on this boundary.
const FrameInterval = 10 * time.Minute

// ImageURL returns the CDN URL of the 1808x1808 full-disk frame for the
// given instant. The timestamp encodes year, day of year, hour, minute.
func ImageURL(sat Satellite, t time.Time) string {
	t = t.UTC()
	stamp := fmt.Sprintf("%04d%03d%02d%02d", t.Year(), t.YearDay(), t.Hour(), t.Minute())
	return fmt.Sprintf("https://%s/%s/ABI/FD/GEOCOLOR/%s_%s-ABI-FD-GEOCOLOR-1808x1808.jpg",
		cdnHost, sat, stamp, sat)
}

// RoundDown aligns t to the previous frame boundary.
func RoundDown(t time.Time) time.Time {
	return t.UTC().Truncate(FrameInterval)
}

// maxRange bounds how far back the CDN keeps frames available.
const maxRange = 5 * 24 * time.Hour

// Range is an inclusive, frame-aligned time span with a stride.
type Range struct {
	Start  time.Time
	End    time.Time
	Stride time.Duration
}

// NewRange validates and aligns a time span. The stride must be a
// positive multiple of the frame interval, the span must not run
// backwards, reach into the future, or exceed the CDN retention window.
func NewRange(start, end time.Time, stride time.Duration, now time.Time) (Range, error) {
	if stride <= 0 || stride%FrameInterval != 0 {
		return Range{}, fmt.Errorf("stride %s must be a positive multiple of %s", stride, FrameInterval)
	}

	start = RoundDown(start)
	end = RoundDown(end)

	if end.Before(start) {
		return Range{}, fmt.Errorf("end time %s is before start time %s", end, start)
	}
	if end.After(now) {
		return Range{}, fmt.Errorf("end time %s is in the future", end)
	}
	if now.Sub(start) > maxRange {
		return Range{}, fmt.Errorf("start time %s is too far in the past (maximum range is %s)", start, maxRange)
	}

	return Range{Start: start, End: end, Stride: stride}, nil
}

// URLs returns the frame URLs of the range in chronological order.
func (r Range) URLs(sat Satellite) []string {
	var urls []string
	for t := r.Start; !t.After(r.End); t = t.Add(r.Stride) {
		urls = append(urls, ImageURL(sat, t))
	}
	return urls
}

// DirName returns the canonical per-run subdirectory name, so separate
// ranges never mix frames in one directory.
func (r Range) DirName() string {
	const layout = "20060102T150405"
	return fmt.Sprintf("images_%s_to_%s_stride_%dm",
		r.Start.Format(layout), r.End.Format(layout), int(r.Stride.Minutes()))
}

// ParseOffset parses a compact duration like "2d12h20m" into a
// time.Duration. Supported units are m, h, and d; the total must be a
// multiple of the frame interval.
func ParseOffset(input string) (time.Duration, error) {
	var total time.Duration
	var value strings.Builder

	for _, c := range input {
		if c >= '0' && c <= '9' {
			value.WriteRune(c)
			continue
		}

		if value.Len() == 0 {
			return 0, fmt.Errorf("invalid offset %q: unit %q has no value", input, string(c))
		}
		var num int64
		if _, err := fmt.Sscanf(value.String(), "%d", &num); err != nil {
			return 0, fmt.Errorf("invalid offset value %q: %w", value.String(), err)
		}
		value.Reset()

		switch c {
		case 'm':
			total += time.Duration(num) * time.Minute
		case 'h':
			total += time.Duration(num) * time.Hour
		case 'd':
			total += time.Duration(num) * 24 * time.Hour
		default:
			return 0, fmt.Errorf("unsupported offset unit %q (use m, h, or d)", string(c))
		}
	}

	if value.Len() > 0 {
		return 0, fmt.Errorf("invalid offset %q: trailing value %q has no unit", input, value.String())
	}
	if total == 0 {
		return 0, fmt.Errorf("offset %q is empty", input)
	}
	if total%FrameInterval != 0 {
		return 0, fmt.Errorf("offset %s must be a multiple of %s", total, FrameInterval)
	}

	return total, nil
}
