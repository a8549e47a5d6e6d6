package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Defaults for the "begin logging" year marker.
const (
	DefaultMarkerPrefix = "**** BEGIN LOGGING"
	DefaultYear         = 2011
)

var monthAbbrevs = [12]string{
	"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
}

var (
	recordPattern = regexp.MustCompile(`^([A-Za-z]{3}) +(\d{1,2}) +(.+)$`)
	yearPattern   = regexp.MustCompile(`^\d{4}$`)

	// The clock must end at whitespace or end of line, so 10:00:012 is not 10:00:01.
	clockPattern = regexp.MustCompile(`^(\d{1,2}):(\d{1,2}):(\d{1,2})(?:[.,](\d{1,9}))?(?:\s|$)`)
)

// ErrUnknownMonth is wrapped by parse errors for an unrecognized month token.
var ErrUnknownMonth = errors.New("unknown month abbreviation")

// MonthIndex maps a three-letter month abbreviation (any case) to its
// calendar month.
func MonthIndex(abbr string) (time.Month, bool) {
	for i, m := range monthAbbrevs {
		if strings.EqualFold(abbr, m) {
			return time.Month(i + 1), true
		}
	}
	return 0, false
}

// Options configures a LineParser.
type Options struct {
	// MarkerPrefix starts a year marker line. Matched case-insensitively.
	MarkerPrefix string

	// DefaultYear is used until the first marker line is seen.
	DefaultYear int

	// LenientMonths maps unknown month tokens to January instead of failing
	// the line. Only useful for old logs that relied on that behaviour.
	LenientMonths bool
}

// DefaultOptions returns the parser defaults.
func DefaultOptions() Options {
	return Options{
		MarkerPrefix: DefaultMarkerPrefix,
		DefaultYear:  DefaultYear,
	}
}

// YearContext holds the year assumed for the records that follow the most
// recent marker line of a file.
type YearContext struct {
	Year int
}

// LineParser classifies lines of a single file and resolves record
// timestamps. It is stateful (the YearContext) and must not be shared
// between files.
type LineParser struct {
	opts Options
	ctx  YearContext
}

// NewLineParser creates a parser whose YearContext starts at opts.DefaultYear.
func NewLineParser(opts Options) *LineParser {
	if opts.MarkerPrefix == "" {
		opts.MarkerPrefix = DefaultMarkerPrefix
	}
	if opts.DefaultYear == 0 {
		opts.DefaultYear = DefaultYear
	}
	return &LineParser{
		opts: opts,
		ctx:  YearContext{Year: opts.DefaultYear},
	}
}

// Year returns the year currently applied to records.
func (p *LineParser) Year() int {
	return p.ctx.Year
}

// Parse classifies a line. For LineRecord the resolved timestamp is returned.
// For LineMalformed the error describes what failed; the YearContext is left
// untouched in that case.
func (p *LineParser) Parse(line string) (LineKind, time.Time, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return LineBlank, time.Time{}, nil
	}

	if p.isMarker(line) {
		year, err := markerYear(line)
		if err != nil {
			return LineMalformed, time.Time{}, err
		}
		p.ctx.Year = year
		return LineMarker, time.Time{}, nil
	}

	m := recordPattern.FindStringSubmatch(line)
	if m == nil {
		return LineIgnored, time.Time{}, nil
	}

	ts, err := p.recordTime(m[1], m[2], m[3])
	if err != nil {
		return LineMalformed, time.Time{}, err
	}
	return LineRecord, ts, nil
}

func (p *LineParser) isMarker(line string) bool {
	prefix := p.opts.MarkerPrefix
	return len(line) >= len(prefix) && strings.EqualFold(line[:len(prefix)], prefix)
}

func markerYear(line string) (int, error) {
	fields := strings.Fields(line)
	last := fields[len(fields)-1]
	if !yearPattern.MatchString(last) {
		return 0, fmt.Errorf("marker does not end with a 4-digit year: %q", last)
	}
	// cannot fail: four ASCII digits
	year, _ := strconv.Atoi(last)
	return year, nil
}

func (p *LineParser) recordTime(monthTok, dayTok, rest string) (time.Time, error) {
	month, ok := MonthIndex(monthTok)
	if !ok {
		if !p.opts.LenientMonths {
			return time.Time{}, fmt.Errorf("%w: %q", ErrUnknownMonth, monthTok)
		}
		month = time.January
	}

	day, _ := strconv.Atoi(dayTok)

	c := clockPattern.FindStringSubmatch(rest)
	if c == nil {
		return time.Time{}, fmt.Errorf("no hour:minute:second after %s %s", monthTok, dayTok)
	}
	hour, _ := strconv.Atoi(c[1])
	minute, _ := strconv.Atoi(c[2])
	sec, _ := strconv.Atoi(c[3])
	var nsec int
	if c[4] != "" {
		frac := c[4] + strings.Repeat("0", 9-len(c[4]))
		nsec, _ = strconv.Atoi(frac)
	}

	if hour > 23 || minute > 59 || sec > 59 {
		return time.Time{}, fmt.Errorf("time of day out of range: %s:%s:%s", c[1], c[2], c[3])
	}

	year := p.ctx.Year
	ts := time.Date(year, month, day, hour, minute, sec, nsec, time.UTC)
	// time.Date normalizes, so Feb 30 would silently become Mar 2.
	if day < 1 || ts.Day() != day || ts.Month() != month {
		return time.Time{}, fmt.Errorf("invalid date: %d %s %d", year, month, day)
	}
	return ts, nil
}
