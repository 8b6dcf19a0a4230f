// Package lrc parses the LRC timed-lyric format and answers which line is
// active at a given playback position.
package lrc

import (
	"bufio"
	"regexp"
	"strconv"
	"strings"
)

// Line is one timed lyric line. Time is seconds from track start.
type Line struct {
	Time float64
	Text string
}

var timeTag = regexp.MustCompile(`^\[(\d{2}):(\d{2})\.(\d{2,3})\](.*)`)

// Parse converts raw LRC text into timed lines. Lines without a leading
// timestamp (metadata tags like [ar:...]) are skipped, as are lines whose
// text is empty after trimming. Input order is preserved: LRC files are
// assumed pre-sorted by time and are not re-sorted here. Empty input yields
// nil.
func Parse(raw string) []Line {
	if raw == "" {
		return nil
	}

	var lines []Line
	scanner := bufio.NewScanner(strings.NewReader(raw))
	for scanner.Scan() {
		m := timeTag.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}

		min, _ := strconv.Atoi(m[1])
		sec, _ := strconv.Atoi(m[2])
		frac, _ := strconv.Atoi(m[3])
		div := 100.0
		if len(m[3]) == 3 {
			div = 1000.0
		}

		text := strings.TrimSpace(m[4])
		if text == "" {
			continue
		}

		lines = append(lines, Line{
			Time: float64(min*60+sec) + float64(frac)/div,
			Text: text,
		})
	}
	return lines
}
