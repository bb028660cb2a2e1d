// Package parser turns matcher output lines into match records.
//
// The expected line format is <path>:<line>:<column>:<content>. Lines that do
// not fit are dropped without an error; partial output typed mid-keystroke is
// common and never worth reporting.
package parser

import (
	"strconv"
	"strings"

	"quickgrep/internal/domain"
)

const fieldCount = 4

// ParseLine parses a single line of matcher output.
// The second return value is false when the line is malformed.
func ParseLine(line string) (domain.MatchRecord, bool) {
	raw := strings.TrimSuffix(line, "\r")

	fields := strings.SplitN(raw, ":", fieldCount)
	if len(fields) < fieldCount {
		return domain.MatchRecord{}, false
	}

	path, content := fields[0], fields[3]
	if path == "" || content == "" {
		return domain.MatchRecord{}, false
	}

	lineNo, ok := positiveInt(fields[1])
	if !ok {
		return domain.MatchRecord{}, false
	}
	col, ok := positiveInt(fields[2])
	if !ok {
		return domain.MatchRecord{}, false
	}

	return domain.MatchRecord{
		FilePath: path,
		Line:     lineNo,
		Column:   col,
		Preview:  strings.TrimSpace(content),
		Raw:      raw,
	}, true
}

// ParseLines parses lines in order, skipping malformed ones
func ParseLines(lines []string) []domain.MatchRecord {
	records := make([]domain.MatchRecord, 0, len(lines))
	for _, l := range lines {
		if rec, ok := ParseLine(l); ok {
			records = append(records, rec)
		}
	}
	return records
}

func positiveInt(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
