package table

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Status classifies the outcome of a load attempt.
type Status uint8

const (
	StatusLoaded Status = iota
	// StatusDegraded marks a table that still has a single column after every
	// delimiter was tried. The cleaner may re-split it.
	StatusDegraded
	StatusEmpty
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusLoaded:
		return "loaded"
	case StatusDegraded:
		return "degraded"
	case StatusEmpty:
		return "empty"
	default:
		return "failed"
	}
}

// LoadOptions controls how input files are parsed.
type LoadOptions struct {
	// Delimiter forces a field separator. If 0, it is inferred from the header line
	// and single-column results are retried with the fallback delimiters.
	Delimiter rune
	// MaxRows limits data rows read; 0 means unlimited.
	MaxRows int
	// Sheet selects the worksheet for .xlsx inputs; empty means the first sheet.
	Sheet string
}

// LoadResult is what Load hands back instead of an error.
type LoadResult struct {
	Path      string
	Table     *Table
	Delimiter rune
	// Skipped counts malformed lines that were dropped during parsing.
	Skipped int
	Status  Status
	Err     error
}

// OK reports whether the result carries usable rows.
func (r LoadResult) OK() bool {
	return r.Status == StatusLoaded || r.Status == StatusDegraded
}

// Message renders a one-line human-readable status.
func (r LoadResult) Message() string {
	name := filepath.Base(r.Path)
	var b strings.Builder
	switch r.Status {
	case StatusFailed:
		fmt.Fprintf(&b, "Error loading %s: %v", name, r.Err)
		return b.String()
	case StatusEmpty:
		fmt.Fprintf(&b, "Loaded: %s — no data rows", name)
	case StatusDegraded:
		fmt.Fprintf(&b, "Loaded: %s — Shape: (%d, %d), single column after delimiter fallback", name, r.Table.Len(), r.Table.Width())
	default:
		fmt.Fprintf(&b, "Loaded: %s — Shape: (%d, %d)", name, r.Table.Len(), r.Table.Width())
	}
	if r.Skipped > 0 {
		fmt.Fprintf(&b, " (skipped %d malformed lines)", r.Skipped)
	}
	return b.String()
}

var (
	// ErrNoHeader is reported for inputs without a single parseable line.
	ErrNoHeader = errors.New("no header line")

	fallbackDelimiters = []rune{';', '|'}
	sniffDelimiters    = []rune{',', ';', '\t', '|'}
	utf8BOM            = []byte{0xEF, 0xBB, 0xBF}
)

// Load reads a delimited text or .xlsx file. It never fails: problems are reported
// through the result status and an empty table.
func Load(path string, opt LoadOptions) LoadResult {
	name := filepath.Base(path)
	if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		return loadXLSX(path, opt)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return failed(path, fmt.Errorf("read file: %w", err))
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(name, data)
	}
	header, recs, skipped, err := parseDelimited(data, delim, opt.MaxRows)
	if err != nil {
		return failed(path, err)
	}
	// One column usually means the delimiter guess was wrong.
	if len(header) == 1 && opt.Delimiter == 0 {
		for _, d := range fallbackDelimiters {
			if d == delim {
				continue
			}
			h2, r2, s2, err := parseDelimited(data, d, opt.MaxRows)
			if err != nil || len(h2) <= 1 {
				continue
			}
			header, recs, skipped, delim = h2, r2, s2, d
			break
		}
	}
	return finish(path, New(name, trimAll(header), recs), delim, skipped)
}

func finish(path string, t *Table, delim rune, skipped int) LoadResult {
	res := LoadResult{Path: path, Table: t, Delimiter: delim, Skipped: skipped, Status: StatusLoaded}
	switch {
	case t.Len() == 0:
		res.Status = StatusEmpty
	case t.Width() == 1:
		res.Status = StatusDegraded
	}
	return res
}

func failed(path string, err error) LoadResult {
	return LoadResult{Path: path, Table: Empty(filepath.Base(path)), Status: StatusFailed, Err: err}
}

func newReader(data []byte, delim rune) *csv.Reader {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	return r
}

// parseDelimited returns the header and the well-formed records. Lines that fail to
// parse or carry more fields than the header are skipped and counted. A quoted
// field that runs over line breaks to the end of input, or into a record of the
// wrong width, is an unclosed quote: its first line is skipped and parsing resumes
// on the next line.
func parseDelimited(data []byte, delim rune, maxRows int) ([]string, [][]string, int, error) {
	r := newReader(data, delim)

	var header []string
	skipped := 0
	for header == nil {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, nil, skipped, ErrNoHeader
			}
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				skipped++
				continue
			}
			return nil, nil, skipped, fmt.Errorf("read header: %w", err)
		}
		header = append([]string(nil), rec...)
	}

	// base is the offset of r's input within data.
	base := 0
	var recs [][]string
	for {
		if maxRows > 0 && len(recs) >= maxRows {
			break
		}
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				skipped++
				continue
			}
			return nil, nil, skipped, fmt.Errorf("read row %d: %w", len(recs)+1, err)
		}
		if spansLines(rec) {
			end := base + int(r.InputOffset())
			if len(rec) != len(header) || len(bytes.TrimSpace(data[end:])) == 0 {
				skipped++
				line, _ := r.FieldPos(0)
				next := lineOffset(data[base:], line+1)
				if next < 0 {
					break
				}
				base += next
				r = newReader(data[base:], delim)
				continue
			}
		}
		if len(rec) > len(header) {
			skipped++
			continue
		}
		recs = append(recs, append([]string(nil), rec...))
	}
	return header, recs, skipped, nil
}

func spansLines(rec []string) bool {
	for _, f := range rec {
		if strings.ContainsAny(f, "\r\n") {
			return true
		}
	}
	return false
}

// lineOffset returns the byte offset where 1-based line starts in data, or -1
// when data has fewer lines.
func lineOffset(data []byte, line int) int {
	off := 0
	for l := 1; l < line; l++ {
		i := bytes.IndexByte(data[off:], '\n')
		if i < 0 {
			return -1
		}
		off += i + 1
	}
	if off >= len(data) {
		return -1
	}
	return off
}

// sniffDelimiter picks the candidate that occurs most often outside quotes in the
// first non-blank line. Ties resolve in candidate order; no hits means comma.
func sniffDelimiter(name string, data []byte) rune {
	if strings.HasSuffix(strings.ToLower(name), ".tsv") {
		return '\t'
	}
	var line string
	for _, l := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(l) != "" {
			line = l
			break
		}
	}
	counts := make(map[rune]int, len(sniffDelimiters))
	inQuotes := false
	for _, ch := range line {
		if ch == '"' {
			inQuotes = !inQuotes
			continue
		}
		if !inQuotes {
			counts[ch]++
		}
	}
	best, bestN := ',', 0
	for _, d := range sniffDelimiters {
		if counts[d] > bestN {
			best, bestN = d, counts[d]
		}
	}
	return best
}

func trimAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = strings.TrimSpace(s)
	}
	return out
}
