// Package coursespec reads course specifications from CSV files.
//
// A spec file starts with a header of labelled rows:
//
//	Base Dir:,<dir>
//	Target Dir:,<dir>
//	Template Dir:,<dir>
//	Language:,<lang>
//	Programming Language:,<lang>
//
// followed by a blank line and one source,target_dir,kind row per document.
// Rows whose source starts with '#' are commented out.
package coursespec

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ErrBadHeader is returned when the header rows are missing or mislabelled.
var ErrBadHeader = errors.New("coursespec: bad header")

const defaultProgLang = "python"

var headerLabels = []string{"Base Dir:", "Target Dir:", "Template Dir:", "Language:"}

const progLangLabel = "Programming Language:"

// DocumentSpec describes one document of a course.
type DocumentSpec struct {
	SourceFile        string `json:"source_file"`
	TargetDirFragment string `json:"target_dir_fragment"`
	Kind              string `json:"kind"`
	FileNum           int    `json:"file_num"`
}

// CourseSpec is a parsed course specification.
type CourseSpec struct {
	BaseDir     string         `json:"base_dir"`
	TargetDir   string         `json:"target_dir"`
	TemplateDir string         `json:"template_dir"`
	Lang        string         `json:"lang"`
	ProgLang    string         `json:"prog_lang"`
	Documents   []DocumentSpec `json:"documents"`
}

// Lookup returns the spec for source (relative to BaseDir), if listed.
func (s *CourseSpec) Lookup(source string) (DocumentSpec, bool) {
	source = filepath.ToSlash(filepath.Clean(source))
	for _, d := range s.Documents {
		if filepath.ToSlash(filepath.Clean(d.SourceFile)) == source {
			return d, true
		}
	}
	return DocumentSpec{}, false
}

// ReadFile reads the spec at path. Relative directories in the header are
// resolved against the directory containing the file.
func ReadFile(path string, logger *slog.Logger) (*CourseSpec, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("coursespec: resolve %s: %w", path, err)
	}
	f, err := os.Open(abs)
	if err != nil {
		return nil, fmt.Errorf("coursespec: open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f, filepath.Dir(abs), logger)
}

// Read parses a spec from r, resolving relative directories against root.
func Read(r io.Reader, root string, logger *slog.Logger) (*CourseSpec, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("coursespec: resolve root: %w", err)
	}

	records, err := readRecords(r)
	if err != nil {
		return nil, err
	}

	spec, rest, err := parseHeader(records, root)
	if err != nil {
		return nil, err
	}

	counters := make(map[[2]string]int)
	for _, rec := range rest {
		row := rec.fields
		if isBlank(row) {
			continue
		}
		if len(row) != 3 {
			logger.Error("skipping bad entry in CSV file", slog.String("entry", strings.Join(row, ",")))
			continue
		}
		source, target, kind := strings.TrimSpace(row[0]), strings.TrimSpace(row[1]), strings.TrimSpace(row[2])
		if strings.HasPrefix(source, "#") {
			continue
		}
		key := [2]string{target, kind}
		counters[key]++
		spec.Documents = append(spec.Documents, DocumentSpec{
			SourceFile:        source,
			TargetDirFragment: target,
			Kind:              kind,
			FileNum:           counters[key],
		})
	}
	return spec, nil
}

// record is one CSV row and the input line it starts on. encoding/csv
// drops empty lines, so the line numbers are what reveal them.
type record struct {
	fields []string
	line   int
}

func readRecords(r io.Reader) ([]record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	var records []record
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, fmt.Errorf("coursespec: read csv: %w", err)
		}
		line, _ := cr.FieldPos(0)
		records = append(records, record{fields: fields, line: line})
	}
}

func parseHeader(records []record, root string) (*CourseSpec, []record, error) {
	if len(records) < len(headerLabels) {
		return nil, nil, fmt.Errorf("%w: incomplete header: %d rows", ErrBadHeader, len(records))
	}
	values := make([]string, len(headerLabels))
	for i, label := range headerLabels {
		v, err := headerValue(records[i].fields, label)
		if err != nil {
			return nil, nil, err
		}
		values[i] = v
	}

	next := len(headerLabels)
	progLang := defaultProgLang
	if next < len(records) && adjacent(records[next-1], records[next]) && !isBlank(records[next].fields) {
		first := strings.TrimSpace(records[next].fields[0])
		switch {
		case first == progLangLabel:
			v, err := headerValue(records[next].fields, progLangLabel)
			if err != nil {
				return nil, nil, err
			}
			progLang = v
			next++
		case strings.HasSuffix(first, ":"):
			return nil, nil, fmt.Errorf("%w: expected programming language entry, got %v", ErrBadHeader, records[next].fields)
		}
	}

	// The header ends with an empty line, or a row of empty fields.
	if next < len(records) {
		switch {
		case isBlank(records[next].fields):
			next++
		case adjacent(records[next-1], records[next]):
			return nil, nil, fmt.Errorf("%w: expected empty line after header, got %v", ErrBadHeader, records[next].fields)
		}
	}

	spec := &CourseSpec{
		BaseDir:     resolve(root, values[0]),
		TargetDir:   resolve(root, values[1]),
		TemplateDir: resolve(root, values[2]),
		Lang:        values[3],
		ProgLang:    progLang,
	}
	return spec, records[next:], nil
}

// adjacent reports whether b starts on the line right after a.
func adjacent(a, b record) bool {
	return b.line == a.line+1
}

func headerValue(row []string, label string) (string, error) {
	if len(row) < 2 || strings.TrimSpace(row[0]) != label {
		return "", fmt.Errorf("%w: expected %q entry, got %v", ErrBadHeader, label, row)
	}
	return strings.TrimSpace(row[1]), nil
}

func resolve(root, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(root, p)
}

func isBlank(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
