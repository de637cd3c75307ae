package dosegrid

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

const (
	// MetadataLines precede the column header row
	MetadataLines = 25

	// HeaderLines is the whole header region, metadata plus column labels
	HeaderLines = MetadataLines + 1

	// leadingArtifacts and trailingArtifacts are body rows written by the
	// export that are not measurements
	leadingArtifacts  = 1
	trailingArtifacts = 2

	maxLineBytes = 4 * 1024 * 1024
)

// record is one tab-split body line
type record struct {
	line   int
	fields []string
}

// Parse reads a tab-separated planar dose export.
//
// The first MetadataLines lines are skipped and the next one labels the
// columns. Each following line starts with its row label and ends with an
// empty trailing field, both of which are not dose values. The first data row
// and the last two are export artifacts and are dropped.
func Parse(r io.Reader) (*Grid, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var header *record
	var body []record
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		text := strings.TrimRight(scanner.Text(), "\r")

		switch {
		case lineNo <= MetadataLines:
			continue
		case lineNo == HeaderLines:
			header = &record{line: lineNo, fields: strings.Split(text, "\t")}
		default:
			if strings.TrimSpace(text) == "" {
				continue
			}
			body = append(body, record{line: lineNo, fields: strings.Split(text, "\t")})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, malformed(lineNo, err, "read failed")
	}

	if header == nil {
		return nil, malformed(0, nil, "file has %d lines, header region needs %d", lineNo, HeaderLines)
	}

	// label column and trailing artifact column
	if len(header.fields) < 3 {
		return nil, malformed(header.line, nil, "header has no data columns")
	}
	cols, err := parseLabels(header.fields[1:len(header.fields)-1], header.line, "column")
	if err != nil {
		return nil, err
	}

	if len(body) <= leadingArtifacts+trailingArtifacts {
		return nil, malformed(0, nil, "file has %d data rows, need more than %d",
			len(body), leadingArtifacts+trailingArtifacts)
	}
	body = body[leadingArtifacts : len(body)-trailingArtifacts]

	rows := make([]float64, len(body))
	values := make([]float64, 0, len(body)*len(cols))

	for i, rec := range body {
		if len(rec.fields) != len(header.fields) {
			return nil, malformed(rec.line, nil, "row has %d fields, header has %d",
				len(rec.fields), len(header.fields))
		}

		label, err := parseLabel(rec.fields[0])
		if err != nil {
			return nil, malformed(rec.line, err, "row label %q", rec.fields[0])
		}
		rows[i] = label

		for _, field := range rec.fields[1 : len(rec.fields)-1] {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, malformed(rec.line, err, "dose value %q", field)
			}
			values = append(values, v)
		}
	}

	grid, err := NewGrid(rows, cols, mat.NewDense(len(rows), len(cols), values))
	if err != nil {
		return nil, err
	}

	if err := grid.checkCoverage(); err != nil {
		return nil, err
	}

	return grid, nil
}

// ParseFile opens and parses the dose export at path
func ParseFile(path string) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dose grid: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// parseLabel turns padded label text such as " -6.200 " into a coordinate
func parseLabel(text string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(text), 64)
}

func parseLabels(fields []string, line int, kind string) ([]float64, error) {
	labels := make([]float64, len(fields))
	for i, f := range fields {
		v, err := parseLabel(f)
		if err != nil {
			return nil, malformed(line, err, "%s label %q", kind, f)
		}
		labels[i] = v
	}
	return labels, nil
}
