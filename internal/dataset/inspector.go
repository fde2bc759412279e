package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/ayushvishnoipro/EXCEL-MOCK-Interviewer/pkg/logger"
)

// Excerpt is a bounded preview of a tabular file, small enough to embed in a
// question prompt.
type Excerpt struct {
	Filename string     `json:"filename"`
	Columns  []string   `json:"columns"`
	RowCount int        `json:"row_count"`
	Sample   [][]string `json:"sample"`
}

type Inspector struct {
	dir        string
	sampleRows int
}

func NewInspector(dir string, sampleRows int) *Inspector {
	if sampleRows <= 0 {
		sampleRows = 5
	}
	return &Inspector{dir: dir, sampleRows: sampleRows}
}

// ListFiles returns the CSV files available for data-grounded questions.
func (i *Inspector) ListFiles() ([]string, error) {
	entries, err := os.ReadDir(i.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read dataset dir: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".csv") {
			files = append(files, entry.Name())
		}
	}
	return files, nil
}

// Inspect reads a CSV file and returns its column names, total row count and
// a sample of the first rows.
func (i *Inspector) Inspect(filename string) (*Excerpt, error) {
	path := filepath.Join(i.dir, filepath.Base(filename))

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header from %s: %w", filename, err)
	}

	excerpt := &Excerpt{
		Filename: filepath.Base(filename),
		Columns:  header,
	}

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A ragged or broken row should not sink the preview.
			logger.Warn("Skipping malformed CSV row",
				zap.String("file", filename),
				zap.Error(err),
			)
			continue
		}
		excerpt.RowCount++
		if len(excerpt.Sample) < i.sampleRows {
			excerpt.Sample = append(excerpt.Sample, row)
		}
	}

	logger.Debug("Dataset inspected",
		zap.String("file", filename),
		zap.Int("rows", excerpt.RowCount),
		zap.Int("columns", len(excerpt.Columns)),
	)

	return excerpt, nil
}

// PromptContext renders the excerpt the way question prompts embed it.
func (e *Excerpt) PromptContext() string {
	var b strings.Builder
	fmt.Fprintf(&b, "File: %s\n", e.Filename)
	fmt.Fprintf(&b, "Columns: %s\n", strings.Join(e.Columns, ", "))
	fmt.Fprintf(&b, "Total rows: %d\n", e.RowCount)
	for n, row := range e.Sample {
		fmt.Fprintf(&b, "Row %d: %s\n", n+1, strings.Join(row, " | "))
	}
	return b.String()
}
