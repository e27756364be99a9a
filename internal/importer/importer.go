// Package importer loads question banks from spreadsheets (.xlsx) and CSV
// files. Bad rows are reported and skipped; they never abort an import.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/neetprep/backend/internal/domain/question"
)

type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// Config says where each field lives. Columns are spreadsheet letters.
type Config struct {
	SheetName string // empty = first sheet
	StartRow  int    // 1-based; 2 skips a header row

	SubjectColumn     string
	ChapterColumn     string
	TopicColumn       string
	DifficultyColumn  string
	TextColumn        string
	OptionColumns     [4]string
	CorrectColumn     string
	IdealTimeColumn   string
	ExplanationColumn string
}

func DefaultConfig() Config {
	return Config{
		StartRow:          2,
		SubjectColumn:     "A",
		ChapterColumn:     "B",
		TopicColumn:       "C",
		DifficultyColumn:  "D",
		TextColumn:        "E",
		OptionColumns:     [4]string{"F", "G", "H", "I"},
		CorrectColumn:     "J",
		IdealTimeColumn:   "K",
		ExplanationColumn: "L",
	}
}

type RowError struct {
	Row int    `json:"row"`
	Err string `json:"error"`
}

type Result struct {
	TotalProcessed int                  `json:"total_processed"`
	Imported       int                  `json:"imported"`
	Errors         []RowError           `json:"errors"`
	Questions      []*question.Question `json:"-"`
}

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return FormatXLSX, nil
	case ".csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unsupported file type %q (want .xlsx or .csv)", filepath.Ext(path))
	}
}

// Parse reads every data row of r into validated questions.
func Parse(r io.Reader, format Format, cfg Config) (*Result, error) {
	cols, err := cfg.indexes()
	if err != nil {
		return nil, err
	}

	var rows [][]string
	switch format {
	case FormatXLSX:
		rows, err = readXLSX(r, cfg.SheetName)
	case FormatCSV:
		rows, err = readCSV(r)
	default:
		err = fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return nil, err
	}

	res := &Result{Errors: []RowError{}}
	start := max(cfg.StartRow, 1)
	for i, row := range rows {
		rowNum := i + 1
		if rowNum < start || blank(row) {
			continue
		}
		res.TotalProcessed++

		q, err := parseRow(row, cols)
		if err != nil {
			res.Errors = append(res.Errors, RowError{Row: rowNum, Err: err.Error()})
			continue
		}
		res.Questions = append(res.Questions, q)
	}
	res.Imported = len(res.Questions)
	return res, nil
}

func readXLSX(r io.Reader, sheet string) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open spreadsheet: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("spreadsheet has no sheets")
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return rows, nil
}

type columns struct {
	subject, chapter, topic, difficulty, text int
	options                                   [4]int
	correct, idealTime, explanation           int
}

func (c Config) indexes() (columns, error) {
	var out columns
	var err error
	idx := func(name string, dst *int) {
		if err != nil {
			return
		}
		if name == "" {
			*dst = -1
			return
		}
		var n int
		n, err = excelize.ColumnNameToNumber(name)
		*dst = n - 1
	}
	idx(c.SubjectColumn, &out.subject)
	idx(c.ChapterColumn, &out.chapter)
	idx(c.TopicColumn, &out.topic)
	idx(c.DifficultyColumn, &out.difficulty)
	idx(c.TextColumn, &out.text)
	for i := range c.OptionColumns {
		idx(c.OptionColumns[i], &out.options[i])
	}
	idx(c.CorrectColumn, &out.correct)
	idx(c.IdealTimeColumn, &out.idealTime)
	idx(c.ExplanationColumn, &out.explanation)
	if err != nil {
		return columns{}, fmt.Errorf("column config: %w", err)
	}
	return out, nil
}

func parseRow(row []string, c columns) (*question.Question, error) {
	cell := func(i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	subject, err := question.ParseSubject(cell(c.subject))
	if err != nil {
		return nil, err
	}
	difficulty, err := question.ParseDifficulty(cell(c.difficulty))
	if err != nil {
		return nil, err
	}

	options := make([]string, len(c.options))
	for i, col := range c.options {
		options[i] = cell(col)
	}

	q := question.New(subject, cell(c.chapter), cell(c.topic), cell(c.text), options, cell(c.correct))
	q.Difficulty = difficulty
	q.Explanation = cell(c.explanation)

	if s := cell(c.idealTime); s != "" {
		secs, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("ideal time %q is not a number of seconds", s)
		}
		q.IdealTime = secs
	}

	if err := q.Validate(); err != nil {
		return nil, err
	}
	return q, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// QuestionSaver is the part of the store an import writes to.
type QuestionSaver interface {
	SaveQuestions(ctx context.Context, qs []*question.Question) error
}

// ImportFile parses path and saves the valid questions in one batch.
func ImportFile(ctx context.Context, s QuestionSaver, path string, cfg Config) (*Result, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Import(ctx, s, f, format, cfg)
}

// Import parses r and saves the valid questions in one batch.
func Import(ctx context.Context, s QuestionSaver, r io.Reader, format Format, cfg Config) (*Result, error) {
	res, err := Parse(r, format, cfg)
	if err != nil {
		return nil, err
	}
	if len(res.Questions) > 0 {
		if err := s.SaveQuestions(ctx, res.Questions); err != nil {
			return nil, fmt.Errorf("save questions: %w", err)
		}
	}
	return res, nil
}
