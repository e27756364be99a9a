package importer

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/neetprep/backend/internal/domain/question"
)

const exportSheet = "Questions"

var exportHeader = []any{
	"subject", "chapter", "topic", "difficulty", "text",
	"option_a", "option_b", "option_c", "option_d",
	"correct", "ideal_time", "explanation",
}

// Export writes questions as a spreadsheet in the DefaultConfig layout, so
// the file can be edited and imported again.
func Export(w io.Writer, qs []*question.Question) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), exportSheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return err
	}

	for i, q := range qs {
		row := []any{
			string(q.Subject), q.Chapter, q.Topic, string(q.Difficulty), q.Text,
			option(q, 0), option(q, 1), option(q, 2), option(q, 3),
			q.CorrectOption, q.IdealTime, q.Explanation,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	_, err := f.WriteTo(w)
	return err
}

func option(q *question.Question, i int) string {
	if i < len(q.Options) {
		return q.Options[i]
	}
	return ""
}
