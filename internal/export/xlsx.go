// Package export writes screening results as xlsx workbooks.
package export

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"talentmatch/internal/types"

	"github.com/xuri/excelize/v2"
)

// Sheet names
const (
	SummarySheet    = "Summary"
	CandidatesSheet = "Ranked Candidates"
	ErrorsSheet     = "Errors"
)

var candidateHeaders = []string{
	"Rank", "Candidate ID", "Name", "Overall", "Experience", "Skills", "Industry",
	"Achievements", "Education", "Applied", "Original Job", "Retrieval Score",
	"Matched Skills", "Missing Skills", "Summary",
}

var thinBorder = []excelize.Border{
	{Type: "left", Color: "000000", Style: 1},
	{Type: "right", Color: "000000", Style: 1},
	{Type: "top", Color: "000000", Style: 1},
	{Type: "bottom", Color: "000000", Style: 1},
}

// band fills by overall score, highest first
var bands = []struct {
	min   int
	color string
}{
	{90, "C6EFCE"},
	{70, "FFEB9C"},
	{50, "FFC7CE"},
	{0, "FF9999"},
}

// Workbook builds the workbook for a screening response. The caller closes it.
func Workbook(resp *types.ScreeningResponse, generated time.Time) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		_ = f.Close()
		return nil, err
	}
	if _, err := f.NewSheet(CandidatesSheet); err != nil {
		_ = f.Close()
		return nil, err
	}

	if err := writeSummary(f, resp, generated); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to create summary sheet: %w", err)
	}
	if err := writeCandidates(f, resp.Evaluated); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to create ranked candidates sheet: %w", err)
	}
	if len(resp.Errors) > 0 {
		if err := writeErrors(f, resp.Errors); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to create errors sheet: %w", err)
		}
	}
	return f, nil
}

// Write streams the workbook to w.
func Write(resp *types.ScreeningResponse, w io.Writer) error {
	f, err := Workbook(resp, time.Now())
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return f.Write(w)
}

// SaveFile writes the workbook to path, adding an .xlsx extension when
// missing, and returns the final path.
func SaveFile(resp *types.ScreeningResponse, path string) (string, error) {
	if !strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		path += ".xlsx"
	}
	path = filepath.Clean(path)

	f, err := Workbook(resp, time.Now())
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save workbook: %w", err)
	}
	return path, nil
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func writeSummary(f *excelize.File, resp *types.ScreeningResponse, generated time.Time) error {
	sheet := SummarySheet
	if err := f.SetColWidth(sheet, "A", "A", 26); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "B", "B", 48); err != nil {
		return err
	}

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	labelStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	if err := f.SetCellValue(sheet, "A1", "Screening Report"); err != nil {
		return err
	}
	if err := f.MergeCell(sheet, "A1", "B1"); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", "B1", titleStyle); err != nil {
		return err
	}

	rows := [][2]any{
		{"Job Title", resp.JobTitle},
		{"Job ID", resp.JobID},
		{"Run ID", resp.RunID},
		{"Search Type", resp.SearchType},
		{"Generated", generated.UTC().Format(time.RFC3339)},
		{"Retrieved", resp.Stats.Retrieved},
		{"Evaluated", resp.Stats.TotalEvaluated},
		{"Failed", resp.Stats.Failed},
		{"Returned", resp.Stats.ReturnedCount},
		{"Applied Candidates", resp.Stats.AppliedCandidates},
		{"Potential Candidates", resp.Stats.PotentialCandidates},
	}
	if len(resp.Evaluated) > 0 {
		total := 0
		for _, r := range resp.Evaluated {
			total += r.Evaluation.OverallScore
		}
		rows = append(rows,
			[2]any{"Top Score", resp.Evaluated[0].Evaluation.OverallScore},
			[2]any{"Average Score", fmt.Sprintf("%.1f", float64(total)/float64(len(resp.Evaluated)))},
		)
	}

	for i, r := range rows {
		row := i + 3
		if err := f.SetCellValue(sheet, cell(1, row), r[0]); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell(1, row), cell(1, row), labelStyle); err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell(2, row), r[1]); err != nil {
			return err
		}
	}
	return nil
}

func writeCandidates(f *excelize.File, results []types.RankedResult) error {
	sheet := CandidatesSheet
	widths := []float64{6, 12, 24, 9, 11, 9, 9, 13, 10, 9, 24, 15, 36, 36, 80}
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return err
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thinBorder,
	})
	if err != nil {
		return err
	}
	bandStyles := make([]int, len(bands))
	for i, b := range bands {
		bandStyles[i], err = f.NewStyle(&excelize.Style{
			Fill:      excelize.Fill{Type: "pattern", Color: []string{b.color}, Pattern: 1},
			Border:    thinBorder,
			Alignment: &excelize.Alignment{Vertical: "top", WrapText: true},
		})
		if err != nil {
			return err
		}
	}

	for i, h := range candidateHeaders {
		if err := f.SetCellValue(sheet, cell(i+1, 1), h); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(sheet, cell(1, 1), cell(len(candidateHeaders), 1), headerStyle); err != nil {
		return err
	}
	if err := f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return err
	}

	for i, r := range results {
		row := i + 2
		e := r.Evaluation
		original := ""
		if !r.AppliedToJob {
			original = r.OriginalJobID
			if r.OriginalJobTitle != nil {
				original = fmt.Sprintf("%s (%s)", *r.OriginalJobTitle, r.OriginalJobID)
			}
		}
		values := []any{
			i + 1, r.CandidateID, r.Candidate.Name, e.OverallScore,
			e.YearsExperienceScore, e.Skills.Score, e.IndustryRelevance.Score,
			e.AchievementsAndCerts.Score, e.EducationAlignment.Score,
			yesNo(r.AppliedToJob), original, fmt.Sprintf("%.3f", r.RetrievalScore),
			strings.Join(e.Skills.MatchedSkills, ", "),
			strings.Join(e.Skills.MissingEssentialSkills, ", "),
			e.Summary,
		}
		for col, v := range values {
			if err := f.SetCellValue(sheet, cell(col+1, row), v); err != nil {
				return err
			}
		}
		style := bandStyles[bandIndex(e.OverallScore)]
		if err := f.SetCellStyle(sheet, cell(1, row), cell(len(values), row), style); err != nil {
			return err
		}
	}
	return nil
}

func writeErrors(f *excelize.File, errs []types.CandidateError) error {
	sheet := ErrorsSheet
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", "C", 14); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "D", "D", 80); err != nil {
		return err
	}
	for i, h := range []string{"Candidate ID", "Stage", "Type", "Message"} {
		if err := f.SetCellValue(sheet, cell(i+1, 1), h); err != nil {
			return err
		}
	}
	for i, e := range errs {
		row := i + 2
		for col, v := range []string{e.CandidateID, e.Stage, e.Type, e.Message} {
			if err := f.SetCellValue(sheet, cell(col+1, row), v); err != nil {
				return err
			}
		}
	}
	return nil
}

func bandIndex(score int) int {
	for i, b := range bands {
		if score >= b.min {
			return i
		}
	}
	return len(bands) - 1
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
