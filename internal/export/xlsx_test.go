package export

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"talentmatch/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleResponse() *types.ScreeningResponse {
	title := "Platform Engineer"
	return &types.ScreeningResponse{
		RunID:      "run-1",
		JobID:      "ab12cd34",
		JobTitle:   "Go Engineer",
		SearchType: types.SearchTypeAllCandidates,
		Evaluated: []types.RankedResult{
			{
				CandidateID:  "c1",
				Candidate:    types.CandidateProfile{Name: "Alice"},
				Evaluation:   types.Evaluation{OverallScore: 92, Skills: types.SkillsAssessment{Score: 9, MatchedSkills: []string{"Go", "SQL"}}},
				AppliedToJob: true,
			},
			{
				CandidateID:      "c2",
				Candidate:        types.CandidateProfile{Name: "Bob"},
				Evaluation:       types.Evaluation{OverallScore: 40},
				OriginalJobID:    "ffff0000",
				OriginalJobTitle: &title,
			},
		},
		Stats:  types.ScreeningStats{Retrieved: 3, TotalEvaluated: 2, Failed: 1, ReturnedCount: 2, AppliedCandidates: 1, PotentialCandidates: 1},
		Errors: []types.CandidateError{{CandidateID: "c3", Stage: "evaluation", Type: "upstream", Message: "timeout"}},
	}
}

func TestWorkbook(t *testing.T) {
	f, err := Workbook(sampleResponse(), time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{SummarySheet, CandidatesSheet, ErrorsSheet}, f.GetSheetList())

	get := func(sheet, cell string) string {
		v, err := f.GetCellValue(sheet, cell)
		require.NoError(t, err)
		return v
	}
	assert.Equal(t, "Screening Report", get(SummarySheet, "A1"))
	assert.Equal(t, "Go Engineer", get(SummarySheet, "B3"))
	assert.Equal(t, "2025-01-02T03:04:05Z", get(SummarySheet, "B7"))

	assert.Equal(t, "Rank", get(CandidatesSheet, "A1"))
	assert.Equal(t, "Alice", get(CandidatesSheet, "C2"))
	assert.Equal(t, "92", get(CandidatesSheet, "D2"))
	assert.Equal(t, "yes", get(CandidatesSheet, "J2"))
	assert.Equal(t, "Go, SQL", get(CandidatesSheet, "M2"))
	assert.Equal(t, "Bob", get(CandidatesSheet, "C3"))
	assert.Equal(t, "Platform Engineer (ffff0000)", get(CandidatesSheet, "K3"))

	assert.Equal(t, "c3", get(ErrorsSheet, "A2"))
}

func TestWorkbookWithoutErrors(t *testing.T) {
	resp := sampleResponse()
	resp.Errors = nil
	f, err := Workbook(resp, time.Now())
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	assert.Equal(t, []string{SummarySheet, CandidatesSheet}, f.GetSheetList())
}

func TestSaveFileAddsExtension(t *testing.T) {
	path, err := SaveFile(sampleResponse(), filepath.Join(t.TempDir(), "report"))
	require.NoError(t, err)
	assert.Equal(t, ".xlsx", filepath.Ext(path))

	_, err = os.Stat(path)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	v, err := f.GetCellValue(CandidatesSheet, "B2")
	require.NoError(t, err)
	assert.Equal(t, "c1", v)
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(sampleResponse(), &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	v, err := f.GetCellValue(SummarySheet, "B4")
	require.NoError(t, err)
	assert.Equal(t, "ab12cd34", v)
}

func TestBandIndex(t *testing.T) {
	assert.Equal(t, 0, bandIndex(100))
	assert.Equal(t, 0, bandIndex(90))
	assert.Equal(t, 1, bandIndex(89))
	assert.Equal(t, 2, bandIndex(50))
	assert.Equal(t, 3, bandIndex(0))
}
