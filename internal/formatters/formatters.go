package formatters

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"talentmatch/internal/types"
)

// Data type keys
const (
	TypeAny               = "any"
	TypeScreeningResponse = "ScreeningResponse"
	TypeScreeningSummary  = "ScreeningSummary"
	TypeJobList           = "JobList"
	TypeJob               = "Job"
	TypeGeneratedJob      = "GeneratedJob"
	TypeIngestReport      = "IngestReport"
	TypeUploadList        = "UploadList"
	TypeUploadResult      = "UploadResult"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", TypeAny, &JSONFormatter{})
	registry.RegisterFormatter("text", TypeScreeningResponse, &ScreeningTextFormatter{})
	registry.RegisterFormatter("markdown", TypeScreeningResponse, &ScreeningMarkdownFormatter{})

	for _, format := range []string{"text", "markdown"} {
		md := format == "markdown"
		registry.RegisterFormatter(format, TypeScreeningSummary, funcFormatter{TypeScreeningSummary, func(v any) string { return summary(v.(*types.ScreeningSummary), md) }})
		registry.RegisterFormatter(format, TypeJobList, funcFormatter{TypeJobList, func(v any) string { return jobList(v.([]types.JobSummary), md) }})
		registry.RegisterFormatter(format, TypeJob, funcFormatter{TypeJob, func(v any) string { return job(v.(*types.JobPosting), md) }})
		registry.RegisterFormatter(format, TypeGeneratedJob, funcFormatter{TypeGeneratedJob, func(v any) string { return generatedJob(v.(*types.GeneratedJob), md) }})
		registry.RegisterFormatter(format, TypeIngestReport, funcFormatter{TypeIngestReport, func(v any) string { return ingestReport(v.(*types.IngestReport), md) }})
		registry.RegisterFormatter(format, TypeUploadList, funcFormatter{TypeUploadList, func(v any) string { return uploadList(v.([]types.UploadedFile), md) }})
		registry.RegisterFormatter(format, TypeUploadResult, funcFormatter{TypeUploadResult, func(v any) string { return uploadResult(v.(*types.UploadResult), md) }})
	}

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter. Values of the
// pointer types are accepted as values too.
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	data = normalize(data)
	dataType := getDataType(data)

	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		if formatter, exists := formatters[TypeAny]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns the registered format names, sorted.
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	return slices.Sorted(maps.Keys(fr.formatters))
}

func normalize(data any) any {
	switch v := data.(type) {
	case types.ScreeningResponse:
		return &v
	case types.ScreeningSummary:
		return &v
	case types.JobPosting:
		return &v
	case types.GeneratedJob:
		return &v
	case types.IngestReport:
		return &v
	case types.UploadResult:
		return &v
	}
	return data
}

func getDataType(data any) string {
	switch data.(type) {
	case *types.ScreeningResponse:
		return TypeScreeningResponse
	case *types.ScreeningSummary:
		return TypeScreeningSummary
	case []types.JobSummary:
		return TypeJobList
	case *types.JobPosting:
		return TypeJob
	case *types.GeneratedJob:
		return TypeGeneratedJob
	case *types.IngestReport:
		return TypeIngestReport
	case []types.UploadedFile:
		return TypeUploadList
	case *types.UploadResult:
		return TypeUploadResult
	default:
		return TypeAny
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return TypeAny
}

type funcFormatter struct {
	dataType string
	render   func(any) string
}

func (ff funcFormatter) Format(data any) (string, error) {
	if getDataType(data) != ff.dataType {
		return "", fmt.Errorf("expected %s, got %T", ff.dataType, data)
	}
	return ff.render(data), nil
}

func (ff funcFormatter) SupportedType() string { return ff.dataType }

// ScreeningTextFormatter renders a screening response as plain text
type ScreeningTextFormatter struct{}

func (stf *ScreeningTextFormatter) Format(data any) (string, error) {
	resp, ok := data.(*types.ScreeningResponse)
	if !ok {
		return "", fmt.Errorf("expected ScreeningResponse, got %T", data)
	}

	var output strings.Builder

	fmt.Fprintf(&output, "=== SCREENING: %s (%s) ===\n", resp.JobTitle, resp.JobID)
	fmt.Fprintf(&output, "Run: %s\nSearch type: %s\n", resp.RunID, resp.SearchType)
	fmt.Fprintf(&output, "Retrieved: %d  Evaluated: %d  Failed: %d  Returned: %d (applied %d, potential %d)\n\n",
		resp.Stats.Retrieved, resp.Stats.TotalEvaluated, resp.Stats.Failed, resp.Stats.ReturnedCount,
		resp.Stats.AppliedCandidates, resp.Stats.PotentialCandidates)

	if len(resp.Evaluated) == 0 {
		output.WriteString("No candidates evaluated.\n")
	}
	for i, r := range resp.Evaluated {
		e := r.Evaluation
		fmt.Fprintf(&output, "%d. %s [%s] %d/100  %s\n", i+1, r.Candidate.Name, r.CandidateID, e.OverallScore, provenance(r))
		fmt.Fprintf(&output, "   experience %d, skills %d, industry %d, achievements %d, education %d\n",
			e.YearsExperienceScore, e.Skills.Score, e.IndustryRelevance.Score,
			e.AchievementsAndCerts.Score, e.EducationAlignment.Score)
		if len(e.Skills.MatchedSkills) > 0 {
			fmt.Fprintf(&output, "   matched: %s\n", strings.Join(e.Skills.MatchedSkills, ", "))
		}
		if len(e.Skills.MissingEssentialSkills) > 0 {
			fmt.Fprintf(&output, "   missing: %s\n", strings.Join(e.Skills.MissingEssentialSkills, ", "))
		}
		if e.Summary != "" {
			fmt.Fprintf(&output, "   %s\n", e.Summary)
		}
	}

	if len(resp.Errors) > 0 {
		output.WriteString("\n=== ERRORS ===\n")
		for _, e := range resp.Errors {
			fmt.Fprintf(&output, "- %s (%s/%s): %s\n", e.CandidateID, e.Stage, e.Type, e.Message)
		}
	}

	return output.String(), nil
}

func (stf *ScreeningTextFormatter) SupportedType() string {
	return TypeScreeningResponse
}

// ScreeningMarkdownFormatter renders a screening response as markdown
type ScreeningMarkdownFormatter struct{}

func (smf *ScreeningMarkdownFormatter) Format(data any) (string, error) {
	resp, ok := data.(*types.ScreeningResponse)
	if !ok {
		return "", fmt.Errorf("expected ScreeningResponse, got %T", data)
	}

	var output strings.Builder

	fmt.Fprintf(&output, "# Screening: %s\n\n", resp.JobTitle)
	fmt.Fprintf(&output, "- **Job ID:** %s\n- **Run ID:** %s\n- **Search type:** %s\n", resp.JobID, resp.RunID, resp.SearchType)
	fmt.Fprintf(&output, "- **Evaluated:** %d (failed %d)\n- **Returned:** %d (applied %d, potential %d)\n\n",
		resp.Stats.TotalEvaluated, resp.Stats.Failed, resp.Stats.ReturnedCount,
		resp.Stats.AppliedCandidates, resp.Stats.PotentialCandidates)

	output.WriteString("## Ranked Candidates\n\n")
	output.WriteString("| # | Candidate | Overall | Exp | Skills | Industry | Achiev. | Edu | Source |\n")
	output.WriteString("|---|---|---|---|---|---|---|---|---|\n")
	for i, r := range resp.Evaluated {
		e := r.Evaluation
		fmt.Fprintf(&output, "| %d | %s | %d | %d | %d | %d | %d | %d | %s |\n",
			i+1, escapeCell(r.Candidate.Name), e.OverallScore, e.YearsExperienceScore, e.Skills.Score,
			e.IndustryRelevance.Score, e.AchievementsAndCerts.Score, e.EducationAlignment.Score,
			escapeCell(provenance(r)))
	}

	for _, r := range resp.Evaluated {
		if r.Evaluation.Summary == "" {
			continue
		}
		fmt.Fprintf(&output, "\n### %s\n\n%s\n", r.Candidate.Name, r.Evaluation.Summary)
	}

	if len(resp.Errors) > 0 {
		output.WriteString("\n## Errors\n\n")
		for _, e := range resp.Errors {
			fmt.Fprintf(&output, "- `%s` %s/%s: %s\n", e.CandidateID, e.Stage, e.Type, e.Message)
		}
	}

	return output.String(), nil
}

func (smf *ScreeningMarkdownFormatter) SupportedType() string {
	return TypeScreeningResponse
}

func provenance(r types.RankedResult) string {
	if r.AppliedToJob {
		return "applied"
	}
	if r.OriginalJobTitle != nil {
		return fmt.Sprintf("potential, from %s", *r.OriginalJobTitle)
	}
	if r.OriginalJobID != "" {
		return fmt.Sprintf("potential, from job %s", r.OriginalJobID)
	}
	return "potential"
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func summary(s *types.ScreeningSummary, md bool) string {
	if md {
		return fmt.Sprintf("# Screening Summary: %s\n\n| Stage | Count |\n|---|---|\n| Processed | %d |\n| Filtered | %d |\n| Semantic matched | %d |\n| LLM evaluated | %d |\n",
			s.JobID, s.FastFilterProcessed, s.FastFilterFiltered, s.SemanticMatched, s.LLMEvaluated)
	}
	return fmt.Sprintf("Job %s\n  processed:        %d\n  filtered:         %d\n  semantic matched: %d\n  llm evaluated:    %d\n",
		s.JobID, s.FastFilterProcessed, s.FastFilterFiltered, s.SemanticMatched, s.LLMEvaluated)
}

func jobList(jobs []types.JobSummary, md bool) string {
	var output strings.Builder
	if md {
		output.WriteString("| Job ID | Title | Created |\n|---|---|---|\n")
		for _, j := range jobs {
			fmt.Fprintf(&output, "| %s | %s | %s |\n", j.JobID, escapeCell(j.Title), j.CreatedAt.UTC().Format(time.DateOnly))
		}
		return output.String()
	}
	if len(jobs) == 0 {
		return "No jobs found.\n"
	}
	for _, j := range jobs {
		fmt.Fprintf(&output, "%s  %s  %s\n", j.JobID, j.CreatedAt.UTC().Format(time.DateOnly), j.Title)
	}
	return output.String()
}

func job(j *types.JobPosting, md bool) string {
	if md {
		return fmt.Sprintf("# %s\n\n- **Job ID:** %s\n- **Created:** %s\n\n%s\n",
			j.Title, j.JobID, j.CreatedAt.UTC().Format(time.DateOnly), j.Description)
	}
	return fmt.Sprintf("=== %s ===\nJob ID: %s\nCreated: %s\n\n%s\n",
		j.Title, j.JobID, j.CreatedAt.UTC().Format(time.DateOnly), j.Description)
}

func generatedJob(g *types.GeneratedJob, md bool) string {
	if md {
		return fmt.Sprintf("# %s\n\n%s\n", g.JobTitle, g.JobDescription)
	}
	return fmt.Sprintf("=== %s ===\n\n%s\n", g.JobTitle, g.JobDescription)
}

func ingestReport(r *types.IngestReport, md bool) string {
	var output strings.Builder
	if md {
		fmt.Fprintf(&output, "# Ingestion: %s\n\n- **Inserted:** %d\n- **Replaced:** %d\n- **Failed:** %d\n",
			r.JobID, r.TotalCandidates, r.Replaced, len(r.Errors))
		if len(r.Errors) > 0 {
			output.WriteString("\n| Source | Stage | Error |\n|---|---|---|\n")
			for _, e := range r.Errors {
				fmt.Fprintf(&output, "| %s | %s | %s |\n", escapeCell(e.Source), e.Stage, escapeCell(e.Message))
			}
		}
		return output.String()
	}

	fmt.Fprintf(&output, "Job %s: %d inserted, %d replaced, %d failed\n", r.JobID, r.TotalCandidates, r.Replaced, len(r.Errors))
	for _, id := range r.Inserted {
		fmt.Fprintf(&output, "  + %s\n", id)
	}
	for _, e := range r.Errors {
		fmt.Fprintf(&output, "  ! %s [%s] %s\n", e.Source, e.Stage, e.Message)
	}
	return output.String()
}

func uploadList(files []types.UploadedFile, md bool) string {
	var output strings.Builder
	if md {
		output.WriteString("| File | Size | Modified |\n|---|---|---|\n")
		for _, f := range files {
			fmt.Fprintf(&output, "| %s | %s | %s |\n", escapeCell(f.Name), FormatFileSize(f.Size), f.ModifiedAt.Format(time.RFC3339))
		}
		return output.String()
	}
	if len(files) == 0 {
		return "No uploads.\n"
	}
	for _, f := range files {
		fmt.Fprintf(&output, "%-40s %10s  %s\n", f.Name, FormatFileSize(f.Size), f.ModifiedAt.Format(time.RFC3339))
	}
	return output.String()
}

func uploadResult(r *types.UploadResult, md bool) string {
	var output strings.Builder
	item := "  "
	if md {
		fmt.Fprintf(&output, "# Upload: %s\n\n", r.JobID)
		item = "- "
	}
	fmt.Fprintf(&output, "Saved %d file(s) for job %s\n", r.Saved, r.JobID)
	for _, name := range r.Filenames {
		fmt.Fprintf(&output, "%s%s\n", item, name)
	}
	for _, e := range r.Errors {
		fmt.Fprintf(&output, "%serror: %s\n", item, e)
	}
	return output.String()
}

// FormatFileSize returns a human-readable file size
func FormatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
