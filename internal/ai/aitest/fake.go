// Package aitest provides scriptable fakes for the ai interfaces.
package aitest

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"talentmatch/internal/ai"
	"talentmatch/internal/types"
)

// Oracle is a fake ai.ScoringOracle. Respond decides the reply per call.
type Oracle struct {
	Respond func(ctx context.Context, input ai.EvaluationInput) (json.RawMessage, error)

	calls    atomic.Int64
	inFlight atomic.Int64
	peak     atomic.Int64
}

func (o *Oracle) Evaluate(ctx context.Context, input ai.EvaluationInput) (json.RawMessage, *ai.TokenUsage, error) {
	o.calls.Add(1)
	n := o.inFlight.Add(1)
	defer o.inFlight.Add(-1)
	for {
		p := o.peak.Load()
		if n <= p || o.peak.CompareAndSwap(p, n) {
			break
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	raw, err := o.Respond(ctx, input)
	return raw, &ai.TokenUsage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}, err
}

// Calls returns the number of Evaluate calls.
func (o *Oracle) Calls() int { return int(o.calls.Load()) }

// PeakConcurrency returns the highest number of simultaneous calls seen.
func (o *Oracle) PeakConcurrency() int { return int(o.peak.Load()) }

// CandidateName extracts the candidate name from an evaluation input.
func CandidateName(input ai.EvaluationInput) string {
	var c struct {
		Name string `json:"name"`
	}
	_ = json.Unmarshal(input.Candidate, &c)
	return c.Name
}

// EvaluationJSON builds a schema-valid evaluation with the given sub-scores
// in the order years, skills, industry, achievements, education.
func EvaluationJSON(scores [5]int, oracleOverall int) json.RawMessage {
	notes := map[string]any{"notes": []string{"evidence"}}
	doc := map[string]any{
		"years_experience_score":    scores[0],
		"years_experience_evidence": notes,
		"skills": map[string]any{
			"score":                    scores[1],
			"matched_skills":           []string{"Go"},
			"missing_essential_skills": []string{},
			"nice_to_have_matched":     []string{},
			"evidence":                 notes,
		},
		"industry_relevance":     map[string]any{"score": scores[2], "evidence": notes},
		"achievements_and_certs": map[string]any{"score": scores[3], "evidence": notes},
		"education_alignment":    map[string]any{"score": scores[4], "evidence": notes},
		"overall_score_0_to_100": oracleOverall,
		"summary":                "fit summary",
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		panic(err)
	}
	return raw
}

// Uniform returns sub-scores all equal to s.
func Uniform(s int) [5]int {
	return [5]int{s, s, s, s, s}
}

// Embedder is a deterministic fake ai.Embedder. Texts map to unit vectors
// derived from their hash unless Vectors has an explicit entry.
type Embedder struct {
	Dimensions int
	Err        error

	mu      sync.Mutex
	Vectors map[string][]float32
	Texts   []string
}

func (e *Embedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Texts = append(e.Texts, text)
	if e.Err != nil {
		return nil, e.Err
	}
	if v, ok := e.Vectors[text]; ok {
		return v, nil
	}
	dims := e.Dimensions
	if dims <= 0 {
		dims = 8
	}
	sum := sha256.Sum256([]byte(text))
	v := make([]float32, dims)
	for i := range v {
		v[i] = float32(sum[i%len(sum)]) + 1
	}
	return ai.NormalizeL2(v), nil
}

// Writer fakes the profile extractor, summarizer and job writer.
type Writer struct {
	// Profiles maps document text to raw extractor output.
	Profiles   map[string]string
	ExtractErr error
	SummaryErr error
	JobErr     error
}

func (w *Writer) ExtractProfile(_ context.Context, text string) (json.RawMessage, *ai.TokenUsage, error) {
	if w.ExtractErr != nil {
		return nil, nil, w.ExtractErr
	}
	raw, ok := w.Profiles[text]
	if !ok {
		return nil, nil, fmt.Errorf("no scripted profile for %q", text)
	}
	return json.RawMessage(raw), nil, nil
}

func (w *Writer) SummarizeProfile(_ context.Context, profile json.RawMessage) (string, *ai.TokenUsage, error) {
	if w.SummaryErr != nil {
		return "", nil, w.SummaryErr
	}
	var p struct {
		Name string `json:"name"`
	}
	_ = json.Unmarshal(profile, &p)
	return fmt.Sprintf("%s is an experienced engineer skilled in Go.", p.Name), nil, nil
}

func (w *Writer) DescribeJob(_ context.Context, req types.JobRequest) (string, *ai.TokenUsage, error) {
	if w.JobErr != nil {
		return "", nil, w.JobErr
	}
	return fmt.Sprintf("### %s Job Description\n\n### Technical Skills (Required)\n- %s", req.JobTitle, req.RequiredSkills), nil, nil
}
