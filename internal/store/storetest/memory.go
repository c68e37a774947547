// Package storetest provides an in-memory store.Store for tests.
package storetest

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"

	"talentmatch/internal/store"
	"talentmatch/internal/types"
)

// Memory is a goroutine-safe in-memory store.Store. Vector search uses
// cosine similarity; lexical search counts distinct shared terms.
type Memory struct {
	mu         sync.RWMutex
	jobs       map[string]types.JobPosting
	candidates map[string]types.CandidateProfile

	// Err, when set, is returned by every search call.
	Err error
}

var _ store.Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		jobs:       make(map[string]types.JobPosting),
		candidates: make(map[string]types.CandidateProfile),
	}
}

func (m *Memory) UpsertJob(_ context.Context, job types.JobPosting) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.JobID] = job
	return nil
}

// DeleteJob removes a job; candidates keep their job_id.
func (m *Memory) DeleteJob(jobID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.jobs, jobID)
}

func (m *Memory) GetJob(_ context.Context, jobID string) (*types.JobPosting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return nil, nil
	}
	return &job, nil
}

func (m *Memory) ListJobs(_ context.Context, limit int) ([]types.JobSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]types.JobSummary, 0, len(m.jobs))
	for _, j := range m.jobs {
		out = append(out, types.JobSummary{JobID: j.JobID, Title: j.Title, CreatedAt: j.CreatedAt})
	}
	sort.Slice(out, func(i, k int) bool {
		if !out[i].CreatedAt.Equal(out[k].CreatedAt) {
			return out[i].CreatedAt.After(out[k].CreatedAt)
		}
		return out[i].JobID < out[k].JobID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) JobTitles(_ context.Context, jobIDs []string) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	titles := make(map[string]string, len(jobIDs))
	for _, id := range jobIDs {
		if j, ok := m.jobs[id]; ok {
			titles[id] = j.Title
		}
	}
	return titles, nil
}

func (m *Memory) UpsertCandidate(_ context.Context, c types.CandidateProfile) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	replaced := 0
	if c.SourceDigest != "" {
		for id, existing := range m.candidates {
			if id != c.CandidateID && existing.JobID == c.JobID && existing.SourceDigest == c.SourceDigest {
				delete(m.candidates, id)
				replaced++
			}
		}
	}
	m.candidates[c.CandidateID] = c
	return replaced, nil
}

// Candidate returns a stored candidate by id.
func (m *Memory) Candidate(id string) (types.CandidateProfile, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.candidates[id]
	return c, ok
}

func (m *Memory) CountCandidates(_ context.Context, jobID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, c := range m.candidates {
		if c.JobID == jobID {
			n++
		}
	}
	return n, nil
}

func (m *Memory) VectorSearch(_ context.Context, vector []float32, filter store.Filter, limit int) ([]store.Scored, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.search(filter, limit, func(c types.CandidateProfile) (float64, bool) {
		return cosine(vector, c.SummaryVector), true
	}), nil
}

func (m *Memory) LexicalSearch(_ context.Context, query string, filter store.Filter, limit int) ([]store.Scored, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	terms := tokenize(query)
	return m.search(filter, limit, func(c types.CandidateProfile) (float64, bool) {
		doc := tokenize(strings.Join(c.Skills.Values(), " ") + " " + c.ResumeSummary)
		shared := 0
		for t := range terms {
			if _, ok := doc[t]; ok {
				shared++
			}
		}
		return float64(shared), shared > 0
	}), nil
}

func (m *Memory) search(filter store.Filter, limit int, score func(types.CandidateProfile) (float64, bool)) []store.Scored {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []store.Scored
	for _, c := range m.candidates {
		if filter.JobID != "" && c.JobID != filter.JobID {
			continue
		}
		s, ok := score(c)
		if !ok {
			continue
		}
		out = append(out, store.Scored{Profile: c, Score: s})
	}
	sort.Slice(out, func(i, k int) bool {
		if out[i].Score != out[k].Score {
			return out[i].Score > out[k].Score
		}
		return out[i].Profile.CandidateID < out[k].Profile.CandidateID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() {}

func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func tokenize(s string) map[string]struct{} {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#'
	})
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		if len(w) > 1 {
			out[w] = struct{}{}
		}
	}
	return out
}
