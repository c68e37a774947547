package ranking

import (
	"context"
	"fmt"
	"testing"

	"talentmatch/internal/errors"
	"talentmatch/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(id string, overall int, applied bool, originalJob string) types.RankedResult {
	return types.RankedResult{
		CandidateID:   id,
		Candidate:     types.CandidateProfile{CandidateID: id, JobID: originalJob},
		Evaluation:    types.Evaluation{OverallScore: overall},
		AppliedToJob:  applied,
		OriginalJobID: originalJob,
	}
}

func candidateIDs(entries []types.RankedResult) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.CandidateID
	}
	return out
}

type fakeTitles struct {
	titles map[string]string
	err    error
	calls  int
	asked  []string
}

func (f *fakeTitles) JobTitles(_ context.Context, ids []string) (map[string]string, error) {
	f.calls++
	f.asked = append(f.asked, ids...)
	if f.err != nil {
		return nil, f.err
	}
	out := map[string]string{}
	for _, id := range ids {
		if t, ok := f.titles[id]; ok {
			out[id] = t
		}
	}
	return out, nil
}

func TestDedupPrefersApplied(t *testing.T) {
	entries := []types.RankedResult{
		entry("a", 50, false, "other"),
		entry("b", 40, false, "other"),
		entry("a", 30, true, "job"),
		entry("b", 90, false, "third"),
	}
	got := Dedup(entries)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].CandidateID)
	assert.True(t, got[0].AppliedToJob)
	assert.Equal(t, 30, got[0].Evaluation.OverallScore)
	assert.Equal(t, "other", got[1].OriginalJobID, "first occurrence wins when neither is applied")
}

func TestSortIsStable(t *testing.T) {
	entries := []types.RankedResult{
		entry("c", 70, true, "job"),
		entry("a", 80, true, "job"),
		entry("b", 70, false, "x"),
		entry("d", 70, true, "job"),
	}
	assert.Equal(t, []string{"a", "c", "b", "d"}, candidateIDs(Sort(entries)))
}

func TestTruncate(t *testing.T) {
	entries := []types.RankedResult{entry("a", 1, true, ""), entry("b", 1, true, "")}
	assert.Len(t, Truncate(entries, 1), 1)
	assert.Len(t, Truncate(entries, 5), 2)
	assert.Empty(t, Truncate(entries, 0))
}

func TestPartitionPreservesOrder(t *testing.T) {
	entries := []types.RankedResult{
		entry("a", 90, false, "x"),
		entry("b", 80, true, "job"),
		entry("c", 70, false, "y"),
		entry("d", 60, true, "job"),
	}
	applied, potential := Partition(entries)
	assert.Equal(t, []string{"b", "d"}, candidateIDs(applied))
	assert.Equal(t, []string{"a", "c"}, candidateIDs(potential))

	applied, potential = Partition(nil)
	assert.NotNil(t, applied)
	assert.NotNil(t, potential)
}

func TestRankResolvesProvenanceTitles(t *testing.T) {
	titles := &fakeTitles{titles: map[string]string{"job2": "Data Engineer"}}
	r := New(titles, errors.Discard())

	entries := []types.RankedResult{
		entry("a", 90, false, "job2"),
		entry("b", 80, true, "job1"),
		entry("c", 70, false, "deleted"),
		entry("d", 10, false, "job3"),
	}
	ranked := r.Rank(context.Background(), "job1", entries, 3)

	require.Len(t, ranked.Evaluated, 3)
	require.NotNil(t, ranked.Evaluated[0].OriginalJobTitle)
	assert.Equal(t, "Data Engineer", *ranked.Evaluated[0].OriginalJobTitle)
	assert.Nil(t, ranked.Evaluated[1].OriginalJobTitle, "own job is not resolved")
	assert.Nil(t, ranked.Evaluated[2].OriginalJobTitle, "deleted job resolves to nil")
	assert.ElementsMatch(t, []string{"job2", "deleted"}, titles.asked, "truncated entries are not resolved")
	assert.Equal(t, 1, titles.calls)

	assert.Equal(t, []string{"b"}, candidateIDs(ranked.Applied))
	assert.Equal(t, []string{"a", "c"}, candidateIDs(ranked.Potential))
	require.NotNil(t, ranked.Potential[0].OriginalJobTitle)
}

func TestRankTitleLookupFailureKeepsResults(t *testing.T) {
	r := New(&fakeTitles{err: fmt.Errorf("db down")}, errors.Discard())
	ranked := r.Rank(context.Background(), "job1", []types.RankedResult{entry("a", 90, false, "job2")}, 10)
	require.Len(t, ranked.Evaluated, 1)
	assert.Nil(t, ranked.Evaluated[0].OriginalJobTitle)
}

func TestRankInvariants(t *testing.T) {
	r := New(nil, errors.Discard())
	var entries []types.RankedResult
	for i := range 30 {
		entries = append(entries, entry(fmt.Sprintf("c%02d", i%20), (i*37)%101, i%3 == 0, "job"))
	}
	ranked := r.Rank(context.Background(), "job", entries, 10)

	assert.LessOrEqual(t, len(ranked.Evaluated), 10)
	assert.Equal(t, len(ranked.Evaluated), len(ranked.Applied)+len(ranked.Potential))
	seen := map[string]bool{}
	for i, e := range ranked.Evaluated {
		assert.False(t, seen[e.CandidateID])
		seen[e.CandidateID] = true
		if i > 0 {
			assert.GreaterOrEqual(t, ranked.Evaluated[i-1].Evaluation.OverallScore, e.Evaluation.OverallScore)
		}
	}
}
