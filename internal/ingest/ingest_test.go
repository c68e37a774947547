package ingest

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"talentmatch/internal/ai/aitest"
	"talentmatch/internal/errors"
	"talentmatch/internal/events"
	"talentmatch/internal/identity"
	"talentmatch/internal/store/storetest"
	"talentmatch/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJobID = "ab12cd34"

type staticSource []Document

func (s staticSource) Documents(context.Context, string) ([]Document, error) { return s, nil }

type failingSource struct{}

func (failingSource) Documents(context.Context, string) ([]Document, error) {
	return nil, errors.NewIOError(errors.ErrCodeFileNotReadable, "disk gone", nil)
}

type recorder struct{ events []events.Event }

func (r *recorder) Publish(_ context.Context, e events.Event) error {
	r.events = append(r.events, e)
	return nil
}
func (r *recorder) Close() error { return nil }

type fixture struct {
	store    *storetest.Memory
	writer   *aitest.Writer
	embedder *aitest.Embedder
	uploads  *Uploads
	events   *recorder
	service  *Service
}

func newFixture(t *testing.T, extra ...Source) *fixture {
	t.Helper()
	mem := storetest.NewMemory()
	require.NoError(t, mem.UpsertJob(context.Background(), types.JobPosting{
		JobID: testJobID, Title: "Go Engineer", Description: "Go", CreatedAt: time.Now(), Vector: []float32{1},
	}))

	f := &fixture{
		store: mem,
		writer: &aitest.Writer{Profiles: map[string]string{
			"Alice resume": `{"name":"Alice","skills":["Go","SQL"],"years_of_experience":"7"}`,
			"Bob resume":   `{"name":"Bob","skills":"n/a","experience":[]}`,
			"Nameless":     `{"name":"","skills":["Go"]}`,
			"Nonsense":     `{"name":"Carl","experience":"lots"}`,
		}},
		embedder: &aitest.Embedder{Dimensions: 4},
		uploads:  newUploads(t, "txt"),
		events:   &recorder{},
	}
	f.service = NewService(Options{
		Store:       mem,
		Extractor:   f.writer,
		Summarizer:  f.writer,
		Embedder:    f.embedder,
		Sources:     append([]Source{f.uploads}, extra...),
		Publisher:   f.events,
		Concurrency: 2,
		Logger:      errors.Discard(),
	})
	return f
}

func (f *fixture) upload(t *testing.T, name, content string) {
	t.Helper()
	_, err := f.uploads.Save(testJobID, name, strings.NewReader(content))
	require.NoError(t, err)
}

func TestProcess(t *testing.T) {
	f := newFixture(t)
	f.upload(t, "alice.txt", "Alice resume")
	f.upload(t, "bob.txt", "Bob resume")
	f.upload(t, "blank.txt", "   ")
	f.upload(t, "unknown.txt", "Unscripted")
	f.upload(t, "nameless.txt", "Nameless")
	f.upload(t, "nonsense.txt", "Nonsense")

	report, err := f.service.Process(context.Background(), testJobID)
	require.NoError(t, err)

	assert.Equal(t, testJobID, report.JobID)
	assert.Equal(t, 2, report.TotalCandidates)
	assert.Equal(t, 0, report.Replaced)
	require.Len(t, report.Errors, 4)

	stages := map[string]string{}
	for _, e := range report.Errors {
		stages[e.Source] = e.Stage
	}
	assert.Equal(t, map[string]string{
		"blank.txt":    StageExtract,
		"unknown.txt":  StageProfile,
		"nameless.txt": StageProfile,
		"nonsense.txt": StageProfile,
	}, stages)

	summary := "Alice is an experienced engineer skilled in Go."
	aliceID := identity.CandidateID("Alice", summary)
	assert.Contains(t, report.Inserted, aliceID)

	alice, ok := f.store.Candidate(aliceID)
	require.True(t, ok)
	assert.Equal(t, testJobID, alice.JobID)
	assert.Equal(t, summary, alice.ResumeSummary)
	assert.Equal(t, identity.SourceDigest([]byte("Alice resume")), alice.SourceDigest)
	assert.Len(t, alice.SummaryVector, 4)
	assert.Equal(t, []string{"Go", "SQL"}, alice.Skills.Values())
	require.NotNil(t, alice.YearsOfExperience)
	assert.Equal(t, 7, *alice.YearsOfExperience)

	n, err := f.store.CountCandidates(context.Background(), testJobID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.Len(t, f.events.events, 1)
	assert.Equal(t, events.IngestFinished, f.events.events[0].Type)
	assert.Equal(t, 2, f.events.events[0].Data["inserted"])
}

func TestProcessReplacesCandidateForSameDocument(t *testing.T) {
	f := newFixture(t)
	f.upload(t, "alice.txt", "Alice resume")

	first, err := f.service.Process(context.Background(), testJobID)
	require.NoError(t, err)
	require.Len(t, first.Inserted, 1)

	// re-extraction yields a different name, hence a different candidate id
	f.writer.Profiles["Alice resume"] = `{"name":"Alice Smith","skills":["Go"]}`
	second, err := f.service.Process(context.Background(), testJobID)
	require.NoError(t, err)
	require.Len(t, second.Inserted, 1)
	assert.NotEqual(t, first.Inserted[0], second.Inserted[0])
	assert.Equal(t, 1, second.Replaced)

	_, ok := f.store.Candidate(first.Inserted[0])
	assert.False(t, ok)
	n, err := f.store.CountCandidates(context.Background(), testJobID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestProcessDeduplicatesAcrossSources(t *testing.T) {
	f := newFixture(t, staticSource{{Name: "s3://talent/ab12cd34/alice.txt", Data: []byte("Alice resume")}})
	f.upload(t, "alice.txt", "Alice resume")

	report, err := f.service.Process(context.Background(), testJobID)
	require.NoError(t, err)
	assert.Equal(t, 1, report.TotalCandidates)
	assert.Empty(t, report.Errors)
}

func TestProcessFailures(t *testing.T) {
	t.Run("missing job", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service.Process(context.Background(), "deadbeef")
		assert.True(t, errors.Is(err, errors.ErrorTypeNotFound))
	})

	t.Run("empty job id", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service.Process(context.Background(), "")
		assert.True(t, errors.Is(err, errors.ErrorTypeValidation))
	})

	t.Run("no documents", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service.Process(context.Background(), testJobID)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrorTypeValidation))
		assert.Empty(t, f.events.events)
	})

	t.Run("nothing parsed", func(t *testing.T) {
		f := newFixture(t)
		f.upload(t, "unknown.txt", "Unscripted")
		_, err := f.service.Process(context.Background(), testJobID)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrorTypeSchema))
		require.Len(t, f.events.events, 1)
	})

	t.Run("source error", func(t *testing.T) {
		f := newFixture(t, failingSource{})
		_, err := f.service.Process(context.Background(), testJobID)
		assert.True(t, errors.Is(err, errors.ErrorTypeIO))
	})

	t.Run("embedding outage", func(t *testing.T) {
		f := newFixture(t)
		f.upload(t, "alice.txt", "Alice resume")
		f.embedder.Err = fmt.Errorf("connection refused")
		_, err := f.service.Process(context.Background(), testJobID)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrorTypeSchema))
	})
}
