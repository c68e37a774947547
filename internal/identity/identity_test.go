package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"
)

func TestJobIDMatchesDigest(t *testing.T) {
	day := time.Date(2025, 8, 25, 15, 4, 5, 0, time.UTC)
	sum := sha256.Sum256([]byte("Senior Go Engineer_20250825"))
	want := hex.EncodeToString(sum[:])[:8]

	if got := JobID("Senior Go Engineer", day); got != want {
		t.Errorf("JobID() = %q, want %q", got, want)
	}
}

func TestJobIDStability(t *testing.T) {
	morning := time.Date(2025, 8, 25, 1, 0, 0, 0, time.UTC)
	evening := time.Date(2025, 8, 25, 23, 59, 59, 0, time.UTC)
	nextDay := time.Date(2025, 8, 26, 0, 0, 0, 0, time.UTC)

	a := JobID("Data Engineer", morning)
	if b := JobID("Data Engineer", evening); a != b {
		t.Errorf("same title and day produced %q and %q", a, b)
	}
	if c := JobID("Data Engineer", nextDay); a == c {
		t.Errorf("different day produced the same id %q", a)
	}
	if d := JobID("Data Engineer II", morning); a == d {
		t.Errorf("different title produced the same id %q", a)
	}
	if len(a) != IDLength {
		t.Errorf("len(JobID) = %d, want %d", len(a), IDLength)
	}
}

func TestJobIDUsesUTCDay(t *testing.T) {
	// 23:30 in UTC-5 is already the next day in UTC.
	loc := time.FixedZone("UTC-5", -5*3600)
	local := time.Date(2025, 8, 25, 23, 30, 0, 0, loc)
	utcNext := time.Date(2025, 8, 26, 12, 0, 0, 0, time.UTC)

	if JobID("QA", local) != JobID("QA", utcNext) {
		t.Error("JobID should use the UTC calendar day")
	}
}

func TestCandidateID(t *testing.T) {
	a := CandidateID("Ada Lovelace", "Analytical engines.")
	if a != CandidateID("Ada Lovelace", "Analytical engines.") {
		t.Error("CandidateID is not deterministic")
	}
	if a == CandidateID("Ada Lovelace", "Analytical engines and poetry.") {
		t.Error("CandidateID should change with the summary")
	}
	if len(a) != IDLength {
		t.Errorf("len(CandidateID) = %d, want %d", len(a), IDLength)
	}
}

func TestCreationDay(t *testing.T) {
	got := CreationDay(time.Date(2025, 8, 25, 18, 30, 0, 0, time.UTC))
	want := time.Date(2025, 8, 25, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("CreationDay() = %v, want %v", got, want)
	}
}

func TestSourceDigest(t *testing.T) {
	if SourceDigest([]byte("a")) == SourceDigest([]byte("b")) {
		t.Error("different documents share a digest")
	}
	if len(SourceDigest(nil)) != 64 {
		t.Error("SourceDigest should be a full sha256 hex string")
	}
}
