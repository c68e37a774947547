// Package identity derives the content-addressed IDs used for jobs and
// candidates. All functions are pure.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// IDLength is the number of hex characters kept from the digest.
const IDLength = 8

// DayLayout is the day granularity used in job IDs.
const DayLayout = "20060102"

// JobID returns the first 8 hex chars of sha256(title + "_" + YYYYMMDD).
// Two jobs with the same title created on the same UTC day share an ID.
func JobID(title string, created time.Time) string {
	return shortDigest(title + "_" + created.UTC().Format(DayLayout))
}

// CandidateID returns the first 8 hex chars of sha256(name + "_" + summary).
// Regenerating the summary yields a new ID; SourceDigest tracks the
// underlying document across those changes.
func CandidateID(name, summary string) string {
	return shortDigest(name + "_" + summary)
}

// SourceDigest returns the full sha256 hex digest of a source document.
func SourceDigest(document []byte) string {
	sum := sha256.Sum256(document)
	return hex.EncodeToString(sum[:])
}

// CreationDay truncates t to midnight UTC, the stored job creation time.
func CreationDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func shortDigest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:IDLength]
}
