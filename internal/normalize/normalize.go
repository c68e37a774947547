// Package normalize turns raw extractor output into canonical profiles.
//
// Scalars holding a sentinel ("n/a", "none", blank) become absent. String
// lists carry an explicit absent/empty/populated state. Free-form dates are
// mapped to midnight UTC or reported as unparseable. Input that is not a
// record at all fails the whole profile.
package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"talentmatch/internal/errors"
	"talentmatch/internal/types"
)

var sentinels = map[string]struct{}{
	"n/a":  {},
	"none": {},
	"":     {},
}

// IsSentinel reports whether s is a placeholder meaning "no value".
func IsSentinel(s string) bool {
	_, ok := sentinels[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// Normalizer canonicalizes candidate and job records.
type Normalizer struct {
	now func() time.Time
}

// New returns a Normalizer. A nil clock means time.Now.
func New(now func() time.Time) *Normalizer {
	if now == nil {
		now = time.Now
	}
	return &Normalizer{now: now}
}

// Profile decodes raw extractor JSON and normalizes it.
func (n *Normalizer) Profile(raw []byte) (types.CandidateProfile, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return types.CandidateProfile{}, malformed("profile is not valid JSON", err)
	}
	record, ok := doc.(map[string]any)
	if !ok {
		return types.CandidateProfile{}, malformed(fmt.Sprintf("profile must be an object, got %s", kindOf(doc)), nil)
	}
	return n.ProfileFromRecord(record)
}

// ProfileFromRecord normalizes an already decoded record.
func (n *Normalizer) ProfileFromRecord(record map[string]any) (types.CandidateProfile, error) {
	var p types.CandidateProfile

	name := scalarString(record["name"])
	if name == nil {
		return p, malformed("profile has no candidate name", nil)
	}
	p.Name = *name
	p.Email = scalarString(record["email"])
	p.Age = scalarInt(record["age"])
	p.YearsOfExperience = scalarInt(record["years_of_experience"])
	p.HighestEducation = scalarString(record["highest_education"])
	p.CurrentRole = scalarString(record["current_role"])
	p.Function = scalarString(record["function"])

	p.Skills = textList(record, "skills")
	p.SocialLinks = textList(record, "social_links")

	var err error
	if p.Experience, err = records(record, "experience", n.experience); err != nil {
		return p, err
	}
	if p.Education, err = records(record, "education", n.education); err != nil {
		return p, err
	}
	if p.Projects, err = records(record, "projects", project); err != nil {
		return p, err
	}
	return p, nil
}

func (n *Normalizer) experience(r map[string]any) types.Experience {
	return types.Experience{
		Company:          scalarString(r["company"]),
		Location:         scalarString(r["location"]),
		Role:             scalarString(r["role"]),
		StartDate:        n.dateField(r["start_date"]),
		EndDate:          n.dateField(r["end_date"]),
		Responsibilities: textList(r, "responsibilities"),
	}
}

func (n *Normalizer) education(r map[string]any) types.Education {
	return types.Education{
		Institution:    scalarString(r["institution"]),
		Qualification:  scalarString(r["qualification"]),
		GraduationDate: n.dateField(r["graduation_date"]),
		Details:        textList(r, "details"),
	}
}

func project(r map[string]any) types.Project {
	return types.Project{
		Name:        scalarString(r["name"]),
		Description: scalarString(r["description"]),
	}
}

// records normalizes a list of nested records. A single object is accepted
// as a one element list. Anything else that is not a sentinel is malformed.
func records[T any](record map[string]any, key string, build func(map[string]any) T) ([]T, error) {
	v, present := record[key]
	if !present || v == nil {
		return nil, nil
	}

	var items []any
	switch x := v.(type) {
	case []any:
		items = x
	case map[string]any:
		items = []any{x}
	case string:
		if IsSentinel(x) {
			return []T{}, nil
		}
		return nil, malformed(fmt.Sprintf("%s must be a list of records, got a string", key), nil)
	default:
		return nil, malformed(fmt.Sprintf("%s must be a list of records, got %s", key, kindOf(v)), nil)
	}

	out := make([]T, 0, len(items))
	for i, item := range items {
		switch x := item.(type) {
		case map[string]any:
			out = append(out, build(x))
		case string:
			if !IsSentinel(x) {
				return nil, malformed(fmt.Sprintf("%s[%d] must be a record, got a string", key, i), nil)
			}
		case nil:
		default:
			return nil, malformed(fmt.Sprintf("%s[%d] must be a record, got %s", key, i, kindOf(item)), nil)
		}
	}
	return out, nil
}

// textList applies the tri-state list policy to record[key].
func textList(record map[string]any, key string) types.TextList {
	v, present := record[key]
	if !present || v == nil {
		return types.AbsentList()
	}
	items, ok := v.([]any)
	if !ok {
		return types.EmptyList()
	}

	values := make([]string, 0, len(items))
	for _, item := range items {
		if s := scalarString(item); s != nil {
			values = append(values, *s)
		}
	}
	return types.ListOf(values...)
}

// scalarString returns the trimmed string value, nil for sentinels, nulls
// and values that are not scalars.
func scalarString(v any) *string {
	var s string
	switch x := v.(type) {
	case string:
		s = x
	case json.Number:
		s = x.String()
	case float64:
		s = strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		s = strconv.FormatBool(x)
	default:
		return nil
	}
	s = strings.TrimSpace(s)
	if IsSentinel(s) {
		return nil
	}
	return &s
}

// scalarInt accepts integers, floats (floored) and numeric strings.
// Negative values are treated as absent.
func scalarInt(v any) *int {
	var f float64
	switch x := v.(type) {
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	case float64:
		f = x
	case int:
		f = float64(x)
	case string:
		s := strings.TrimSpace(x)
		if IsSentinel(s) {
			return nil
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f > math.MaxInt32 {
		return nil
	}
	i := int(math.Floor(f))
	return &i
}

func (n *Normalizer) dateField(v any) *time.Time {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	return n.Date(s)
}

var dateLayouts = []string{"2006", "2006-01", "2006-01-02"}

// Date maps YYYY, YYYY-MM, YYYY-MM-DD and "present" onto midnight UTC.
// Any other input, including impossible calendar dates, yields nil.
func (n *Normalizer) Date(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if strings.EqualFold(s, "present") {
		y, m, d := n.now().UTC().Date()
		t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		return &t
	}
	for _, layout := range dateLayouts {
		if len(s) != len(layout) {
			continue
		}
		t, err := time.ParseInLocation(layout, s, time.UTC)
		if err == nil {
			return &t
		}
	}
	return nil
}

// Job trims a job creation request and rejects sentinel titles or
// descriptions.
func (n *Normalizer) Job(req types.CreateJobRequest) (types.CreateJobRequest, error) {
	title := scalarString(req.JobTitle)
	if title == nil {
		return req, errors.NewValidationError(errors.ErrCodeInvalidRequest, "job_title is empty", nil)
	}
	desc := scalarString(req.JobDescription)
	if desc == nil {
		return req, errors.NewValidationError(errors.ErrCodeInvalidRequest, "job_description is empty", nil)
	}
	return types.CreateJobRequest{JobTitle: *title, JobDescription: *desc}, nil
}

func malformed(msg string, cause error) error {
	return errors.NewSchemaError(errors.ErrCodeMalformedProfile, msg, cause)
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "a list"
	case map[string]any:
		return "an object"
	case string:
		return "a string"
	case json.Number, float64:
		return "a number"
	case bool:
		return "a boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}
