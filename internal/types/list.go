package types

import (
	"bytes"
	"encoding/json"
)

// ListState distinguishes a list the extractor never produced from one it
// produced without any usable entries.
type ListState uint8

const (
	ListAbsent ListState = iota
	ListEmpty
	ListPopulated
)

func (s ListState) String() string {
	switch s {
	case ListEmpty:
		return "empty"
	case ListPopulated:
		return "populated"
	default:
		return "absent"
	}
}

// TextList is a string list with an explicit absent/empty/populated state.
// Absent encodes as JSON null, empty as [].
type TextList struct {
	State ListState
	Items []string
}

// AbsentList returns a list for a field that was omitted entirely.
func AbsentList() TextList {
	return TextList{State: ListAbsent}
}

// EmptyList returns a list for a field that was extracted but held nothing.
func EmptyList() TextList {
	return TextList{State: ListEmpty}
}

// ListOf returns a populated list, or an empty one when items is empty.
func ListOf(items ...string) TextList {
	if len(items) == 0 {
		return EmptyList()
	}
	out := make([]string, len(items))
	copy(out, items)
	return TextList{State: ListPopulated, Items: out}
}

// Values returns the items; nil unless populated.
func (l TextList) Values() []string {
	if l.State != ListPopulated {
		return nil
	}
	return l.Items
}

func (l TextList) Len() int {
	return len(l.Values())
}

func (l TextList) MarshalJSON() ([]byte, error) {
	switch l.State {
	case ListAbsent:
		return []byte("null"), nil
	case ListEmpty:
		return []byte("[]"), nil
	default:
		return json.Marshal(l.Items)
	}
}

func (l *TextList) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*l = AbsentList()
		return nil
	}
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*l = ListOf(items...)
	return nil
}
