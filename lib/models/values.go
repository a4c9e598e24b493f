package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// SizeSet is a list of size labels stored as a JSON array. A nil SizeSet is stored as NULL
// and means that no selection was made.
type SizeSet []string

// NewSizeSet trims labels and drops blanks and duplicates, keeping first-seen order.
// The result is nil only when labels is nil.
func NewSizeSet(labels []string) SizeSet {
	if labels == nil {
		return nil
	}
	seen := make(map[string]bool, len(labels))
	out := make(SizeSet, 0, len(labels))
	for _, l := range labels {
		l = strings.TrimSpace(l)
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out
}

// Selected reports whether s holds at least one label.
func (s SizeSet) Selected() bool { return len(s) > 0 }

func (s SizeSet) Contains(label string) bool {
	for _, l := range s {
		if l == label {
			return true
		}
	}
	return false
}

// Equal compares as sets.
func (s SizeSet) Equal(other SizeSet) bool {
	a, b := NewSizeSet(s), NewSizeSet(other)
	if len(a) != len(b) {
		return false
	}
	for _, l := range a {
		if !b.Contains(l) {
			return false
		}
	}
	return true
}

func (s SizeSet) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	b, err := json.Marshal([]string(s))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *SizeSet) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*s = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported type for SizeSet: %T", src)
	}

	var labels []string
	if err := json.Unmarshal(raw, &labels); err != nil {
		return err
	}
	*s = labels
	return nil
}

func (SizeSet) GormDataType() string { return "text" }

// OrNil maps an empty selection to nil, since an empty selection is stored as "no selection".
func (s SizeSet) OrNil() SizeSet {
	if len(s) == 0 {
		return nil
	}
	return s
}
