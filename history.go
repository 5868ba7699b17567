package log2html

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// ConversionRecord describes one completed conversion.
// ID is stable across re-conversions; OutputPath and ConvertedAt are
// refreshed in place.
type ConversionRecord struct {
	ID           string
	OriginalPath string
	OutputPath   string
	ConvertedAt  time.Time
}

// History is an ordered list of conversion records, oldest first.
type History []ConversionRecord

// Add appends rec.
func (h *History) Add(rec ConversionRecord) {
	*h = append(*h, rec)
}

// Update replaces the record with the same ID.
// Returns ErrRecordNotFound if no record has that ID.
func (h *History) Update(rec ConversionRecord) error {
	for i := range *h {
		if (*h)[i].ID == rec.ID {
			(*h)[i] = rec
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrRecordNotFound, rec.ID)
}

// Remove deletes the record with the given ID and reports whether it existed.
func (h *History) Remove(id string) bool {
	n := len(*h)
	*h = slices.DeleteFunc(*h, func(r ConversionRecord) bool { return r.ID == id })
	return len(*h) != n
}

// Find returns the record with the given ID.
func (h History) Find(id string) (ConversionRecord, bool) {
	for _, r := range h {
		if r.ID == id {
			return r, true
		}
	}
	return ConversionRecord{}, false
}

// Resolve finds a record by full ID or by a unique ID prefix.
func (h History) Resolve(idOrPrefix string) (ConversionRecord, error) {
	idOrPrefix = strings.TrimSpace(idOrPrefix)
	if idOrPrefix == "" {
		return ConversionRecord{}, fmt.Errorf("%w: empty ID", ErrRecordNotFound)
	}
	if r, ok := h.Find(idOrPrefix); ok {
		return r, nil
	}

	var found []ConversionRecord
	for _, r := range h {
		if strings.HasPrefix(r.ID, idOrPrefix) {
			found = append(found, r)
		}
	}
	switch len(found) {
	case 0:
		return ConversionRecord{}, fmt.Errorf("%w: %s", ErrRecordNotFound, idOrPrefix)
	case 1:
		return found[0], nil
	}
	return ConversionRecord{}, fmt.Errorf("%w: %s matches %d records", ErrAmbiguousRecord, idOrPrefix, len(found))
}

// Newest returns a copy sorted by ConvertedAt, newest first.
// Records converted at the same instant keep their relative order.
func (h History) Newest() History {
	out := slices.Clone(h)
	slices.SortStableFunc(out, func(a, b ConversionRecord) int {
		return b.ConvertedAt.Compare(a.ConvertedAt)
	})
	return out
}
