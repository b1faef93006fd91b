package candidate

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"slices"
	"time"
)

// Excluded is the persisted list of candidates never to report again.
type Excluded struct {
	Items []*ExcludedCandidate
}

// ExcludedCandidate is one entry of Excluded.
type ExcludedCandidate struct {
	ID         string
	Name       string
	Link       string
	Reason     string `json:",omitempty"`
	ExcludedAt time.Time
}

// ToExcluded converts records into exclude entries stamped with at.
func (rs *Records) ToExcluded(reason string, at time.Time) *Excluded {
	excluded := &Excluded{}
	for _, r := range rs.Items {
		excluded.Items = append(excluded.Items, &ExcludedCandidate{
			ID:         r.ID,
			Name:       r.Name,
			Link:       r.Link,
			Reason:     reason,
			ExcludedAt: at.UTC(),
		})
	}
	return excluded
}

// Exclude removes records whose id is in ids and returns the removed ids in
// their original order.
func (rs *Records) Exclude(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	return rs.Keep(func(r *Record) bool { return !slices.Contains(ids, r.ID) })
}

// Keep retains the records for which keep is true and returns the ids of the
// others in their original order.
func (rs *Records) Keep(keep func(*Record) bool) []string {
	var removed []string
	kept := rs.Items[:0]
	for _, r := range rs.Items {
		if !keep(r) {
			removed = append(removed, r.ID)
			continue
		}
		kept = append(kept, r)
	}
	clear(rs.Items[len(kept):])
	rs.Items = kept
	return removed
}

// ExcludedFromFile reads an exclude file. A missing or empty file yields an
// empty list.
func ExcludedFromFile(path string) (*Excluded, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Excluded{}, nil
		}
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	if stat.Size() == 0 {
		return &Excluded{}, nil
	}

	var excluded Excluded
	if err := json.NewDecoder(file).Decode(&excluded); err != nil {
		return nil, err
	}
	return &excluded, nil
}

// Append adds entries whose id is not listed yet.
func (e *Excluded) Append(s *Excluded) {
	known := e.IDs()
	for _, item := range s.Items {
		if slices.Contains(known, item.ID) {
			continue
		}
		known = append(known, item.ID)
		e.Items = append(e.Items, item)
	}
}

// IDs returns the excluded candidate ids in order.
func (e *Excluded) IDs() []string {
	ids := make([]string, 0, len(e.Items))
	for _, item := range e.Items {
		ids = append(ids, item.ID)
	}
	return ids
}

// ToFile overwrites path with the list.
func (e *Excluded) ToFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}
