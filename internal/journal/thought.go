package journal

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"
)

// timestampLayout renders creation instants like JavaScript's toISOString,
// which is what existing blobs contain.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Thought is one released journal entry.
type Thought struct {
	ID        string
	Text      string
	CreatedAt time.Time
	// Archived is kept for blob compatibility. Nothing reads it.
	Archived bool
}

// Age returns the relative age label of t as seen at now.
func (t Thought) Age(now time.Time) string { return RelativeAge(t.CreatedAt, now) }

type wireThought struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	CreatedAt string `json:"createdAt,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Archived  bool   `json:"archived"`
}

// MarshalJSON encodes the thought in the persisted blob shape.
func (t Thought) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireThought{
		ID:        t.ID,
		Text:      t.Text,
		CreatedAt: t.CreatedAt.UTC().Format(timestampLayout),
		Archived:  t.Archived,
	})
}

// UnmarshalJSON accepts both createdAt and the legacy timestamp field. When
// neither parses, the creation time is recovered from the millisecond id.
func (t *Thought) UnmarshalJSON(data []byte) error {
	th, _, err := decodeThought(data)
	if err != nil {
		return err
	}
	*t = th
	return nil
}

// decodeThought parses one record. recovered is true when CreatedAt had to be
// derived from the id.
func decodeThought(data []byte) (th Thought, recovered bool, err error) {
	var w wireThought
	if err := json.Unmarshal(data, &w); err != nil {
		return Thought{}, false, err
	}
	if w.ID == "" {
		return Thought{}, false, errors.New("thought without id")
	}
	raw := w.CreatedAt
	if raw == "" {
		raw = w.Timestamp
	}
	created, perr := time.Parse(time.RFC3339Nano, raw)
	if perr != nil {
		ms, ierr := strconv.ParseInt(w.ID, 10, 64)
		if ierr != nil {
			return Thought{}, false, fmt.Errorf("thought %s: created at: %w", w.ID, perr)
		}
		created, recovered = time.UnixMilli(ms), true
	}
	return Thought{ID: w.ID, Text: w.Text, CreatedAt: created.UTC(), Archived: w.Archived}, recovered, nil
}

func encodeThoughts(thoughts []Thought) (string, error) {
	if thoughts == nil {
		thoughts = []Thought{}
	}
	b, err := json.Marshal(thoughts)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// recordIssue describes one record that was repaired or dropped while decoding.
type recordIssue struct {
	index   int
	id      string
	dropped bool
	err     error
}

// decodeThoughts fails only when raw is not a JSON array. Records that cannot
// be read are dropped, records with a missing or invalid timestamp take their
// creation time from the id, and later duplicates of an id are dropped.
func decodeThoughts(raw string) ([]Thought, []recordIssue, error) {
	var records []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, nil, err
	}
	thoughts := make([]Thought, 0, len(records))
	var issues []recordIssue
	seen := make(map[string]struct{}, len(records))
	for i, rec := range records {
		th, recovered, err := decodeThought(rec)
		if err != nil {
			issues = append(issues, recordIssue{index: i, dropped: true, err: err})
			continue
		}
		if _, dup := seen[th.ID]; dup {
			issues = append(issues, recordIssue{index: i, id: th.ID, dropped: true, err: errors.New("duplicate id")})
			continue
		}
		seen[th.ID] = struct{}{}
		if recovered {
			issues = append(issues, recordIssue{index: i, id: th.ID, err: errors.New("created at taken from id")})
		}
		thoughts = append(thoughts, th)
	}
	return thoughts, issues, nil
}

// RelativeAge labels createdAt relative to now by whole-day buckets, rounding
// partial days up: Today, Yesterday, "N days ago" up to six days, then a short
// calendar date. The label is symmetric for instants in the future.
func RelativeAge(createdAt, now time.Time) string {
	diff := now.Sub(createdAt)
	if diff < 0 {
		diff = -diff
	}
	days := int(math.Ceil(float64(diff) / float64(24*time.Hour)))
	days = max(days, 1)
	switch {
	case days == 1:
		return "Today"
	case days == 2:
		return "Yesterday"
	case days <= 7:
		return fmt.Sprintf("%d days ago", days-1)
	}
	local := createdAt.In(now.Location())
	if local.Year() != now.Year() {
		return local.Format("Jan 2, 2006")
	}
	return local.Format("Jan 2")
}
