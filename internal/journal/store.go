// Package journal keeps the ordered collection of released thoughts and the
// lifetime release counter on top of a kv.Store.
//
// The in-memory collection is authoritative once loaded. Every mutation is
// applied in memory first and then persisted; a rejected write is reported as a
// kv.Result warning and never rolls the mutation back.
package journal

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"zenjournal/internal/kv"
	"zenjournal/internal/metrics"
)

const (
	// KeyThoughts holds the JSON array of thoughts, newest first.
	KeyThoughts = "thoughts"
	// KeyThoughtCount holds the lifetime release counter.
	KeyThoughtCount = "thoughtCount"
)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for recovered corruption and failed writes.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics records mutations on r.
func WithMetrics(r *metrics.Recorder) Option {
	return func(s *Store) { s.recorder = r }
}

// WithClock overrides time.Now. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Store is the thought collection. All methods are safe for concurrent use.
type Store struct {
	mu        sync.Mutex
	kv        kv.Store
	logger    *zap.Logger
	recorder  *metrics.Recorder
	now       func() time.Time
	thoughts  []Thought
	released  int
	lastID    int64
	recovered error
}

// Open loads the collection and counter from store. Absent values start empty.
// Corrupt values are logged, replaced by their defaults and reported through
// Recovered. Only read failures of the backend itself fail Open.
func Open(ctx context.Context, store kv.Store, opts ...Option) (*Store, error) {
	if store == nil {
		return nil, errors.New("journal: nil kv store")
	}
	s := &Store{
		kv:     store,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	thoughts, err := s.readThoughts(ctx)
	var corrupt *kv.CorruptionError
	switch {
	case errors.As(err, &corrupt):
		s.recovered = err
	case err != nil:
		return nil, err
	}
	s.setThoughts(thoughts)

	count, err := s.readCount(ctx)
	switch {
	case errors.As(err, &corrupt):
		s.recovered = errors.Join(s.recovered, err)
	case err != nil:
		return nil, err
	}
	s.released = count
	return s, nil
}

// Recovered returns the corruption found while loading, or nil.
func (s *Store) Recovered() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recovered
}

// LoadAll returns a copy of the collection, newest first.
func (s *Store) LoadAll() []Thought {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.thoughts)
}

// Recent returns up to n of the newest thoughts.
func (s *Store) Recent(n int) []Thought {
	s.mu.Lock()
	defer s.mu.Unlock()
	n = min(max(n, 0), len(s.thoughts))
	return slices.Clone(s.thoughts[:n])
}

// Get returns the thought with id.
func (s *Store) Get(id string) (Thought, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return Thought{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.thoughts[i], nil
}

// ThoughtsReleased returns the lifetime number of successful Add calls.
func (s *Store) ThoughtsReleased() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.released
}

// Reload discards the in-memory collection and reads it again from the
// backend. A corrupt blob leaves the collection empty and returns an error
// wrapping kv.ErrStorageCorruption together with the empty slice.
func (s *Store) Reload(ctx context.Context) ([]Thought, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	thoughts, err := s.readThoughts(ctx)
	var corrupt *kv.CorruptionError
	if err != nil && !errors.As(err, &corrupt) {
		return slices.Clone(s.thoughts), err
	}
	s.setThoughts(thoughts)
	return slices.Clone(s.thoughts), err
}

// Add prepends a new thought and bumps the lifetime counter. The collection is
// persisted before the counter.
func (s *Store) Add(ctx context.Context, text string) (Thought, kv.Result, error) {
	var res kv.Result
	if strings.TrimSpace(text) == "" {
		return Thought{}, res, ErrBlankThought
	}
	text = validText(text)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	t := Thought{
		ID:        s.nextID(now),
		Text:      text,
		CreatedAt: now.UTC().Truncate(time.Millisecond),
	}
	s.thoughts = slices.Insert(s.thoughts, 0, t)
	s.released++

	s.persistThoughts(ctx, &res)
	s.persist(ctx, &res, KeyThoughtCount, strconv.Itoa(s.released))
	s.recorder.Thought("add")
	return t, res, nil
}

// Update replaces the text of the thought with id, keeping its position, id
// and creation time.
func (s *Store) Update(ctx context.Context, id, text string) (Thought, kv.Result, error) {
	var res kv.Result
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return Thought{}, res, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.thoughts[i].Text = validText(text)
	s.persistThoughts(ctx, &res)
	s.recorder.Thought("update")
	return s.thoughts[i], res, nil
}

// Remove deletes the thought with id. The lifetime counter is untouched.
func (s *Store) Remove(ctx context.Context, id string) (kv.Result, error) {
	var res kv.Result
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return res, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.thoughts = slices.Delete(s.thoughts, i, i+1)
	s.persistThoughts(ctx, &res)
	s.recorder.Thought("remove")
	return res, nil
}

// validText replaces invalid UTF-8 so the in-memory text survives a JSON round
// trip unchanged.
func validText(text string) string {
	return strings.ToValidUTF8(text, "\uFFFD")
}

func (s *Store) index(id string) int {
	return slices.IndexFunc(s.thoughts, func(t Thought) bool { return t.ID == id })
}

// nextID derives the id from the creation millisecond, bumping past the
// largest id seen so ids stay unique when the clock repeats or steps back.
func (s *Store) nextID(now time.Time) string {
	ms := now.UnixMilli()
	if ms <= s.lastID {
		ms = s.lastID + 1
	}
	s.lastID = ms
	return strconv.FormatInt(ms, 10)
}

func (s *Store) setThoughts(thoughts []Thought) {
	s.thoughts = thoughts
	for _, t := range thoughts {
		if n, err := strconv.ParseInt(t.ID, 10, 64); err == nil && n > s.lastID {
			s.lastID = n
		}
	}
}

func (s *Store) readThoughts(ctx context.Context) ([]Thought, error) {
	raw, ok, err := s.kv.Get(ctx, KeyThoughts)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", KeyThoughts, err)
	}
	if !ok {
		return nil, nil
	}
	thoughts, issues, err := decodeThoughts(raw)
	if err != nil {
		cerr := &kv.CorruptionError{Key: KeyThoughts, Err: err}
		s.logger.Warn("discarding unreadable thoughts", zap.Error(cerr))
		return nil, cerr
	}
	for _, is := range issues {
		msg := "repaired thought record"
		if is.dropped {
			msg = "dropped unreadable thought record"
		}
		s.logger.Warn(msg, zap.Int("index", is.index), zap.String("id", is.id), zap.Error(is.err))
	}
	return thoughts, nil
}

func (s *Store) readCount(ctx context.Context) (int, error) {
	raw, ok, err := s.kv.Get(ctx, KeyThoughtCount)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", KeyThoughtCount, err)
	}
	if !ok {
		return 0, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err == nil && n < 0 {
		err = fmt.Errorf("negative count %d", n)
	}
	if err != nil {
		cerr := &kv.CorruptionError{Key: KeyThoughtCount, Err: err}
		s.logger.Warn("resetting unreadable thought counter", zap.Error(cerr))
		return 0, cerr
	}
	return n, nil
}

func (s *Store) persistThoughts(ctx context.Context, res *kv.Result) {
	raw, err := encodeThoughts(s.thoughts)
	if err != nil {
		res.Warn(KeyThoughts, err)
		return
	}
	s.persist(ctx, res, KeyThoughts, raw)
}

func (s *Store) persist(ctx context.Context, res *kv.Result, key, value string) {
	if err := s.kv.Set(ctx, key, value); err != nil {
		s.logger.Warn("write rejected, keeping in-memory state", zap.String("key", key), zap.Error(err))
		res.Warn(key, err)
	}
}
