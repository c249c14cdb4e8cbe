// Package file keeps calendar events and feed tokens in a single YAML
// document, for single-host deployments and local development.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"milify/internal/atomicfile"
	appLog "milify/internal/log"
	"milify/internal/model"
	"milify/internal/store"
)

type document struct {
	Events []model.CalendarEvent `yaml:"events"`
	// Tokens maps feed token -> user id.
	Tokens map[string]string `yaml:"tokens"`
}

// Store is a store.Store backed by a YAML file. Every write rewrites the
// whole document.
type Store struct {
	path string
	now  func() time.Time

	mu  sync.RWMutex
	doc document
}

var _ store.Store = (*Store)(nil)

// Open reads the document at path. A missing file is an empty store; it is
// created on the first write.
func Open(path string) (*Store, error) {
	s := &Store{
		path: path,
		now:  time.Now,
		doc:  document{Tokens: map[string]string{}},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			appLog.Info("file store: starting empty", "path", path)
			return s, nil
		}
		return nil, fmt.Errorf("file store: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &s.doc); err != nil {
		return nil, fmt.Errorf("file store: parse %s: %w", path, err)
	}
	if s.doc.Tokens == nil {
		s.doc.Tokens = map[string]string{}
	}

	appLog.Info("file store: loaded",
		"path", path,
		"events", len(s.doc.Events),
		"tokens", len(s.doc.Tokens),
	)
	return s, nil
}

func (s *Store) ListEvents(_ context.Context, userID string) ([]model.CalendarEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.CalendarEvent, 0)
	for _, ev := range s.doc.Events {
		if ev.UserID == userID {
			out = append(out, ev)
		}
	}
	model.SortEvents(out)
	return out, nil
}

func (s *Store) UserForFeedToken(_ context.Context, token string) (string, error) {
	if token == "" {
		return "", store.ErrInvalidToken
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.doc.Tokens[token]
	if !ok {
		return "", store.ErrInvalidToken
	}
	return user, nil
}

func (s *Store) IssueFeedToken(_ context.Context, userID string) (string, error) {
	if userID == "" {
		return "", errors.New("file store: empty user id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.doc
	next.Tokens = make(map[string]string, len(s.doc.Tokens)+1)
	for tok, owner := range s.doc.Tokens {
		if owner != userID {
			next.Tokens[tok] = owner
		}
	}
	token := uuid.NewString()
	next.Tokens[token] = userID

	if err := s.commitLocked(next); err != nil {
		return "", err
	}
	return token, nil
}

func (s *Store) PutEvent(_ context.Context, ev model.CalendarEvent) error {
	if err := store.CheckEvent(ev); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC().Truncate(time.Second)
	ev.UpdatedAt = now
	ev.CreatedAt = now

	next := s.doc
	next.Events = slices.Clone(s.doc.Events)
	if i := slices.IndexFunc(next.Events, func(e model.CalendarEvent) bool { return e.ID == ev.ID }); i >= 0 {
		ev.CreatedAt = next.Events[i].CreatedAt
		next.Events[i] = ev
	} else {
		next.Events = append(next.Events, ev)
	}
	return s.commitLocked(next)
}

func (s *Store) Close() error { return nil }

// commitLocked writes next to disk and only then makes it the live
// document, so a failed write leaves memory matching the file.
func (s *Store) commitLocked(next document) error {
	data, err := yaml.Marshal(&next)
	if err != nil {
		return fmt.Errorf("file store: encode: %w", err)
	}
	if err := atomicfile.Write(s.path, data); err != nil {
		return fmt.Errorf("file store: write %s: %w", s.path, err)
	}
	s.doc = next
	return nil
}
