package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kazkleen/crm/internal/metrics"
	"github.com/kazkleen/crm/internal/repository"
)

const (
	DefaultDocumentKey = "kazkleenCRMData"

	discardedSuffix  = ".discarded"
	maxLoggedPayload = 256
)

// DocumentStore keeps the whole CRM state as one JSON value under one key.
// Every call reads or writes the full document. Update is serialised within
// one store; two stores sharing a backend overwrite each other (last writer
// wins).
type DocumentStore struct {
	kv      KV
	key     string
	log     *zap.Logger
	hasher  PasswordHasher
	timeNow func() time.Time

	mu sync.Mutex
}

type Option func(*DocumentStore)

func WithLogger(log *zap.Logger) Option {
	return func(s *DocumentStore) { s.log = log }
}

func WithPasswordHasher(h PasswordHasher) Option {
	return func(s *DocumentStore) { s.hasher = h }
}

func WithClock(now func() time.Time) Option {
	return func(s *DocumentStore) { s.timeNow = now }
}

func NewDocumentStore(kv KV, key string, opts ...Option) *DocumentStore {
	if key == "" {
		key = DefaultDocumentKey
	}
	s := &DocumentStore{
		kv:      kv,
		key:     key,
		log:     zap.NewNop(),
		hasher:  BcryptHasher{},
		timeNow: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *DocumentStore) Key() string {
	return s.key
}

func (s *DocumentStore) Hasher() PasswordHasher {
	return s.hasher
}

func (s *DocumentStore) Now() time.Time {
	return s.timeNow()
}

// Load returns the stored document. An absent or unparsable value is replaced
// by the seed, which is persisted before it is returned.
func (s *DocumentStore) Load(ctx context.Context) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Save overwrites the stored document.
func (s *DocumentStore) Save(ctx context.Context, doc Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, doc)
}

// Update runs fn on a freshly loaded document and saves the result unless fn
// fails.
func (s *DocumentStore) Update(ctx context.Context, fn func(doc *Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return err
	}
	if err := fn(&doc); err != nil {
		if errors.Is(err, errSkipSave) {
			return nil
		}
		return err
	}
	return s.save(ctx, doc)
}

func (s *DocumentStore) load(ctx context.Context) (Document, error) {
	raw, err := s.kv.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, repository.ErrObjectNotFound) {
			return s.reseed(ctx, "absent")
		}
		metrics.OperationErrorsTotal.WithLabelValues("document_load").Inc()
		return Document{}, fmt.Errorf("failed to load document: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		s.log.Warn("discarding malformed document",
			zap.String("key", s.key),
			zap.Error(err),
			zap.String("payload", truncate(raw, maxLoggedPayload)),
		)
		s.quarantine(ctx, raw)
		return s.reseed(ctx, "malformed")
	}
	return doc, nil
}

func (s *DocumentStore) save(ctx context.Context, doc Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	if err := s.kv.Set(ctx, s.key, raw); err != nil {
		metrics.OperationErrorsTotal.WithLabelValues("document_save").Inc()
		return fmt.Errorf("failed to save document: %w", err)
	}
	return nil
}

func (s *DocumentStore) reseed(ctx context.Context, reason string) (Document, error) {
	doc, err := SeedDocument(s.timeNow(), s.hasher)
	if err != nil {
		return Document{}, fmt.Errorf("failed to build seed document: %w", err)
	}
	if err := s.save(ctx, doc); err != nil {
		return Document{}, err
	}
	metrics.DocumentsReseededTotal.WithLabelValues(reason).Inc()
	s.log.Info("document initialised from seed", zap.String("key", s.key), zap.String("reason", reason))
	return doc, nil
}

// quarantine keeps a copy of an unreadable value next to the document key.
func (s *DocumentStore) quarantine(ctx context.Context, raw []byte) {
	if err := s.kv.Set(ctx, s.key+discardedSuffix, raw); err != nil {
		s.log.Error("failed to quarantine malformed document", zap.String("key", s.key), zap.Error(err))
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
