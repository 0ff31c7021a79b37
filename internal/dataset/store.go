package dataset

import (
	"context"
	"fmt"
	"strings"
	"time"

	cache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

// Store resolves a snapshot source (local path or http(s) URL) to a parsed,
// normalized runner table, caching parsed tables so repeated runs over the
// same snapshot skip the parse.
type Store struct {
	fetcher    *Fetcher
	normalizer *Normalizer
	cache      *cache.Cache
	logger     *logrus.Logger
}

// NewStore creates a snapshot store with the given cache TTL.
func NewStore(fetcher *Fetcher, normalizer *Normalizer, ttl time.Duration, logger *logrus.Logger) *Store {
	if logger == nil {
		logger = logrus.New()
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Store{
		fetcher:    fetcher,
		normalizer: normalizer,
		cache:      cache.New(ttl, ttl*2),
		logger:     logger,
	}
}

// Load returns the runner table for source, from cache when fresh.
func (s *Store) Load(ctx context.Context, source string) (Table, error) {
	if source == "" {
		return nil, fmt.Errorf("snapshot source is required")
	}

	if cached, found := s.cache.Get(source); found {
		if table, ok := cached.(Table); ok {
			s.logger.WithField("source", source).Debug("Runner snapshot served from cache")
			return table, nil
		}
	}

	var (
		table Table
		err   error
	)
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		if s.fetcher == nil {
			return nil, fmt.Errorf("no fetcher configured for remote source %s", source)
		}
		table, err = s.fetcher.Fetch(ctx, source)
	} else {
		table, err = LoadCSVFile(source)
	}
	if err != nil {
		return nil, err
	}

	if s.normalizer != nil {
		table = s.normalizer.Normalize(table)
	}

	s.cache.SetDefault(source, table)
	s.logger.WithFields(logrus.Fields{"source": source, "rows": len(table), "races": table.Races()}).Info("Loaded runner snapshot")
	return table, nil
}
