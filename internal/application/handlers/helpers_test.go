package handlers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ersonp/jurisflow/internal/domain/entities"
	"github.com/ersonp/jurisflow/internal/domain/mocks"
	"github.com/ersonp/jurisflow/internal/domain/services"
)

var day0 = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func newTestTimelineService(store *mocks.TimelineStore, gen *mocks.TextGenerator, ledger *mocks.CreditLedger) *services.TimelineService {
	cfg := entities.DefaultTimelineConfig()
	engine := services.NewEnrichmentEngine(gen, ledger, cfg, services.WithRetryBackoff(0))
	return services.NewTimelineService(store, services.NewOrchestrator(cfg, engine))
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// conflictingStore fails the first writes with a persistence conflict.
type conflictingStore struct {
	*mocks.TimelineStore
	mu        sync.Mutex
	conflicts int
}

func (s *conflictingStore) CreateEntry(ctx context.Context, entry *entities.TimelineEntry, audit *entities.AuditRecord) error {
	s.mu.Lock()
	if s.conflicts > 0 {
		s.conflicts--
		s.mu.Unlock()
		return fmt.Errorf("%w: concurrent writer", entities.ErrPersistenceConflict)
	}
	s.mu.Unlock()
	return s.TimelineStore.CreateEntry(ctx, entry, audit)
}
