package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"eventshred/internal/audit"
	"eventshred/internal/domain"
	"eventshred/internal/platform/lock"
	"eventshred/internal/shred"
	"eventshred/internal/shred/metrics"
	"eventshred/internal/shred/store"
)

// ErrUnknownShredder is wrapped around the offending identifier when a
// request names a shredder that is not registered.
var ErrUnknownShredder = errors.New("unknown shredder")

// ShredderInfo describes one registered shredder for listings.
type ShredderInfo struct {
	Identifier  string `json:"identifier"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Service orchestrates the host flow: eligibility gate, pre-deletion export,
// then one destructive transaction per shredder, serialized per event.
type Service struct {
	logger   *slog.Logger
	registry *shred.Registry
	stores   store.Stores
	runner   TxRunner
	locker   lock.Locker
	metrics  *metrics.Metrics
	audit    *audit.Publisher
}

func New(
	logger *slog.Logger,
	registry *shred.Registry,
	stores store.Stores,
	runner TxRunner,
	locker lock.Locker,
	m *metrics.Metrics,
	publisher *audit.Publisher,
) *Service {
	return &Service{
		logger:   logger,
		registry: registry,
		stores:   stores,
		runner:   runner,
		locker:   locker,
		metrics:  m,
		audit:    publisher,
	}
}

// Event loads the event an operation is scoped to.
func (s *Service) Event(ctx context.Context, slug string) (domain.Event, error) {
	return s.stores.Events.FindBySlug(ctx, slug)
}

// List returns every registered shredder bound to the event, in identifier
// order.
func (s *Service) List(ctx context.Context, slug string) ([]ShredderInfo, error) {
	event, err := s.Event(ctx, slug)
	if err != nil {
		return nil, err
	}
	var infos []ShredderInfo
	for _, sh := range s.resolveAll(event) {
		infos = append(infos, ShredderInfo{
			Identifier:  sh.Identifier(),
			Name:        sh.VerboseName(),
			Description: sh.Description(),
		})
	}
	return infos, nil
}

// Check runs the eligibility gate for the event. A nil result means
// shredding may be offered; the gate is evaluated again inside Shred.
func (s *Service) Check(ctx context.Context, slug string) error {
	event, err := s.Event(ctx, slug)
	if err != nil {
		return err
	}
	return shred.ShredConstraints(event, time.Now())
}

// Export generates the pre-deletion files of the selected shredders (all of
// them when identifiers is empty). It is read-only and safe without a
// subsequent shred; independent shredders export concurrently.
func (s *Service) Export(ctx context.Context, slug string, identifiers []string) ([]shred.ExportFile, error) {
	event, err := s.Event(ctx, slug)
	if err != nil {
		return nil, err
	}
	shredders, err := s.resolve(event, identifiers)
	if err != nil {
		return nil, err
	}

	results := make([][]shred.ExportFile, len(shredders))
	g, gctx := errgroup.WithContext(ctx)
	for i, sh := range shredders {
		i, sh := i, sh
		g.Go(func() error {
			files, err := sh.GenerateFiles(gctx)
			if err != nil {
				return fmt.Errorf("shredder %s: %w", sh.Identifier(), err)
			}
			results[i] = files
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var files []shred.ExportFile
	for i, sh := range shredders {
		files = append(files, results[i]...)
		if err := s.audit.Emit(ctx, audit.Event{
			EventSlug: event.Slug,
			Shredder:  sh.Identifier(),
			Action:    audit.ActionExportGenerated,
		}); err != nil {
			return nil, fmt.Errorf("audit export: %w", err)
		}
	}
	s.metrics.AddExportFiles(len(files))
	s.logger.InfoContext(ctx, "export generated",
		"event", event.Slug, "shredders", len(shredders), "files", len(files))
	return files, nil
}

// Shred irreversibly removes the selected data categories. The eligibility
// gate is re-checked here to close the race between check and action, the
// event is locked so runs cannot interleave, and each shredder gets its own
// all-or-nothing transaction.
func (s *Service) Shred(ctx context.Context, slug string, identifiers []string) error {
	event, err := s.Event(ctx, slug)
	if err != nil {
		return err
	}
	if err := shred.ShredConstraints(event, time.Now()); err != nil {
		return err
	}
	shredders, err := s.resolve(event, identifiers)
	if err != nil {
		return err
	}

	release, err := s.locker.Acquire(ctx, event.Slug)
	if err != nil {
		return err
	}
	defer release()

	for _, sh := range shredders {
		identifier := sh.Identifier()
		start := time.Now()
		err := s.runner.RunInTx(ctx, func(txCtx context.Context, txStores store.Stores) error {
			factory, _ := s.registry.Get(identifier)
			if err := factory(event, txStores).ShredData(txCtx); err != nil {
				return err
			}
			// Committed together with the destructive update.
			return s.audit.Emit(txCtx, audit.Event{
				EventSlug: event.Slug,
				Shredder:  identifier,
				Action:    audit.ActionShredCompleted,
			})
		})
		if err != nil {
			s.metrics.ObserveShred(identifier, "error", time.Since(start))
			s.logger.ErrorContext(ctx, "shred failed",
				"event", event.Slug, "shredder", identifier, "error", err)
			return fmt.Errorf("shredder %s: %w", identifier, err)
		}
		s.metrics.ObserveShred(identifier, "ok", time.Since(start))
		s.logger.InfoContext(ctx, "shred completed",
			"event", event.Slug, "shredder", identifier, "duration", time.Since(start))
	}
	return nil
}

// resolve builds the selected shredders over the plain (non-tx) stores, in
// identifier order. Empty selection means all registered shredders.
func (s *Service) resolve(event domain.Event, identifiers []string) ([]shred.Shredder, error) {
	if len(identifiers) == 0 {
		return s.resolveAll(event), nil
	}
	requested := make(map[string]bool, len(identifiers))
	for _, identifier := range identifiers {
		if _, ok := s.registry.Get(identifier); !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownShredder, identifier)
		}
		requested[identifier] = true
	}
	var shredders []shred.Shredder
	for _, identifier := range s.registry.Identifiers() {
		if !requested[identifier] {
			continue
		}
		factory, _ := s.registry.Get(identifier)
		shredders = append(shredders, factory(event, s.stores))
	}
	return shredders, nil
}

func (s *Service) resolveAll(event domain.Event) []shred.Shredder {
	var shredders []shred.Shredder
	for _, identifier := range s.registry.Identifiers() {
		factory, _ := s.registry.Get(identifier)
		shredders = append(shredders, factory(event, s.stores))
	}
	return shredders
}
