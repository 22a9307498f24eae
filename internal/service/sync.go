package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/beauty-storefront/internal/normalize"
	"github.com/mmeshcher/beauty-storefront/internal/repository"
)

// maxPagesPerRound ограничивает число запросов к ленте на коллекцию за один проход.
const maxPagesPerRound = 50

// StartSync запускает фоновую синхронизацию зеркала с внешним хранилищем
// и блокируется до отмены ctx.
func (s *Service) StartSync(ctx context.Context) {
	if s.source == nil {
		return
	}

	ticker := time.NewTicker(s.syncInterval)
	defer ticker.Stop()

	for {
		if err := s.SyncOnce(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error("sync round failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// SyncOnce выполняет один проход по всем коллекциям.
func (s *Service) SyncOnce(ctx context.Context) error {
	var errs []error
	for _, collection := range repository.Collections {
		if err := s.syncCollection(ctx, collection); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			errs = append(errs, fmt.Errorf("sync %s: %w", collection, err))
		}
	}
	return errors.Join(errs...)
}

func (s *Service) syncCollection(ctx context.Context, collection string) error {
	token, err := s.repo.GetSyncToken(ctx, collection)
	if err != nil {
		return err
	}

	for page := 0; page < maxPagesPerRound; page++ {
		changes, retryAfter, err := s.source.FetchChanges(ctx, collection, token)
		if err != nil {
			return err
		}

		if changes == nil {
			s.logger.Info("document source rate limited",
				zap.String("collection", collection),
				zap.Duration("retryAfter", retryAfter),
			)
			if retryAfter > 0 {
				timer := time.NewTimer(retryAfter)
				select {
				case <-ctx.Done():
					timer.Stop()
					return ctx.Err()
				case <-timer.C:
				}
			}
			return nil
		}

		for _, change := range changes.Documents {
			if err := s.applyChange(ctx, collection, change.ID, change.Data, change.Deleted); err != nil {
				return err
			}
		}

		if changes.Next != token {
			if err := s.repo.SetSyncToken(ctx, collection, changes.Next); err != nil {
				return err
			}
		}

		if len(changes.Documents) == 0 || changes.Next == token {
			return nil
		}
		token = changes.Next
	}
	return nil
}

func (s *Service) applyChange(ctx context.Context, collection, id string, data []byte, deleted bool) error {
	if deleted {
		err := s.repo.DeleteDocument(ctx, collection, id)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		return nil
	}

	if len(data) == 0 {
		s.logger.Warn("change without document body", zap.String("collection", collection), zap.String("id", id))
		return nil
	}

	doc := repository.Document{Collection: collection, ID: id, Data: data}
	if collection == repository.CollectionOrders {
		o, err := normalize.DecodeOrder(id, data)
		if err != nil {
			s.logger.Warn("malformed order document", zap.String("order", id), zap.Error(err))
		} else {
			created := o.CreatedAt
			doc.CreatedAt = &created
		}
	}

	return s.repo.UpsertDocument(ctx, doc)
}
