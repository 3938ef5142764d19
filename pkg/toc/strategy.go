// Copyright 2026 PageForge
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package toc

import (
	"context"
	"errors"

	"github.com/pageforge/pageforge/pkg/datamodel"
	"go.uber.org/zap"
)

// Store is the storage surface a commit works against. Implementations
// must return ErrNotFound and ErrVersionConflict for the corresponding
// conditions so the strategies can tell rejections from infrastructure
// failures.
type Store interface {
	// GetBook reads the current book record including its TOC.
	GetBook(ctx context.Context, bookID string) (datamodel.Book, error)

	// CompareAndSwapTOC writes newTOC iff the stored version still equals
	// expectedVersion. This conditional write is the second line of
	// defense against races between the read and the write of one call.
	CompareAndSwapTOC(ctx context.Context, bookID string, expectedVersion uint32, newTOC datamodel.TableOfContents) error

	// PurgeChapters deletes the content and question records belonging to
	// the given chapter ids.
	PurgeChapters(ctx context.Context, bookID string, chapterIDs []string) error
}

// TxStore is a Store whose deployment may additionally support running a
// group of writes as one atomic unit.
type TxStore interface {
	Store

	// SupportsTransactions reports whether WithTransaction provides real
	// atomicity on this deployment. Probed once at startup, not per call.
	SupportsTransactions(ctx context.Context) bool

	// WithTransaction runs fn against a transaction-scoped Store and
	// commits iff fn returns nil.
	WithTransaction(ctx context.Context, fn func(tx Store) error) error
}

// MutateFunc recomputes the TOC from the freshly read value. It re-runs
// the version guard itself, returns the new tree with the version already
// incremented, and lists the chapter ids whose dependent records must be
// purged (empty for everything but deletes).
type MutateFunc func(current datamodel.TableOfContents) (datamodel.TableOfContents, []string, error)

// TransactionStrategy persists one recomputed TOC plus its dependent
// writes. The two implementations differ only in the atomicity they can
// offer; the operation logic above them is strategy-agnostic.
type TransactionStrategy interface {
	Name() string
	Commit(ctx context.Context, bookID string, mutate MutateFunc) (datamodel.TableOfContents, []string, error)
}

// CleanupScheduler queues chapter ids whose dependent cleanup could not be
// completed inside the call, for asynchronous retry.
type CleanupScheduler interface {
	ScheduleChapterCleanup(bookID string, chapterIDs []string) error
}

// CleanupSchedulerFunc adapts a plain function to CleanupScheduler.
type CleanupSchedulerFunc func(bookID string, chapterIDs []string) error

func (f CleanupSchedulerFunc) ScheduleChapterCleanup(bookID string, chapterIDs []string) error {
	return f(bookID, chapterIDs)
}

// isRejection reports whether err is a caller-facing rejection rather than
// an infrastructure failure.
func isRejection(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrVersionConflict) || IsValidationError(err)
}

// AtomicStrategy commits the TOC write and all dependent writes inside one
// storage transaction. On any failure the whole unit rolls back and
// nothing is observably changed.
type AtomicStrategy struct {
	store TxStore
}

func NewAtomicStrategy(store TxStore) *AtomicStrategy {
	return &AtomicStrategy{store: store}
}

func (s *AtomicStrategy) Name() string { return "atomic" }

func (s *AtomicStrategy) Commit(
	ctx context.Context,
	bookID string,
	mutate MutateFunc) (datamodel.TableOfContents, []string, error) {
	var newTOC datamodel.TableOfContents
	var removed []string

	err := s.store.WithTransaction(ctx, func(tx Store) error {
		// Re-read inside the transaction: the initial read that produced
		// the caller's view may predate the session.
		book, err := tx.GetBook(ctx, bookID)
		if err != nil {
			return err
		}
		newTOC, removed, err = mutate(book.TOC)
		if err != nil {
			return err
		}
		if err = tx.CompareAndSwapTOC(ctx, bookID, book.TOC.Version, newTOC); err != nil {
			return err
		}
		if len(removed) > 0 {
			return tx.PurgeChapters(ctx, bookID, removed)
		}
		return nil
	})
	if err != nil {
		if isRejection(err) {
			return datamodel.TableOfContents{}, nil, err
		}
		return datamodel.TableOfContents{}, nil, &CommitError{Strategy: s.Name(), Err: err}
	}
	return newTOC, removed, nil
}

// FallbackStrategy runs the same logical steps without a transaction, for
// deployments where the store cannot offer multi-statement atomicity. The
// TOC write itself is still safe (conditional on the version), but
// dependent writes after it are best-effort: on failure they are handed to
// the cleanup scheduler and retried asynchronously, so a crash or error
// between the two leaves a temporary orphan window rather than a
// permanent leak.
type FallbackStrategy struct {
	store   Store
	cleanup CleanupScheduler
}

func NewFallbackStrategy(store Store, cleanup CleanupScheduler) *FallbackStrategy {
	return &FallbackStrategy{store: store, cleanup: cleanup}
}

func (s *FallbackStrategy) Name() string { return "fallback" }

func (s *FallbackStrategy) Commit(
	ctx context.Context,
	bookID string,
	mutate MutateFunc) (datamodel.TableOfContents, []string, error) {
	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		if isRejection(err) {
			return datamodel.TableOfContents{}, nil, err
		}
		return datamodel.TableOfContents{}, nil, &CommitError{Strategy: s.Name(), Err: err}
	}
	newTOC, removed, err := mutate(book.TOC)
	if err != nil {
		return datamodel.TableOfContents{}, nil, err
	}
	if err = s.store.CompareAndSwapTOC(ctx, bookID, book.TOC.Version, newTOC); err != nil {
		if isRejection(err) {
			return datamodel.TableOfContents{}, nil, err
		}
		return datamodel.TableOfContents{}, nil, &CommitError{Strategy: s.Name(), Err: err}
	}

	// The TOC write is committed at this point. A purge failure must not
	// be reported as a failed mutation, so it is queued for retry instead.
	if len(removed) > 0 {
		if err = s.store.PurgeChapters(ctx, bookID, removed); err != nil {
			zap.S().Warnw(
				"Dependent cleanup failed after TOC write, scheduling retry",
				"bookID", bookID,
				"chapterIDs", removed,
				"error", err,
			)
			if s.cleanup == nil {
				return newTOC, removed, &CommitError{Strategy: s.Name(), CleanupPending: true, Err: err}
			}
			if errQ := s.cleanup.ScheduleChapterCleanup(bookID, removed); errQ != nil {
				zap.S().Errorw(
					"Failed to schedule chapter cleanup, content records are orphaned",
					"bookID", bookID,
					"chapterIDs", removed,
					"error", errQ,
				)
				return newTOC, removed, &CommitError{Strategy: s.Name(), CleanupPending: true, Err: err}
			}
		}
	}
	return newTOC, removed, nil
}

// SelectStrategy picks the persistence strategy once per process. Atomic
// when the deployment supports multi-statement transactions, fallback
// otherwise.
func SelectStrategy(ctx context.Context, store TxStore, cleanup CleanupScheduler) TransactionStrategy {
	if store.SupportsTransactions(ctx) {
		zap.S().Infof("Storage deployment supports transactions, using atomic commit strategy")
		return NewAtomicStrategy(store)
	}
	zap.S().Warnf("Storage deployment does not support transactions, falling back to best-effort commit strategy")
	return NewFallbackStrategy(store, cleanup)
}
