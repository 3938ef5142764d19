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
	"time"

	"github.com/pageforge/pageforge/pkg/datamodel"
	"go.uber.org/zap"
)

// CacheInvalidator drops cached TOC views of a book after a structural
// mutation so stale chapter lists are not served.
type CacheInvalidator interface {
	InvalidateBook(bookID string)
}

// Notifier is told about every committed structural mutation. It feeds the
// downstream consumers (question generation, draft generation, export)
// that keep derived data per chapter.
type Notifier interface {
	TocChanged(bookID string, operation string, newVersion uint32, removedChapterIDs []string)
}

// Coordinator is the only code path that mutates a book's TOC. Every
// operation has the same shape: owner assertion, version guard, tree
// mutation on a clone, strategy commit, cache invalidation and change
// notification.
type Coordinator struct {
	store    TxStore
	strategy TransactionStrategy
	cache    CacheInvalidator
	notifier Notifier
}

// CoordinatorOption configures optional collaborators.
type CoordinatorOption func(*Coordinator)

// WithCacheInvalidator wires the cache collaborator.
func WithCacheInvalidator(cache CacheInvalidator) CoordinatorOption {
	return func(c *Coordinator) { c.cache = cache }
}

// WithNotifier wires the change-event collaborator.
func WithNotifier(n Notifier) CoordinatorOption {
	return func(c *Coordinator) { c.notifier = n }
}

func NewCoordinator(store TxStore, strategy TransactionStrategy, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{store: store, strategy: strategy}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// readGuarded performs the cheap front gate of every operation: book
// lookup, owner assertion and the first version check. Rejected calls
// never reach the mutator or the store's write path.
func (c *Coordinator) readGuarded(
	ctx context.Context,
	bookID string,
	ownerID string,
	expectedVersion uint32) (datamodel.Book, error) {
	book, err := c.store.GetBook(ctx, bookID)
	if err != nil {
		return datamodel.Book{}, err
	}
	// Authorization runs upstream; this equality assertion is defense in
	// depth. A mismatch is reported as not-found so foreign book ids do
	// not leak their existence.
	if book.OwnerID != ownerID {
		zap.S().Infow("Owner mismatch on TOC mutation", "bookID", bookID, "ownerID", ownerID)
		return datamodel.Book{}, ErrNotFound
	}
	if err = CheckVersion(book.TOC.Version, expectedVersion); err != nil {
		return datamodel.Book{}, err
	}
	return book, nil
}

func (c *Coordinator) commit(
	ctx context.Context,
	bookID string,
	operation string,
	mutate MutateFunc) (datamodel.TableOfContents, []string, error) {
	start := time.Now()
	newTOC, removed, err := c.strategy.Commit(ctx, bookID, mutate)
	observeCommit(operation, c.strategy.Name(), time.Since(start), err)

	// A CleanupPending commit error means the TOC write itself went
	// through, so caches and listeners must still be told.
	committed := err == nil
	var commitErr *CommitError
	if errors.As(err, &commitErr) && commitErr.CleanupPending {
		committed = true
	}
	if committed {
		if c.cache != nil {
			c.cache.InvalidateBook(bookID)
		}
		if c.notifier != nil {
			c.notifier.TocChanged(bookID, operation, newTOC.Version, removed)
		}
	}
	if err != nil {
		return newTOC, removed, err
	}
	return newTOC, removed, nil
}

// ReplaceToc swaps in a full replacement chapter tree after validating it
// wholesale.
func (c *Coordinator) ReplaceToc(
	ctx context.Context,
	bookID string,
	ownerID string,
	chapters []datamodel.ChapterNode,
	expectedVersion uint32) (datamodel.TableOfContents, error) {
	if _, err := c.readGuarded(ctx, bookID, ownerID, expectedVersion); err != nil {
		return datamodel.TableOfContents{}, err
	}
	mutate := func(current datamodel.TableOfContents) (datamodel.TableOfContents, []string, error) {
		if err := CheckVersion(current.Version, expectedVersion); err != nil {
			return datamodel.TableOfContents{}, nil, err
		}
		if err := ValidateTree(chapters); err != nil {
			return datamodel.TableOfContents{}, nil, err
		}
		next := datamodel.TableOfContents{
			Version:  current.Version + 1,
			Chapters: datamodel.CloneChapters(chapters),
		}
		return next, nil, nil
	}
	newTOC, _, err := c.commit(ctx, bookID, "replace_toc", mutate)
	return newTOC, err
}

// AddChapter inserts one new chapter under its parent (or at top level).
func (c *Coordinator) AddChapter(
	ctx context.Context,
	bookID string,
	ownerID string,
	node datamodel.ChapterNode,
	expectedVersion uint32) (datamodel.TableOfContents, error) {
	if _, err := c.readGuarded(ctx, bookID, ownerID, expectedVersion); err != nil {
		return datamodel.TableOfContents{}, err
	}
	mutate := func(current datamodel.TableOfContents) (datamodel.TableOfContents, []string, error) {
		if err := CheckVersion(current.Version, expectedVersion); err != nil {
			return datamodel.TableOfContents{}, nil, err
		}
		next := current.Clone()
		if err := Insert(&next, node); err != nil {
			return datamodel.TableOfContents{}, nil, err
		}
		next.Version = current.Version + 1
		return next, nil, nil
	}
	newTOC, _, err := c.commit(ctx, bookID, "add_chapter", mutate)
	return newTOC, err
}

// UpdateChapter applies a partial field update to one chapter.
func (c *Coordinator) UpdateChapter(
	ctx context.Context,
	bookID string,
	ownerID string,
	chapterID string,
	updates ChapterUpdate,
	expectedVersion uint32) (datamodel.TableOfContents, error) {
	if _, err := c.readGuarded(ctx, bookID, ownerID, expectedVersion); err != nil {
		return datamodel.TableOfContents{}, err
	}
	mutate := func(current datamodel.TableOfContents) (datamodel.TableOfContents, []string, error) {
		if err := CheckVersion(current.Version, expectedVersion); err != nil {
			return datamodel.TableOfContents{}, nil, err
		}
		next := current.Clone()
		if err := Replace(&next, chapterID, updates); err != nil {
			return datamodel.TableOfContents{}, nil, err
		}
		next.Version = current.Version + 1
		return next, nil, nil
	}
	newTOC, _, err := c.commit(ctx, bookID, "update_chapter", mutate)
	return newTOC, err
}

// DeleteChapter removes a chapter and its whole subtree. The content and
// question records of every removed id are purged as dependent writes.
func (c *Coordinator) DeleteChapter(
	ctx context.Context,
	bookID string,
	ownerID string,
	chapterID string,
	expectedVersion uint32) (datamodel.TableOfContents, []string, error) {
	if _, err := c.readGuarded(ctx, bookID, ownerID, expectedVersion); err != nil {
		return datamodel.TableOfContents{}, nil, err
	}
	mutate := func(current datamodel.TableOfContents) (datamodel.TableOfContents, []string, error) {
		if err := CheckVersion(current.Version, expectedVersion); err != nil {
			return datamodel.TableOfContents{}, nil, err
		}
		next := current.Clone()
		removed, err := Remove(&next, chapterID)
		if err != nil {
			return datamodel.TableOfContents{}, nil, err
		}
		next.Version = current.Version + 1
		return next, removed, nil
	}
	return c.commit(ctx, bookID, "delete_chapter", mutate)
}

// ReorderChapters applies a set of (chapter, order) moves. Partial sets
// are allowed; collisions with unnamed siblings fail the whole call.
func (c *Coordinator) ReorderChapters(
	ctx context.Context,
	bookID string,
	ownerID string,
	moves []OrderMove,
	expectedVersion uint32) (datamodel.TableOfContents, error) {
	if _, err := c.readGuarded(ctx, bookID, ownerID, expectedVersion); err != nil {
		return datamodel.TableOfContents{}, err
	}
	mutate := func(current datamodel.TableOfContents) (datamodel.TableOfContents, []string, error) {
		if err := CheckVersion(current.Version, expectedVersion); err != nil {
			return datamodel.TableOfContents{}, nil, err
		}
		next := current.Clone()
		if err := Reorder(&next, moves); err != nil {
			return datamodel.TableOfContents{}, nil, err
		}
		next.Version = current.Version + 1
		return next, nil, nil
	}
	newTOC, _, err := c.commit(ctx, bookID, "reorder_chapters", mutate)
	return newTOC, err
}
