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

package postgresql

import (
	"context"
	"errors"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/pageforge/pageforge/pkg/datamodel"
	"github.com/pageforge/pageforge/pkg/toc"
	"go.uber.org/zap"
)

// storeExec implements toc.Store over either the pool or an open
// transaction. The TOC chapters live in one JSONB column; toc_version is
// a plain column so the conditional write stays a single UPDATE.
type storeExec struct {
	q querier
}

func (s storeExec) GetBook(ctx context.Context, bookID string) (datamodel.Book, error) {
	var book datamodel.Book
	var tocJSON []byte
	var version uint32

	err := s.q.QueryRow(ctx,
		`SELECT id, owner_id, title, toc, toc_version FROM book WHERE id = $1`,
		bookID).Scan(&book.ID, &book.OwnerID, &book.Title, &tocJSON, &version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return datamodel.Book{}, toc.ErrNotFound
		}
		return datamodel.Book{}, err
	}
	if err = json.Unmarshal(tocJSON, &book.TOC.Chapters); err != nil {
		return datamodel.Book{}, err
	}
	book.TOC.Version = version
	return book, nil
}

func (s storeExec) CompareAndSwapTOC(
	ctx context.Context,
	bookID string,
	expectedVersion uint32,
	newTOC datamodel.TableOfContents) error {
	tocJSON, err := json.Marshal(newTOC.Chapters)
	if err != nil {
		return err
	}

	cmdTag, err := s.q.Exec(ctx,
		`UPDATE book SET toc = $1, toc_version = $2 WHERE id = $3 AND toc_version = $4`,
		tocJSON, newTOC.Version, bookID, expectedVersion)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 1 {
		return nil
	}

	// Zero rows: either the book vanished or someone else won the race.
	var storedVersion uint32
	err = s.q.QueryRow(ctx, `SELECT toc_version FROM book WHERE id = $1`, bookID).Scan(&storedVersion)
	if errors.Is(err, pgx.ErrNoRows) {
		return toc.ErrNotFound
	}
	if err != nil {
		return err
	}
	return toc.ErrVersionConflict
}

func (s storeExec) PurgeChapters(ctx context.Context, bookID string, chapterIDs []string) error {
	if _, err := s.q.Exec(ctx,
		`DELETE FROM chapter_question WHERE book_id = $1 AND chapter_id = ANY($2)`,
		bookID, chapterIDs); err != nil {
		return err
	}
	if _, err := s.q.Exec(ctx,
		`DELETE FROM chapter_content WHERE book_id = $1 AND chapter_id = ANY($2)`,
		bookID, chapterIDs); err != nil {
		return err
	}
	return nil
}

// Connection-level store methods run against the pool.

func (c *Connection) GetBook(ctx context.Context, bookID string) (datamodel.Book, error) {
	return storeExec{q: c.db}.GetBook(ctx, bookID)
}

func (c *Connection) CompareAndSwapTOC(
	ctx context.Context,
	bookID string,
	expectedVersion uint32,
	newTOC datamodel.TableOfContents) error {
	return storeExec{q: c.db}.CompareAndSwapTOC(ctx, bookID, expectedVersion, newTOC)
}

func (c *Connection) PurgeChapters(ctx context.Context, bookID string, chapterIDs []string) error {
	return storeExec{q: c.db}.PurgeChapters(ctx, bookID, chapterIDs)
}

// WithTransaction runs fn against a transaction-scoped store and commits
// iff fn returns nil.
func (c *Connection) WithTransaction(ctx context.Context, fn func(tx toc.Store) error) error {
	return c.withTx(ctx, func(s storeExec) error { return fn(s) })
}

func (c *Connection) withTx(ctx context.Context, fn func(s storeExec) error) error {
	tx, err := c.db.Begin(ctx)
	if err != nil {
		return err
	}
	if err = fn(storeExec{q: tx}); err != nil {
		if errR := tx.Rollback(ctx); errR != nil {
			zap.S().Errorf("Error rolling back transaction: %v", errR)
		}
		return err
	}
	return tx.Commit(ctx)
}

// CreateBook inserts a fresh book. The TOC starts at version 1 with no
// chapters; it is only ever changed through the coordinator afterwards.
func (c *Connection) CreateBook(ctx context.Context, book datamodel.Book) error {
	tocJSON, err := json.Marshal(book.TOC.Chapters)
	if err != nil {
		return err
	}
	_, err = c.db.Exec(ctx,
		`INSERT INTO book (id, owner_id, title, toc, toc_version) VALUES ($1, $2, $3, $4, $5)`,
		book.ID, book.OwnerID, book.Title, tocJSON, book.TOC.Version)
	return err
}

// DeleteBook removes the book row and purges the dependent records of
// every chapter in its tree, the same cascade a chapter delete runs. In
// fallback mode a failed purge is reported through cleanupDone=false so
// the caller can schedule the cleanup queue; the row deletion stands.
func (c *Connection) DeleteBook(ctx context.Context, bookID string) (removedChapterIDs []string, cleanupDone bool, err error) {
	if c.txSupported {
		err = c.withTx(ctx, func(tx storeExec) error {
			book, errTx := tx.GetBook(ctx, bookID)
			if errTx != nil {
				return errTx
			}
			removedChapterIDs = datamodel.FlattenIDs(book.TOC.Chapters)
			if errTx = c.deleteBookRow(ctx, tx.q, bookID); errTx != nil {
				return errTx
			}
			if len(removedChapterIDs) > 0 {
				return tx.PurgeChapters(ctx, bookID, removedChapterIDs)
			}
			return nil
		})
		return removedChapterIDs, err == nil, err
	}

	book, err := c.GetBook(ctx, bookID)
	if err != nil {
		return nil, false, err
	}
	removedChapterIDs = datamodel.FlattenIDs(book.TOC.Chapters)
	if err = c.deleteBookRow(ctx, c.db, bookID); err != nil {
		return nil, false, err
	}
	if len(removedChapterIDs) > 0 {
		if errP := c.PurgeChapters(ctx, bookID, removedChapterIDs); errP != nil {
			zap.S().Warnf("Book %s deleted but chapter purge failed: %v", bookID, errP)
			return removedChapterIDs, false, nil
		}
	}
	return removedChapterIDs, true, nil
}

func (c *Connection) deleteBookRow(ctx context.Context, q querier, bookID string) error {
	cmdTag, err := q.Exec(ctx, `DELETE FROM book WHERE id = $1`, bookID)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return toc.ErrNotFound
	}
	// Evict the owner cache entry so a recreated id cannot inherit it.
	c.ownerCache.Remove(bookID)
	return nil
}

// GetBookOwner returns the owner of a book, served from the ARC cache
// when possible. A book keeps its owner for its whole life; deletion
// evicts the entry.
func (c *Connection) GetBookOwner(ctx context.Context, bookID string) (string, error) {
	if cached, ok := c.ownerCache.Get(bookID); ok {
		c.lruHits.Add(1)
		return cached.(string), nil
	}
	c.lruMisses.Add(1)

	var ownerID string
	err := c.db.QueryRow(ctx, `SELECT owner_id FROM book WHERE id = $1`, bookID).Scan(&ownerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", toc.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	c.ownerCache.Add(bookID, ownerID)
	return ownerID, nil
}

// ListBooks returns the books of one owner, TOC included.
func (c *Connection) ListBooks(ctx context.Context, ownerID string) ([]datamodel.Book, error) {
	rows, err := c.db.Query(ctx,
		`SELECT id, owner_id, title, toc, toc_version FROM book WHERE owner_id = $1 ORDER BY created_at`,
		ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []datamodel.Book
	for rows.Next() {
		var book datamodel.Book
		var tocJSON []byte
		var version uint32
		if err = rows.Scan(&book.ID, &book.OwnerID, &book.Title, &tocJSON, &version); err != nil {
			return nil, err
		}
		if err = json.Unmarshal(tocJSON, &book.TOC.Chapters); err != nil {
			return nil, err
		}
		book.TOC.Version = version
		books = append(books, book)
	}
	return books, rows.Err()
}
