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

package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/pageforge/pageforge/cmd/bookapi/v1/models"
	"github.com/pageforge/pageforge/internal"
	"github.com/pageforge/pageforge/pkg/datamodel"
	"go.uber.org/zap"
)

// CreateBook registers a new book with an empty chapter tree.
func CreateBook(ctx context.Context, owner string, title string) (models.CreateBookResponse, error) {
	book := datamodel.Book{
		ID:      uuid.New().String(),
		OwnerID: owner,
		Title:   title,
		TOC:     datamodel.NewTableOfContents(),
	}
	if err := db.CreateBook(ctx, book); err != nil {
		return models.CreateBookResponse{}, err
	}
	zap.S().Infof("Created book %s for %s", book.ID, internal.SanitizeString(owner))
	return models.CreateBookResponse{
		BookID:     book.ID,
		Title:      book.Title,
		TocVersion: book.TOC.Version,
	}, nil
}

// GetBook returns one book with its full chapter tree.
func GetBook(ctx context.Context, owner string, bookID string) (models.GetBookResponse, error) {
	if err := assertOwner(ctx, owner, bookID); err != nil {
		return models.GetBookResponse{}, err
	}
	book, err := db.GetBook(ctx, bookID)
	if err != nil {
		return models.GetBookResponse{}, err
	}
	if book.TOC.Chapters == nil {
		book.TOC.Chapters = []datamodel.ChapterNode{}
	}
	return models.GetBookResponse{
		BookID:  book.ID,
		OwnerID: book.OwnerID,
		Title:   book.Title,
		Toc:     book.TOC,
	}, nil
}

// ListBooks returns all books of one owner.
func ListBooks(ctx context.Context, owner string) (models.ListBooksResponse, error) {
	books, err := db.ListBooks(ctx, owner)
	if err != nil {
		return models.ListBooksResponse{}, err
	}
	response := models.ListBooksResponse{Books: make([]models.BookSummary, 0, len(books))}
	for _, b := range books {
		response.Books = append(response.Books, models.BookSummary{
			BookID:     b.ID,
			Title:      b.Title,
			TocVersion: b.TOC.Version,
		})
	}
	return response, nil
}

// DeleteBook removes a book and cascades over its chapter artifacts. When
// the store could not purge them in the same stroke, the ids are parked on
// the cleanup queue and the response flags the pending work.
func DeleteBook(ctx context.Context, owner string, bookID string) (models.DeleteBookResponse, error) {
	if err := assertOwner(ctx, owner, bookID); err != nil {
		return models.DeleteBookResponse{}, err
	}

	removed, cleanupDone, err := db.DeleteBook(ctx, bookID)
	if err != nil {
		return models.DeleteBookResponse{}, err
	}
	if removed == nil {
		removed = []string{}
	}

	cleanupPending := false
	if !cleanupDone && len(removed) > 0 {
		qErr := internal.EnqueueChapterCleanup(internal.ChapterCleanup{
			BookID:     bookID,
			ChapterIDs: removed,
		})
		if qErr != nil {
			zap.S().Errorf("Failed to enqueue cleanup for deleted book %s: %s", bookID, qErr)
			cleanupPending = true
		}
	}

	internal.InvalidateBook(bookID)
	internal.PublishTocChanged(internal.TocChangedEvent{
		BookID:            bookID,
		Operation:         "delete_book",
		RemovedChapterIDs: removed,
	})

	return models.DeleteBookResponse{
		BookID:          bookID,
		RemovedChapters: removed,
		CleanupPending:  cleanupPending,
	}, nil
}
