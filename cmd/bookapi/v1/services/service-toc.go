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

	json "github.com/goccy/go-json"
	"github.com/pageforge/pageforge/cmd/bookapi/v1/models"
	"github.com/pageforge/pageforge/internal"
	"github.com/pageforge/pageforge/pkg/datamodel"
	"github.com/pageforge/pageforge/pkg/toc"
	"go.uber.org/zap"
)

// assertOwner resolves the stored owner of a book and hides the book's
// existence from anyone else.
func assertOwner(ctx context.Context, owner string, bookID string) error {
	storedOwner, err := db.GetBookOwner(ctx, bookID)
	if err != nil {
		return err
	}
	if storedOwner != owner {
		return toc.ErrNotFound
	}
	return nil
}

func tocResponse(bookID string, t datamodel.TableOfContents) models.TocResponse {
	chapters := t.Chapters
	if chapters == nil {
		chapters = []datamodel.ChapterNode{}
	}
	return models.TocResponse{
		BookID:   bookID,
		Version:  t.Version,
		Chapters: chapters,
	}
}

// GetToc serves the chapter tree, preferring the cache over postgres.
func GetToc(ctx context.Context, owner string, bookID string) (response models.TocResponse, err error) {
	if err = assertOwner(ctx, owner, bookID); err != nil {
		return
	}

	payload, cached := internal.GetTocCache(bookID)
	if cached {
		err = json.Unmarshal(payload, &response)
		if err == nil {
			return
		}
		zap.S().Warnf("Discarding undecodable cached TOC for %s: %s", bookID, err)
		internal.InvalidateBook(bookID)
	}

	if rebuildMutex.TryLock(bookID) {
		defer rebuildMutex.Unlock(bookID)

		// A parallel rebuild may have filled the cache while we waited.
		payload, cached = internal.GetTocCache(bookID)
		if cached {
			err = json.Unmarshal(payload, &response)
			if err == nil {
				return
			}
		}
	}

	var book datamodel.Book
	book, err = db.GetBook(ctx, bookID)
	if err != nil {
		return
	}
	response = tocResponse(bookID, book.TOC)

	payload, err = json.Marshal(response)
	if err != nil {
		zap.S().Warnf("Failed to encode TOC for caching: %s", err)
		err = nil
		return
	}
	internal.SetTocCache(bookID, payload)
	return
}

// ReplaceToc swaps in a whole new chapter tree.
func ReplaceToc(
	ctx context.Context,
	owner string,
	bookID string,
	chapters []datamodel.ChapterNode,
	expectedVersion uint32) (models.TocResponse, error) {
	newTOC, err := coordinator.ReplaceToc(ctx, bookID, owner, chapters, expectedVersion)
	if err != nil {
		return models.TocResponse{}, err
	}
	return tocResponse(bookID, newTOC), nil
}

// AddChapter inserts a single chapter.
func AddChapter(
	ctx context.Context,
	owner string,
	bookID string,
	chapter datamodel.ChapterNode,
	expectedVersion uint32) (models.TocResponse, error) {
	newTOC, err := coordinator.AddChapter(ctx, bookID, owner, chapter, expectedVersion)
	if err != nil {
		return models.TocResponse{}, err
	}
	return tocResponse(bookID, newTOC), nil
}

// UpdateChapter applies a partial update to a single chapter.
func UpdateChapter(
	ctx context.Context,
	owner string,
	bookID string,
	chapterID string,
	request models.UpdateChapterRequest) (models.TocResponse, error) {
	updates := toc.ChapterUpdate{
		Title:      request.Title,
		Order:      request.Order,
		Level:      request.Level,
		ContentRef: request.ContentRef,
	}
	newTOC, err := coordinator.UpdateChapter(ctx, bookID, owner, chapterID, updates, request.ExpectedVersion)
	if err != nil {
		return models.TocResponse{}, err
	}
	return tocResponse(bookID, newTOC), nil
}

// DeleteChapter removes a chapter with its whole subtree and reports the
// flattened id list of everything that went away.
func DeleteChapter(
	ctx context.Context,
	owner string,
	bookID string,
	chapterID string,
	expectedVersion uint32) (models.DeleteChapterResponse, error) {
	newTOC, removed, err := coordinator.DeleteChapter(ctx, bookID, owner, chapterID, expectedVersion)
	if err != nil {
		return models.DeleteChapterResponse{}, err
	}
	if removed == nil {
		removed = []string{}
	}
	return models.DeleteChapterResponse{
		Toc:             tocResponse(bookID, newTOC),
		RemovedChapters: removed,
	}, nil
}

// ReorderChapters applies a batch of order moves.
func ReorderChapters(
	ctx context.Context,
	owner string,
	bookID string,
	moves []models.ChapterMove,
	expectedVersion uint32) (models.TocResponse, error) {
	orderMoves := make([]toc.OrderMove, 0, len(moves))
	for _, m := range moves {
		orderMoves = append(orderMoves, toc.OrderMove{
			ChapterID: m.ChapterID,
			NewOrder:  m.NewOrder,
		})
	}
	newTOC, err := coordinator.ReorderChapters(ctx, bookID, owner, orderMoves, expectedVersion)
	if err != nil {
		return models.TocResponse{}, err
	}
	return tocResponse(bookID, newTOC), nil
}
