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
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/pageforge/pageforge/pkg/datamodel"
	"github.com/pageforge/pageforge/pkg/toc"
	"github.com/rung/go-safecast"
)

// Assumed average reading speed, words per minute.
const readingWordsPerMinute = 200

// GetChapterContent returns the stored body of one chapter.
func (c *Connection) GetChapterContent(ctx context.Context, bookID string, chapterID string) (datamodel.ChapterContent, error) {
	var content datamodel.ChapterContent
	err := c.db.QueryRow(ctx,
		`SELECT chapter_id, book_id, body, word_count, updated_at
		 FROM chapter_content WHERE book_id = $1 AND chapter_id = $2`,
		bookID, chapterID).Scan(
		&content.ChapterID, &content.BookID, &content.Body, &content.WordCount, &content.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return datamodel.ChapterContent{}, toc.ErrNotFound
	}
	if err != nil {
		return datamodel.ChapterContent{}, err
	}
	content.ReadingTimeMinutes = readingTime(content.WordCount)
	return content, nil
}

// UpsertChapterContent writes a chapter body and recomputes its word
// count. The chapter must exist in the book's TOC.
func (c *Connection) UpsertChapterContent(ctx context.Context, bookID string, chapterID string, body string) (datamodel.ChapterContent, error) {
	book, err := c.GetBook(ctx, bookID)
	if err != nil {
		return datamodel.ChapterContent{}, err
	}
	if _, err = toc.Locate(&book.TOC, chapterID); err != nil {
		return datamodel.ChapterContent{}, err
	}

	wordCount, err := safecast.Int32(len(strings.Fields(body)))
	if err != nil {
		return datamodel.ChapterContent{}, err
	}

	var content datamodel.ChapterContent
	err = c.db.QueryRow(ctx,
		`INSERT INTO chapter_content (chapter_id, book_id, body, word_count, updated_at)
		 VALUES ($1, $2, $3, $4, now())
		 ON CONFLICT (chapter_id)
		 DO UPDATE SET body = $3, word_count = $4, updated_at = now()
		 RETURNING chapter_id, book_id, body, word_count, updated_at`,
		chapterID, bookID, body, wordCount).Scan(
		&content.ChapterID, &content.BookID, &content.Body, &content.WordCount, &content.UpdatedAt)
	if err != nil {
		return datamodel.ChapterContent{}, err
	}
	content.ReadingTimeMinutes = readingTime(content.WordCount)
	return content, nil
}

func readingTime(wordCount int32) int32 {
	if wordCount <= 0 {
		return 0
	}
	return (wordCount + readingWordsPerMinute - 1) / readingWordsPerMinute
}
