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

	"go.uber.org/zap"
)

// The schema is idempotent on purpose so every replica can run it at
// startup without coordination.
var migrationStatements = []string{
	`CREATE TABLE IF NOT EXISTS book (
		id          TEXT PRIMARY KEY,
		owner_id    TEXT        NOT NULL,
		title       TEXT        NOT NULL,
		toc         JSONB       NOT NULL DEFAULT '[]'::jsonb,
		toc_version INTEGER     NOT NULL DEFAULT 1,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_book_owner ON book (owner_id)`,
	`CREATE TABLE IF NOT EXISTS chapter_content (
		chapter_id TEXT PRIMARY KEY,
		book_id    TEXT        NOT NULL REFERENCES book (id) ON DELETE CASCADE,
		body       TEXT        NOT NULL DEFAULT '',
		word_count INTEGER     NOT NULL DEFAULT 0,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_chapter_content_book ON chapter_content (book_id)`,
	`CREATE TABLE IF NOT EXISTS chapter_question (
		id         TEXT PRIMARY KEY,
		chapter_id TEXT        NOT NULL,
		book_id    TEXT        NOT NULL REFERENCES book (id) ON DELETE CASCADE,
		question   TEXT        NOT NULL,
		answer     TEXT        NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_chapter_question_chapter ON chapter_question (chapter_id)`,
}

func (c *Connection) migrate(ctx context.Context) error {
	for _, statement := range migrationStatements {
		if _, err := c.db.Exec(ctx, statement); err != nil {
			zap.S().Errorf("Migration statement failed: %s", err)
			return err
		}
	}
	return nil
}
