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
	"sync"

	"github.com/pageforge/pageforge/pkg/datamodel"
)

var errPurgeBroken = errors.New("purge broken")

// memData is the unlocked storage state, shared by the plain store view
// and the transaction view.
type memData struct {
	books     map[string]datamodel.Book
	contents  map[string]map[string]string // bookID -> chapterID -> body
	failPurge bool
	casCalls  int
}

func (d *memData) GetBook(_ context.Context, bookID string) (datamodel.Book, error) {
	book, ok := d.books[bookID]
	if !ok {
		return datamodel.Book{}, ErrNotFound
	}
	book.TOC = book.TOC.Clone()
	return book, nil
}

func (d *memData) CompareAndSwapTOC(
	_ context.Context,
	bookID string,
	expectedVersion uint32,
	newTOC datamodel.TableOfContents) error {
	d.casCalls++
	book, ok := d.books[bookID]
	if !ok {
		return ErrNotFound
	}
	if book.TOC.Version != expectedVersion {
		return ErrVersionConflict
	}
	book.TOC = newTOC.Clone()
	d.books[bookID] = book
	return nil
}

func (d *memData) PurgeChapters(_ context.Context, bookID string, chapterIDs []string) error {
	if d.failPurge {
		return errPurgeBroken
	}
	for _, id := range chapterIDs {
		delete(d.contents[bookID], id)
	}
	return nil
}

func (d *memData) clone() *memData {
	books := make(map[string]datamodel.Book, len(d.books))
	for id, b := range d.books {
		b.TOC = b.TOC.Clone()
		books[id] = b
	}
	contents := make(map[string]map[string]string, len(d.contents))
	for id, c := range d.contents {
		inner := make(map[string]string, len(c))
		for k, v := range c {
			inner[k] = v
		}
		contents[id] = inner
	}
	return &memData{books: books, contents: contents, failPurge: d.failPurge, casCalls: d.casCalls}
}

// memStore is an in-memory TxStore. Its transactions snapshot the state
// and roll back on error, so the atomic strategy can be exercised without
// a database.
type memStore struct {
	mu            sync.Mutex
	data          *memData
	supportsTx    bool
	beginFailures int
}

func newMemStore(supportsTx bool) *memStore {
	return &memStore{
		data: &memData{
			books:    make(map[string]datamodel.Book),
			contents: make(map[string]map[string]string),
		},
		supportsTx: supportsTx,
	}
}

func (m *memStore) putBook(book datamodel.Book, chapterBodies map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data.books[book.ID] = book
	if m.data.contents[book.ID] == nil {
		m.data.contents[book.ID] = make(map[string]string)
	}
	for id, body := range chapterBodies {
		m.data.contents[book.ID][id] = body
	}
}

func (m *memStore) book(bookID string) datamodel.Book {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.books[bookID]
}

func (m *memStore) contentIDs(bookID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for id := range m.data.contents[bookID] {
		ids = append(ids, id)
	}
	return ids
}

func (m *memStore) setFailPurge(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data.failPurge = fail
}

func (m *memStore) GetBook(ctx context.Context, bookID string) (datamodel.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.GetBook(ctx, bookID)
}

func (m *memStore) CompareAndSwapTOC(
	ctx context.Context,
	bookID string,
	expectedVersion uint32,
	newTOC datamodel.TableOfContents) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.CompareAndSwapTOC(ctx, bookID, expectedVersion, newTOC)
}

func (m *memStore) PurgeChapters(ctx context.Context, bookID string, chapterIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.PurgeChapters(ctx, bookID, chapterIDs)
}

func (m *memStore) SupportsTransactions(context.Context) bool {
	return m.supportsTx
}

func (m *memStore) WithTransaction(ctx context.Context, fn func(tx Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.beginFailures > 0 {
		m.beginFailures--
		return errors.New("begin failed")
	}
	snapshot := m.data.clone()
	if err := fn(txView{data: m.data}); err != nil {
		m.data = snapshot
		return err
	}
	return nil
}

// txView exposes memData as a Store without re-locking.
type txView struct {
	data *memData
}

func (v txView) GetBook(ctx context.Context, bookID string) (datamodel.Book, error) {
	return v.data.GetBook(ctx, bookID)
}

func (v txView) CompareAndSwapTOC(
	ctx context.Context,
	bookID string,
	expectedVersion uint32,
	newTOC datamodel.TableOfContents) error {
	return v.data.CompareAndSwapTOC(ctx, bookID, expectedVersion, newTOC)
}

func (v txView) PurgeChapters(ctx context.Context, bookID string, chapterIDs []string) error {
	return v.data.PurgeChapters(ctx, bookID, chapterIDs)
}

// recordingCleanup captures scheduled cleanup requests.
type recordingCleanup struct {
	mu        sync.Mutex
	scheduled [][]string
	fail      bool
}

func (r *recordingCleanup) ScheduleChapterCleanup(bookID string, chapterIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("queue closed")
	}
	r.scheduled = append(r.scheduled, chapterIDs)
	return nil
}

// recordingNotifier captures change events.
type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingNotifier) TocChanged(bookID string, operation string, newVersion uint32, removed []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, operation)
}

// recordingInvalidator counts cache invalidations per book.
type recordingInvalidator struct {
	mu    sync.Mutex
	books []string
}

func (r *recordingInvalidator) InvalidateBook(bookID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.books = append(r.books, bookID)
}
