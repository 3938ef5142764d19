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
	"github.com/pageforge/pageforge/pkg/datamodel"
	"golang.org/x/exp/slices"
)

// Tree mutation primitives. All functions here are pure in-memory
// operations: no I/O, no logging. They are the single source of truth for
// the tree shape invariants, shared by all five coordinator operations.
// Callers pass a clone; on error the clone is discarded, so a failed
// operation never leaks a half-mutated tree.

// ChapterUpdate carries a partial update for one chapter. Nil fields are
// left untouched.
type ChapterUpdate struct {
	Title      *string `json:"title,omitempty"`
	Order      *int    `json:"order,omitempty"`
	Level      *int    `json:"level,omitempty"`
	ContentRef *string `json:"contentRef,omitempty"`
}

// OrderMove assigns a new sibling order to one chapter.
type OrderMove struct {
	ChapterID string `json:"chapterId" binding:"required"`
	NewOrder  int    `json:"newOrder" binding:"required"`
}

// Locate finds a chapter anywhere in the tree by depth-first search. The
// returned pointer aliases the tree. Returns ErrNotFound if no node with
// that id exists.
func Locate(t *datamodel.TableOfContents, chapterID string) (*datamodel.ChapterNode, error) {
	if node := locate(t.Chapters, chapterID); node != nil {
		return node, nil
	}
	return nil, ErrNotFound
}

func locate(list []datamodel.ChapterNode, id string) *datamodel.ChapterNode {
	for i := range list {
		if list[i].ID == id {
			return &list[i]
		}
		if n := locate(list[i].Subchapters, id); n != nil {
			return n
		}
	}
	return nil
}

// locateSiblings returns the sibling list containing id and the index of
// the node within it, or (nil, -1).
func locateSiblings(list *[]datamodel.ChapterNode, id string) (*[]datamodel.ChapterNode, int) {
	for i := range *list {
		if (*list)[i].ID == id {
			return list, i
		}
		if siblings, j := locateSiblings(&(*list)[i].Subchapters, id); siblings != nil {
			return siblings, j
		}
	}
	return nil, -1
}

func containsID(list []datamodel.ChapterNode, id string) bool {
	return locate(list, id) != nil
}

// orderTaken reports whether another sibling (id != skipID) already uses
// the given order value.
func orderTaken(siblings []datamodel.ChapterNode, order int, skipID string) bool {
	for i := range siblings {
		if siblings[i].ID != skipID && siblings[i].Order == order {
			return true
		}
	}
	return false
}

// Insert appends a new chapter to its parent's sibling list (or the
// top-level list when ParentID is empty) after checking every invariant
// the new node could break.
func Insert(t *datamodel.TableOfContents, node datamodel.ChapterNode) error {
	if node.ID == "" {
		return newValidationError("chapter id must not be empty")
	}
	if node.Title == "" {
		return newValidationError("chapter title must not be empty")
	}
	if node.Order <= 0 {
		return newValidationError("chapter order must be positive, got %d", node.Order)
	}
	if len(node.Subchapters) != 0 {
		return newValidationError("new chapter %s must not carry subchapters, add them individually", node.ID)
	}
	if containsID(t.Chapters, node.ID) {
		return newValidationError("chapter id %s already exists in this book", node.ID)
	}

	siblings := &t.Chapters
	if node.ParentID == "" {
		if node.Level != 1 {
			return newValidationError("top-level chapter %s must be level 1, got %d", node.ID, node.Level)
		}
	} else {
		parent := locate(t.Chapters, node.ParentID)
		if parent == nil {
			return ErrNotFound
		}
		if node.Level != parent.Level+1 {
			return newValidationError(
				"chapter %s has level %d but its parent %s is level %d", node.ID, node.Level, parent.ID, parent.Level)
		}
		siblings = &parent.Subchapters
	}

	if orderTaken(*siblings, node.Order, node.ID) {
		return newValidationError("order %d is already used by a sibling of chapter %s", node.Order, node.ID)
	}

	*siblings = append(*siblings, node)
	return nil
}

// Replace applies a partial field update to one chapter. Order and level
// changes are re-validated against the node's current siblings and parent.
func Replace(t *datamodel.TableOfContents, chapterID string, upd ChapterUpdate) error {
	siblings, idx := locateSiblings(&t.Chapters, chapterID)
	if siblings == nil {
		return ErrNotFound
	}
	node := &(*siblings)[idx]

	if upd.Title != nil {
		if *upd.Title == "" {
			return newValidationError("chapter title must not be empty")
		}
		node.Title = *upd.Title
	}
	if upd.Order != nil {
		if *upd.Order <= 0 {
			return newValidationError("chapter order must be positive, got %d", *upd.Order)
		}
		if orderTaken(*siblings, *upd.Order, chapterID) {
			return newValidationError("order %d is already used by a sibling of chapter %s", *upd.Order, chapterID)
		}
		node.Order = *upd.Order
	}
	if upd.Level != nil {
		// The level is determined by the node's position, not free to
		// change. Reparenting is a delete + insert.
		expected := 1
		if node.ParentID != "" {
			parent := locate(t.Chapters, node.ParentID)
			if parent == nil {
				return ErrNotFound
			}
			expected = parent.Level + 1
		}
		if *upd.Level != expected {
			return newValidationError("chapter %s must stay at level %d, got %d", chapterID, expected, *upd.Level)
		}
		node.Level = *upd.Level
	}
	if upd.ContentRef != nil {
		node.ContentRef = *upd.ContentRef
	}
	return nil
}

// Remove deletes a chapter together with its entire subtree and returns
// the flattened id list of everything that was removed, so the caller can
// purge content, question and cache records for each of them.
func Remove(t *datamodel.TableOfContents, chapterID string) ([]string, error) {
	siblings, idx := locateSiblings(&t.Chapters, chapterID)
	if siblings == nil {
		return nil, ErrNotFound
	}
	node := (*siblings)[idx]
	removed := append([]string{node.ID}, datamodel.FlattenIDs(node.Subchapters)...)
	*siblings = append((*siblings)[:idx], (*siblings)[idx+1:]...)
	return removed, nil
}

// Reorder assigns new order values to the named chapters. Unnamed siblings
// keep their values; if a new value collides with any sibling (named or
// not) the whole operation fails. This lets a drag-and-drop caller send
// only the rows that moved. Affected sibling lists are re-sorted so the
// stored tree stays in display order.
func Reorder(t *datamodel.TableOfContents, moves []OrderMove) error {
	if len(moves) == 0 {
		return newValidationError("reorder requires at least one (chapter, order) pair")
	}

	seen := make(map[string]bool, len(moves))
	affected := make([]*[]datamodel.ChapterNode, 0, len(moves))
	for _, move := range moves {
		if seen[move.ChapterID] {
			return newValidationError("chapter %s appears twice in the reorder set", move.ChapterID)
		}
		seen[move.ChapterID] = true
		if move.NewOrder <= 0 {
			return newValidationError("chapter order must be positive, got %d", move.NewOrder)
		}

		siblings, idx := locateSiblings(&t.Chapters, move.ChapterID)
		if siblings == nil {
			return ErrNotFound
		}
		(*siblings)[idx].Order = move.NewOrder
		affected = append(affected, siblings)
	}

	// Uniqueness is checked after all moves are applied: two named
	// siblings may legally swap through each other's old values.
	for _, siblings := range affected {
		used := make(map[int]string, len(*siblings))
		for i := range *siblings {
			if other, taken := used[(*siblings)[i].Order]; taken {
				return newValidationError(
					"order %d is used by both chapter %s and chapter %s", (*siblings)[i].Order, other, (*siblings)[i].ID)
			}
			used[(*siblings)[i].Order] = (*siblings)[i].ID
		}
		slices.SortStableFunc(*siblings, func(a, b datamodel.ChapterNode) int {
			return a.Order - b.Order
		})
	}
	return nil
}

// ValidateTree checks a full replacement tree: unique ids, unique sibling
// orders, consistent levels and resolvable parent references. Used by
// ReplaceToc before the tree is accepted wholesale.
func ValidateTree(chapters []datamodel.ChapterNode) error {
	seen := make(map[string]bool)
	return validateLevel(chapters, nil, seen)
}

func validateLevel(list []datamodel.ChapterNode, parent *datamodel.ChapterNode, seen map[string]bool) error {
	used := make(map[int]string, len(list))
	for i := range list {
		node := &list[i]
		if node.ID == "" {
			return newValidationError("chapter id must not be empty")
		}
		if seen[node.ID] {
			return newValidationError("chapter id %s appears more than once", node.ID)
		}
		seen[node.ID] = true
		if node.Title == "" {
			return newValidationError("chapter %s has an empty title", node.ID)
		}
		if node.Order <= 0 {
			return newValidationError("chapter %s order must be positive, got %d", node.ID, node.Order)
		}
		if other, taken := used[node.Order]; taken {
			return newValidationError("order %d is used by both chapter %s and chapter %s", node.Order, other, node.ID)
		}
		used[node.Order] = node.ID

		if parent == nil {
			if node.ParentID != "" {
				return newValidationError("top-level chapter %s must not reference parent %s", node.ID, node.ParentID)
			}
			if node.Level != 1 {
				return newValidationError("top-level chapter %s must be level 1, got %d", node.ID, node.Level)
			}
		} else {
			if node.ParentID != parent.ID {
				return newValidationError(
					"chapter %s is nested under %s but references parent %q", node.ID, parent.ID, node.ParentID)
			}
			if node.Level != parent.Level+1 {
				return newValidationError(
					"chapter %s has level %d but its parent %s is level %d", node.ID, node.Level, parent.ID, parent.Level)
			}
		}

		if err := validateLevel(node.Subchapters, node, seen); err != nil {
			return err
		}
	}
	return nil
}
