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
	"testing"

	"github.com/pageforge/pageforge/pkg/datamodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testTree builds:
//
//	ch1 (order 1)
//	  ch1-1 (order 1)
//	    ch1-1-1 (order 1)
//	  ch1-2 (order 2)
//	ch2 (order 2)
func testTree() datamodel.TableOfContents {
	return datamodel.TableOfContents{
		Version: 5,
		Chapters: []datamodel.ChapterNode{
			{
				ID: "ch1", Title: "Intro", Level: 1, Order: 1,
				Subchapters: []datamodel.ChapterNode{
					{
						ID: "ch1-1", Title: "History", Level: 2, Order: 1, ParentID: "ch1",
						Subchapters: []datamodel.ChapterNode{
							{ID: "ch1-1-1", Title: "Prehistory", Level: 3, Order: 1, ParentID: "ch1-1"},
						},
					},
					{ID: "ch1-2", Title: "Context", Level: 2, Order: 2, ParentID: "ch1"},
				},
			},
			{ID: "ch2", Title: "Methods", Level: 1, Order: 2},
		},
	}
}

func TestLocateAtArbitraryDepth(t *testing.T) {
	tree := testTree()

	for _, id := range []string{"ch1", "ch1-1", "ch1-1-1", "ch1-2", "ch2"} {
		node, err := Locate(&tree, id)
		require.NoError(t, err, "expected to find %s", id)
		assert.Equal(t, id, node.ID)
	}

	_, err := Locate(&tree, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInsertTopLevel(t *testing.T) {
	tree := testTree()

	err := Insert(&tree, datamodel.ChapterNode{ID: "ch3", Title: "Results", Level: 1, Order: 3})
	require.NoError(t, err)
	require.Len(t, tree.Chapters, 3)
	assert.Equal(t, "ch3", tree.Chapters[2].ID)
}

func TestInsertNested(t *testing.T) {
	tree := testTree()

	err := Insert(&tree, datamodel.ChapterNode{
		ID: "ch1-1-2", Title: "Antiquity", Level: 3, Order: 2, ParentID: "ch1-1"})
	require.NoError(t, err)

	node, err := Locate(&tree, "ch1-1-2")
	require.NoError(t, err)
	assert.Equal(t, "ch1-1", node.ParentID)
}

func TestInsertRejectsInvalidNodes(t *testing.T) {
	tests := []struct {
		name string
		node datamodel.ChapterNode
		want error
	}{
		{
			name: "duplicate id anywhere in the tree",
			node: datamodel.ChapterNode{ID: "ch1-1-1", Title: "Dup", Level: 1, Order: 9},
		},
		{
			name: "duplicate sibling order",
			node: datamodel.ChapterNode{ID: "chX", Title: "X", Level: 2, Order: 2, ParentID: "ch1"},
		},
		{
			name: "level inconsistent with parent",
			node: datamodel.ChapterNode{ID: "chX", Title: "X", Level: 3, Order: 3, ParentID: "ch1"},
		},
		{
			name: "top-level node not level 1",
			node: datamodel.ChapterNode{ID: "chX", Title: "X", Level: 2, Order: 3},
		},
		{
			name: "empty title",
			node: datamodel.ChapterNode{ID: "chX", Title: "", Level: 1, Order: 3},
		},
		{
			name: "non-positive order",
			node: datamodel.ChapterNode{ID: "chX", Title: "X", Level: 1, Order: 0},
		},
		{
			name: "unresolved parent",
			node: datamodel.ChapterNode{ID: "chX", Title: "X", Level: 2, Order: 1, ParentID: "ghost"},
			want: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := testTree()
			err := Insert(&tree, tt.node)
			require.Error(t, err)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			} else {
				assert.True(t, IsValidationError(err), "expected a validation error, got %v", err)
			}
			// A failed insert leaves the tree unchanged.
			assert.Equal(t, testTree(), tree)
		})
	}
}

func TestReplacePartialUpdate(t *testing.T) {
	tree := testTree()
	title := "Revised History"

	err := Replace(&tree, "ch1-1", ChapterUpdate{Title: &title})
	require.NoError(t, err)

	node, err := Locate(&tree, "ch1-1")
	require.NoError(t, err)
	assert.Equal(t, "Revised History", node.Title)
	// Unspecified fields are untouched.
	assert.Equal(t, 1, node.Order)
	assert.Equal(t, 2, node.Level)
	assert.Len(t, node.Subchapters, 1)
}

func TestReplaceOrderCollision(t *testing.T) {
	tree := testTree()
	order := 2

	err := Replace(&tree, "ch1-1", ChapterUpdate{Order: &order})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestReplaceLevelMustStayConsistent(t *testing.T) {
	tree := testTree()

	bad := 5
	err := Replace(&tree, "ch1-1", ChapterUpdate{Level: &bad})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	ok := 2
	assert.NoError(t, Replace(&tree, "ch1-1", ChapterUpdate{Level: &ok}))
}

func TestReplaceNotFound(t *testing.T) {
	tree := testTree()
	title := "X"
	err := Replace(&tree, "ghost", ChapterUpdate{Title: &title})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemoveCascades(t *testing.T) {
	tree := testTree()

	removed, err := Remove(&tree, "ch1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"ch1", "ch1-1", "ch1-1-1", "ch1-2"}, removed)

	// None of the removed ids remain findable.
	for _, id := range removed {
		_, err = Locate(&tree, id)
		assert.ErrorIs(t, err, ErrNotFound, "id %s should be gone", id)
	}
	require.Len(t, tree.Chapters, 1)
	assert.Equal(t, "ch2", tree.Chapters[0].ID)
}

func TestRemoveLeaf(t *testing.T) {
	tree := testTree()

	removed, err := Remove(&tree, "ch1-1-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"ch1-1-1"}, removed)

	node, err := Locate(&tree, "ch1-1")
	require.NoError(t, err)
	assert.Empty(t, node.Subchapters)
}

func TestRemoveNotFound(t *testing.T) {
	tree := testTree()
	_, err := Remove(&tree, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReorderSwap(t *testing.T) {
	tree := testTree()

	err := Reorder(&tree, []OrderMove{
		{ChapterID: "ch1", NewOrder: 2},
		{ChapterID: "ch2", NewOrder: 1},
	})
	require.NoError(t, err)

	// Siblings are re-sorted into display order.
	assert.Equal(t, "ch2", tree.Chapters[0].ID)
	assert.Equal(t, 1, tree.Chapters[0].Order)
	assert.Equal(t, "ch1", tree.Chapters[1].ID)
	assert.Equal(t, 2, tree.Chapters[1].Order)
}

func TestReorderPartialSubsetLeavesOthersAlone(t *testing.T) {
	tree := testTree()

	err := Reorder(&tree, []OrderMove{{ChapterID: "ch1-1", NewOrder: 3}})
	require.NoError(t, err)

	untouched, err := Locate(&tree, "ch1-2")
	require.NoError(t, err)
	assert.Equal(t, 2, untouched.Order)

	moved, err := Locate(&tree, "ch1-1")
	require.NoError(t, err)
	assert.Equal(t, 3, moved.Order)
}

func TestReorderCollisionWithUnnamedSiblingFailsWhole(t *testing.T) {
	tree := testTree()

	// ch1-2 already holds order 2; moving ch1-1 onto it must fail without
	// applying anything.
	err := Reorder(&tree, []OrderMove{{ChapterID: "ch1-1", NewOrder: 2}})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestReorderRejectsMalformedSets(t *testing.T) {
	tree := testTree()

	err := Reorder(&tree, nil)
	assert.True(t, IsValidationError(err))

	err = Reorder(&tree, []OrderMove{
		{ChapterID: "ch1", NewOrder: 1},
		{ChapterID: "ch1", NewOrder: 2},
	})
	assert.True(t, IsValidationError(err))

	err = Reorder(&tree, []OrderMove{{ChapterID: "ghost", NewOrder: 1}})
	assert.ErrorIs(t, err, ErrNotFound)

	err = Reorder(&tree, []OrderMove{{ChapterID: "ch1", NewOrder: -1}})
	assert.True(t, IsValidationError(err))
}

func TestValidateTreeAcceptsWellFormed(t *testing.T) {
	tree := testTree()
	assert.NoError(t, ValidateTree(tree.Chapters))
	assert.NoError(t, ValidateTree(nil))
}

func TestValidateTreeRejections(t *testing.T) {
	base := testTree()

	dupID := base.Clone()
	dupID.Chapters[1].ID = "ch1-1-1"
	assert.True(t, IsValidationError(ValidateTree(dupID.Chapters)))

	dupOrder := base.Clone()
	dupOrder.Chapters[1].Order = 1
	assert.True(t, IsValidationError(ValidateTree(dupOrder.Chapters)))

	badLevel := base.Clone()
	badLevel.Chapters[0].Subchapters[0].Level = 3
	assert.True(t, IsValidationError(ValidateTree(badLevel.Chapters)))

	badParent := base.Clone()
	badParent.Chapters[0].Subchapters[1].ParentID = "ch2"
	assert.True(t, IsValidationError(ValidateTree(badParent.Chapters)))

	rootWithParent := base.Clone()
	rootWithParent.Chapters[1].ParentID = "ch1"
	assert.True(t, IsValidationError(ValidateTree(rootWithParent.Chapters)))
}

func TestCloneDoesNotAlias(t *testing.T) {
	tree := testTree()
	clone := tree.Clone()

	clone.Chapters[0].Subchapters[0].Title = "mutated"
	assert.Equal(t, "History", tree.Chapters[0].Subchapters[0].Title)
}
