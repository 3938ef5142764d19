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
	"testing"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
)

func CreateMockConnection(t *testing.T) (*Connection, pgxmock.PgxPoolIface) {
	t.Helper()

	ownerCache, err := lru.NewARC(10)
	if err != nil {
		t.Fatalf("Failed to create owner cache: %v", err)
	}

	mocked, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("Failed to create mock connection: %v", err)
	}
	t.Cleanup(mocked.Close)

	c := &Connection{
		db:          mocked,
		ownerCache:  ownerCache,
		txSupported: true,
	}
	return c, mocked
}

func TestCreateMockConnection(t *testing.T) {
	c, mock := CreateMockConnection(t)
	assert.NotNil(t, c)
	assert.NotNil(t, c.db)
	assert.NotNil(t, c.ownerCache)
	assert.NotNil(t, mock)
}
