package model

import (
	"testing"

	"printalloc/internal/cpsat"

	"github.com/stretchr/testify/assert"
)

func TestVarArena(t *testing.T) {
	t.Run("hands out one variable per key", func(t *testing.T) {
		// Arrange
		arena := newVarArena(&cpsat.Model{})
		key := varKey{Tag: tagAssign, EntityID: "b1", SupplierID: "s1", Method: "offset"}

		// Act
		first := arena.Bool(key)
		second := arena.Bool(key)
		other := arena.Bool(varKey{Tag: tagKit, EntityID: "k1", SupplierID: "s1"})

		// Assert
		assert.Equal(t, first, second)
		assert.NotEqual(t, first, other)
		assert.Equal(t, 2, arena.Size())
	})

	t.Run("recovers the key of a variable", func(t *testing.T) {
		arena := newVarArena(&cpsat.Model{})
		keys := []varKey{
			{Tag: tagAssign, EntityID: "b1", SupplierID: "s1", Method: "offset"},
			{Tag: tagItem, EntityID: "b2", SupplierID: "s2"},
			{Tag: tagKit, EntityID: "k1", SupplierID: "s1"},
		}

		for _, key := range keys {
			v := arena.Bool(key)
			assert.Equal(t, key, arena.Key(v))
		}
	})

	t.Run("lookup does not create variables", func(t *testing.T) {
		arena := newVarArena(&cpsat.Model{})

		_, ok := arena.Lookup(varKey{Tag: tagAssign, EntityID: "b1"})

		assert.False(t, ok)
		assert.Equal(t, 0, arena.Size())
	})
}
