package model

import (
	"printalloc/internal/cpsat"
)

// Variable tags. Every decision or indicator variable carries one, so a raw
// solver identifier can always be traced back to the business fact it encodes.
const (
	tagAssign = "assign" // book produced by supplier using method
	tagKit    = "kit"    // kit placed at supplier
	tagItem   = "item"   // standalone book placed at supplier
)

// varKey is the composite identifier of a model variable. Unused components
// stay empty: an "assign" key fills all three entity fields, a "kit" key only
// EntityID and SupplierID.
type varKey struct {
	Tag        string
	EntityID   string // book id or kit id, depending on Tag
	SupplierID string
	Method     string
}

// varArena hands out solver variables for tagged composite keys and recovers
// the key from an identifier, in both directions deterministically.
type varArena struct {
	model *cpsat.Model
	vars  map[varKey]cpsat.BoolVar
	keys  []varKey // keys[id-1] is the key of variable id
}

func newVarArena(model *cpsat.Model) *varArena {
	return &varArena{
		model: model,
		vars:  make(map[varKey]cpsat.BoolVar),
	}
}

// Bool returns the variable registered for the key, creating it on first use.
func (a *varArena) Bool(key varKey) cpsat.BoolVar {
	if v, ok := a.vars[key]; ok {
		return v
	}
	v := a.model.NewBoolVar()
	a.vars[key] = v
	a.keys = append(a.keys, key)
	return v
}

// Lookup returns the variable registered for the key, if any.
func (a *varArena) Lookup(key varKey) (cpsat.BoolVar, bool) {
	v, ok := a.vars[key]
	return v, ok
}

// Key recovers the composite key of a variable identifier.
func (a *varArena) Key(v cpsat.BoolVar) varKey {
	return a.keys[int(v)-1]
}

// Size returns the number of registered variables.
func (a *varArena) Size() int {
	return len(a.keys)
}
