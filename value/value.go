// Package value implements the canonical tagged value domain shared by the
// graph store's history, cache, and persistence layers: scalars, lists,
// mappings, and the distinguished tombstone, plus the single text codec used
// at the persistence boundary.
package value

import (
	"fmt"
	"sort"
)

// Kind tags the concrete shape a Value holds.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindBool
	KindStr
	KindList
	KindMap
	KindTombstone
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindStr:
		return "str"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	case KindTombstone:
		return "tombstone"
	default:
		return "unknown"
	}
}

// Value is the tagged sum type every key and value in the graph store is
// encoded as: Scalar(Int|Float|Bool|Str) | List | Map | Tombstone.
//
// Only one of the fields is meaningful for a given Kind; List and Map hold
// nested Values so containers can be arbitrarily deep.
type Value struct {
	Kind Kind

	Int   int64
	Float float64
	Bool  bool
	Str   string
	List  []Value
	Map   map[string]Value
}

// Tombstone is the distinguished sentinel recording deletion. It is never
// surfaced to a façade caller directly — callers see KeyNotFound instead.
var Tombstone = Value{Kind: KindTombstone}

func Int(v int64) Value      { return Value{Kind: KindInt, Int: v} }
func Float(v float64) Value  { return Value{Kind: KindFloat, Float: v} }
func Bool(v bool) Value      { return Value{Kind: KindBool, Bool: v} }
func Str(v string) Value     { return Value{Kind: KindStr, Str: v} }
func List(vs ...Value) Value { return Value{Kind: KindList, List: vs} }
func Map(m map[string]Value) Value {
	cp := make(map[string]Value, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return Value{Kind: KindMap, Map: cp}
}

// IsTombstone reports whether v is the deletion sentinel.
func (v Value) IsTombstone() bool { return v.Kind == KindTombstone }

// Equal reports deep structural equality, the notion required by the
// storage round-trip property (§8 P6 in the store's test vectors).
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindInt:
		return a.Int == b.Int
	case KindFloat:
		return a.Float == b.Float
	case KindBool:
		return a.Bool == b.Bool
	case KindStr:
		return a.Str == b.Str
	case KindTombstone:
		return true
	case KindList:
		if len(a.List) != len(b.List) {
			return false
		}
		for i := range a.List {
			if !Equal(a.List[i], b.List[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(a.Map) != len(b.Map) {
			return false
		}
		for k, av := range a.Map {
			bv, ok := b.Map[k]
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// sortedMapKeys returns a Map's keys in a deterministic order so the text
// codec is stable across runs (needed for encode/decode round-trips to
// compare equal byte-for-byte, not merely structurally).
func sortedMapKeys(m map[string]Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String renders a Value for debug/log output; not the persistence codec.
func (v Value) String() string {
	switch v.Kind {
	case KindTombstone:
		return "<tombstone>"
	case KindInt:
		return fmt.Sprintf("%d", v.Int)
	case KindFloat:
		return fmt.Sprintf("%g", v.Float)
	case KindBool:
		return fmt.Sprintf("%t", v.Bool)
	case KindStr:
		return v.Str
	case KindList:
		return fmt.Sprintf("%v", v.List)
	case KindMap:
		return fmt.Sprintf("%v", v.Map)
	default:
		return "<invalid>"
	}
}
