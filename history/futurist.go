package history

import "fmt"

// FuturistWindow wraps Window and rejects retroactive writes: Set fails if
// a strictly greater revision has already been recorded. Used for
// existence flags (NodesCache/EdgesCache) and any WriteBatcher-fed history
// where the caller promises strictly increasing revisions, guarding
// against a write silently shadowing history that's already been read.
type FuturistWindow[V any] struct {
	w *Window[V]
}

// NewFuturistWindow returns an empty, retroactive-write-rejecting history.
func NewFuturistWindow[V any]() *FuturistWindow[V] {
	return &FuturistWindow[V]{w: NewWindow[V]()}
}

// Set records (rev, v), failing if any revision strictly greater than rev
// is already recorded.
func (f *FuturistWindow[V]) Set(rev int, v V) error {
	if max, ok := f.w.MaxRev(); ok && max > rev {
		return fmt.Errorf("history: retroactive write at revision %d rejected, revision %d already recorded", rev, max)
	}
	f.w.Set(rev, v)
	return nil
}

func (f *FuturistWindow[V]) GetEffective(rev int) (V, bool) { return f.w.GetEffective(rev) }
func (f *FuturistWindow[V]) HasExact(rev int) bool          { return f.w.HasExact(rev) }
func (f *FuturistWindow[V]) PrevRev(rev int) (int, bool)    { return f.w.PrevRev(rev) }
func (f *FuturistWindow[V]) NextRev(rev int) (int, bool)    { return f.w.NextRev(rev) }
func (f *FuturistWindow[V]) Delete(rev int) error           { return f.w.Delete(rev) }
func (f *FuturistWindow[V]) Len() int                       { return f.w.Len() }
func (f *FuturistWindow[V]) All() []Entry[V]                { return f.w.All() }
