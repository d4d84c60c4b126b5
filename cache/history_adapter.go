package cache

import "github.com/evalgo/graphstore/history"

// versionedHistory is the common surface EntityCache needs from a revision
// history, satisfied by both history.Window (plain attribute values) and
// history.FuturistWindow (existence flags, which reject retroactive
// writes per §4.1).
type versionedHistory[V any] interface {
	Set(rev int, v V) error
	GetEffective(rev int) (V, bool)
	HasExact(rev int) bool
	PrevRev(rev int) (int, bool)
	NextRev(rev int) (int, bool)
	Delete(rev int) error
	Len() int
	All() []history.Entry[V]
}

// plainWindow adapts history.Window (whose Set never fails) to
// versionedHistory's fallible Set signature, so EntityCache can treat both
// window flavors uniformly.
type plainWindow[V any] struct {
	w *history.Window[V]
}

func newPlainWindow[V any]() versionedHistory[V] {
	return &plainWindow[V]{w: history.NewWindow[V]()}
}

func (p *plainWindow[V]) Set(rev int, v V) error        { p.w.Set(rev, v); return nil }
func (p *plainWindow[V]) GetEffective(rev int) (V, bool) { return p.w.GetEffective(rev) }
func (p *plainWindow[V]) HasExact(rev int) bool          { return p.w.HasExact(rev) }
func (p *plainWindow[V]) PrevRev(rev int) (int, bool)    { return p.w.PrevRev(rev) }
func (p *plainWindow[V]) NextRev(rev int) (int, bool)    { return p.w.NextRev(rev) }
func (p *plainWindow[V]) Delete(rev int) error           { return p.w.Delete(rev) }
func (p *plainWindow[V]) Len() int                       { return p.w.Len() }
func (p *plainWindow[V]) All() []history.Entry[V]        { return p.w.All() }

// futuristWindow adapts history.FuturistWindow to versionedHistory.
type futuristWindow[V any] struct {
	f *history.FuturistWindow[V]
}

func newFuturistWindow[V any]() versionedHistory[V] {
	return &futuristWindow[V]{f: history.NewFuturistWindow[V]()}
}

func (p *futuristWindow[V]) Set(rev int, v V) error        { return p.f.Set(rev, v) }
func (p *futuristWindow[V]) GetEffective(rev int) (V, bool) { return p.f.GetEffective(rev) }
func (p *futuristWindow[V]) HasExact(rev int) bool          { return p.f.HasExact(rev) }
func (p *futuristWindow[V]) PrevRev(rev int) (int, bool)    { return p.f.PrevRev(rev) }
func (p *futuristWindow[V]) NextRev(rev int) (int, bool)    { return p.f.NextRev(rev) }
func (p *futuristWindow[V]) Delete(rev int) error           { return p.f.Delete(rev) }
func (p *futuristWindow[V]) Len() int                       { return p.f.Len() }
func (p *futuristWindow[V]) All() []history.Entry[V]        { return p.f.All() }
