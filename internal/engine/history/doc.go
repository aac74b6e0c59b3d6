// Package history provides the calculation history engine: a bounded log of
// calculations with undo/redo and change notification.
//
// # Engine
//
// Engine owns the live history plus two stacks of mementos:
//
//	engine := history.NewEngine(1000) // keep at most 1000 calculations
//
//	engine.Append(calc) // snapshot, append, evict oldest, clear redo, notify
//	engine.Undo()       // false when there is nothing to undo
//	engine.Redo()       // false when there is nothing to redo
//	engine.Clear()      // false when the history is already empty
//
// Undo and redo never recompute anything; they swap whole snapshots of the
// history between the live list and the two stacks.
//
// # Mementos
//
// A Memento is an immutable copy of the history taken at a point in time.
// It never shares storage with the live list, so later appends or evictions
// cannot change what an undo restores. Mementos convert to and from a flat
// MementoRecord for persistence.
//
// # Observers
//
// Observers registered with AddObserver are notified, in registration order,
// after every successful Append. LoggingObserver writes a structured log
// entry; AutoSaveObserver persists the history when its target has
// auto-save enabled. The first observer error stops notification and is
// returned from Append.
//
// Engine is not safe for concurrent use.
package history
