// Package iterable is the fluent facade over sparse stores.
//
// An Iterable is an immutable configuration: a backing store, a chain of
// filters and a direction. Only and But return a Narrowing builder whose
// methods append one more filter, Reverse flips the direction, and every
// terminal operation (Keys, Count, Remove, FillValues, ...) walks the store
// once with a fresh cursor. The same configuration over an unmodified store
// always yields the same sequence.
//
//	it := iterable.New(s)
//	keys := it.Only().From(2).But().Last(2).Keys()
//
// Filters see physical indices. Reversal only changes the scan direction and
// therefore the order in which First and Last count elements: on keys 0..4,
// it.Reverse().Only().First(3) yields 4, 3 and 2.
//
// Nothing in this package is safe for concurrent use.
package iterable
