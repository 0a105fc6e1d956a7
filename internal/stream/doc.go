// Package stream provides the reference-counted objects behind fd slots.
//
// A File is shared by every fd slot that refers to it, within and across
// processes. Slots take references with Incref and drop them with Decref;
// the underlying object closes exactly once, when the last reference
// goes. Only this close contract is consumed by the kernel; read/write
// semantics live elsewhere.
package stream
