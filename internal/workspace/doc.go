// Package workspace keeps the authoritative, immutable view of every open
// document and connects it to the mutable text surfaces editors own.
//
// Documents live in a Store whose whole map is swapped atomically on each
// change. A Bridge per open document listens to its Surface and publishes
// each committed edit into the Store. The Workspace ties these together:
// Open, Close and Rename drive each document through Closed, Open and back,
// calling Hooks synchronously and raising Events through a queue so that
// subscriber code never runs on, or blocks, the goroutine making the change.
package workspace
