// Package scratch allocates throwaway working directories.
//
// Every directory gets a random suffix from os.MkdirTemp, so concurrent
// invocations never collide, and Allocator.Run removes it on every exit path.
package scratch
