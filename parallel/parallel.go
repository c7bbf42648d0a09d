// Package parallel provides fork/join parallelism for the sorting
// kernels.
package parallel

import (
	"sync"

	"github.com/exascience/distsort"
)

// Do executes thunks in parallel and returns when all of them have
// terminated. The first thunk runs in the calling goroutine.
//
// If one or more thunks panic, Do panics with the panic value of the
// left-most of them once all thunks have terminated.
func Do(thunks ...distsort.Thunk) {
	if len(thunks) == 0 {
		return
	}
	panics := make([]interface{}, len(thunks))
	var wg sync.WaitGroup
	wg.Add(len(thunks) - 1)
	for i := 1; i < len(thunks); i++ {
		go func() {
			defer wg.Done()
			defer func() { panics[i] = recover() }()
			thunks[i]()
		}()
	}
	func() {
		defer func() { panics[0] = recover() }()
		thunks[0]()
	}()
	wg.Wait()
	for _, p := range panics {
		if p != nil {
			panic(p)
		}
	}
}
