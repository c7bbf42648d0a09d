/*
Package speculative provides a parallel conjunction that returns as
soon as its result is known.

Predicates that are still running when And returns are not stopped;
their results are discarded.
*/
package speculative

import "github.com/exascience/distsort"

type outcome struct {
	ok    bool
	panic interface{}
}

/*
And runs predicates in parallel. It returns false as soon as one of them
returns false, and true once all of them have returned true.

If a predicate panics before And has returned, And panics with that
value.
*/
func And(predicates ...distsort.Predicate) bool {
	outcomes := make(chan outcome, len(predicates))
	for _, pred := range predicates {
		go func() {
			defer func() {
				if p := recover(); p != nil {
					outcomes <- outcome{panic: p}
				}
			}()
			outcomes <- outcome{ok: pred()}
		}()
	}
	for range predicates {
		o := <-outcomes
		if o.panic != nil {
			panic(o.panic)
		}
		if !o.ok {
			return false
		}
	}
	return true
}
