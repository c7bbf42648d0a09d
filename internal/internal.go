// Package internal holds helpers shared by the transports that are not
// part of the public API.
package internal

import (
	"fmt"
	"runtime/debug"
)

/*
A RankPanic is a panic recovered on one rank of a group. It is re-raised
by the goroutine that waits for the group, so the stack of the failing
rank is kept in Stack.
*/
type RankPanic struct {
	Rank  int
	Value interface{}
	Stack []byte
}

func (p *RankPanic) Error() string {
	return fmt.Sprintf("rank %d: %v\n%s\nrethrown at", p.Rank, p.Value, p.Stack)
}

// Unwrap returns the panic value if it is an error, so that errors.As
// still finds runtime errors.
func (p *RankPanic) Unwrap() error {
	err, _ := p.Value.(error)
	return err
}

// WrapPanic records the rank and the current stack with a recovered
// panic value. It returns nil for a nil value.
func WrapPanic(rank int, value interface{}) *RankPanic {
	if value == nil {
		return nil
	}
	return &RankPanic{Rank: rank, Value: value, Stack: debug.Stack()}
}
