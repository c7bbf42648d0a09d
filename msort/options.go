package msort

import (
	"log/slog"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

var (
	// ErrNotPowerOfTwo is returned when the group size is not a power of
	// two. The merge network is only defined for such groups.
	ErrNotPowerOfTwo = errors.New("group size is not a power of two")

	// ErrSizeOutOfRange is returned for global sizes whose values do not
	// fit into the int32 elements of a block.
	ErrSizeOutOfRange = errors.New("global size out of range")
)

/*
A FailurePolicy determines what happens when a send or receive fails.

PolicyReport logs the failure and continues with whatever the
affected buffer holds, which is all zeros after a failed receive. The
corruption then surfaces in the verifier at the latest. PolicyAbort
returns the failure to the caller.
*/
type FailurePolicy int

const (
	// PolicyReport logs a failed send or receive and continues.
	PolicyReport FailurePolicy = iota
	// PolicyAbort returns a failed send or receive to the caller.
	PolicyAbort
)

func (p FailurePolicy) String() string {
	switch p {
	case PolicyReport:
		return "report"
	case PolicyAbort:
		return "abort"
	}
	return "unknown"
}

// Set parses s, so that a *FailurePolicy can be used as a flag value.
func (p *FailurePolicy) Set(s string) error {
	switch s {
	case "report":
		*p = PolicyReport
	case "abort":
		*p = PolicyAbort
	default:
		return errors.Errorf("unknown failure policy %q (want report or abort)", s)
	}
	return nil
}

func (*FailurePolicy) Type() string {
	return "policy"
}

// An Algorithm selects the kernel that sorts a rank's local block.
type Algorithm int

const (
	// AlgorithmQuick is the parallel quicksort.
	AlgorithmQuick Algorithm = iota
	// AlgorithmStable is the parallel stable merge sort.
	AlgorithmStable
)

func (a Algorithm) String() string {
	switch a {
	case AlgorithmQuick:
		return "quick"
	case AlgorithmStable:
		return "stable"
	}
	return "unknown"
}

// Set parses s, so that an *Algorithm can be used as a flag value.
func (a *Algorithm) Set(s string) error {
	switch s {
	case "quick":
		*a = AlgorithmQuick
	case "stable":
		*a = AlgorithmStable
	default:
		return errors.Errorf("unknown local sort %q (want quick or stable)", s)
	}
	return nil
}

func (*Algorithm) Type() string {
	return "algorithm"
}

var (
	_ pflag.Value = (*FailurePolicy)(nil)
	_ pflag.Value = (*Algorithm)(nil)
)

// DefaultSeed is the seed of an unseeded C rand, which the generated
// sequences of the command line tool default to.
const DefaultSeed = 1

// Options configure a run. The zero Options are valid and use seed 0.
type Options struct {
	// Seed seeds the random values generated on rank 0.
	Seed int64

	Policy    FailurePolicy
	Algorithm Algorithm

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// transportFailure applies the failure policy to err, which occurred
// while talking to peer.
func (o Options) transportFailure(logger *slog.Logger, err error, op string, peer int) error {
	if o.Policy == PolicyAbort {
		return err
	}
	logger.Error("transport failure", "op", op, "peer", peer, "err", err)
	return nil
}
