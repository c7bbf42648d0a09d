// Package report writes the coordinator's result lines and summarizes
// the timings of repeated runs.
package report

import (
	"fmt"
	"io"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/exascience/distsort/msort"
)

// Timing writes the sort time of one run.
func Timing(w io.Writer, rank, n, p int, elapsed time.Duration) {
	fmt.Fprintf(w, "[%3d] n=%12d, p=%4d, sort=%12.6f s\n", rank, n, p, elapsed.Seconds())
}

// Sortedness writes the verdict of the verifier.
func Sortedness(w io.Writer, rank int, inv *msort.Inversion) {
	if inv != nil {
		fmt.Fprintf(w, "[%3d] array is not sorted at %v\n", rank, inv)
		return
	}
	fmt.Fprintf(w, "[%3d] array is sorted\n", rank)
}

// A Summary describes the sort times of several runs, in seconds.
type Summary struct {
	Runs         int
	Mean, StdDev float64
	Min, Max     float64
}

// Summarize computes the summary of the given sort times. It returns
// the zero Summary if there are none.
func Summarize(times []time.Duration) Summary {
	if len(times) == 0 {
		return Summary{}
	}
	secs := make([]float64, len(times))
	for i, t := range times {
		secs[i] = t.Seconds()
	}
	s := Summary{
		Runs: len(secs),
		Min:  floats.Min(secs),
		Max:  floats.Max(secs),
	}
	if len(secs) == 1 {
		s.Mean = secs[0]
		return s
	}
	s.Mean, s.StdDev = stat.MeanStdDev(secs, nil)
	return s
}

// Write writes s on one line.
func (s Summary) Write(w io.Writer, rank, n, p int) {
	fmt.Fprintf(w, "[%3d] n=%12d, p=%4d, runs=%d, mean=%12.6f s, stddev=%12.6f s, min=%12.6f s, max=%12.6f s\n",
		rank, n, p, s.Runs, s.Mean, s.StdDev, s.Min, s.Max)
}
