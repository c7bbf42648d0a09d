// Package distsort sorts an array that is distributed over a fixed group of
// cooperating ranks. The array is generated once on rank 0, scattered evenly
// across all ranks, sorted locally, and then merged pairwise across ranks in
// log2(P) recursive-doubling rounds until rank 0 holds the fully sorted
// sequence.
//
// Distsort provides the following subpackages:
//
// distsort/msort provides the distributor, the local sort step, the butterfly
// merge network, the verifier, and the pipeline that ties them together.
//
// distsort/comm provides the point-to-point communication abstraction shared
// by all ranks, together with an in-process group of goroutine ranks.
//
// distsort/comm/grpcnet provides a communicator for groups of separate OS
// processes that talk to each other over gRPC.
//
// distsort/sort provides the parallel sorting and merging kernels used on
// every rank.
//
// distsort/parallel and distsort/speculative provide the fork/join helpers
// used by the kernels, and distsort/sync provides the parallel map that holds
// the transport mailboxes.
//
// distsort/report formats the coordinator's output and timing statistics.
//
// The merge network assumes that the number of ranks is a power of two.
package distsort
