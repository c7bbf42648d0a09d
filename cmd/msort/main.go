// Command msort generates, sorts, and verifies a distributed array of
// 2^k random integers.
//
// Usage:
//
//	msort [flags] log2_arraySize
//	msort launch --np P [flags] log2_arraySize
//
// Without --rank, msort runs all ranks of the group as goroutines of one
// process. With --rank and --peers (or DISTSORT_RANK and DISTSORT_PEERS),
// the process is one rank of a networked group. The launch subcommand
// starts such a group on the local host.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/exascience/distsort/comm"
	"github.com/exascience/distsort/comm/grpcnet"
	"github.com/exascience/distsort/msort"
	"github.com/exascience/distsort/report"
)

const (
	envRank  = "DISTSORT_RANK"
	envPeers = "DISTSORT_PEERS"
)

type config struct {
	np     int
	rank   int
	peers  []string
	repeat int
	debug  bool
	opts   msort.Options
}

func main() {
	if err := execute(newRootCommand()); err != nil {
		os.Exit(1)
	}
}

// execute runs cmd and reports a fatal error on its standard output,
// where the result lines go as well.
func execute(cmd *cobra.Command) error {
	cmd.SilenceErrors = true
	err := cmd.Execute()
	if err != nil {
		fmt.Fprintln(cmd.OutOrStdout(), "Error:", err)
	}
	return err
}

func newRootCommand() *cobra.Command {
	cfg := &config{opts: msort.Options{Seed: msort.DefaultSeed}}
	cmd := &cobra.Command{
		Use:   "msort [flags] log2_arraySize",
		Short: "Distributed merge sort of 2^log2_arraySize random integers",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return cfg.fromEnv(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseSize(args[0])
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true
			return cfg.run(cmd.Context(), cmd.OutOrStdout(), n)
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&cfg.np, "np", 1, "number of in-process ranks, a power of two")
	flags.IntVar(&cfg.rank, "rank", -1, "rank of this process in a networked group (env "+envRank+")")
	flags.StringSliceVar(&cfg.peers, "peers", nil, "addresses of all ranks of a networked group, by rank (env "+envPeers+")")

	pflags := cmd.PersistentFlags()
	pflags.Int64Var(&cfg.opts.Seed, "seed", msort.DefaultSeed, "seed of the generated values")
	pflags.Var(&cfg.opts.Policy, "policy", "transport failure policy: report or abort")
	pflags.Var(&cfg.opts.Algorithm, "local-sort", "local sort: quick or stable")
	pflags.IntVar(&cfg.repeat, "repeat", 1, "number of runs")
	pflags.BoolVar(&cfg.debug, "debug", false, "log block sizes, generated data and merge rounds")

	cmd.AddCommand(newLaunchCommand(cfg))
	return cmd
}

// fromEnv fills the networked group settings from the environment
// unless they were given as flags.
func (cfg *config) fromEnv(cmd *cobra.Command) error {
	if s, ok := os.LookupEnv(envRank); ok && !cmd.Flags().Changed("rank") {
		rank, err := strconv.Atoi(s)
		if err != nil {
			return errors.Wrapf(err, "invalid %s", envRank)
		}
		cfg.rank = rank
	}
	if s, ok := os.LookupEnv(envPeers); ok && !cmd.Flags().Changed("peers") {
		cfg.peers = strings.Split(s, ",")
	}
	if cfg.np < 1 {
		return errors.Errorf("invalid number of ranks: %d", cfg.np)
	}
	if cfg.repeat < 1 {
		return errors.Errorf("invalid number of runs: %d", cfg.repeat)
	}
	return nil
}

// parseSize returns 2^arg. The values of the array must fit into an
// int32, so arg is limited to 30.
func parseSize(arg string) (int, error) {
	k, err := strconv.Atoi(arg)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid log2_arraySize %q", arg)
	}
	if k < 0 || k > 30 {
		return 0, errors.Errorf("log2_arraySize %d out of range [0, 30]", k)
	}
	return 1 << k, nil
}

func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// run sorts n values cfg.repeat times. Log records share stdout with
// the result lines.
func (cfg *config) run(ctx context.Context, stdout io.Writer, n int) error {
	logger := newLogger(stdout, cfg.debug)
	cfg.opts.Logger = logger

	if cfg.rank >= 0 {
		node, err := grpcnet.Listen(grpcnet.Config{
			Rank:   cfg.rank,
			Peers:  cfg.peers,
			Logger: logger,
		})
		if err != nil {
			return err
		}
		defer node.Close()
		return cfg.sortRuns(ctx, stdout, node, n)
	}

	world := comm.NewWorld(cfg.np)
	defer world.Close()
	return world.Run(ctx, func(ctx context.Context, c comm.Communicator) error {
		return cfg.sortRuns(ctx, stdout, c, n)
	})
}

// sortRuns runs the pipeline cfg.repeat times on one rank. Only rank 0
// writes to stdout.
func (cfg *config) sortRuns(ctx context.Context, stdout io.Writer, c comm.Communicator, n int) error {
	rank, size := c.Rank(), c.Size()
	times := make([]time.Duration, 0, cfg.repeat)
	for i := 0; i < cfg.repeat; i++ {
		res, err := msort.Run(ctx, c, n, cfg.opts)
		if err != nil {
			return err
		}
		times = append(times, res.Elapsed)
		if rank == 0 {
			report.Timing(stdout, rank, n, size, res.Elapsed)
			report.Sortedness(stdout, rank, res.Inversion)
		}
	}
	if rank == 0 && cfg.repeat > 1 {
		report.Summarize(times).Write(stdout, rank, n, size)
	}
	return nil
}
