package main

import (
	"io"
	"net"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/exascience/distsort"
)

func newLaunchCommand(cfg *config) *cobra.Command {
	var np, basePort int
	cmd := &cobra.Command{
		Use:   "launch --np P [flags] log2_arraySize",
		Short: "Start a networked group of P msort processes on this host",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := parseSize(args[0]); err != nil {
				return err
			}
			if !distsort.IsPowerOfTwo(np) {
				return errors.Errorf("--np %d is not a power of two", np)
			}
			cmd.SilenceUsage = true

			exe, err := os.Executable()
			if err != nil {
				return errors.Wrap(err, "locate executable")
			}
			peers := lo.Times(np, func(rank int) string {
				return net.JoinHostPort("127.0.0.1", strconv.Itoa(basePort+rank))
			})
			childArgs := append(cfg.forwardedFlags(), args[0])

			stdout := &syncWriter{w: cmd.OutOrStdout()}
			stderr := &syncWriter{w: cmd.ErrOrStderr()}
			g, ctx := errgroup.WithContext(cmd.Context())
			for rank := range np {
				child := exec.CommandContext(ctx, exe, childArgs...)
				child.Env = append(os.Environ(),
					envRank+"="+strconv.Itoa(rank),
					envPeers+"="+strings.Join(peers, ","),
				)
				child.Stdout = stdout
				child.Stderr = stderr
				g.Go(func() error {
					return errors.Wrapf(child.Run(), "rank %d", rank)
				})
			}
			return g.Wait()
		},
	}
	cmd.Flags().IntVar(&np, "np", 2, "number of processes, a power of two")
	cmd.Flags().IntVar(&basePort, "base-port", 47110, "port of rank 0; rank r listens on base-port+r")
	return cmd
}

// forwardedFlags returns the flags that every launched rank inherits.
func (cfg *config) forwardedFlags() []string {
	args := []string{
		"--seed", strconv.FormatInt(cfg.opts.Seed, 10),
		"--policy", cfg.opts.Policy.String(),
		"--local-sort", cfg.opts.Algorithm.String(),
		"--repeat", strconv.Itoa(cfg.repeat),
	}
	if cfg.debug {
		args = append(args, "--debug")
	}
	return args
}

// A syncWriter serializes the writes of the children's output copiers.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (w *syncWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.w.Write(p)
}
