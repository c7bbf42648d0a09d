package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net"
	"os"
	"slices"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exascience/distsort/comm"
	"github.com/exascience/distsort/msort"
)

// TestMain lets the test binary act as a rank started by launch.
func TestMain(m *testing.M) {
	if os.Getenv(envRank) != "" {
		main()
		os.Exit(0)
	}
	os.Exit(m.Run())
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	for _, env := range []string{envRank, envPeers} {
		t.Setenv(env, "")
		os.Unsetenv(env)
	}
	cmd := newRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := execute(cmd)
	return out.String(), err
}

func TestSortInProcess(t *testing.T) {
	out, err := runCommand(t, "--np", "4", "--repeat", "2", "12")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "[  0] n=        4096, p=   4, sort="))
	assert.Equal(t, "[  0] array is sorted", lines[1])
	assert.Equal(t, "[  0] array is sorted", lines[3])
	assert.Contains(t, lines[4], "runs=2")
}

func TestArguments(t *testing.T) {
	_, err := runCommand(t)
	assert.Error(t, err)

	_, err = runCommand(t, "4", "5")
	assert.Error(t, err)

	_, err = runCommand(t, "many")
	assert.Error(t, err)

	out, err := runCommand(t, "31")
	assert.Error(t, err)
	assert.Equal(t, "Error: log2_arraySize 31 out of range [0, 30]\n", out)

	_, err = runCommand(t, "--np", "3", "4")
	assert.Error(t, err)

	_, err = runCommand(t, "--policy", "retry", "4")
	assert.Error(t, err)
}

func TestParseSize(t *testing.T) {
	n, err := parseSize("0")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = parseSize("20")
	require.NoError(t, err)
	assert.Equal(t, 1<<20, n)
}

func TestForwardedFlags(t *testing.T) {
	cfg := &config{repeat: 3, debug: true}
	require.NoError(t, cfg.opts.Policy.Set("abort"))
	assert.Equal(t, []string{
		"--seed", "0",
		"--policy", "abort",
		"--local-sort", "quick",
		"--repeat", "3",
		"--debug",
	}, cfg.forwardedFlags())
}

// freePort returns a port of the loopback interface that was free a
// moment ago.
func freePort(t *testing.T) int {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer lis.Close()
	return lis.Addr().(*net.TCPAddr).Port
}

func TestLaunch(t *testing.T) {
	if testing.Short() {
		t.Skip("starts processes")
	}
	port := freePort(t)
	out, err := runCommand(t, "launch", "--np", "2", "--base-port", strconv.Itoa(port), "10")
	require.NoError(t, err, out)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "[  0] n=        1024, p=   2, sort="))
	assert.Equal(t, "[  0] array is sorted", lines[1])
}

func TestLaunchArguments(t *testing.T) {
	_, err := runCommand(t, "launch", "--np", "3", "4")
	assert.Error(t, err)

	_, err = runCommand(t, "launch", "31")
	assert.Error(t, err)
}

// reversingComm reverses every merge block it receives.
type reversingComm struct {
	comm.Communicator
}

func (c reversingComm) Recv(ctx context.Context, buf []int32, source int, tag comm.Tag) error {
	err := c.Communicator.Recv(ctx, buf, source, tag)
	if tag == comm.TagMerge {
		slices.Reverse(buf)
	}
	return err
}

func TestUnsortedResultIsNotAnError(t *testing.T) {
	cfg := &config{repeat: 1, opts: msort.Options{
		Seed:   msort.DefaultSeed,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}}
	var out bytes.Buffer
	w := comm.NewWorld(2)
	defer w.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := w.Run(ctx, func(ctx context.Context, c comm.Communicator) error {
		return cfg.sortRuns(ctx, &out, reversingComm{c}, 64)
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "[  0] array is not sorted at position ")
}
