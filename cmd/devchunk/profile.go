package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"devchunk/internal/prof"
)

func init() {
	buildCmd.Flags().String("cpu-profile", "", "write a CPU profile to file")
	buildCmd.Flags().String("mem-profile", "", "write a heap profile to file after the build")
	buildCmd.Flags().String("runtime-trace", "", "write a Go runtime trace to file")
}

// setupProfiling starts the profilers requested on cmd. The returned cleanup
// is safe to call more than once.
func setupProfiling(cmd *cobra.Command) (func(), error) {
	var opts prof.Options
	for _, f := range []struct {
		name string
		dst  *string
	}{
		{"cpu-profile", &opts.CPU},
		{"mem-profile", &opts.Heap},
		{"runtime-trace", &opts.Trace},
	} {
		v, err := cmd.Flags().GetString(f.name)
		if err != nil {
			return nil, fmt.Errorf("failed to get %s flag: %w", f.name, err)
		}
		*f.dst = v
	}
	if !opts.Enabled() {
		return func() {}, nil
	}
	session, err := prof.Start(opts)
	if err != nil {
		return nil, err
	}
	return func() {
		if err := session.Stop(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write profiles: %v\n", err)
		}
	}, nil
}
