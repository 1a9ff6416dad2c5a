package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"devchunk/internal/trace"
)

// tracing is the sink installed on a command's context.
type tracing struct {
	sink      trace.Sink
	stopPulse func()
	errOut    io.Writer
}

// finish stops the pulse and closes the sink. When failed is set, records
// kept in memory are dumped to stderr first.
func (t *tracing) finish(failed bool) {
	if t == nil {
		return
	}
	t.stopPulse()
	if failed {
		var ring *trace.Ring
		switch s := t.sink.(type) {
		case *trace.Ring:
			ring = s
		case *trace.Tee:
			ring = s.Ring()
		}
		if ring != nil {
			fmt.Fprintln(t.errOut, "trace: last records before failure")
			_ = ring.Dump(t.errOut)
		}
	}
	if err := t.sink.Close(); err != nil {
		fmt.Fprintf(t.errOut, "trace: %v\n", err)
	}
}

// setupTracing reads the --trace flags and attaches a sink to cmd's
// context. It returns nil when tracing is off.
func setupTracing(cmd *cobra.Command) (*tracing, error) {
	flags := cmd.Root().PersistentFlags()
	output, _ := flags.GetString("trace")
	levelFlag, _ := flags.GetString("trace-level")
	modeFlag, _ := flags.GetString("trace-mode")
	formatFlag, _ := flags.GetString("trace-format")
	ringSize, _ := flags.GetInt("trace-ring-size")
	pulse, _ := flags.GetDuration("trace-pulse")

	level, err := trace.ParseLevel(levelFlag)
	if err != nil {
		return nil, err
	}
	// an output without a level traces phases
	if level == trace.LevelOff && output != "" {
		level = trace.LevelPhase
	}
	if level == trace.LevelOff {
		return nil, nil
	}
	mode, err := trace.ParseMode(modeFlag)
	if err != nil {
		return nil, err
	}
	format, err := trace.ParseFormat(formatFlag)
	if err != nil {
		return nil, err
	}

	sink, err := trace.Open(trace.Options{
		Level:    level,
		Mode:     mode,
		Format:   format,
		Path:     output,
		RingSize: ringSize,
	})
	if err != nil {
		return nil, err
	}
	cmd.SetContext(trace.WithSink(cmd.Context(), sink))
	return &tracing{
		sink:      sink,
		stopPulse: trace.StartPulse(sink, pulse),
		errOut:    cmd.ErrOrStderr(),
	}, nil
}
