package main

import (
	"fmt"
	"io"
	"time"

	"devchunk/internal/buildpipeline"
)

func printStageTimings(out io.Writer, timings buildpipeline.Timings) {
	if out == nil {
		return
	}
	for _, st := range []struct {
		stage buildpipeline.Stage
		label string
	}{
		{buildpipeline.StageLoad, "loaded"},
		{buildpipeline.StageGroup, "grouped"},
		{buildpipeline.StageWrite, "wrote"},
	} {
		if timings.Has(st.stage) {
			fmt.Fprintf(out, "%s %.1f ms\n", st.label, toMillis(timings.Duration(st.stage)))
		}
	}
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
