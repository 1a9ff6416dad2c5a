// Package buildpipeline drives a development build: it loads the module
// graph, assembles the entry groups and every lazy group reachable from
// them, and writes the resulting artifacts.
package buildpipeline

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"devchunk/internal/chunk"
	"devchunk/internal/chunking"
	"devchunk/internal/graphfile"
	"devchunk/internal/grouping"
	"devchunk/internal/ident"
	"devchunk/internal/memo"
	"devchunk/internal/trace"
)

// BuildRequest configures a build.
type BuildRequest struct {
	// Policy is completed with the grouping algorithm of the loaded graph.
	Policy    *chunking.Builder
	GraphPath string
	Entries   []string
	Cache     *memo.DiskCache
	Progress  ProgressSink
	Jobs      int

	// SelfContained assembles every group against untracked availability,
	// so no group relies on modules emitted by another.
	SelfContained bool
}

// Artifact is one file of the build output.
type Artifact struct {
	Path   ident.Path
	Hash   string
	Size   int
	Kind   string
	URL    string
	Reused bool
}

// BuildResult captures build artefacts and timings.
type BuildResult struct {
	Policy    *chunking.Policy
	Groups    []Group
	Artifacts []Artifact
	Written   int
	Reused    int
	// modules on an import cycle; informational
	Cycles  []string
	Timings Timings
}

// Build runs the pipeline.
func Build(ctx context.Context, req *BuildRequest) (result BuildResult, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if req == nil {
		return result, fmt.Errorf("missing build request")
	}
	if req.Policy == nil {
		return result, fmt.Errorf("missing chunking policy")
	}
	if len(req.Entries) == 0 {
		return result, fmt.Errorf("no entries to build")
	}
	jobs := req.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	progress := reporter{sink: req.Progress}
	ctx, span := trace.Start(ctx, trace.ScopeDriver, "build")
	defer func() { span.Fail(err) }()

	loadStart := time.Now()
	progress.stage(nil, StageLoad, StatusWorking, nil, 0)
	file, err := graphfile.Load(req.GraphPath)
	if err != nil {
		progress.stage(nil, StageLoad, StatusError, err, 0)
		return result, err
	}
	entries, err := file.Entries(req.Entries)
	if err != nil {
		err = fmt.Errorf("%s: %w", file.Path, err)
		progress.stage(nil, StageLoad, StatusError, err, 0)
		return result, err
	}
	policy := req.Policy.Grouper(grouping.NewGrouper(file.Graph)).Build()
	result.Policy = policy
	if topo := grouping.ToposortKahn(file.Graph); topo.Cyclic {
		result.Cycles = file.Graph.Index.Names(topo.Cycles)
	}
	result.Timings.Set(StageLoad, time.Since(loadStart))
	progress.stage(nil, StageLoad, StatusDone, nil, result.Timings.Duration(StageLoad))
	span.Set("modules", strconv.Itoa(file.Graph.Len()))

	groupStart := time.Now()
	start := chunk.Root()
	if req.SelfContained {
		start = chunk.Untracked()
	}
	groups, err := assemble(ctx, policy, entries, start, progress, jobs)
	if err != nil {
		return result, err
	}
	result.Groups = groups
	result.Timings.Set(StageGroup, time.Since(groupStart))

	writeStart := time.Now()
	names := groupNames(groups)
	progress.stage(names, StageWrite, StatusWorking, nil, 0)
	artifacts, err := collect(policy, groups)
	if err != nil {
		progress.stage(names, StageWrite, StatusError, err, 0)
		return result, err
	}
	stats, err := write(ctx, req.Cache, policy.Digest(), groups, artifacts, jobs)
	if err != nil {
		progress.stage(names, StageWrite, StatusError, err, 0)
		return result, err
	}
	result.Artifacts = artifacts
	result.Written = stats.written
	result.Reused = stats.reused
	result.Timings.Set(StageWrite, time.Since(writeStart))
	progress.stage(names, StageWrite, StatusDone, nil, result.Timings.Duration(StageWrite))

	span.Set("written", strconv.Itoa(result.Written)).Set("reused", strconv.Itoa(result.Reused))
	return result, nil
}

func groupNames(groups []Group) []string {
	out := make([]string, len(groups))
	for i, g := range groups {
		out[i] = g.Name
	}
	return out
}
