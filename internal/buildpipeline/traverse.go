package buildpipeline

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"devchunk/internal/chunk"
	"devchunk/internal/chunking"
	"devchunk/internal/ecmascript"
	"devchunk/internal/memo"
)

// Group is an assembled chunk group.
type Group struct {
	Name   string
	Source ecmascript.ChunkListSource
	Module chunk.Module
	// availability the group was assembled against
	Input  chunk.Availability
	Result chunk.ChunkGroupResult
	key    string
}

type groupTask struct {
	name         string
	source       ecmascript.ChunkListSource
	module       chunk.Module
	availability chunk.Availability
}

func (t groupTask) key() string {
	return t.source.String() + ":" + t.module.Ident().String() + "@" + t.availability.Digest().String()
}

// assemble builds the entry groups, then the lazy groups their chunks load
// on demand, level by level. Each lazy group is assembled against the
// availability of the chunk that imports it; entries use start. Groups
// within a level are independent and run concurrently.
func assemble(ctx context.Context, policy *chunking.Policy, entries []chunk.Module, start chunk.Availability, progress reporter, jobs int) ([]Group, error) {
	cache := memo.NewCache[chunk.ChunkGroupResult](len(entries))
	visited := make(map[string]struct{})

	level := make([]groupTask, 0, len(entries))
	for _, entry := range entries {
		task := groupTask{
			name:         entry.Ident().Relative(policy.ContextPath()),
			source:       ecmascript.SourceEntry,
			module:       entry,
			availability: start,
		}
		if _, seen := visited[task.key()]; seen {
			continue
		}
		visited[task.key()] = struct{}{}
		level = append(level, task)
		progress.group(task.name, StageGroup, StatusQueued, nil, 0)
	}

	var groups []Group
	for len(level) > 0 {
		done := make([]Group, len(level))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(jobs)
		for i, task := range level {
			g.Go(func() error {
				grp, err := runGroup(gctx, policy, cache, task, progress)
				if err != nil {
					return err
				}
				done[i] = grp
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		groups = append(groups, done...)

		var next []groupTask
		for _, grp := range done {
			for _, task := range lazyTasks(policy, grp) {
				if _, seen := visited[task.key()]; seen {
					continue
				}
				visited[task.key()] = struct{}{}
				next = append(next, task)
				progress.group(task.name, StageGroup, StatusQueued, nil, 0)
			}
		}
		level = next
	}
	return groups, nil
}

func runGroup(ctx context.Context, policy *chunking.Policy, cache *memo.Cache[chunk.ChunkGroupResult], task groupTask, progress reporter) (Group, error) {
	start := time.Now()
	progress.group(task.name, StageGroup, StatusWorking, nil, 0)

	key := task.key()
	res, _, err := cache.Do(key, func() (chunk.ChunkGroupResult, error) {
		if task.source == ecmascript.SourceEntry {
			return policy.EvaluatedChunkGroup(ctx, task.module.Ident(), chunk.NewEvaluatableAssets(task.module), task.availability)
		}
		return policy.ChunkGroup(ctx, task.module, task.availability)
	})
	if err != nil {
		err = fmt.Errorf("%s: %w", task.name, err)
		progress.group(task.name, StageGroup, StatusError, err, 0)
		return Group{}, err
	}
	progress.group(task.name, StageGroup, StatusDone, nil, time.Since(start))
	return Group{
		Name:   task.name,
		Source: task.source,
		Module: task.module,
		Input:  task.availability,
		Result: res,
		key:    key,
	}, nil
}

// lazyTasks lists the groups loaded on demand from the script chunks of grp.
func lazyTasks(policy *chunking.Policy, grp Group) []groupTask {
	var tasks []groupTask
	for _, a := range grp.Result.Assets {
		dev, ok := a.Asset.(*ecmascript.DevChunk)
		if !ok {
			continue
		}
		c := dev.Chunk()
		for _, target := range c.AsyncTargets {
			tasks = append(tasks, groupTask{
				name:         target.Ident().Relative(policy.ContextPath()) + " [" + c.Availability.Digest().String()[:8] + "]",
				source:       ecmascript.SourceDynamic,
				module:       target,
				availability: c.Availability,
			})
		}
	}
	return tasks
}
