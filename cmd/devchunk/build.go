package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"devchunk/internal/buildpipeline"
	"devchunk/internal/memo"
)

var buildCmd = &cobra.Command{
	Use:   "build [entries...]",
	Short: "Assemble the chunk groups of the entries and write them",
	Long: `Build assembles an evaluated chunk group for every entry, then the lazy
group of every module those groups import on demand, and writes all
artifacts below the output root. Entries default to [graph].entries.`,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
	buildCmd.Flags().Int("jobs", 0, "max groups assembled in parallel (0 = GOMAXPROCS)")
	buildCmd.Flags().Bool("no-cache", false, "ignore the build cache and rewrite every artifact")
	buildCmd.Flags().String("cache-dir", "", "build cache directory (default: <project>/.devchunk/cache)")
	buildCmd.Flags().Bool("user-cache", false, "keep the build cache in the user cache directory")
	buildCmd.Flags().Bool("clean", false, "drop the build cache before building")
	buildCmd.Flags().Bool("self-contained", false, "emit every module a group needs into that group, even if another group already has it")
}

func runBuild(cmd *cobra.Command, args []string) (err error) {
	manifest, err := loadManifestFor(cmd)
	if err != nil {
		return err
	}
	tr, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer func() { tr.finish(err != nil) }()
	stopProfiling, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer stopProfiling()

	builder, err := manifest.policyBuilder()
	if err != nil {
		return err
	}
	graphPath, err := manifest.graphPath()
	if err != nil {
		return err
	}
	entries := args
	if len(entries) == 0 {
		entries = manifest.Config.Graph.Entries
	}
	if len(entries) == 0 {
		return fmt.Errorf("%s: no entries given and [graph].entries is empty", manifest.Path)
	}

	cache, err := openBuildCache(cmd, manifest)
	if err != nil {
		return err
	}

	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	withUI, err := useProgressUI(uiValue)
	if err != nil {
		return err
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	selfContained, err := cmd.Flags().GetBool("self-contained")
	if err != nil {
		return fmt.Errorf("failed to get self-contained flag: %w", err)
	}
	quiet, _ := cmd.Root().PersistentFlags().GetBool("quiet")
	showTimings, _ := cmd.Root().PersistentFlags().GetBool("timings")

	req := &buildpipeline.BuildRequest{
		Policy:    builder,
		GraphPath: graphPath,
		Entries:   entries,
		Cache:     cache,
		Jobs:      jobs,

		SelfContained: selfContained,
	}

	var res buildpipeline.BuildResult
	if !quiet && withUI {
		res, err = runBuildWithUI(cmd.Context(), "devchunk build", req)
	} else {
		res, err = buildpipeline.Build(cmd.Context(), req)
	}
	if err != nil {
		return err
	}

	if !quiet {
		printBuildSummary(cmd.OutOrStdout(), res, terminalWidth())
	}
	if showTimings {
		printStageTimings(cmd.OutOrStdout(), res.Timings)
	}
	return nil
}

func openBuildCache(cmd *cobra.Command, manifest *projectManifest) (*memo.DiskCache, error) {
	noCache, _ := cmd.Flags().GetBool("no-cache")
	if noCache {
		return nil, nil
	}
	userCache, _ := cmd.Flags().GetBool("user-cache")
	dir, _ := cmd.Flags().GetString("cache-dir")

	var (
		cache *memo.DiskCache
		err   error
	)
	switch {
	case dir != "":
		cache, err = memo.OpenDiskCache(dir)
	case userCache:
		cache, err = memo.OpenUserCache("devchunk")
	default:
		cache, err = memo.OpenDiskCache(filepath.Join(manifest.Root, ".devchunk", "cache"))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open build cache: %w", err)
	}

	if clean, _ := cmd.Flags().GetBool("clean"); clean {
		if err := cache.DropAll(); err != nil {
			return nil, fmt.Errorf("failed to clean build cache %s: %w", cache.Dir(), err)
		}
	}
	return cache, nil
}

func terminalWidth() int {
	if !isTerminal(os.Stdout) {
		return 120
	}
	return stdoutWidth()
}
