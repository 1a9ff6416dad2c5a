package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"devchunk/internal/buildpipeline"
	"devchunk/internal/ui"
)

// useProgressUI decides from the --ui flag whether to draw the progress
// view; "auto" draws it on a terminal only.
func useProgressUI(flag string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(flag)) {
	case "", "auto":
		return isTerminal(os.Stdout), nil
	case "on":
		return true, nil
	case "off":
		return false, nil
	}
	return false, fmt.Errorf("invalid --ui value %q (expected auto|on|off)", flag)
}

// runBuildWithUI runs the build in the background and renders its progress
// events until it finishes.
func runBuildWithUI(ctx context.Context, title string, req *buildpipeline.BuildRequest) (buildpipeline.BuildResult, error) {
	events := make(chan buildpipeline.Event, 256)
	done := make(chan struct{})
	var (
		res      buildpipeline.BuildResult
		buildErr error
	)
	withUI := *req
	withUI.Progress = buildpipeline.ChannelSink{Ch: events}
	go func() {
		defer close(done)
		defer close(events)
		res, buildErr = buildpipeline.Build(ctx, &withUI)
	}()

	_, uiErr := tea.NewProgram(ui.NewProgressModel(title, events), tea.WithOutput(os.Stdout)).Run()
	// the view may quit early; keep the build from blocking on events
	for range events {
	}
	<-done
	if buildErr != nil {
		return res, buildErr
	}
	return res, uiErr
}
