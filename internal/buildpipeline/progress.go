package buildpipeline

import "time"

// Stage is a step of Build.
type Stage uint8

const (
	// StageLoad reads the module graph.
	StageLoad Stage = iota
	// StageGroup assembles and resolves chunk groups.
	StageGroup
	// StageWrite writes artifacts to disk.
	StageWrite
	stageCount
)

func (s Stage) String() string {
	switch s {
	case StageLoad:
		return "load"
	case StageGroup:
		return "group"
	case StageWrite:
		return "write"
	default:
		return "unknown"
	}
}

// Status is the state of a group or of the whole build within a stage.
type Status uint8

const (
	StatusQueued Status = iota
	StatusWorking
	StatusDone
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusQueued:
		return "queued"
	case StatusWorking:
		return "working"
	case StatusDone:
		return "done"
	default:
		return "error"
	}
}

// Event reports progress of one chunk group, or of the build when Group is
// empty.
type Event struct {
	Group   string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events. OnEvent is called from the
// goroutines assembling groups.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch != nil {
		s.Ch <- evt
	}
}

// reporter sends events to an optional sink.
type reporter struct {
	sink ProgressSink
}

func (r reporter) group(name string, stage Stage, status Status, err error, elapsed time.Duration) {
	if r.sink != nil {
		r.sink.OnEvent(Event{Group: name, Stage: stage, Status: status, Err: err, Elapsed: elapsed})
	}
}

// stage reports the build itself, then each named group.
func (r reporter) stage(groups []string, stage Stage, status Status, err error, elapsed time.Duration) {
	r.group("", stage, status, err, elapsed)
	for _, g := range groups {
		r.group(g, stage, status, err, elapsed)
	}
}

// Timings holds the wall time of each stage that ran.
type Timings struct {
	took [stageCount]time.Duration
	ran  [stageCount]bool
}

func (t *Timings) Set(stage Stage, d time.Duration) {
	if stage < stageCount {
		t.took[stage], t.ran[stage] = d, true
	}
}

// Has reports whether stage ran.
func (t Timings) Has(stage Stage) bool { return stage < stageCount && t.ran[stage] }

func (t Timings) Duration(stage Stage) time.Duration {
	if stage >= stageCount {
		return 0
	}
	return t.took[stage]
}
