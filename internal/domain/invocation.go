package domain

type Mode int

const (
	ModeImmediate Mode = iota
	ModeDeferred
	ModeUnregister
)

func (m Mode) String() string {
	switch m {
	case ModeImmediate:
		return "immediate"
	case ModeDeferred:
		return "deferred"
	case ModeUnregister:
		return "unregister"
	default:
		return "unknown"
	}
}

// Launch is what the process runner is asked to start.
type Launch struct {
	Executable   string
	ArgumentLine string
	Elevate      bool
	WaitForExit  bool
	Visible      bool
}

func (l Launch) String() string {
	if l.ArgumentLine == "" {
		return l.Executable
	}
	return l.Executable + " " + l.ArgumentLine
}

// Invocation is a fully planned run: what to launch and why.
type Invocation struct {
	Mode     Mode
	Request  CopyRequest
	Mirror   MirrorCommand
	Schedule *ScheduleEntry
	TaskName string
	Launch   Launch
}

type Status int

const (
	StatusSuccess Status = iota
	StatusFailure
)

// Outcome is the single user-visible result of an invocation.
type Outcome struct {
	Mode     Mode
	Status   Status
	Title    string
	Message  string
	Command  string
	ExitCode int
	LogPath  string
	Err      error
}

func (o Outcome) Succeeded() bool {
	return o.Status == StatusSuccess
}

// Completion reports how a launched process ended. ExitCode is -1 when the
// runner did not wait.
type Completion struct {
	ExitCode int
	Waited   bool
}
