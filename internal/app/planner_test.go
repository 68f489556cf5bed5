package app

import (
	"strings"
	"testing"
	"time"

	"robobackup/internal/domain"
	appErrors "robobackup/internal/errors"
)

func TestPlannerRejectsEmptySource(t *testing.T) {
	planner := Planner{}
	_, err := planner.PlanImmediate(domain.CopyRequest{Source: "", Destination: `D:\Backup`}, scenarioTime)
	if !appErrors.Is(err, appErrors.Validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPlannerRejectsQuotedPath(t *testing.T) {
	planner := Planner{}
	_, err := planner.PlanImmediate(domain.CopyRequest{Source: `C:\a"b`, Destination: `D:\Backup`}, scenarioTime)
	if !appErrors.Is(err, appErrors.Validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPlannerChecksDirectoriesWhenFSSet(t *testing.T) {
	planner := Planner{FS: mockFS{
		dirs:  map[string]bool{"/src": true},
		files: map[string]bool{"/file": true},
	}}

	if _, err := planner.PlanImmediate(domain.CopyRequest{Source: "/src", Destination: "/missing"}, scenarioTime); !appErrors.Is(err, appErrors.Validation) {
		t.Fatalf("expected validation error for missing target, got %v", err)
	}
	if _, err := planner.PlanImmediate(domain.CopyRequest{Source: "/src", Destination: "/file"}, scenarioTime); !appErrors.Is(err, appErrors.Validation) {
		t.Fatalf("expected validation error for file target, got %v", err)
	}
}

func TestPlanImmediateLaunchesThroughShell(t *testing.T) {
	planner := Planner{}
	inv, err := planner.PlanImmediate(domain.CopyRequest{Source: `C:\Data`, Destination: `D:\Backup`}, scenarioTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inv.Mode != domain.ModeImmediate {
		t.Fatalf("unexpected mode %v", inv.Mode)
	}
	l := inv.Launch
	if l.Executable != "cmd.exe" || !l.Elevate || !l.WaitForExit || !l.Visible {
		t.Fatalf("unexpected launch %+v", l)
	}
	if !strings.HasPrefix(l.ArgumentLine, `/c robocopy "C:\Data" "D:\Backup" /XO`) {
		t.Fatalf("unexpected argument line %q", l.ArgumentLine)
	}
}

func TestPlanDeferredRequiresFutureTrigger(t *testing.T) {
	planner := Planner{}
	req := domain.CopyRequest{Source: "a", Destination: "b"}

	if _, err := planner.PlanDeferred(req, scenarioTime, scenarioTime); !appErrors.Is(err, appErrors.Validation) {
		t.Fatalf("expected validation error for present trigger, got %v", err)
	}
	if _, err := planner.PlanDeferred(req, time.Time{}, scenarioTime); !appErrors.Is(err, appErrors.Validation) {
		t.Fatalf("expected validation error for zero trigger, got %v", err)
	}
}

func TestPlanDeferredLaunchesScheduler(t *testing.T) {
	planner := Planner{Builder: CommandBuilder{LogPrefix: "MIRROR"}}
	at := scenarioTime.Add(2 * time.Hour)
	inv, err := planner.PlanDeferred(domain.CopyRequest{Source: "a", Destination: "b"}, at, scenarioTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inv.Schedule == nil || inv.TaskName != "RobocopyBackup_20240105_113015" {
		t.Fatalf("unexpected schedule %+v", inv.Schedule)
	}
	if inv.Launch.Executable != "schtasks.exe" || inv.Launch.Visible || !inv.Launch.Elevate {
		t.Fatalf("unexpected launch %+v", inv.Launch)
	}
	if inv.Launch.ArgumentLine != inv.Schedule.CommandLine {
		t.Fatalf("launch does not carry schedule command line")
	}
	if inv.Mirror.LogFileName != "MIRROR20240105_113015.log" {
		t.Fatalf("planner builder not used by registrar: %q", inv.Mirror.LogFileName)
	}
}

func TestPlanUnregister(t *testing.T) {
	planner := Planner{}
	if _, err := planner.PlanUnregister("  "); !appErrors.Is(err, appErrors.Validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	inv, err := planner.PlanUnregister("RobocopyBackup_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inv.Launch.ArgumentLine != `/Delete /TN "RobocopyBackup_1" /F` {
		t.Fatalf("unexpected argument line %q", inv.Launch.ArgumentLine)
	}
}

func TestPlanDeferredDriveRootTarget(t *testing.T) {
	planner := Planner{}
	at := scenarioTime.Add(time.Hour)
	inv, err := planner.PlanDeferred(domain.CopyRequest{Source: `C:\Data\`, Destination: `E:\`}, at, scenarioTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inv.Request.Source != `C:\Data` || inv.Request.Destination != `E:\.` {
		t.Fatalf("unexpected normalized request %+v", inv.Request)
	}
	if !strings.HasPrefix(inv.Mirror.CommandLine(), `robocopy "C:\Data" "E:\." /XO`) {
		t.Fatalf("unexpected mirror command %q", inv.Mirror.CommandLine())
	}

	args := splitWindowsArgs(inv.Launch.ArgumentLine)
	if len(args) != 12 || args[6] != inv.Mirror.CommandLine() {
		t.Fatalf("scheduler line does not split cleanly: %q", args)
	}
}

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		`E:\`:            `E:\.`,
		`e:/`:            `e:\.`,
		`D:\Backup\`:     `D:\Backup`,
		`D:\Backup`:      `D:\Backup`,
		`\\nas\share\`:   `\\nas\share`,
		`\`:              `\.`,
		"/":              "/",
		"/srv/data/":     "/srv/data",
		"  C:\\Data\\  ": `C:\Data`,
		"":               "",
	}
	for in, want := range cases {
		if got := normalizePath(in); got != want {
			t.Fatalf("normalizePath(%q) = %q, want %q", in, got, want)
		}
	}
}
