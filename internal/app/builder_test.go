package app

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"robobackup/internal/domain"
)

var scenarioTime = time.Date(2024, 1, 5, 9, 30, 15, 0, time.UTC)

func TestBuildMatchesReferenceCommand(t *testing.T) {
	cmd := CommandBuilder{}.Build(`C:\Data`, `D:\Backup`, domain.TimestampOf(scenarioTime))

	want := `"C:\Data" "D:\Backup" /XO /COPY:DAT /PURGE /V /E /NJH /NJS /TEE /LOG+:%TEMP%\ROBOCOPY20240105_093015.log`
	if got := cmd.ArgumentLine(); got != want {
		t.Fatalf("argument line mismatch\n got: %s\nwant: %s", got, want)
	}
	if cmd.Executable != "robocopy" {
		t.Fatalf("expected robocopy, got %q", cmd.Executable)
	}
	if cmd.LogFileName != "ROBOCOPY20240105_093015.log" {
		t.Fatalf("unexpected log name %q", cmd.LogFileName)
	}
}

func TestBuildFlagOrder(t *testing.T) {
	pairs := [][2]string{
		{`C:\Data`, `D:\Backup`},
		{`C:\Program Files\App`, `\\nas\share\backup dir`},
		{"/home/me", "/mnt/backup"},
		{"x", "y"},
	}
	for _, pair := range pairs {
		cmd := CommandBuilder{}.Build(pair[0], pair[1], domain.TimestampOf(scenarioTime))
		if len(cmd.Arguments) != 11 {
			t.Fatalf("expected 11 arguments, got %d", len(cmd.Arguments))
		}
		if cmd.Arguments[0] != `"`+pair[0]+`"` || cmd.Arguments[1] != `"`+pair[1]+`"` {
			t.Fatalf("paths not individually quoted: %v", cmd.Arguments[:2])
		}
		flags := cmd.Arguments[2:10]
		if strings.Join(flags, " ") != "/XO /COPY:DAT /PURGE /V /E /NJH /NJS /TEE" {
			t.Fatalf("unexpected flags %v", flags)
		}
		if !strings.HasPrefix(cmd.Arguments[10], `/LOG+:%TEMP%\ROBOCOPY`) {
			t.Fatalf("unexpected log argument %q", cmd.Arguments[10])
		}
	}
}

func TestBuildIsPure(t *testing.T) {
	ts := domain.TimestampOf(scenarioTime)
	a := CommandBuilder{}.Build(`C:\A`, `D:\B`, ts)
	b := CommandBuilder{}.Build(`C:\A`, `D:\B`, ts)
	if a.CommandLine() != b.CommandLine() || a.LogFileName != b.LogFileName {
		t.Fatalf("expected identical output, got %q and %q", a.CommandLine(), b.CommandLine())
	}
}

func TestBuildDoesNotEscapeQuotes(t *testing.T) {
	cmd := CommandBuilder{}.Build(`C:\a"b`, `D:\c`, domain.TimestampOf(scenarioTime))
	if cmd.Arguments[0] != `"C:\a"b"` {
		t.Fatalf("expected verbatim quoting, got %q", cmd.Arguments[0])
	}
}

func TestLogFileNameFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^ROBOCOPY\d{8}_\d{6}\.log$`)
	start := time.Date(2000, 2, 28, 23, 59, 58, 0, time.UTC)
	for i := 0; i < 200; i++ {
		ts := domain.TimestampOf(start.Add(time.Duration(i) * 7919 * time.Second))
		if name := (CommandBuilder{}).LogFileName(ts); !pattern.MatchString(name) {
			t.Fatalf("log name %q does not match fixed width format", name)
		}
	}
}

func TestBuildHonoursOverrides(t *testing.T) {
	cmd := CommandBuilder{Executable: "robocopy.exe", LogPrefix: "MIRROR"}.Build("a", "b", domain.TimestampOf(scenarioTime))
	if cmd.Executable != "robocopy.exe" || cmd.LogFileName != "MIRROR20240105_093015.log" {
		t.Fatalf("overrides ignored: %+v", cmd)
	}
}
