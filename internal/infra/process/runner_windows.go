//go:build windows

package process

import (
	"context"
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"

	"robobackup/internal/domain"
	appErrors "robobackup/internal/errors"
)

var (
	modshell32          = windows.NewLazySystemDLL("shell32.dll")
	procShellExecuteExW = modshell32.NewProc("ShellExecuteExW")
)

const (
	seeMaskNoCloseProcess = 0x00000040
	seeMaskNoAsync        = 0x00000100
	swHide                = 0
	swShowNormal          = 1

	waitObject0  = 0x00000000
	waitTimeout  = 0x00000102
	pollInterval = 250 // milliseconds
)

// shellExecuteInfo mirrors SHELLEXECUTEINFOW.
type shellExecuteInfo struct {
	cbSize       uint32
	fMask        uint32
	hwnd         windows.HWND
	lpVerb       *uint16
	lpFile       *uint16
	lpParameters *uint16
	lpDirectory  *uint16
	nShow        int32
	hInstApp     windows.Handle
	lpIDList     uintptr
	lpClass      *uint16
	hkeyClass    windows.Handle
	dwHotKey     uint32
	hIcon        windows.Handle
	hProcess     windows.Handle
}

func (r *Runner) Run(ctx context.Context, launch domain.Launch) (domain.Completion, error) {
	notWaited := domain.Completion{ExitCode: -1}

	select {
	case <-ctx.Done():
		return notWaited, ctx.Err()
	default:
	}

	verb := "open"
	if launch.Elevate {
		verb = "runas"
	}
	verbPtr, err := windows.UTF16PtrFromString(verb)
	if err != nil {
		return notWaited, appErrors.Wrap(appErrors.StartFailed, "launch", launch.Executable, err)
	}
	filePtr, err := windows.UTF16PtrFromString(launch.Executable)
	if err != nil {
		return notWaited, appErrors.Wrap(appErrors.StartFailed, "launch", launch.Executable, err)
	}
	paramsPtr, err := windows.UTF16PtrFromString(launch.ArgumentLine)
	if err != nil {
		return notWaited, appErrors.Wrap(appErrors.StartFailed, "launch", launch.Executable, err)
	}

	info := shellExecuteInfo{
		fMask:        seeMaskNoCloseProcess | seeMaskNoAsync,
		lpVerb:       verbPtr,
		lpFile:       filePtr,
		lpParameters: paramsPtr,
		nShow:        swHide,
	}
	if launch.Visible {
		info.nShow = swShowNormal
	}
	info.cbSize = uint32(unsafe.Sizeof(info))

	r.Logger.Verbosef("ShellExecuteEx %s %s (verb=%s)", launch.Executable, launch.ArgumentLine, verb)
	ret, _, callErr := procShellExecuteExW.Call(uintptr(unsafe.Pointer(&info)))
	if ret == 0 {
		if errors.Is(callErr, windows.ERROR_CANCELLED) {
			return notWaited, appErrors.Wrap(appErrors.ElevationDenied, "launch", launch.Executable, callErr)
		}
		return notWaited, appErrors.Wrap(appErrors.StartFailed, "launch", launch.Executable, callErr)
	}

	if !launch.WaitForExit {
		if info.hProcess != 0 {
			windows.CloseHandle(info.hProcess)
		}
		return notWaited, nil
	}
	if info.hProcess == 0 {
		return notWaited, appErrors.Wrap(appErrors.InvalidHandle, "wait", launch.Executable, errors.New("no process handle was returned"))
	}
	defer windows.CloseHandle(info.hProcess)

	return r.wait(ctx, info.hProcess, launch)
}

// wait polls so a cancelled context can terminate the child instead of
// blocking forever.
func (r *Runner) wait(ctx context.Context, h windows.Handle, launch domain.Launch) (domain.Completion, error) {
	for {
		event, err := windows.WaitForSingleObject(h, pollInterval)
		if err != nil {
			return domain.Completion{ExitCode: -1}, appErrors.Wrap(appErrors.InvalidHandle, "wait", launch.Executable, err)
		}
		switch event {
		case waitObject0:
			var code uint32
			if err := windows.GetExitCodeProcess(h, &code); err != nil {
				return domain.Completion{ExitCode: -1}, appErrors.Wrap(appErrors.InvalidHandle, "wait", launch.Executable, err)
			}
			return domain.Completion{ExitCode: int(code), Waited: true}, nil
		case waitTimeout:
			select {
			case <-ctx.Done():
				if err := windows.TerminateProcess(h, 1); err != nil {
					r.Logger.Warnf("Terminating %s failed: %v", launch.Executable, err)
				}
				return domain.Completion{ExitCode: -1}, ctx.Err()
			default:
			}
		default:
			return domain.Completion{ExitCode: -1}, appErrors.Wrap(appErrors.InvalidHandle, "wait", launch.Executable, fmt.Errorf("unexpected wait result %#x", event))
		}
	}
}
