//go:build windows

package platform

import (
	"errors"
	"fmt"
	"image"
	"runtime"
	"sync"
	"syscall"
	"unsafe"

	"github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"
	"golang.org/x/sys/windows"

	apperrors "sidedock/internal/infrastructure/errors"
	"sidedock/internal/types"
)

var (
	user32   = windows.NewLazySystemDLL("user32.dll")
	shell32  = windows.NewLazySystemDLL("shell32.dll")
	gdi32    = windows.NewLazySystemDLL("gdi32.dll")
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procExtractIconExW          = shell32.NewProc("ExtractIconExW")
	procDestroyIcon             = user32.NewProc("DestroyIcon")
	procGetIconInfo             = user32.NewProc("GetIconInfo")
	procGetDIBits               = gdi32.NewProc("GetDIBits")
	procCreateCompatibleDC      = gdi32.NewProc("CreateCompatibleDC")
	procDeleteDC                = gdi32.NewProc("DeleteDC")
	procDeleteObject            = gdi32.NewProc("DeleteObject")
	procFindWindowW             = user32.NewProc("FindWindowW")
	procGetWindowLongPtrW       = user32.NewProc("GetWindowLongPtrW")
	procSetWindowLongPtrW       = user32.NewProc("SetWindowLongPtrW")
	procSetLayeredWindowAttribs = user32.NewProc("SetLayeredWindowAttributes")
	procGetCursorPos            = user32.NewProc("GetCursorPos")
	procScreenToClient          = user32.NewProc("ScreenToClient")
	procGetDpiForWindow         = user32.NewProc("GetDpiForWindow")
	procRegisterHotKey          = user32.NewProc("RegisterHotKey")
	procUnregisterHotKey        = user32.NewProc("UnregisterHotKey")
	procGetMessageW             = user32.NewProc("GetMessageW")
	procPostThreadMessageW      = user32.NewProc("PostThreadMessageW")
	procCreatePopupMenu         = user32.NewProc("CreatePopupMenu")
	procAppendMenuW             = user32.NewProc("AppendMenuW")
	procTrackPopupMenu          = user32.NewProc("TrackPopupMenu")
	procDestroyMenu             = user32.NewProc("DestroyMenu")
	procSetForegroundWindow     = user32.NewProc("SetForegroundWindow")
	procPostMessageW            = user32.NewProc("PostMessageW")
	procGetCurrentThreadId      = kernel32.NewProc("GetCurrentThreadId")
)

const (
	wsExTransparent = 0x00000020
	wsExLayered     = 0x00080000
	lwaAlpha        = 0x2

	wmNull   = 0x0000
	wmQuit   = 0x0012
	wmHotkey = 0x0312

	mfString     = 0x0000
	mfSeparator  = 0x0800
	tpmRightBtn  = 0x0002
	tpmNoNotify  = 0x0080
	tpmReturnCmd = 0x0100

	// S_FALSE from CoInitializeEx means COM was already initialized on this thread
	sFalse = 0x1
)

// GWL_EXSTYLE is negative; a typed variable lets the conversion sign-extend
var gwlExStyle int32 = -20

type iconInfo struct {
	fIcon    uint32
	xHotspot uint32
	yHotspot uint32
	hbmMask  syscall.Handle
	hbmColor syscall.Handle
}

type bitmapInfoHeader struct {
	biSize          uint32
	biWidth         int32
	biHeight        int32
	biPlanes        uint16
	biBitCount      uint16
	biCompression   uint32
	biSizeImage     uint32
	biXPelsPerMeter int32
	biYPelsPerMeter int32
	biClrUsed       uint32
	biClrImportant  uint32
}

type point struct {
	X, Y int32
}

type msg struct {
	hwnd    uintptr
	message uint32
	wParam  uintptr
	lParam  uintptr
	time    uint32
	pt      point
}

// WindowsShell implements Shell with shell32 and the WScript.Shell COM object
type WindowsShell struct{}

// NewShell returns the shell primitives for this platform
func NewShell() Shell {
	return &WindowsShell{}
}

// ShortcutRoots returns the All Users and current user Start Menu\Programs folders
func (s *WindowsShell) ShortcutRoots() (string, string, error) {
	machine, err := windows.KnownFolderPath(windows.FOLDERID_CommonPrograms, 0)
	if err != nil {
		return "", "", apperrors.Wrap("platform.ShortcutRoots", err)
	}
	user, err := windows.KnownFolderPath(windows.FOLDERID_Programs, 0)
	if err != nil {
		return "", "", apperrors.Wrap("platform.ShortcutRoots", err)
	}
	return machine, user, nil
}

// ResolveShortcut reads TargetPath through WScript.Shell.CreateShortcut.
// COM calls are made on a locked OS thread with its own apartment.
func (s *WindowsShell) ResolveShortcut(path string) (string, error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := ole.CoInitializeEx(0, ole.COINIT_APARTMENTTHREADED); err != nil {
		var oleErr *ole.OleError
		if !errors.As(err, &oleErr) || oleErr.Code() != sFalse {
			return "", apperrors.WrapWithContext("platform.ResolveShortcut", err, map[string]string{"path": path})
		}
	}
	defer ole.CoUninitialize()

	unknown, err := oleutil.CreateObject("WScript.Shell")
	if err != nil {
		return "", apperrors.WrapWithContext("platform.ResolveShortcut", err, map[string]string{"path": path})
	}
	defer unknown.Release()

	wshell, err := unknown.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		return "", apperrors.WrapWithContext("platform.ResolveShortcut", err, map[string]string{"path": path})
	}
	defer wshell.Release()

	shortcut, err := oleutil.CallMethod(wshell, "CreateShortcut", path)
	if err != nil {
		return "", apperrors.WrapWithContext("platform.ResolveShortcut", err, map[string]string{"path": path})
	}
	link := shortcut.ToIDispatch()
	defer link.Release()

	target, err := oleutil.GetProperty(link, "TargetPath")
	if err != nil {
		return "", apperrors.WrapWithContext("platform.ResolveShortcut", err, map[string]string{"path": path})
	}
	defer target.Clear()

	return target.ToString(), nil
}

// ExtractIcon extracts the first large icon of path and encodes it as a PNG data URL
func (s *WindowsShell) ExtractIcon(path string) (string, error) {
	const op = "platform.ExtractIcon"
	ctx := map[string]string{"path": path}

	pathPtr, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return "", apperrors.NewWithContext(op, err, apperrors.ErrCodeValidation, ctx)
	}

	var hIcon uintptr
	ret, _, _ := procExtractIconExW.Call(
		uintptr(unsafe.Pointer(pathPtr)),
		0,
		uintptr(unsafe.Pointer(&hIcon)),
		0,
		1,
	)
	if ret == 0 || hIcon == 0 {
		return "", apperrors.NewWithContext(op, errors.New("no icon in file"), apperrors.ErrCodeNotFound, ctx)
	}
	defer procDestroyIcon.Call(hIcon)

	var info iconInfo
	if ret, _, callErr := procGetIconInfo.Call(hIcon, uintptr(unsafe.Pointer(&info))); ret == 0 {
		return "", apperrors.NewWithContext(op, callErr, apperrors.ErrCodeInternal, ctx)
	}
	defer procDeleteObject.Call(uintptr(info.hbmColor))
	defer procDeleteObject.Call(uintptr(info.hbmMask))

	img, err := readBitmap(info.hbmColor)
	if err != nil {
		return "", apperrors.NewWithContext(op, err, apperrors.ErrCodeInternal, ctx)
	}

	url, err := pngDataURL(img)
	if err != nil {
		return "", apperrors.NewWithContext(op, err, apperrors.ErrCodeInternal, ctx)
	}
	return url, nil
}

func readBitmap(hBitmap syscall.Handle) (*image.RGBA, error) {
	if hBitmap == 0 {
		return nil, errors.New("icon has no color bitmap")
	}

	hdc, _, _ := procCreateCompatibleDC.Call(0)
	if hdc == 0 {
		return nil, errors.New("CreateCompatibleDC failed")
	}
	defer procDeleteDC.Call(hdc)

	var bmi bitmapInfoHeader
	bmi.biSize = uint32(unsafe.Sizeof(bmi))

	// first call only fills in the header
	if ret, _, _ := procGetDIBits.Call(hdc, uintptr(hBitmap), 0, 0, 0, uintptr(unsafe.Pointer(&bmi)), 0); ret == 0 {
		return nil, errors.New("GetDIBits header failed")
	}

	width := int(bmi.biWidth)
	height := int(bmi.biHeight)
	if height < 0 {
		height = -height
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid bitmap size %dx%d", width, height)
	}

	bmi.biBitCount = 32
	bmi.biCompression = 0 // BI_RGB
	bmi.biSizeImage = uint32(width * height * 4)
	buffer := make([]byte, bmi.biSizeImage)

	if ret, _, _ := procGetDIBits.Call(hdc, uintptr(hBitmap), 0, uintptr(height),
		uintptr(unsafe.Pointer(&buffer[0])), uintptr(unsafe.Pointer(&bmi)), 0); ret == 0 {
		return nil, errors.New("GetDIBits pixels failed")
	}

	img := bgraToImage(buffer, width, height)
	if img == nil {
		return nil, errors.New("bitmap conversion failed")
	}
	return img, nil
}

// Launch opens path with the "open" verb, the same as double-clicking it
func (s *WindowsShell) Launch(path string) error {
	return shellExecute("platform.Launch", "open", path, "")
}

// Reveal opens Explorer with path selected
func (s *WindowsShell) Reveal(path string) error {
	return shellExecute("platform.Reveal", "open", "explorer.exe", fmt.Sprintf(`/select,"%s"`, path))
}

func shellExecute(op, verb, file, args string) error {
	ctx := map[string]string{"file": file}

	verbPtr, err := windows.UTF16PtrFromString(verb)
	if err != nil {
		return apperrors.NewWithContext(op, err, apperrors.ErrCodeValidation, ctx)
	}
	filePtr, err := windows.UTF16PtrFromString(file)
	if err != nil {
		return apperrors.NewWithContext(op, err, apperrors.ErrCodeValidation, ctx)
	}
	var argsPtr *uint16
	if args != "" {
		if argsPtr, err = windows.UTF16PtrFromString(args); err != nil {
			return apperrors.NewWithContext(op, err, apperrors.ErrCodeValidation, ctx)
		}
	}

	if err := windows.ShellExecute(0, verbPtr, filePtr, argsPtr, nil, windows.SW_SHOWNORMAL); err != nil {
		return apperrors.WrapWithContext(op, err, ctx)
	}
	return nil
}

// WindowsWindow implements Window for the launcher's top-level window, located by title
type WindowsWindow struct {
	title string

	mu   sync.Mutex
	hwnd uintptr
}

// NewWindow returns overlay primitives for the window with the given title
func NewWindow(title string) Window {
	return &WindowsWindow{title: title}
}

func (w *WindowsWindow) handle() (uintptr, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.hwnd != 0 {
		return w.hwnd, nil
	}

	titlePtr, err := windows.UTF16PtrFromString(w.title)
	if err != nil {
		return 0, apperrors.New("platform.handle", err, apperrors.ErrCodeValidation)
	}
	hwnd, _, _ := procFindWindowW.Call(0, uintptr(unsafe.Pointer(titlePtr)))
	if hwnd == 0 {
		return 0, apperrors.HandleNotFound("platform.handle", "window", w.title)
	}
	w.hwnd = hwnd
	return hwnd, nil
}

// SetClickThrough toggles WS_EX_TRANSPARENT. A window that was not layered yet is
// made layered at full opacity so it stays visible.
func (w *WindowsWindow) SetClickThrough(enabled bool) error {
	hwnd, err := w.handle()
	if err != nil {
		return err
	}

	style, _, _ := procGetWindowLongPtrW.Call(hwnd, uintptr(gwlExStyle))
	next := style
	if enabled {
		next |= wsExTransparent | wsExLayered
	} else {
		next &^= wsExTransparent
	}
	if next == style {
		return nil
	}

	procSetWindowLongPtrW.Call(hwnd, uintptr(gwlExStyle), next)
	if style&wsExLayered == 0 && next&wsExLayered != 0 {
		procSetLayeredWindowAttribs.Call(hwnd, 0, 255, lwaAlpha)
	}
	return nil
}

// CursorPosition converts the screen cursor position to DPI-independent client coordinates
func (w *WindowsWindow) CursorPosition() (int, int, bool) {
	hwnd, err := w.handle()
	if err != nil {
		return 0, 0, false
	}

	var pt point
	if ret, _, _ := procGetCursorPos.Call(uintptr(unsafe.Pointer(&pt))); ret == 0 {
		return 0, 0, false
	}
	procScreenToClient.Call(hwnd, uintptr(unsafe.Pointer(&pt)))

	x, y := int(pt.X), int(pt.Y)
	if procGetDpiForWindow.Find() == nil {
		if dpi, _, _ := procGetDpiForWindow.Call(hwnd); dpi > 0 && dpi != 96 {
			x = x * 96 / int(dpi)
			y = y * 96 / int(dpi)
		}
	}
	return x, y, true
}

// RegisterHotkey registers a system-wide hotkey on a dedicated OS thread that
// pumps WM_HOTKEY until unregister posts WM_QUIT to it
func (w *WindowsWindow) RegisterHotkey(accel string, fn func()) (func(), error) {
	acc, err := ParseAccelerator(accel)
	if err != nil {
		return nil, apperrors.NewWithContext("platform.RegisterHotkey", err, apperrors.ErrCodeValidation,
			map[string]string{"accelerator": accel})
	}

	type registration struct {
		threadID uintptr
		err      error
	}
	ready := make(chan registration, 1)
	done := make(chan struct{})

	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		defer close(done)

		tid, _, _ := procGetCurrentThreadId.Call()
		const hotkeyID = 1
		if ret, _, callErr := procRegisterHotKey.Call(0, hotkeyID, uintptr(acc.Modifiers|modNoRepeat), uintptr(acc.Key)); ret == 0 {
			ready <- registration{err: callErr}
			return
		}
		defer procUnregisterHotKey.Call(0, hotkeyID)
		ready <- registration{threadID: tid}

		var m msg
		for {
			r, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
			if int32(r) <= 0 {
				return
			}
			if m.message == wmHotkey {
				fn()
			}
		}
	}()

	reg := <-ready
	if reg.err != nil {
		return nil, apperrors.NewWithContext("platform.RegisterHotkey", reg.err, apperrors.ErrCodeDuplicate,
			map[string]string{"accelerator": accel})
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			procPostThreadMessageW.Call(reg.threadID, wmQuit, 0, 0)
			<-done
		})
	}, nil
}

// ShowContextMenu tracks a popup menu at the cursor and returns the chosen action
func (w *WindowsWindow) ShowContextMenu(pinned bool) (types.ContextAction, error) {
	hwnd, err := w.handle()
	if err != nil {
		return types.ActionNone, err
	}

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	menu, _, callErr := procCreatePopupMenu.Call()
	if menu == 0 {
		return types.ActionNone, apperrors.New("platform.ShowContextMenu", callErr, apperrors.ErrCodeInternal)
	}
	defer procDestroyMenu.Call(menu)

	pinLabel, _ := windows.UTF16PtrFromString(menuLabel(pinned))
	openLabel, _ := windows.UTF16PtrFromString("Open File Location")
	procAppendMenuW.Call(menu, mfString, menuTogglePin, uintptr(unsafe.Pointer(pinLabel)))
	procAppendMenuW.Call(menu, mfSeparator, 0, 0)
	procAppendMenuW.Call(menu, mfString, menuOpenFolder, uintptr(unsafe.Pointer(openLabel)))

	var pt point
	procGetCursorPos.Call(uintptr(unsafe.Pointer(&pt)))

	// the owner must be foreground or the menu will not dismiss on outside clicks
	procSetForegroundWindow.Call(hwnd)
	cmd, _, _ := procTrackPopupMenu.Call(menu, tpmReturnCmd|tpmNoNotify|tpmRightBtn,
		uintptr(pt.X), uintptr(pt.Y), 0, hwnd, 0)
	procPostMessageW.Call(hwnd, wmNull, 0, 0)

	return actionForCommand(cmd), nil
}
