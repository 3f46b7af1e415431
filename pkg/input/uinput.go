package input

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/bendahl/uinput"
)

// UinputInjector implements Injector on top of /dev/uinput virtual keyboard
// and mouse devices, grounded on api/pkg/desktop.VirtualInput. uinput's
// relative-mouse device has no absolute-positioning primitive, so MouseAbs
// is synthesized as a relative move from the last known position.
type UinputInjector struct {
	keyboard uinput.Keyboard
	mouse    uinput.Mouse
	logger   *slog.Logger

	mu      sync.Mutex
	closed  bool
	lastX   int32
	lastY   int32
	haveAbs bool
}

// NewUinputInjector creates virtual keyboard and mouse devices via uinput.
// Requires /dev/uinput access.
func NewUinputInjector(logger *slog.Logger) (*UinputInjector, error) {
	keyboard, err := uinput.CreateKeyboard("/dev/uinput", []byte("juke-keyboard"))
	if err != nil {
		return nil, fmt.Errorf("create virtual keyboard: %w", err)
	}
	mouse, err := uinput.CreateMouse("/dev/uinput", []byte("juke-mouse"))
	if err != nil {
		keyboard.Close()
		return nil, fmt.Errorf("create virtual mouse: %w", err)
	}
	logger.Info("virtual input devices created")
	return &UinputInjector{keyboard: keyboard, mouse: mouse, logger: logger}, nil
}

func (v *UinputInjector) MouseRel(dx, dy int32) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return nil
	}
	return v.mouse.Move(dx, dy)
}

// MouseAbs synthesizes an absolute move as a relative delta from the last
// position this injector saw, since uinput's relative mouse device has no
// absolute-positioning primitive.
func (v *UinputInjector) MouseAbs(x, y int32) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return nil
	}
	if !v.haveAbs {
		v.lastX, v.lastY, v.haveAbs = x, y, true
		return nil
	}
	dx, dy := x-v.lastX, y-v.lastY
	v.lastX, v.lastY = x, y
	if dx == 0 && dy == 0 {
		return nil
	}
	return v.mouse.Move(dx, dy)
}

// MouseButton presses or releases button 1 (left), 2 (middle) or 3 (right).
func (v *UinputInjector) MouseButton(button uint8, pressed bool) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return nil
	}
	if pressed {
		switch button {
		case 1:
			return v.mouse.LeftPress()
		case 2:
			return v.mouse.MiddlePress()
		case 3:
			return v.mouse.RightPress()
		}
		return nil
	}
	switch button {
	case 1:
		return v.mouse.LeftRelease()
	case 2:
		return v.mouse.MiddleRelease()
	case 3:
		return v.mouse.RightRelease()
	}
	return nil
}

// Key presses or releases the Linux evdev keycode scancode.
func (v *UinputInjector) Key(scancode int32, pressed bool) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed || scancode == 0 {
		return nil
	}
	if pressed {
		return v.keyboard.KeyDown(int(scancode))
	}
	return v.keyboard.KeyUp(int(scancode))
}

// Sync is a no-op: uinput commits each ioctl as it's issued, so there is no
// separate batch-commit step to perform.
func (v *UinputInjector) Sync() error { return nil }

// Close releases the virtual input devices.
func (v *UinputInjector) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return nil
	}
	v.closed = true
	var errs []error
	if err := v.keyboard.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close keyboard: %w", err))
	}
	if err := v.mouse.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close mouse: %w", err))
	}
	if len(errs) > 0 {
		return errs[0]
	}
	v.logger.Info("virtual input devices closed")
	return nil
}
