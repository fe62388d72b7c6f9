package common

import (
	"fmt"
	"strings"
)

// Key is a virtual key code. Values match GLFW key codes, which use ASCII
// values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
type Key uint32

// MouseButton is a mouse button index. Values match GLFW mouse button codes.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#MouseButton
type MouseButton uint32

// KeyUnbound is a key code no device produces; binding an action to it disables the action.
const KeyUnbound Key = 0

const (
	KeyW         Key = 87  // W key (ASCII)
	KeyA         Key = 65  // A key (ASCII)
	KeyS         Key = 83  // S key (ASCII)
	KeyD         Key = 68  // D key (ASCII)
	KeyQ         Key = 81  // Q key (ASCII)
	KeyE         Key = 69  // E key (ASCII)
	KeyB         Key = 66  // B key (ASCII)
	KeyC         Key = 67  // C key (ASCII)
	KeyF         Key = 70  // F key (ASCII)
	KeyG         Key = 71  // G key (ASCII)
	KeyL         Key = 76  // L key (ASCII)
	KeyM         Key = 77  // M key (ASCII)
	KeyR         Key = 82  // R key (ASCII)
	KeyT         Key = 84  // T key (ASCII)
	KeyV         Key = 86  // V key (ASCII)
	KeyX         Key = 88  // X key (ASCII)
	KeyZ         Key = 90  // Z key (ASCII)
	KeySpace     Key = 32  // Spacebar (ASCII)
	KeyBackspace Key = 259 // Backspace key (GLFW)
	KeyEsc       Key = 256 // Escape key (GLFW)

	Key0 Key = 48 // 0 key (ASCII)
	Key1 Key = 49 // 1 key (ASCII)
	Key2 Key = 50 // 2 key (ASCII)
	Key3 Key = 51 // 3 key (ASCII)
	Key4 Key = 52 // 4 key (ASCII)
	Key5 Key = 53 // 5 key (ASCII)
	Key6 Key = 54 // 6 key (ASCII)
	Key7 Key = 55 // 7 key (ASCII)
	Key8 Key = 56 // 8 key (ASCII)
	Key9 Key = 57 // 9 key (ASCII)
)

// Additional non-printable keys
const (
	KeyRight        Key = 262 // Right arrow (GLFW)
	KeyLeft         Key = 263 // Left arrow (GLFW)
	KeyDown         Key = 264 // Down arrow (GLFW)
	KeyUp           Key = 265 // Up arrow (GLFW)
	KeyLeftShift    Key = 340 // Left Shift (GLFW)
	KeyLeftControl  Key = 341 // Left Control (GLFW)
	KeyLeftAlt      Key = 342 // Left Alt (GLFW)
	KeyRightShift   Key = 344 // Right Shift (GLFW)
	KeyRightControl Key = 345 // Right Control (GLFW)
)

// Mouse buttons
const (
	MouseButtonLeft   MouseButton = 0
	MouseButtonRight  MouseButton = 1
	MouseButtonMiddle MouseButton = 2
)

var keyNames = map[string]Key{
	"space":         KeySpace,
	"backspace":     KeyBackspace,
	"escape":        KeyEsc,
	"right":         KeyRight,
	"left":          KeyLeft,
	"down":          KeyDown,
	"up":            KeyUp,
	"left_shift":    KeyLeftShift,
	"left_control":  KeyLeftControl,
	"left_alt":      KeyLeftAlt,
	"right_shift":   KeyRightShift,
	"right_control": KeyRightControl,
	"none":          KeyUnbound,
}

var mouseButtonNames = map[string]MouseButton{
	"left":   MouseButtonLeft,
	"right":  MouseButtonRight,
	"middle": MouseButtonMiddle,
}

// ParseKey resolves a key name as written in configuration files. Single letters
// and digits map to their ASCII codes; named keys use snake_case ("left_shift").
// Matching is case-insensitive.
//
// Parameters:
//   - name: the key name
//
// Returns:
//   - Key: the key code
//   - error: error if the name is unknown
func ParseKey(name string) (Key, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if len(n) == 1 {
		c := n[0]
		switch {
		case c >= 'a' && c <= 'z':
			return Key(c - 'a' + 'A'), nil
		case c >= '0' && c <= '9':
			return Key(c), nil
		}
	}
	if k, ok := keyNames[n]; ok {
		return k, nil
	}
	return KeyUnbound, fmt.Errorf("unknown key %q", name)
}

// ParseMouseButton resolves a mouse button name ("left", "right", "middle").
//
// Parameters:
//   - name: the button name
//
// Returns:
//   - MouseButton: the button code
//   - error: error if the name is unknown
func ParseMouseButton(name string) (MouseButton, error) {
	if b, ok := mouseButtonNames[strings.ToLower(strings.TrimSpace(name))]; ok {
		return b, nil
	}
	return 0, fmt.Errorf("unknown mouse button %q", name)
}

// String returns the configuration name of the key, the inverse of ParseKey.
// Unnamed codes print as "key(N)".
func (k Key) String() string {
	switch {
	case k >= 'A' && k <= 'Z':
		return string(rune(k - 'A' + 'a'))
	case k >= '0' && k <= '9':
		return string(rune(k))
	}
	for name, code := range keyNames {
		if code == k {
			return name
		}
	}
	return fmt.Sprintf("key(%d)", uint32(k))
}

// String returns the configuration name of the button, the inverse of ParseMouseButton.
func (b MouseButton) String() string {
	for name, code := range mouseButtonNames {
		if code == b {
			return name
		}
	}
	return fmt.Sprintf("button(%d)", uint32(b))
}
