// Package control is the loopback channel between the primary process and
// its attached-window processes: session registration, navigation reports
// for view-state persistence, and shutdown signaling.
package control

import (
	"fmt"

	"github.com/bytedance/sonic"
)

// Frame types.
const (
	// FrameHello is the first frame a connecting window sends.
	FrameHello = "hello"
	// FrameWelcome acks a hello and carries the current view-state snapshot.
	FrameWelcome = "welcome"
	// FrameNavigated reports a window's new URL.
	FrameNavigated = "navigated"
	// FrameNewWindow asks the primary process to spawn another window.
	// Attached windows cannot mint session tokens themselves.
	FrameNewWindow = "new_window"
	// FrameShutdown tells attached windows to close.
	FrameShutdown = "shutdown"
)

// Frame is one control-channel message. Unused fields stay empty.
type Frame struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id,omitempty"`
	URL       string `json:"url,omitempty"`
	ZoomLevel int    `json:"zoom_level,omitempty"`
	PID       int    `json:"pid,omitempty"`
}

// Encode renders the frame as JSON.
func (f Frame) Encode() ([]byte, error) {
	return sonic.Marshal(f)
}

// DecodeFrame parses one frame.
func DecodeFrame(data []byte) (Frame, error) {
	var f Frame
	if err := sonic.Unmarshal(data, &f); err != nil {
		return Frame{}, fmt.Errorf("malformed control frame: %w", err)
	}
	if f.Type == "" {
		return Frame{}, fmt.Errorf("control frame missing type")
	}
	return f, nil
}
