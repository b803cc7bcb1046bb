// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Aquastat Authors

package cmd

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/openaqua/aquastat/pkg/d5next"
	hid "github.com/sstallion/go-hid"
	"golang.org/x/term"
)

// frameSource is a stream of telemetry frames, either decoded locally from
// a HID device or received from a serve daemon over WebSocket.
type frameSource interface {
	// Next blocks until the next frame arrives.
	Next() (*d5next.Frame, error)
	Close() error
}

// statsEvery is how often a local source interleaves a statistics frame
// into the snapshot stream.
const statsEvery = 10 * time.Second

// OpenDevice opens the HID device selected by the connection flags. With
// --device the path is opened directly; otherwise the first enumerated
// device matching --vid/--pid is used.
func OpenDevice() (*hid.Device, string, error) {
	if err := hid.Init(); err != nil {
		return nil, "", fmt.Errorf("hidapi init failed: %v", err)
	}

	if devicePath != "" {
		dev, err := hid.OpenPath(devicePath)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open HID device %s: %v", devicePath, err)
		}
		return dev, fmt.Sprintf("HID: %s", devicePath), nil
	}

	var path string
	err := hid.Enumerate(deviceVID, devicePID, func(info *hid.DeviceInfo) error {
		if path == "" {
			path = info.Path
		}
		return nil
	})
	if err != nil {
		return nil, "", fmt.Errorf("HID enumeration failed: %v", err)
	}
	if path == "" {
		return nil, "", fmt.Errorf("no device with VID 0x%04X PID 0x%04X found", deviceVID, devicePID)
	}

	dev, err := hid.OpenPath(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open HID device %s: %v", path, err)
	}
	return dev, fmt.Sprintf("HID: %s (VID 0x%04X PID 0x%04X)", path, deviceVID, devicePID), nil
}

// hidFrameSource reads input reports from a HID device, feeds them into a
// session and emits a snapshot frame per accepted report, with a periodic
// statistics frame interleaved.
type hidFrameSource struct {
	dev       *hid.Device
	session   *d5next.Session
	buf       []byte
	lastStats time.Time
	pending   *d5next.Frame
}

func newHIDFrameSource(dev *hid.Device) *hidFrameSource {
	return &hidFrameSource{
		dev:       dev,
		session:   d5next.NewSession(dev),
		buf:       make([]byte, 256),
		lastStats: time.Now(),
	}
}

// Session exposes the underlying session for configuration transactions on
// the same device handle.
func (h *hidFrameSource) Session() *d5next.Session {
	return h.session
}

func (h *hidFrameSource) Next() (*d5next.Frame, error) {
	if h.pending != nil {
		f := h.pending
		h.pending = nil
		return f, nil
	}

	for {
		n, err := h.dev.Read(h.buf)
		if err != nil {
			return nil, fmt.Errorf("HID read failed: %v", err)
		}

		updated, err := h.session.Ingest(h.buf[:n])
		if err != nil || !updated {
			// Malformed or foreign reports are counted in the session
			// statistics and otherwise skipped.
			continue
		}

		snap, err := h.session.Snapshot()
		if err != nil {
			continue
		}

		if time.Since(h.lastStats) >= statsEvery {
			h.lastStats = time.Now()
			stats := h.session.Stats()
			h.pending = &d5next.Frame{Kind: d5next.FrameStats, Stats: &stats}
		}
		return &d5next.Frame{Kind: d5next.FrameSnapshot, Snapshot: &snap}, nil
	}
}

func (h *hidFrameSource) Close() error {
	return h.dev.Close()
}

// ErrConnectionClosed is returned when reading from a closed WebSocket
var ErrConnectionClosed = fmt.Errorf("websocket connection closed")

// wsFrameSource decodes stream frames from a WebSocket connection.
type wsFrameSource struct {
	conn   *websocket.Conn
	closed bool
}

func (w *wsFrameSource) Next() (*d5next.Frame, error) {
	if w.closed {
		return nil, ErrConnectionClosed
	}

	for {
		messageType, data, err := w.conn.ReadMessage()
		if err != nil {
			w.closed = true
			return nil, err
		}

		// The stream carries CBOR frames as binary messages only
		if messageType != websocket.BinaryMessage {
			continue
		}

		return d5next.DecodeFrame(data)
	}
}

func (w *wsFrameSource) Close() error {
	return w.conn.Close()
}

// OpenWebSocketSource connects to a serve daemon with HTTP Basic auth.
func OpenWebSocketSource(wsURL, username, password string, skipSSLVerify bool) (frameSource, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %v", err)
	}

	switch u.Scheme {
	case "ws", "wss":
		// OK
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: skipSSLVerify,
		}
	}

	headers := http.Header{}
	if username != "" && password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
		headers.Set("Authorization", "Basic "+credentials)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("WebSocket connection failed (HTTP %d): %v", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("WebSocket connection failed: %v", err)
	}

	return &wsFrameSource{conn: conn}, nil
}

// GetPassword retrieves the password from the environment or prompts the
// user with echo disabled.
func GetPassword() (string, error) {
	if pw := os.Getenv("AQUASTAT_PASSWORD"); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")

	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Fallback to regular input if terminal functions fail
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %v", err)
		}
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(password), nil
	}

	fmt.Fprintln(os.Stderr)
	return string(passwordBytes), nil
}

// OpenFrameSource opens a telemetry stream based on the connection flags:
// WebSocket when --url is given, direct HID otherwise.
func OpenFrameSource() (frameSource, string, error) {
	if wsURL != "" {
		password := ""
		if wsUsername != "" {
			var err error
			password, err = GetPassword()
			if err != nil {
				return nil, "", err
			}
		}

		src, err := OpenWebSocketSource(wsURL, wsUsername, password, wsNoSSLVerify)
		if err != nil {
			return nil, "", err
		}

		return src, fmt.Sprintf("WebSocket: %s", wsURL), nil
	}

	dev, connInfo, err := OpenDevice()
	if err != nil {
		return nil, "", err
	}
	return newHIDFrameSource(dev), connInfo, nil
}
