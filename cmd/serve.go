// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Aquastat Authors

package cmd

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/openaqua/aquastat/internal/logger"
	"github.com/openaqua/aquastat/pkg/d5next"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveConfigFile string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Publish telemetry to WebSocket clients",
	Long: `Run a daemon that reads telemetry from the device and broadcasts it
to WebSocket clients as binary CBOR frames.

Clients connect with 'aquastat monitor --url ws://host:port/stream' or
'aquastat tui --url ...'. Each accepted sensor report is broadcast as a
snapshot frame; ingestion statistics are interleaved periodically.

Configuration is read from aquastat.yaml (current directory or /etc/aquastat),
or the file given with --config:

  listen: ":8900"       # HTTP listen address
  device: ""            # HID device path (default: first matching device)
  username: ""          # HTTP Basic auth (empty disables auth)
  password: ""
  log_level: "info"     # debug, info, warn, error`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveConfigFile, "config", "", "Config file path")
}

func loadServeConfig() error {
	viper.SetDefault("listen", ":8900")
	viper.SetDefault("log_level", logger.InfoLevel)

	if serveConfigFile != "" {
		viper.SetConfigFile(serveConfigFile)
	} else {
		viper.SetConfigName("aquastat")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/aquastat")
	}

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults and flags cover it
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && serveConfigFile == "" {
			return nil
		}
		return fmt.Errorf("error reading config: %v", err)
	}
	return nil
}

// hub fans broadcast frames out to the connected WebSocket clients. A
// client that cannot keep up is dropped rather than allowed to stall the
// broadcast.
type hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]chan []byte
	log     *logger.Logger
}

func newHub(log *logger.Logger) *hub {
	return &hub{
		clients: make(map[*websocket.Conn]chan []byte),
		log:     log,
	}
}

func (h *hub) add(conn *websocket.Conn) chan []byte {
	ch := make(chan []byte, 16)
	h.mu.Lock()
	h.clients[conn] = ch
	n := len(h.clients)
	h.mu.Unlock()
	h.log.Infow("client connected", "remote", conn.RemoteAddr().String(), "clients", n)
	return ch
}

func (h *hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	ch, ok := h.clients[conn]
	if ok {
		delete(h.clients, conn)
		close(ch)
	}
	n := len(h.clients)
	h.mu.Unlock()
	if ok {
		h.log.Infow("client disconnected", "remote", conn.RemoteAddr().String(), "clients", n)
	}
}

func (h *hub) broadcast(data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, ch := range h.clients {
		select {
		case ch <- data:
		default:
			h.log.Warnw("dropping slow client", "remote", conn.RemoteAddr().String())
			delete(h.clients, conn)
			close(ch)
		}
	}
}

func (h *hub) encodeAndBroadcast(frame *d5next.Frame) {
	data, err := d5next.EncodeFrame(frame)
	if err != nil {
		h.log.Errorw("frame encode failed", "err", err)
		return
	}
	h.broadcast(data)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// checkBasicAuth validates HTTP Basic credentials when auth is configured.
func checkBasicAuth(r *http.Request, username, password string) bool {
	if username == "" {
		return true
	}
	user, pass, ok := r.BasicAuth()
	if !ok {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(password)) == 1
	return userOK && passOK
}

func (h *hub) handleStream(username, password string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !checkBasicAuth(r, username, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="aquastat"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.log.Errorw("websocket upgrade failed", "err", err)
			return
		}

		ch := h.add(conn)
		defer func() {
			h.remove(conn)
			conn.Close()
		}()

		// Reader goroutine to handle control frames and detect disconnects
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case data, ok := <-ch:
				if !ok {
					return
				}
				conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
				if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := loadServeConfig(); err != nil {
		return err
	}

	log := logger.Get(viper.GetString("log_level"))
	defer log.Sync()

	// The config file can pin a device path; the flag wins when set
	if devicePath == "" {
		devicePath = viper.GetString("device")
	}

	dev, connInfo, err := OpenDevice()
	if err != nil {
		return err
	}
	defer dev.Close()

	session := d5next.NewSession(dev)
	h := newHub(log)

	log.Infow("device opened", "connection", connInfo)

	// Ingest loop: read input reports, broadcast accepted snapshots, and
	// interleave a statistics frame periodically.
	go func() {
		buf := make([]byte, 256)
		lastStats := time.Now()
		for {
			n, err := dev.Read(buf)
			if err != nil {
				log.Errorw("HID read failed", "err", err)
				return
			}

			updated, err := session.Ingest(buf[:n])
			if err != nil {
				log.Warnw("malformed sensor report", "err", err, "len", n)
				continue
			}
			if !updated {
				continue
			}

			snap, err := session.Snapshot()
			if err != nil {
				continue
			}
			log.Debugw("sensor report",
				"coolant_mdeg", snap.CoolantTemp,
				"pump_rpm", snap.ChannelSpeed(d5next.ChannelPump),
				"fan_rpm", snap.ChannelSpeed(d5next.ChannelFan))
			h.encodeAndBroadcast(&d5next.Frame{Kind: d5next.FrameSnapshot, Snapshot: &snap})

			if time.Since(lastStats) >= statsEvery {
				lastStats = time.Now()
				stats := session.Stats()
				h.encodeAndBroadcast(&d5next.Frame{Kind: d5next.FrameStats, Stats: &stats})
			}
		}
	}()

	listen := viper.GetString("listen")
	username := viper.GetString("username")
	password := viper.GetString("password")

	mux := http.NewServeMux()
	mux.HandleFunc("/stream", h.handleStream(username, password))

	log.Infow("listening", "addr", listen, "auth", username != "")
	return http.ListenAndServe(listen, mux)
}
