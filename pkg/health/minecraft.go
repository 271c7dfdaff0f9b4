package health

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/multiformats/go-varint"
)

const (
	// statusProtocolVersion is sent in the handshake. Servers answer status
	// requests regardless of the version a client announces.
	statusProtocolVersion = 47

	// maxStatusPacket bounds the status response, favicons included
	maxStatusPacket = 2 << 20

	packetHandshake  = 0x00
	packetStatus     = 0x00
	nextStateStatus  = 1
	defaultMCTimeout = 5 * time.Second
)

// MinecraftStatus is the subset of the server list ping response fluxdns reads
type MinecraftStatus struct {
	Version struct {
		Name     string `json:"name"`
		Protocol int    `json:"protocol"`
	} `json:"version"`
	Players struct {
		Max    int `json:"max"`
		Online int `json:"online"`
	} `json:"players"`
}

// MinecraftChecker verifies that an endpoint is serving the Minecraft
// protocol by performing a server list ping (handshake + status request) and
// validating the JSON status document.
type MinecraftChecker struct {
	// Address is the game address to query (e.g., "10.0.0.1:25565")
	Address string

	// Timeout bounds the whole exchange (default: 5 seconds)
	Timeout time.Duration
}

// NewMinecraftChecker creates a new Minecraft status checker
func NewMinecraftChecker(address string) *MinecraftChecker {
	return &MinecraftChecker{
		Address: address,
		Timeout: defaultMCTimeout,
	}
}

// Check performs the status query
func (m *MinecraftChecker) Check(ctx context.Context) Result {
	start := time.Now()

	status, err := m.Query(ctx)
	if err != nil {
		return unhealthy(start, fmt.Sprintf("status query failed: %v", err))
	}

	return healthy(start, fmt.Sprintf("minecraft %s (%d/%d players)",
		status.Version.Name, status.Players.Online, status.Players.Max))
}

// Type returns the health check type
func (m *MinecraftChecker) Type() CheckType {
	return CheckTypeMinecraft
}

// WithTimeout sets the exchange timeout
func (m *MinecraftChecker) WithTimeout(timeout time.Duration) *MinecraftChecker {
	m.Timeout = timeout
	return m
}

// Query performs the server list ping and returns the decoded status
func (m *MinecraftChecker) Query(ctx context.Context) (*MinecraftStatus, error) {
	host, portStr, err := net.SplitHostPort(m.Address)
	if err != nil {
		return nil, fmt.Errorf("invalid address %q: %w", m.Address, err)
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return nil, fmt.Errorf("invalid port %q: %w", portStr, err)
	}

	timeout := m.Timeout
	if timeout <= 0 {
		timeout = defaultMCTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", m.Address)
	if err != nil {
		return nil, fmt.Errorf("connection failed: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if _, err := conn.Write(handshakePacket(host, uint16(port))); err != nil {
		return nil, fmt.Errorf("failed to send handshake: %w", err)
	}
	if _, err := conn.Write(framePacket(packetStatus, nil)); err != nil {
		return nil, fmt.Errorf("failed to send status request: %w", err)
	}

	payload, err := readStatusResponse(bufio.NewReader(conn))
	if err != nil {
		return nil, err
	}

	var status MinecraftStatus
	if err := json.Unmarshal(payload, &status); err != nil {
		return nil, fmt.Errorf("invalid status document: %w", err)
	}
	if status.Version.Name == "" && status.Version.Protocol == 0 {
		return nil, errors.New("status document has no version")
	}

	return &status, nil
}

// handshakePacket builds the handshake that switches the connection to the
// status state
func handshakePacket(host string, port uint16) []byte {
	var body bytes.Buffer
	body.Write(varint.ToUvarint(statusProtocolVersion))
	writeString(&body, host)
	_ = binary.Write(&body, binary.BigEndian, port)
	body.Write(varint.ToUvarint(nextStateStatus))
	return framePacket(packetHandshake, body.Bytes())
}

// framePacket prefixes id+body with its VarInt length
func framePacket(id uint64, body []byte) []byte {
	idBytes := varint.ToUvarint(id)
	length := uint64(len(idBytes) + len(body))

	var pkt bytes.Buffer
	pkt.Write(varint.ToUvarint(length))
	pkt.Write(idBytes)
	pkt.Write(body)
	return pkt.Bytes()
}

func writeString(buf *bytes.Buffer, s string) {
	buf.Write(varint.ToUvarint(uint64(len(s))))
	buf.WriteString(s)
}

// readStatusResponse reads one status response packet and returns its JSON payload
func readStatusResponse(r *bufio.Reader) ([]byte, error) {
	length, err := varint.ReadUvarint(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read packet length: %w", err)
	}
	if length == 0 || length > maxStatusPacket {
		return nil, fmt.Errorf("status packet length %d out of range", length)
	}

	packet := make([]byte, length)
	if _, err := io.ReadFull(r, packet); err != nil {
		return nil, fmt.Errorf("failed to read status packet: %w", err)
	}

	id, n, err := varint.FromUvarint(packet)
	if err != nil {
		return nil, fmt.Errorf("failed to read packet id: %w", err)
	}
	if id != packetStatus {
		return nil, fmt.Errorf("unexpected packet id 0x%02x", id)
	}

	strLen, m, err := varint.FromUvarint(packet[n:])
	if err != nil {
		return nil, fmt.Errorf("failed to read status length: %w", err)
	}
	rest := packet[n+m:]
	if uint64(len(rest)) < strLen {
		return nil, fmt.Errorf("status truncated: want %d bytes, have %d", strLen, len(rest))
	}

	return rest[:strLen], nil
}
