package health

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/multiformats/go-varint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMinecraftServer answers one status exchange per connection with reply
type fakeMinecraftServer struct {
	ln        net.Listener
	reply     func(conn net.Conn)
	handshake chan []byte
}

func newFakeMinecraftServer(t *testing.T, reply func(conn net.Conn)) *fakeMinecraftServer {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := &fakeMinecraftServer{ln: ln, reply: reply, handshake: make(chan []byte, 4)}
	go s.serve()
	t.Cleanup(func() { ln.Close() })
	return s
}

func (s *fakeMinecraftServer) serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		go func(conn net.Conn) {
			defer conn.Close()
			r := bufio.NewReader(conn)

			handshake, err := readPacket(r)
			if err != nil {
				return
			}
			s.handshake <- handshake
			if _, err := readPacket(r); err != nil {
				return
			}
			s.reply(conn)
		}(conn)
	}
}

func (s *fakeMinecraftServer) addr() string {
	return s.ln.Addr().String()
}

func readPacket(r *bufio.Reader) ([]byte, error) {
	length, err := varint.ReadUvarint(r)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, length)
	_, err = io.ReadFull(r, buf)
	return buf, err
}

func statusReply(doc string) func(conn net.Conn) {
	return func(conn net.Conn) {
		var body bytes.Buffer
		body.Write(varint.ToUvarint(uint64(len(doc))))
		body.WriteString(doc)
		_, _ = conn.Write(framePacket(packetStatus, body.Bytes()))
	}
}

const validStatus = `{"version":{"name":"1.20.4","protocol":765},"players":{"max":20,"online":3},"description":{"text":"A Flux server"}}`

func TestMinecraftChecker_Healthy(t *testing.T) {
	server := newFakeMinecraftServer(t, statusReply(validStatus))

	result := NewMinecraftChecker(server.addr()).Check(context.Background())
	assert.True(t, result.Healthy, result.Message)
	assert.Contains(t, result.Message, "1.20.4")
	assert.Contains(t, result.Message, "3/20")
}

func TestMinecraftChecker_HandshakeFormat(t *testing.T) {
	server := newFakeMinecraftServer(t, statusReply(validStatus))

	_, err := NewMinecraftChecker(server.addr()).Query(context.Background())
	require.NoError(t, err)

	handshake := <-server.handshake
	r := bytes.NewReader(handshake)

	id, err := varint.ReadUvarint(r)
	require.NoError(t, err)
	assert.Equal(t, uint64(packetHandshake), id)

	proto, err := varint.ReadUvarint(r)
	require.NoError(t, err)
	assert.Equal(t, uint64(statusProtocolVersion), proto)

	hostLen, err := varint.ReadUvarint(r)
	require.NoError(t, err)
	host := make([]byte, hostLen)
	_, err = io.ReadFull(r, host)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", string(host))

	var port uint16
	require.NoError(t, binary.Read(r, binary.BigEndian, &port))
	_, wantPort, _ := net.SplitHostPort(server.addr())
	assert.Equal(t, wantPort, strconv.Itoa(int(port)))

	next, err := varint.ReadUvarint(r)
	require.NoError(t, err)
	assert.Equal(t, uint64(nextStateStatus), next)
}

func TestMinecraftChecker_Unhealthy(t *testing.T) {
	tests := []struct {
		name  string
		reply func(conn net.Conn)
	}{
		{
			name:  "closes without answering",
			reply: func(conn net.Conn) {},
		},
		{
			name:  "invalid json",
			reply: statusReply(`{"version":`),
		},
		{
			name:  "json without version",
			reply: statusReply(`{"players":{"max":1,"online":0}}`),
		},
		{
			name: "wrong packet id",
			reply: func(conn net.Conn) {
				_, _ = conn.Write(framePacket(0x01, []byte{0, 0, 0, 0, 0, 0, 0, 0}))
			},
		},
		{
			name: "truncated status string",
			reply: func(conn net.Conn) {
				var body bytes.Buffer
				body.Write(varint.ToUvarint(500))
				body.WriteString("{}")
				_, _ = conn.Write(framePacket(packetStatus, body.Bytes()))
			},
		},
		{
			name: "http server on the game port",
			reply: func(conn net.Conn) {
				_, _ = conn.Write([]byte("HTTP/1.1 400 Bad Request\r\n\r\n"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newFakeMinecraftServer(t, tt.reply)

			result := NewMinecraftChecker(server.addr()).WithTimeout(time.Second).Check(context.Background())
			assert.False(t, result.Healthy, "expected unhealthy, got: %s", result.Message)
		})
	}
}

func TestMinecraftChecker_SilentServerTimesOut(t *testing.T) {
	server := newFakeMinecraftServer(t, func(conn net.Conn) {
		time.Sleep(2 * time.Second)
	})

	start := time.Now()
	result := NewMinecraftChecker(server.addr()).WithTimeout(100 * time.Millisecond).Check(context.Background())
	assert.False(t, result.Healthy)
	assert.Less(t, time.Since(start), time.Second)
}

func TestMinecraftChecker_NothingListening(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	result := NewMinecraftChecker(addr).WithTimeout(500 * time.Millisecond).Check(context.Background())
	assert.False(t, result.Healthy)
}

func TestMinecraftChecker_InvalidAddress(t *testing.T) {
	_, err := NewMinecraftChecker("10.0.0.1").Query(context.Background())
	assert.Error(t, err)

	_, err = NewMinecraftChecker("10.0.0.1:99999").Query(context.Background())
	assert.Error(t, err)
}

func TestFramePacket(t *testing.T) {
	pkt := framePacket(0x00, nil)
	assert.Equal(t, []byte{0x01, 0x00}, pkt)

	pkt = framePacket(0x00, bytes.Repeat([]byte{0xAA}, 200))
	length, n, err := varint.FromUvarint(pkt)
	require.NoError(t, err)
	assert.Equal(t, uint64(201), length)
	assert.Equal(t, 2, n)
	assert.Len(t, pkt, 203)
}
