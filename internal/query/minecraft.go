package query

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"
)

// minecraftQuerier speaks the Minecraft Server List Ping protocol over TCP:
// a handshake with next-state "status" followed by a status request, answered
// with a length-prefixed JSON document.
type minecraftQuerier struct {
	timeout time.Duration
}

// statusResponse is the subset of the SLP JSON document used here.
type statusResponse struct {
	Description json.RawMessage `json:"description"`
	Version     struct {
		Name string `json:"name"`
	} `json:"version"`
	Players struct {
		Max    int `json:"max"`
		Online int `json:"online"`
		Sample []struct {
			Name string `json:"name"`
		} `json:"sample"`
	} `json:"players"`
}

func (q *minecraftQuerier) Query(host string, port int) (*Result, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	start := time.Now()
	conn, err := net.DialTimeout("tcp", addr, q.timeout)
	if err != nil {
		return nil, err
	}
	defer func() { _ = conn.Close() }()

	if err := conn.SetDeadline(time.Now().Add(q.timeout)); err != nil {
		return nil, err
	}

	// Handshake: protocol version -1 (unknown), target address, next state 1
	var handshake []byte
	handshake = append(handshake, 0x00)
	handshake = appendVarInt(handshake, -1)
	handshake = appendVarInt(handshake, int32(len(host)))
	handshake = append(handshake, host...)
	handshake = append(handshake, byte(port>>8), byte(port))
	handshake = appendVarInt(handshake, 1)

	if err := writePacket(conn, handshake); err != nil {
		return nil, err
	}

	// Status request is an empty packet with id 0x00
	if err := writePacket(conn, []byte{0x00}); err != nil {
		return nil, err
	}

	r := bufio.NewReader(conn)
	if _, err := readVarInt(r); err != nil { // packet length
		return nil, err
	}
	ping := time.Since(start)

	packetID, err := readVarInt(r)
	if err != nil {
		return nil, err
	}
	if packetID != 0 {
		return nil, fmt.Errorf("minecraft: unexpected packet id 0x%02x", packetID)
	}

	payloadLen, err := readVarInt(r)
	if err != nil {
		return nil, err
	}
	if payloadLen < 0 || payloadLen > 1<<21 {
		return nil, fmt.Errorf("minecraft: implausible status length %d", payloadLen)
	}

	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}

	var status statusResponse
	if err := json.Unmarshal(payload, &status); err != nil {
		return nil, err
	}

	res := &Result{
		Name:        motdText(status.Description),
		Game:        "Minecraft",
		Version:     status.Version.Name,
		PlayerCount: status.Players.Online,
		MaxPlayers:  status.Players.Max,
		Ping:        ping,
		Connect:     addr,
	}
	if res.Name == "" {
		res.Name = "Minecraft Server"
	}
	for _, p := range status.Players.Sample {
		if p.Name != "" {
			res.Players = append(res.Players, p.Name)
		}
	}

	return res, nil
}

// motdText extracts plain text from the description field, which may be a bare
// string or a chat component object.
func motdText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var component struct {
		Text  string `json:"text"`
		Extra []struct {
			Text string `json:"text"`
		} `json:"extra"`
	}
	if err := json.Unmarshal(raw, &component); err != nil {
		return ""
	}

	text := component.Text
	for _, e := range component.Extra {
		text += e.Text
	}
	return text
}

// writePacket frames data with its varint length prefix.
func writePacket(w io.Writer, data []byte) error {
	framed := appendVarInt(nil, int32(len(data)))
	framed = append(framed, data...)
	_, err := w.Write(framed)
	return err
}

// appendVarInt encodes v as the protocol's 32-bit LEB128 varint.
func appendVarInt(buf []byte, v int32) []byte {
	u := uint32(v)
	for {
		b := byte(u & 0x7f)
		u >>= 7
		if u != 0 {
			b |= 0x80
		}
		buf = append(buf, b)
		if u == 0 {
			return buf
		}
	}
}

// readVarInt decodes a varint, rejecting encodings longer than five bytes.
func readVarInt(r io.ByteReader) (int32, error) {
	var value uint32
	for i := 0; i < 5; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		value |= uint32(b&0x7f) << (7 * i)
		if b&0x80 == 0 {
			return int32(value), nil
		}
	}
	return 0, fmt.Errorf("minecraft: varint too long")
}
