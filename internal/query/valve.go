package query

import (
	"net"
	"strconv"
	"time"

	"github.com/woozymasta/a2s/pkg/a2s"
)

// valveQuerier speaks the Source Engine Query (A2S) protocol over UDP.
// It covers every Steam game exposing the standard query port.
type valveQuerier struct {
	opts Options
}

// Query requests A2S_INFO and, best effort, A2S_PLAYER from the server.
func (q *valveQuerier) Query(host string, port int) (*Result, error) {
	client, err := a2s.New(host, port)
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Close() }()

	client.BufferSize = q.opts.BufferSize
	client.Timeout = q.opts.Timeout

	start := time.Now()
	info, err := client.GetInfo()
	if err != nil {
		return nil, err
	}

	res := &Result{
		Name:        info.Name,
		Map:         info.Map,
		Game:        info.Game,
		Version:     info.Version,
		PlayerCount: int(info.Players),
		MaxPlayers:  int(info.MaxPlayers),
		Ping:        time.Since(start),
		Connect:     net.JoinHostPort(host, strconv.Itoa(port)),
	}

	// Many servers answer A2S_INFO but keep A2S_PLAYER disabled; the count
	// above stays authoritative and the name list is simply left empty.
	if players, err := client.GetPlayers(); err == nil && players != nil {
		for _, p := range *players {
			if p.Name != "" {
				res.Players = append(res.Players, p.Name)
			}
		}
	}

	return res, nil
}
