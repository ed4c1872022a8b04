// Package query implements game server status queries, polymorphic over the
// configured game type. Each protocol client reports liveness, player data,
// and map/version metadata; network failures and timeouts surface as plain
// errors that callers render as an offline state.
package query

import (
	"time"

	"github.com/cespare/xxhash/v2"
)

// Result is the live state reported by a reachable game server.
// It is produced fresh on every query and never persisted as a whole.
type Result struct {
	Name    string
	Map     string
	Game    string
	Version string
	Connect string

	// Players holds the player names the server reported. Some protocols or
	// servers omit names; PlayerCount stays authoritative either way.
	Players []string

	PlayerCount int
	MaxPlayers  int

	// Ping is the measured round-trip of the info request.
	Ping time.Duration
}

// Options configures protocol clients. The timeout bounds the whole exchange;
// retry policy belongs to the caller.
type Options struct {
	Timeout    time.Duration
	BufferSize uint16
}

// Querier is the capability a supported game protocol provides.
type Querier interface {
	Query(host string, port int) (*Result, error)
}

// valveGames are game types served by the Source Query (A2S) protocol.
var valveGames = []string{
	"source", "csgo", "cs2", "css", "tf2", "garrysmod", "left4dead2",
	"rust", "dayz", "arma3", "ark", "valheim", "sevendaystodie", "projectzomboid",
}

// Registry selects a Querier by game type. An optional allow-list restricts
// which types a deployment may query; entries are matched by xxhash like the
// rest of the hot-path string sets.
type Registry struct {
	queriers map[string]Querier
	allowed  map[uint64]struct{}
}

// NewRegistry builds the registry of supported protocols. If allowedGames is
// non-empty, Lookup refuses every type outside it.
func NewRegistry(opts Options, allowedGames []string) *Registry {
	r := &Registry{
		queriers: make(map[string]Querier),
	}

	valve := &valveQuerier{opts: opts}
	for _, game := range valveGames {
		r.queriers[game] = valve
	}
	r.queriers["minecraft"] = &minecraftQuerier{timeout: opts.Timeout}

	if len(allowedGames) > 0 {
		r.allowed = make(map[uint64]struct{}, len(allowedGames))
		for _, game := range allowedGames {
			r.allowed[xxhash.Sum64String(game)] = struct{}{}
		}
	}

	return r
}

// Lookup returns the querier for a game type, or false when the type is
// unsupported or not in the allow-list.
func (r *Registry) Lookup(gameType string) (Querier, bool) {
	if r.allowed != nil {
		if _, ok := r.allowed[xxhash.Sum64String(gameType)]; !ok {
			return nil, false
		}
	}

	q, ok := r.queriers[gameType]
	return q, ok
}

// Register adds or replaces a querier for a game type.
func (r *Registry) Register(gameType string, q Querier) {
	r.queriers[gameType] = q
}
