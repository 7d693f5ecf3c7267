// Package limit protects the server from abusive clients: per-address
// connection admission with a permanent ban list, and a sliding-window
// event rate limiter with a background sweep.
package limit

import (
	"sync"

	"github.com/rs/zerolog"
)

// GatewayConfig carries the admission caps.
type GatewayConfig struct {
	// ConnLimit caps the number of distinct tracked addresses.
	ConnLimit int
	// BanLimit stops all admission once the ban set reaches this size.
	BanLimit int
	// AddrConnLimit caps open connections per single address; exceeding it
	// gets the address banned.
	AddrConnLimit int
}

// Gateway is the sole gate between raw transport connections and session
// admission. It counts open connections per source address and keeps a ban
// set that only grows for the life of the process.
type Gateway struct {
	mu     sync.Mutex
	conns  map[string]int
	banned map[string]struct{}

	cfg GatewayConfig
	log *zerolog.Logger
}

// NewGateway constructs an admission gateway.
func NewGateway(cfg GatewayConfig, logger *zerolog.Logger) *Gateway {
	return &Gateway{
		conns:  make(map[string]int),
		banned: make(map[string]struct{}),
		cfg:    cfg,
		log:    logger,
	}
}

// HandleConnect decides whether a new connection from addr is admitted and,
// when it is, records it. An address that hits its own connection cap is
// banned as a side effect. Once the ban set is saturated nothing is
// admitted at all rather than letting abusers slip through untracked.
func (g *Gateway) HandleConnect(addr string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.banned[addr]; ok {
		return false
	}
	if len(g.conns) >= g.cfg.ConnLimit {
		return false
	}
	if len(g.banned) >= g.cfg.BanLimit {
		g.log.Warn().Str("addr", addr).Msg("ban table full, refusing connection")
		return false
	}

	if n, ok := g.conns[addr]; ok {
		if n >= g.cfg.AddrConnLimit {
			g.banned[addr] = struct{}{}
			g.log.Warn().Str("addr", addr).Int("open", n).Msg("address exceeded connection cap, banned")
			return false
		}
		g.conns[addr] = n + 1
	} else {
		g.conns[addr] = 1
	}
	return true
}

// HandleDisconnect releases one connection slot for addr, dropping the
// entry at zero. Every disconnect must match an admitted connect; an
// untracked address here is a bug in the caller, logged rather than
// surfaced to the client.
func (g *Gateway) HandleDisconnect(addr string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	n, ok := g.conns[addr]
	if !ok {
		g.log.Error().Str("addr", addr).Msg("disconnect for untracked address")
		return
	}
	if n <= 1 {
		delete(g.conns, addr)
		return
	}
	g.conns[addr] = n - 1
}

// Ban adds addr to the ban set. Banning twice is harmless; there is no
// unban.
func (g *Gateway) Ban(addr string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.banned[addr] = struct{}{}
}

// IsBanned reports whether addr is banned.
func (g *Gateway) IsBanned(addr string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.banned[addr]
	return ok
}

// OpenConns returns the recorded open-connection count for addr.
func (g *Gateway) OpenConns(addr string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.conns[addr]
}

// Reset clears all counters and bans.
func (g *Gateway) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.conns = make(map[string]int)
	g.banned = make(map[string]struct{})
}
