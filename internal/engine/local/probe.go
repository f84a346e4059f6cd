package local

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"
)

const dialTimeout = 200 * time.Millisecond

func (i *Instance) startProbe() {
	if len(i.cfg.Ports) == 0 {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	i.mu.Lock()
	i.cancel = cancel
	i.probeDone = make(chan struct{})
	done := i.probeDone
	i.mu.Unlock()

	go i.probe(ctx, done)
}

// probe polls the configured ports. A port that starts accepting
// connections raises server-ready; once it stops, the next start raises
// it again.
func (i *Instance) probe(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(i.cfg.ProbeInterval)
	defer ticker.Stop()

	up := make(map[int]bool, len(i.cfg.Ports))
	for {
		for _, port := range i.cfg.Ports {
			listening := portOpen(ctx, port)
			if listening && !up[port] {
				i.emitServerReady(port, fmt.Sprintf(i.cfg.URLTemplate, port))
			}
			up[port] = listening
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func portOpen(ctx context.Context, port int) bool {
	d := net.Dialer{Timeout: dialTimeout}
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
