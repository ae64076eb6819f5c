// Package recording provides a host.View that stands in for a real automation
// target. It answers member reads and calls from canned data, so scripts can be
// dry-run from the command line.
package recording

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/podhmo/pagescript/host"
)

// Config is the canned data of a Host, usually loaded from YAML.
type Config struct {
	// Values are data members, keyed by dotted path (e.g. "title", "viewport.width").
	Values map[string]any `yaml:"values"`
	// Responses are the results of method calls, keyed by dotted path.
	Responses map[string]any `yaml:"responses"`
	// Fail lists the method paths whose calls return an error.
	Fail []string `yaml:"fail"`
}

// Call is a recorded method call.
type Call struct {
	Path string
	Args []any
}

// Host is a host.View backed by a Config. Every path that is neither a value
// nor a prefix of one is a method. It is safe for concurrent use.
type Host struct {
	cfg Config

	mu    sync.Mutex
	calls []Call
}

var _ host.View = (*Host)(nil)

// New creates a Host.
func New(cfg Config) *Host {
	return &Host{cfg: cfg}
}

// Member implements host.View.
func (h *Host) Member(path string) (host.Member, error) {
	if v, ok := h.cfg.Values[path]; ok {
		return host.Member{Kind: host.MemberValue, Value: v}, nil
	}
	for key := range h.cfg.Values {
		if strings.HasPrefix(key, path+".") {
			return host.Member{Kind: host.MemberObject}, nil
		}
	}
	return host.Member{Kind: host.MemberMethod}, nil
}

// Call implements host.View. It records the call and answers from the canned responses.
func (h *Host) Call(ctx context.Context, path string, args []any) (any, error) {
	h.mu.Lock()
	h.calls = append(h.calls, Call{Path: path, Args: args})
	h.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if slices.Contains(h.cfg.Fail, path) {
		return nil, fmt.Errorf("%s failed", path)
	}
	return h.cfg.Responses[path], nil
}

// Calls returns the calls recorded so far.
func (h *Host) Calls() []Call {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.calls)
}
