// Package endpoint implements the control-surface endpoints: one named
// read/write pair per surface, speaking newline-terminated text tokens.
//
// The registry is transport-neutral. Whatever carries the bytes (the
// daemon's HTTP server, a unix socket, a test harness) resolves a name
// and calls Read or Write; the text formats here are the contract.
package endpoint

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/arclight-labs/pmcore/internal/coordinator"
	"github.com/arclight-labs/pmcore/internal/domain"
	"github.com/arclight-labs/pmcore/internal/dvfs"
	"github.com/arclight-labs/pmcore/internal/wakeup"
)

// Endpoint is one control surface. Read is total except where noted in
// the surface's own contract; Write returns a domain error on rejection.
type Endpoint struct {
	Name  string
	Read  func(ctx context.Context) (string, error)
	Write func(ctx context.Context, token []byte) error
}

// Registry holds the endpoints the platform capabilities expose, in a
// stable order.
type Registry struct {
	ordered []*Endpoint
	byName  map[string]*Endpoint
}

// NewRegistry builds the endpoint set for the given coordinator,
// wakeup counter, and arbiter. Surfaces gated by an absent capability
// are not registered at all. arb may be nil when DVFS is off.
func NewRegistry(coord *coordinator.Coordinator, counter *wakeup.Counter, arb *dvfs.Arbiter) *Registry {
	r := &Registry{byName: make(map[string]*Endpoint)}
	caps := coord.Capabilities()

	r.add(&Endpoint{
		Name:  "state",
		Read:  func(ctx context.Context) (string, error) { return readStates(coord), nil },
		Write: coord.RequestTransition,
	})

	r.add(&Endpoint{
		Name: "wakeup_count",
		Read: func(ctx context.Context) (string, error) {
			count, err := counter.Read()
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%d\n", count), nil
		},
		Write: func(ctx context.Context, token []byte) error {
			val, err := strconv.ParseUint(strings.TrimSpace(string(token)), 10, 64)
			if err != nil {
				return domain.ErrInvalidArgument
			}
			return counter.CommitBaseline(val)
		},
	})

	r.add(&Endpoint{
		Name: "async_enabled",
		Read: func(ctx context.Context) (string, error) {
			if coord.AsyncEnabled() {
				return "1\n", nil
			}
			return "0\n", nil
		},
		Write: func(ctx context.Context, token []byte) error {
			switch strings.TrimSpace(string(token)) {
			case "0":
				coord.SetAsyncEnabled(false)
			case "1":
				coord.SetAsyncEnabled(true)
			default:
				return domain.ErrInvalidArgument
			}
			return nil
		},
	})

	if caps.TestLevels {
		r.add(&Endpoint{
			Name: "debug_test_level",
			Read: func(ctx context.Context) (string, error) { return readTestLevels(coord), nil },
			Write: func(ctx context.Context, token []byte) error {
				return coord.SetTestLevel(token)
			},
		})
	}

	if caps.DVFS && arb != nil {
		r.add(&Endpoint{
			Name: "freq_ceiling",
			Read: func(ctx context.Context) (string, error) {
				return fmt.Sprintf("%d\n", arb.Ceiling()), nil
			},
			Write: func(ctx context.Context, token []byte) error {
				val, err := parseLimit(token)
				if err != nil {
					return err
				}
				return arb.SetCeiling(val)
			},
		})
		r.add(&Endpoint{
			Name: "freq_floor",
			Read: func(ctx context.Context) (string, error) {
				return fmt.Sprintf("%d\n", arb.Floor()), nil
			},
			Write: func(ctx context.Context, token []byte) error {
				val, err := parseLimit(token)
				if err != nil {
					return err
				}
				return arb.SetFloor(val)
			},
		})
		r.add(&Endpoint{
			Name: "freq_table",
			Read: func(ctx context.Context) (string, error) { return readTable(arb), nil },
			Write: func(ctx context.Context, token []byte) error {
				return domain.ErrInvalidArgument
			},
		})
	}

	return r
}

func (r *Registry) add(e *Endpoint) {
	r.ordered = append(r.ordered, e)
	r.byName[e.Name] = e
}

// Names returns the endpoint names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.ordered))
	for i, e := range r.ordered {
		names[i] = e.Name
	}
	return names
}

// Lookup resolves an endpoint by name.
func (r *Registry) Lookup(name string) (*Endpoint, bool) {
	e, ok := r.byName[name]
	return e, ok
}

// readStates renders the supported state names space-separated with the
// last one newline-terminated.
func readStates(coord *coordinator.Coordinator) string {
	states := coord.SupportedStates()
	if len(states) == 0 {
		return ""
	}
	names := make([]string, len(states))
	for i, s := range states {
		names[i] = s.String()
	}
	return strings.Join(names, " ") + "\n"
}

// readTestLevels renders every level name space-separated, the current
// one bracket-marked, newline-terminated.
func readTestLevels(coord *coordinator.Coordinator) string {
	current := coord.TestLevel()
	var b strings.Builder
	for i, l := range domain.TestLevels() {
		if i > 0 {
			b.WriteByte(' ')
		}
		if l == current {
			b.WriteByte('[')
			b.WriteString(l.String())
			b.WriteByte(']')
		} else {
			b.WriteString(l.String())
		}
	}
	b.WriteByte('\n')
	return b.String()
}

// readTable renders the bounded frequency table descending,
// space-separated, newline-terminated.
func readTable(arb *dvfs.Arbiter) string {
	freqs := arb.Table()
	var b strings.Builder
	for i, f := range freqs {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.Itoa(f))
	}
	b.WriteByte('\n')
	return b.String()
}

// parseLimit parses a decimal frequency request, accepting the -1
// unconstrained sentinel.
func parseLimit(token []byte) (int, error) {
	val, err := strconv.Atoi(strings.TrimSpace(string(token)))
	if err != nil {
		return 0, domain.ErrInvalidArgument
	}
	return val, nil
}
