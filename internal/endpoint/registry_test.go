package endpoint

import (
	"context"
	"errors"
	"testing"

	"github.com/arclight-labs/pmcore/internal/coordinator"
	"github.com/arclight-labs/pmcore/internal/domain"
	"github.com/arclight-labs/pmcore/internal/dvfs"
	"github.com/arclight-labs/pmcore/internal/notify"
	"github.com/arclight-labs/pmcore/internal/wakeup"
	"github.com/arclight-labs/pmcore/pkg/log"
)

type stubSuspend struct {
	calls []domain.SleepState
}

func (s *stubSuspend) Suspend(ctx context.Context, state domain.SleepState) error {
	s.calls = append(s.calls, state)
	return nil
}

type stubHibernate struct {
	calls int
}

func (s *stubHibernate) Hibernate(ctx context.Context) error {
	s.calls++
	return nil
}

type stubTable struct {
	freqs []int
}

func (t *stubTable) Resolve(requested int, kind domain.LimitKind) (int, bool) {
	switch kind {
	case domain.LimitFloor:
		for _, f := range t.freqs {
			if f >= requested {
				return f, true
			}
		}
	case domain.LimitCeiling:
		for i := len(t.freqs) - 1; i >= 0; i-- {
			if t.freqs[i] <= requested {
				return t.freqs[i], true
			}
		}
	}
	return 0, false
}

func (t *stubTable) Frequencies() []int { return t.freqs }

type stubQoS struct{}

func (stubQoS) UpdateRequirement(client string, freq int) error { return nil }
func (stubQoS) DefaultValue() int                               { return 200000 }

type stubRefresher struct{}

func (stubRefresher) RefreshAll() {}

type fixture struct {
	registry *Registry
	counter  *wakeup.Counter
	suspend  *stubSuspend
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	caps := coordinator.Capabilities{
		ValidStates: []domain.SleepState{domain.StateStandby, domain.StateMem},
		Hibernate:   true,
		TestLevels:  true,
		DVFS:        true,
	}
	sus := &stubSuspend{}
	coord := coordinator.New(caps, sus, &stubHibernate{}, notify.NewBus(), log.NewNoopLogger())
	counter := wakeup.NewCounter()
	table := &stubTable{freqs: []int{200000, 400000, 600000, 800000}}
	arb := dvfs.NewArbiter(table, stubQoS{}, stubRefresher{}, "power", log.NewNoopLogger())

	return &fixture{
		registry: NewRegistry(coord, counter, arb),
		counter:  counter,
		suspend:  sus,
	}
}

func (f *fixture) read(t *testing.T, name string) string {
	t.Helper()
	e, ok := f.registry.Lookup(name)
	if !ok {
		t.Fatalf("endpoint %q not registered", name)
	}
	out, err := e.Read(context.Background())
	if err != nil {
		t.Fatalf("read %q: %v", name, err)
	}
	return out
}

func (f *fixture) write(t *testing.T, name, token string) error {
	t.Helper()
	e, ok := f.registry.Lookup(name)
	if !ok {
		t.Fatalf("endpoint %q not registered", name)
	}
	return e.Write(context.Background(), []byte(token))
}

func TestRegistry_Names(t *testing.T) {
	f := newFixture(t)

	want := []string{"state", "wakeup_count", "async_enabled", "debug_test_level", "freq_ceiling", "freq_floor", "freq_table"}
	got := f.registry.Names()
	if len(got) != len(want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Names() = %v, want %v", got, want)
		}
	}
}

func TestRegistry_CapabilityGating(t *testing.T) {
	caps := coordinator.Capabilities{
		ValidStates: []domain.SleepState{domain.StateMem},
	}
	coord := coordinator.New(caps, &stubSuspend{}, &stubHibernate{}, notify.NewBus(), log.NewNoopLogger())
	r := NewRegistry(coord, wakeup.NewCounter(), nil)

	for _, name := range []string{"debug_test_level", "freq_ceiling", "freq_floor", "freq_table"} {
		if _, ok := r.Lookup(name); ok {
			t.Errorf("endpoint %q registered despite missing capability", name)
		}
	}
	for _, name := range []string{"state", "wakeup_count", "async_enabled"} {
		if _, ok := r.Lookup(name); !ok {
			t.Errorf("endpoint %q missing", name)
		}
	}
}

func TestEndpoint_StateRead(t *testing.T) {
	f := newFixture(t)

	if got, want := f.read(t, "state"), "standby mem disk\n"; got != want {
		t.Errorf("state read = %q, want %q", got, want)
	}
}

func TestEndpoint_StateWrite(t *testing.T) {
	f := newFixture(t)

	if err := f.write(t, "state", "mem\n"); err != nil {
		t.Fatalf("state write mem = %v, want nil", err)
	}
	if len(f.suspend.calls) != 1 || f.suspend.calls[0] != domain.StateMem {
		t.Errorf("suspend calls = %v, want [mem]", f.suspend.calls)
	}

	err := f.write(t, "state", "warpdrive")
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("state write unknown = %v, want ErrInvalidArgument", err)
	}
}

func TestEndpoint_WakeupCount(t *testing.T) {
	f := newFixture(t)

	if got, want := f.read(t, "wakeup_count"), "0\n"; got != want {
		t.Errorf("wakeup_count read = %q, want %q", got, want)
	}

	if err := f.write(t, "wakeup_count", "0\n"); err != nil {
		t.Errorf("commit current value = %v, want nil", err)
	}

	f.counter.BeginEvent()
	f.counter.EndEvent()

	if err := f.write(t, "wakeup_count", "0"); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("commit stale value = %v, want ErrConflict", err)
	}
	if got, want := f.read(t, "wakeup_count"), "1\n"; got != want {
		t.Errorf("wakeup_count read = %q, want %q", got, want)
	}

	if err := f.write(t, "wakeup_count", "many"); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("commit garbage = %v, want ErrInvalidArgument", err)
	}
}

func TestEndpoint_WakeupCountReadInterrupted(t *testing.T) {
	f := newFixture(t)

	f.counter.BeginEvent()
	defer f.counter.EndEvent()

	e, _ := f.registry.Lookup("wakeup_count")
	_, err := e.Read(context.Background())
	if !errors.Is(err, domain.ErrInterrupted) {
		t.Errorf("read during event record = %v, want ErrInterrupted", err)
	}
}

func TestEndpoint_AsyncEnabled(t *testing.T) {
	f := newFixture(t)

	if got, want := f.read(t, "async_enabled"), "1\n"; got != want {
		t.Errorf("async_enabled read = %q, want %q", got, want)
	}
	if err := f.write(t, "async_enabled", "0\n"); err != nil {
		t.Fatalf("async_enabled write 0 = %v", err)
	}
	if got, want := f.read(t, "async_enabled"), "0\n"; got != want {
		t.Errorf("async_enabled read = %q, want %q", got, want)
	}
	if err := f.write(t, "async_enabled", "2"); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("async_enabled write 2 = %v, want ErrInvalidArgument", err)
	}
}

func TestEndpoint_DebugTestLevel(t *testing.T) {
	f := newFixture(t)

	want := "[none] core processors platform devices freezer\n"
	if got := f.read(t, "debug_test_level"); got != want {
		t.Errorf("debug_test_level read = %q, want %q", got, want)
	}

	if err := f.write(t, "debug_test_level", "devices\n"); err != nil {
		t.Fatalf("debug_test_level write = %v", err)
	}
	want = "none core processors platform [devices] freezer\n"
	if got := f.read(t, "debug_test_level"); got != want {
		t.Errorf("debug_test_level read = %q, want %q", got, want)
	}
}

func TestEndpoint_FreqLimits(t *testing.T) {
	f := newFixture(t)

	if got, want := f.read(t, "freq_ceiling"), "-1\n"; got != want {
		t.Errorf("freq_ceiling read = %q, want %q", got, want)
	}
	if got, want := f.read(t, "freq_floor"), "-1\n"; got != want {
		t.Errorf("freq_floor read = %q, want %q", got, want)
	}

	if err := f.write(t, "freq_ceiling", "700000\n"); err != nil {
		t.Fatalf("freq_ceiling write = %v", err)
	}
	if got, want := f.read(t, "freq_ceiling"), "600000\n"; got != want {
		t.Errorf("freq_ceiling read = %q, want %q", got, want)
	}

	if err := f.write(t, "freq_floor", "300000"); err != nil {
		t.Fatalf("freq_floor write = %v", err)
	}
	if got, want := f.read(t, "freq_floor"), "400000\n"; got != want {
		t.Errorf("freq_floor read = %q, want %q", got, want)
	}

	if err := f.write(t, "freq_ceiling", "-1"); err != nil {
		t.Fatalf("freq_ceiling unlock = %v", err)
	}
	if got, want := f.read(t, "freq_ceiling"), "-1\n"; got != want {
		t.Errorf("freq_ceiling read = %q, want %q", got, want)
	}

	if err := f.write(t, "freq_floor", "not-a-number"); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("freq_floor garbage write = %v, want ErrInvalidArgument", err)
	}
}

func TestEndpoint_FreqTable(t *testing.T) {
	f := newFixture(t)

	if got, want := f.read(t, "freq_table"), "800000 600000 400000 200000\n"; got != want {
		t.Errorf("freq_table read = %q, want %q", got, want)
	}

	if err := f.write(t, "freq_floor", "400000"); err != nil {
		t.Fatalf("freq_floor write = %v", err)
	}
	if err := f.write(t, "freq_ceiling", "600000"); err != nil {
		t.Fatalf("freq_ceiling write = %v", err)
	}
	if got, want := f.read(t, "freq_table"), "600000 400000\n"; got != want {
		t.Errorf("bounded freq_table read = %q, want %q", got, want)
	}

	if err := f.write(t, "freq_table", "123"); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("freq_table write = %v, want ErrInvalidArgument (read-only)", err)
	}
}
