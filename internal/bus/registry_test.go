package bus

import (
	"testing"

	"github.com/nerrad567/temptick-core/internal/scalar"
)

// ─── Mock Dependencies ──────────────────────────────────────────────

type recordingConsumer struct {
	claim bool
	calls []string
}

func (c *recordingConsumer) HandleEvent(code string, _ scalar.Value) bool {
	c.calls = append(c.calls, code)
	return c.claim
}

// ─── Tests ──────────────────────────────────────────────────────────

func TestNotify_StopsAtFirstClaim(t *testing.T) {
	tests := []struct {
		name      string
		claimAt   int // index of the first claiming observer, -1 for none
		wantCalls []int
	}{
		{"first claims", 0, []int{1, 0, 0, 0}},
		{"third claims", 2, []int{1, 1, 1, 0}},
		{"last claims", 3, []int{1, 1, 1, 1}},
		{"nobody claims", -1, []int{1, 1, 1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry(0)
			obs := make([]*recordingConsumer, 4)
			for i := range obs {
				obs[i] = &recordingConsumer{claim: i >= tt.claimAt && tt.claimAt >= 0}
				r.AddObserver(obs[i])
			}

			claimed := r.Notify("/x", scalar.Bool(true))
			if claimed != (tt.claimAt >= 0) {
				t.Errorf("Notify() = %v, want %v", claimed, tt.claimAt >= 0)
			}
			for i, want := range tt.wantCalls {
				if got := len(obs[i].calls); got != want {
					t.Errorf("observer %d called %d times, want %d", i, got, want)
				}
			}
		})
	}
}

func TestBroadcast_ReachesEveryObserver(t *testing.T) {
	r := NewRegistry(0)
	a := &recordingConsumer{claim: true}
	b := &recordingConsumer{claim: true}
	c := &recordingConsumer{}
	r.AddObserver(a)
	r.AddObserver(b)
	r.AddObserver(c)

	if got := r.Broadcast("/sensors/data/ds18b20/temp/T1", scalar.Float(21)); got != 2 {
		t.Errorf("Broadcast() claims = %d, want 2", got)
	}
	for i, o := range []*recordingConsumer{a, b, c} {
		if len(o.calls) != 1 {
			t.Errorf("observer %d called %d times, want 1", i, len(o.calls))
		}
	}
}

func TestAddObserver_NilAndCapacity(t *testing.T) {
	r := NewRegistry(2)
	if r.AddObserver(nil) {
		t.Error("AddObserver(nil) = true")
	}
	r.AddObserver(&recordingConsumer{})
	r.AddObserver(&recordingConsumer{})
	if r.AddObserver(&recordingConsumer{}) {
		t.Error("AddObserver() past capacity = true")
	}
	if r.Len() != 2 {
		t.Errorf("Len() = %d, want 2", r.Len())
	}
}

func TestTap_NeverClaims(t *testing.T) {
	var seen []string
	r := NewRegistry(0)
	r.AddObserver(Tap(func(code string, _ scalar.Value) { seen = append(seen, code) }))
	after := &recordingConsumer{claim: true}
	r.AddObserver(after)

	if !r.Notify("/relay/data/relay_flag", scalar.Bool(true)) {
		t.Error("Notify() not claimed by observer after tap")
	}
	if len(seen) != 1 || len(after.calls) != 1 {
		t.Errorf("tap saw %d, next observer saw %d; want 1, 1", len(seen), len(after.calls))
	}
}

func TestHasPrefix(t *testing.T) {
	tests := []struct {
		code, prefix string
		want         bool
	}{
		{"/relay/data", "/relay/data", true},
		{"/relay/data/relay_flag", "/relay/data", true},
		{"/relay/database", "/relay/data", false},
		{"/sensors/data/ds18b20/temp/T1", SensorTempRoot, true},
		{"/system", "/system/settings", false},
	}
	for _, tt := range tests {
		if got := HasPrefix(tt.code, tt.prefix); got != tt.want {
			t.Errorf("HasPrefix(%q, %q) = %v, want %v", tt.code, tt.prefix, got, tt.want)
		}
	}
}

func TestSensorTempCode(t *testing.T) {
	if got := SensorTempCode("T1"); got != "/sensors/data/ds18b20/temp/T1" {
		t.Errorf("SensorTempCode = %q", got)
	}
}
