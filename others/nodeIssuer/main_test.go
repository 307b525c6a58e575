package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Lzww0608/geuui"
	"github.com/Lzww0608/geuui/internal/config"
)

type memoryRegistry struct {
	mu    sync.Mutex
	nodes map[string]NodeInfo
	saves int
}

func newMemoryRegistry() *memoryRegistry {
	return &memoryRegistry{nodes: make(map[string]NodeInfo)}
}

func (r *memoryRegistry) Load(key string) (NodeInfo, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	info, ok := r.nodes[key]
	return info, ok, nil
}

func (r *memoryRegistry) Save(key string, info NodeInfo, create bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.nodes[key]; ok == create {
		return errors.New("unexpected node state")
	}
	r.nodes[key] = info
	r.saves++
	return nil
}

func (r *memoryRegistry) saveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves
}

// fixClock makes nowMs return ms until the test ends.
func fixClock(t *testing.T, ms *int64) {
	t.Helper()
	orig := nowMs
	nowMs = func() int64 { return *ms }
	t.Cleanup(func() { nowMs = orig })
}

func testNodeConfig(t *testing.T, port int) config.NodeConfig {
	return config.NodeConfig{Service: "test", Port: port, CacheDir: t.TempDir()}
}

func newTestIssuer(t *testing.T, reg registry, cfg config.NodeConfig) *NodeIssuer {
	t.Helper()
	gen := geuui.NewGeneratorWithReader(bytes.NewReader(bytes.Repeat([]byte{0xcc}, 48*16)))
	n, err := NewNodeIssuer(reg, gen, cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewNodeIssuer() error = %v", err)
	}
	return n
}

func TestNewNodeIssuer_Register(t *testing.T) {
	now := Epoch + 1000
	fixClock(t, &now)

	reg := newMemoryRegistry()
	cfg := testNodeConfig(t, 5)
	n := newTestIssuer(t, reg, cfg)

	if n.workerID != 5 {
		t.Errorf("workerID = %d, want 5", n.workerID)
	}
	info, ok, _ := reg.Load("/geuui_node/test/5")
	if !ok {
		t.Fatal("node was not registered")
	}
	if info.WorkerID != 5 || info.LastTime != now || info.CreateTime != now {
		t.Errorf("registered info = %+v", info)
	}

	cached, err := n.loadLocalCache()
	if err != nil {
		t.Fatalf("loadLocalCache() error = %v", err)
	}
	if cached != info {
		t.Errorf("cached info = %+v, want %+v", cached, info)
	}
}

func TestNewNodeIssuer_RecoverFromRegistry(t *testing.T) {
	now := Epoch + 5000
	fixClock(t, &now)

	reg := newMemoryRegistry()
	reg.nodes["/geuui_node/test/8080"] = NodeInfo{WorkerID: 77, LastTime: Epoch + 4000, CreateTime: Epoch}

	n := newTestIssuer(t, reg, testNodeConfig(t, 8080))
	if n.workerID != 77 {
		t.Errorf("workerID = %d, want 77", n.workerID)
	}
	if info := reg.nodes["/geuui_node/test/8080"]; info.LastTime != now || info.CreateTime != Epoch {
		t.Errorf("updated info = %+v", info)
	}
}

func TestNewNodeIssuer_RecoverFromCache(t *testing.T) {
	now := Epoch + 5000
	fixClock(t, &now)

	cfg := testNodeConfig(t, 9000)
	cache := filepath.Join(cfg.CacheDir, ".geuui_node_9000")
	if err := os.WriteFile(cache, []byte(`{"last_time":1672531204000,"create_time":0,"worker_id":42}`), 0o644); err != nil {
		t.Fatal(err)
	}

	reg := newMemoryRegistry()
	n := newTestIssuer(t, reg, cfg)
	if n.workerID != 42 {
		t.Errorf("workerID = %d, want 42", n.workerID)
	}
	if _, ok := reg.nodes["/geuui_node/test/9000"]; !ok {
		t.Error("recovered node was not registered")
	}
}

func TestNewNodeIssuer_Refused(t *testing.T) {
	now := Epoch + 1000
	fixClock(t, &now)

	tests := []struct {
		name string
		info NodeInfo
		want error
	}{
		{"clock behind registry", NodeInfo{WorkerID: 1, LastTime: Epoch + 2000}, errClockBackwards},
		{"worker id too large", NodeInfo{WorkerID: WorkerIDMask + 1, LastTime: Epoch}, errBadWorkerID},
		{"negative worker id", NodeInfo{WorkerID: -1, LastTime: Epoch}, errBadWorkerID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := newMemoryRegistry()
			reg.nodes["/geuui_node/test/1"] = tt.info
			_, err := NewNodeIssuer(reg, geuui.NewGenerator(), testNodeConfig(t, 1), zerolog.Nop())
			if !errors.Is(err, tt.want) {
				t.Errorf("NewNodeIssuer() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestNextSnowflake_Layout(t *testing.T) {
	now := Epoch + 1000
	fixClock(t, &now)

	n := newTestIssuer(t, newMemoryRegistry(), testNodeConfig(t, 5))

	base := int64(1000)<<TimestampShift | 5<<WorkerIDShift
	for seq := int64(0); seq < 3; seq++ {
		id, err := n.NextSnowflake()
		if err != nil {
			t.Fatalf("NextSnowflake() error = %v", err)
		}
		if id != base|seq {
			t.Errorf("NextSnowflake() = %#x, want %#x", id, base|seq)
		}
	}

	now++
	id, err := n.NextSnowflake()
	if err != nil {
		t.Fatalf("NextSnowflake() error = %v", err)
	}
	if want := int64(1001)<<TimestampShift | 5<<WorkerIDShift; id != want {
		t.Errorf("NextSnowflake() after tick = %#x, want %#x", id, want)
	}
}

func TestNextSnowflake_SequenceExhausted(t *testing.T) {
	start := Epoch + 1000
	fixClock(t, &start)
	n := newTestIssuer(t, newMemoryRegistry(), testNodeConfig(t, 1))

	// the clock advances only after the issuer has polled it a few times
	calls := 0
	nowMs = func() int64 {
		calls++
		if calls > 3 {
			return start + 1
		}
		return start
	}

	n.lastTime = start
	n.sequence = SequenceMask

	id, err := n.NextSnowflake()
	if err != nil {
		t.Fatalf("NextSnowflake() error = %v", err)
	}
	if got := id >> TimestampShift; got != 1001 {
		t.Errorf("timestamp = %d, want 1001", got)
	}
	if got := id & SequenceMask; got != 0 {
		t.Errorf("sequence = %d, want 0", got)
	}
}

func TestNextSnowflake_ClockBackwards(t *testing.T) {
	now := Epoch + 1000
	fixClock(t, &now)
	n := newTestIssuer(t, newMemoryRegistry(), testNodeConfig(t, 1))

	if _, err := n.NextSnowflake(); err != nil {
		t.Fatal(err)
	}
	now -= maxBackwardWait + 1
	if _, err := n.NextSnowflake(); !errors.Is(err, errClockBackwards) {
		t.Errorf("NextSnowflake() error = %v, want %v", err, errClockBackwards)
	}
}

func TestNodeIssuer_Issue(t *testing.T) {
	now := Epoch + 1000
	fixClock(t, &now)
	n := newTestIssuer(t, newMemoryRegistry(), testNodeConfig(t, 3))

	id, err := n.Issue()
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	q, _ := id.Quarter(0)
	if q.Lo != 0 {
		t.Errorf("quarter 0 low bits = %#x, want 0", q.Lo)
	}
	want := int64(1000)<<TimestampShift | 3<<WorkerIDShift
	if got := SnowflakeOf(id); got != want {
		t.Errorf("SnowflakeOf() = %#x, want %#x", got, want)
	}
	for i := 1; i < geuui.NumQuarters; i++ {
		q, _ := id.Quarter(i)
		if q.Lo != 0xcccccccccccccccc || q.Hi != 0xcccccccccccccccc {
			t.Errorf("quarter %d = %v, want random fill", i, q)
		}
	}
}

func TestNodeIssuer_IssueOrdered(t *testing.T) {
	n := newTestIssuer(t, newMemoryRegistry(), testNodeConfig(t, 2))
	n.gen = geuui.NewGenerator()

	prev, err := n.Issue()
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 1000; i++ {
		id, err := n.Issue()
		if err != nil {
			t.Fatalf("Issue() error = %v", err)
		}
		if SnowflakeOf(id) <= SnowflakeOf(prev) {
			t.Fatalf("snowflake not increasing: %#x after %#x", SnowflakeOf(id), SnowflakeOf(prev))
		}
		if id.Compare(prev) <= 0 {
			t.Fatalf("EUUI not increasing at %d", i)
		}
		prev = id
	}
}

func TestNodeIssuer_Heartbeat(t *testing.T) {
	reg := newMemoryRegistry()
	n := newTestIssuer(t, reg, testNodeConfig(t, 4))
	before := reg.saveCount()

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		n.heartbeat(time.Millisecond, stop)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for reg.saveCount() < before+2 {
		select {
		case <-deadline:
			t.Fatal("heartbeat did not update the registry")
		case <-time.After(time.Millisecond):
		}
	}
	close(stop)
	<-done

	info, _, _ := reg.Load("/geuui_node/test/4")
	if info.CreateTime == 0 || info.CreateTime != n.createTime {
		t.Errorf("registry create_time = %d, want %d", info.CreateTime, n.createTime)
	}
	cached, err := n.loadLocalCache()
	if err != nil {
		t.Fatalf("loadLocalCache() error = %v", err)
	}
	if cached.CreateTime != n.createTime {
		t.Errorf("cached create_time = %d, want %d", cached.CreateTime, n.createTime)
	}
}
