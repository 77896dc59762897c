package mapping

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/bft-labs/lumux/internal/domain"
)

func pos(x, y, z float64) *domain.Position { return &domain.Position{X: x, Y: y, Z: z} }

var ringIDs = []string{"top_0", "top_1", "bottom_0", "bottom_1", "left_0", "left_1", "right_0", "right_1"}

func TestTargetPosition(t *testing.T) {
	ids := []string{"left_0", "left_1", "left_2", "top_0", "top_1", "top_2", "top_3", "right_0", "bottom_0"}
	tests := []struct {
		id   string
		x, z float64
	}{
		{id: "left_0", x: -1, z: 1},
		{id: "left_1", x: -1, z: 0},
		{id: "left_2", x: -1, z: -1},
		{id: "top_0", x: -1, z: 1},
		{id: "top_3", x: 1, z: 1},
		{id: "right_0", x: 1, z: 0},
		{id: "bottom_0", x: 0, z: -1},
	}
	for _, tt := range tests {
		x, z, ok := TargetPosition(tt.id, ids)
		if !ok || x != tt.x || z != tt.z {
			t.Errorf("TargetPosition(%s) = (%v, %v, %v), want (%v, %v)", tt.id, x, z, ok, tt.x, tt.z)
		}
	}
	if _, _, ok := TargetPosition("center", ids); ok {
		t.Error("TargetPosition accepted an unknown zone id")
	}
}

func TestBuildNearestChannel(t *testing.T) {
	ids := []string{
		"top_0", "top_1", "top_2",
		"bottom_0", "bottom_1", "bottom_2",
		"left_0", "left_1", "left_2",
		"right_0", "right_1", "right_2",
	}
	channels := []domain.ChannelInfo{
		{ID: 3, Position: pos(0, 0, -1)},  // bottom centre
		{ID: 0, Position: pos(-1, 0, 0)},  // left
		{ID: 1, Position: pos(1, 0, 0)},   // right
		{ID: 2, Position: pos(0, 0.5, 1)}, // top centre, depth ignored
	}
	m := Build(ids, channels)

	want := map[string]uint8{
		"top_1":    2,
		"bottom_1": 3,
		"left_1":   0,
		"right_1":  1,
		// Corners are equidistant from two channels; the lower id wins.
		"top_0":    0,
		"top_2":    1,
		"bottom_2": 1,
	}
	for id, ch := range want {
		if got, ok := m.Channel(id); !ok || got != ch {
			t.Errorf("%s -> %d, %v; want %d", id, got, ok, ch)
		}
	}
	if len(m.Zones()) != len(ids) {
		t.Errorf("%d zones mapped, want %d", len(m.Zones()), len(ids))
	}
}

func TestBuildTieGoesToLowestID(t *testing.T) {
	channels := []domain.ChannelInfo{
		{ID: 7, Position: pos(0, 0, 1)},
		{ID: 4, Position: pos(0, 0, 1)},
	}
	m := Build([]string{"top_0"}, channels)
	if ch, _ := m.Channel("top_0"); ch != 4 {
		t.Errorf("top_0 -> %d, want 4", ch)
	}
}

func TestBuildWithoutPositions(t *testing.T) {
	channels := []domain.ChannelInfo{{ID: 5}, {ID: 2}, {ID: 9}}
	m := Build(ringIDs, channels)
	for _, id := range ringIDs {
		if ch, ok := m.Channel(id); !ok || ch != 2 {
			t.Errorf("%s -> %d, %v; want first channel 2", id, ch, ok)
		}
	}
}

func TestBuildWithoutChannels(t *testing.T) {
	m := Build(ringIDs, nil)
	if len(m.Zones()) != 0 {
		t.Errorf("expected empty mapping, got %v", m.Zones())
	}
	if got := m.Aggregate(map[string]domain.DeviceColor{"top_0": {Brightness: 10}}); len(got) != 0 {
		t.Errorf("Aggregate() = %v, want empty", got)
	}
}

func TestAggregateAveragesSharedChannels(t *testing.T) {
	channels := []domain.ChannelInfo{{ID: 1, Position: pos(0, 0, 1)}}
	m := Build([]string{"top_0", "top_1", "top_2"}, channels)

	got := m.Aggregate(map[string]domain.DeviceColor{
		"top_0": {XY: domain.XY{X: 0.1, Y: 0.2}, Brightness: 30},
		"top_1": {XY: domain.XY{X: 0.4, Y: 0.5}, Brightness: 60},
		"top_2": {XY: domain.XY{X: 0.7, Y: 0.2}, Brightness: 90},
		"gone":  {XY: domain.XY{X: 1, Y: 1}, Brightness: 254},
	})
	want := map[uint8]domain.DeviceColor{
		1: {XY: domain.XY{X: 0.4, Y: 0.3}, Brightness: 60},
	}
	opt := cmp.Comparer(func(a, b float64) bool { d := a - b; return d < 1e-9 && d > -1e-9 })
	if diff := cmp.Diff(want, got, opt); diff != "" {
		t.Errorf("Aggregate() mismatch (-want +got):\n%s", diff)
	}
}

func TestCurrentDetectsStaleTopology(t *testing.T) {
	old := []domain.ChannelInfo{
		{ID: 0, Position: pos(-1, 0, 0)},
		{ID: 1, Position: pos(1, 0, 0)},
	}
	m := Build(ringIDs, old)
	if !m.Current(ringIDs, old) {
		t.Fatal("fresh mapping reported stale")
	}

	removed := old[:1]
	if m.Current(ringIDs, removed) {
		t.Error("mapping referencing a removed channel reported current")
	}

	added := append([]domain.ChannelInfo{}, old...)
	added = append(added, domain.ChannelInfo{ID: 2, Position: pos(0, 0, 1)})
	if m.Current(ringIDs, added) {
		t.Error("mapping missing a new channel reported current")
	}

	moved := []domain.ChannelInfo{
		{ID: 0, Position: pos(1, 0, 0)},
		{ID: 1, Position: pos(-1, 0, 0)},
	}
	if m.Current(ringIDs, moved) {
		t.Error("mapping with moved channels reported current")
	}

	if m.Current([]string{"top_0"}, old) {
		t.Error("mapping for different zones reported current")
	}

	var none *Mapping
	if none.Current(ringIDs, old) {
		t.Error("nil mapping reported current")
	}
}

func TestBuildGridLayout(t *testing.T) {
	ids := []string{"grid_0_0", "grid_0_1", "grid_1_0", "grid_1_1"}
	channels := []domain.ChannelInfo{
		{ID: 0, Position: pos(-1, 0, 1)},
		{ID: 1, Position: pos(1, 0, -1)},
	}
	m := Build(ids, channels)
	if ch, _ := m.Channel("grid_0_0"); ch != 0 {
		t.Errorf("grid_0_0 -> %d, want 0", ch)
	}
	if ch, _ := m.Channel("grid_1_1"); ch != 1 {
		t.Errorf("grid_1_1 -> %d, want 1", ch)
	}
}
