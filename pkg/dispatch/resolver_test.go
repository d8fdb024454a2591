package dispatch

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/procaddr/procaddr-go/pkg/entrypoint"
	"github.com/procaddr/procaddr-go/pkg/log"
)

type mockEventLogger struct {
	mock.Mock
}

func (m *mockEventLogger) Log(event log.Event) {
	m.Called(event)
}

func newTestResolver(t *testing.T, config ResolverConfig) *Resolver {
	t.Helper()
	idx := testIndex(t)
	return NewResolver(idx, testTables(t, idx), config)
}

func TestResolver_Resolve(t *testing.T) {
	r := newTestResolver(t, ResolverConfig{})
	draw := mustID(t, r.Index(), "vkCmdDraw")
	wait := mustID(t, r.Index(), "vkDeviceWaitIdle")

	tests := []struct {
		name string
		id   int
		dev  *DeviceInfo
		want any
	}{
		{"no device uses base", draw, nil, "anv_CmdDraw"},
		{"gen9 override", draw, &DeviceInfo{Gen: 9}, "gen9_CmdDraw"},
		{"gen8 falls back", draw, &DeviceInfo{Gen: 8}, "anv_CmdDraw"},
		{"haswell override", draw, &DeviceInfo{Gen: 7, IsHaswell: true}, "gen75_CmdDraw"},
		{"ivybridge falls back", draw, &DeviceInfo{Gen: 7}, "anv_CmdDraw"},
		{"gen10 falls back", wait, &DeviceInfo{Gen: 10}, "anv_DeviceWaitIdle"},
		{"gen9 device entry", wait, &DeviceInfo{Gen: 9}, "gen9_DeviceWaitIdle"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, call(r.Resolve(tt.id, tt.dev)))
		})
	}
}

func TestResolver_BaseOnlyEntryOnEveryGeneration(t *testing.T) {
	r := newTestResolver(t, ResolverConfig{})
	id := mustID(t, r.Index(), "vkCreateDevice")

	devices := []DeviceInfo{
		{Gen: 7},
		{Gen: 7, IsHaswell: true},
		{Gen: 8},
		{Gen: 9},
		{Gen: 10},
	}
	for _, dev := range devices {
		t.Run(dev.String(), func(t *testing.T) {
			assert.Equal(t, "anv_CreateDevice", call(r.Resolve(id, &dev)))
			assert.Equal(t, "anv_CreateDevice", call(r.Lookup("vkCreateDevice", &dev)))
		})
	}
	assert.Equal(t, "anv_CreateDevice", call(r.Resolve(id, nil)))
}

func TestResolver_ResolveEmptyEverywhere(t *testing.T) {
	r := newTestResolver(t, ResolverConfig{})
	id := mustID(t, r.Index(), "vkEnumerateInstanceVersion")

	assert.Nil(t, r.Resolve(id, nil))
	assert.Nil(t, r.Resolve(id, &DeviceInfo{Gen: 9}))
	assert.Nil(t, r.Resolve(-1, nil))
	assert.Nil(t, r.Resolve(1000, &DeviceInfo{Gen: 9}))
}

func TestResolver_ResolveUnsupportedGenerationPanics(t *testing.T) {
	r := newTestResolver(t, ResolverConfig{})
	assert.Panics(t, func() {
		r.Resolve(0, &DeviceInfo{Gen: 5})
	})
}

func TestResolver_IsEnabled(t *testing.T) {
	r := newTestResolver(t, ResolverConfig{})
	idx := r.Index()

	none := NewExtensionSet()
	maint := NewExtensionSet("VK_KHR_maintenance1")
	wayland := NewExtensionSet("VK_KHR_wayland_surface")

	tests := []struct {
		name     string
		entry    string
		core     uint32
		instance ExtensionSet
		device   *ExtensionSet
		want     bool
	}{
		{"core 1.0 on 1.0", "vkCreateInstance", v10, none, nil, true},
		{"core 1.1 on 1.0", "vkEnumerateInstanceVersion", v10, none, nil, false},
		{"core 1.1 on 1.1", "vkEnumerateInstanceVersion", v11, none, nil, true},
		{"core 1.0 on 1.1", "vkCmdDraw", v11, none, &none, true},
		{"instance ext missing", "vkCreateWaylandSurfaceKHR", v10, none, nil, false},
		{"instance ext present", "vkCreateWaylandSurfaceKHR", v10, wayland, nil, true},
		{"device ext, no device", "vkTrimCommandPoolKHR", v10, none, nil, true},
		{"device ext, device without it", "vkTrimCommandPoolKHR", v10, none, &none, false},
		{"device ext, device with it", "vkTrimCommandPoolKHR", v10, none, &maint, true},
		{"device ext in instance set only", "vkTrimCommandPoolKHR", v10, maint, &none, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := mustID(t, idx, tt.entry)
			assert.Equal(t, tt.want, r.IsEnabled(id, tt.core, tt.instance, tt.device))
		})
	}
}

func TestResolver_IsEnabledOutOfRange(t *testing.T) {
	r := newTestResolver(t, ResolverConfig{})
	assert.False(t, r.IsEnabled(-1, v11, ExtensionSet{}, nil))
	assert.False(t, r.IsEnabled(r.Index().Len(), v11, ExtensionSet{}, nil))
}

func TestResolver_Lookup(t *testing.T) {
	r := newTestResolver(t, ResolverConfig{})

	assert.Equal(t, "anv_CreateDevice", call(r.Lookup("vkCreateDevice", nil)))
	assert.Equal(t, "gen9_CmdDraw", call(r.Lookup("vkCmdDraw", &DeviceInfo{Gen: 9})))
	assert.Nil(t, r.Lookup("vkNope", nil))
	assert.Nil(t, r.Lookup("", &DeviceInfo{Gen: 9}))
}

func TestResolver_LookupEnabled(t *testing.T) {
	r := newTestResolver(t, ResolverConfig{})
	dev := NewExtensionSet()
	ctx := Context{CoreVersion: v10, Device: &dev}

	assert.Equal(t, "anv_CmdDraw", call(r.LookupEnabled("vkCmdDraw", &DeviceInfo{Gen: 8}, ctx)))
	assert.Nil(t, r.LookupEnabled("vkTrimCommandPoolKHR", &DeviceInfo{Gen: 8}, ctx))
	assert.Nil(t, r.LookupEnabled("vkNope", nil, ctx))

	dev.Enable("VK_KHR_maintenance1")
	assert.Equal(t, "anv_TrimCommandPoolKHR", call(r.LookupEnabled("vkTrimCommandPoolKHR", &DeviceInfo{Gen: 8}, ctx)))
}

func TestResolver_LookupLogsEvents(t *testing.T) {
	events := &mockEventLogger{}
	events.On("Log", mock.MatchedBy(func(e log.Event) bool {
		return e.Lookup != nil && e.Lookup.Name == "vkCmdDraw" && e.Lookup.Found && !e.Lookup.Enabled &&
			e.Lookup.Layer == "gen9" && !e.Lookup.Fallback && e.BuildID == "build-7"
	})).Once()
	events.On("Log", mock.MatchedBy(func(e log.Event) bool {
		return e.Lookup != nil && e.Lookup.Name == "vkCmdDraw" && e.Lookup.Layer == "anv" && e.Lookup.Fallback
	})).Once()
	events.On("Log", mock.MatchedBy(func(e log.Event) bool {
		return e.Lookup != nil && e.Lookup.Name == "vkNope" && !e.Lookup.Found && e.Lookup.ID == -1 &&
			e.Stage == log.StageResolve && e.Category == log.CategoryLookup
	})).Once()

	r := newTestResolver(t, ResolverConfig{EventLogger: events, BuildID: "build-7"})
	r.Lookup("vkCmdDraw", &DeviceInfo{Gen: 9})
	r.Lookup("vkCmdDraw", &DeviceInfo{Gen: 8})
	r.Lookup("vkNope", nil)

	events.AssertExpectations(t)
}

func TestResolver_LookupEnabledLogsDisabled(t *testing.T) {
	events := &mockEventLogger{}
	events.On("Log", mock.MatchedBy(func(e log.Event) bool {
		return e.Lookup != nil && e.Lookup.Found && !e.Lookup.Enabled && e.Lookup.Layer == ""
	})).Once()

	r := newTestResolver(t, ResolverConfig{EventLogger: events})
	none := NewExtensionSet()
	r.LookupEnabled("vkTrimCommandPoolKHR", nil, Context{CoreVersion: v10, Device: &none})

	events.AssertExpectations(t)
}

func TestResolver_LookupEnabledLogsGated(t *testing.T) {
	events := &mockEventLogger{}
	events.On("Log", mock.MatchedBy(func(e log.Event) bool {
		return e.Lookup != nil && e.Lookup.Name == "vkCmdDraw" && e.Lookup.Found && e.Lookup.Enabled &&
			e.Lookup.Layer == "gen9"
	})).Once()

	r := newTestResolver(t, ResolverConfig{EventLogger: events})
	p := r.LookupEnabled("vkCmdDraw", &DeviceInfo{Gen: 9}, Context{CoreVersion: v10})
	assert.Equal(t, "gen9_CmdDraw", call(p))

	events.AssertExpectations(t)
}

func TestResolver_DebugLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	r := newTestResolver(t, ResolverConfig{Logger: logger})
	r.Lookup("vkMissing", nil)

	assert.True(t, strings.Contains(buf.String(), "unknown entry point"), buf.String())
	assert.True(t, strings.Contains(buf.String(), "vkMissing"))
}

func TestResolver_NilTables(t *testing.T) {
	idx := testIndex(t)
	r := NewResolver(idx, nil, ResolverConfig{})

	id, ok := r.IndexOf("vkCmdDraw")
	require.True(t, ok)
	assert.Nil(t, r.Resolve(id, nil))
	assert.NotNil(t, r.Trampoline("vkCmdDraw"))
}

func TestResolver_ConcurrentLookups(t *testing.T) {
	r := newTestResolver(t, ResolverConfig{EventLogger: log.NoopLogger{}})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(gen int) {
			defer wg.Done()
			dev := &DeviceInfo{Gen: 7 + gen%4}
			for j := 0; j < 500; j++ {
				if r.Lookup("vkCmdDraw", dev) == nil {
					t.Error("vkCmdDraw resolved to nil")
					return
				}
				if r.Lookup("vkNope", dev) != nil {
					t.Error("unknown name resolved")
					return
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestResolver_ThreeEntryScenario(t *testing.T) {
	c := entrypoint.NewCatalog()
	for _, name := range []string{"alpha", "beta", "gamma"} {
		require.NoError(t, c.Add(entrypoint.Descriptor{Name: name}))
	}
	idx, err := entrypoint.Compile(c, entrypoint.WithHashSize(8))
	require.NoError(t, err)

	b := NewTableBuilder(idx)
	require.NoError(t, b.Register(LayerBase, "alpha", named("alpha_impl")))
	tables, err := b.Build()
	require.NoError(t, err)
	r := NewResolver(idx, tables, ResolverConfig{})

	id, ok := r.IndexOf("beta")
	require.True(t, ok)
	assert.Equal(t, 1, id)
	assert.Nil(t, r.Lookup("delta", nil))

	first := r.Lookup("alpha", nil)
	require.NotNil(t, first)
	assert.Equal(t, "alpha_impl", call(first))
	for i := 0; i < 3; i++ {
		assert.Equal(t, "alpha_impl", call(r.Lookup("alpha", nil)))
	}
	assert.Nil(t, r.Lookup("gamma", nil))
}
