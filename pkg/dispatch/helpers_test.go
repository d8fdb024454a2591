package dispatch

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/procaddr/procaddr-go/pkg/entrypoint"
	"github.com/procaddr/procaddr-go/pkg/version"
)

var (
	v10 = uint32(version.Make(1, 0, 0))
	v11 = uint32(version.Make(1, 1, 0))
)

func param(typ, name string) []entrypoint.Param {
	return []entrypoint.Param{{Type: typ, Name: name}}
}

// testIndex compiles a small catalog covering every condition and owner kind.
func testIndex(t *testing.T) *entrypoint.Index {
	t.Helper()
	c := entrypoint.NewCatalog()
	descs := []entrypoint.Descriptor{
		{Name: "vkCreateInstance", ReturnType: "VkResult", Condition: entrypoint.RequireVersion(v10)},
		{Name: "vkCreateDevice", ReturnType: "VkResult", Params: param("VkPhysicalDevice", "physicalDevice"), Condition: entrypoint.RequireVersion(v10)},
		{Name: "vkDeviceWaitIdle", ReturnType: "VkResult", Params: param("VkDevice", "device"), Condition: entrypoint.RequireVersion(v10)},
		{Name: "vkCmdDraw", ReturnType: "void", Params: param("VkCommandBuffer", "commandBuffer"), Condition: entrypoint.RequireVersion(v10)},
		{Name: "vkEnumerateInstanceVersion", ReturnType: "VkResult", Condition: entrypoint.RequireVersion(v11)},
		{Name: "vkCreateWaylandSurfaceKHR", ReturnType: "VkResult", Params: param("VkInstance", "instance"),
			Condition: entrypoint.RequireExtension("VK_KHR_wayland_surface", entrypoint.ScopeInstance), Guard: "VK_USE_PLATFORM_WAYLAND_KHR"},
		{Name: "vkTrimCommandPoolKHR", ReturnType: "void", Params: param("VkDevice", "device"),
			Condition: entrypoint.RequireExtension("VK_KHR_maintenance1", entrypoint.ScopeDevice)},
	}
	for _, d := range descs {
		require.NoError(t, c.Add(d))
	}
	idx, err := entrypoint.Compile(c)
	require.NoError(t, err)
	return idx
}

// named returns a proc that reports its own symbol name.
func named(sym string) Proc {
	return func(args ...any) any { return sym }
}

func mustID(t *testing.T, idx *entrypoint.Index, name string) int {
	t.Helper()
	id, ok := idx.IndexOf(name)
	require.True(t, ok, name)
	return id
}

// testTables links a symbol set where gen9 overrides vkCmdDraw and
// vkDeviceWaitIdle, gen75 overrides vkCmdDraw and gen8 overrides nothing.
func testTables(t *testing.T, idx *entrypoint.Index) *Tables {
	t.Helper()
	syms := Symbols{
		"anv_CreateInstance":           named("anv_CreateInstance"),
		"anv_CreateDevice":             named("anv_CreateDevice"),
		"anv_DeviceWaitIdle":           named("anv_DeviceWaitIdle"),
		"anv_CmdDraw":                  named("anv_CmdDraw"),
		"anv_TrimCommandPoolKHR":       named("anv_TrimCommandPoolKHR"),
		"anv_CreateWaylandSurfaceKHR":  named("anv_CreateWaylandSurfaceKHR"),
		"gen9_CmdDraw":                 named("gen9_CmdDraw"),
		"gen9_DeviceWaitIdle":          named("gen9_DeviceWaitIdle"),
		"gen75_CmdDraw":                named("gen75_CmdDraw"),
		"gen7_CmdDraw":                 nil,
		"anv_EnumerateInstanceVersion": nil,
	}
	b := NewTableBuilder(idx)
	_, err := b.Populate(syms)
	require.NoError(t, err)
	ts, err := b.Build()
	require.NoError(t, err)
	return ts
}

func call(p Proc, args ...any) any {
	if p == nil {
		return nil
	}
	return p(args...)
}
