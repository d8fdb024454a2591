package entrypoint

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procaddr/procaddr-go/pkg/version"
)

var core10 = uint32(version.Make(1, 0, 0))

func desc(name string, firstType string) Descriptor {
	d := Descriptor{Name: name, ReturnType: "void"}
	if firstType != "" {
		d.Params = []Param{{Type: firstType, Name: "obj"}}
	}
	return d
}

func TestCatalog_DeclareDuplicate(t *testing.T) {
	c := NewCatalog()
	require.NoError(t, c.Declare(desc("vkCreateDevice", "")))

	err := c.Declare(desc("vkCreateDevice", ""))
	assert.True(t, errors.Is(err, ErrDuplicateName))
}

func TestCatalog_DeclareEmpty(t *testing.T) {
	c := NewCatalog()
	assert.ErrorIs(t, c.Declare(Descriptor{}), ErrEmptyName)
	assert.ErrorIs(t, c.AppendLegacy(Descriptor{}), ErrEmptyName)
}

func TestCatalog_RequireUnknown(t *testing.T) {
	c := NewCatalog()
	err := c.Require("vkNope", RequireVersion(core10))
	assert.ErrorIs(t, err, ErrUnknownEntryPoint)
}

func TestCatalog_RequireConflict(t *testing.T) {
	c := NewCatalog()
	require.NoError(t, c.Declare(desc("vkTrimCommandPoolKHR", "VkDevice")))
	require.NoError(t, c.Require("vkTrimCommandPoolKHR", RequireExtension("VK_KHR_maintenance1", ScopeDevice)))

	err := c.Require("vkTrimCommandPoolKHR", RequireVersion(core10))
	assert.ErrorIs(t, err, ErrConflictingCondition)
}

func TestCatalog_FinalizeOrderAndLegacyLast(t *testing.T) {
	c := NewCatalog()
	require.NoError(t, c.AppendLegacy(desc("vkCreateDmaBufImageINTEL", "VkDevice")))
	require.NoError(t, c.Add(Descriptor{Name: "vkCreateInstance", Condition: RequireVersion(core10)}))
	require.NoError(t, c.Declare(desc("vkUnused", "")))
	require.NoError(t, c.Add(Descriptor{Name: "vkCmdDraw", Params: []Param{{Type: "VkCommandBuffer", Name: "commandBuffer"}}, Condition: RequireVersion(core10)}))
	require.NoError(t, c.Add(Descriptor{Name: "vkDeviceWaitIdle", Params: []Param{{Type: "VkDevice", Name: "device"}}, Condition: RequireVersion(core10)}))

	assert.Equal(t, 5, c.Declared())
	assert.Equal(t, 4, c.Enabled())

	entries, pool, err := c.Finalize()
	require.NoError(t, err)
	require.Len(t, entries, 4)

	names := make([]string, len(entries))
	for i, e := range entries {
		assert.Equal(t, i, e.ID)
		assert.Equal(t, Hash(e.Name), e.Hash)
		assert.Equal(t, e.Name, pool.String(e.NameOffset))
		names[i] = e.Name
	}
	assert.Equal(t, []string{"vkCreateInstance", "vkCmdDraw", "vkDeviceWaitIdle", "vkCreateDmaBufImageINTEL"}, names)

	assert.Equal(t, OwnerNone, entries[0].Owner)
	assert.Equal(t, OwnerCommandBuffer, entries[1].Owner)
	assert.Equal(t, OwnerDevice, entries[2].Owner)
	assert.Equal(t, OwnerDevice, entries[3].Owner)
}

func TestCatalog_LegacyDuplicate(t *testing.T) {
	c := NewCatalog()
	require.NoError(t, c.Add(desc("vkCreateDevice", "")))
	assert.ErrorIs(t, c.AppendLegacy(desc("vkCreateDevice", "")), ErrDuplicateName)

	require.NoError(t, c.AppendLegacy(desc("vkLegacy", "")))
	assert.ErrorIs(t, c.Declare(desc("vkLegacy", "")), ErrDuplicateName)
}

func TestCatalog_Lookup(t *testing.T) {
	c := NewCatalog()
	require.NoError(t, c.Declare(desc("vkDeclared", "")))
	require.NoError(t, c.AppendLegacy(desc("vkLegacy", "")))

	_, enabled, found := c.Lookup("vkDeclared")
	assert.True(t, found)
	assert.False(t, enabled)

	_, enabled, found = c.Lookup("vkLegacy")
	assert.True(t, found)
	assert.True(t, enabled)

	_, _, found = c.Lookup("vkMissing")
	assert.False(t, found)
}

func TestCatalog_WithOwnerTypes(t *testing.T) {
	c := NewCatalog()
	require.NoError(t, c.Add(desc("xDo", "XContext")))
	require.NoError(t, c.Add(desc("xRecord", "XRecorder")))

	entries, _, err := c.Finalize(WithOwnerTypes("XContext", "XRecorder"))
	require.NoError(t, err)
	assert.Equal(t, OwnerDevice, entries[0].Owner)
	assert.Equal(t, OwnerCommandBuffer, entries[1].Owner)
}

func TestDescriptor_Params(t *testing.T) {
	d := Descriptor{
		Name: "vkCreateDmaBufImageINTEL",
		Params: []Param{
			{Type: "VkDevice", Name: "device"},
			{Type: "VkDmaBufImageCreateInfo", Name: "pCreateInfo", Decl: "const VkDmaBufImageCreateInfo* pCreateInfo"},
		},
	}
	assert.Equal(t, "VkDevice device, const VkDmaBufImageCreateInfo* pCreateInfo", d.DeclParams())
	assert.Equal(t, "device, pCreateInfo", d.CallParams())
}

func TestCondition_String(t *testing.T) {
	assert.Equal(t, "always", Condition{}.String())
	assert.Equal(t, "core 1.0.0", RequireVersion(core10).String())
	assert.Equal(t, "device extension VK_KHR_swapchain", RequireExtension("VK_KHR_swapchain", ScopeDevice).String())
}

func TestParseScope(t *testing.T) {
	s, err := ParseScope("Device")
	require.NoError(t, err)
	assert.Equal(t, ScopeDevice, s)

	s, err = ParseScope("instance")
	require.NoError(t, err)
	assert.Equal(t, ScopeInstance, s)

	_, err = ParseScope("queue")
	assert.Error(t, err)
}
