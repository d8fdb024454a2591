package dispatch

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSymbolName(t *testing.T) {
	tests := []struct {
		layer Layer
		name  string
		want  string
	}{
		{LayerBase, "vkCreateDevice", "anv_CreateDevice"},
		{LayerGen9, "vkCreateDevice", "gen9_CreateDevice"},
		{LayerGen75, "vkCmdDraw", "gen75_CmdDraw"},
		{LayerGen10, "vkCmdDraw", "gen10_CmdDraw"},
		{LayerTrampoline, "vkQueueSubmit", "anv_tramp_QueueSubmit"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got, err := SymbolName(tt.layer, tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSymbolName_MissingNamespace(t *testing.T) {
	for _, name := range []string{"CreateDevice", "vk", "VkCreateDevice"} {
		_, err := SymbolName(LayerBase, name)
		assert.ErrorIs(t, err, ErrMissingNamespace, name)
	}
}

func TestLayer_Symbol_CustomNamespace(t *testing.T) {
	got, err := LayerGen8.Symbol("xrBeginFrame", "xr")
	require.NoError(t, err)
	assert.Equal(t, "gen8_BeginFrame", got)

	_, err = Layer(42).Symbol("vkCmdDraw", "vk")
	assert.ErrorIs(t, err, ErrUnknownLayer)
}

func TestParseLayer(t *testing.T) {
	for _, l := range Layers() {
		got, err := ParseLayer(l.String())
		require.NoError(t, err)
		assert.Equal(t, l, got)
	}
	_, err := ParseLayer("gen6")
	assert.ErrorIs(t, err, ErrUnknownLayer)
}

func TestLayer_String(t *testing.T) {
	assert.Equal(t, "anv", LayerBase.String())
	assert.Equal(t, "anv_tramp", LayerTrampoline.String())
	assert.Equal(t, "Layer(42)", Layer(42).String())
	assert.Len(t, Layers(), 7)
	assert.True(t, LayerGen75.IsGeneration())
	assert.False(t, LayerBase.IsGeneration())
	assert.False(t, LayerTrampoline.IsGeneration())
}

func TestLayerFor(t *testing.T) {
	tests := []struct {
		info DeviceInfo
		want Layer
	}{
		{DeviceInfo{Gen: 10}, LayerGen10},
		{DeviceInfo{Gen: 9}, LayerGen9},
		{DeviceInfo{Gen: 8}, LayerGen8},
		{DeviceInfo{Gen: 8, IsHaswell: true}, LayerGen8},
		{DeviceInfo{Gen: 7}, LayerGen7},
		{DeviceInfo{Gen: 7, IsHaswell: true}, LayerGen75},
	}
	for _, tt := range tests {
		t.Run(tt.info.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, LayerFor(tt.info))
			assert.NoError(t, tt.info.Validate())
		})
	}
}

func TestLayerFor_UnsupportedPanics(t *testing.T) {
	for _, gen := range []int{0, 6, 11} {
		info := DeviceInfo{Gen: gen}
		assert.ErrorIs(t, info.Validate(), ErrUnsupportedGeneration)

		func() {
			defer func() {
				r := recover()
				require.NotNil(t, r, "gen %d should panic", gen)
				err, ok := r.(error)
				require.True(t, ok)
				assert.True(t, errors.Is(err, ErrUnsupportedGeneration))
			}()
			LayerFor(info)
		}()
	}
}
