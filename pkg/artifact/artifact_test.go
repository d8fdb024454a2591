package artifact

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procaddr/procaddr-go/pkg/dispatch"
	"github.com/procaddr/procaddr-go/pkg/entrypoint"
	"github.com/procaddr/procaddr-go/pkg/registry/builtin"
	"github.com/procaddr/procaddr-go/pkg/version"
)

func builtinLayout(t *testing.T) (*Layout, *entrypoint.Index) {
	t.Helper()
	idx, err := builtin.Index()
	require.NoError(t, err)
	l, err := FromIndex(idx, Options{Generator: "procaddr-gen test", Sources: []string{"builtin:vk-core", "builtin:vk-wsi"}})
	require.NoError(t, err)
	return l, idx
}

func TestFromIndex(t *testing.T) {
	l, idx := builtinLayout(t)

	_, err := uuid.Parse(l.BuildID)
	assert.NoError(t, err, "build id should be a UUID")
	assert.Equal(t, FormatVersion, l.Format)
	assert.Equal(t, "vk", l.Namespace)
	assert.Len(t, l.Fingerprint, 32)
	assert.Len(t, l.Layers, len(dispatch.Layers()))
	assert.Equal(t, uint32(entrypoint.HashSize), l.Compiled.HashSize)

	id, ok := idx.IndexOf("vkCmdDraw")
	require.True(t, ok)
	assert.Equal(t, "gen75_CmdDraw", l.Symbols(dispatch.LayerGen75)[id])
	assert.Equal(t, "anv_tramp_CmdDraw", l.Symbols(dispatch.LayerTrampoline)[id])
	assert.Nil(t, l.Symbols(dispatch.Layer(42)))

	require.NoError(t, l.Verify())
}

func TestFromIndex_FixedBuildID(t *testing.T) {
	idx, err := builtin.Index()
	require.NoError(t, err)

	a, err := FromIndex(idx, Options{BuildID: "fixed"})
	require.NoError(t, err)
	b, err := FromIndex(idx, Options{BuildID: "other"})
	require.NoError(t, err)

	assert.Equal(t, "fixed", a.BuildID)
	assert.Equal(t, a.Fingerprint, b.Fingerprint, "provenance is not part of the fingerprint")
}

func TestFromIndex_MissingNamespace(t *testing.T) {
	c := entrypoint.NewCatalog()
	require.NoError(t, c.Add(entrypoint.Descriptor{Name: "CreateThing"}))
	idx, err := entrypoint.Compile(c)
	require.NoError(t, err)

	_, err = FromIndex(idx, Options{})
	assert.ErrorIs(t, err, dispatch.ErrMissingNamespace)

	l, err := FromIndex(idx, Options{Namespace: "Create"})
	require.NoError(t, err)
	assert.Equal(t, "anv_Thing", l.Symbols(dispatch.LayerBase)[0])
}

func TestEncodeDecode_PreservesLookups(t *testing.T) {
	l, idx := builtinLayout(t)

	data, err := l.Encode()
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)
	require.NoError(t, got.Verify())
	assert.Equal(t, l.BuildID, got.BuildID)
	assert.Equal(t, l.Sources, got.Sources)
	assert.True(t, l.CreatedAt.Equal(got.CreatedAt))

	restored, err := got.Index()
	require.NoError(t, err)
	for _, e := range idx.Entries() {
		id, ok := restored.IndexOf(e.Name)
		require.True(t, ok, e.Name)
		assert.Equal(t, e.ID, id)
	}
	_, ok := restored.IndexOf("vkEnumerateInstanceVersion")
	assert.False(t, ok)
}

func TestDecode_Garbage(t *testing.T) {
	_, err := Decode([]byte("not cbor"))
	assert.Error(t, err)
}

func TestVerify_DetectsTampering(t *testing.T) {
	tests := []struct {
		name   string
		tamper func(l *Layout)
		want   error
	}{
		{"map slot", func(l *Layout) {
			for i, v := range l.Compiled.Map {
				if v == entrypoint.None {
					l.Compiled.Map[i] = 0
					return
				}
			}
		}, ErrFingerprintMismatch},
		{"string blob", func(l *Layout) { l.Compiled.Strings[2] = 'X' }, ErrFingerprintMismatch},
		{"symbol", func(l *Layout) { l.Layers[1].Symbols[0] = "evil_CreateInstance" }, ErrFingerprintMismatch},
		{"prime step", func(l *Layout) { l.Compiled.PrimeStep = 21 }, ErrFingerprintMismatch},
		{"format", func(l *Layout) { l.Format = 99 }, ErrUnsupportedFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, _ := builtinLayout(t)
			tt.tamper(l)
			assert.ErrorIs(t, l.Verify(), tt.want)
		})
	}
}

func TestVerify_ResealedButInconsistent(t *testing.T) {
	l, _ := builtinLayout(t)
	l.Layers[0].Symbols = l.Layers[0].Symbols[:3]
	fp, err := l.digest()
	require.NoError(t, err)
	l.Fingerprint = fp
	assert.ErrorIs(t, l.Verify(), ErrLayerMismatch)

	l, _ = builtinLayout(t)
	l.Compiled.PrimeFactor = 31
	fp, err = l.digest()
	require.NoError(t, err)
	l.Fingerprint = fp
	assert.ErrorIs(t, l.Verify(), entrypoint.ErrCorruptLayout)
}

func TestWriteReadFile(t *testing.T) {
	l, _ := builtinLayout(t)
	path := filepath.Join(t.TempDir(), "entrypoints.pidx")
	require.NoError(t, l.WriteFile(path))

	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, l.FingerprintHex(), got.FingerprintHex())

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.pidx"))
	assert.Error(t, err)
}

func TestResolver_LinksStoredSymbols(t *testing.T) {
	l, _ := builtinLayout(t)
	data, err := l.Encode()
	require.NoError(t, err)
	loaded, err := Decode(data)
	require.NoError(t, err)

	proc := func(sym string) dispatch.Proc {
		return func(args ...any) any { return sym }
	}
	r, err := loaded.Resolver(dispatch.Symbols{
		"anv_CmdDraw":          proc("anv_CmdDraw"),
		"gen9_CmdDraw":         proc("gen9_CmdDraw"),
		"anv_CreateInstance":   proc("anv_CreateInstance"),
		"anv_tramp_CmdDraw":    proc("ignored"),
		"anv_DeviceWaitIdle":   proc("anv_DeviceWaitIdle"),
		"gen10_DeviceWaitIdle": proc("gen10_DeviceWaitIdle"),
	}, dispatch.ResolverConfig{})
	require.NoError(t, err)

	assert.Equal(t, "gen9_CmdDraw", r.Lookup("vkCmdDraw", &dispatch.DeviceInfo{Gen: 9})(nil))
	assert.Equal(t, "anv_CmdDraw", r.Lookup("vkCmdDraw", &dispatch.DeviceInfo{Gen: 8})(nil))
	assert.Equal(t, "anv_CreateInstance", r.Lookup("vkCreateInstance", nil)(nil))
	assert.Nil(t, r.Lookup("vkQueueSubmit", nil))
	assert.Nil(t, r.Lookup("vkNope", nil))

	dev := r.NewDevice(dispatch.DeviceInfo{Gen: 10}, dispatch.Context{CoreVersion: uint32(version.Make(1, 0, 0))})
	assert.Equal(t, "gen10_DeviceWaitIdle", r.Trampoline("vkDeviceWaitIdle")(dev))
}

func TestResolver_RejectsTampered(t *testing.T) {
	l, _ := builtinLayout(t)
	l.Compiled.Strings[0] = 'X'
	_, err := l.Resolver(dispatch.Symbols{}, dispatch.ResolverConfig{})
	assert.ErrorIs(t, err, ErrFingerprintMismatch)
}
