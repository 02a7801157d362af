package es

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ahumphreys87/ddd-workshop/internal/codec"
)

func TestVersion(t *testing.T) {
	v1, v2 := Version(1), Version(2)
	require.True(t, v1 < v2)
	require.Equal(t, v2, v1.Next())
	require.Equal(t, uint64(1), v1.Uint64())
	require.Equal(t, "version", v1.SlogAttr().Key)
	require.Equal(t, "min_version", v1.SlogAttrWithKey("min_version").Key)

	data, err := codec.Default.Marshal(v1)
	require.NoError(t, err)
	require.Equal(t, `1`, string(data))

	var x Version
	require.NoError(t, codec.Default.Unmarshal([]byte("1234"), &x))
	require.Equal(t, Version(1234), x)
}
