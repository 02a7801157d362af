package nats

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNats_Connect(t *testing.T) {
	connect := NewTestContainer(t)

	nc, disconnect, err := connect()
	require.NoError(t, err)
	require.NotNil(t, nc)
	require.Equal(t, "CONNECTED", nc.Status().String())

	disconnect()
	require.Equal(t, "CLOSED", nc.Status().String())
}

func TestConnectDefault_UsesEnv(t *testing.T) {
	t.Setenv("NATS_URL", "nats://127.0.0.1:1")
	_, _, err := ConnectDefault()()
	require.Error(t, err)
}
