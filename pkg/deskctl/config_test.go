package deskctl

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/deskbridge/pkg/l1/comm"
	env "github.com/robotalks/deskbridge/pkg/l1/env/controller"
)

func TestConfigSimulate(t *testing.T) {
	conf := NewConfig()
	conf.Simulate, conf.SimHeight = true, 40
	conf.Tolerance, conf.Resync = 0.5, true
	ctl, err := conf.NewController(&env.Env{Registrar: &comm.RegistrarMux{}})
	require.NoError(t, err)
	require.Empty(t, ctl.Lines)
	require.Equal(t, 0.5, ctl.Bridge.Position.Tolerance)
	require.True(t, ctl.Bridge.Decoder.Resync)
	require.NoError(t, ctl.Bridge.Tick())
	height, known := ctl.Bridge.Height()
	require.True(t, known)
	require.InDelta(t, 39.9, height, 1e-9)
}

func TestConfigRequiresDeskPort(t *testing.T) {
	conf := NewConfig()
	conf.DeskPort, conf.Simulate = "", false
	_, err := conf.NewController(&env.Env{Registrar: &comm.RegistrarMux{}})
	require.Error(t, err)
}
