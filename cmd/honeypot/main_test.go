package main

import (
	"context"
	"net"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/honeypot/internal/profile"
)

func TestProfileFromFlags(t *testing.T) {
	t.Setenv("HONEYPOT_SCAM_THRESHOLD", "")
	t.Setenv("HONEYPOT_API_KEY", "")

	p, err := profileFromFlags()
	require.NoError(t, err)
	assert.Equal(t, "dev", p.Mode)
	assert.Equal(t, profile.DefaultScamThreshold, p.ScamThreshold)
	assert.Equal(t, profile.DevAPIKey, p.APIKey)
}

func TestProfileFromFlags_RejectsZeroThreshold(t *testing.T) {
	viper.Set("scam-threshold", 0.0)
	t.Cleanup(func() { viper.Set("scam-threshold", profile.DefaultScamThreshold) })

	_, err := profileFromFlags()
	assert.ErrorContains(t, err, "scam threshold")
}

func TestServe_FailsWhenServerCannotBeBuilt(t *testing.T) {
	p := &profile.Profile{Mode: "dev", Addr: "127.0.0.1", Port: 1, APIKey: "k", TriggerExpr: "turns >"}

	err := serve(context.Background(), p)
	assert.ErrorContains(t, err, "failed to create server")
}

func TestServe_FailsWhenPortIsTaken(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	p := &profile.Profile{Mode: "dev", Addr: "127.0.0.1", Port: ln.Addr().(*net.TCPAddr).Port, APIKey: "k"}

	err = serve(context.Background(), p)
	assert.ErrorContains(t, err, "failed to start server")
}
