package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ShippedExample(t *testing.T) {
	cfg, err := Load("../../configs/settlement.yaml")
	require.NoError(t, err)
	want, err := Default()
	require.NoError(t, err)
	assert.Equal(t, want, cfg)
}
