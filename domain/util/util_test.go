package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNanoTonString(t *testing.T) {
	assert.Equal(t, "4.5 TON", NanoTonString(4_500_000_000))
	assert.Equal(t, "1 TON", NanoTonString(1_000_000_000))
	assert.Equal(t, "0 TON", NanoTonString(0))
}

func TestNanoString(t *testing.T) {
	assert.Equal(t, "4,500,000,000 nano", NanoString(4_500_000_000))
	assert.Equal(t, "0 nano", NanoString(0))
}
