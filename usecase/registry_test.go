package usecase

import (
	"fmt"
	"testing"

	"github.com/1IxI1/sc-indexer/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchUnknownType(t *testing.T) {
	registry := NewRegistry()
	called := false
	registry.Register("known", func(task domain.AccountTask) error {
		called = true
		return nil
	})

	err := registry.Dispatch(domain.AccountTask{Address: "0:AB", CodeHash: "unknown"})
	require.NoError(t, err)
	assert.False(t, called)
}

func TestDispatchRegistered(t *testing.T) {
	registry := NewRegistry()
	var got domain.AccountTask
	registry.Register("known", func(task domain.AccountTask) error {
		got = task
		return fmt.Errorf("handler failed")
	})

	task := domain.AccountTask{Address: "0:AB", CodeHash: "known", AsOf: 42}
	err := registry.Dispatch(task)
	assert.EqualError(t, err, "handler failed")
	assert.Equal(t, task, got)
}

func TestCodeHashes(t *testing.T) {
	registry := NewRegistry()
	assert.Empty(t, registry.CodeHashes())

	registry.Register("a", func(domain.AccountTask) error { return nil })
	registry.Register("b", func(domain.AccountTask) error { return nil })
	assert.ElementsMatch(t, []string{"a", "b"}, registry.CodeHashes())
}
