package repository

import (
	"database/sql"
	"testing"

	"github.com/1IxI1/sc-indexer/domain"

	"github.com/behrang/sqlbatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	opts     []*sql.TxOptions
	commands [][]sqlbatch.Command
	results  [][]interface{}
}

func (h *recordingHandler) Batch(opts *sql.TxOptions, commands []sqlbatch.Command) ([]interface{}, error) {
	h.opts = append(h.opts, opts)
	h.commands = append(h.commands, commands)
	if len(h.results) > 0 {
		results := h.results[0]
		h.results = h.results[1:]
		return results, nil
	}
	return make([]interface{}, len(commands)), nil
}

func TestInsertBookingSerializable(t *testing.T) {
	handler := &recordingHandler{}
	repo := NewLedgerRepository(handler)
	booking := domain.Booking{
		SubaccountAddress: "0:AB",
		Type:              domain.BookingTypeDeposit,
		Lt:                10,
		Utime:             1000,
		Credit:            4_500_000_000,
	}

	require.NoError(t, repo.InsertBooking(7, booking))

	require.Len(t, handler.opts, 1)
	assert.Same(t, &BatchOptionSerializable, handler.opts[0])

	require.Len(t, handler.commands[0], 1)
	args := handler.commands[0][0].Args
	assert.Equal(t, booking.Fingerprint(), args[0])
	assert.Equal(t, int64(7), args[1])
	assert.Equal(t, domain.BookingTypeDeposit, args[2])
}

func TestBookingExists(t *testing.T) {
	handler := &recordingHandler{results: [][]interface{}{{int64(1)}, {int64(0)}}}
	repo := NewLedgerRepository(handler)

	exists, err := repo.BookingExists("fp")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.BookingExists("fp")
	require.NoError(t, err)
	assert.False(t, exists)

	require.Len(t, handler.opts, 2)
	assert.Same(t, &BatchOptionNormalReadOnly, handler.opts[0])
}
