package domain

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

const (
	BookingTypeDeposit    = "nominator_deposit"
	BookingTypeWithdrawal = "nominator_withdrawal"
	BookingTypeIncome     = "nominator_income"
)

// Booking is one immutable, append-only ledger entry against a subaccount.
type Booking struct {
	SubaccountAddress string
	Type              string
	Lt                int64
	Utime             int64
	Credit            int64
	Debit             int64
}

// Fingerprint hashes the booking's canonical fields. At most one booking may
// exist per fingerprint; reprocessing the same message history therefore
// never duplicates entries.
func (b *Booking) Fingerprint() string {
	canonical := fmt.Sprintf("%s|%s|%d|%d|%d|%d",
		b.SubaccountAddress, b.Type, b.Credit, b.Debit, b.Lt, b.Utime)
	sum := sha256.Sum256([]byte(canonical))
	return base64.StdEncoding.EncodeToString(sum[:])
}
