package repository

import (
	"github.com/1IxI1/sc-indexer/domain"

	"github.com/behrang/sqlbatch"
)

const (
	sqlAccountUpsert = `
	insert into accounts as a (
			address, account_type, balance, updated_at
		)
		values (
			$1, $2, $3, now()
		)
	on conflict (address) do
		update set
			balance = $3, updated_at = now()
`

	sqlAccountFindId = `
	select
		account_id
	from accounts
	where address = $1
`

	sqlPoolUpsert = `
	insert into nominator_pools as p (
			account_id, stake_amount_sent, validator_amount, nominators_count
		)
		values (
			$1, $2, $3, $4
		)
	on conflict (account_id) do
		update set
			stake_amount_sent = $2, validator_amount = $3, nominators_count = $4
`

	sqlSubaccountFindAll = `
	select
		s.subaccount_id, s.owner, n.balance, n.pending_balance
	from subaccounts s
	join nominators n on n.subaccount_id = s.subaccount_id
	where s.parent_account_id = $1
`

	sqlSubaccountUpsert = `
	insert into subaccounts as s (
			owner, subaccount_type, parent_account_id
		)
		values (
			$1, 'pool_nominator', $2
		)
	on conflict (owner, parent_account_id) do
		update set
			subaccount_type = excluded.subaccount_type
`

	sqlSubaccountFindId = `
	select
		subaccount_id
	from subaccounts
	where owner = $1 and parent_account_id = $2
`

	sqlNominatorInsertIfNotExists = `
	insert into nominators as n (
			subaccount_id, balance, pending_balance
		)
		values (
			$1, 0, 0
		)
	on conflict (subaccount_id) do
		update set
			subaccount_id = excluded.subaccount_id
`

	sqlNominatorUpsert = `
	insert into nominators as n (
			subaccount_id, balance, pending_balance
		)
		values (
			$1, $2, $3
		)
	on conflict (subaccount_id) do
		update set
			balance = $2, pending_balance = $3
`

	sqlBookingCount = `
	select
		count(*)
	from bookings
	where fingerprint = $1
`

	sqlBookingInsert = `
	insert into bookings (
			fingerprint, subaccount_id, booking_type, booking_lt, booking_utime, credit, debit
		)
		values (
			$1, $2, $3, $4, $5, $6, $7
		)
	on conflict (fingerprint) do nothing
`
)

// LedgerRepository owns the derived accounting rows in the result store:
// accounts, pools, subaccounts with their nominator balances, and the
// append-only booking history.
type LedgerRepository struct {
	batchHandler BatchHandler
}

func NewLedgerRepository(db BatchHandler) *LedgerRepository {
	return &LedgerRepository{batchHandler: db}
}

func readId(scan func(...interface{}) error) (interface{}, error) {
	var id int64
	err := scan(&id)
	return id, err
}

func readCount(scan func(...interface{}) error) (interface{}, error) {
	var count int64
	err := scan(&count)
	return count, err
}

func readAllSubaccounts(memo interface{}, scan func(...interface{}) error) (interface{}, error) {
	r := domain.SubaccountBalance{}
	err := scan(
		&r.SubaccountID, &r.Owner, &r.Balance, &r.PendingBalance,
	)

	list := memo.([]domain.SubaccountBalance)
	list = append(list, r)
	return list, err
}

// UpsertPool writes the pool summary row and the account balance in one
// transaction and returns the pool's account id. This commit is independent
// of the ledger reconstruction that follows it.
func (repo *LedgerRepository) UpsertPool(address string, balance int64, data *domain.PoolData) (int64, error) {
	results, err := repo.batchHandler.Batch(&BatchOptionNormal, []sqlbatch.Command{
		{
			Query: sqlAccountUpsert,
			Args: []interface{}{
				address, domain.AccountTypeNominatorPool, balance,
			},
			Affect: 1,
		},
		{
			Query:   sqlAccountFindId,
			Args:    []interface{}{address},
			ReadOne: readId,
		},
	})
	if err != nil {
		return 0, err
	}
	accountId, _ := results[1].(int64)

	_, err = repo.batchHandler.Batch(&BatchOptionNormal, []sqlbatch.Command{
		{
			Query: sqlPoolUpsert,
			Args: []interface{}{
				accountId, data.StakeAmountSent, data.ValidatorAmount, int(data.NominatorsCount),
			},
			Affect: 1,
		},
	})
	return accountId, err
}

// FindSubaccounts returns every known subaccount of a pool keyed by owner
// address.
func (repo *LedgerRepository) FindSubaccounts(poolId int64) (map[string]*domain.SubaccountBalance, error) {
	results, err := repo.batchHandler.Batch(&BatchOptionNormalReadOnly, []sqlbatch.Command{
		{
			Query:   sqlSubaccountFindAll,
			Args:    []interface{}{poolId},
			Init:    make([]domain.SubaccountBalance, 0),
			ReadAll: readAllSubaccounts,
		},
	})
	if err != nil {
		return nil, err
	}
	list, _ := results[0].([]domain.SubaccountBalance)
	subaccounts := make(map[string]*domain.SubaccountBalance, len(list))
	for i := range list {
		subaccounts[list[i].Owner] = &list[i]
	}
	return subaccounts, nil
}

// EnsureSubaccount creates the subaccount and its zero-balance nominator row
// if they do not exist yet and returns the subaccount id.
func (repo *LedgerRepository) EnsureSubaccount(poolId int64, owner string) (int64, error) {
	results, err := repo.batchHandler.Batch(&BatchOptionNormal, []sqlbatch.Command{
		{
			Query: sqlSubaccountUpsert,
			Args: []interface{}{
				owner, poolId,
			},
			Affect: 1,
		},
		{
			Query:   sqlSubaccountFindId,
			Args:    []interface{}{owner, poolId},
			ReadOne: readId,
		},
	})
	if err != nil {
		return 0, err
	}
	subaccountId, _ := results[1].(int64)

	_, err = repo.batchHandler.Batch(&BatchOptionNormal, []sqlbatch.Command{
		{
			Query:  sqlNominatorInsertIfNotExists,
			Args:   []interface{}{subaccountId},
			Affect: 1,
		},
	})
	return subaccountId, err
}

// UpsertNominator overwrites the current and pending balance of a
// subaccount.
func (repo *LedgerRepository) UpsertNominator(subaccountId int64, balance, pendingBalance int64) error {
	_, err := repo.batchHandler.Batch(&BatchOptionNormal, []sqlbatch.Command{
		{
			Query:  sqlNominatorUpsert,
			Args:   []interface{}{subaccountId, balance, pendingBalance},
			Affect: 1,
		},
	})
	return err
}

// BookingExists reports whether a booking with the given fingerprint is
// already recorded.
func (repo *LedgerRepository) BookingExists(fingerprint string) (bool, error) {
	results, err := repo.batchHandler.Batch(&BatchOptionNormalReadOnly, []sqlbatch.Command{
		{
			Query:   sqlBookingCount,
			Args:    []interface{}{fingerprint},
			ReadOne: readCount,
		},
	})
	if err != nil {
		return false, err
	}
	count, _ := results[0].(int64)
	return count > 0, nil
}

// InsertBooking appends one immutable ledger entry. A fingerprint conflict
// is silently ignored; bookings are never updated or deleted.
func (repo *LedgerRepository) InsertBooking(subaccountId int64, booking domain.Booking) error {
	_, err := repo.batchHandler.Batch(&BatchOptionSerializable, []sqlbatch.Command{
		{
			Query: sqlBookingInsert,
			Args: []interface{}{
				booking.Fingerprint(), subaccountId, booking.Type,
				booking.Lt, booking.Utime, booking.Credit, booking.Debit,
			},
		},
	})
	return err
}
