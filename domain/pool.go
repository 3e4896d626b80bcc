package domain

import "github.com/1IxI1/sc-indexer/domain/cell"

// NominatorValue is one entry of a pool's nominators dictionary.
type NominatorValue struct {
	Deposit        int64
	PendingDeposit int64
}

// PoolData is the parsed storage of a nominator pool contract.
//
//	pool_data#_ state:uint8 nominators_count:uint16
//	            stake_amount_sent:Coins validator_amount:Coins
//	            config:^PoolConfig nominators:(HashmapE 256 Nominator)
//	            withdraw_requests:(HashmapE 256 Cell) ...
type PoolData struct {
	State            uint8
	NominatorsCount  uint16
	StakeAmountSent  int64
	ValidatorAmount  int64
	Config           *cell.Cell
	Nominators       map[string]NominatorValue
	WithdrawRequests map[string]struct{}
}

// PoolSnapshot is the result of running the pool's read-only state query at
// a historical block: the stake sent to the validator, the validator's
// reward share in basis points and the nominator balances at that block.
type PoolSnapshot struct {
	StakeAmountSent   int64
	ValidatorShareBps int64
	Nominators        map[string]NominatorValue
}

// SubaccountBalance is one known subaccount of a pool in the result store.
type SubaccountBalance struct {
	SubaccountID   int64
	Owner          string
	Balance        int64
	PendingBalance int64
}

// BlockRef points at an archived masterchain block.
type BlockRef struct {
	Seqno    int32
	RootHash string
	FileHash string
}
