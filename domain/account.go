package domain

const (
	AccountTypeNominatorPool = "nominator_pool"

	// ElectorAddress is the system account that pays out validation rewards.
	ElectorAddress = "-1:3333333333333333333333333333333333333333333333333333333333333333"
)

// AccountState is one candidate row from the source archive: the last
// observed state of an on-ledger account.
type AccountState struct {
	Account   string
	Balance   int64
	CodeHash  string
	DataHash  string
	Timestamp int64
}

// AccountTask is one unit of work for a contract handler. AsOf is the
// reconstruction horizon: the checkpoint read at the start of the cycle,
// shared by every task of that cycle.
type AccountTask struct {
	Address  string
	Balance  int64
	CodeHash string
	DataHash string
	AsOf     int64
}
