package usecase

import (
	"encoding/base64"
	"fmt"
	"log"
	"math/big"
	"sort"
	"strings"

	"github.com/1IxI1/sc-indexer/domain"
	"github.com/1IxI1/sc-indexer/domain/cell"
	"github.com/1IxI1/sc-indexer/domain/util"
	"github.com/1IxI1/sc-indexer/interface/exporter"

	"github.com/tonkeeper/tongo"
)

const (
	// NominatorPoolCodeHash identifies the standard nominator pool contract.
	NominatorPoolCodeHash = "mj7BS8CY9rRAZMMFIiyuooAPF92oXuaoGYpwle3hDc8="

	OpcodeTextComment    = uint32(0)
	OpcodeRecoverStakeOk = uint32(0xf96f7324)

	// DepositFee is the fixed service fee the pool keeps from every deposit.
	DepositFee = int64(1_000_000_000)
	// MinWithdrawalValue filters out excess returns and gas refunds; real
	// withdrawals always carry at least one TON.
	MinWithdrawalValue = int64(1_000_000_000)
	// WithdrawalWindow is how far back a withdrawal request may lie to match
	// an outbound transfer: two validation rounds, boundary inclusive.
	WithdrawalWindow = int64(36 * 3600)
	// IncomeLookbackBlocks is how many masterchain blocks before a reward
	// message the pool state is sampled to attribute the reward.
	IncomeLookbackBlocks = int32(5)
)

// ArchiveStore is the slice of the source archive the handler reads.
type ArchiveStore interface {
	FindMessagesToPool(pool string, since int64) ([]domain.MessageRow, error)
	FindMessagesFromPool(pool string, since int64) ([]domain.MessageRow, error)
	FindMasterchainBlock(seqno int32) (*domain.BlockRef, error)
}

// LedgerStore is the slice of the result store the handler writes.
type LedgerStore interface {
	UpsertPool(address string, balance int64, data *domain.PoolData) (int64, error)
	FindSubaccounts(poolId int64) (map[string]*domain.SubaccountBalance, error)
	EnsureSubaccount(poolId int64, owner string) (int64, error)
	UpsertNominator(subaccountId int64, balance, pendingBalance int64) error
	BookingExists(fingerprint string) (bool, error)
	InsertBooking(subaccountId int64, booking domain.Booking) error
}

// ChainStore answers current and historical contract state queries.
type ChainStore interface {
	GetAccountData(accountId tongo.AccountID) (*cell.Cell, error)
	GetPoolData(accountId tongo.AccountID, atBlock *tongo.BlockIDExt) (*domain.PoolSnapshot, error)
}

// PoolInteractor reconstructs the accounting ledger of nominator pools:
// per-depositor balances and the booking history of deposits, withdrawals
// and reward payouts.
type PoolInteractor struct {
	chain   ChainStore
	archive ArchiveStore
	ledger  LedgerStore
}

func NewPoolInteractor(chain ChainStore, archive ArchiveStore, ledger LedgerStore) *PoolInteractor {
	return &PoolInteractor{
		chain:   chain,
		archive: archive,
		ledger:  ledger,
	}
}

// Handle processes one pool account. Every failure is confined here: it is
// logged with the account address and never aborts the batch.
func (interactor *PoolInteractor) Handle(task domain.AccountTask) error {
	err := interactor.handlePool(task)
	if err != nil {
		log.Printf("🔴 handling pool %v from %v - %v\n", task.Address, task.AsOf, err.Error())
		exporter.IncErrorCount()
	}
	return err
}

func (interactor *PoolInteractor) handlePool(task domain.AccountTask) error {
	accountId, err := tongo.ParseAccountID(task.Address)
	if err != nil {
		return fmt.Errorf("parsing pool address: %w", err)
	}

	data, err := interactor.chain.GetAccountData(accountId)
	if err != nil {
		return fmt.Errorf("getting pool state: %w", err)
	}

	poolData, err := parsePoolData(data)
	if err != nil {
		return fmt.Errorf("parsing pool state: %w", err)
	}

	// The summary is written first and committed independently, so pool
	// queries stay fresh even if ledger reconstruction fails below.
	poolId, err := interactor.ledger.UpsertPool(task.Address, task.Balance, poolData)
	if err != nil {
		return fmt.Errorf("upserting pool summary: %w", err)
	}
	log.Printf("Updated pool %v\n", task.Address)

	return interactor.reconstruct(task, accountId, poolId, poolData)
}

// parsePoolData extracts the typed fields of a nominator pool's storage
// cell. A missing nominators dictionary is a pool with no active
// participants, not an error.
func parsePoolData(data *cell.Cell) (*domain.PoolData, error) {
	ds := data.BeginParse()

	state, err := ds.ReadUint(8)
	if err != nil {
		return nil, err
	}
	nominatorsCount, err := ds.ReadUint(16)
	if err != nil {
		return nil, err
	}
	stakeAmountSent, err := ds.ReadCoins()
	if err != nil {
		return nil, err
	}
	validatorAmount, err := ds.ReadCoins()
	if err != nil {
		return nil, err
	}
	configCell, err := ds.ReadRef()
	if err != nil {
		return nil, err
	}
	nominatorsCell, err := ds.ReadMaybeRef()
	if err != nil {
		return nil, err
	}
	withdrawRequestsCell, err := ds.ReadMaybeRef()
	if err != nil {
		return nil, err
	}

	result := &domain.PoolData{
		State:           uint8(state),
		NominatorsCount: uint16(nominatorsCount),
		StakeAmountSent: stakeAmountSent,
		ValidatorAmount: validatorAmount,
		Config:          configCell,
	}

	result.Nominators, err = parseNominators(nominatorsCell)
	if err != nil {
		return nil, err
	}
	result.WithdrawRequests, err = cell.ParseDict(withdrawRequestsCell, 256, addrHashKey, emptyValue)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// parseNominators decodes the 256-bit address hash dictionary of nominator
// deposits. Keys are workchain 0 address hashes.
func parseNominators(root *cell.Cell) (map[string]domain.NominatorValue, error) {
	return cell.ParseDict(root, 256, addrHashKey, nominatorValue)
}

func addrHashKey(key *cell.Slice) (string, error) {
	hash, err := key.ReadBytes(32)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("0:%X", hash), nil
}

// nominator#_ deposit:Coins pending_deposit:Coins = Nominator;
func nominatorValue(value *cell.Slice) (domain.NominatorValue, error) {
	deposit, err := value.ReadCoins()
	if err != nil {
		return domain.NominatorValue{}, err
	}
	pendingDeposit, err := value.ReadCoins()
	if err != nil {
		return domain.NominatorValue{}, err
	}
	return domain.NominatorValue{Deposit: deposit, PendingDeposit: pendingDeposit}, nil
}

func emptyValue(value *cell.Slice) (struct{}, error) {
	return struct{}{}, nil
}

// reconstruct replays the pool's message history since the task horizon
// into bookings and brings the subaccount balances up to the current state.
func (interactor *PoolInteractor) reconstruct(task domain.AccountTask, accountId tongo.AccountID, poolId int64, poolData *domain.PoolData) error {
	msgsToPool, err := interactor.archive.FindMessagesToPool(task.Address, task.AsOf)
	if err != nil {
		return fmt.Errorf("loading inbound messages: %w", err)
	}
	msgsFromPool, err := interactor.archive.FindMessagesFromPool(task.Address, task.AsOf)
	if err != nil {
		return fmt.Errorf("loading outbound messages: %w", err)
	}

	bookings := make([]domain.Booking, 0, len(msgsToPool))
	withdrawalRequests := make(map[string][]int64)
	var incomes []domain.MessageRow

	for _, msg := range msgsToPool {
		exitCode, actionCode, err := msg.Outcome()
		if err != nil {
			log.Printf("🔵 unreadable tx description at lt %v on %v - %v\n", msg.CreatedLt, task.Address, err.Error())
			continue
		}
		if exitCode != 0 || actionCode != 0 {
			continue
		}

		body, err := cell.FromBocBase64(msg.Body)
		if err != nil {
			continue
		}
		bs := body.BeginParse()
		op, err := bs.ReadUint(32)
		if err != nil {
			continue
		}

		switch uint32(op) {
		case OpcodeTextComment:
			letter, err := bs.ReadUint(8)
			if err != nil {
				continue
			}
			switch letter {
			case 'd':
				bookings = append(bookings, domain.Booking{
					SubaccountAddress: msg.Source,
					Type:              domain.BookingTypeDeposit,
					Lt:                msg.CreatedLt,
					Utime:             msg.CreatedAt,
					Credit:            msg.Value - DepositFee,
				})
				log.Printf("Deposit of %v (%v credited) at %v for %v on %v\n",
					util.NanoTonString(msg.Value), util.NanoString(msg.Value-DepositFee),
					msg.CreatedAt, msg.Source, task.Address)
			case 'w':
				withdrawalRequests[msg.Source] = append(withdrawalRequests[msg.Source], msg.CreatedAt)
				log.Printf("Withdrawal request at %v from %v on %v\n", msg.CreatedAt, msg.Source, task.Address)
			}
		case OpcodeRecoverStakeOk:
			if msg.Source == domain.ElectorAddress {
				incomes = append(incomes, msg)
			}
		}
	}

	for _, msg := range incomes {
		incomeBookings, err := interactor.incomeBookings(task.Address, accountId, msg)
		if err != nil {
			log.Printf("🟡 income at lt %v on %v skipped - %v\n", msg.CreatedLt, task.Address, err.Error())
			continue
		}
		bookings = append(bookings, incomeBookings...)
	}

	for _, msg := range msgsFromPool {
		booking, ok := matchWithdrawal(msg, withdrawalRequests)
		if !ok {
			continue
		}
		log.Printf("Withdrawal of %v from %v to %v at %v\n",
			util.NanoTonString(msg.Value), task.Address, msg.Destination, msg.CreatedAt)
		bookings = append(bookings, booking)
	}

	sort.SliceStable(bookings, func(i, j int) bool {
		if bookings[i].Utime != bookings[j].Utime {
			return bookings[i].Utime < bookings[j].Utime
		}
		return bookings[i].Lt < bookings[j].Lt
	})

	return interactor.persist(poolId, poolData, bookings)
}

// incomeBookings attributes one elector reward payout to the nominators
// that funded the stake, using the pool state a few blocks before the
// payout landed.
func (interactor *PoolInteractor) incomeBookings(address string, accountId tongo.AccountID, msg domain.MessageRow) ([]domain.Booking, error) {
	seqno := msg.BlockSeqno - IncomeLookbackBlocks
	block, err := interactor.archive.FindMasterchainBlock(seqno)
	if err != nil || block == nil {
		return nil, fmt.Errorf("no masterchain block %v in archive", seqno)
	}

	atBlock, err := masterchainBlockId(block)
	if err != nil {
		return nil, err
	}
	snapshot, err := interactor.chain.GetPoolData(accountId, atBlock)
	if err != nil {
		return nil, fmt.Errorf("running get_pool_data at block %v: %w", seqno, err)
	}
	if len(snapshot.Nominators) == 0 || snapshot.StakeAmountSent <= 0 {
		return nil, fmt.Errorf("empty nominator snapshot at block %v", seqno)
	}

	reward := msg.Value - snapshot.StakeAmountSent
	validatorReward := new(big.Int).Mul(big.NewInt(reward), big.NewInt(snapshot.ValidatorShareBps))
	validatorReward.Div(validatorReward, big.NewInt(10000))
	nominatorsReward := reward - validatorReward.Int64()

	log.Printf("Income on %v: value %v, prior stake %v, reward %v\n",
		address, util.NanoTonString(msg.Value),
		util.NanoTonString(snapshot.StakeAmountSent), util.NanoTonString(reward))

	bookings := make([]domain.Booking, 0, len(snapshot.Nominators))
	for owner, value := range snapshot.Nominators {
		if value.Deposit <= 0 {
			continue
		}
		share := float64(value.Deposit) / float64(snapshot.StakeAmountSent)
		credit := int64(share * float64(nominatorsReward))
		if credit <= 0 {
			continue
		}
		bookings = append(bookings, domain.Booking{
			SubaccountAddress: owner,
			Type:              domain.BookingTypeIncome,
			Lt:                msg.CreatedLt,
			Utime:             msg.CreatedAt,
			Credit:            credit,
		})
	}
	return bookings, nil
}

// matchWithdrawal decides whether an outbound message is a withdrawal
// payout: a plain transfer of at least one TON to a basechain address whose
// owner requested a withdrawal within the last two validation rounds.
func matchWithdrawal(msg domain.MessageRow, requests map[string][]int64) (domain.Booking, bool) {
	if !strings.HasPrefix(msg.Destination, "0:") {
		return domain.Booking{}, false
	}
	if msg.Bounced() {
		return domain.Booking{}, false
	}
	if msg.Value < MinWithdrawalValue {
		return domain.Booking{}, false
	}
	// Excess returns carry an op code; payouts have the canonical empty body.
	if msg.Body != cell.EmptyCellBoc {
		return domain.Booking{}, false
	}

	matched := false
	for _, requestedAt := range requests[msg.Destination] {
		if requestedAt >= msg.CreatedAt-WithdrawalWindow && requestedAt <= msg.CreatedAt {
			matched = true
			break
		}
	}
	if !matched {
		return domain.Booking{}, false
	}

	return domain.Booking{
		SubaccountAddress: msg.Destination,
		Type:              domain.BookingTypeWithdrawal,
		Lt:                msg.CreatedLt,
		Utime:             msg.CreatedAt,
		Debit:             msg.Value,
	}, true
}

// persist writes the sorted bookings idempotently, then brings every
// subaccount balance in line with the current nominators dictionary.
func (interactor *PoolInteractor) persist(poolId int64, poolData *domain.PoolData, bookings []domain.Booking) error {
	subaccounts, err := interactor.ledger.FindSubaccounts(poolId)
	if err != nil {
		return fmt.Errorf("loading subaccounts: %w", err)
	}

	subaccountIds := make(map[string]int64, len(subaccounts))
	for owner, sub := range subaccounts {
		subaccountIds[owner] = sub.SubaccountID
	}
	ensure := func(owner string) (int64, error) {
		if id, ok := subaccountIds[owner]; ok {
			return id, nil
		}
		id, err := interactor.ledger.EnsureSubaccount(poolId, owner)
		if err != nil {
			return 0, err
		}
		subaccountIds[owner] = id
		return id, nil
	}

	for _, booking := range bookings {
		subaccountId, err := ensure(booking.SubaccountAddress)
		if err != nil {
			return fmt.Errorf("ensuring subaccount %v: %w", booking.SubaccountAddress, err)
		}
		exists, err := interactor.ledger.BookingExists(booking.Fingerprint())
		if err != nil {
			return fmt.Errorf("checking booking: %w", err)
		}
		if exists {
			// Reprocessing after a restart; not an anomaly.
			continue
		}
		if err := interactor.ledger.InsertBooking(subaccountId, booking); err != nil {
			return fmt.Errorf("inserting booking: %w", err)
		}
		exporter.IncBookingCount()
	}

	// Balances of active nominators come from the current dictionary;
	// everyone else known for this pool is zeroed but keeps their history.
	for owner, value := range poolData.Nominators {
		subaccountId, err := ensure(owner)
		if err != nil {
			return fmt.Errorf("ensuring subaccount %v: %w", owner, err)
		}
		if err := interactor.ledger.UpsertNominator(subaccountId, value.Deposit, value.PendingDeposit); err != nil {
			return fmt.Errorf("updating nominator %v: %w", owner, err)
		}
	}
	for owner, sub := range subaccounts {
		if _, active := poolData.Nominators[owner]; active {
			continue
		}
		if sub.Balance == 0 && sub.PendingBalance == 0 {
			continue
		}
		if err := interactor.ledger.UpsertNominator(sub.SubaccountID, 0, 0); err != nil {
			return fmt.Errorf("deactivating nominator %v: %w", owner, err)
		}
	}
	return nil
}

// masterchainBlockId builds the liteserver block reference from an archived
// block row.
func masterchainBlockId(block *domain.BlockRef) (*tongo.BlockIDExt, error) {
	rootHash, err := base64.StdEncoding.DecodeString(block.RootHash)
	if err != nil {
		return nil, fmt.Errorf("decoding block root hash: %w", err)
	}
	fileHash, err := base64.StdEncoding.DecodeString(block.FileHash)
	if err != nil {
		return nil, fmt.Errorf("decoding block file hash: %w", err)
	}

	id := tongo.BlockIDExt{
		BlockID: tongo.BlockID{
			Workchain: -1,
			Shard:     0x8000000000000000,
			Seqno:     uint32(block.Seqno),
		},
	}
	copy(id.RootHash[:], rootHash)
	copy(id.FileHash[:], fileHash)
	return &id, nil
}
