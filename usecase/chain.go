package usecase

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/1IxI1/sc-indexer/domain"
	"github.com/1IxI1/sc-indexer/domain/cell"
	"github.com/1IxI1/sc-indexer/domain/config"

	"github.com/tonkeeper/tongo"
	"github.com/tonkeeper/tongo/liteapi"
	"github.com/tonkeeper/tongo/tlb"
	"golang.org/x/time/rate"
)

var (
	ErrorNoAccountState  = fmt.Errorf("account has no active state with data")
	ErrorInvalidPoolData = fmt.Errorf("unexpected get_pool_data result stack")
)

// ChainInteractor wraps the liteserver connection. The rate limiter guards
// every call because the liteserver is a shared, quota-limited resource.
// A transport failure is retried once on a fresh connection before the
// account is given up for the cycle. The interactor is shared by all worker
// goroutines, and a reconnect swaps the client pointer while others read it,
// so every access goes through the mutex.
type ChainInteractor struct {
	mutex   sync.Mutex
	client  *liteapi.Client
	limiter *rate.Limiter
}

func NewChainInteractor(client *liteapi.Client, limiter *rate.Limiter) *ChainInteractor {
	return &ChainInteractor{
		client:  client,
		limiter: limiter,
	}
}

func NewLiteClient() (*liteapi.Client, error) {
	switch config.GetNetwork() {
	case config.MainNetwork:
		return liteapi.NewClientWithDefaultMainnet()
	case config.TestNetwork:
		return liteapi.NewClientWithDefaultTestnet()
	}
	return nil, config.ErrorInvalidNetwork
}

func (interactor *ChainInteractor) currentClient() *liteapi.Client {
	interactor.mutex.Lock()
	defer interactor.mutex.Unlock()
	return interactor.client
}

func (interactor *ChainInteractor) replaceClient(client *liteapi.Client) {
	interactor.mutex.Lock()
	defer interactor.mutex.Unlock()
	interactor.client = client
}

func (interactor *ChainInteractor) reconnect() error {
	client, err := NewLiteClient()
	if err != nil {
		return err
	}
	interactor.replaceClient(client)
	return nil
}

// GetAccountData returns the storage cell of an account's current state.
func (interactor *ChainInteractor) GetAccountData(accountId tongo.AccountID) (*cell.Cell, error) {
	data, err := interactor.accountData(accountId)
	if err == nil {
		return data, nil
	}

	log.Printf("🟡 getting account state for %v - %v, reconnecting lite client\n", accountId.ToRaw(), err.Error())
	if rerr := interactor.reconnect(); rerr != nil {
		return nil, rerr
	}
	return interactor.accountData(accountId)
}

func (interactor *ChainInteractor) accountData(accountId tongo.AccountID) (*cell.Cell, error) {
	interactor.limiter.Wait(context.Background())

	state, err := interactor.currentClient().GetAccountState(context.Background(), accountId)
	if err != nil {
		return nil, err
	}
	if state.Account.SumType != "Account" {
		return nil, ErrorNoAccountState
	}
	storageState := state.Account.Account.Storage.State
	if storageState.SumType != "AccountActive" {
		return nil, ErrorNoAccountState
	}
	init := storageState.AccountActive.StateInit
	if !init.Data.Exists {
		return nil, ErrorNoAccountState
	}

	tongoCell := init.Data.Value.Value
	raw, err := tongoCell.ToBoc()
	if err != nil {
		return nil, err
	}
	roots, err := cell.FromBoc(raw)
	if err != nil {
		return nil, err
	}
	return roots[0], nil
}

// GetPoolData runs the pool's read-only state query, optionally pinned to a
// historical block, and returns the stake, validator share and nominator
// snapshot.
func (interactor *ChainInteractor) GetPoolData(accountId tongo.AccountID, atBlock *tongo.BlockIDExt) (*domain.PoolSnapshot, error) {
	interactor.limiter.Wait(context.Background())

	client := interactor.currentClient()
	var stack tlb.VmStack
	var err error
	if atBlock != nil {
		pinned := client.WithBlock(*atBlock)
		_, stack, err = pinned.RunSmcMethod(context.Background(), accountId, "get_pool_data", tlb.VmStack{})
	} else {
		_, stack, err = client.RunSmcMethod(context.Background(), accountId, "get_pool_data", tlb.VmStack{})
	}
	if err != nil {
		return nil, err
	}

	// get_pool_data returns the full pool layout; only the stake sent to the
	// validator, the validator share and the nominators dictionary matter
	// here.
	if len(stack) < 10 ||
		stack[2].SumType != "VmStkTinyInt" ||
		stack[5].SumType != "VmStkTinyInt" ||
		(stack[9].SumType != "VmStkCell" && stack[9].SumType != "VmStkNull") {
		return nil, ErrorInvalidPoolData
	}

	snapshot := &domain.PoolSnapshot{
		StakeAmountSent:   stack[2].VmStkTinyInt,
		ValidatorShareBps: stack[5].VmStkTinyInt,
	}

	if stack[9].SumType == "VmStkCell" {
		tongoCell := stack[9].VmStkCell.Value
		raw, err := tongoCell.ToBoc()
		if err != nil {
			return nil, err
		}
		roots, err := cell.FromBoc(raw)
		if err != nil {
			return nil, err
		}
		snapshot.Nominators, err = parseNominators(roots[0])
		if err != nil {
			return nil, err
		}
	}

	return snapshot, nil
}
