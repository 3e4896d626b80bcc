package repository

import (
	"github.com/1IxI1/sc-indexer/domain"

	"github.com/behrang/sqlbatch"
	"github.com/lib/pq"
)

const (
	sqlArchiveFindCandidates = `
	select
		account, balance, code_hash, data_hash, timestamp
	from latest_account_states
	where code_hash = any($1) and timestamp > $2
	order by timestamp
`

	sqlArchiveFindMessagesToPool = `
	select
		m.source, m.destination, m.value::bigint, m.created_lt, m.created_at,
		c.body, t.description, t.block_seqno
	from messages m
	join message_contents c on m.body_hash = c.hash
	join transaction_messages tm on m.hash = tm.message_hash
	join transactions t on tm.transaction_hash = t.hash
	where m.destination = $1 and tm.direction = 'in' and m.created_at > $2
	order by m.created_lt
`

	sqlArchiveFindMessagesFromPool = `
	select
		m.source, m.destination, m.value::bigint, m.created_lt, m.created_at,
		c.body, t.description, t.block_seqno
	from messages m
	join message_contents c on m.body_hash = c.hash
	join transaction_messages tm on m.hash = tm.message_hash
	join transactions t on tm.transaction_hash = t.hash
	where m.source = $1 and tm.direction = 'out' and m.created_at > $2
	order by m.created_lt
`

	sqlArchiveFindMasterchainBlock = `
	select
		seqno, root_hash, file_hash
	from blocks
	where workchain = -1 and seqno = $1
`
)

// ArchiveRepository reads the source archive: candidate accounts, the
// message history of a pool and masterchain block references. The archive is
// never written to.
type ArchiveRepository struct {
	batchHandler BatchHandler
}

func NewArchiveRepository(db BatchHandler) *ArchiveRepository {
	return &ArchiveRepository{batchHandler: db}
}

func readAllAccountStates(memo interface{}, scan func(...interface{}) error) (interface{}, error) {
	r := domain.AccountState{}
	err := scan(
		&r.Account, &r.Balance, &r.CodeHash, &r.DataHash, &r.Timestamp,
	)

	list := memo.([]domain.AccountState)
	list = append(list, r)
	return list, err
}

func readAllMessages(memo interface{}, scan func(...interface{}) error) (interface{}, error) {
	r := domain.MessageRow{}
	var descr []byte
	err := scan(
		&r.Source, &r.Destination, &r.Value, &r.CreatedLt, &r.CreatedAt,
		&r.Body, &descr, &r.BlockSeqno,
	)
	if err == nil {
		r.Description = descr
	}

	list := memo.([]domain.MessageRow)
	list = append(list, r)
	return list, err
}

func readBlockRef(scan func(...interface{}) error) (interface{}, error) {
	r := domain.BlockRef{}
	err := scan(
		&r.Seqno, &r.RootHash, &r.FileHash,
	)
	return &r, err
}

// FindCandidateAccounts returns every account of a registered contract type
// whose last observed state is newer than the given second, ascending by
// timestamp.
func (repo *ArchiveRepository) FindCandidateAccounts(codeHashes []string, since int64) ([]domain.AccountState, error) {
	results, err := repo.batchHandler.Batch(&BatchOptionNormalReadOnly, []sqlbatch.Command{
		{
			Query:   sqlArchiveFindCandidates,
			Args:    []interface{}{pq.Array(codeHashes), since},
			Init:    make([]domain.AccountState, 0),
			ReadAll: readAllAccountStates,
		},
	})
	result, _ := results[0].([]domain.AccountState)
	return result, err
}

// FindMessagesToPool returns the inbound messages of a pool delivered after
// the given second, with their transaction outcome, ascending by logical
// time.
func (repo *ArchiveRepository) FindMessagesToPool(pool string, since int64) ([]domain.MessageRow, error) {
	results, err := repo.batchHandler.Batch(&BatchOptionNormalReadOnly, []sqlbatch.Command{
		{
			Query:   sqlArchiveFindMessagesToPool,
			Args:    []interface{}{pool, since},
			Init:    make([]domain.MessageRow, 0),
			ReadAll: readAllMessages,
		},
	})
	result, _ := results[0].([]domain.MessageRow)
	return result, err
}

// FindMessagesFromPool returns the outbound messages of a pool sent after
// the given second, ascending by logical time.
func (repo *ArchiveRepository) FindMessagesFromPool(pool string, since int64) ([]domain.MessageRow, error) {
	results, err := repo.batchHandler.Batch(&BatchOptionNormalReadOnly, []sqlbatch.Command{
		{
			Query:   sqlArchiveFindMessagesFromPool,
			Args:    []interface{}{pool, since},
			Init:    make([]domain.MessageRow, 0),
			ReadAll: readAllMessages,
		},
	})
	result, _ := results[0].([]domain.MessageRow)
	return result, err
}

// FindMasterchainBlock returns the archived masterchain block with the given
// sequence number, or nil if the archive has no such block.
func (repo *ArchiveRepository) FindMasterchainBlock(seqno int32) (*domain.BlockRef, error) {
	results, err := repo.batchHandler.Batch(&BatchOptionNormalReadOnly, []sqlbatch.Command{
		{
			Query:   sqlArchiveFindMasterchainBlock,
			Args:    []interface{}{seqno},
			ReadOne: readBlockRef,
		},
	})
	if err != nil {
		return nil, err
	}
	result, ok := results[0].(*domain.BlockRef)
	if !ok {
		return nil, nil
	}
	return result, nil
}
