package cmd

import (
	"database/sql"
	"log"
	"time"

	"github.com/1IxI1/sc-indexer/domain/config"
	"github.com/1IxI1/sc-indexer/infrastructure/dbhandler"
	"github.com/1IxI1/sc-indexer/infrastructure/localdb"
	"github.com/1IxI1/sc-indexer/interface/exporter"
	"github.com/1IxI1/sc-indexer/interface/repository"
	"github.com/1IxI1/sc-indexer/usecase"

	_ "github.com/lib/pq"
	"golang.org/x/time/rate"
)

func defaultDependencyInject() {
	var err error

	resultPool, err = sql.Open("postgres", config.GetResultDbUri())
	if err != nil {
		log.Fatal(err)
	}
	resultPool.SetMaxOpenConns(20)
	resultPool.SetMaxIdleConns(5)
	resultPool.SetConnMaxIdleTime(1 * time.Minute)
	resultPool.SetConnMaxLifetime(4 * time.Hour)

	originPool, err = sql.Open("postgres", config.GetOriginDbUri())
	if err != nil {
		log.Fatal(err)
	}
	originPool.SetMaxOpenConns(8)
	originPool.SetMaxIdleConns(4)
	originPool.SetConnMaxIdleTime(1 * time.Minute)
	originPool.SetConnMaxLifetime(4 * time.Hour)

	resultHandler := dbhandler.DBHandler{DB: resultPool}
	originHandler := dbhandler.DBHandler{DB: originPool}

	client, err := usecase.NewLiteClient()
	if err != nil {
		log.Fatal("Unable to create lite client: ", err)
	}

	// One limiter is shared by the task scheduler and the lite client: the
	// liteserver quota is global, not per caller.
	limiter := rate.NewLimiter(rate.Limit(config.GetMaxPerSecond()), 1)

	archiveRepository := repository.NewArchiveRepository(originHandler)
	ledgerRepository := repository.NewLedgerRepository(resultHandler)

	chainInteractor = usecase.NewChainInteractor(client, limiter)
	poolInteractor = usecase.NewPoolInteractor(chainInteractor, archiveRepository, ledgerRepository)

	registry = usecase.NewRegistry()
	registry.Register(usecase.NominatorPoolCodeHash, poolInteractor.Handle)

	checkpoint := localdb.New(config.GetCheckpointFile())
	indexInteractor = usecase.NewIndexInteractor(registry, archiveRepository, checkpoint, limiter, config.GetMaxInFlight())

	exporter.Init()
	exporter.Serve(config.GetMetricsAddr())
}

var resultPool *sql.DB
var originPool *sql.DB
var registry *usecase.Registry
var chainInteractor *usecase.ChainInteractor
var poolInteractor *usecase.PoolInteractor
var indexInteractor *usecase.IndexInteractor
