package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	MainNetwork = "mainnet"
	TestNetwork = "testnet"
)

var (
	ErrorInvalidNetwork = fmt.Errorf("network must be equal to 'mainnet' or 'testnet' only")

	ErrorInvalidIndexInterval = fmt.Errorf("invalid time interval for index process")
	ErrorInvalidMaxInFlight   = fmt.Errorf("max_tasks_in_flight must be a positive integer")
	ErrorInvalidMaxPerSecond  = fmt.Errorf("max_task_starts_per_second must be positive")
	ErrorNoResultDbUri        = fmt.Errorf("no result_db_uri is defined")
	ErrorNoOriginDbUri        = fmt.Errorf("no origin_db_uri is defined")
	ErrorNoCheckpointFile     = fmt.Errorf("no checkpoint_file is defined")
)

var (
	resultDbUri    string
	originDbUri    string
	network        string
	indexInterval  time.Duration
	maxInFlight    int
	maxPerSecond   float64
	checkpointFile string
	metricsAddr    string
)

func ReadConfig(filePath string) {
	viper.SetConfigFile(filePath)

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("⚠️ Failed reading config file: %v\n", err.Error())
	}

	err := initializeVariables()
	if err != nil {
		log.Fatalf("Configuration error - %v\n", err.Error())
	}
}

// This method processes the configuration parameters and keeps the processed
// values in some variables for later accesses rapidly.
func initializeVariables() error {
	var err error

	// Database stuff
	resultDbUri = strings.TrimSpace(viper.GetString("result_db_uri"))
	if resultDbUri == "" {
		return ErrorNoResultDbUri
	}
	originDbUri = strings.TrimSpace(viper.GetString("origin_db_uri"))
	if originDbUri == "" {
		return ErrorNoOriginDbUri
	}

	// Network stuff
	network = strings.TrimSpace(strings.ToLower(viper.GetString("network")))
	if strings.Compare(network, MainNetwork) != 0 && strings.Compare(network, TestNetwork) != 0 {
		return ErrorInvalidNetwork
	}

	// Checkpoint stuff
	checkpointFile = strings.TrimSpace(viper.GetString("checkpoint_file"))
	if checkpointFile == "" {
		return ErrorNoCheckpointFile
	}

	//---------------------------------------------------------------
	// index interval
	strValue := viper.GetString("index_interval")
	indexInterval, err = time.ParseDuration(strValue)
	if err != nil {
		return ErrorInvalidIndexInterval
	}

	//---------------------------------------------------------------
	// scheduler bounds; these exist to bound the load on the shared
	// liteserver endpoint, not to tune throughput
	maxInFlight = viper.GetInt("max_tasks_in_flight")
	if maxInFlight <= 0 {
		return ErrorInvalidMaxInFlight
	}

	maxPerSecond = viper.GetFloat64("max_task_starts_per_second")
	if maxPerSecond <= 0 {
		return ErrorInvalidMaxPerSecond
	}

	//---------------------------------------------------------------
	// metrics listen address; empty disables the exporter endpoint
	metricsAddr = strings.TrimSpace(viper.GetString("metrics_listen_addr"))

	return nil
}

//-------------------------------------------------------------------
// Normal configuration values

func GetResultDbUri() string {
	return resultDbUri
}

func GetOriginDbUri() string {
	return originDbUri
}

func GetNetwork() string {
	return network
}

func GetIndexInterval() time.Duration {
	return indexInterval
}

func GetMaxInFlight() int {
	return maxInFlight
}

func GetMaxPerSecond() float64 {
	return maxPerSecond
}

func GetCheckpointFile() string {
	return checkpointFile
}

func GetMetricsAddr() string {
	return metricsAddr
}

// -------------------------------------------------------------------
// Evaluating values

func IsTestNet() bool {
	return strings.Compare(network, TestNetwork) == 0
}
