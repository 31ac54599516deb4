package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"notarygw/admin"
	"notarygw/audit"
	"notarygw/config"
	"notarygw/internal/messaging/consumer"
	"notarygw/internal/sequence"
	ledger "notarygw/ledger/client"
	"notarygw/ledger/client/ethereum"
	"notarygw/notary"
	worker "notarygw/processing"
	"notarygw/storage/uploader"
	"notarygw/wallet"
)

const configDir = "./config"

func main() {
	logger := log.New(os.Stdout, "[GATEWAY] ", log.LstdFlags|log.Lshortfile)
	logger.Println("Starting Notarization Gateway...")

	// 1. Load Configuration
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		logger.Fatalf("FATAL: Failed to load configuration: %v", err)
	}
	if cfg.Gateway == nil {
		logger.Fatalf("FATAL: gateway.defaults.yml not found in %s", configDir)
	}
	if cfg.Ledger == nil {
		logger.Fatalf("FATAL: client_config.yml not found in %s", configDir)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Initialize Ledger Client
	logger.Println("Initializing ledger client...")
	chainSpecific, err := ledger.LoadChainSpecificConfig(cfg.Ledger.LedgerType, configDir)
	if err != nil {
		logger.Fatalf("FATAL: Failed to load chain-specific config: %v", err)
	}
	cfg.Ledger.ChainSpecific = chainSpecific

	ledgerClient, err := ledger.NewClient(cfg.Ledger, logger)
	if err != nil {
		logger.Fatalf("FATAL: Failed to initialize ledger client: %v", err)
	}
	defer ledgerClient.Close()

	// 3. Initialize Operating Wallet
	signer, err := buildSigner(cfg.Gateway.Wallet, logger)
	if err != nil {
		logger.Fatalf("FATAL: Failed to initialize wallet signer: %v", err)
	}
	logger.Printf("Operating wallet: %s", signer.Address())

	// 4. Initialize Storage Adapter
	store, err := uploader.New(&cfg.Gateway.Storage, logger)
	if err != nil {
		logger.Fatalf("FATAL: Failed to initialize storage adapter: %v", err)
	}
	defer store.Close()

	// 5. Initialize Audit Publisher
	var auditPub audit.Publisher = audit.NopPublisher{}
	if len(cfg.Gateway.KafkaAudit.Brokers) > 0 {
		kafkaPub, err := audit.NewKafkaPublisher(cfg.Gateway.KafkaAudit, logger)
		if err != nil {
			logger.Fatalf("FATAL: Failed to initialize audit publisher: %v", err)
		}
		defer kafkaPub.Close()
		auditPub = kafkaPub
	}

	// 6. Initialize Administration Engine
	// The registry and sequence are shared with the orchestrator so role
	// checks apply to notarization calls and all transaction ids are ordered.
	registry := admin.NewRegistry()
	seq := sequence.New()

	owner := cfg.Gateway.OwnerAddress
	if owner == "" {
		owner = signer.Address()
	}
	manager, err := admin.NewManager(owner, registry, seq, auditPub, logger)
	if err != nil {
		logger.Fatalf("FATAL: Failed to initialize administration engine: %v", err)
	}

	registryAddr, nftAddr, err := resolveContracts(ctx, cfg.Ledger, manager, signer, logger)
	if err != nil {
		logger.Fatalf("FATAL: Failed to resolve contract addresses: %v", err)
	}

	// 7. Initialize Orchestrator
	orch, err := notary.New(notary.Params{
		Ledger:          ledgerClient,
		Uploader:        store,
		Signer:          signer,
		Gate:            registry,
		Audit:           auditPub,
		Sequence:        seq,
		Logger:          logger,
		RegistryAddress: registryAddr,
		NFTAddress:      nftAddr,
		ChainID:         chainID(cfg.Ledger),
		GasPriceGwei:    cfg.Ledger.GasPriceGwei,
		RetryLimit:      cfg.Ledger.RetryLimit,
		RetryInterval:   time.Duration(cfg.Ledger.RetryInterval) * time.Millisecond,
	})
	if err != nil {
		logger.Fatalf("FATAL: Failed to initialize orchestrator: %v", err)
	}

	// 8. Initialize Multiple Consumers
	var mqConsumers []consumer.Consumer
	if len(cfg.Gateway.KafkaConsumer.Brokers) > 0 && cfg.Gateway.KafkaConsumer.Brokers[0] != "mock://local" {
		logger.Printf("Initializing %d Kafka request consumers...", cfg.Gateway.KafkaConsumer.Count)
		for i := 0; i < cfg.Gateway.KafkaConsumer.Count; i++ {
			kafkaConsumer, err := consumer.NewKafkaConsumer(cfg.Gateway.KafkaConsumer, logger)
			if err != nil {
				logger.Fatalf("FATAL: Failed to initialize Kafka consumer %d: %v", i, err)
			}
			mqConsumers = append(mqConsumers, kafkaConsumer)
		}
	} else {
		logger.Println("Initializing Mock request consumer...")
		mqConsumers = append(mqConsumers, consumer.NewMockConsumer(logger, consumer.PredefinedRequests()))
	}

	defer func() {
		for _, c := range mqConsumers {
			c.Close()
		}
	}()

	// 9. Create and Start Multiple Workers
	var workers []*worker.Worker
	var wg sync.WaitGroup

	for i, c := range mqConsumers {
		workerInstance := worker.New(cfg.Gateway.Worker, cfg.Gateway.MaxTaskRetries, logger, c, orch)
		workers = append(workers, workerInstance)

		wg.Add(1)
		go func(workerID int, w *worker.Worker) {
			defer wg.Done()
			logger.Printf("Starting worker %d with its dedicated consumer...", workerID)
			w.Run(ctx)
			logger.Printf("Worker %d stopped.", workerID)
		}(i+1, workerInstance)
	}

	logger.Printf("Notarization Gateway started with %d workers. Press Ctrl+C to stop.", len(workers))

	// 10. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Println("Received shutdown signal, initiating graceful shutdown...")
	cancel()

	logger.Println("Waiting for all workers to finish...")
	wg.Wait()

	logger.Println("Notarization Gateway shut down gracefully.")
}

// buildSigner selects the wallet implementation. A configured key reference
// gets the real signer; otherwise the deterministic static signer is used.
func buildSigner(cfg config.WalletConfig, logger *log.Logger) (wallet.Signer, error) {
	if cfg.KeyFile != "" || cfg.KeyEnv != "" {
		return wallet.NewLocalSigner(cfg)
	}
	addr := cfg.Address
	if addr == "" {
		addr = wallet.DefaultMockAddress
		logger.Println("No wallet configured, using the default mock wallet")
	}
	return wallet.NewStaticSigner(addr)
}

// resolveContracts returns the hash registry and NFT contract addresses.
// Configured addresses are recorded as-is; missing ones are deployed through
// the administration engine, which also grants the operating wallet the roles
// the orchestrator needs.
func resolveContracts(ctx context.Context, cfg *config.LedgerConfig, manager *admin.Manager, signer wallet.Signer, logger *log.Logger) (string, string, error) {
	owner := manager.Owner()

	registryAddr := cfg.ContractAddress
	if registryAddr == "" {
		dep, err := manager.DeployHashRegistry(ctx, owner)
		if err != nil {
			return "", "", err
		}
		registryAddr = dep.ContractAddress
		logger.Printf("Deployed hash registry at %s (tx %s)", dep.ContractAddress, dep.TxHash)
	} else if err := manager.RecordContract(admin.ContractHashRegistry, registryAddr); err != nil {
		return "", "", err
	}

	nftAddr := cfg.NFTContractAddress
	if nftAddr == "" {
		dep, err := manager.DeployNFTContract(ctx, owner, "", "")
		if err != nil {
			return "", "", err
		}
		nftAddr = dep.ContractAddress
		logger.Printf("Deployed NFT contract %s (%s) at %s (tx %s)", dep.Name, dep.Symbol, dep.ContractAddress, dep.TxHash)
	} else if err := manager.RecordContract(admin.ContractNFT, nftAddr); err != nil {
		return "", "", err
	}

	if _, err := manager.GrantRole(ctx, owner, registryAddr, notary.RoleNotary, signer.Address()); err != nil {
		return "", "", err
	}
	if _, err := manager.GrantRole(ctx, owner, nftAddr, notary.RoleMinter, signer.Address()); err != nil {
		return "", "", err
	}
	return registryAddr, nftAddr, nil
}

func chainID(cfg *config.LedgerConfig) int64 {
	if eth, ok := cfg.ChainSpecific.(*ethereum.Config); ok && eth != nil {
		return eth.ChainID
	}
	return 0
}
