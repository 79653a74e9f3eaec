package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.etcd.io/bbolt"

	"github.com/fundguard/fundguard/src/api/chain"
	"github.com/fundguard/fundguard/src/api/config"
	"github.com/fundguard/fundguard/src/api/data"
	"github.com/fundguard/fundguard/src/api/store"
	"github.com/fundguard/fundguard/src/api/wallet"
	"github.com/fundguard/fundguard/src/api/webserver"
)

func main() {
	cfg := config.Load()

	var backend store.Backend
	if cfg.MySQLDSN != "" {
		backend = data.NewMySQLBackend(data.MustMySQL(cfg.MySQLDSN))
	} else {
		bdb, err := bbolt.Open(cfg.BoltPath, 0o600, nil)
		if err != nil {
			log.Fatalf("bolt: %v", err)
		}
		defer bdb.Close()
		backend = store.NewBoltBackend(bdb)
	}

	var sessions store.Sessions
	var nonces webserver.NonceStore
	if cfg.RedisURL != "" {
		rdb := data.MustRedis(cfg.RedisURL)
		sessions = data.NewRedisSessions(rdb)
		nonces = data.NewRedisNonces(rdb)
	} else {
		log.Printf("REDIS_URL not set, sessions held in process memory")
		sessions = store.NewMemorySessions()
		nonces = webserver.NewMemoryNonces()
	}

	wallets := wallet.NewManager(wallet.NewKeyringVault(cfg.KeyringService))

	st, err := store.New(backend, sessions, wallets)
	if err != nil {
		log.Fatalf("store: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deps := webserver.Deps{
		Store:   st,
		Wallets: wallets,
		Nonces:  nonces,
	}
	if cfg.RPCURL != "" && cfg.ContractAddr != "" {
		chainClient, err := chain.Dial(ctx, cfg.RPCURL, cfg.ContractAddr)
		if err != nil {
			log.Fatalf("chain: %v", err)
		}
		indexer := chain.NewIndexer(chainClient, time.Duration(cfg.PollInterval)*time.Second)
		go indexer.Run(ctx)
		deps.Chain = chainClient
		deps.Indexer = indexer
		log.Printf("chain mode: contract %s", cfg.ContractAddr)
	} else {
		log.Printf("chain not configured, proposals served from local store")
	}

	router := webserver.New(cfg, deps)

	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http: %v", err)
		}
	}()
	log.Printf("FundGuard API listening on %s", cfg.Port)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	cancel()
	shutCtx, cancelShut := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShut()
	_ = httpSrv.Shutdown(shutCtx)
}
