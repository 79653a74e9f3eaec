package webserver

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/fundguard/fundguard/src/api/chain"
	"github.com/fundguard/fundguard/src/api/config"
	"github.com/fundguard/fundguard/src/api/store"
	"github.com/fundguard/fundguard/src/api/wallet"
)

// ChainClient is the slice of the contract client the handlers use.
// *chain.Client satisfies it in production.
type ChainClient interface {
	RegisterMember(ctx context.Context, key *ecdsa.PrivateKey) error
	CreateProposal(ctx context.Context, key *ecdsa.PrivateKey, title, description string, amount *big.Int) error
	Vote(ctx context.Context, key *ecdsa.PrivateKey, proposalID uint64, support bool) error
	ExecuteProposal(ctx context.Context, key *ecdsa.PrivateKey, proposalID uint64) error
	VerifyMilestone(ctx context.Context, key *ecdsa.PrivateKey, milestoneID uint64, approved bool) error
	GetProposal(ctx context.Context, id uint64) (*chain.Proposal, error)
	GetMember(ctx context.Context, address string) (*chain.Member, error)
	HasVoted(ctx context.Context, proposalID uint64, voter string) (bool, error)
	Balance(ctx context.Context, address string) (*big.Int, error)
}

// ChainIndex is the cached read surface over contract state.
type ChainIndex interface {
	Proposals() []chain.Proposal
	Milestones() []chain.Milestone
	Refresh(ctx context.Context) error
}

// Deps carries everything the handlers need. Chain and Indexer are nil
// in local mock mode.
type Deps struct {
	Store   *store.Store
	Wallets *wallet.Manager
	Nonces  NonceStore
	Chain   ChainClient
	Indexer ChainIndex
}

func attachRoutes(r *gin.Engine, cfg config.Config, deps Deps) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "https://app.fundguard.org"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	secret := []byte(cfg.JWTSecret)
	authH := NewAuth(deps.Store, secret)
	walletH := NewWallet(deps.Store, deps.Nonces, deps.Chain)
	communityH := NewCommunities(deps.Store)
	proposalH := NewProposals(deps.Store, deps.Wallets, deps.Chain, deps.Indexer)
	milestoneH := NewMilestones(deps.Store, deps.Wallets, deps.Chain, deps.Indexer)
	authLimiter := NewRateLimiter(10, time.Minute)

	v1 := r.Group("/v1")
	{
		v1.POST("/auth/register", RateLimitMiddleware(authLimiter), authH.Register)
		v1.POST("/auth/login", RateLimitMiddleware(authLimiter), authH.Login)

		secured := v1.Group("")
		secured.Use(JWTMiddleware(secret))
		secured.POST("/auth/logout", authH.Logout)
		secured.GET("/auth/session", authH.Session)

		secured.POST("/wallet/challenge", walletH.Challenge)
		secured.POST("/wallet/verify", walletH.Verify)
		secured.GET("/wallet/balance", walletH.Balance)

		secured.POST("/communities/join", communityH.Join)
		secured.POST("/communities/select", communityH.Select)
		secured.GET("/communities", communityH.List)
		secured.GET("/communities/:code", communityH.Get)
		secured.PUT("/communities/:code/settings", communityH.UpdateSettings)

		secured.POST("/proposals", proposalH.Create)
		secured.GET("/proposals", proposalH.List)
		secured.GET("/proposals/:id/votes", proposalH.VoteSummary)
		secured.POST("/proposals/:id/execute", proposalH.Execute)
		secured.POST("/votes", proposalH.Vote)

		secured.GET("/milestones", milestoneH.List)
		secured.POST("/milestones/:id/verify", milestoneH.Verify)
	}
}
