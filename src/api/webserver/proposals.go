package webserver

import (
	"math/big"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"

	"github.com/fundguard/fundguard/src/api/store"
	"github.com/fundguard/fundguard/src/api/wallet"
)

type Proposals struct {
	store     *store.Store
	wallets   *wallet.Manager
	chain     ChainClient
	indexer   ChainIndex
	inflight  *Inflight
	sanitizer *bluemonday.Policy
}

func NewProposals(st *store.Store, wallets *wallet.Manager, chainClient ChainClient, indexer ChainIndex) Proposals {
	return Proposals{
		store:     st,
		wallets:   wallets,
		chain:     chainClient,
		indexer:   indexer,
		inflight:  NewInflight(),
		sanitizer: bluemonday.StrictPolicy(),
	}
}

func (p Proposals) chainMode() bool { return p.chain != nil }

// ensureChainMember registers the caller's address on the contract the
// first time it participates. The contract rejects unregistered voters
// and proposers.
func ensureChainMember(c *gin.Context, ch ChainClient, st *store.Store, wallets *wallet.Manager, email string) error {
	acct, err := st.Account(email)
	if err != nil {
		return err
	}
	member, err := ch.GetMember(c, acct.Address)
	if err != nil {
		return err
	}
	if member.IsRegistered {
		return nil
	}
	key, err := wallets.Signer(email)
	if err != nil {
		return err
	}
	return ch.RegisterMember(c, key)
}

func (p Proposals) Create(c *gin.Context) {
	var req struct {
		Title       string `json:"title" binding:"required,max=255"`
		Description string `json:"description" binding:"required,max=10000"`
		Amount      uint64 `json:"amount" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	req.Title = p.sanitizer.Sanitize(req.Title)
	req.Description = p.sanitizer.Sanitize(req.Description)

	email := c.GetString("email")

	if p.chainMode() {
		// The contract is the only proposal ledger in chain mode. The
		// store just gates who may propose; nothing lands locally until
		// the transaction is mined, and the indexer serves the result.
		if err := p.store.CanPropose(c, email); err != nil {
			fail(c, err)
			return
		}
		key, err := p.wallets.Signer(email)
		if err != nil {
			fail(c, err)
			return
		}
		if err := ensureChainMember(c, p.chain, p.store, p.wallets, email); err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"err": err.Error()})
			return
		}
		if err := p.chain.CreateProposal(c, key, req.Title, req.Description, new(big.Int).SetUint64(req.Amount)); err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"err": err.Error()})
			return
		}
		// Points are credited only after the transaction is mined.
		if sess, err := p.store.Session(c, email); err == nil && sess != nil && sess.CommunityCode != "" {
			_ = p.store.AwardPoints(sess.CommunityCode, email, store.PointsProposal)
		}
		_ = p.indexer.Refresh(c)
		c.JSON(http.StatusCreated, gin.H{"status": "submitted"})
		return
	}

	prop, err := p.store.CreateProposal(c, email, req.Title, req.Description, req.Amount)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, prop)
}

func (p Proposals) List(c *gin.Context) {
	if p.chainMode() {
		c.JSON(http.StatusOK, p.indexer.Proposals())
		return
	}
	community, err := p.store.CurrentCommunity(c, c.GetString("email"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, community.Proposals)
}

func (p Proposals) Vote(c *gin.Context) {
	var req struct {
		ProposalID string `json:"proposalId" binding:"required"`
		Support    *bool  `json:"support" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	email := c.GetString("email")

	// One in-flight vote per (voter, proposal); rapid double-submission
	// gets a conflict instead of a double count.
	key := email + "/" + req.ProposalID
	if !p.inflight.TryAcquire(key) {
		c.JSON(http.StatusConflict, gin.H{"err": "vote already in progress"})
		return
	}
	defer p.inflight.Release(key)

	if p.chainMode() {
		p.voteOnChain(c, email, req.ProposalID, *req.Support)
		return
	}
	if err := p.store.CastVote(c, email, req.ProposalID, *req.Support); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

func (p Proposals) voteOnChain(c *gin.Context, email, proposalID string, support bool) {
	id, err := strconv.ParseUint(proposalID, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": "bad proposal id"})
		return
	}
	acct, err := p.store.Account(email)
	if err != nil {
		fail(c, err)
		return
	}
	if err := ensureChainMember(c, p.chain, p.store, p.wallets, email); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"err": err.Error()})
		return
	}
	voted, err := p.chain.HasVoted(c, id, acct.Address)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"err": err.Error()})
		return
	}
	if voted {
		fail(c, store.ErrAlreadyVoted)
		return
	}
	key, err := p.wallets.Signer(email)
	if err != nil {
		fail(c, err)
		return
	}
	if err := p.chain.Vote(c, key, id, support); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"err": err.Error()})
		return
	}
	// Civic points stay on the local ledger in both modes.
	if sess, err := p.store.Session(c, email); err == nil && sess != nil && sess.CommunityCode != "" {
		_ = p.store.AwardPoints(sess.CommunityCode, email, store.PointsVote)
	}
	c.Status(http.StatusCreated)
}

// Execute settles a proposal after its deadline. The contract enforces
// timing and quorum; the server only relays the signed call.
func (p Proposals) Execute(c *gin.Context) {
	if !p.chainMode() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"err": "chain not configured"})
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": "bad proposal id"})
		return
	}
	key, err := p.wallets.Signer(c.GetString("email"))
	if err != nil {
		fail(c, err)
		return
	}
	if err := p.chain.ExecuteProposal(c, key, id); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"err": err.Error()})
		return
	}
	_ = p.indexer.Refresh(c)
	c.Status(http.StatusNoContent)
}

// VoteSummary aggregates yes/no counts for one proposal.
func (p Proposals) VoteSummary(c *gin.Context) {
	proposalID := c.Param("id")
	if p.chainMode() {
		id, err := strconv.ParseUint(proposalID, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"err": "bad proposal id"})
			return
		}
		prop, err := p.chain.GetProposal(c, id)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"err": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"yes": prop.YesVotes, "no": prop.NoVotes})
		return
	}
	community, err := p.store.CurrentCommunity(c, c.GetString("email"))
	if err != nil {
		fail(c, err)
		return
	}
	for _, prop := range community.Proposals {
		if prop.ID == proposalID {
			c.JSON(http.StatusOK, gin.H{"yes": prop.YesVotes, "no": prop.NoVotes})
			return
		}
	}
	fail(c, store.ErrNotFound)
}
