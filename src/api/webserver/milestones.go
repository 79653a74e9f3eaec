package webserver

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/fundguard/fundguard/src/api/store"
	"github.com/fundguard/fundguard/src/api/wallet"
)

// Milestones are chain-only: verification releases funds, which the
// contract owns end to end.
type Milestones struct {
	store   *store.Store
	wallets *wallet.Manager
	chain   ChainClient
	indexer ChainIndex
}

func NewMilestones(st *store.Store, wallets *wallet.Manager, chainClient ChainClient, indexer ChainIndex) Milestones {
	return Milestones{store: st, wallets: wallets, chain: chainClient, indexer: indexer}
}

func (m Milestones) List(c *gin.Context) {
	if m.chain == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"err": "chain not configured"})
		return
	}
	c.JSON(http.StatusOK, m.indexer.Milestones())
}

func (m Milestones) Verify(c *gin.Context) {
	if m.chain == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"err": "chain not configured"})
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": "bad milestone id"})
		return
	}
	var req struct {
		Approved *bool `json:"approved" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	email := c.GetString("email")
	key, err := m.wallets.Signer(email)
	if err != nil {
		fail(c, err)
		return
	}
	if err := ensureChainMember(c, m.chain, m.store, m.wallets, email); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"err": err.Error()})
		return
	}
	if err := m.chain.VerifyMilestone(c, key, id, *req.Approved); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"err": err.Error()})
		return
	}
	if sess, err := m.store.Session(c, email); err == nil && sess != nil && sess.CommunityCode != "" {
		_ = m.store.AwardPoints(sess.CommunityCode, email, store.PointsVerify)
	}
	c.Status(http.StatusCreated)
}
