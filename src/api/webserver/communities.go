package webserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fundguard/fundguard/src/api/store"
	"github.com/fundguard/fundguard/src/api/types"
)

type Communities struct {
	store *store.Store
}

func NewCommunities(st *store.Store) Communities {
	return Communities{store: st}
}

func (h Communities) Join(c *gin.Context) {
	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	community, err := h.store.JoinCommunity(c, c.GetString("email"), req.Code)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":        community.Code,
		"name":        community.Name,
		"memberCount": len(community.Members),
	})
}

func (h Communities) Select(c *gin.Context) {
	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	if !h.store.SetCurrentCommunity(c, c.GetString("email"), req.Code) {
		c.JSON(http.StatusNotFound, gin.H{"err": "unknown community code"})
		return
	}
	c.Status(http.StatusNoContent)
}

// List returns the communities the caller has joined, in join order.
func (h Communities) List(c *gin.Context) {
	communities, err := h.store.UserCommunities(c.GetString("email"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, communities)
}

// UpdateSettings lets the owning organization change community settings.
func (h Communities) UpdateSettings(c *gin.Context) {
	var req struct {
		AllowMemberProposals bool   `json:"allowMemberProposals"`
		MinimumVotingPower   uint64 `json:"minimumVotingPower" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	err := h.store.UpdateSettings(c, c.GetString("email"), c.Param("code"), types.CommunitySettings{
		AllowMemberProposals: req.AllowMemberProposals,
		MinimumVotingPower:   req.MinimumVotingPower,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Get returns the admin summary for a community.
func (h Communities) Get(c *gin.Context) {
	community, err := h.store.Community(c.Param("code"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":          community.Code,
		"name":          community.Name,
		"memberCount":   len(community.Members),
		"proposalCount": len(community.Proposals),
		"settings":      community.Settings,
		"isOwner":       community.OrganizationEmail == c.GetString("email"),
	})
}
