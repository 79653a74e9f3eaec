package webserver

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fundguard/fundguard/src/api/store"
	"github.com/fundguard/fundguard/src/api/types"
	"github.com/fundguard/fundguard/src/api/wallet"
)

// NonceStore issues single-use challenge nonces for wallet binding.
type NonceStore interface {
	Set(ctx context.Context, email, nonce string) error
	GetDel(ctx context.Context, email string) (string, error)
}

// MemoryNonces backs tests and deployments without redis.
type MemoryNonces struct {
	mu     sync.Mutex
	nonces map[string]string
}

func NewMemoryNonces() *MemoryNonces {
	return &MemoryNonces{nonces: make(map[string]string)}
}

func (m *MemoryNonces) Set(_ context.Context, email, nonce string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nonces[email] = nonce
	return nil
}

func (m *MemoryNonces) GetDel(_ context.Context, email string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	nonce, ok := m.nonces[email]
	if !ok {
		return "", errors.New("challenge expired")
	}
	delete(m.nonces, email)
	return nonce, nil
}

type Wallet struct {
	store  *store.Store
	nonces NonceStore
	chain  ChainClient
}

func NewWallet(st *store.Store, nonces NonceStore, chainClient ChainClient) Wallet {
	return Wallet{store: st, nonces: nonces, chain: chainClient}
}

// Challenge starts the external-wallet binding flow for organizations:
// the browser wallet signs the nonce, Verify checks the signature.
func (w Wallet) Challenge(c *gin.Context) {
	email := c.GetString("email")
	if c.GetString("role") != types.RoleOrganization {
		fail(c, store.ErrRoleNotAllowed)
		return
	}
	nonce := uuid.NewString()
	if err := w.nonces.Set(c, email, nonce); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"nonce": nonce})
}

func (w Wallet) Verify(c *gin.Context) {
	var req struct {
		Address   string `json:"address" binding:"required"`
		Signature string `json:"signature" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	email := c.GetString("email")
	nonce, err := w.nonces.GetDel(c, email)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"err": "challenge expired"})
		return
	}
	if err := wallet.VerifyPersonalSig(req.Address, nonce, req.Signature); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"err": "bad signature"})
		return
	}
	if err := w.store.ConnectExternalWallet(c, email, req.Address); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"address": req.Address})
}

func (w Wallet) Balance(c *gin.Context) {
	if w.chain == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"err": "chain not configured"})
		return
	}
	acct, err := w.store.Account(c.GetString("email"))
	if err != nil {
		fail(c, err)
		return
	}
	if acct.Address == "" {
		c.JSON(http.StatusOK, gin.H{"balance": "0"})
		return
	}
	bal, err := w.chain.Balance(c, acct.Address)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"address": acct.Address, "balance": bal.String()})
}
