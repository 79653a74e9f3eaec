package webserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fundguard/fundguard/src/api/store"
)

type Auth struct {
	store     *store.Store
	jwtSecret []byte
}

func NewAuth(st *store.Store, secret []byte) Auth {
	return Auth{store: st, jwtSecret: secret}
}

func (a Auth) Register(c *gin.Context) {
	var req struct {
		Email            string `json:"email" binding:"required"`
		Password         string `json:"password" binding:"required"`
		ConfirmPassword  string `json:"confirmPassword" binding:"required"`
		Role             string `json:"role" binding:"required,oneof=member organization"`
		OrganizationName string `json:"organizationName"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	res, err := a.store.Register(c, req.Email, req.Password, req.ConfirmPassword, req.Role, req.OrganizationName)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (a Auth) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	res, err := a.store.Login(c, req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	token, err := issueJWT(req.Email, res.Role, a.jwtSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "role": res.Role, "address": res.Address})
}

func (a Auth) Logout(c *gin.Context) {
	a.store.Logout(c, c.GetString("email"))
	c.Status(http.StatusNoContent)
}

// Session restores client state after a page reload: the persisted
// session record plus an account summary.
func (a Auth) Session(c *gin.Context) {
	email := c.GetString("email")
	sess, err := a.store.Session(c, email)
	if err != nil {
		fail(c, err)
		return
	}
	if sess == nil {
		fail(c, store.ErrNotLoggedIn)
		return
	}
	acct, err := a.store.Account(email)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session": sess,
		"user": gin.H{
			"email":     acct.Email,
			"role":      acct.Role,
			"address":   acct.Address,
			"createdAt": acct.CreatedAt,
		},
	})
}
