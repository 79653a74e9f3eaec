package webserver

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/fundguard/fundguard/src/api/config"
	"github.com/fundguard/fundguard/src/api/store"
	"github.com/fundguard/fundguard/src/api/wallet"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	wallets := wallet.NewManager(wallet.NewMemoryVault())
	st, err := store.New(store.NewMemoryBackend(), store.NewMemorySessions(), wallets)
	require.NoError(t, err)
	cfg := config.Config{JWTSecret: "test-secret"}
	return New(cfg, Deps{
		Store:   st,
		Wallets: wallets,
		Nonces:  NewMemoryNonces(),
	})
}

func do(r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	return out
}

func register(t *testing.T, r *gin.Engine, email, role, orgName string) map[string]any {
	t.Helper()
	w := do(r, http.MethodPost, "/v1/auth/register", "", gin.H{
		"email":            email,
		"password":         "secret1",
		"confirmPassword":  "secret1",
		"role":             role,
		"organizationName": orgName,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode(t, w)
}

func login(t *testing.T, r *gin.Engine, email string) string {
	t.Helper()
	w := do(r, http.MethodPost, "/v1/auth/login", "", gin.H{"email": email, "password": "secret1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode(t, w)["token"].(string)
}

func TestAuthFlow(t *testing.T) {
	r := newTestRouter(t)

	reg := register(t, r, "u@x.com", "member", "")
	require.NotEmpty(t, reg["address"], "member registration returns a wallet address")

	// Duplicate registration is a conflict.
	w := do(r, http.MethodPost, "/v1/auth/register", "", gin.H{
		"email": "u@x.com", "password": "other99", "confirmPassword": "other99", "role": "member",
	})
	require.Equal(t, http.StatusConflict, w.Code)

	// Unknown role fails binding.
	w = do(r, http.MethodPost, "/v1/auth/register", "", gin.H{
		"email": "v@x.com", "password": "secret1", "confirmPassword": "secret1", "role": "superuser",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	token := login(t, r, "u@x.com")

	w = do(r, http.MethodGet, "/v1/auth/session", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	user := body["user"].(map[string]any)
	require.Equal(t, "u@x.com", user["email"])
	require.Equal(t, "member", user["role"])

	// Secured routes reject missing and garbage tokens.
	require.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/v1/auth/session", "", nil).Code)
	require.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/v1/auth/session", "not-a-jwt", nil).Code)

	// Wrong password.
	w = do(r, http.MethodPost, "/v1/auth/login", "", gin.H{"email": "u@x.com", "password": "wrong99"})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// Logout kills the session; the token alone no longer restores it.
	require.Equal(t, http.StatusNoContent, do(r, http.MethodPost, "/v1/auth/logout", token, nil).Code)
	require.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/v1/auth/session", token, nil).Code)
}

func TestCommunityFlow(t *testing.T) {
	r := newTestRouter(t)

	org := register(t, r, "org@x.com", "organization", "Acme")
	code := org["communityCode"].(string)
	require.Regexp(t, `^COM-[A-Z0-9]{8}$`, code)

	register(t, r, "u@x.com", "member", "")
	token := login(t, r, "u@x.com")

	w := do(r, http.MethodPost, "/v1/communities/join", token, gin.H{"code": code})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	require.Equal(t, "Acme", body["name"])
	require.EqualValues(t, 1, body["memberCount"])

	// Joining twice is a conflict, an unknown code a 404.
	require.Equal(t, http.StatusConflict, do(r, http.MethodPost, "/v1/communities/join", token, gin.H{"code": code}).Code)
	require.Equal(t, http.StatusNotFound, do(r, http.MethodPost, "/v1/communities/join", token, gin.H{"code": "COM-NOPENOPE"}).Code)

	w = do(r, http.MethodGet, "/v1/communities", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var joined []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &joined))
	require.Len(t, joined, 1)
	require.Equal(t, code, joined[0]["code"])

	require.Equal(t, http.StatusNotFound, do(r, http.MethodPost, "/v1/communities/select", token, gin.H{"code": "COM-MISSING1"}).Code)
	require.Equal(t, http.StatusNoContent, do(r, http.MethodPost, "/v1/communities/select", token, gin.H{"code": code}).Code)

	// Admin summary.
	orgToken := login(t, r, "org@x.com")
	w = do(r, http.MethodGet, "/v1/communities/"+code, orgToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	summary := decode(t, w)
	require.Equal(t, true, summary["isOwner"])
	require.EqualValues(t, 1, summary["memberCount"])
}

func TestProposalAndVoteFlow(t *testing.T) {
	r := newTestRouter(t)

	org := register(t, r, "org@x.com", "organization", "Acme")
	code := org["communityCode"].(string)
	register(t, r, "u@x.com", "member", "")

	memberToken := login(t, r, "u@x.com")
	require.Equal(t, http.StatusOK, do(r, http.MethodPost, "/v1/communities/join", memberToken, gin.H{"code": code}).Code)

	orgToken := login(t, r, "org@x.com")
	require.Equal(t, http.StatusNoContent, do(r, http.MethodPost, "/v1/communities/select", orgToken, gin.H{"code": code}).Code)

	// Members cannot propose while the community setting is off.
	w := do(r, http.MethodPost, "/v1/proposals", memberToken, gin.H{
		"title": "Bench repair", "description": "Fix the benches", "amount": 120,
	})
	require.Equal(t, http.StatusForbidden, w.Code)

	// Markup in user input is stripped before storage.
	w = do(r, http.MethodPost, "/v1/proposals", orgToken, gin.H{
		"title":       "<script>alert(1)</script>Park cleanup",
		"description": "Clean <b>the</b> park",
		"amount":      500,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	prop := decode(t, w)
	require.Equal(t, "Park cleanup", prop["title"])
	require.Equal(t, "Clean the park", prop["description"])
	propID := prop["id"].(string)

	w = do(r, http.MethodGet, "/v1/proposals", memberToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listed []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	require.Equal(t, "active", listed[0]["status"])

	// First vote lands, the second is a conflict.
	require.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/v1/votes", memberToken, gin.H{"proposalId": propID, "support": true}).Code)
	require.Equal(t, http.StatusConflict, do(r, http.MethodPost, "/v1/votes", memberToken, gin.H{"proposalId": propID, "support": true}).Code)
	require.Equal(t, http.StatusNotFound, do(r, http.MethodPost, "/v1/votes", memberToken, gin.H{"proposalId": "no-such-id", "support": false}).Code)

	w = do(r, http.MethodGet, "/v1/proposals/"+propID+"/votes", memberToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	summary := decode(t, w)
	require.EqualValues(t, 1, summary["yes"])
	require.EqualValues(t, 0, summary["no"])
}

func TestUpdateSettingsFlow(t *testing.T) {
	r := newTestRouter(t)

	org := register(t, r, "org@x.com", "organization", "Acme")
	code := org["communityCode"].(string)
	register(t, r, "u@x.com", "member", "")

	memberToken := login(t, r, "u@x.com")
	require.Equal(t, http.StatusOK, do(r, http.MethodPost, "/v1/communities/join", memberToken, gin.H{"code": code}).Code)

	settings := gin.H{"allowMemberProposals": true, "minimumVotingPower": 1}

	// Only the owning organization may change settings.
	require.Equal(t, http.StatusForbidden, do(r, http.MethodPut, "/v1/communities/"+code+"/settings", memberToken, settings).Code)

	orgToken := login(t, r, "org@x.com")
	require.Equal(t, http.StatusNoContent, do(r, http.MethodPut, "/v1/communities/"+code+"/settings", orgToken, settings).Code)

	// With the flag on, member proposals go through.
	w := do(r, http.MethodPost, "/v1/proposals", memberToken, gin.H{
		"title": "Bench repair", "description": "Fix the benches", "amount": 120,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestWalletBinding(t *testing.T) {
	r := newTestRouter(t)

	register(t, r, "org@x.com", "organization", "Acme")
	register(t, r, "u@x.com", "member", "")

	// Members do not get challenges.
	memberToken := login(t, r, "u@x.com")
	require.Equal(t, http.StatusForbidden, do(r, http.MethodPost, "/v1/wallet/challenge", memberToken, nil).Code)

	orgToken := login(t, r, "org@x.com")
	w := do(r, http.MethodPost, "/v1/wallet/challenge", orgToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	nonce := decode(t, w)["nonce"].(string)
	require.NotEmpty(t, nonce)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	addr := crypto.PubkeyToAddress(key.PublicKey).Hex()
	sig, err := crypto.Sign(accounts.TextHash([]byte(nonce)), key)
	require.NoError(t, err)
	sig[crypto.RecoveryIDOffset] += 27

	w = do(r, http.MethodPost, "/v1/wallet/verify", orgToken, gin.H{
		"address":   addr,
		"signature": "0x" + hex.EncodeToString(sig),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// The nonce is single use.
	w = do(r, http.MethodPost, "/v1/wallet/verify", orgToken, gin.H{
		"address":   addr,
		"signature": "0x" + hex.EncodeToString(sig),
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// The bound address shows up on the session summary.
	w = do(r, http.MethodGet, "/v1/auth/session", orgToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	user := decode(t, w)["user"].(map[string]any)
	require.Equal(t, addr, user["address"])

	// Balance needs chain mode.
	require.Equal(t, http.StatusServiceUnavailable, do(r, http.MethodGet, "/v1/wallet/balance", orgToken, nil).Code)
}

func TestAuthRateLimit(t *testing.T) {
	r := newTestRouter(t)

	var last int
	for i := 0; i < 11; i++ {
		w := do(r, http.MethodPost, "/v1/auth/login", "", gin.H{
			"email": fmt.Sprintf("u%d@x.com", i), "password": "secret1",
		})
		last = w.Code
	}
	require.Equal(t, http.StatusTooManyRequests, last)
}

func TestInflight(t *testing.T) {
	f := NewInflight()
	require.True(t, f.TryAcquire("u@x.com/p1"))
	require.False(t, f.TryAcquire("u@x.com/p1"))
	require.True(t, f.TryAcquire("u@x.com/p2"))
	f.Release("u@x.com/p1")
	require.True(t, f.TryAcquire("u@x.com/p1"))
}
