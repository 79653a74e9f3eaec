// Minimal end-to-end integration test for the FundGuard API. Runs the
// whole member journey against a live server in local mock mode.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/google/uuid"
)

var baseURL = getenv("API_URL", "http://localhost:8080/v1")

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func main() {
	// Fresh identities per run so the probe can be rerun against a
	// server with persistent storage.
	run := uuid.NewString()[:8]
	orgEmail := fmt.Sprintf("org-%s@probe.test", run)
	memberEmail := fmt.Sprintf("member-%s@probe.test", run)

	code := registerOrg(orgEmail)
	registerMember(memberEmail)

	memberTok := login(memberEmail)
	joinCommunity(memberTok, code)

	orgTok := login(orgEmail)
	selectCommunity(orgTok, code)
	propID := createProposal(orgTok)

	castVote(memberTok, propID)
	checkTally(memberTok, propID)
	checkSession(memberTok, memberEmail)

	fmt.Println("✓ all endpoints passed")
}

// ----------------------------- auth

func registerOrg(email string) string {
	var resp struct{ CommunityCode string }
	doJSON("POST", "/auth/register", map[string]any{
		"email":            email,
		"password":         "probe-pass",
		"confirmPassword":  "probe-pass",
		"role":             "organization",
		"organizationName": "Probe Org " + email,
	}, &resp, http.StatusCreated)
	if resp.CommunityCode == "" {
		log.Fatal("register org: empty community code")
	}
	return resp.CommunityCode
}

func registerMember(email string) {
	var resp struct{ Address string }
	doJSON("POST", "/auth/register", map[string]any{
		"email":           email,
		"password":        "probe-pass",
		"confirmPassword": "probe-pass",
		"role":            "member",
	}, &resp, http.StatusCreated)
	if resp.Address == "" {
		log.Fatal("register member: empty address")
	}
}

func login(email string) string {
	var resp struct{ Token string }
	doJSON("POST", "/auth/login", map[string]any{
		"email":    email,
		"password": "probe-pass",
	}, &resp, http.StatusOK)
	if resp.Token == "" {
		log.Fatal("login: empty token")
	}
	return resp.Token
}

func checkSession(tok, email string) {
	var resp struct {
		User struct{ Email string }
	}
	doAuth(tok, "GET", "/auth/session", nil, &resp, http.StatusOK)
	if resp.User.Email != email {
		log.Fatalf("session: got %q want %q", resp.User.Email, email)
	}
}

// ----------------------------- communities

func joinCommunity(tok, code string) {
	var resp struct{ MemberCount int }
	doAuth(tok, "POST", "/communities/join", map[string]any{"code": code}, &resp, http.StatusOK)
	if resp.MemberCount == 0 {
		log.Fatal("join: member count still zero")
	}
}

func selectCommunity(tok, code string) {
	doAuth(tok, "POST", "/communities/select", map[string]any{"code": code}, nil, http.StatusNoContent)
}

// ----------------------------- proposals and votes

func createProposal(tok string) string {
	var resp struct{ ID string }
	doAuth(tok, "POST", "/proposals", map[string]any{
		"title":       "integration-test " + uuid.NewString(),
		"description": "probe proposal",
		"amount":      100,
	}, &resp, http.StatusCreated)
	if resp.ID == "" {
		log.Fatal("proposal: empty id")
	}
	return resp.ID
}

func castVote(tok, propID string) {
	doAuth(tok, "POST", "/votes", map[string]any{
		"proposalId": propID,
		"support":    true,
	}, nil, http.StatusCreated)
}

func checkTally(tok, propID string) {
	var sum map[string]uint64
	doAuth(tok, "GET", "/proposals/"+propID+"/votes", nil, &sum, http.StatusOK)
	if sum["yes"] == 0 {
		log.Fatal("votes: tally missing yes")
	}
}

// ----------------------------- helpers

func doAuth(token, method, path string, body, out any, want int) {
	doReq(method, path, token, body, out, want)
}

func doJSON(method, path string, body, out any, want int) {
	doReq(method, path, "", body, out, want)
}

func doReq(method, path, token string, body, out any, want int) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			log.Fatalf("%s %s encode: %v", method, path, err)
		}
	}
	req, _ := http.NewRequest(method, baseURL+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("%s %s: %v", method, path, err)
	}
	defer res.Body.Close()
	if res.StatusCode != want {
		log.Fatalf("%s %s: want %d got %d", method, path, want, res.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			log.Fatalf("%s %s decode: %v", method, path, err)
		}
	}
}
