package chain

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

func TestGovernanceABI(t *testing.T) {
	parsed, err := abi.JSON(strings.NewReader(governanceABI))
	if err != nil {
		t.Fatalf("parse ABI: %v", err)
	}

	methods := []string{
		"registerMember", "createProposal", "vote", "executeProposal",
		"verifyMilestone", "getProposal", "getMilestone", "getMember",
		"hasVoted", "getBudgetInfo", "proposalCount", "milestoneCount",
	}
	for _, name := range methods {
		if _, ok := parsed.Methods[name]; !ok {
			t.Errorf("method %s missing from ABI", name)
		}
	}

	events := []string{
		"MemberRegistered", "ProposalCreated", "VoteCast", "ProposalExecuted",
		"MilestoneCreated", "MilestoneVerified", "FundsReleased", "CivicPointsAwarded",
	}
	for _, name := range events {
		if _, ok := parsed.Events[name]; !ok {
			t.Errorf("event %s missing from ABI", name)
		}
	}

	if got := len(parsed.Methods["getProposal"].Outputs); got != 10 {
		t.Errorf("getProposal returns %d fields, want 10", got)
	}
	if got := len(parsed.Methods["getMilestone"].Outputs); got != 9 {
		t.Errorf("getMilestone returns %d fields, want 9", got)
	}
}
