package types

import "time"

// Account roles
const (
	RoleMember       = "member"
	RoleOrganization = "organization"
)

// Registered accounts, keyed by email
type Account struct {
	Email            string            `json:"email" gorm:"primaryKey;size:256"`
	PasswordHash     string            `json:"passwordHash" gorm:"size:128;not null"`
	Role             string            `json:"role" gorm:"size:16;not null"` // member|organization
	OrganizationName string            `json:"organizationName,omitempty" gorm:"size:255"`
	CommunityCode    string            `json:"communityCode,omitempty" gorm:"size:16"` // owned community (organization role)
	Address          string            `json:"address" gorm:"size:64"`
	CreatedAt        time.Time         `json:"createdAt"`
	Communities      []JoinedCommunity `json:"communities" gorm:"serializer:json"`
}

// Communities an account has joined
type JoinedCommunity struct {
	Code     string    `json:"code"`
	Name     string    `json:"name"`
	JoinedAt time.Time `json:"joinedAt"`
}

// Governance groups, keyed by join code
type Community struct {
	Code              string            `json:"code" gorm:"primaryKey;size:16"`
	Name              string            `json:"name" gorm:"size:255;not null"`
	OrganizationEmail string            `json:"organizationEmail" gorm:"size:256;not null"`
	CreatedAt         time.Time         `json:"createdAt"`
	Members           []Member          `json:"members" gorm:"serializer:json"`
	Proposals         []Proposal        `json:"proposals" gorm:"serializer:json"`
	Settings          CommunitySettings `json:"settings" gorm:"serializer:json"`
}

type CommunitySettings struct {
	AllowMemberProposals bool   `json:"allowMemberProposals"`
	MinimumVotingPower   uint64 `json:"minimumVotingPower"`
}

// Community membership entry
type Member struct {
	Email       string    `json:"email"`
	Address     string    `json:"address"`
	JoinedAt    time.Time `json:"joinedAt"`
	CivicPoints uint64    `json:"civicPoints"`
	VotingPower uint64    `json:"votingPower"`
}

// Community-local proposals. On-chain proposals are read through the
// chain client and never written here.
type Proposal struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Amount          uint64    `json:"amount"`
	ProposerAddress string    `json:"proposer"`
	ProposerEmail   string    `json:"proposerEmail"`
	YesVotes        uint64    `json:"yesVotes"`
	NoVotes         uint64    `json:"noVotes"`
	Voters          []string  `json:"voters"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"createdAt"`
	CommunityCode   string    `json:"communityCode"`
}

func (p *Proposal) HasVoted(email string) bool {
	for _, v := range p.Voters {
		if v == email {
			return true
		}
	}
	return false
}

// Active login session, persisted separately from accounts and absent
// when logged out.
type Session struct {
	Email         string    `json:"email"`
	Role          string    `json:"role"`
	LoginTime     time.Time `json:"loginTime"`
	CommunityCode string    `json:"communityCode,omitempty"`
}
