package store

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/fundguard/fundguard/src/api/types"
)

// Civic point awards per participation action
const (
	PointsVote     = 10
	PointsVerify   = 15
	PointsProposal = 20
)

const minPasswordLen = 6

var emailRx = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// WalletCreator generates a keypair for a new member account and returns
// the derived address. Key material stays behind this boundary; the
// store only ever sees the address. DeleteWallet discards the key when
// the account it was minted for never got persisted.
type WalletCreator interface {
	CreateWallet(email string) (address string, err error)
	DeleteWallet(email string) error
}

// Store owns all local bookkeeping for identity, credentials, community
// membership and mock proposal state. Constructed once at process start;
// every mutation persists the full state before it becomes visible, so a
// failed save leaves prior state untouched.
type Store struct {
	mu          sync.Mutex
	backend     Backend
	sessions    Sessions
	wallets     WalletCreator
	accounts    map[string]*types.Account
	communities map[string]*types.Community
}

func New(backend Backend, sessions Sessions, wallets WalletCreator) (*Store, error) {
	st, err := backend.Load()
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	return &Store{
		backend:     backend,
		sessions:    sessions,
		wallets:     wallets,
		accounts:    st.Accounts,
		communities: st.Communities,
	}, nil
}

type RegisterResult struct {
	Address       string `json:"address,omitempty"`
	CommunityCode string `json:"communityCode,omitempty"`
}

func (s *Store) Register(ctx context.Context, email, password, confirmPassword, role, organizationName string) (*RegisterResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" || confirmPassword == "" {
		return nil, fmt.Errorf("%w: all fields are required", ErrValidation)
	}
	if password != confirmPassword {
		return nil, fmt.Errorf("%w: passwords do not match", ErrValidation)
	}
	if len(password) < minPasswordLen {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLen)
	}
	if !emailRx.MatchString(email) {
		return nil, fmt.Errorf("%w: invalid email address", ErrValidation)
	}
	if role != types.RoleMember && role != types.RoleOrganization {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}
	if role == types.RoleOrganization && strings.TrimSpace(organizationName) == "" {
		return nil, fmt.Errorf("%w: organization name is required", ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[email]; ok {
		return nil, ErrDuplicateAccount
	}

	acct := &types.Account{
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}

	result := &RegisterResult{}
	var community *types.Community

	switch role {
	case types.RoleMember:
		// Keypair is generated here but the private key never enters the
		// account record; it lives in the key vault.
		addr, err := s.wallets.CreateWallet(email)
		if err != nil {
			return nil, fmt.Errorf("create wallet: %w", err)
		}
		acct.Address = addr
		result.Address = addr
	case types.RoleOrganization:
		code, err := s.generateCommunityCode()
		if err != nil {
			return nil, err
		}
		acct.OrganizationName = strings.TrimSpace(organizationName)
		acct.CommunityCode = code
		community = &types.Community{
			Code:              code,
			Name:              acct.OrganizationName,
			OrganizationEmail: email,
			CreatedAt:         time.Now().UTC(),
			Members:           []types.Member{},
			Proposals:         []types.Proposal{},
			Settings: types.CommunitySettings{
				AllowMemberProposals: false,
				MinimumVotingPower:   1,
			},
		}
		result.CommunityCode = code
	}

	err = s.commit(func(st *State) error {
		st.Accounts[email] = acct
		if community != nil {
			st.Communities[community.Code] = community
		}
		return nil
	})
	if err != nil {
		// No account record means no owner for the key that was just
		// minted; drop it from the vault.
		if acct.Role == types.RoleMember && acct.Address != "" {
			_ = s.wallets.DeleteWallet(email)
		}
		return nil, err
	}
	return result, nil
}

type LoginResult struct {
	Role    string `json:"role"`
	Address string `json:"address,omitempty"`
}

func (s *Store) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	s.mu.Lock()
	acct, ok := s.accounts[email]
	s.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	if bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	sess := types.Session{Email: email, Role: acct.Role, LoginTime: time.Now().UTC()}
	if err := s.sessions.Set(ctx, sess); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	return &LoginResult{Role: acct.Role, Address: acct.Address}, nil
}

// Logout is idempotent and never fails; a session that cannot be cleared
// from the session backend is still gone as far as callers are concerned.
func (s *Store) Logout(ctx context.Context, email string) {
	_ = s.sessions.Del(ctx, normalizeEmail(email))
}

func (s *Store) JoinCommunity(ctx context.Context, email, code string) (*types.Community, error) {
	email = normalizeEmail(email)
	sess, err := s.sessions.Get(ctx, email)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrNotLoggedIn
	}
	if sess.Role != types.RoleMember {
		return nil, fmt.Errorf("%w: only community members can join communities", ErrRoleNotAllowed)
	}

	code = strings.ToUpper(strings.TrimSpace(code))

	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[email]
	if !ok {
		return nil, ErrNotLoggedIn
	}
	community, ok := s.communities[code]
	if !ok {
		return nil, ErrInvalidCode
	}
	if memberOf(community, email) != nil {
		return nil, ErrAlreadyMember
	}

	now := time.Now().UTC()
	err = s.commit(func(st *State) error {
		c := st.Communities[code]
		c.Members = append(c.Members, types.Member{
			Email:       email,
			Address:     acct.Address,
			JoinedAt:    now,
			CivicPoints: 0,
			VotingPower: 1,
		})
		a := st.Accounts[email]
		a.Communities = append(a.Communities, types.JoinedCommunity{
			Code:     code,
			Name:     c.Name,
			JoinedAt: now,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Joining makes the community the active one. The join is already
	// persisted at this point, so a failed pointer update must not turn
	// the call into an error; the member can still select the community.
	sess.CommunityCode = code
	_ = s.sessions.Set(ctx, *sess)
	return s.communityCopy(code)
}

// SetCurrentCommunity switches the session's active community pointer.
// Returns false without side effects when the code is unknown or no
// session is active.
func (s *Store) SetCurrentCommunity(ctx context.Context, email, code string) bool {
	email = normalizeEmail(email)
	code = strings.ToUpper(strings.TrimSpace(code))

	s.mu.Lock()
	_, ok := s.communities[code]
	s.mu.Unlock()
	if !ok {
		return false
	}
	sess, err := s.sessions.Get(ctx, email)
	if err != nil || sess == nil {
		return false
	}
	sess.CommunityCode = code
	return s.sessions.Set(ctx, *sess) == nil
}

// ConnectExternalWallet binds an externally-proven address to an
// organization account. Proof of control (signature over a challenge)
// happens in the web layer before this is called.
func (s *Store) ConnectExternalWallet(ctx context.Context, email, address string) error {
	email = normalizeEmail(email)
	sess, err := s.sessions.Get(ctx, email)
	if err != nil {
		return err
	}
	if sess == nil {
		return ErrNotLoggedIn
	}
	if sess.Role != types.RoleOrganization {
		return fmt.Errorf("%w: only organizations can connect external wallets", ErrRoleNotAllowed)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[email]; !ok {
		return ErrNotFound
	}
	return s.commit(func(st *State) error {
		st.Accounts[email].Address = address
		return nil
	})
}

// UpdateSettings replaces a community's settings. Only the owning
// organization may change them.
func (s *Store) UpdateSettings(ctx context.Context, email, code string, settings types.CommunitySettings) error {
	email = normalizeEmail(email)
	code = strings.ToUpper(strings.TrimSpace(code))

	if settings.MinimumVotingPower == 0 {
		return fmt.Errorf("%w: minimum voting power must be at least 1", ErrValidation)
	}
	sess, err := s.sessions.Get(ctx, email)
	if err != nil {
		return err
	}
	if sess == nil {
		return ErrNotLoggedIn
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	community, ok := s.communities[code]
	if !ok {
		return ErrInvalidCode
	}
	if sess.Role != types.RoleOrganization || community.OrganizationEmail != email {
		return fmt.Errorf("%w: only the owning organization can change community settings", ErrPermissionDenied)
	}
	return s.commit(func(st *State) error {
		st.Communities[code].Settings = settings
		return nil
	})
}

func (s *Store) CreateProposal(ctx context.Context, email, title, description string, amount uint64) (*types.Proposal, error) {
	email = normalizeEmail(email)
	if strings.TrimSpace(title) == "" || strings.TrimSpace(description) == "" || amount == 0 {
		return nil, fmt.Errorf("%w: title, description and amount are required", ErrValidation)
	}
	sess, err := s.sessions.Get(ctx, email)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrNotLoggedIn
	}
	if sess.CommunityCode == "" {
		return nil, ErrNoCommunity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acct, community, err := s.proposalGate(email, sess.CommunityCode)
	if err != nil {
		return nil, err
	}

	prop := types.Proposal{
		ID:              uuid.NewString(),
		Title:           title,
		Description:     description,
		Amount:          amount,
		ProposerAddress: acct.Address,
		ProposerEmail:   email,
		Voters:          []string{},
		Status:          "active",
		CreatedAt:       time.Now().UTC(),
		CommunityCode:   community.Code,
	}

	err = s.commit(func(st *State) error {
		c := st.Communities[community.Code]
		c.Proposals = append(c.Proposals, prop)
		awardPoints(c, email, PointsProposal)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &prop, nil
}

// CanPropose runs the proposal permission gate without creating
// anything. Chain mode checks it before submitting a transaction so a
// rejected caller never reaches the contract.
func (s *Store) CanPropose(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	sess, err := s.sessions.Get(ctx, email)
	if err != nil {
		return err
	}
	if sess == nil {
		return ErrNotLoggedIn
	}
	if sess.CommunityCode == "" {
		return ErrNoCommunity
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, _, err = s.proposalGate(email, sess.CommunityCode)
	return err
}

// proposalGate decides who may propose: the owning organization always,
// members only when the community allows it and their voting power
// clears the configured floor. Callers must hold s.mu.
func (s *Store) proposalGate(email, code string) (*types.Account, *types.Community, error) {
	acct, ok := s.accounts[email]
	if !ok {
		return nil, nil, ErrNotLoggedIn
	}
	community, ok := s.communities[code]
	if !ok {
		return nil, nil, ErrNoCommunity
	}
	isOwner := acct.Role == types.RoleOrganization && community.OrganizationEmail == email
	if !isOwner {
		if !community.Settings.AllowMemberProposals {
			return nil, nil, fmt.Errorf("%w: only organization administrators can create proposals in this community", ErrPermissionDenied)
		}
		m := memberOf(community, email)
		if m == nil {
			return nil, nil, fmt.Errorf("%w: join the community before proposing", ErrPermissionDenied)
		}
		if m.VotingPower < community.Settings.MinimumVotingPower {
			return nil, nil, fmt.Errorf("%w: voting power below the community minimum", ErrPermissionDenied)
		}
	}
	return acct, community, nil
}

func (s *Store) CastVote(ctx context.Context, email, proposalID string, support bool) error {
	email = normalizeEmail(email)
	sess, err := s.sessions.Get(ctx, email)
	if err != nil {
		return err
	}
	if sess == nil {
		return ErrNotLoggedIn
	}
	if sess.CommunityCode == "" {
		return ErrNoCommunity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	community, ok := s.communities[sess.CommunityCode]
	if !ok {
		return ErrNoCommunity
	}
	var prop *types.Proposal
	for i := range community.Proposals {
		if community.Proposals[i].ID == proposalID {
			prop = &community.Proposals[i]
			break
		}
	}
	if prop == nil {
		return ErrNotFound
	}
	if prop.HasVoted(email) {
		return ErrAlreadyVoted
	}
	// The floor only binds member entries; the owning organization has
	// no member record and is not subject to it.
	if m := memberOf(community, email); m != nil && m.VotingPower < community.Settings.MinimumVotingPower {
		return fmt.Errorf("%w: voting power below the community minimum", ErrPermissionDenied)
	}

	return s.commit(func(st *State) error {
		c := st.Communities[community.Code]
		for i := range c.Proposals {
			if c.Proposals[i].ID != proposalID {
				continue
			}
			if support {
				c.Proposals[i].YesVotes++
			} else {
				c.Proposals[i].NoVotes++
			}
			c.Proposals[i].Voters = append(c.Proposals[i].Voters, email)
			break
		}
		awardPoints(c, email, PointsVote)
		return nil
	})
}

// AwardPoints credits civic points to a community member. Used directly
// for milestone verification; voting and proposing award inline.
func (s *Store) AwardPoints(code, email string, points uint64) error {
	email = normalizeEmail(email)
	code = strings.ToUpper(strings.TrimSpace(code))

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.communities[code]; !ok {
		return ErrInvalidCode
	}
	return s.commit(func(st *State) error {
		awardPoints(st.Communities[code], email, points)
		return nil
	})
}

// Session returns the active session for email, or nil when logged out.
func (s *Store) Session(ctx context.Context, email string) (*types.Session, error) {
	return s.sessions.Get(ctx, normalizeEmail(email))
}

func (s *Store) Account(email string) (*types.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[normalizeEmail(email)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *acct
	cp.Communities = append([]types.JoinedCommunity(nil), acct.Communities...)
	return &cp, nil
}

func (s *Store) Community(code string) (*types.Community, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.communityCopy(strings.ToUpper(strings.TrimSpace(code)))
}

// CurrentCommunity resolves the session's active community. Returns
// ErrNotLoggedIn without a session and ErrNoCommunity when none is
// selected.
func (s *Store) CurrentCommunity(ctx context.Context, email string) (*types.Community, error) {
	sess, err := s.sessions.Get(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrNotLoggedIn
	}
	if sess.CommunityCode == "" {
		return nil, ErrNoCommunity
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.communityCopy(sess.CommunityCode)
}

// UserCommunities lists the communities an account has joined, in join order.
func (s *Store) UserCommunities(email string) ([]types.JoinedCommunity, error) {
	acct, err := s.Account(email)
	if err != nil {
		return nil, err
	}
	return acct.Communities, nil
}

// IsAdmin reports whether email is the organization owning the session's
// active community.
func (s *Store) IsAdmin(ctx context.Context, email string) bool {
	sess, err := s.sessions.Get(ctx, normalizeEmail(email))
	if err != nil || sess == nil || sess.CommunityCode == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	community, ok := s.communities[sess.CommunityCode]
	return ok && sess.Role == types.RoleOrganization && community.OrganizationEmail == sess.Email
}

// commit applies a mutation to a deep copy of the state, persists it,
// and only then makes it visible. Callers must hold s.mu.
func (s *Store) commit(mutate func(st *State) error) error {
	next, err := cloneState(&State{Accounts: s.accounts, Communities: s.communities})
	if err != nil {
		return err
	}
	if err := mutate(next); err != nil {
		return err
	}
	if err := s.backend.Save(next); err != nil {
		return fmt.Errorf("persist state: %w", err)
	}
	s.accounts = next.Accounts
	s.communities = next.Communities
	return nil
}

func (s *Store) communityCopy(code string) (*types.Community, error) {
	community, ok := s.communities[code]
	if !ok {
		return nil, ErrInvalidCode
	}
	cp := *community
	cp.Members = append([]types.Member(nil), community.Members...)
	cp.Proposals = append([]types.Proposal(nil), community.Proposals...)
	return &cp, nil
}

func (s *Store) generateCommunityCode() (string, error) {
	for i := 0; i < 32; i++ {
		buf := make([]byte, 8)
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for j, b := range buf {
			buf[j] = codeAlphabet[int(b)%len(codeAlphabet)]
		}
		code := "COM-" + string(buf)
		if _, taken := s.communities[code]; !taken {
			return code, nil
		}
	}
	return "", fmt.Errorf("could not generate a unique community code")
}

func memberOf(c *types.Community, email string) *types.Member {
	for i := range c.Members {
		if c.Members[i].Email == email {
			return &c.Members[i]
		}
	}
	return nil
}

func awardPoints(c *types.Community, email string, points uint64) {
	for i := range c.Members {
		if c.Members[i].Email == email {
			c.Members[i].CivicPoints += points
			return
		}
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func cloneState(st *State) (*State, error) {
	raw, err := json.Marshal(st)
	if err != nil {
		return nil, err
	}
	next := NewState()
	if err := json.Unmarshal(raw, next); err != nil {
		return nil, err
	}
	return next, nil
}
