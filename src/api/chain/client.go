package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Client wraps the governance contract. All writes are awaited to
// finality before returning, so callers never see unconfirmed state.
type Client struct {
	eth      *ethclient.Client
	contract *bind.BoundContract
	address  common.Address
	chainID  *big.Int
}

type Proposal struct {
	ID          uint64 `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Proposer    string `json:"proposer"`
	YesVotes    uint64 `json:"yesVotes"`
	NoVotes     uint64 `json:"noVotes"`
	CreatedAt   uint64 `json:"createdAt"`
	Deadline    uint64 `json:"deadline"`
	Executed    bool   `json:"executed"`
}

type Milestone struct {
	ID             uint64 `json:"id"`
	ProposalID     uint64 `json:"proposalId"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	Verified       bool   `json:"verified"`
	Verifier       string `json:"verifier"`
	VerifiedAt     uint64 `json:"verifiedAt"`
	FundsToRelease string `json:"fundsToRelease"`
	FundsReleased  bool   `json:"fundsReleased"`
}

type Member struct {
	IsRegistered       bool   `json:"isRegistered"`
	JoinedAt           uint64 `json:"joinedAt"`
	CivicPoints        uint64 `json:"civicPoints"`
	ProposalsCreated   uint64 `json:"proposalsCreated"`
	VotesCast          uint64 `json:"votesCast"`
	MilestonesVerified uint64 `json:"milestonesVerified"`
}

func Dial(ctx context.Context, rpcURL, contractAddr string) (*Client, error) {
	eth, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}
	chainID, err := eth.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("chain id: %w", err)
	}
	parsed, err := abi.JSON(strings.NewReader(governanceABI))
	if err != nil {
		return nil, err
	}
	addr := common.HexToAddress(contractAddr)
	return &Client{
		eth:      eth,
		contract: bind.NewBoundContract(addr, parsed, eth, eth, eth),
		address:  addr,
		chainID:  chainID,
	}, nil
}

func (c *Client) ChainID() *big.Int { return c.chainID }

func (c *Client) RegisterMember(ctx context.Context, key *ecdsa.PrivateKey) error {
	return c.transact(ctx, key, "registerMember")
}

func (c *Client) CreateProposal(ctx context.Context, key *ecdsa.PrivateKey, title, description string, amount *big.Int) error {
	return c.transact(ctx, key, "createProposal", title, description, amount)
}

func (c *Client) Vote(ctx context.Context, key *ecdsa.PrivateKey, proposalID uint64, support bool) error {
	return c.transact(ctx, key, "vote", new(big.Int).SetUint64(proposalID), support)
}

func (c *Client) ExecuteProposal(ctx context.Context, key *ecdsa.PrivateKey, proposalID uint64) error {
	return c.transact(ctx, key, "executeProposal", new(big.Int).SetUint64(proposalID))
}

func (c *Client) VerifyMilestone(ctx context.Context, key *ecdsa.PrivateKey, milestoneID uint64, approved bool) error {
	return c.transact(ctx, key, "verifyMilestone", new(big.Int).SetUint64(milestoneID), approved)
}

func (c *Client) GetProposal(ctx context.Context, id uint64) (*Proposal, error) {
	var out []interface{}
	if err := c.call(ctx, &out, "getProposal", new(big.Int).SetUint64(id)); err != nil {
		return nil, err
	}
	return &Proposal{
		ID:          out[0].(*big.Int).Uint64(),
		Title:       out[1].(string),
		Description: out[2].(string),
		Amount:      out[3].(*big.Int).String(),
		Proposer:    out[4].(common.Address).Hex(),
		YesVotes:    out[5].(*big.Int).Uint64(),
		NoVotes:     out[6].(*big.Int).Uint64(),
		CreatedAt:   out[7].(*big.Int).Uint64(),
		Deadline:    out[8].(*big.Int).Uint64(),
		Executed:    out[9].(bool),
	}, nil
}

func (c *Client) GetMilestone(ctx context.Context, id uint64) (*Milestone, error) {
	var out []interface{}
	if err := c.call(ctx, &out, "getMilestone", new(big.Int).SetUint64(id)); err != nil {
		return nil, err
	}
	return &Milestone{
		ID:             out[0].(*big.Int).Uint64(),
		ProposalID:     out[1].(*big.Int).Uint64(),
		Title:          out[2].(string),
		Description:    out[3].(string),
		Verified:       out[4].(bool),
		Verifier:       out[5].(common.Address).Hex(),
		VerifiedAt:     out[6].(*big.Int).Uint64(),
		FundsToRelease: out[7].(*big.Int).String(),
		FundsReleased:  out[8].(bool),
	}, nil
}

func (c *Client) GetMember(ctx context.Context, address string) (*Member, error) {
	var out []interface{}
	if err := c.call(ctx, &out, "getMember", common.HexToAddress(address)); err != nil {
		return nil, err
	}
	return &Member{
		IsRegistered:       out[0].(bool),
		JoinedAt:           out[1].(*big.Int).Uint64(),
		CivicPoints:        out[2].(*big.Int).Uint64(),
		ProposalsCreated:   out[3].(*big.Int).Uint64(),
		VotesCast:          out[4].(*big.Int).Uint64(),
		MilestonesVerified: out[5].(*big.Int).Uint64(),
	}, nil
}

func (c *Client) HasVoted(ctx context.Context, proposalID uint64, voter string) (bool, error) {
	var out []interface{}
	if err := c.call(ctx, &out, "hasVoted", new(big.Int).SetUint64(proposalID), common.HexToAddress(voter)); err != nil {
		return false, err
	}
	return out[0].(bool), nil
}

func (c *Client) ProposalCount(ctx context.Context) (uint64, error) {
	return c.count(ctx, "proposalCount")
}

func (c *Client) MilestoneCount(ctx context.Context) (uint64, error) {
	return c.count(ctx, "milestoneCount")
}

// Balance returns the address balance in wei.
func (c *Client) Balance(ctx context.Context, address string) (*big.Int, error) {
	return c.eth.BalanceAt(ctx, common.HexToAddress(address), nil)
}

func (c *Client) count(ctx context.Context, method string) (uint64, error) {
	var out []interface{}
	if err := c.call(ctx, &out, method); err != nil {
		return 0, err
	}
	return out[0].(*big.Int).Uint64(), nil
}

func (c *Client) call(ctx context.Context, out *[]interface{}, method string, args ...interface{}) error {
	if err := c.contract.Call(&bind.CallOpts{Context: ctx}, out, method, args...); err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	return nil
}

func (c *Client) transact(ctx context.Context, key *ecdsa.PrivateKey, method string, args ...interface{}) error {
	opts, err := bind.NewKeyedTransactorWithChainID(key, c.chainID)
	if err != nil {
		return err
	}
	opts.Context = ctx
	tx, err := c.contract.Transact(opts, method, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	receipt, err := bind.WaitMined(ctx, c.eth, tx)
	if err != nil {
		return fmt.Errorf("%s: wait mined: %w", method, err)
	}
	if receipt.Status != ethtypes.ReceiptStatusSuccessful {
		return fmt.Errorf("%s: transaction %s reverted", method, tx.Hash().Hex())
	}
	return nil
}
