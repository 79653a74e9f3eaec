package chain

import (
	"context"
	"log"
	"sync"
	"time"
)

// Indexer keeps a warm cache of on-chain proposals and milestones. The
// contract is the source of truth; the cache only saves read traffic
// and survives brief RPC outages.
type Indexer struct {
	client   *Client
	interval time.Duration

	mu         sync.RWMutex
	proposals  []Proposal
	milestones []Milestone
}

func NewIndexer(client *Client, interval time.Duration) *Indexer {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	return &Indexer{client: client, interval: interval}
}

// Run polls until ctx is cancelled. Errors are logged and the next tick
// retries; one bad poll never drops the existing cache.
func (ix *Indexer) Run(ctx context.Context) {
	if err := ix.sync(ctx); err != nil {
		log.Printf("indexer: initial sync: %v", err)
	}
	ticker := time.NewTicker(ix.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := ix.sync(ctx); err != nil {
				log.Printf("indexer: sync: %v", err)
			}
		}
	}
}

func (ix *Indexer) sync(ctx context.Context) error {
	nProps, err := ix.client.ProposalCount(ctx)
	if err != nil {
		return err
	}
	proposals := make([]Proposal, 0, nProps)
	for id := uint64(1); id <= nProps; id++ {
		p, err := ix.client.GetProposal(ctx, id)
		if err != nil {
			return err
		}
		proposals = append(proposals, *p)
	}

	nMiles, err := ix.client.MilestoneCount(ctx)
	if err != nil {
		return err
	}
	milestones := make([]Milestone, 0, nMiles)
	for id := uint64(1); id <= nMiles; id++ {
		m, err := ix.client.GetMilestone(ctx, id)
		if err != nil {
			return err
		}
		milestones = append(milestones, *m)
	}

	ix.mu.Lock()
	ix.proposals = proposals
	ix.milestones = milestones
	ix.mu.Unlock()
	return nil
}

// Refresh runs one sync outside the polling loop, so a fresh write is
// visible without waiting for the next tick.
func (ix *Indexer) Refresh(ctx context.Context) error {
	return ix.sync(ctx)
}

func (ix *Indexer) Proposals() []Proposal {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return append([]Proposal(nil), ix.proposals...)
}

func (ix *Indexer) Milestones() []Milestone {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return append([]Milestone(nil), ix.milestones...)
}
