package chain

// FundGuard governance contract interface. The contract itself lives in
// a separate repository; this is the fixed call/event surface the API
// consumes.
const governanceABI = `[
  {"type":"function","name":"registerMember","stateMutability":"nonpayable","inputs":[],"outputs":[]},
  {"type":"function","name":"createProposal","stateMutability":"nonpayable","inputs":[{"name":"title","type":"string"},{"name":"description","type":"string"},{"name":"amount","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"vote","stateMutability":"nonpayable","inputs":[{"name":"proposalId","type":"uint256"},{"name":"support","type":"bool"}],"outputs":[]},
  {"type":"function","name":"executeProposal","stateMutability":"nonpayable","inputs":[{"name":"proposalId","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"verifyMilestone","stateMutability":"nonpayable","inputs":[{"name":"milestoneId","type":"uint256"},{"name":"approved","type":"bool"}],"outputs":[]},
  {"type":"function","name":"getProposal","stateMutability":"view","inputs":[{"name":"proposalId","type":"uint256"}],"outputs":[{"name":"id","type":"uint256"},{"name":"title","type":"string"},{"name":"description","type":"string"},{"name":"amount","type":"uint256"},{"name":"proposer","type":"address"},{"name":"yesVotes","type":"uint256"},{"name":"noVotes","type":"uint256"},{"name":"createdAt","type":"uint256"},{"name":"deadline","type":"uint256"},{"name":"executed","type":"bool"}]},
  {"type":"function","name":"getMilestone","stateMutability":"view","inputs":[{"name":"milestoneId","type":"uint256"}],"outputs":[{"name":"id","type":"uint256"},{"name":"proposalId","type":"uint256"},{"name":"title","type":"string"},{"name":"description","type":"string"},{"name":"verified","type":"bool"},{"name":"verifier","type":"address"},{"name":"verifiedAt","type":"uint256"},{"name":"fundsToRelease","type":"uint256"},{"name":"fundsReleased","type":"bool"}]},
  {"type":"function","name":"getMember","stateMutability":"view","inputs":[{"name":"member","type":"address"}],"outputs":[{"name":"isRegistered","type":"bool"},{"name":"joinedAt","type":"uint256"},{"name":"civicPoints","type":"uint256"},{"name":"proposalsCreated","type":"uint256"},{"name":"votesCast","type":"uint256"},{"name":"milestonesVerified","type":"uint256"}]},
  {"type":"function","name":"hasVoted","stateMutability":"view","inputs":[{"name":"proposalId","type":"uint256"},{"name":"voter","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"getBudgetInfo","stateMutability":"view","inputs":[],"outputs":[{"name":"total","type":"uint256"},{"name":"spent","type":"uint256"},{"name":"remaining","type":"uint256"}]},
  {"type":"function","name":"proposalCount","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"milestoneCount","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"event","name":"MemberRegistered","inputs":[{"name":"member","type":"address","indexed":true},{"name":"timestamp","type":"uint256","indexed":false}],"anonymous":false},
  {"type":"event","name":"ProposalCreated","inputs":[{"name":"proposalId","type":"uint256","indexed":true},{"name":"proposer","type":"address","indexed":true},{"name":"title","type":"string","indexed":false},{"name":"amount","type":"uint256","indexed":false}],"anonymous":false},
  {"type":"event","name":"VoteCast","inputs":[{"name":"proposalId","type":"uint256","indexed":true},{"name":"voter","type":"address","indexed":true},{"name":"support","type":"bool","indexed":false}],"anonymous":false},
  {"type":"event","name":"ProposalExecuted","inputs":[{"name":"proposalId","type":"uint256","indexed":true},{"name":"approved","type":"bool","indexed":false}],"anonymous":false},
  {"type":"event","name":"MilestoneCreated","inputs":[{"name":"milestoneId","type":"uint256","indexed":true},{"name":"proposalId","type":"uint256","indexed":true},{"name":"title","type":"string","indexed":false}],"anonymous":false},
  {"type":"event","name":"MilestoneVerified","inputs":[{"name":"milestoneId","type":"uint256","indexed":true},{"name":"verifier","type":"address","indexed":true},{"name":"approved","type":"bool","indexed":false}],"anonymous":false},
  {"type":"event","name":"FundsReleased","inputs":[{"name":"milestoneId","type":"uint256","indexed":true},{"name":"amount","type":"uint256","indexed":false},{"name":"recipient","type":"address","indexed":false}],"anonymous":false},
  {"type":"event","name":"CivicPointsAwarded","inputs":[{"name":"member","type":"address","indexed":true},{"name":"points","type":"uint256","indexed":false},{"name":"reason","type":"string","indexed":false}],"anonymous":false}
]`
