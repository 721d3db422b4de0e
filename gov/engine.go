package gov

import (
	"context"
	"errors"
	"math/bits"

	"github.com/calehh/hac-gov/legacy"
	"github.com/calehh/hac-gov/registry"
	"github.com/calehh/hac-gov/state"
	"github.com/calehh/hac-gov/types"
	"github.com/cometbft/cometbft/crypto/tmhash"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrNotWitnessed        = errors.New("caller not witnessed")
	ErrNotGovNode          = errors.New("not governance node")
	ErrInvalidTimeRange    = errors.New("start time must be before end time")
	ErrTopicExpired        = errors.New("topic expired")
	ErrTopicExists         = errors.New("topic already exists")
	ErrTopicNotFound       = errors.New("topic noexists")
	ErrTopicNotActive      = errors.New("topic not active")
	ErrOutsideVotingWindow = errors.New("outside voting window")
	ErrNotSuperAdmin       = errors.New("not super admin")
	ErrMigrateFailed       = errors.New("migrate failed")
	ErrTallyOverflow       = errors.New("tally overflows uint64")
)

// Invocation carries what the host knows about one call: the state branch
// to read and write, the block time and the identities that signed it.
type Invocation struct {
	Repo      *state.Repository
	Now       uint64
	Witnesses []types.Address
}

func (inv *Invocation) CheckWitness(addr types.Address) bool {
	for _, w := range inv.Witnesses {
		if w == addr {
			return true
		}
	}
	return false
}

type Engine struct {
	logger     cmtlog.Logger
	registry   registry.Registry
	bridge     *legacy.Bridge
	migrator   Migrator
	superAdmin types.Address
}

func NewEngine(reg registry.Registry, bridge *legacy.Bridge, migrator Migrator, superAdmin types.Address, logger cmtlog.Logger) *Engine {
	return &Engine{
		logger:     logger.With("module", "gov"),
		registry:   reg,
		bridge:     bridge,
		migrator:   migrator,
		superAdmin: superAdmin,
	}
}

// TopicHash derives the key of a topic from its content.
func TopicHash(title, detail []byte) types.Hash {
	content := make([]byte, 0, len(title)+len(detail))
	content = append(content, title...)
	content = append(content, detail...)
	return common.BytesToHash(tmhash.Sum(content))
}

func (e *Engine) requireGovNode(ctx context.Context, addr types.Address) error {
	ok, err := registry.IsGovNode(ctx, e.registry, addr)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotGovNode
	}
	return nil
}

func (e *Engine) CreateTopic(ctx context.Context, inv *Invocation, creator types.Address, title, detail []byte, startTime, endTime uint64) (event *types.EventCreateTopic, err error) {
	if !inv.CheckWitness(creator) {
		return nil, ErrNotWitnessed
	}
	if err = e.requireGovNode(ctx, creator); err != nil {
		return nil, err
	}
	if startTime >= endTime {
		return nil, ErrInvalidTimeRange
	}
	if inv.Now >= endTime {
		return nil, ErrTopicExpired
	}
	hash := TopicHash(title, detail)
	_, exists, err := e.getTopic(ctx, inv.Repo, hash)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrTopicExists
	}
	e.logger.Debug("create topic", "hash", hash.Hex(), "creator", creator.Hex())
	topic := &types.Topic{
		Title:  append([]byte{}, title...),
		Detail: append([]byte{}, detail...),
	}
	if err = inv.Repo.PutTopic(hash, topic); err != nil {
		return nil, err
	}
	info := &types.TopicInfo{
		Creator:   creator,
		Title:     topic.Title,
		Detail:    topic.Detail,
		StartTime: startTime,
		EndTime:   endTime,
		Status:    types.TopicStatusActive,
		Hash:      hash,
	}
	if err = inv.Repo.PutTopicInfo(info); err != nil {
		return nil, err
	}
	if _, err = inv.Repo.AppendTopicHash(hash); err != nil {
		return nil, err
	}
	event = &types.EventCreateTopic{
		Hash:    hash,
		Creator: creator,
		Title:   topic.Title,
		Detail:  topic.Detail,
	}
	return
}

func (e *Engine) CancelTopic(ctx context.Context, inv *Invocation, hash types.Hash) (event *types.EventCancelTopic, err error) {
	info, ok, err := e.getTopicInfo(ctx, inv.Repo, hash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrTopicNotFound
	}
	if !info.Active() {
		return nil, ErrTopicNotActive
	}
	if !inv.CheckWitness(info.Creator) {
		return nil, ErrNotWitnessed
	}
	if inv.Now >= info.EndTime {
		return nil, ErrTopicExpired
	}
	info.Status = types.TopicStatusCancelled
	if err = inv.Repo.PutTopicInfo(info); err != nil {
		return nil, err
	}
	e.logger.Debug("cancel topic", "hash", hash.Hex())
	event = &types.EventCancelTopic{Hash: hash, Creator: info.Creator}
	return
}

// VoteTopic records the choice of voter and recomputes the tally of the
// topic. A voter may switch sides; the tally always reflects the last
// recorded choice of every voter weighted by its current stake.
func (e *Engine) VoteTopic(ctx context.Context, inv *Invocation, hash types.Hash, voter types.Address, approve bool) (event *types.EventVoteTopic, err error) {
	if !inv.CheckWitness(voter) {
		return nil, ErrNotWitnessed
	}
	if err = e.requireGovNode(ctx, voter); err != nil {
		return nil, err
	}
	info, ok, err := e.getTopicInfo(ctx, inv.Repo, hash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrTopicNotFound
	}
	if !info.Active() {
		return nil, ErrTopicNotActive
	}
	if !(info.StartTime < inv.Now && inv.Now < info.EndTime) {
		return nil, ErrOutsideVotingWindow
	}
	prior, err := e.getVotedInfo(ctx, inv.Repo, hash, voter)
	if err != nil {
		return nil, err
	}
	if (prior == types.VotedApprove && !approve) || (prior == types.VotedReject && approve) {
		e.logger.Info("voter switched", "hash", hash.Hex(), "voter", voter.Hex(), "approve", approve)
	}

	votes, err := inv.Repo.GetVotedInfos(hash)
	if err != nil {
		return nil, err
	}
	if len(votes) == 0 {
		// carry over the votes cast on the predecessor deployment, failing the
		// vote when they cannot be read
		votes, err = e.bridge.GetVotedAddress(ctx, hash)
		if err != nil {
			return nil, err
		}
	}
	votes = upsertVote(votes, types.VotedInfo{Voter: voter, Approve: approve})

	pool, err := e.registry.PeerPool(ctx)
	if err != nil {
		return nil, err
	}
	info.Approve, info.Reject, err = Tally(votes, pool)
	if err != nil {
		return nil, err
	}

	if err = inv.Repo.PutVotedInfos(hash, votes); err != nil {
		return nil, err
	}
	if err = inv.Repo.PutTopicInfo(info); err != nil {
		return nil, err
	}
	weight, err := registry.Weight(ctx, e.registry, voter)
	if err != nil {
		return nil, err
	}
	event = &types.EventVoteTopic{
		Hash:    hash,
		Voter:   voter,
		Approve: approve,
		Weight:  weight,
	}
	return
}

func upsertVote(votes []types.VotedInfo, vote types.VotedInfo) []types.VotedInfo {
	for i := range votes {
		if votes[i].Voter == vote.Voter {
			votes[i].Approve = vote.Approve
			return votes
		}
	}
	return append(votes, vote)
}

// Tally re-resolves the weight of every vote from pool, stores it on the vote
// and returns the approve and reject sums. Voters no longer in the pool
// weigh zero.
func Tally(votes []types.VotedInfo, pool []types.GovNode) (approve, reject uint64, err error) {
	weights := make(map[types.Address]uint64, len(pool))
	for _, n := range pool {
		weights[n.Address] = n.Weight()
	}
	var carry uint64
	for i := range votes {
		w := weights[votes[i].Voter]
		votes[i].Weight = w
		if votes[i].Approve {
			approve, carry = bits.Add64(approve, w, 0)
		} else {
			reject, carry = bits.Add64(reject, w, 0)
		}
		if carry != 0 {
			return 0, 0, ErrTallyOverflow
		}
	}
	return
}

func (e *Engine) Migrate(ctx context.Context, inv *Invocation, m *Manifest) (event *types.EventMigrate, err error) {
	if !inv.CheckWitness(e.superAdmin) {
		return nil, ErrNotSuperAdmin
	}
	if e.migrator == nil {
		return nil, ErrMigrateFailed
	}
	addr, err := e.migrator.Migrate(ctx, inv.Repo, m)
	if err != nil {
		return nil, err
	}
	if addr == (types.Address{}) {
		return nil, ErrMigrateFailed
	}
	e.logger.Info("migrated", "address", addr.Hex(), "name", m.Name, "version", m.Version)
	return &types.EventMigrate{Address: addr, Name: m.Name, Version: m.Version}, nil
}
