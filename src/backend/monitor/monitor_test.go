package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/suidao-labs/suidao-backend/src/backend/data"
	"github.com/suidao-labs/suidao-backend/src/backend/sui"
	"github.com/suidao-labs/suidao-backend/src/backend/types"
)

// stubSource serves canned event pages per kind and can fail single kinds.
type stubSource struct {
	events map[sui.EventKind][]sui.RawEvent
	fail   map[sui.EventKind]error
	calls  int
}

func (s *stubSource) QueryEvents(ctx context.Context, kind sui.EventKind, limit int) ([]sui.RawEvent, error) {
	s.calls++
	if err := s.fail[kind]; err != nil {
		return nil, err
	}
	return s.events[kind], nil
}

func newTestStore(t *testing.T) (*data.Store, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, data.Migrate(db))
	return data.NewStore(db), db
}

var eventSeq int

func chainEvent(payload any, tsMs int64) sui.RawEvent {
	eventSeq++
	b, _ := json.Marshal(payload)
	return sui.RawEvent{
		ID:          types.EventID{TxDigest: fmt.Sprintf("digest-%d", eventSeq), EventSeq: "0"},
		ParsedJSON:  b,
		TimestampMs: fmt.Sprintf("%d", tsMs),
	}
}

func TestSyncOnceMirrorsDaoCreation(t *testing.T) {
	store, _ := newTestStore(t)
	source := &stubSource{events: map[sui.EventKind][]sui.RawEvent{
		sui.EventDaoCreated: {chainEvent(map[string]any{
			"dao_id":          "0xABCDEF0123456789",
			"creator":         "0xcafe",
			"initial_signers": []string{"0x1", "0x2", "0x3"},
			"threshold":       2,
		}, 1700000000000)},
	}}

	m := New(source, store, nil, time.Second)
	m.SyncOnce(context.Background())

	org, err := store.OrganizationByID("0xABCDEF0123456789")
	require.NoError(t, err)
	require.NotNil(t, org)
	assert.Equal(t, 3, org.MemberCount)
	assert.Equal(t, 0, org.ProposalCount)
	assert.Equal(t, "active", org.Status)
}

func TestSyncOnceProposalLifecycle(t *testing.T) {
	store, _ := newTestStore(t)
	base := int64(1700000000000)
	source := &stubSource{events: map[sui.EventKind][]sui.RawEvent{
		sui.EventDaoCreated: {chainEvent(map[string]any{
			"dao_id":  "0xd1",
			"creator": "0xcafe",
		}, base)},
		sui.EventProposalCreated: {chainEvent(map[string]any{
			"proposal_id":   "0xp1",
			"dao_id":        "0xd1",
			"creator":       "0xcafe",
			"title":         "Raise quorum",
			"description":   "to 20%",
			"proposal_type": "update_dao",
		}, base+1000)},
		sui.EventProposalVoted: {
			chainEvent(map[string]any{"proposal_id": "0xp1", "vote_choice": "for", "amount": 2}, base+2000),
			chainEvent(map[string]any{"proposal_id": "0xp1", "vote_choice": "against", "amount": 1}, base+3000),
		},
		sui.EventProposalApproved: {chainEvent(map[string]any{
			"proposal_id": "0xp1",
			"approver":    "0xadmin",
		}, base+4000)},
	}}

	m := New(source, store, nil, time.Second)
	m.SyncOnce(context.Background())

	p, err := store.ProposalByID("0xp1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, 2, p.VotesFor)
	assert.Equal(t, 1, p.VotesAgainst)
	assert.Equal(t, 3, p.TotalVotes)
	assert.Equal(t, "active", p.Status)

	org, err := store.OrganizationByID("0xd1")
	require.NoError(t, err)
	require.NotNil(t, org)
	assert.Equal(t, 1, org.ProposalCount)
}

func TestSyncOnceFetchFailureIsolatedPerKind(t *testing.T) {
	store, _ := newTestStore(t)
	source := &stubSource{
		events: map[sui.EventKind][]sui.RawEvent{
			sui.EventDaoCreated: {chainEvent(map[string]any{"dao_id": "0xd1"}, 1700000000000)},
		},
		fail: map[sui.EventKind]error{
			sui.EventProposalCreated: errors.New("rpc unavailable"),
		},
	}

	m := New(source, store, nil, time.Second)
	m.SyncOnce(context.Background())

	// All four kinds were attempted despite the failure.
	assert.Equal(t, 4, source.calls)

	org, err := store.OrganizationByID("0xd1")
	require.NoError(t, err)
	assert.NotNil(t, org)
}

func TestSyncOnceSkipsUndecodableEvents(t *testing.T) {
	store, _ := newTestStore(t)
	source := &stubSource{events: map[sui.EventKind][]sui.RawEvent{
		sui.EventDaoCreated: {
			chainEvent(map[string]any{"creator": "0xcafe"}, 1700000000000), // dao_id missing
			chainEvent(map[string]any{"dao_id": "0xd2"}, 1700000000000),
		},
	}}

	m := New(source, store, nil, time.Second)
	m.SyncOnce(context.Background())

	orgs, err := store.Organizations()
	require.NoError(t, err)
	require.Len(t, orgs, 1)
	assert.Equal(t, "0xd2", orgs[0].ID)
}

func TestSyncOnceVoteForUnmirroredProposal(t *testing.T) {
	store, _ := newTestStore(t)
	source := &stubSource{events: map[sui.EventKind][]sui.RawEvent{
		sui.EventProposalVoted: {chainEvent(map[string]any{
			"proposal_id": "0xnot-mirrored",
			"vote_choice": "for",
		}, 1700000000000)},
	}}

	// Applies as a zero-row update; nothing is created and nothing fails.
	m := New(source, store, nil, time.Second)
	m.SyncOnce(context.Background())

	props, err := store.Proposals()
	require.NoError(t, err)
	assert.Empty(t, props)
}

func TestVoteDedupAcrossCycles(t *testing.T) {
	store, _ := newTestStore(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.HandleProposalCreated(types.ProposalCreatedEvent{
		ProposalID: "0xp1", DaoID: "0xd1", Timestamp: ts,
	}))

	// The same event stays in the page across cycles (newest-first window).
	vote := chainEvent(map[string]any{"proposal_id": "0xp1", "vote_choice": "for", "amount": 2}, 1700000000000)
	source := &stubSource{events: map[sui.EventKind][]sui.RawEvent{
		sui.EventProposalVoted: {vote},
	}}

	m := New(source, store, rdb, time.Second)
	m.SyncOnce(context.Background())
	m.SyncOnce(context.Background())

	p, err := store.ProposalByID("0xp1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, 2, p.VotesFor)
	assert.Equal(t, 2, p.TotalVotes)
}

func TestVoteRetryAfterStoreFailure(t *testing.T) {
	store, db := newTestStore(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	vote := chainEvent(map[string]any{"proposal_id": "0xp1", "vote_choice": "for", "amount": 2}, 1700000000000)
	source := &stubSource{events: map[sui.EventKind][]sui.RawEvent{
		sui.EventProposalVoted: {vote},
	}}
	m := New(source, store, rdb, time.Second)

	// First cycle hits a store failure; the event must stay unmarked so a
	// later cycle can still count the vote.
	require.NoError(t, db.Exec("DROP TABLE proposals").Error)
	m.SyncOnce(context.Background())

	require.NoError(t, data.Migrate(db))
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.HandleProposalCreated(types.ProposalCreatedEvent{
		ProposalID: "0xp1", DaoID: "0xd1", Timestamp: ts,
	}))

	m.SyncOnce(context.Background())

	p, err := store.ProposalByID("0xp1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, 2, p.VotesFor)
	assert.Equal(t, 2, p.TotalVotes)

	// Once applied it is marked, so further cycles do not double-count.
	m.SyncOnce(context.Background())
	p, err = store.ProposalByID("0xp1")
	require.NoError(t, err)
	assert.Equal(t, 2, p.VotesFor)
}

func TestRunStopsOnCancel(t *testing.T) {
	store, _ := newTestStore(t)
	source := &stubSource{}
	m := New(source, store, nil, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop after cancel")
	}
	assert.GreaterOrEqual(t, source.calls, 4)
}
