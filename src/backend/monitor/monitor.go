package monitor

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/suidao-labs/suidao-backend/src/backend/data"
	"github.com/suidao-labs/suidao-backend/src/backend/sui"
)

const (
	pageLimit    = 50
	fetchTimeout = 15 * time.Second
)

// EventSource is the read-only slice of the Sui client the monitor needs.
type EventSource interface {
	QueryEvents(ctx context.Context, kind sui.EventKind, limit int) ([]sui.RawEvent, error)
}

// Monitor polls chain events and applies them to the mirror store. One
// cycle covers all four event kinds; failures are logged and never stop
// the loop.
type Monitor struct {
	source   EventSource
	store    *data.Store
	rdb      *redis.Client
	interval time.Duration
}

func New(source EventSource, store *data.Store, rdb *redis.Client, interval time.Duration) *Monitor {
	return &Monitor{
		source:   source,
		store:    store,
		rdb:      rdb,
		interval: interval,
	}
}

// Run executes sync cycles until ctx is cancelled, waiting the poll
// interval after each cycle finishes (cycle duration adds to the period).
func (m *Monitor) Run(ctx context.Context) {
	log.Printf("chain monitor started (interval %s)", m.interval)
	for {
		m.SyncOnce(ctx)

		select {
		case <-ctx.Done():
			log.Printf("chain monitor stopped")
			return
		case <-time.After(m.interval):
		}
	}
}

// SyncOnce runs one fetch-decode-apply pass over every event kind. Each
// kind fails independently; each event within a kind fails independently.
func (m *Monitor) SyncOnce(ctx context.Context) {
	applied := 0

	for _, kind := range sui.EventKinds {
		events, err := m.fetch(ctx, kind)
		if err != nil {
			log.Printf("monitor: query %s events: %v", kind, err)
			continue
		}
		for _, ev := range events {
			if err := m.apply(ctx, kind, ev); err != nil {
				log.Printf("monitor: apply %s event %s/%s: %v", kind, ev.ID.TxDigest, ev.ID.EventSeq, err)
				continue
			}
			applied++
		}
	}

	if applied > 0 {
		data.InvalidateLists(ctx, m.rdb)
	}
}

func (m *Monitor) fetch(ctx context.Context, kind sui.EventKind) ([]sui.RawEvent, error) {
	fctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()
	return m.source.QueryEvents(fctx, kind, pageLimit)
}

func (m *Monitor) apply(ctx context.Context, kind sui.EventKind, ev sui.RawEvent) error {
	switch kind {
	case sui.EventDaoCreated:
		dec, err := sui.DecodeDaoCreated(ev)
		if err != nil {
			return err
		}
		return m.store.HandleDaoCreated(dec)

	case sui.EventProposalCreated:
		dec, err := sui.DecodeProposalCreated(ev)
		if err != nil {
			return err
		}
		return m.store.HandleProposalCreated(dec)

	case sui.EventProposalVoted:
		dec, err := sui.DecodeProposalVoted(ev)
		if err != nil {
			return err
		}
		// Vote applies are not idempotent; skip identities already seen.
		// Marked only after a successful apply so a transient store error
		// leaves the event eligible for the next cycle.
		if data.EventSeen(ctx, m.rdb, dec.EventID) {
			return nil
		}
		if err := m.store.ApplyVote(dec.ProposalID, dec.VoteChoice, dec.Amount, dec.Timestamp); err != nil {
			return err
		}
		data.MarkEventSeen(ctx, m.rdb, dec.EventID)
		return nil

	case sui.EventProposalApproved:
		dec, err := sui.DecodeProposalApproved(ev)
		if err != nil {
			return err
		}
		return m.store.ApplyApproval(dec.ProposalID, dec.Timestamp)
	}
	return nil
}
