package sui

import (
	"fmt"
	"strconv"
	"time"

	"github.com/tidwall/gjson"

	"github.com/suidao-labs/suidao-backend/src/backend/types"
)

// Decoders map loosely-typed Move event payloads into domain events.
// Required fields absent => the decode fails and the caller drops the single
// event. Defaultable fields keep the contract values: vote_choice "for",
// amount 1, threshold 0, missing strings empty.

func DecodeDaoCreated(ev RawEvent) (types.DaoCreatedEvent, error) {
	p, err := parsedObject(ev)
	if err != nil {
		return types.DaoCreatedEvent{}, err
	}

	daoID, err := requiredString(p, "dao_id")
	if err != nil {
		return types.DaoCreatedEvent{}, err
	}

	return types.DaoCreatedEvent{
		DaoID:          daoID,
		Creator:        p.Get("creator").String(),
		InitialSigners: stringSlice(p.Get("initial_signers")),
		Threshold:      intOr(p.Get("threshold"), 0),
		EventID:        ev.ID,
		Timestamp:      eventTime(ev),
	}, nil
}

func DecodeProposalCreated(ev RawEvent) (types.ProposalCreatedEvent, error) {
	p, err := parsedObject(ev)
	if err != nil {
		return types.ProposalCreatedEvent{}, err
	}

	proposalID, err := requiredString(p, "proposal_id")
	if err != nil {
		return types.ProposalCreatedEvent{}, err
	}

	return types.ProposalCreatedEvent{
		ProposalID:   proposalID,
		DaoID:        p.Get("dao_id").String(),
		Creator:      p.Get("creator").String(),
		Title:        p.Get("title").String(),
		Description:  p.Get("description").String(),
		ProposalType: p.Get("proposal_type").String(),
		EventID:      ev.ID,
		Timestamp:    eventTime(ev),
	}, nil
}

func DecodeProposalVoted(ev RawEvent) (types.ProposalVotedEvent, error) {
	p, err := parsedObject(ev)
	if err != nil {
		return types.ProposalVotedEvent{}, err
	}

	proposalID, err := requiredString(p, "proposal_id")
	if err != nil {
		return types.ProposalVotedEvent{}, err
	}

	choice := "for"
	if r := p.Get("vote_choice"); r.Type == gjson.String {
		choice = r.String()
	}

	return types.ProposalVotedEvent{
		ProposalID: proposalID,
		Voter:      p.Get("voter").String(),
		VoteChoice: choice,
		Amount:     intOr(p.Get("amount"), 1),
		EventID:    ev.ID,
		Timestamp:  eventTime(ev),
	}, nil
}

func DecodeProposalApproved(ev RawEvent) (types.ProposalApprovedEvent, error) {
	p, err := parsedObject(ev)
	if err != nil {
		return types.ProposalApprovedEvent{}, err
	}

	proposalID, err := requiredString(p, "proposal_id")
	if err != nil {
		return types.ProposalApprovedEvent{}, err
	}

	return types.ProposalApprovedEvent{
		ProposalID: proposalID,
		Approver:   p.Get("approver").String(),
		EventID:    ev.ID,
		Timestamp:  eventTime(ev),
	}, nil
}

func parsedObject(ev RawEvent) (gjson.Result, error) {
	p := gjson.ParseBytes(ev.ParsedJSON)
	if !p.IsObject() {
		return gjson.Result{}, fmt.Errorf("event %s/%s: missing parsed json", ev.ID.TxDigest, ev.ID.EventSeq)
	}
	return p, nil
}

func requiredString(p gjson.Result, field string) (string, error) {
	r := p.Get(field)
	if r.Type != gjson.String || r.String() == "" {
		return "", fmt.Errorf("%s missing", field)
	}
	return r.String(), nil
}

func stringSlice(r gjson.Result) []string {
	out := []string{}
	if !r.IsArray() {
		return out
	}
	for _, v := range r.Array() {
		if v.Type == gjson.String {
			out = append(out, v.String())
		}
	}
	return out
}

func intOr(r gjson.Result, def int) int {
	if r.Type != gjson.Number {
		return def
	}
	return int(r.Int())
}

// eventTime prefers the chain timestamp from the event envelope so that
// replays converge on the same updated_at; wall clock is the fallback.
func eventTime(ev RawEvent) time.Time {
	if ev.TimestampMs != "" {
		if ms, err := strconv.ParseInt(ev.TimestampMs, 10, 64); err == nil && ms > 0 {
			return time.UnixMilli(ms).UTC()
		}
	}
	return time.Now().UTC()
}
