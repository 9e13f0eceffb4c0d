package sui

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/rpc"

	"github.com/suidao-labs/suidao-backend/src/backend/types"
)

// EventKind selects one of the four Move event types the mirror tracks.
type EventKind string

const (
	EventDaoCreated       EventKind = "DaoCreated"
	EventProposalCreated  EventKind = "ProposalCreated"
	EventProposalVoted    EventKind = "ProposalVoted"
	EventProposalApproved EventKind = "ProposalApproved"
)

// EventKinds lists all tracked kinds in the order the monitor polls them.
var EventKinds = []EventKind{
	EventDaoCreated,
	EventProposalCreated,
	EventProposalVoted,
	EventProposalApproved,
}

// RawEvent is one entry of a suix_queryEvents page. ParsedJSON is the
// loosely-typed Move event payload; it never leaves this package undecoded.
type RawEvent struct {
	ID          types.EventID   `json:"id"`
	PackageID   string          `json:"packageId"`
	Module      string          `json:"transactionModule"`
	Sender      string          `json:"sender"`
	Type        string          `json:"type"`
	ParsedJSON  json.RawMessage `json:"parsedJson"`
	TimestampMs string          `json:"timestampMs"`
}

type eventPage struct {
	Data        []RawEvent      `json:"data"`
	NextCursor  json.RawMessage `json:"nextCursor"`
	HasNextPage bool            `json:"hasNextPage"`
}

// Client queries Move events from a Sui fullnode over JSON-RPC.
type Client struct {
	rpc            *rpc.Client
	packageID      string
	daoModule      string
	proposalModule string
}

func NewClient(ctx context.Context, rpcURL, packageID, daoModule, proposalModule string) (*Client, error) {
	c, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("sui rpc dial: %w", err)
	}
	return &Client{
		rpc:            c,
		packageID:      packageID,
		daoModule:      daoModule,
		proposalModule: proposalModule,
	}, nil
}

func (c *Client) Close() {
	c.rpc.Close()
}

// typeTag builds the fully-qualified Move event type for a kind.
func (c *Client) typeTag(kind EventKind) string {
	module := c.proposalModule
	if kind == EventDaoCreated {
		module = c.daoModule
	}
	return fmt.Sprintf("%s::%s::%s", c.packageID, module, kind)
}

// QueryEvents fetches up to limit events of the given kind, newest first.
// Single page only; a backlog beyond limit drains across poll cycles.
// Errors are returned to the caller; retry policy lives in the monitor.
func (c *Client) QueryEvents(ctx context.Context, kind EventKind, limit int) ([]RawEvent, error) {
	filter := map[string]any{"MoveEventType": c.typeTag(kind)}

	var page eventPage
	if err := c.rpc.CallContext(ctx, &page, "suix_queryEvents", filter, nil, limit, true); err != nil {
		return nil, fmt.Errorf("query %s events: %w", kind, err)
	}
	return page.Data, nil
}
