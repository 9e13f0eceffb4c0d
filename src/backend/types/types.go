package types

import (
	"time"

	"gorm.io/datatypes"
)

// Organizations (DAOs mirrored from chain)
type Organization struct {
	ID            string    `gorm:"primaryKey;size:128" json:"id"`
	Name          string    `gorm:"size:128;not null" json:"name"`
	Description   string    `gorm:"type:text" json:"description"`
	Symbol        string    `gorm:"size:16" json:"symbol"`
	MemberCount   int       `gorm:"default:0" json:"member_count"`
	ProposalCount int       `gorm:"default:0" json:"proposal_count"`
	Treasury      string    `gorm:"size:64" json:"treasury"`
	Status        string    `gorm:"size:32" json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Proposals mirrored from chain or created through the API
type Proposal struct {
	ID           string         `gorm:"primaryKey;size:128" json:"id"`
	Title        string         `gorm:"size:255" json:"title"`
	Description  string         `gorm:"type:text" json:"description"`
	DaoStateID   string         `gorm:"index;size:128" json:"dao_state_id"`
	Status       string         `gorm:"size:32" json:"status"`
	ProposalType datatypes.JSON `json:"proposal_type"`
	VotesFor     int            `gorm:"default:0" json:"votes_for"`
	VotesAgainst int            `gorm:"default:0" json:"votes_against"`
	TotalVotes   int            `gorm:"default:0" json:"total_votes"`
	EndTime      *time.Time     `json:"end_time"`
	CreatedBy    string         `gorm:"size:128" json:"created_by"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// EventID identifies an event on chain (transaction digest + sequence
// within the transaction). Used as the dedup key for vote events.
type EventID struct {
	TxDigest string `json:"txDigest"`
	EventSeq string `json:"eventSeq"`
}

// Chain events decoded from Move event payloads. Transient; never persisted.
type DaoCreatedEvent struct {
	DaoID          string
	Creator        string
	InitialSigners []string
	Threshold      int
	EventID        EventID
	Timestamp      time.Time
}

type ProposalCreatedEvent struct {
	ProposalID   string
	DaoID        string
	Creator      string
	Title        string
	Description  string
	ProposalType string
	EventID      EventID
	Timestamp    time.Time
}

type ProposalVotedEvent struct {
	ProposalID string
	Voter      string
	VoteChoice string
	Amount     int
	EventID    EventID
	Timestamp  time.Time
}

type ProposalApprovedEvent struct {
	ProposalID string
	Approver   string
	EventID    EventID
	Timestamp  time.Time
}

// API response envelopes
type CreateProposalResponse struct {
	Success    bool    `json:"success"`
	ProposalID *string `json:"proposalId"`
	TxHash     *string `json:"txHash"`
	Error      *string `json:"error"`
}

type VoteResponse struct {
	Success bool    `json:"success"`
	TxHash  *string `json:"txHash"`
	Error   *string `json:"error"`
}

type ApproveResponse struct {
	Success bool    `json:"success"`
	TxHash  *string `json:"txHash"`
	Error   *string `json:"error"`
}
