package data

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/suidao-labs/suidao-backend/src/backend/types"
)

// Store wraps the mirror database. All write operations issue single atomic
// statements so concurrent API writes and sync applies cannot lose updates.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Organizations() ([]types.Organization, error) {
	orgs := []types.Organization{}
	err := s.db.Order("created_at DESC").Find(&orgs).Error
	return orgs, err
}

func (s *Store) OrganizationByID(id string) (*types.Organization, error) {
	var org types.Organization
	err := s.db.First(&org, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &org, nil
}

func (s *Store) Proposals() ([]types.Proposal, error) {
	props := []types.Proposal{}
	err := s.db.Order("created_at DESC").Find(&props).Error
	return props, err
}

func (s *Store) ProposalByID(id string) (*types.Proposal, error) {
	var p types.Proposal
	err := s.db.First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// HandleDaoCreated mirrors a DAO creation event. Insert-or-ignore keyed by
// the chain object id; a duplicate creation event keeps the first-seen row.
func (s *Store) HandleDaoCreated(ev types.DaoCreatedEvent) error {
	org := types.Organization{
		ID:            ev.DaoID,
		Name:          "DAO-" + shortID(ev.DaoID),
		Description:   fmt.Sprintf("DAO created by %s", ev.Creator),
		Symbol:        "DAO",
		MemberCount:   len(ev.InitialSigners),
		ProposalCount: 0,
		Treasury:      "0 SUI",
		Status:        "active",
		CreatedAt:     ev.Timestamp,
		UpdatedAt:     ev.Timestamp,
	}
	return s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&org).Error
}

// HandleProposalCreated mirrors a proposal creation event and bumps the
// parent organization's proposal_count, but only when the insert actually
// happened so a replayed event cannot inflate the count.
func (s *Store) HandleProposalCreated(ev types.ProposalCreatedEvent) error {
	blob, err := json.Marshal(ev.ProposalType)
	if err != nil {
		return err
	}

	p := types.Proposal{
		ID:           ev.ProposalID,
		Title:        ev.Title,
		Description:  ev.Description,
		DaoStateID:   ev.DaoID,
		Status:       "pending",
		ProposalType: datatypes.JSON(blob),
		CreatedBy:    ev.Creator,
		CreatedAt:    ev.Timestamp,
		UpdatedAt:    ev.Timestamp,
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&p)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		return tx.Model(&types.Organization{}).Where("id = ?", ev.DaoID).
			Updates(map[string]any{
				"proposal_count": gorm.Expr("proposal_count + 1"),
				"updated_at":     monotonicUpdatedAt(ev.Timestamp),
			}).Error
	})
}

// ApplyVote adds amount to the matching counter. Choices other than "for"
// and "against" only advance updated_at. A missing proposal row makes this
// a no-op update (zero rows affected, no error).
func (s *Store) ApplyVote(proposalID, choice string, amount int, ts time.Time) error {
	updates := map[string]any{"updated_at": monotonicUpdatedAt(ts)}
	switch choice {
	case "for":
		updates["votes_for"] = gorm.Expr("votes_for + ?", amount)
		updates["total_votes"] = gorm.Expr("total_votes + ?", amount)
	case "against":
		updates["votes_against"] = gorm.Expr("votes_against + ?", amount)
		updates["total_votes"] = gorm.Expr("total_votes + ?", amount)
	}
	return s.db.Model(&types.Proposal{}).Where("id = ?", proposalID).Updates(updates).Error
}

// ApplyApproval marks a proposal active. Idempotent.
func (s *Store) ApplyApproval(proposalID string, ts time.Time) error {
	return s.db.Model(&types.Proposal{}).Where("id = ?", proposalID).
		Updates(map[string]any{
			"status":     "active",
			"updated_at": monotonicUpdatedAt(ts),
		}).Error
}

// CreateProposal serves the write API: a fresh pending proposal with zero
// counters. The id is generated here; chain-assigned ids only arrive via
// HandleProposalCreated.
func (s *Store) CreateProposal(daoStateID, title, description, createdBy string, action types.ProposalAction) (*types.Proposal, error) {
	blob, err := json.Marshal(action)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	p := types.Proposal{
		ID:           uuid.NewString(),
		Title:        title,
		Description:  description,
		DaoStateID:   daoStateID,
		Status:       "pending",
		ProposalType: datatypes.JSON(blob),
		CreatedBy:    createdBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.db.Create(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// monotonicUpdatedAt only moves updated_at forward, so events replayed in
// any order converge on the latest event timestamp.
func monotonicUpdatedAt(ts time.Time) clause.Expr {
	return gorm.Expr("CASE WHEN updated_at > ? THEN updated_at ELSE ? END", ts, ts)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
