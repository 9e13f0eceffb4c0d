package types

import (
	"encoding/json"
	"errors"
)

var (
	ErrEmptyAction     = errors.New("proposal action: no variant set")
	ErrAmbiguousAction = errors.New("proposal action: more than one variant set")
)

// ProposalAction is the governance action attached to a proposal. The wire
// format allows both variants to appear at once; Validate enforces that
// exactly one is set before the payload is accepted or stored.
type ProposalAction struct {
	UpdateDao        *UpdateDaoAction        `json:"update_dao,omitempty"`
	WithdrawTreasury *WithdrawTreasuryAction `json:"withdraw_treasury,omitempty"`
}

type UpdateDaoAction struct {
	Action DaoUpdateAction `json:"action"`
}

// DaoUpdateAction selects which DAO parameter the proposal changes.
// Exactly one field may be set.
type DaoUpdateAction struct {
	UpdateThreshold     *ThresholdUpdate     `json:"update_threshold,omitempty"`
	UpdateVoteDuration  *VoteDurationUpdate  `json:"update_vote_duration,omitempty"`
	UpdateQuorum        *QuorumUpdate        `json:"update_quorum,omitempty"`
	UpdateStakingYield  *StakingYieldUpdate  `json:"update_staking_yield,omitempty"`
	UpdatePassThreshold *PassThresholdUpdate `json:"update_pass_threshold,omitempty"`
	UpdateMinStaking    *MinStakingUpdate    `json:"update_min_staking,omitempty"`
}

type ThresholdUpdate struct {
	NewThreshold int `json:"new_threshold"`
}

type VoteDurationUpdate struct {
	NewVoteDurationMs int64 `json:"new_vote_duration_ms"`
}

type QuorumUpdate struct {
	NewQuorum int `json:"new_quorum"`
}

type StakingYieldUpdate struct {
	NewStakingYieldRate int `json:"new_staking_yield_rate"`
}

type PassThresholdUpdate struct {
	NewPassThresholdPercentage int `json:"new_pass_threshold_percentage"`
}

type MinStakingUpdate struct {
	NewMinStakingAmount int64 `json:"new_min_staking_amount"`
}

type WithdrawTreasuryAction struct {
	Amount    int64  `json:"amount"`
	Recipient string `json:"recipient"`
}

// Validate checks that the action is a well-formed tagged union.
func (a ProposalAction) Validate() error {
	set := 0
	if a.UpdateDao != nil {
		set++
		if err := a.UpdateDao.Action.validate(); err != nil {
			return err
		}
	}
	if a.WithdrawTreasury != nil {
		set++
	}
	switch {
	case set == 0:
		return ErrEmptyAction
	case set > 1:
		return ErrAmbiguousAction
	}
	return nil
}

func (u DaoUpdateAction) validate() error {
	set := 0
	if u.UpdateThreshold != nil {
		set++
	}
	if u.UpdateVoteDuration != nil {
		set++
	}
	if u.UpdateQuorum != nil {
		set++
	}
	if u.UpdateStakingYield != nil {
		set++
	}
	if u.UpdatePassThreshold != nil {
		set++
	}
	if u.UpdateMinStaking != nil {
		set++
	}
	switch {
	case set == 0:
		return ErrEmptyAction
	case set > 1:
		return ErrAmbiguousAction
	}
	return nil
}

// ParseProposalAction deserializes and validates an action blob.
func ParseProposalAction(raw []byte) (ProposalAction, error) {
	var a ProposalAction
	if err := json.Unmarshal(raw, &a); err != nil {
		return ProposalAction{}, err
	}
	if err := a.Validate(); err != nil {
		return ProposalAction{}, err
	}
	return a, nil
}
