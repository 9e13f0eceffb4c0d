package webserver

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"

	"github.com/suidao-labs/suidao-backend/src/backend/data"
	"github.com/suidao-labs/suidao-backend/src/backend/types"
)

type Proposals struct {
	store     *data.Store
	rdb       *redis.Client
	sanitizer *bluemonday.Policy
}

func NewProposals(store *data.Store, rdb *redis.Client) Proposals {
	return Proposals{
		store:     store,
		rdb:       rdb,
		sanitizer: bluemonday.StrictPolicy(),
	}
}

func (p Proposals) List(c *gin.Context) {
	ctx := c.Request.Context()
	if body, ok := data.CacheGetList(ctx, p.rdb, data.KeyProposalList); ok {
		c.Data(http.StatusOK, "application/json; charset=utf-8", body)
		return
	}

	props, err := p.store.Proposals()
	if err != nil {
		log.Printf("list proposals: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}

	if body, err := json.Marshal(props); err == nil {
		data.CacheSetList(ctx, p.rdb, data.KeyProposalList, body)
	}
	c.JSON(http.StatusOK, props)
}

func (p Proposals) Get(c *gin.Context) {
	prop, err := p.store.ProposalByID(c.Param("id"))
	if err != nil {
		log.Printf("get proposal %s: %v", c.Param("id"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}
	c.JSON(http.StatusOK, prop)
}

func (p Proposals) Create(c *gin.Context) {
	var req struct {
		DaoStateID   string               `json:"daoStateId" binding:"required"`
		Title        string               `json:"title" binding:"required,max=255"`
		Description  string               `json:"description" binding:"max=10000"`
		ProposalType types.ProposalAction `json:"proposalType" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	if err := req.ProposalType.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	title := p.sanitizer.Sanitize(req.Title)
	description := p.sanitizer.Sanitize(req.Description)

	// TODO: derive the creator from authenticated wallet context once
	// transaction submission lands; the mirror-only stub records "system".
	prop, err := p.store.CreateProposal(req.DaoStateID, title, description, "system", req.ProposalType)
	if err != nil {
		log.Printf("create proposal: %v", err)
		msg := "internal error"
		c.JSON(http.StatusInternalServerError, types.CreateProposalResponse{Error: &msg})
		return
	}

	data.InvalidateLists(c.Request.Context(), p.rdb)
	c.JSON(http.StatusOK, types.CreateProposalResponse{
		Success:    true,
		ProposalID: &prop.ID,
	})
}

func (p Proposals) Vote(c *gin.Context) {
	var req struct {
		VoterAddress string `json:"voterAddress" binding:"required"`
		VoteChoice   string `json:"voteChoice" binding:"required,oneof=for against"`
		Amount       *int   `json:"amount" binding:"omitempty,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	amount := 1
	if req.Amount != nil {
		amount = *req.Amount
	}

	// Database-only stub: no transaction is submitted, txHash stays null.
	if err := p.store.ApplyVote(c.Param("id"), req.VoteChoice, amount, time.Now().UTC()); err != nil {
		log.Printf("vote proposal %s: %v", c.Param("id"), err)
		msg := "internal error"
		c.JSON(http.StatusInternalServerError, types.VoteResponse{Error: &msg})
		return
	}

	data.InvalidateLists(c.Request.Context(), p.rdb)
	c.JSON(http.StatusOK, types.VoteResponse{Success: true})
}

func (p Proposals) Approve(c *gin.Context) {
	var req struct {
		ApproverAddress string `json:"approverAddress" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	// Database-only stub, same as Vote.
	if err := p.store.ApplyApproval(c.Param("id"), time.Now().UTC()); err != nil {
		log.Printf("approve proposal %s: %v", c.Param("id"), err)
		msg := "internal error"
		c.JSON(http.StatusInternalServerError, types.ApproveResponse{Error: &msg})
		return
	}

	data.InvalidateLists(c.Request.Context(), p.rdb)
	c.JSON(http.StatusOK, types.ApproveResponse{Success: true})
}
