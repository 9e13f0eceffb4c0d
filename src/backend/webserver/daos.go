package webserver

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/suidao-labs/suidao-backend/src/backend/data"
)

type Daos struct {
	store *data.Store
	rdb   *redis.Client
}

func NewDaos(store *data.Store, rdb *redis.Client) Daos {
	return Daos{store: store, rdb: rdb}
}

func (d Daos) List(c *gin.Context) {
	ctx := c.Request.Context()
	if body, ok := data.CacheGetList(ctx, d.rdb, data.KeyDaoList); ok {
		c.Data(http.StatusOK, "application/json; charset=utf-8", body)
		return
	}

	orgs, err := d.store.Organizations()
	if err != nil {
		log.Printf("list daos: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}

	if body, err := json.Marshal(orgs); err == nil {
		data.CacheSetList(ctx, d.rdb, data.KeyDaoList, body)
	}
	c.JSON(http.StatusOK, orgs)
}

func (d Daos) Get(c *gin.Context) {
	org, err := d.store.OrganizationByID(c.Param("id"))
	if err != nil {
		log.Printf("get dao %s: %v", c.Param("id"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}
	c.JSON(http.StatusOK, org)
}
