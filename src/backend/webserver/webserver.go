package webserver

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/suidao-labs/suidao-backend/src/backend/data"
)

func New(store *data.Store, rdb *redis.Client) *gin.Engine {
	g := gin.New()
	g.Use(gin.Logger(), gin.Recovery(), cors.Default())
	attachRoutes(g, store, rdb)
	return g
}

func attachRoutes(g *gin.Engine, store *data.Store, rdb *redis.Client) {
	g.GET("/health", Health)

	daos := NewDaos(store, rdb)
	proposals := NewProposals(store, rdb)

	api := g.Group("/api")
	{
		api.GET("/daos", daos.List)
		api.GET("/daos/:id", daos.Get)
		api.GET("/proposals", proposals.List)
		api.GET("/proposals/:id", proposals.Get)
		api.POST("/proposals", proposals.Create)
		api.POST("/proposals/:id/vote", proposals.Vote)
		api.POST("/proposals/:id/approve", proposals.Approve)
	}
}
