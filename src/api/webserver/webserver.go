package webserver

import (
	"github.com/gin-gonic/gin"

	"github.com/fundguard/fundguard/src/api/config"
)

func New(cfg config.Config, deps Deps) *gin.Engine {
	g := gin.New()
	g.Use(gin.Logger(), gin.Recovery())
	attachRoutes(g, cfg, deps)
	return g
}
