package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tgo/filepipe/gateway/internal/config"
	"github.com/tgo/filepipe/gateway/internal/middleware"
)

// route binds one external endpoint to a named upstream. upstreamPath
// rebuilds the path the upstream expects from the inbound parameters.
type route struct {
	method       string
	path         string
	target       string
	upstreamPath func(c *gin.Context) string
}

func routeTable() []route {
	return []route{
		{http.MethodPost, "/files/store", "filestore",
			func(c *gin.Context) string { return "/files/store" }},
		{http.MethodGet, "/files/file/:id", "filestore",
			func(c *gin.Context) string { return "/files/file/" + c.Param("id") }},
		{http.MethodPost, "/files/analysis/:fileId/start", "analysis",
			func(c *gin.Context) string { return "/files/analysis/" + c.Param("fileId") + "/start" }},
		{http.MethodGet, "/files/analysis/:fileId", "analysis",
			func(c *gin.Context) string { return "/files/analysis/" + c.Param("fileId") }},
		{http.MethodGet, "/files/analysis/:fileId/wordcloud", "analysis",
			func(c *gin.Context) string { return "/files/analysis/" + c.Param("fileId") + "/wordcloud" }},
	}
}

func SetupRouter(cfg *config.Config) *gin.Engine {
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.RequestID())

	r.GET("/health", healthCheck)

	proxy := NewProxy(cfg.Upstreams())
	for _, rt := range routeTable() {
		rt := rt
		r.Handle(rt.method, rt.path, func(c *gin.Context) {
			proxy.Forward(c, rt.target, rt.upstreamPath(c))
		})
	}

	return r
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "gateway"})
}
