package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tgo/filepipe/analysis/internal/config"
	"github.com/tgo/filepipe/analysis/internal/pkg/filestore"
	"github.com/tgo/filepipe/analysis/internal/pkg/wordcloud"
	"github.com/tgo/filepipe/analysis/internal/repository"
	"github.com/tgo/filepipe/analysis/internal/service"
)

func SetupRouter(cfg *config.Config, db *gorm.DB, cache service.ResultCache) *gin.Engine {
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	r.GET("/health", healthCheck)

	analysisRepo := repository.NewAnalysisRepository(db)
	storeClient := filestore.NewClient(cfg.FileStoreURL)
	renderClient := wordcloud.NewClient(cfg.WordCloudURL)
	analysisSvc := service.NewAnalysisService(analysisRepo, storeClient, renderClient, cache)
	analysisHandler := NewAnalysisHandler(analysisSvc)

	files := r.Group("/files/analysis")
	{
		files.POST("/:fileId/start", analysisHandler.Start)
		files.GET("/:fileId", analysisHandler.Get)
		files.GET("/:fileId/wordcloud", analysisHandler.WordCloud)
	}

	return r
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "analysis"})
}
