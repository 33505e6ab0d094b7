package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tgo/filepipe/filestore/internal/config"
	"github.com/tgo/filepipe/filestore/internal/repository"
	"github.com/tgo/filepipe/filestore/internal/service"
	"github.com/tgo/filepipe/filestore/internal/storage"
)

func SetupRouter(cfg *config.Config, db *gorm.DB, blobs storage.BlobStore) *gin.Engine {
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	r.GET("/health", healthCheck)

	fileRepo := repository.NewFileRepository(db)
	fileSvc := service.NewFileService(fileRepo, blobs)
	filesHandler := NewFilesHandler(fileSvc)

	files := r.Group("/files")
	{
		files.POST("/store", filesHandler.Store)
		files.GET("/file/:id", filesHandler.GetFile)
	}

	return r
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "filestore"})
}
