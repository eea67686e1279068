package controller

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/keremmican/zara-bot/internal/task"
)

type CatalogController struct {
	catalogTask *task.CatalogSyncTask
}

func NewCatalogController(catalogTask *task.CatalogSyncTask) *CatalogController {
	return &CatalogController{catalogTask: catalogTask}
}

// RefreshCatalog kicks off a full catalog sync in the background and
// returns immediately. An already running sync is reported as accepted,
// the overlap guard will skip the duplicate.
func (ctrl *CatalogController) RefreshCatalog(c *gin.Context) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 4*time.Hour)
		defer cancel()
		if err := ctrl.catalogTask.RunOnce(ctx); err != nil {
			log.Printf("[CatalogController] manual sync failed: %v", err)
		}
	}()

	c.JSON(202, gin.H{"code": 0, "message": "catalog sync started"})
}
