package service

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jortega/cuaderno/internal/middleware"
	"github.com/jortega/cuaderno/internal/models"
	"github.com/jortega/cuaderno/internal/remote"
)

// SnapshotHandlers serves the per-user snapshot document.
type SnapshotHandlers struct {
	docs remote.Store
	log  *slog.Logger
}

// NewSnapshotHandlers creates the snapshot endpoints over a document
// store.
func NewSnapshotHandlers(docs remote.Store, logger *slog.Logger) *SnapshotHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &SnapshotHandlers{docs: docs, log: logger}
}

// Get handles GET /api/snapshot: the signed-in user's document, or 404
// when none has been uploaded yet.
func (h *SnapshotHandlers) Get(c *gin.Context) {
	userID := middleware.GetUserID(c)

	snap, err := h.docs.Fetch(c.Request.Context(), userID)
	if err != nil {
		h.log.Error("snapshot fetch failed", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load snapshot"})
		return
	}
	if snap == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no snapshot for user"})
		return
	}
	c.JSON(http.StatusOK, snap)
}

// snapshotUpdate is the PUT body. Pointer fields distinguish "absent"
// from "empty": fields a partial write leaves unset preserve the
// stored document's value.
type snapshotUpdate struct {
	Students    *[]models.Student `json:"students"`
	Config      *models.Config    `json:"config"`
	LastUpdated *int64            `json:"lastUpdated"`
}

// Put handles PUT /api/snapshot, storing the merged document.
func (h *SnapshotHandlers) Put(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var update snapshotUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed snapshot"})
		return
	}

	stored, err := h.docs.Fetch(c.Request.Context(), userID)
	if err != nil {
		h.log.Error("snapshot fetch failed during put", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store snapshot"})
		return
	}
	if stored == nil {
		stored = &models.Snapshot{Config: models.DefaultConfig()}
	}

	if update.Students != nil {
		stored.Students = *update.Students
	}
	if update.Config != nil {
		stored.Config = *update.Config
	}
	if update.LastUpdated != nil {
		stored.LastUpdated = *update.LastUpdated
	}

	if err := h.docs.Upsert(c.Request.Context(), userID, stored); err != nil {
		h.log.Error("snapshot store failed", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store snapshot"})
		return
	}

	h.log.Debug("snapshot stored",
		"user_id", userID, "ts", stored.LastUpdated, "students", len(stored.Students))
	c.Status(http.StatusNoContent)
}
