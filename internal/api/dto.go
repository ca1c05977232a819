package api

import (
	"github.com/starford/dailycanvas/internal/canvasservice"
	"github.com/starford/dailycanvas/internal/index"
	"github.com/starford/dailycanvas/internal/models"
)

// SelectRequest is the request body for replacing the selection.
type SelectRequest struct {
	IDs []string `json:"ids" example:"a1b2c3d4e5f60718" validate:"required"`
}

// CanvasDetail is the active canvas response (aliased from the domain layer).
type CanvasDetail = canvasservice.CanvasDetail

// CommandInfo is one entry of the command listing.
type CommandInfo = canvasservice.CommandInfo

// CommandResponse wraps the result of an executed command.
type CommandResponse struct {
	Status string `json:"status" example:"ok" validate:"required"`
	Result any    `json:"result,omitempty"`
}

// PinsResponse lists pinned item ids.
type PinsResponse struct {
	Pinned []string `json:"pinned" validate:"required"`
}

// RotationResponse is the current rotation record.
type RotationResponse struct {
	Folder            string  `json:"folder" example:"daily-canvas" validate:"required"`
	LatestRotationKey *string `json:"latest_rotation_key" example:"2024-01-02"`
}

// RotationsResponse wraps the daily canvas history.
type RotationsResponse struct {
	Rotations []models.Rotation `json:"rotations" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results" validate:"required"`
}
