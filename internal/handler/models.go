package handler

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"radiodir/internal/config"
	"radiodir/internal/domain/models"
)

type refreshRequest struct {
	Key string `json:"key"`
}

func (r refreshRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Key, validation.Required, validation.Length(1, config.MaxPageKeyLength)),
	)
}

type toggleRequest struct {
	ID string `json:"id"`
}

func (r toggleRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ID, validation.Required),
	)
}

type removeRequest struct {
	IDs []string `json:"ids"`
}

func (r removeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.IDs, validation.Required, validation.Length(1, config.MaxRemoveBatch)),
	)
}

type directoryResponse struct {
	Key   string                 `json:"key"`
	Items []models.DirectoryItem `json:"items"`
}

type segmentsResponse struct {
	Key      string           `json:"key"`
	Segments []models.Segment `json:"segments"`
}

type filteredResponse struct {
	Key   string                 `json:"key"`
	Items []models.DirectoryItem `json:"items"`
}

type mapResponse struct {
	Key    string                 `json:"key"`
	Bounds *models.Bounds         `json:"bounds"`
	Items  []models.DirectoryItem `json:"items"`
}

type removedResponse struct {
	Removed []models.DirectoryItem `json:"removed"`
}

type restoredResponse struct {
	Restored []models.DirectoryItem `json:"restored"`
}
