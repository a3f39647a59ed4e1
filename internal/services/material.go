package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gorm.io/datatypes"

	"github.com/yungbote/openlearn-backend/internal/data/repos"
	types "github.com/yungbote/openlearn-backend/internal/domain"
	"github.com/yungbote/openlearn-backend/internal/platform/bus"
	"github.com/yungbote/openlearn-backend/internal/platform/dbctx"
	"github.com/yungbote/openlearn-backend/internal/platform/logger"
	"github.com/yungbote/openlearn-backend/internal/platform/objectstore"
)

type MaterialService interface {
	Upload(ctx context.Context, userID int64, file UploadedFileInfo) (*types.LearningMaterial, error)
	List(ctx context.Context, userID int64) ([]MaterialView, error)
}

type UploadedFileInfo struct {
	OriginalName string
	MimeType     string
	SizeBytes    int64
	Reader       io.Reader
}

type MaterialView struct {
	ID       int64  `json:"id"`
	Filename string `json:"filename"`
	Status   string `json:"status"`
}

type materialService struct {
	log          *logger.Logger
	materialRepo repos.LearningMaterialRepo
	store        objectstore.Store
	// publisher is nil when no message bus is configured.
	publisher bus.Publisher
}

func NewMaterialService(
	baseLog *logger.Logger,
	materialRepo repos.LearningMaterialRepo,
	store objectstore.Store,
	publisher bus.Publisher,
) MaterialService {
	return &materialService{
		log:          baseLog.With("service", "MaterialService"),
		materialRepo: materialRepo,
		store:        store,
		publisher:    publisher,
	}
}

func (ms *materialService) Upload(ctx context.Context, userID int64, file UploadedFileInfo) (*types.LearningMaterial, error) {
	filename := strings.TrimSpace(filepath.Base(file.OriginalName))
	if filename == "" || filename == "." || filename == string(filepath.Separator) {
		return nil, invalidInput("filename required")
	}
	if file.Reader == nil {
		return nil, invalidInput("file required")
	}

	path, err := ms.store.Save(ctx, objectstore.Object{
		OwnerID:     userID,
		Filename:    filename,
		ContentType: file.MimeType,
		Size:        file.SizeBytes,
		Body:        file.Reader,
	})
	if err != nil {
		return nil, fmt.Errorf("store material: %w", err)
	}

	meta, err := json.Marshal(types.MaterialMetadata{
		ContentType:    file.MimeType,
		SizeBytes:      file.SizeBytes,
		StorageBackend: ms.store.Backend(),
	})
	if err != nil {
		ms.discard(ctx, path)
		return nil, err
	}
	material := &types.LearningMaterial{
		OwnerID:     userID,
		Filename:    filename,
		StoragePath: path,
		Status:      types.MaterialStatusPending,
		Metadata:    datatypes.JSON(meta),
	}
	if _, err := ms.materialRepo.Create(dbctx.Context{Ctx: ctx}, []*types.LearningMaterial{material}); err != nil {
		ms.discard(ctx, path)
		return nil, err
	}

	ms.log.Info("material uploaded", "user_id", userID, "material_id", material.ID, "backend", ms.store.Backend())
	ms.announce(ctx, material)
	return material, nil
}

// discard removes a stored object whose row was never written.
func (ms *materialService) discard(ctx context.Context, path string) {
	if err := ms.store.Delete(context.WithoutCancel(ctx), path); err != nil {
		ms.log.Warn("orphaned material object", "path", path, "error", err.Error())
	}
}

func (ms *materialService) announce(ctx context.Context, m *types.LearningMaterial) {
	if ms.publisher == nil {
		return
	}
	evt := bus.MaterialUploaded{MaterialID: m.ID, OwnerID: m.OwnerID, StoragePath: m.StoragePath}
	if err := ms.publisher.Publish(ctx, bus.SubjectMaterialUploaded, evt); err != nil {
		ms.log.Warn("material event publish failed", "material_id", m.ID, "error", err.Error())
	}
}

func (ms *materialService) List(ctx context.Context, userID int64) ([]MaterialView, error) {
	rows, err := ms.materialRepo.ListByOwner(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, err
	}
	out := make([]MaterialView, 0, len(rows))
	for _, m := range rows {
		out = append(out, MaterialView{ID: m.ID, Filename: m.Filename, Status: m.Status})
	}
	return out, nil
}
