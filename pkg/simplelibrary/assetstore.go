package simplelibrary

import (
	"context"
	"fmt"
	"os"
)

// assetStore implements AssetStore on top of a BlobStore. It owns the
// category-specific rules: folder placement, stored format selection for
// covers, the fixed pdf format for documents, and the resource-kind hint that
// must be identical on upload and destroy.
type assetStore struct {
	backend BlobStore
	baseURL string
}

// NewAssetStore creates an AssetStore serving locators under baseURL.
func NewAssetStore(backend BlobStore, baseURL string) AssetStore {
	return &assetStore{backend: backend, baseURL: baseURL}
}

func (a *assetStore) Upload(ctx context.Context, staged *StagedUpload, category AssetCategory, desiredKey string) (string, error) {
	key := desiredKey
	format := DefaultCoverFormat
	mimeType := staged.DeclaredMimeType

	switch category {
	case AssetCategoryDocument:
		// Documents are stored as opaque binaries under a key that keeps its
		// extension; no transcoding or inspection happens downstream.
		key = desiredKey + ".pdf"
		mimeType = "application/pdf"
	default:
		format = ResolveCoverFormat(staged.DeclaredMimeType)
	}

	locator := EncodeLocator(a.baseURL, category, key, format)
	objectKey := FolderFor(category) + "/" + key

	file, err := os.Open(staged.LocalPath)
	if err != nil {
		return "", &RemoteStoreError{Locator: locator, Category: category, Op: "upload", Err: fmt.Errorf("open staged file: %w", err)}
	}
	defer file.Close()

	params := UploadParams{
		ObjectKey: objectKey,
		MimeType:  mimeType,
		Kind:      KindFor(category),
	}
	if err := a.backend.Upload(ctx, file, params); err != nil {
		return "", &RemoteStoreError{Locator: locator, Category: category, Op: "upload", Err: err}
	}
	return locator, nil
}

func (a *assetStore) Destroy(ctx context.Context, locator string, category AssetCategory) error {
	folder, key, err := DecomposeLocator(locator, category)
	if err != nil {
		return &RemoteStoreError{Locator: locator, Category: category, Op: "destroy", Err: err}
	}
	if err := a.backend.Delete(ctx, folder+"/"+key, KindFor(category)); err != nil {
		return &RemoteStoreError{Locator: locator, Category: category, Op: "destroy", Err: err}
	}
	return nil
}
