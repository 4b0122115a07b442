package simplelibrary

import (
	"fmt"
	"path"
	"strings"
)

// Remote folder names, one per asset category.
const (
	CoverFolder    = "book-covers"
	DocumentFolder = "book-pdfs"
)

// DefaultCoverFormat is used when the declared MIME subtype is not on the
// allow-list.
const DefaultCoverFormat CoverFormat = "jpg"

// coverFormats is the fixed allow-list of stored cover formats.
var coverFormats = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"webp": {},
	"gif":  {},
	"bmp":  {},
	"tiff": {},
	"ico":  {},
	"pdf":  {},
	"heic": {},
}

// ResolveCoverFormat derives the stored cover format from a declared MIME
// type ("image/png" -> "png"). Unknown or missing subtypes fall back to
// DefaultCoverFormat.
func ResolveCoverFormat(declaredMimeType string) CoverFormat {
	subtype := declaredMimeType
	if i := strings.LastIndex(declaredMimeType, "/"); i >= 0 {
		subtype = declaredMimeType[i+1:]
	}
	subtype = strings.ToLower(subtype)
	if _, ok := coverFormats[subtype]; ok {
		return CoverFormat(subtype)
	}
	return DefaultCoverFormat
}

// FolderFor returns the remote folder for a category.
func FolderFor(category AssetCategory) string {
	if category == AssetCategoryDocument {
		return DocumentFolder
	}
	return CoverFolder
}

// KindFor returns the resource kind that must accompany uploads and destroys
// for a category. Documents are stored as opaque binaries.
func KindFor(category AssetCategory) ResourceKind {
	if category == AssetCategoryDocument {
		return ResourceKindRaw
	}
	return ResourceKindImage
}

// EncodeLocator builds the durable locator for an object stored under
// (folder, key). Cover locators carry the stored format as a file extension
// that is not part of the object key; document keys already end in ".pdf" and
// are used verbatim. format is ignored for documents.
func EncodeLocator(baseURL string, category AssetCategory, key string, format CoverFormat) string {
	base := strings.TrimRight(baseURL, "/")
	if category == AssetCategoryDocument {
		return base + "/" + DocumentFolder + "/" + key
	}
	return base + "/" + CoverFolder + "/" + key + "." + string(format)
}

// DecomposeLocator recovers the (folder, key) pair a locator was encoded
// from, applying the exact inverse of EncodeLocator: the file extension is
// stripped for covers and preserved as stored for documents. An asymmetric
// decomposition here would make destroy silently target the wrong object.
func DecomposeLocator(locator string, category AssetCategory) (folder, key string, err error) {
	trimmed := strings.TrimRight(locator, "/")
	name := path.Base(trimmed)
	folder = path.Base(path.Dir(trimmed))

	if name == "" || name == "." || name == "/" {
		return "", "", fmt.Errorf("malformed locator %q", locator)
	}
	if want := FolderFor(category); folder != want {
		return "", "", fmt.Errorf("locator %q is not in folder %q", locator, want)
	}

	if category == AssetCategoryCover {
		name = strings.TrimSuffix(name, path.Ext(name))
		if name == "" {
			return "", "", fmt.Errorf("malformed cover locator %q", locator)
		}
	}
	return folder, name, nil
}
