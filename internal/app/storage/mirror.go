package storage

import (
	"context"
	"errors"
	"path"
	"time"

	"oasip/internal/app/api"
)

// MirrorLinkDuration is how long a mirrored attachment's download link stays valid.
const MirrorLinkDuration = 15 * time.Minute

// Downloader fetches attachments from the API.
type Downloader interface {
	DownloadFile(ctx context.Context, uuid string, opts ...api.CallOption) (*api.Download, error)
}

// MirrorResult describes a mirrored attachment.
type MirrorResult struct {
	Key       string `json:"key"`
	FileName  string `json:"fileName"`
	URL       string `json:"url"`
	Uploaded  bool   `json:"uploaded"`
	ExpiresIn string `json:"expiresIn"`
}

// MirrorKey is the object key of an attachment.
func MirrorKey(uuid, name string) string {
	return path.Join("attachments", uuid, name)
}

// Mirror copies attachment uuid into storage unless it is already there, and returns
// a presigned link to the copy.
func Mirror(ctx context.Context, files Downloader, store StorageService, uuid string) (*MirrorResult, error) {
	dl, err := files.DownloadFile(ctx, uuid)
	if err != nil {
		return nil, err
	}
	defer dl.Body.Close()

	key := MirrorKey(uuid, dl.Name)
	uploaded := false

	if _, err := store.Stat(ctx, key); err != nil {
		if !errors.Is(err, ErrObjectNotFound) {
			return nil, err
		}
		if err := store.Upload(ctx, key, dl.Body, dl.ContentType); err != nil {
			return nil, err
		}
		uploaded = true
	}

	url, err := store.PresignDownload(ctx, key, MirrorLinkDuration)
	if err != nil {
		return nil, err
	}

	return &MirrorResult{
		Key:       key,
		FileName:  dl.Name,
		URL:       url,
		Uploaded:  uploaded,
		ExpiresIn: MirrorLinkDuration.String(),
	}, nil
}
