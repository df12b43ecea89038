package handler

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"oasip/internal/app/storage"
	"oasip/internal/pkg/errs"
	"oasip/internal/pkg/logx"
)

type fileNameOutput struct {
	UUID     string `json:"uuid"`
	FileName string `json:"fileName"`
	URL      string `json:"url"`
}

type downloadOutput struct {
	Path        string `json:"path"`
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	Bytes       int64  `json:"bytes"`
}

// HandleFileName shows an attachment's original name without downloading it.
func HandleFileName(deps *AppDeps) CommandFunc {
	return func(ctx context.Context, args []string) (any, error) {
		fs := newFlags(deps, "file-name")
		id := fs.String("uuid", "", "attachment uuid")
		if err := fs.parse(args); err != nil {
			return nil, err
		}
		if err := fs.require("uuid"); err != nil {
			return nil, err
		}

		name, err := deps.Client.FileName(ctx, *id)
		if err != nil {
			return nil, err
		}
		link, err := deps.Client.FileURL(*id)
		if err != nil {
			return nil, err
		}
		return fileNameOutput{UUID: *id, FileName: name, URL: link}, nil
	}
}

// HandleFileDownload saves an attachment. Without -o it is written to the working
// directory under its original name.
func HandleFileDownload(deps *AppDeps) CommandFunc {
	return func(ctx context.Context, args []string) (any, error) {
		fs := newFlags(deps, "file-download")
		id := fs.String("uuid", "", "attachment uuid")
		out := fs.String("o", "", "output path")
		if err := fs.parse(args); err != nil {
			return nil, err
		}
		if err := fs.require("uuid"); err != nil {
			return nil, err
		}

		dl, err := deps.Client.DownloadFile(ctx, *id)
		if err != nil {
			return nil, err
		}
		defer dl.Body.Close()

		path := *out
		if path == "" {
			path = filepath.Base(dl.Name)
		}

		f, err := os.Create(path)
		if err != nil {
			return nil, errs.Wrap(errs.ErrUnknown, err).WithMessage("Cannot create output file.")
		}

		n, err := io.Copy(f, dl.Body)
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			_ = os.Remove(path)
			return nil, errs.Wrap(errs.ErrTransport, err)
		}

		logx.Info("Attachment saved", "uuid", *id, "path", path, "bytes", n)
		return downloadOutput{Path: path, FileName: dl.Name, ContentType: dl.ContentType, Bytes: n}, nil
	}
}

// HandleFileMirror copies an attachment to the configured S3 bucket and prints a
// presigned link to the copy.
func HandleFileMirror(deps *AppDeps) CommandFunc {
	return func(ctx context.Context, args []string) (any, error) {
		fs := newFlags(deps, "file-mirror")
		id := fs.String("uuid", "", "attachment uuid")
		if err := fs.parse(args); err != nil {
			return nil, err
		}
		if err := fs.require("uuid"); err != nil {
			return nil, err
		}

		if deps.StorageService == nil {
			return nil, errs.NewError(errs.ErrFileStorageFailed).WithMessage("Attachment mirror is not configured. Set S3_BUCKET_NAME.")
		}

		result, err := storage.Mirror(ctx, deps.Client, deps.StorageService, *id)
		if err != nil {
			return nil, err
		}

		logx.Info("Attachment mirrored", "uuid", *id, "key", result.Key, "uploaded", result.Uploaded)
		return result, nil
	}
}
