package cloud

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/photonlab/fdtdbench/internal/solver"
)

// download fetches the result bundle to dest. The API hands out either a
// presigned HTTPS URL or an S3 object location with scoped credentials.
func (b *Backend) download(ctx context.Context, info *bundleInfo, taskID, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return &solver.RemoteError{Detail: "preparing bundle directory", TaskID: taskID, Err: err}
	}
	switch {
	case info.S3 != nil:
		return b.downloadS3(ctx, info.S3, taskID, dest)
	case info.URL != "":
		return b.downloadHTTP(ctx, info.URL, taskID, dest)
	default:
		return &solver.RemoteError{TaskID: taskID, Detail: "bundle location response was empty"}
	}
}

func (b *Backend) downloadHTTP(ctx context.Context, url, taskID, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &solver.RemoteError{Detail: "building bundle request", TaskID: taskID, Err: err}
	}
	resp, err := b.HTTPClient.Do(req)
	if err != nil {
		return &solver.RemoteError{Detail: "downloading bundle", TaskID: taskID, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &solver.RemoteError{TaskID: taskID, Detail: "bundle download failed: " + resp.Status}
	}

	f, err := os.Create(dest)
	if err != nil {
		return &solver.RemoteError{Detail: "creating bundle file", TaskID: taskID, Err: err}
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		return &solver.RemoteError{Detail: "writing bundle file", TaskID: taskID, Err: err}
	}
	return nil
}

func (b *Backend) downloadS3(ctx context.Context, s3 *s3Bundle, taskID, dest string) error {
	client, err := minio.New(s3.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(s3.AccessKey, s3.SecretKey, ""),
		Secure: s3.Secure,
	})
	if err != nil {
		return &solver.RemoteError{Detail: "creating object-store client", TaskID: taskID, Err: err}
	}
	if err := client.FGetObject(ctx, s3.Bucket, s3.Object, dest, minio.GetObjectOptions{}); err != nil {
		return &solver.RemoteError{Detail: "fetching bundle object", TaskID: taskID, Err: err}
	}
	return nil
}
