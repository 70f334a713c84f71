// Package cloud adapts an S3 compatible bucket to the read-only storage
// interface consumed by validation, so OCFL objects can be checked where
// they live instead of downloading whole trees first.  Buckets have no
// real directories; a path names a directory here whenever at least one
// key lives beneath it.
package cloud

import (
	"context"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
	"github.com/preservio/ocfl/validation"
)

// Store is a validation.Storage reading from an S3 compatible bucket
type Store struct {
	client *minio.Client
	bucket string
	prefix string
	ctx    context.Context
}

// NewStore connects to the configured endpoint and returns a read-only
// storage view of the bucket under the configured prefix.  The given
// context governs every read the store performs; callers wanting bounded
// validation time should derive it with a deadline.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "bad object store config")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "could not connect to %s", cfg.Endpoint)
	}

	return NewStoreWithClient(ctx, client, cfg.Bucket, cfg.Prefix), nil
}

// NewStoreWithClient wraps an existing client, for callers that manage
// their own connection options.
func NewStoreWithClient(ctx context.Context, client *minio.Client, bucket, prefix string) *Store {
	return &Store{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		ctx:    ctx,
	}
}

// key maps a solidus delimited storage path onto a bucket key
func (s *Store) key(p string) string {
	return strings.TrimPrefix(path.Join(s.prefix, path.Clean("/"+p)), "/")
}

// dirkey gives the key prefix under which a directory's children live
func (s *Store) dirkey(p string) string {
	k := s.key(p)
	if k == "" {
		return ""
	}
	return k + "/"
}

// Exists tells whether a file or directory is present at the path
func (s *Store) Exists(p string) (bool, error) {
	_, err := s.client.StatObject(s.ctx, s.bucket, s.key(p), minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if !missing(err) {
		return false, errors.Wrapf(err, "could not stat %s", p)
	}
	return s.hasChildren(p)
}

// IsDirectory tells whether the path exists and is a directory
func (s *Store) IsDirectory(p string) (bool, error) {
	isDir, err := s.hasChildren(p)
	if err != nil || isDir {
		return isDir, err
	}

	_, err = s.client.StatObject(s.ctx, s.bucket, s.key(p), minio.StatObjectOptions{})
	if err == nil {
		return false, nil
	}
	if missing(err) {
		return false, errors.Wrapf(validation.ErrNotFound, "no such directory %s", p)
	}
	return false, errors.Wrapf(err, "could not stat %s", p)
}

// List returns the immediate children of a directory, sorted by name.
// Child directories are the distinct intermediate key components one
// level down from the path.
func (s *Store) List(p string) ([]validation.DirEntry, error) {
	prefix := s.dirkey(p)

	var listing []validation.DirEntry
	for obj := range s.client.ListObjects(s.ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix}) {
		if obj.Err != nil {
			return nil, errors.Wrapf(obj.Err, "could not list %s", p)
		}

		name := strings.TrimPrefix(obj.Key, prefix)
		if name == "" {
			// a placeholder key for the directory itself
			continue
		}

		if strings.HasSuffix(name, "/") {
			listing = append(listing, validation.DirEntry{Name: strings.TrimSuffix(name, "/"), Dir: true})
		} else {
			listing = append(listing, validation.DirEntry{Name: name})
		}
	}

	if len(listing) == 0 {
		return nil, errors.Wrapf(validation.ErrNotFound, "no such directory %s", p)
	}

	sort.Slice(listing, func(i, j int) bool {
		return listing[i].Name < listing[j].Name
	})
	return listing, nil
}

// ReadAll returns the full content of a file
func (s *Store) ReadAll(p string) ([]byte, error) {
	obj, err := s.client.GetObject(s.ctx, s.bucket, s.key(p), minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.Wrapf(err, "could not read %s", p)
	}
	defer obj.Close()

	b, err := io.ReadAll(obj)
	if missing(err) {
		return nil, errors.Wrapf(validation.ErrNotFound, "no such file %s", p)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "could not read %s", p)
	}
	return b, nil
}

// hasChildren tells whether any key lives under the path
func (s *Store) hasChildren(p string) (bool, error) {
	objects := s.client.ListObjects(s.ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:  s.dirkey(p),
		MaxKeys: 1,
	})
	for obj := range objects {
		if obj.Err != nil {
			return false, errors.Wrapf(obj.Err, "could not list %s", p)
		}
		return true, nil
	}
	return false, nil
}

// missing tells whether an S3 error means the key does not exist
func missing(err error) bool {
	resp := minio.ToErrorResponse(errors.Cause(err))
	return resp.Code == "NoSuchKey" || resp.StatusCode == 404
}
