package repo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tazhibayda/townboat/internal/domain"
)

const filesPrefix = "/files/"

var ErrBadPath = errors.New("invalid file path")

// CleanPath rejects traversal and returns the canonical object path.
func CleanPath(p string) (string, error) {
	p = strings.TrimPrefix(strings.TrimSpace(p), "/")
	if p == "" || strings.Contains(p, "..") {
		return "", ErrBadPath
	}
	return path.Clean(p), nil
}

// FileURL is the durable retrieval URL for an object path.
func FileURL(p string) string { return filesPrefix + p }

// Upload stores r under p, replacing any previous object at p, and returns
// the retrieval URL.
func (s *Store) Upload(ctx context.Context, p, contentType string, r io.Reader) (_ string, err error) {
	_, finish := span(ctx, "uploads", "upload")
	defer func() { finish(err) }()

	p, err = CleanPath(p)
	if err != nil {
		return "", err
	}
	if err := s.deleteByName(p); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return "", err
	}
	opts := options.GridFSUpload().SetMetadata(bson.M{"contentType": contentType})
	if _, err := s.Files.UploadFromStream(p, r, opts); err != nil {
		return "", fmt.Errorf("upload %s: %w", p, err)
	}
	return FileURL(p), nil
}

// Open returns a reader for p and its content type.
func (s *Store) Open(ctx context.Context, p string) (io.ReadCloser, string, error) {
	p, err := CleanPath(p)
	if err != nil {
		return nil, "", err
	}
	cur, err := s.Files.Find(bson.M{"filename": p})
	if err != nil {
		return nil, "", err
	}
	defer cur.Close(ctx)
	var f struct {
		Metadata bson.M `bson:"metadata"`
	}
	if !cur.Next(ctx) {
		return nil, "", fmt.Errorf("file %s: %w", p, domain.ErrNotFound)
	}
	_ = cur.Decode(&f)
	ct, _ := f.Metadata["contentType"].(string)

	ds, err := s.Files.OpenDownloadStreamByName(p)
	if errors.Is(err, gridfs.ErrFileNotFound) {
		return nil, "", fmt.Errorf("file %s: %w", p, domain.ErrNotFound)
	}
	if err != nil {
		return nil, "", err
	}
	return ds, ct, nil
}

func (s *Store) DeleteFile(ctx context.Context, p string) (err error) {
	_, finish := span(ctx, "uploads", "delete")
	defer func() { finish(err) }()

	p, err = CleanPath(p)
	if err != nil {
		return err
	}
	return s.deleteByName(p)
}

func (s *Store) deleteByName(p string) error {
	cur, err := s.Files.Find(bson.M{"filename": p})
	if err != nil {
		return err
	}
	defer cur.Close(context.Background())

	found := false
	for cur.Next(context.Background()) {
		var f struct {
			ID any `bson:"_id"`
		}
		if err := cur.Decode(&f); err != nil {
			return err
		}
		if err := s.Files.Delete(f.ID); err != nil && !errors.Is(err, gridfs.ErrFileNotFound) {
			return err
		}
		found = true
	}
	if !found {
		return fmt.Errorf("file %s: %w", p, domain.ErrNotFound)
	}
	return cur.Err()
}
