// Package miniostore implements regstore.Store on top of S3-compatible
// object storage. Each location is stored as a single object.
package miniostore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/kjk/appregistry/log"
	"github.com/kjk/appregistry/regstore"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type Config struct {
	Endpoint string `json:"endpoint"`
	Access   string `json:"access"`
	Secret   string `json:"secret"`
	Bucket   string `json:"bucket"`
	Region   string `json:"region"`
	// prepended to object names, e.g. "settings/"
	Prefix string `json:"prefix"`
	// if true, objects are brotli compressed
	Compress bool `json:"compress"`
	Secure   bool `json:"secure"`

	RequestTrace io.Writer `json:"-"`
}

// Validate checks that all required fields are set
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("must provide config")
	}
	if c.Access == "" || c.Secret == "" || c.Bucket == "" || c.Endpoint == "" {
		return errors.New("must provide endpoint, access, secret and bucket in config")
	}
	return nil
}

type Store struct {
	Client *minio.Client
	Bucket string
	config *Config
}

var _ regstore.Store = &Store{}

func ctx() context.Context {
	return context.Background()
}

func New(config *Config) (*Store, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	c := config
	mc, err := minio.New(c.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(c.Access, c.Secret, ""),
		Region: c.Region,
		Secure: c.Secure,
	})
	if err != nil {
		return nil, err
	}
	if c.RequestTrace != nil {
		mc.TraceOn(c.RequestTrace)
	}
	found, err := mc.BucketExists(ctx(), c.Bucket)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("bucket '%s' doesn't exist", c.Bucket)
	}
	return &Store{
		Client: mc,
		Bucket: c.Bucket,
		config: c,
	}, nil
}

// ObjectName returns the name of the object that stores location path
func ObjectName(c *Config, path string) string {
	name := c.Prefix + strings.TrimPrefix(path, "/") + ".txt"
	if c.Compress {
		name += ".br"
	}
	return name
}

func brCompress(d []byte) ([]byte, error) {
	var dst bytes.Buffer
	w := brotli.NewWriterLevel(&dst, brotli.BestCompression)
	_, err := w.Write(d)
	err2 := w.Close()
	if err = errors.Join(err, err2); err != nil {
		return nil, err
	}
	return dst.Bytes(), nil
}

func brDecompress(d []byte) ([]byte, error) {
	return io.ReadAll(brotli.NewReader(bytes.NewReader(d)))
}

func isNotExist(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NotFound"
}

func (s *Store) download(name string) ([]byte, error) {
	obj, err := s.Client.GetObject(ctx(), s.Bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()
	return io.ReadAll(obj)
}

func (s *Store) upload(name string, d []byte) error {
	opts := minio.PutObjectOptions{
		ContentType: "text/plain; charset=utf-8",
	}
	if s.config.Compress {
		opts.ContentEncoding = "br"
	}
	_, err := s.Client.PutObject(ctx(), s.Bucket, name, bytes.NewReader(d), int64(len(d)), opts)
	return err
}

func (s *Store) Open(path string, writable bool) (regstore.Key, error) {
	if path == "" {
		return nil, errors.New("empty location path")
	}
	name := ObjectName(s.config, path)
	entries := regstore.Entries{}
	isNew := false
	d, err := s.download(name)
	if err != nil {
		if !isNotExist(err) {
			return nil, err
		}
		if !writable {
			return nil, fmt.Errorf("%w: %s", regstore.ErrNotExist, path)
		}
		isNew = true
	} else {
		if s.config.Compress {
			if d, err = brDecompress(d); err != nil {
				return nil, fmt.Errorf("decompressing '%s': %w", name, err)
			}
		}
		if entries, err = regstore.UnmarshalEntries(d); err != nil {
			return nil, fmt.Errorf("parsing '%s': %w", name, err)
		}
	}
	k := &regstore.BufferedKey{
		Entries: entries,
		Dirty:   isNew,
	}
	if writable {
		k.Flush = func(e regstore.Entries) error {
			d, err := e.Marshal()
			if err != nil {
				return err
			}
			if s.config.Compress {
				if d, err = brCompress(d); err != nil {
					return err
				}
			}
			err = s.upload(name, d)
			log.IfErrf(err, "miniostore: upload of '%s' to bucket '%s' failed with '%s'\n", name, s.Bucket, err)
			return err
		}
	}
	return k, nil
}

// Paths returns paths of all locations in the bucket under Prefix
func (s *Store) Paths() ([]string, error) {
	opts := minio.ListObjectsOptions{
		Prefix:    s.config.Prefix,
		Recursive: true,
	}
	ext := ObjectName(&Config{Compress: s.config.Compress}, "")
	var res []string
	for obj := range s.Client.ListObjects(ctx(), s.Bucket, opts) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		if !strings.HasSuffix(obj.Key, ext) {
			continue
		}
		path := strings.TrimSuffix(strings.TrimPrefix(obj.Key, s.config.Prefix), ext)
		res = append(res, path)
	}
	return res, nil
}

// Remove deletes the object of location path
func (s *Store) Remove(path string) error {
	opts := minio.RemoveObjectOptions{}
	return s.Client.RemoveObject(ctx(), s.Bucket, ObjectName(s.config, path), opts)
}
