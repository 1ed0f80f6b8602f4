package store

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// ObjectPutter is the subset of the S3 client used for mirroring.
type ObjectPutter interface {
	PutObject(input *s3.PutObjectInput) (*s3.PutObjectOutput, error)
}

// S3Mirror copies written artifacts to a bucket.
type S3Mirror struct {
	Client ObjectPutter
	Bucket string
	Prefix string
}

// NewS3Mirror builds a mirror from the default AWS credential chain.
func NewS3Mirror(bucket, prefix, region string) (*S3Mirror, error) {
	cfg := aws.NewConfig()
	if strings.TrimSpace(region) != "" {
		cfg = cfg.WithRegion(region)
	}
	sess, err := session.NewSessionWithOptions(session.Options{
		Config:            *cfg,
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, fmt.Errorf("create aws session: %w", err)
	}
	return &S3Mirror{Client: s3.New(sess), Bucket: bucket, Prefix: prefix}, nil
}

// Key returns the object key for a local file, keeping its parent directory
// so round and final artifacts stay apart.
func (m *S3Mirror) Key(localPath string) string {
	parent := filepath.Base(filepath.Dir(localPath))
	name := filepath.Base(localPath)
	if parent == "." || parent == string(filepath.Separator) {
		return path.Join(m.Prefix, name)
	}
	return path.Join(m.Prefix, parent, name)
}

// Upload puts the whole file. Appended files are re-uploaded in full.
func (m *S3Mirror) Upload(localPath string) (string, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	key := m.Key(localPath)
	if _, err := m.Client.PutObject(&s3.PutObjectInput{
		Bucket:      aws.String(m.Bucket),
		Key:         aws.String(key),
		Body:        io.ReadSeeker(file),
		ContentType: aws.String("text/csv; charset=utf-8"),
	}); err != nil {
		return "", fmt.Errorf("put s3://%s/%s: %w", m.Bucket, key, err)
	}
	return fmt.Sprintf("s3://%s/%s", m.Bucket, key), nil
}
