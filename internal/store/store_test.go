package store

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/goosewin/qagen/internal/qa"
	"github.com/goosewin/qagen/internal/topic"
)

func TestAppendWritesHeaderOnce(t *testing.T) {
	tempDir := t.TempDir()
	store := &CSVStore{Dir: tempDir}

	path, err := store.Append([]qa.Record{{Input: "a", Output: "b"}}, "data")
	if err != nil {
		t.Fatalf("first append: %v", err)
	}
	if filepath.Base(path) != "data.csv" {
		t.Fatalf("expected .csv suffix, got %s", path)
	}
	if _, err := store.Append([]qa.Record{{Input: "c", Output: "d"}}, "data.csv"); err != nil {
		t.Fatalf("second append: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if got := string(data); got != "input,output\na,b\nc,d\n" {
		t.Fatalf("unexpected csv contents %q", got)
	}
}

func TestAppendQuotingRoundTrips(t *testing.T) {
	tempDir := t.TempDir()
	store := &CSVStore{Dir: tempDir}
	records := []qa.Record{
		{Input: "Con ơi, \"bố\" đâu?", Output: "Dạ, bố đi chợ,\nchiều về ạ"},
		{Input: "plain", Output: "text"},
	}

	path, err := store.Append(records, filepath.Join("nested", "quoted"))
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	read, columns, err := ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if !reflect.DeepEqual(columns, Header) {
		t.Fatalf("unexpected columns %v", columns)
	}
	if !reflect.DeepEqual(read, records) {
		t.Fatalf("records did not round trip:\n got %#v\nwant %#v", read, records)
	}
}

func TestAppendRejectsEmpty(t *testing.T) {
	store := &CSVStore{Dir: t.TempDir()}
	if _, err := store.Append(nil, "empty"); !errors.Is(err, ErrNoRecords) {
		t.Fatalf("expected ErrNoRecords, got %v", err)
	}
}

type fakePutter struct {
	keys   []string
	bodies []string
	err    error
}

func (f *fakePutter) PutObject(input *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	data := new(strings.Builder)
	buf := make([]byte, 512)
	for {
		n, err := input.Body.Read(buf)
		data.Write(buf[:n])
		if err != nil {
			break
		}
	}
	f.keys = append(f.keys, *input.Key)
	f.bodies = append(f.bodies, data.String())
	return &s3.PutObjectOutput{}, nil
}

func TestArtifactsSaveMirrorsToS3(t *testing.T) {
	tempDir := t.TempDir()
	putter := &fakePutter{}
	artifacts := &Artifacts{
		Store:  &CSVStore{Dir: tempDir},
		Mirror: &S3Mirror{Client: putter, Bucket: "bucket", Prefix: "datasets"},
	}

	path, err := artifacts.Save([]qa.Record{{Input: "a", Output: "b"}}, filepath.Join("marathon_finals", "final"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !filepath.IsAbs(path) {
		t.Fatalf("expected absolute path, got %s", path)
	}
	if len(putter.keys) != 1 || putter.keys[0] != "datasets/marathon_finals/final.csv" {
		t.Fatalf("unexpected mirrored keys %v", putter.keys)
	}
	if putter.bodies[0] != "input,output\na,b\n" {
		t.Fatalf("unexpected mirrored body %q", putter.bodies[0])
	}
}

func TestArtifactsSaveIgnoresMirrorFailure(t *testing.T) {
	artifacts := &Artifacts{
		Store:  &CSVStore{Dir: t.TempDir()},
		Mirror: &S3Mirror{Client: &fakePutter{err: errors.New("denied")}, Bucket: "bucket"},
	}
	if _, err := artifacts.Save([]qa.Record{{Input: "a", Output: "b"}}, "x"); err != nil {
		t.Fatalf("expected local save to succeed, got %v", err)
	}
}

func TestTopicName(t *testing.T) {
	item, _ := topic.Lookup(10)
	now := time.Date(2026, 10, 17, 10, 15, 0, 0, time.UTC)
	if got := TopicName(item, now); got != "topic_10_cong_nghe_20261017_101500" {
		t.Fatalf("unexpected topic name %q", got)
	}
}
