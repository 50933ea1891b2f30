package stats

import (
	"bytes"
	"compress/gzip"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/deanrtaylor1/gobayes/logger"
)

const snapshotExt = ".gz"

var ErrSnapshotNotFound = errors.New("snapshot not found")

// Snapshot is the serialisable form of a Store
type Snapshot struct {
	Name      string
	Labels    []string
	DocCount  DocCount
	StemCount StemCount
	Joint     JointCount
	Tokenizer string
}

// Snapshot copies the counters of s under the given name
func (s *Store) Snapshot(name string) Snapshot {
	snap := Snapshot{
		Name:      name,
		Labels:    s.Labels(),
		DocCount:  make(DocCount, len(s.docs)),
		StemCount: make(StemCount, len(s.stems)),
		Joint:     make(JointCount, len(s.joint)),
		Tokenizer: s.tokenizer,
	}
	for label, n := range s.docs {
		snap.DocCount[label] = n
	}
	for token, n := range s.stems {
		snap.StemCount[token] = n
	}
	for token, perLabel := range s.joint {
		counts := make(map[string]int, len(perLabel))
		for label, n := range perLabel {
			counts[label] = n
		}
		snap.Joint[token] = counts
	}
	return snap
}

// Restore replaces the counters of s with the snapshot content
func (s *Store) Restore(snap Snapshot) error {
	restored := NewStore()
	restored.tokenizer = snap.Tokenizer
	for _, label := range snap.Labels {
		restored.RegisterLabel(label)
	}
	for label, n := range snap.DocCount {
		if !restored.labelSet[label] {
			return fmt.Errorf("snapshot %q: document count for unknown label %q", snap.Name, label)
		}
		restored.docs[label] = n
		restored.total += n
	}
	for token, n := range snap.StemCount {
		restored.stems[token] = n
	}
	for token, perLabel := range snap.Joint {
		restored.joint[token] = make(map[string]int, len(perLabel))
		for label, n := range perLabel {
			restored.joint[token][label] = n
		}
	}
	if err := restored.CheckInvariants(); err != nil {
		return fmt.Errorf("snapshot %q: %w", snap.Name, err)
	}
	*s = *restored
	return nil
}

type FileOps interface {
	MkdirAll(dirName string, perm os.FileMode) error
	CompressAndWriteGzipFile(filename string, data interface{}, dirName string) error
}

type FileOpsImpl struct{}

func (f FileOpsImpl) MkdirAll(dirName string, perm os.FileMode) error {
	return os.MkdirAll(dirName, perm)
}

func (f FileOpsImpl) CompressAndWriteGzipFile(filename string, data interface{}, dirName string) error {
	return CompressAndWriteGzipFile(filename, data, dirName)
}

type FileOpsNoOp struct{}

func (f FileOpsNoOp) MkdirAll(dirName string, perm os.FileMode) error {
	return nil
}

func (f FileOpsNoOp) CompressAndWriteGzipFile(filename string, data interface{}, dirName string) error {
	return nil
}

// Encode gob-encodes and gzips data
func Encode(data interface{}) ([]byte, error) {
	var compressedData bytes.Buffer
	gzipWriter := gzip.NewWriter(&compressedData)

	encoder := gob.NewEncoder(gzipWriter)
	if err := encoder.Encode(data); err != nil {
		return nil, fmt.Errorf("error encoding snapshot: %w", err)
	}

	if err := gzipWriter.Close(); err != nil {
		return nil, fmt.Errorf("error closing gzip writer: %w", err)
	}
	return compressedData.Bytes(), nil
}

// Decode reverses Encode into out
func Decode(compressedData []byte, out interface{}) error {
	gzipReader, err := gzip.NewReader(bytes.NewReader(compressedData))
	if err != nil {
		return fmt.Errorf("error opening gzip reader: %w", err)
	}
	defer gzipReader.Close()

	if err := gob.NewDecoder(gzipReader).Decode(out); err != nil {
		return fmt.Errorf("error decoding snapshot: %w", err)
	}
	return nil
}

// CompressAndWriteGzipFile writes and compresses a datastructure to disk
func CompressAndWriteGzipFile(fileName string, data interface{}, dirName string) error {
	compressedData, err := Encode(data)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path.Join(dirName, fileName), compressedData, 0644); err != nil {
		return fmt.Errorf("error writing compressed data to disk: %w", err)
	}
	return nil
}

// SaveSnapshot writes the store under dir/name.gz
func SaveSnapshot(fileOps FileOps, dir, name string, s *Store) error {
	if err := fileOps.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating snapshot directory: %w", err)
	}
	if err := fileOps.CompressAndWriteGzipFile(name+snapshotExt, s.Snapshot(name), dir); err != nil {
		return err
	}
	logger.HandleLog(fmt.Sprintf("saved snapshot %s (%d documents)", name, s.TotalDocs()))
	return nil
}

// LoadSnapshot reads dir/name.gz into a new store
func LoadSnapshot(dir, name string) (*Store, error) {
	compressedData, err := os.ReadFile(filepath.Join(dir, name+snapshotExt))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("error reading snapshot: %w", err)
	}

	var snap Snapshot
	if err := Decode(compressedData, &snap); err != nil {
		return nil, err
	}
	s := NewStore()
	if err := s.Restore(snap); err != nil {
		return nil, err
	}
	return s, nil
}

// DeleteSnapshot removes dir/name.gz
func DeleteSnapshot(dir, name string) error {
	err := os.Remove(filepath.Join(dir, name+snapshotExt))
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrSnapshotNotFound, name)
	}
	if err != nil {
		return fmt.Errorf("error deleting snapshot: %w", err)
	}
	logger.HandleLog(fmt.Sprintf("deleted snapshot %s", name))
	return nil
}

// ListSnapshots returns the snapshot names found in dir, sorted.
// A missing directory is not an error.
func ListSnapshots(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}

	names := []string{}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != snapshotExt {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), snapshotExt))
	}
	sort.Strings(names)
	return names, nil
}
