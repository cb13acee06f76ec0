package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	liberrors "github.com/joe/nexus-library/pkg/errors"
	"github.com/joe/nexus-library/pkg/filesystem"
)

const (
	recordExt       = ".json"
	recordFilePerms = 0o644
	recordDirPerms  = 0o755
)

// JSONStore keeps one JSON document per title under a directory, normally
// on the archive host over SFTP.
type JSONStore struct {
	fs     filesystem.TreeFS
	dir    string
	logger zerolog.Logger

	mu      sync.Mutex
	ensured bool
}

// NewJSONStore creates a JSONStore rooted at dir on fs.
func NewJSONStore(fs filesystem.TreeFS, dir string, logger zerolog.Logger) *JSONStore {
	return &JSONStore{fs: fs, dir: dir, logger: logger}
}

func (s *JSONStore) recordPath(id string) string {
	return path.Join(s.dir, id+recordExt)
}

func (s *JSONStore) ensureDir() error {
	if s.ensured {
		return nil
	}

	if err := s.fs.MkdirAll(s.dir, recordDirPerms); err != nil {
		return liberrors.Wrap(err, liberrors.KindStore, "ensure").WithPath(s.dir)
	}

	s.ensured = true

	return nil
}

// FindAll reads every record. Unreadable documents are logged and skipped.
func (s *JSONStore) FindAll(ctx context.Context) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureDir(); err != nil {
		return nil, err
	}

	entries, err := s.fs.ReadDir(s.dir)
	if err != nil {
		return nil, liberrors.Wrap(err, liberrors.KindStore, "find all").WithPath(s.dir)
	}

	records := make([]Record, 0, len(entries))

	for _, entry := range entries {
		if ctx.Err() != nil {
			return nil, liberrors.Wrap(ctx.Err(), liberrors.KindStore, "find all")
		}

		if entry.IsDir() || !strings.HasSuffix(entry.Name(), recordExt) {
			continue
		}

		record, err := s.read(path.Join(s.dir, entry.Name()))
		if err != nil {
			s.logger.Warn().Err(err).Str("file", entry.Name()).Msg("skipping unreadable record")
			continue
		}

		records = append(records, record)
	}

	sort.Slice(records, func(i, j int) bool { return records[i].SteamAppID < records[j].SteamAppID })

	return records, nil
}

// FindOne reads the record for id.
func (s *JSONStore) FindOne(_ context.Context, id string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.read(s.recordPath(id))
	if err != nil {
		return Record{}, err
	}

	return record, nil
}

// Create writes a new record. An existing record with the same id is an error.
func (s *JSONStore) Create(_ context.Context, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureDir(); err != nil {
		return err
	}

	target := s.recordPath(record.SteamAppID)
	if filesystem.Exists(s.fs, target) {
		return liberrors.Newf(liberrors.KindStore, "create", "record %s already exists", record.SteamAppID).WithPath(target)
	}

	return s.write(target, record)
}

// Update merges fields into the stored record and replaces the document.
func (s *JSONStore) Update(_ context.Context, id string, fields Fields) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.recordPath(id)

	record, err := s.read(target)
	if err != nil {
		return err
	}

	fields.Apply(&record)

	return s.write(target, record)
}

func (s *JSONStore) read(file string) (Record, error) {
	data, err := s.fs.ReadFile(file)
	if errors.Is(err, os.ErrNotExist) {
		return Record{}, liberrors.Wrap(ErrNotFound, liberrors.KindStore, "read").WithPath(file)
	}

	if err != nil {
		return Record{}, liberrors.Wrap(err, liberrors.KindStore, "read").WithPath(file)
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return Record{}, liberrors.Wrapf(err, liberrors.KindStore, "read", "failed to decode record").WithPath(file)
	}

	return record, nil
}

// write replaces file via a temporary sibling so a reader on another
// machine never sees half a document.
func (s *JSONStore) write(file string, record Record) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return liberrors.Wrap(err, liberrors.KindStore, "write").WithPath(file)
	}

	tmp := file + ".tmp-" + strconv.FormatInt(time.Now().UnixNano(), 36)

	if err := s.fs.WriteFile(tmp, data, recordFilePerms); err != nil {
		return liberrors.Wrap(err, liberrors.KindStore, "write").WithPath(tmp)
	}

	if err := s.fs.Rename(tmp, file); err != nil {
		_ = s.fs.Remove(tmp)
		return liberrors.Wrap(err, liberrors.KindStore, "write").WithPath(file)
	}

	return nil
}
