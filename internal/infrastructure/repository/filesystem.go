package repository

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-yaml/yaml"
	"github.com/pkg/errors"

	"github.com/dandihub/dandinotes"
	"github.com/dandihub/dandinotes/internal/domain"
)

const (
	recordExt    = ".yaml"
	recordSuffix = "_submission"
	deletedDir   = "deleted"
)

// FilesystemRepository persists resources as YAML files under
// <base>/dandiset_XXXXXX/<status>/<YYYYMMDD_HHMMSS>_submission.yaml.
// Status is a property of file location; transitions move the file.
type FilesystemRepository struct {
	base string
	now  func() time.Time
}

func NewFilesystemRepository(base string) (*FilesystemRepository, error) {
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating submissions root")
	}
	return &FilesystemRepository{base: base, now: time.Now}, nil
}

func (r *FilesystemRepository) dandisetDir(dandisetID string) (string, error) {
	dir, err := dandinotes.DandisetDirName(dandisetID)
	if err != nil {
		return "", err
	}
	return filepath.Join(r.base, dir), nil
}

func (r *FilesystemRepository) statusDir(dandisetID string, status domain.Status) (string, error) {
	dir, err := r.dandisetDir(dandisetID)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, status.Dir()), nil
}

func (r *FilesystemRepository) recordPath(dandisetID, recordID string, status domain.Status) (string, error) {
	dir, err := r.statusDir(dandisetID, status)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, recordID+recordExt), nil
}

func (r *FilesystemRepository) generateID() string {
	return r.now().Format("20060102_150405") + recordSuffix
}

func (r *FilesystemRepository) load(path string) (*dandinotes.Resource, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.NotFoundError{Resource: "record"}
		}
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	var res dandinotes.Resource
	if err := yaml.Unmarshal(raw, &res); err != nil {
		return nil, domain.CorruptionError{Path: path, Err: err}
	}
	return &res, nil
}

func (r *FilesystemRepository) save(path string, res *dandinotes.Resource) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "creating %s", filepath.Dir(path))
	}
	raw, err := yaml.Marshal(res)
	if err != nil {
		return errors.Wrap(err, "encoding record")
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	return nil
}

func stamp(res *dandinotes.Resource, dandisetID, recordID string, status domain.Status) {
	res.ID = recordID
	res.Filename = recordID + recordExt
	res.Status = status.Public()
	if res.DandisetID == "" {
		res.DandisetID = dandisetID
	}
}

// Create writes a new record and returns its generated id.
func (r *FilesystemRepository) Create(ctx context.Context, dandisetID string, res *dandinotes.Resource, status domain.Status) (string, error) {
	bare, err := dandinotes.NormalizeDandisetID(dandisetID)
	if err != nil {
		return "", domain.ValidationError{Message: err.Error()}
	}
	recordID := r.generateID()
	path, err := r.recordPath(dandisetID, recordID, status)
	if err != nil {
		return "", err
	}
	res.DandisetID = bare
	if err := r.save(path, res); err != nil {
		return "", err
	}
	return recordID, nil
}

// Read loads one record by id and status.
func (r *FilesystemRepository) Read(ctx context.Context, dandisetID, recordID string, status domain.Status) (*dandinotes.Resource, error) {
	path, err := r.recordPath(dandisetID, recordID, status)
	if err != nil {
		return nil, err
	}
	res, err := r.load(path)
	if err != nil {
		return nil, err
	}
	stamp(res, dandisetID, recordID, status)
	return res, nil
}

// Update overwrites an existing record in place. Returns false when the
// target does not exist.
func (r *FilesystemRepository) Update(ctx context.Context, dandisetID, recordID string, status domain.Status, res *dandinotes.Resource) (bool, error) {
	path, err := r.recordPath(dandisetID, recordID, status)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.Wrapf(err, "stat %s", path)
	}
	if err := r.save(path, res); err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes a record without backup. Returns false when absent.
func (r *FilesystemRepository) Delete(ctx context.Context, dandisetID, recordID string, status domain.Status) (bool, error) {
	path, err := r.recordPath(dandisetID, recordID, status)
	if err != nil {
		return false, err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.Wrapf(err, "removing %s", path)
	}
	return true, nil
}

// Transition moves a record between statuses, applying extra fields
// before the destination write. The write and the source unlink are two
// separate operations; a crash between them leaves the record in both
// directories.
func (r *FilesystemRepository) Transition(ctx context.Context, dandisetID, recordID string, from, to domain.Status, apply func(*dandinotes.Resource)) error {
	srcPath, err := r.recordPath(dandisetID, recordID, from)
	if err != nil {
		return err
	}
	dstPath, err := r.recordPath(dandisetID, recordID, to)
	if err != nil {
		return err
	}

	if _, err := os.Stat(dstPath); err == nil {
		return domain.StateError{Message: fmt.Sprintf("record already exists in %s status", to.Public())}
	}

	res, err := r.load(srcPath)
	if err != nil {
		return err
	}
	if apply != nil {
		apply(res)
	}
	if err := r.save(dstPath, res); err != nil {
		return err
	}
	if err := os.Remove(srcPath); err != nil {
		return errors.Wrapf(err, "removing %s", srcPath)
	}
	return nil
}

// Archive copies a record into deleted/<status>/ with deletion metadata
// stamped, then removes the original. Returns the backup path.
func (r *FilesystemRepository) Archive(ctx context.Context, dandisetID, recordID string, status domain.Status, info dandinotes.DeletionInfo) (string, error) {
	srcPath, err := r.recordPath(dandisetID, recordID, status)
	if err != nil {
		return "", err
	}
	res, err := r.load(srcPath)
	if err != nil {
		return "", err
	}

	dandisetDir, err := r.dandisetDir(dandisetID)
	if err != nil {
		return "", err
	}
	backupName := fmt.Sprintf("deleted_%s_%s%s", r.now().Format("20060102_150405"), recordID, recordExt)
	backupPath := filepath.Join(dandisetDir, deletedDir, status.Dir(), backupName)

	info.OriginalFilename = recordID + recordExt
	info.OriginalStatus = status.Dir()
	info.DeletionDate = r.now().Format(time.RFC3339)
	res.DeletionInfo = &info

	if err := r.save(backupPath, res); err != nil {
		return "", err
	}
	if err := os.Remove(srcPath); err != nil {
		return "", errors.Wrapf(err, "removing %s", srcPath)
	}
	return backupPath, nil
}

// List returns all records for one dandiset and status, newest
// annotation first. Unparsable files are skipped and logged so one bad
// file does not break the listing.
func (r *FilesystemRepository) List(ctx context.Context, dandisetID string, status domain.Status) ([]dandinotes.Resource, error) {
	dir, err := r.statusDir(dandisetID, status)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "listing %s", dir)
	}

	var out []dandinotes.Resource
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), recordExt) {
			continue
		}
		res, err := r.load(filepath.Join(dir, entry.Name()))
		if err != nil {
			slog.Error("skipping unreadable record",
				slog.String("path", filepath.Join(dir, entry.Name())),
				slog.String("error", err.Error()),
				slog.String("module", "repository"),
			)
			continue
		}
		stamp(res, dandisetID, strings.TrimSuffix(entry.Name(), recordExt), status)
		out = append(out, *res)
	}

	sortByAnnotationDate(out)
	return out, nil
}

// ListAll returns records across every dandiset for one status.
func (r *FilesystemRepository) ListAll(ctx context.Context, status domain.Status) ([]dandinotes.Resource, error) {
	ids, err := r.dandisetDirs()
	if err != nil {
		return nil, err
	}
	var out []dandinotes.Resource
	for _, id := range ids {
		resources, err := r.List(ctx, id, status)
		if err != nil {
			return nil, err
		}
		out = append(out, resources...)
	}
	sortByAnnotationDate(out)
	return out, nil
}

// ListDandisets returns the directory names (sorted) of dandisets that
// hold at least one pending or approved record.
func (r *FilesystemRepository) ListDandisets(ctx context.Context) ([]string, error) {
	ids, err := r.dandisetDirs()
	if err != nil {
		return nil, err
	}
	var out []string
	for _, id := range ids {
		for _, status := range []domain.Status{domain.StatusPending, domain.StatusApproved} {
			n, err := r.Count(ctx, id, status)
			if err != nil {
				return nil, err
			}
			if n > 0 {
				out = append(out, id)
				break
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

// FindByID scans every dandiset and both live statuses for a record id.
func (r *FilesystemRepository) FindByID(ctx context.Context, recordID string) (*dandinotes.Resource, error) {
	ids, err := r.dandisetDirs()
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		for _, status := range []domain.Status{domain.StatusApproved, domain.StatusPending} {
			res, err := r.Read(ctx, id, recordID, status)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					continue
				}
				return nil, err
			}
			return res, nil
		}
	}
	return nil, domain.NotFoundError{Resource: "record"}
}

// Count returns the number of records in one status directory.
func (r *FilesystemRepository) Count(ctx context.Context, dandisetID string, status domain.Status) (int, error) {
	dir, err := r.statusDir(dandisetID, status)
	if err != nil {
		return 0, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, errors.Wrapf(err, "listing %s", dir)
	}
	n := 0
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), recordExt) {
			n++
		}
	}
	return n, nil
}

// UserResources returns the pending and approved records annotated by
// one contributor email, newest first.
func (r *FilesystemRepository) UserResources(ctx context.Context, email string) (pending, approved []dandinotes.Resource, err error) {
	ids, err := r.dandisetDirs()
	if err != nil {
		return nil, nil, err
	}
	for _, id := range ids {
		p, err := r.List(ctx, id, domain.StatusPending)
		if err != nil {
			return nil, nil, err
		}
		for _, res := range p {
			if res.AnnotationContributor.Email == email {
				pending = append(pending, res)
			}
		}
		a, err := r.List(ctx, id, domain.StatusApproved)
		if err != nil {
			return nil, nil, err
		}
		for _, res := range a {
			if res.AnnotationContributor.Email == email {
				approved = append(approved, res)
			}
		}
	}
	sortByAnnotationDate(pending)
	sortByAnnotationDate(approved)
	return pending, approved, nil
}

func (r *FilesystemRepository) dandisetDirs() ([]string, error) {
	entries, err := os.ReadDir(r.base)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "listing %s", r.base)
	}
	var ids []string
	for _, entry := range entries {
		if entry.IsDir() && strings.HasPrefix(entry.Name(), "dandiset_") {
			ids = append(ids, entry.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Annotation dates are RFC3339 strings; descending string order is the
// listing contract, not a parsed-time sort.
func sortByAnnotationDate(resources []dandinotes.Resource) {
	sort.SliceStable(resources, func(i, j int) bool {
		return resources[i].AnnotationDate > resources[j].AnnotationDate
	})
}
