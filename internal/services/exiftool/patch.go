package exiftool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	goexiftool "github.com/barasher/go-exiftool"

	"takeoutfix/internal/fileutil"
	"takeoutfix/internal/logging"
	"takeoutfix/internal/media/sniff"
	"takeoutfix/internal/services"
)

const (
	TagDateTimeOriginal = "DateTimeOriginal"
	TagCreateDate       = "CreateDate"
)

// Result classifies a successful Patch call.
type Result int

const (
	// Patched means both date tags were written.
	Patched Result = iota + 1
	// AlreadyDated means the file carried a capture date so its tags were kept.
	AlreadyDated
	// SkippedAppleEdit means the file was an Apple .AAE edit list.
	SkippedAppleEdit
)

func (r Result) String() string {
	switch r {
	case Patched:
		return "patched"
	case AlreadyDated:
		return "already_dated"
	case SkippedAppleEdit:
		return "skipped_aae"
	default:
		return "unknown"
	}
}

// Patch writes timestamp into DateTimeOriginal and CreateDate of mediaPath.
//
// The file's real type is sniffed first; a file whose extension disagrees
// with its content is renamed to the true extension for the write and renamed
// back afterwards. Existing capture dates are never overwritten. Access and
// modification times are restored, then optionally synced from the capture
// date tags, whether or not they were written here.
func (c *Client) Patch(ctx context.Context, mediaPath, timestamp string) (result Result, err error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	logger := logging.WithContext(ctx, c.logger).With(logging.Media(mediaPath))

	kind, err := sniff.Detect(mediaPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, services.Wrap(services.ErrNotFound, "patch", "sniff", mediaPath, err)
		}
		return 0, services.Wrap(services.ErrValidation, "patch", "sniff", mediaPath, err)
	}
	if !kind.Supported() {
		if sniff.IsAppleEdit(mediaPath) {
			logger.Debug("apple edit list skipped", logging.String("mime", kind.MIME))
			return SkippedAppleEdit, nil
		}
		return 0, services.Wrap(services.ErrValidation, "patch", "sniff",
			fmt.Sprintf("unsupported media type %s", kind.MIME), nil)
	}

	stamps, err := fileutil.CaptureTimes(mediaPath)
	if err != nil {
		return 0, services.Wrap(services.ErrTransient, "patch", "capture times", "", err)
	}

	workPath := mediaPath
	if !kind.MatchesName(mediaPath) {
		workPath = strings.TrimSuffix(mediaPath, filepath.Ext(mediaPath)) + kind.Extension
		if _, statErr := os.Lstat(workPath); statErr == nil {
			return 0, services.Wrap(services.ErrValidation, "patch", "rename",
				fmt.Sprintf("cannot rename to %s: file exists", filepath.Base(workPath)), nil)
		}
		if err := os.Rename(mediaPath, workPath); err != nil {
			return 0, services.Wrap(services.ErrTransient, "patch", "rename", "", err)
		}
		logger.Debug("renamed to content extension", logging.String("mime", kind.MIME), logging.String("work_path", workPath))
		defer func() {
			if renameErr := os.Rename(workPath, mediaPath); renameErr != nil && err == nil {
				result = 0
				err = services.Wrap(services.ErrTransient, "patch", "rename back", workPath, renameErr)
			}
		}()
	}

	dated, err := c.hasCaptureDate(workPath)
	if err != nil {
		return 0, err
	}
	outcome := Patched
	if dated {
		logger.Debug("capture date present; tags left unchanged")
		outcome = AlreadyDated
	} else if err := c.writeDates(ctx, workPath, timestamp, logger); err != nil {
		return 0, err
	}

	if err := stamps.Apply(workPath); err != nil {
		return 0, services.Wrap(services.ErrTransient, "patch", "restore times", "", err)
	}
	if c.opts.SyncFileDates {
		if err := c.run(ctx, "sync file dates", syncFileDateArgs(workPath)...); err != nil {
			return 0, err
		}
	}
	return outcome, nil
}

func (c *Client) hasCaptureDate(path string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return false, services.Wrap(services.ErrConfiguration, "patch", "read tags", "session closed", nil)
	}
	metas := c.session.ExtractMetadata(path)
	if len(metas) == 0 {
		return false, services.Wrap(services.ErrExternalTool, "patch", "read tags", "no metadata returned", nil)
	}
	if metas[0].Err != nil {
		return false, services.Wrap(services.ErrExternalTool, "patch", "read tags", "", metas[0].Err)
	}
	for _, tag := range []string{TagDateTimeOriginal, TagCreateDate} {
		value, err := metas[0].GetString(tag)
		if err == nil && strings.TrimSpace(value) != "" {
			return true, nil
		}
	}
	return false, nil
}

func (c *Client) writeDates(ctx context.Context, path, timestamp string, logger *slog.Logger) error {
	err := c.writeTags(path, timestamp)
	if err == nil || !c.opts.RepairOnFailure {
		return err
	}
	logging.WarnWithContext(logger, "tag write failed; rebuilding metadata block", "metadata_repair",
		logging.Error(err),
		logging.String(logging.FieldImpact, "existing tags are rewritten from a clean copy"),
		logging.String(logging.FieldErrorHint, "inspect the file with exiftool -validate if the retry also fails"),
	)
	if repairErr := c.run(ctx, "rebuild metadata", rebuildArgs(path)...); repairErr != nil {
		return repairErr
	}
	return c.writeTags(path, timestamp)
}

func (c *Client) writeTags(path, timestamp string) error {
	fm := goexiftool.EmptyFileMetadata()
	fm.File = path
	fm.SetString(TagDateTimeOriginal, timestamp)
	fm.SetString(TagCreateDate, timestamp)
	batch := []goexiftool.FileMetadata{fm}

	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return services.Wrap(services.ErrConfiguration, "patch", "write tags", "session closed", nil)
	}
	c.session.WriteMetadata(batch)
	c.mu.Unlock()

	if batch[0].Err != nil {
		return services.Wrap(services.ErrExternalTool, "patch", "write tags", "", batch[0].Err)
	}
	return nil
}

// rebuildArgs rewrites the metadata block from a clean copy of itself, which
// clears the structural damage that makes ExifTool refuse writes.
func rebuildArgs(path string) []string {
	return []string{"-all=", "-tagsfromfile", "@", "-all:all", "-unsafe", "-icc_profile", "-m", "-overwrite_original", "--", path}
}

// syncFileDateArgs copies the capture date into the filesystem dates. Later
// assignments take precedence, so DateTimeOriginal wins when both tags exist.
func syncFileDateArgs(path string) []string {
	return []string{
		"-FileModifyDate<CreateDate",
		"-FileCreateDate<CreateDate",
		"-FileModifyDate<DateTimeOriginal",
		"-FileCreateDate<DateTimeOriginal",
		"-m",
		"-overwrite_original",
		"--",
		path,
	}
}
