// Package artifact stages the fetched document with the extraction
// service's file API and guarantees the local and remote copies are
// cleaned up.
package artifact

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"newsbot/internal/gemini"
)

// MIMEType is the content type declared for every staged document.
const MIMEType = "text/html"

// RemoteArtifact is the ephemeral handle for an uploaded document. It is
// owned by a single pipeline run and deleted at run end.
type RemoteArtifact struct {
	Name        string
	URI         string
	MIMEType    string
	DisplayName string
}

// StagingError indicates the document could not be written locally or
// uploaded to the file service.
type StagingError struct {
	Step string
	Err  error
}

func (e *StagingError) Error() string {
	return fmt.Sprintf("stage artifact (%s): %v", e.Step, e.Err)
}

func (e *StagingError) Unwrap() error {
	return e.Err
}

// FileService is the slice of the extraction-service client the stager
// depends on.
type FileService interface {
	UploadFile(ctx context.Context, path, mimeType, displayName string) (gemini.File, error)
	DeleteFile(ctx context.Context, name string) error
}

// Stager writes documents to a scoped temp directory and uploads them.
type Stager struct {
	files   FileService
	tempDir string
	logger  *zap.Logger
}

// NewStager builds a Stager that uses the system temp directory.
func NewStager(files FileService, logger *zap.Logger) *Stager {
	return &Stager{
		files:   files,
		tempDir: os.TempDir(),
		logger:  logger,
	}
}

// Stage persists documentText to a uniquely named temp file, uploads it
// with the given display name, and removes the local copy. The local file
// never outlives the call: on upload failure its removal is best-effort
// and only logged.
func (s *Stager) Stage(ctx context.Context, documentText, displayName string) (RemoteArtifact, error) {
	localPath := filepath.Join(s.tempDir, fmt.Sprintf("newsbot-%s.html", uuid.NewString()))
	if err := os.WriteFile(localPath, []byte(documentText), 0o600); err != nil {
		return RemoteArtifact{}, &StagingError{Step: "write temp file", Err: err}
	}

	file, err := s.files.UploadFile(ctx, localPath, MIMEType, displayName)
	if err != nil {
		s.removeLocal(localPath)
		return RemoteArtifact{}, &StagingError{Step: "upload", Err: err}
	}
	s.removeLocal(localPath)

	s.logger.Info("document staged",
		zap.String("name", file.Name),
		zap.String("display_name", displayName))
	return RemoteArtifact{
		Name:        file.Name,
		URI:         file.URI,
		MIMEType:    file.MIMEType,
		DisplayName: file.DisplayName,
	}, nil
}

// Release deletes the remote artifact. Failures are logged, never fatal:
// a run must not fail just because cleanup failed.
func (s *Stager) Release(ctx context.Context, a RemoteArtifact) {
	if a.Name == "" {
		return
	}
	if err := s.files.DeleteFile(ctx, a.Name); err != nil {
		s.logger.Warn("failed to delete remote artifact",
			zap.String("name", a.Name),
			zap.Error(err))
		return
	}
	s.logger.Info("remote artifact released", zap.String("name", a.Name))
}

func (s *Stager) removeLocal(path string) {
	if err := os.Remove(path); err != nil {
		s.logger.Warn("failed to remove local temp file",
			zap.String("path", path),
			zap.Error(err))
	}
}
