package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
)

// Push exports a locally built image and uploads it to Target, or to
// the image's own reference when no target is given.
func (s Service) Push(ctx context.Context, req PushRequest) (PushResult, error) {
	if s.Images == nil || s.Registry == nil {
		return PushResult{}, engineNotConfigured()
	}
	image, err := s.resolveImage(req.Image, req.ReportPath)
	if err != nil {
		return PushResult{}, err
	}
	target := strings.TrimSpace(req.Target)
	if target == "" {
		target = image
	}

	tmpDir, err := os.MkdirTemp("", "streamlit-packager-push-")
	if err != nil {
		return PushResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create temp directory for push").
			WithCause(err)
	}
	defer os.RemoveAll(tmpDir)

	archive := filepath.Join(tmpDir, "image.tar")
	if _, err := s.saveImage(ctx, image, archive); err != nil {
		return PushResult{}, err
	}
	digest, err := s.Registry.PushTarball(ctx, archive, target)
	if err != nil {
		return PushResult{}, err
	}
	log.Ctx(ctx).Info().Str("image", image).Str("target", target).Str("digest", digest).Msg("image pushed")
	return PushResult{Reference: target, Digest: digest}, nil
}

// Export writes the image as a tarball loadable with "docker load".
func (s Service) Export(ctx context.Context, req ExportRequest) (ExportResult, error) {
	if s.Images == nil {
		return ExportResult{}, engineNotConfigured()
	}
	image, err := s.resolveImage(req.Image, req.ReportPath)
	if err != nil {
		return ExportResult{}, err
	}
	output := strings.TrimSpace(req.Output)
	if output == "" {
		output = archiveName(image)
	}
	size, err := s.saveImage(ctx, image, output)
	if err != nil {
		return ExportResult{}, err
	}
	return ExportResult{Path: output, Bytes: size}, nil
}

func (s Service) saveImage(ctx context.Context, image string, path string) (int64, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return 0, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to create archive directory").
				WithCause(err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return 0, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create image archive").
			WithCause(err)
	}
	if err := s.Images.Save(ctx, image, file); err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return 0, err
	}
	info, err := file.Stat()
	closeErr := file.Close()
	if err != nil || closeErr != nil {
		if err == nil {
			err = closeErr
		}
		return 0, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to finish image archive").
			WithCause(err)
	}
	return info.Size(), nil
}

// resolveImage returns image, or the image named by the build report
// when image is empty.
func (s Service) resolveImage(image string, reportPath string) (string, error) {
	if image = strings.TrimSpace(image); image != "" {
		return image, nil
	}
	if strings.TrimSpace(reportPath) == "" {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("image or build report is required")
	}
	report, err := s.InspectBuild(InspectRequest{ReportPath: reportPath})
	if err != nil {
		return "", err
	}
	return report.Image, nil
}

func archiveName(image string) string {
	replacer := strings.NewReplacer("/", "_", ":", "_", "@", "_")
	return replacer.Replace(image) + ".tar"
}
