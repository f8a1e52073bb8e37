package services

import (
	"bytes"
	"context"
	"image"
	_ "image/gif" // decoders for DecodeConfig
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"adspace/internal/config"
	"adspace/internal/metrics"
	apperrors "adspace/pkg/errors"

	"github.com/cockroachdb/errors"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"
	"gocloud.dev/gcerrors"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const maxImagePixels = 50_000_000

// Upload types and the extension their objects are stored under.
var mediaTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"video/mp4":  ".mp4",
}

// MediaObject identifies an uploaded file
type MediaObject struct {
	URL string `json:"url"`
	Ref string `json:"ref"`
}

// OpenBucket opens the bucket behind url (file://, s3://, gs:// or mem://)
// and checks that it is reachable.
func OpenBucket(ctx context.Context, url string) (*blob.Bucket, error) {
	bucket, err := blob.OpenBucket(ctx, url)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open bucket %s", url)
	}
	ok, err := bucket.IsAccessible(ctx)
	if err != nil {
		_ = bucket.Close()
		return nil, errors.Wrapf(err, "failed to check bucket accessibility %s", url)
	}
	if !ok {
		_ = bucket.Close()
		return nil, errors.Newf("bucket %s is not accessible", url)
	}
	return bucket, nil
}

// MediaService stores uploaded images and videos in an object bucket
type MediaService struct {
	bucket *blob.Bucket
	cfg    *config.MediaConfig
	log    *zap.Logger
}

// NewMediaService creates a media service over an open bucket
func NewMediaService(bucket *blob.Bucket, cfg *config.MediaConfig, log *zap.Logger) *MediaService {
	return &MediaService{bucket: bucket, cfg: cfg, log: log.Named("media")}
}

// Upload stores the content of r. Images wider than the configured maximum
// are scaled down and re-encoded as JPEG.
func (s *MediaService) Upload(ctx context.Context, filename string, r io.Reader) (*MediaObject, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return nil, apperrors.Validation("failed to read upload")
	}
	if len(data) == 0 {
		return nil, apperrors.Validation("file is required")
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, apperrors.Validation("file must be at most " + strconv.FormatInt(s.cfg.MaxUploadBytes, 10) + " bytes")
	}

	contentType := http.DetectContentType(data)
	ext, ok := mediaTypes[contentType]
	if !ok {
		s.log.Info("upload rejected", zap.String("filename", filename), zap.String("content_type", contentType))
		return nil, apperrors.Validation("unsupported file type " + contentType)
	}

	resized := false
	if strings.HasPrefix(contentType, "image/") {
		out, did, err := s.downscale(data)
		if err != nil {
			metrics.RecordMediaUpload(false, false)
			return nil, err
		}
		if did {
			data, contentType, ext, resized = out, "image/jpeg", ".jpg", true
		}
	}

	ref := ulid.Make().String() + ext
	err = s.bucket.WriteAll(ctx, ref, data, &blob.WriterOptions{
		ContentType:  contentType,
		CacheControl: "public, max-age=31536000, immutable",
	})
	if err != nil {
		s.log.Error("upload failed: storage error", zap.String("ref", ref), zap.Error(err))
		metrics.RecordMediaUpload(false, resized)
		return nil, apperrors.Internal("failed to store upload", err)
	}

	metrics.RecordMediaUpload(true, resized)
	s.log.Info("upload successful", zap.String("ref", ref), zap.String("filename", filename),
		zap.Int("bytes", len(data)), zap.Bool("resized", resized))
	return &MediaObject{URL: s.URL(ref), Ref: ref}, nil
}

// downscale re-encodes images wider than MaxImageWidth. It reports whether
// data was replaced.
func (s *MediaService) downscale(data []byte) ([]byte, bool, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, false, apperrors.Validation("file is not a valid image")
	}
	if s.cfg.MaxImageWidth <= 0 || cfg.Width <= s.cfg.MaxImageWidth {
		return data, false, nil
	}
	if cfg.Width*cfg.Height > maxImagePixels {
		return nil, false, apperrors.Validation("image dimensions are too large")
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, false, apperrors.Validation("file is not a valid image")
	}
	width := s.cfg.MaxImageWidth
	height := max(1, cfg.Height*width/cfg.Width)

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	// JPEG has no alpha; flatten onto white.
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: s.cfg.JPEGQuality}); err != nil {
		return nil, false, apperrors.Internal("failed to encode image", err)
	}
	return buf.Bytes(), true, nil
}

// URL returns the public address of ref.
func (s *MediaService) URL(ref string) string {
	return strings.TrimRight(s.cfg.PublicBaseURL, "/") + "/" + ref
}

// Open returns a reader for ref. The caller closes it.
func (s *MediaService) Open(ctx context.Context, ref string) (*blob.Reader, error) {
	if !validRef(ref) {
		return nil, apperrors.NotFound("media not found")
	}
	rd, err := s.bucket.NewReader(ctx, ref, nil)
	if gcerrors.Code(err) == gcerrors.NotFound {
		return nil, apperrors.NotFound("media not found")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to read media", err)
	}
	return rd, nil
}

// Delete removes ref. Unknown refs are reported as not found.
func (s *MediaService) Delete(ctx context.Context, ref string) error {
	if !validRef(ref) {
		return apperrors.NotFound("media not found")
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err := s.bucket.Delete(ctx, ref)
	if gcerrors.Code(err) == gcerrors.NotFound {
		return apperrors.NotFound("media not found")
	}
	if err != nil {
		s.log.Error("delete failed: storage error", zap.String("ref", ref), zap.Error(err))
		return apperrors.Internal("failed to delete media", err)
	}
	s.log.Info("delete successful", zap.String("ref", ref))
	return nil
}

// Remove deletes ref if it exists. Content services call it for media their
// records no longer reference.
func (s *MediaService) Remove(ctx context.Context, ref string) error {
	err := s.Delete(ctx, ref)
	if apperrors.IsNotFound(err) {
		return nil
	}
	return err
}

// validRef accepts the keys Upload generates and nothing else, which keeps
// paths out of bucket keys.
func validRef(ref string) bool {
	ext := path.Ext(ref)
	if _, err := ulid.ParseStrict(strings.TrimSuffix(ref, ext)); err != nil {
		return false
	}
	for _, e := range mediaTypes {
		if e == ext {
			return true
		}
	}
	return false
}
