package storage

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/rs/zerolog/log"
)

const s3Scheme = "s3://"

// IsS3 reports whether target names an S3 object.
func IsS3(target string) bool {
	return strings.HasPrefix(target, s3Scheme)
}

func getBucketAndKey(target string) (string, string, error) {
	parts := strings.SplitN(strings.TrimPrefix(target, s3Scheme), "/", 2)
	if len(parts) != 2 || parts[0] == "" || strings.Trim(parts[1], "/") == "" {
		return "", "", fmt.Errorf("invalid S3 location %s, expected s3://bucket/key", target)
	}
	return parts[0], strings.Trim(parts[1], "/"), nil
}

// newSession reads credentials and region the usual AWS way: environment,
// shared config files, instance role.
func newSession() (*session.Session, error) {
	sess, err := session.NewSessionWithOptions(session.Options{
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	return sess, nil
}

// s3Writer streams everything written into a multipart upload. Close
// completes the upload, Abort makes the uploader fail so no object is created.
type s3Writer struct {
	pipe *io.PipeWriter
	done chan error
}

func openS3Writer(target string) (*s3Writer, error) {
	bucket, key, err := getBucketAndKey(target)
	if err != nil {
		return nil, err
	}
	sess, err := newSession()
	if err != nil {
		return nil, err
	}
	uploader := s3manager.NewUploader(sess)
	return startUpload(func(body io.Reader) error {
		_, err := uploader.Upload(&s3manager.UploadInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
			Body:   body,
		})
		return err
	}), nil
}

// startUpload runs upload on the read side of a pipe. upload must treat a
// read error other than io.EOF as a failure, as s3manager does.
func startUpload(upload func(io.Reader) error) *s3Writer {
	reader, writer := io.Pipe()
	w := &s3Writer{pipe: writer, done: make(chan error, 1)}
	go func() {
		err := upload(reader)
		// unblocks the writer side when the upload gives up early
		reader.CloseWithError(err)
		w.done <- err
	}()
	return w
}

func (w *s3Writer) Write(p []byte) (int, error) {
	return w.pipe.Write(p)
}

func (w *s3Writer) Close() error {
	w.pipe.Close()
	if err := <-w.done; err != nil {
		return fmt.Errorf("S3 upload failed: %w", err)
	}
	return nil
}

// Abort fails the upload with cause. s3manager aborts the multipart upload
// when its body returns an error.
func (w *s3Writer) Abort(cause error) error {
	w.pipe.CloseWithError(cause)
	if err := <-w.done; err == nil {
		return fmt.Errorf("S3 upload completed despite abort")
	}
	return nil
}

// downloadS3 copies the object into a temporary file, S3 downloads need
// random access and the import needs a rewindable source.
func downloadS3(target string) (*os.File, error) {
	bucket, key, err := getBucketAndKey(target)
	if err != nil {
		return nil, err
	}
	sess, err := newSession()
	if err != nil {
		return nil, err
	}
	file, err := os.CreateTemp("", "dbjson-*")
	if err != nil {
		return nil, err
	}
	downloader := s3manager.NewDownloader(sess)
	n, err := downloader.Download(file, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		file.Close()
		os.Remove(file.Name())
		return nil, fmt.Errorf("S3 download of %s failed: %w", target, err)
	}
	log.Debug().Msgf("downloaded %d bytes from %s", n, target)
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		file.Close()
		os.Remove(file.Name())
		return nil, err
	}
	return file, nil
}
