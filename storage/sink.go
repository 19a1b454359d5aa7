package storage

import (
	"bufio"
	"errors"
	"io"
	"os"
	"path/filepath"
)

const bufferSize = 32 * 1024

// Sink is an output document. Either Close or Abort must be called: Close
// completes the compressed stream and the upload, Abort discards them.
type Sink struct {
	buffer     *bufio.Writer
	compressor io.WriteCloser
	checksum   *ChecksumWriter
	target     io.Closer
}

// aborter is a target that can discard what was written so far.
type aborter interface {
	Abort(cause error) error
}

// localFile removes itself when aborted.
type localFile struct {
	*os.File
}

func (f localFile) Abort(cause error) error {
	closeErr := f.File.Close()
	if err := os.Remove(f.Name()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if errors.Is(closeErr, os.ErrClosed) {
		return nil
	}
	return closeErr
}

// OpenSink creates the local file, or starts the upload when target is an
// s3:// location.
func OpenSink(target string, c Compression) (*Sink, error) {
	var out io.WriteCloser
	if IsS3(target) {
		w, err := openS3Writer(target)
		if err != nil {
			return nil, err
		}
		out = w
	} else {
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return nil, err
		}
		file, err := os.Create(target)
		if err != nil {
			return nil, err
		}
		out = localFile{file}
	}
	return newSink(out, c)
}

func newSink(out io.WriteCloser, c Compression) (*Sink, error) {
	checksum := NewChecksumWriter(out)
	compressor, err := compressor(checksum, c)
	if err != nil {
		out.Close()
		return nil, err
	}
	return &Sink{
		buffer:     bufio.NewWriterSize(compressor, bufferSize),
		compressor: compressor,
		checksum:   checksum,
		target:     out,
	}, nil
}

func (s *Sink) Write(p []byte) (int, error) {
	return s.buffer.Write(p)
}

// Checksum returns the xxh3 sum of the stored bytes, complete once the sink
// is closed.
func (s *Sink) Checksum() string {
	return s.checksum.Sum()
}

func (s *Sink) Close() error {
	err := s.buffer.Flush()
	if closeErr := s.compressor.Close(); err == nil {
		err = closeErr
	}
	if closeErr := s.target.Close(); err == nil {
		err = closeErr
	}
	return err
}

// Abort discards the document after a failed write: the local file is
// removed and the upload is cancelled, so a truncated document is never
// left behind.
func (s *Sink) Abort(cause error) error {
	if cause == nil {
		cause = errors.New("document aborted")
	}
	if a, ok := s.target.(aborter); ok {
		err := a.Abort(cause)
		// releases the encoder, its writes now fail and are ignored
		s.compressor.Close()
		return err
	}
	s.compressor.Close()
	return s.target.Close()
}
