package storage

import (
	"bufio"
	"io"
	"os"
)

// Source is an input document that can be read more than once.
type Source interface {
	io.Reader
	Rewind() error
	Close() error
}

type seekerSource struct {
	seeker      io.ReadSeeker
	compression Compression
	reader      io.ReadCloser
	buffered    *bufio.Reader
	cleanup     func() error
}

// OpenSource opens a local file, or downloads an s3:// object first.
func OpenSource(target string, c Compression) (Source, error) {
	var file *os.File
	var cleanup func() error
	if IsS3(target) {
		downloaded, err := downloadS3(target)
		if err != nil {
			return nil, err
		}
		file = downloaded
		cleanup = func() error {
			err := file.Close()
			os.Remove(file.Name())
			return err
		}
	} else {
		opened, err := os.Open(target)
		if err != nil {
			return nil, err
		}
		file = opened
		cleanup = file.Close
	}
	source, err := newSeekerSource(file, c, cleanup)
	if err != nil {
		cleanup()
		return nil, err
	}
	return source, nil
}

// NewSeekerSource reads an uncompressed document from rs. Closing the source
// closes rs when it is an io.Closer.
func NewSeekerSource(rs io.ReadSeeker) Source {
	cleanup := func() error { return nil }
	if closer, ok := rs.(io.Closer); ok {
		cleanup = closer.Close
	}
	// opening an uncompressed stream cannot fail
	source, _ := newSeekerSource(rs, None, cleanup)
	return source
}

func newSeekerSource(rs io.ReadSeeker, c Compression, cleanup func() error) (*seekerSource, error) {
	s := &seekerSource{seeker: rs, compression: c, cleanup: cleanup}
	if err := s.open(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *seekerSource) open() error {
	reader, err := decompressor(bufio.NewReaderSize(s.seeker, bufferSize), s.compression)
	if err != nil {
		return err
	}
	s.reader = reader
	s.buffered = bufio.NewReaderSize(reader, bufferSize)
	return nil
}

func (s *seekerSource) Read(p []byte) (int, error) {
	return s.buffered.Read(p)
}

// Rewind restarts the document from its first byte, decompression included.
func (s *seekerSource) Rewind() error {
	if err := s.reader.Close(); err != nil {
		return err
	}
	if _, err := s.seeker.Seek(0, io.SeekStart); err != nil {
		return err
	}
	return s.open()
}

func (s *seekerSource) Close() error {
	err := s.reader.Close()
	if cleanupErr := s.cleanup(); err == nil {
		err = cleanupErr
	}
	return err
}
