package binfile

import (
	"bytes"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Source is a read-only byte source for the reader. Non-empty files
// are memory-mapped on a best-effort basis; when the mapping fails
// the open file handle serves reads directly.
type Source struct {
	file *os.File
	data []byte // nil when not mapped
	r    *bytes.Reader
}

// Open opens path for reading.
func Open(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open binary file: %w", err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat binary file: %w", err)
	}

	s := &Source{file: f}
	if size := st.Size(); size > 0 {
		if data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED); err == nil {
			s.data = data
			s.r = bytes.NewReader(data)
		}
	}
	return s, nil
}

// Read implements io.Reader.
func (s *Source) Read(p []byte) (int, error) {
	if s.r != nil {
		return s.r.Read(p)
	}
	return s.file.Read(p)
}

// Seek implements io.Seeker.
func (s *Source) Seek(offset int64, whence int) (int64, error) {
	if s.r != nil {
		return s.r.Seek(offset, whence)
	}
	return s.file.Seek(offset, whence)
}

// Size returns the length of the underlying file at open time, when
// known.
func (s *Source) Size() int64 {
	if s.r != nil {
		return s.r.Size()
	}
	if st, err := s.file.Stat(); err == nil {
		return st.Size()
	}
	return -1
}

// Close unmaps and releases the file handle.
func (s *Source) Close() error {
	if s.data != nil {
		_ = unix.Munmap(s.data)
		s.data = nil
		s.r = nil
	}
	return s.file.Close()
}

// OpenRW opens an existing binary file for write-back. The writer
// never extends the file, so it must already exist at full size.
func OpenRW(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open binary file for writing: %w", err)
	}
	return f, nil
}
