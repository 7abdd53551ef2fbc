// Package upload gates candidate inputs before any network call.
//
// A candidate is accepted when it is a strict file handle (*os.File) or any
// value with the File capability: a name, a size and a readable byte
// stream. Content, MIME type and size limits are advisory concerns of the
// caller and are not inspected here.
package upload

import (
	"bytes"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	dErrors "credguard/pkg/domain-errors"
)

// File is the capability every upload must expose.
type File interface {
	Name() string
	Size() int64
	Open() (io.ReadCloser, error)
}

// Validate accepts a candidate upload and returns it as a File.
func Validate(candidate any) (File, error) {
	switch f := candidate.(type) {
	case nil:
		return nil, dErrors.New(dErrors.CodeMissingInput, "no file provided")
	case *os.File:
		if f == nil {
			return nil, dErrors.New(dErrors.CodeMissingInput, "no file provided")
		}
		return fromOSFile(f)
	case *multipart.FileHeader:
		if f == nil {
			return nil, dErrors.New(dErrors.CodeMissingInput, "no file provided")
		}
		return FromFileHeader(f), nil
	case File:
		if isNilFile(f) {
			return nil, dErrors.New(dErrors.CodeMissingInput, "no file provided")
		}
		return f, nil
	default:
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid file provided")
	}
}

// ValidateIssuance gates the issuance path. A blank wallet id blocks the
// upload entirely and is reported before the file is looked at.
func ValidateIssuance(candidate any, walletDID string) (File, error) {
	if strings.TrimSpace(walletDID) == "" {
		return nil, dErrors.New(dErrors.CodeMissingWalletID, "walletDid must not be blank")
	}
	return Validate(candidate)
}

func isNilFile(f File) bool {
	switch v := f.(type) {
	case *Bytes:
		return v == nil
	case *Path:
		return v == nil
	case *osFile:
		return v == nil
	case *fileHeader:
		return v == nil
	}
	return false
}

// Bytes is an in-memory upload.
type Bytes struct {
	FileName string
	Data     []byte
}

// FromBytes wraps data as an upload named name.
func FromBytes(name string, data []byte) *Bytes {
	return &Bytes{FileName: name, Data: data}
}

func (b *Bytes) Name() string { return b.FileName }
func (b *Bytes) Size() int64  { return int64(len(b.Data)) }

func (b *Bytes) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b.Data)), nil
}

// Path is an upload read lazily from disk.
type Path struct {
	path string
	size int64
}

// FromPath stats path and returns it as an upload.
func FromPath(path string) (*Path, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "cannot read "+path)
	}
	if info.IsDir() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, path+" is a directory")
	}
	return &Path{path: path, size: info.Size()}, nil
}

func (p *Path) Name() string { return filepath.Base(p.path) }
func (p *Path) Size() int64  { return p.size }

func (p *Path) Open() (io.ReadCloser, error) {
	return os.Open(p.path)
}

// osFile adapts an already-open handle. Open rewinds it so the same handle
// can be submitted more than once.
type osFile struct {
	f    *os.File
	size int64
}

func fromOSFile(f *os.File) (File, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid file provided")
	}
	if info.IsDir() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid file provided")
	}
	return &osFile{f: f, size: info.Size()}, nil
}

func (o *osFile) Name() string { return filepath.Base(o.f.Name()) }
func (o *osFile) Size() int64  { return o.size }

func (o *osFile) Open() (io.ReadCloser, error) {
	if _, err := o.f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	// The caller owns the handle; closing the reader must not close it.
	return io.NopCloser(o.f), nil
}

type fileHeader struct {
	h *multipart.FileHeader
}

// FromFileHeader adapts a received multipart part.
func FromFileHeader(h *multipart.FileHeader) File {
	return &fileHeader{h: h}
}

func (f *fileHeader) Name() string { return f.h.Filename }
func (f *fileHeader) Size() int64  { return f.h.Size }

func (f *fileHeader) Open() (io.ReadCloser, error) {
	return f.h.Open()
}
