package client

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
	"path/filepath"
	"strings"
	"sync"

	"credguard/internal/upload"
	dErrors "credguard/pkg/domain-errors"
)

// formField is one non-file multipart field. Order is preserved on the wire.
type formField struct {
	name  string
	value string
}

// multipartBody is an encoded form whose reader reports when the last byte
// has been handed to the transport.
type multipartBody struct {
	reader      *bytes.Reader
	contentType string
	size        int64

	once   sync.Once
	onSent func()
}

// encodeForm writes file under the "file" field followed by fields.
func encodeForm(file upload.File, fields []formField, onSent func()) (*multipartBody, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, fmt.Sprintf("could not read file %q", file.Name()))
	}
	defer rc.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(file.Name())))
	header.Set("Content-Type", contentTypeFor(file.Name()))
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode upload")
	}
	if _, err := io.Copy(part, rc); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, fmt.Sprintf("could not read file %q", file.Name()))
	}
	for _, f := range fields {
		if err := mw.WriteField(f.name, f.value); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode upload")
		}
	}
	if err := mw.Close(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode upload")
	}

	return &multipartBody{
		reader:      bytes.NewReader(buf.Bytes()),
		contentType: mw.FormDataContentType(),
		size:        int64(buf.Len()),
		onSent:      onSent,
	}, nil
}

func (b *multipartBody) Read(p []byte) (int, error) {
	n, err := b.reader.Read(p)
	if err == io.EOF {
		b.sent()
	}
	return n, err
}

// sent fires the hook at most once. Receiving any response also means the
// server is done reading, so callers invoke it then as well.
func (b *multipartBody) sent() {
	b.once.Do(func() {
		if b.onSent != nil {
			b.onSent()
		}
	})
}

func contentTypeFor(name string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
