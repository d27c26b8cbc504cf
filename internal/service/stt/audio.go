package stt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"strings"

	"brain-health-assessment/internal/models"
	"brain-health-assessment/internal/transport"
)

// ErrEmptyRecording is returned when a handle resolves to no audio.
var ErrEmptyRecording = errors.New("recording is empty")

// Audio is a recording loaded into memory.
type Audio struct {
	Data     []byte
	Format   Format
	Platform models.Platform
}

// Open loads the recording behind h. blob:, http:// and https:// handles
// are fetched; file:// URIs and bare paths are read from disk. Platform
// falls back to def when the handle does not carry one. Fetches are bounded
// only by ctx; a fetch that outlives it fails with KindTimeout. Every other
// failure is KindNetwork. Any failure means no upload was attempted.
func Open(ctx context.Context, doer transport.Doer, h models.RecordingHandle, def models.Platform) (Audio, error) {
	platform := h.Platform
	if platform == "" {
		platform = def
	}

	uri := strings.TrimSpace(h.URI)
	if uri == "" {
		return Audio{}, transport.Network(Op, "recording handle is empty", ErrEmptyRecording)
	}

	var (
		data []byte
		err  error
	)
	switch {
	case strings.HasPrefix(uri, "blob:"):
		data, err = fetch(ctx, doer, strings.TrimPrefix(uri, "blob:"))
	case strings.HasPrefix(uri, "http://"), strings.HasPrefix(uri, "https://"):
		data, err = fetch(ctx, doer, uri)
	default:
		data, err = readFile(uri)
	}
	if transport.IsTimeout(err) {
		return Audio{}, err
	}
	if err != nil {
		return Audio{}, transport.Network(Op, "failed to read recording: "+err.Error(), err)
	}
	if len(data) == 0 {
		return Audio{}, transport.Network(Op, "failed to read recording: "+ErrEmptyRecording.Error(), ErrEmptyRecording)
	}

	return Audio{Data: data, Format: FormatFor(platform), Platform: platform}, nil
}

func fetch(ctx context.Context, doer transport.Doer, rawURL string) ([]byte, error) {
	if doer == nil {
		doer = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := transport.Call(ctx, doer, req, 0, Op)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func readFile(uri string) ([]byte, error) {
	path := uri
	if strings.HasPrefix(uri, "file://") {
		u, err := url.Parse(uri)
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", uri, err)
		}
		path = u.Path
	}
	return os.ReadFile(path)
}

// Field is an extra multipart form value.
type Field struct {
	Name  string
	Value string
}

// NewUploadRequest builds a multipart POST with the audio under the "file"
// field, followed by fields in order.
func NewUploadRequest(ctx context.Context, target string, audio Audio, fields ...Field) (*http.Request, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, audio.Format.Filename))
	header.Set("Content-Type", audio.Format.MIME)
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(audio.Data); err != nil {
		return nil, err
	}

	for _, f := range fields {
		if err := w.WriteField(f.Name, f.Value); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req, nil
}
