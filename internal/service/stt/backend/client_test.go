package backend

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"brain-health-assessment/internal/models"
	"brain-health-assessment/internal/observability/metrics"
	"brain-health-assessment/internal/service/stt"
	"brain-health-assessment/internal/transport"
)

func writeRecording(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rec.wav")
	if err := os.WriteFile(path, []byte("RIFF....WAVE"), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func newClient(url string, timeout time.Duration) (*Client, *metrics.Metrics) {
	m := metrics.NewMetrics(prometheus.NewRegistry())
	c := New(Config{BaseURL: url, Timeout: timeout, Platform: models.PlatformAndroid}, stt.Deps{
		Metrics: m,
		Logger:  zerolog.Nop(),
	})
	return c, m
}

func TestTranscribe_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transcribe" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		file, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("missing file field: %v", err)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if string(data) != "RIFF....WAVE" {
			t.Errorf("unexpected upload %q", data)
		}
		if hdr.Filename != "recording.wav" || hdr.Header.Get("Content-Type") != "audio/wav" {
			t.Errorf("unexpected part header %s %v", hdr.Filename, hdr.Header)
		}
		w.Write([]byte(`{"text":"cat dog bird","confidence":0.92}`))
	}))
	defer server.Close()

	c, m := newClient(server.URL, time.Second)
	res, err := c.Transcribe(context.Background(), models.RecordingHandle{URI: writeRecording(t)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Text != "cat dog bird" || res.Confidence != 0.92 {
		t.Errorf("unexpected result %+v", res)
	}
	if got := testutil.ToFloat64(m.AudioBytesUploaded); got != 12 {
		t.Errorf("expected 12 bytes uploaded, got %v", got)
	}
}

func TestTranscribe_ConfidenceHandling(t *testing.T) {
	tests := []struct {
		name string
		body string
		want float64
	}{
		{"missing", `{"text":"owl"}`, 1.0},
		{"above range", `{"text":"owl","confidence":3.5}`, 1.0},
		{"below range", `{"text":"owl","confidence":-1}`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			c, _ := newClient(server.URL, time.Second)
			res, err := c.Transcribe(context.Background(), models.RecordingHandle{URI: writeRecording(t)})
			if err != nil {
				t.Fatal(err)
			}
			if res.Confidence != tt.want {
				t.Errorf("expected confidence %v, got %v", tt.want, res.Confidence)
			}
		})
	}
}

func TestTranscribe_ErrorKinds(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		kind    transport.Kind
		status  int
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "model not loaded", http.StatusInternalServerError)
			},
			kind:   transport.KindHTTP,
			status: http.StatusInternalServerError,
		},
		{
			name: "not json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("<html>gateway</html>"))
			},
			kind: transport.KindMalformed,
		},
		{
			name: "missing text",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"confidence":0.5}`))
			},
			kind: transport.KindMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			c, _ := newClient(server.URL, time.Second)
			_, err := c.Transcribe(context.Background(), models.RecordingHandle{URI: writeRecording(t)})
			if transport.KindOf(err) != tt.kind {
				t.Fatalf("expected kind %s, got %v", tt.kind, err)
			}
			if transport.StatusOf(err) != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, transport.StatusOf(err))
			}
		})
	}
}

func TestTranscribe_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	c, _ := newClient(server.URL, 50*time.Millisecond)
	_, err := c.Transcribe(context.Background(), models.RecordingHandle{URI: writeRecording(t)})
	if !transport.IsTimeout(err) {
		t.Fatalf("expected timeout, got %v", err)
	}
	if !strings.Contains(err.Error(), "transcription timed out after 50ms") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestTranscribe_StalledBlobFetchTimesOut(t *testing.T) {
	var uploads int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/blob":
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
				w.Write([]byte("webm"))
			}
		case "/transcribe":
			atomic.AddInt32(&uploads, 1)
			w.Write([]byte(`{"text":"cat","confidence":0.9}`))
		}
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL, Timeout: 100 * time.Millisecond, Platform: models.PlatformWeb}, stt.Deps{
		Metrics: metrics.NewMetrics(prometheus.NewRegistry()),
		Logger:  zerolog.Nop(),
	})

	start := time.Now()
	_, err := c.Transcribe(context.Background(), models.RecordingHandle{URI: "blob:" + server.URL + "/blob"})
	if !transport.IsTimeout(err) {
		t.Fatalf("expected timeout, got %q (%v)", transport.KindOf(err), err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("fetch should stop at the deadline, took %v", elapsed)
	}
	if !strings.Contains(err.Error(), "transcription timed out after 100ms") {
		t.Errorf("unexpected message: %v", err)
	}
	if atomic.LoadInt32(&uploads) != 0 {
		t.Errorf("expected no upload after a failed fetch, got %d", uploads)
	}
}

func TestTranscribe_FetchAndUploadShareDeadline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
			return
		case <-time.After(80 * time.Millisecond):
		}
		if r.URL.Path == "/blob" {
			w.Write([]byte("webm"))
			return
		}
		w.Write([]byte(`{"text":"cat","confidence":0.9}`))
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL, Timeout: 120 * time.Millisecond, Platform: models.PlatformWeb}, stt.Deps{
		Metrics: metrics.NewMetrics(prometheus.NewRegistry()),
		Logger:  zerolog.Nop(),
	})

	_, err := c.Transcribe(context.Background(), models.RecordingHandle{URI: "blob:" + server.URL + "/blob"})
	if !transport.IsTimeout(err) {
		t.Fatalf("expected the combined wait to time out, got %v", err)
	}
}

func TestTranscribe_MalformedIsLogged(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"transcript":"cat"}`))
	}))
	defer server.Close()

	var buf bytes.Buffer
	c := New(Config{BaseURL: server.URL, Timeout: time.Second, Platform: models.PlatformAndroid}, stt.Deps{
		Metrics: metrics.NewMetrics(prometheus.NewRegistry()),
		Logger:  zerolog.New(&buf),
	})

	_, err := c.Transcribe(context.Background(), models.RecordingHandle{URI: writeRecording(t)})
	if transport.KindOf(err) != transport.KindMalformed {
		t.Fatalf("expected malformed, got %v", err)
	}
	if !strings.Contains(buf.String(), `"message":"transcription error"`) {
		t.Errorf("expected an error log, got %s", buf.String())
	}
}

func TestTranscribe_UnreadableHandleSendsNothing(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	c, _ := newClient(server.URL, time.Second)
	_, err := c.Transcribe(context.Background(), models.RecordingHandle{URI: "/does/not/exist.wav"})
	if transport.KindOf(err) != transport.KindNetwork {
		t.Fatalf("expected network error, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Errorf("expected no request, got %d", calls)
	}
}

func TestName(t *testing.T) {
	c, _ := newClient("http://localhost", time.Second)
	if c.Name() != "backend" {
		t.Errorf("expected 'backend', got %s", c.Name())
	}
}
