package server

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"FlowieFM/model"
	"FlowieFM/storage"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTrackRepo is an in-memory TrackRepository for handler tests.
type fakeTrackRepo struct {
	tracks map[int64]*model.Track
	bumps  map[int64]int
}

func newFakeTrackRepo(tracks ...*model.Track) *fakeTrackRepo {
	repo := &fakeTrackRepo{
		tracks: make(map[int64]*model.Track),
		bumps:  make(map[int64]int),
	}
	for _, track := range tracks {
		repo.tracks[track.ID] = track
	}
	return repo
}

func (r *fakeTrackRepo) CreateTrack(track *model.Track) (int64, error) {
	id := int64(len(r.tracks) + 1)
	track.ID = id
	r.tracks[id] = track
	return id, nil
}

func (r *fakeTrackRepo) GetTrackByID(id int64) (*model.Track, error) {
	return r.tracks[id], nil
}

func (r *fakeTrackRepo) ListTracks(sort string, windowDays int) ([]*model.TrackListItem, error) {
	items := make([]*model.TrackListItem, 0, len(r.tracks))
	for _, track := range r.tracks {
		items = append(items, &model.TrackListItem{Track: *track})
	}
	return items, nil
}

func (r *fakeTrackRepo) DeleteTrack(id int64) error {
	delete(r.tracks, id)
	return nil
}

func (r *fakeTrackRepo) IncrementListenSeconds(ctx context.Context, trackID int64, now time.Time) (bool, error) {
	if _, ok := r.tracks[trackID]; !ok {
		return false, nil
	}
	r.bumps[trackID]++
	return true, nil
}

// fakeBlobStore serves objects from memory with real range semantics.
type fakeBlobStore struct {
	objects map[string][]byte
}

func (s *fakeBlobStore) Read(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	data, ok := s.objects[objectKey]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrObjectNotFound, objectKey)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *fakeBlobStore) ReadRange(ctx context.Context, objectKey string, start, length int64) (io.ReadCloser, error) {
	data, ok := s.objects[objectKey]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrObjectNotFound, objectKey)
	}
	if start < 0 || start >= int64(len(data)) || length <= 0 {
		return nil, fmt.Errorf("%w: %d+%d of %d", storage.ErrRangeNotSatisfiable, start, length, len(data))
	}
	end := start + length
	if end > int64(len(data)) {
		end = int64(len(data))
	}
	return io.NopCloser(bytes.NewReader(data[start:end])), nil
}

func newStreamTestServer(t *testing.T, tracks *fakeTrackRepo, blobs *fakeBlobStore) *mux.Router {
	t.Helper()
	handler := NewStreamHandler(tracks, blobs)
	router := mux.NewRouter()
	router.HandleFunc("/tracks/{id}/stream", handler.HandleStream).Methods(http.MethodGet)
	return router
}

func streamTestFixture() (*fakeTrackRepo, *fakeBlobStore, []byte) {
	data := []byte("0123456789abcdefghij") // 20 bytes
	repo := newFakeTrackRepo(&model.Track{
		ID:       1,
		Title:    "Test Track",
		FilePath: "tracks/1.mp3",
		FileSize: int64(len(data)),
		MimeType: "audio/mpeg",
	})
	blobs := &fakeBlobStore{objects: map[string][]byte{"tracks/1.mp3": data}}
	return repo, blobs, data
}

func TestStreamFullObject(t *testing.T) {
	repo, blobs, data := streamTestFixture()
	router := newStreamTestServer(t, repo, blobs)

	req := httptest.NewRequest(http.MethodGet, "/tracks/1/stream", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, data, rec.Body.Bytes())
	assert.Equal(t, "20", rec.Header().Get("Content-Length"))
	assert.Equal(t, "bytes", rec.Header().Get("Accept-Ranges"))
	assert.Equal(t, "audio/mpeg", rec.Header().Get("Content-Type"))
	assert.Empty(t, rec.Header().Get("Content-Range"))
}

func TestStreamBoundedRange(t *testing.T) {
	repo, blobs, data := streamTestFixture()
	router := newStreamTestServer(t, repo, blobs)

	req := httptest.NewRequest(http.MethodGet, "/tracks/1/stream", nil)
	req.Header.Set("Range", "bytes=2-5")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusPartialContent, rec.Code)
	assert.Equal(t, data[2:6], rec.Body.Bytes())
	assert.Equal(t, "bytes 2-5/20", rec.Header().Get("Content-Range"))
	assert.Equal(t, "4", rec.Header().Get("Content-Length"))
}

func TestStreamOpenEndedRange(t *testing.T) {
	repo, blobs, data := streamTestFixture()
	router := newStreamTestServer(t, repo, blobs)

	req := httptest.NewRequest(http.MethodGet, "/tracks/1/stream", nil)
	req.Header.Set("Range", "bytes=15-")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusPartialContent, rec.Code)
	assert.Equal(t, data[15:], rec.Body.Bytes())
	assert.Equal(t, "bytes 15-19/20", rec.Header().Get("Content-Range"))
	assert.Equal(t, "5", rec.Header().Get("Content-Length"))
}

func TestStreamRangeEndClampedToObject(t *testing.T) {
	repo, blobs, data := streamTestFixture()
	router := newStreamTestServer(t, repo, blobs)

	req := httptest.NewRequest(http.MethodGet, "/tracks/1/stream", nil)
	req.Header.Set("Range", "bytes=10-9999")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusPartialContent, rec.Code)
	assert.Equal(t, data[10:], rec.Body.Bytes())
	assert.Equal(t, "bytes 10-19/20", rec.Header().Get("Content-Range"))
}

func TestStreamFirstByteRange(t *testing.T) {
	repo, blobs, data := streamTestFixture()
	router := newStreamTestServer(t, repo, blobs)

	req := httptest.NewRequest(http.MethodGet, "/tracks/1/stream", nil)
	req.Header.Set("Range", "bytes=0-0")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusPartialContent, rec.Code)
	assert.Equal(t, data[0:1], rec.Body.Bytes())
	assert.Equal(t, "bytes 0-0/20", rec.Header().Get("Content-Range"))
	assert.Equal(t, "1", rec.Header().Get("Content-Length"))
}

func TestStreamRangeStartBeyondSize(t *testing.T) {
	repo, blobs, _ := streamTestFixture()
	router := newStreamTestServer(t, repo, blobs)

	req := httptest.NewRequest(http.MethodGet, "/tracks/1/stream", nil)
	req.Header.Set("Range", "bytes=20-")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusRequestedRangeNotSatisfiable, rec.Code)
	assert.Equal(t, "bytes */20", rec.Header().Get("Content-Range"))
}

func TestStreamMalformedRange(t *testing.T) {
	repo, blobs, _ := streamTestFixture()
	router := newStreamTestServer(t, repo, blobs)

	for _, header := range []string{"bytes=abc-def", "items=0-5", "bytes=-5", "bytes=5"} {
		req := httptest.NewRequest(http.MethodGet, "/tracks/1/stream", nil)
		req.Header.Set("Range", header)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusRequestedRangeNotSatisfiable, rec.Code, "header %q", header)
	}
}

func TestStreamMultiRangeHonorsFirstOnly(t *testing.T) {
	repo, blobs, data := streamTestFixture()
	router := newStreamTestServer(t, repo, blobs)

	req := httptest.NewRequest(http.MethodGet, "/tracks/1/stream", nil)
	req.Header.Set("Range", "bytes=0-3,10-15")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusPartialContent, rec.Code)
	assert.Equal(t, data[0:4], rec.Body.Bytes())
	assert.Equal(t, "bytes 0-3/20", rec.Header().Get("Content-Range"))
}

func TestStreamUnknownTrack(t *testing.T) {
	repo, blobs, _ := streamTestFixture()
	router := newStreamTestServer(t, repo, blobs)

	for _, path := range []string{"/tracks/99/stream", "/tracks/abc/stream"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code, "path %q", path)
	}
}

func TestStreamMissingObject(t *testing.T) {
	repo, _, _ := streamTestFixture()
	blobs := &fakeBlobStore{objects: map[string][]byte{}}
	router := newStreamTestServer(t, repo, blobs)

	req := httptest.NewRequest(http.MethodGet, "/tracks/1/stream", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
