package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/mzolotukhin/daybook/internal/config"
	"github.com/mzolotukhin/daybook/internal/logger"
	"github.com/mzolotukhin/daybook/internal/playlist"
	"github.com/mzolotukhin/daybook/internal/store"
	"github.com/mzolotukhin/daybook/internal/summarizer"
	"github.com/mzolotukhin/daybook/internal/transcriber"
)

type fakeSummaryClient struct {
	text string
	err  error
}

func (f *fakeSummaryClient) ShortSummary(_ context.Context, _ string) (string, error) {
	return f.text, f.err
}

// fakeTranscriber records control calls without running an engine.
type fakeTranscriber struct {
	store       store.Store
	retried     []uuid.UUID
	regenerated []uuid.UUID
}

func (f *fakeTranscriber) Start(context.Context) {}
func (f *fakeTranscriber) Stop()                 {}
func (f *fakeTranscriber) Enqueue(uuid.UUID)     {}

func (f *fakeTranscriber) Retry(ctx context.Context, id uuid.UUID) error {
	ok, err := f.store.ClaimFragment(ctx, id, store.StateFailed)
	if err != nil {
		return err
	}
	if !ok {
		return transcriber.ErrNotRetryable
	}
	f.retried = append(f.retried, id)
	return nil
}

func (f *fakeTranscriber) Regenerate(ctx context.Context, id uuid.UUID) error {
	ok, err := f.store.ClaimFragment(ctx, id, store.StateTranscribed, store.StateFailed)
	if err != nil {
		return err
	}
	if !ok {
		return transcriber.ErrNotRegenerable
	}
	f.regenerated = append(f.regenerated, id)
	return nil
}

type fixture struct {
	server *Server
	store  store.Store
	trans  *fakeTranscriber
	client *fakeSummaryClient
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st, err := store.New(filepath.Join(t.TempDir(), "test.db"), logger.NewNop())
	require.NoError(t, err)

	cfg := &config.Config{
		Server:  config.ServerConfig{Addr: ":0"},
		Summary: config.SummaryConfig{TimeoutSeconds: 5},
	}
	client := &fakeSummaryClient{text: "short"}
	sum := summarizer.New(cfg, st, client, logger.NewNop())
	trans := &fakeTranscriber{store: st}
	srv := New(cfg, st, sum, playlist.NewBuilder(st), trans, logger.NewNop())

	return &fixture{server: srv, store: st, trans: trans, client: client}
}

func (f *fixture) request(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.server.Router().ServeHTTP(rec, req)
	return rec
}

func (f *fixture) addFragment(t *testing.T, date string, recordedAt time.Time, duration float64, state store.ProcessingState) *store.Fragment {
	t.Helper()
	ctx := context.Background()
	_, err := f.store.GetOrCreateDay(ctx, date)
	require.NoError(t, err)

	fr := &store.Fragment{
		ID:              uuid.New(),
		DayDate:         date,
		SourceFilename:  recordedAt.Format("2006-01-02_15-04-05") + ".wav",
		FilePath:        filepath.Join(t.TempDir(), recordedAt.Format("2006-01-02_15-04-05")+".wav"),
		RecordedAt:      recordedAt,
		DurationSeconds: duration,
		State:           state,
		Segments:        datatypes.NewJSONType([]store.TranscriptSegment{{Start: 0, End: duration, Text: "hello"}}),
	}
	_, _, err = f.store.CreateFragmentIfAbsent(ctx, fr)
	require.NoError(t, err)
	return fr
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	rec := f.request(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestGetDay(t *testing.T) {
	f := newFixture(t)
	f.addFragment(t, "2025-06-01", time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC), 30, store.StateTranscribed)

	rec := f.request(t, http.MethodGet, "/days/2025-06-01", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Date      string            `json:"date"`
		Fragments []*store.Fragment `json:"fragments"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "2025-06-01", resp.Date)
	require.Len(t, resp.Fragments, 1)
}

func TestGetDayNotFound(t *testing.T) {
	f := newFixture(t)
	rec := f.request(t, http.MethodGet, "/days/1999-01-01", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetDayInvalidDate(t *testing.T) {
	f := newFixture(t)
	rec := f.request(t, http.MethodGet, "/days/not-a-date", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetPlaylist(t *testing.T) {
	f := newFixture(t)
	f.addFragment(t, "2025-06-01", time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC), 30, store.StateTranscribed)
	f.addFragment(t, "2025-06-01", time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC), 45, store.StateFailed)

	rec := f.request(t, http.MethodGet, "/days/2025-06-01/playlist", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var pl playlist.Playlist
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pl))
	require.Len(t, pl.Entries, 1)
	require.Equal(t, 30.0, pl.TotalDurationSeconds)
}

func TestPutMediumSummary(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, http.MethodPut, "/days/2025-06-01/summaries/medium", `{"text":"my retrospective"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	day, err := f.store.Day(context.Background(), "2025-06-01")
	require.NoError(t, err)
	require.Equal(t, "my retrospective", day.MediumSummary)
}

func TestPutMediumSummaryEmptyBody(t *testing.T) {
	f := newFixture(t)
	rec := f.request(t, http.MethodPut, "/days/2025-06-01/summaries/medium", `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateShortSummary(t *testing.T) {
	f := newFixture(t)
	f.client.text = "the gist"

	rec := f.request(t, http.MethodPut, "/days/2025-06-01/summaries/medium", `{"text":"my retrospective"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.request(t, http.MethodPost, "/days/2025-06-01/summaries/short", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "the gist", resp["short_summary"])
}

func TestGenerateShortWithoutMedium(t *testing.T) {
	f := newFixture(t)
	f.addFragment(t, "2025-06-01", time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC), 30, store.StateTranscribed)

	rec := f.request(t, http.MethodPost, "/days/2025-06-01/summaries/short", "")
	require.Equal(t, http.StatusPreconditionFailed, rec.Code)
}

func TestGenerateShortProviderFailure(t *testing.T) {
	f := newFixture(t)
	f.request(t, http.MethodPut, "/days/2025-06-01/summaries/medium", `{"text":"my retrospective"}`)

	f.client.err = context.DeadlineExceeded
	rec := f.request(t, http.MethodPost, "/days/2025-06-01/summaries/short", "")
	require.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestRetryFragment(t *testing.T) {
	f := newFixture(t)
	fr := f.addFragment(t, "2025-06-01", time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC), 30, store.StateFailed)

	rec := f.request(t, http.MethodPost, "/fragments/"+fr.ID.String()+"/retry", "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, []uuid.UUID{fr.ID}, f.trans.retried)
}

func TestRetryFragmentWrongState(t *testing.T) {
	f := newFixture(t)
	fr := f.addFragment(t, "2025-06-01", time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC), 30, store.StateTranscribed)

	rec := f.request(t, http.MethodPost, "/fragments/"+fr.ID.String()+"/retry", "")
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegenerateFragment(t *testing.T) {
	f := newFixture(t)
	fr := f.addFragment(t, "2025-06-01", time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC), 30, store.StateTranscribed)

	rec := f.request(t, http.MethodPost, "/fragments/"+fr.ID.String()+"/regenerate", "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, []uuid.UUID{fr.ID}, f.trans.regenerated)
}

func TestRegenerateFragmentPending(t *testing.T) {
	f := newFixture(t)
	fr := f.addFragment(t, "2025-06-01", time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC), 30, store.StatePending)

	rec := f.request(t, http.MethodPost, "/fragments/"+fr.ID.String()+"/regenerate", "")
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetFragmentInvalidID(t *testing.T) {
	f := newFixture(t)
	rec := f.request(t, http.MethodGet, "/fragments/not-a-uuid", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServeAudio(t *testing.T) {
	f := newFixture(t)
	fr := f.addFragment(t, "2025-06-01", time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC), 30, store.StateTranscribed)
	require.NoError(t, os.WriteFile(fr.FilePath, []byte("RIFF fake wav"), 0o644))

	rec := f.request(t, http.MethodGet, "/audio/"+fr.ID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "audio/wav", rec.Header().Get("Content-Type"))
}

func TestServeAudioMissingFile(t *testing.T) {
	f := newFixture(t)
	fr := f.addFragment(t, "2025-06-01", time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC), 30, store.StateTranscribed)

	rec := f.request(t, http.MethodGet, "/audio/"+fr.ID.String(), "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	f.addFragment(t, "2025-06-01", time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC), 30, store.StateTranscribed)
	f.addFragment(t, "2025-06-02", time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC), 45, store.StateFailed)

	rec := f.request(t, http.MethodGet, "/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var stats store.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	require.Equal(t, int64(2), stats.TotalDays)
	require.Equal(t, int64(2), stats.TotalFragments)
	require.Equal(t, int64(1), stats.FailedFragments)
}

func TestListDays(t *testing.T) {
	f := newFixture(t)
	f.addFragment(t, "2025-06-01", time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC), 30, store.StateTranscribed)
	f.addFragment(t, "2025-06-02", time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC), 45, store.StateTranscribed)

	rec := f.request(t, http.MethodGet, "/days", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Days []*store.Day `json:"days"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Days, 2)
}
