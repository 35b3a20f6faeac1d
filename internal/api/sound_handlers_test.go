package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupSoundTest signs up an entitled user ready to track sounds.
func setupSoundTest(t *testing.T) (*testServer, AuthResponse) {
	t.Helper()
	ts := setupTestServer(t)
	signed := signUpUser(t, ts, "alice@example.com")
	entitleUser(t, ts, signed.User.ID)
	return ts, signed
}

func addSound(t *testing.T, ts *testServer, token, url string) SoundRow {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/v1/sounds/", token, map[string]any{"url": url})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeResponse[SoundRow](t, rec).Data
}

func TestAddSound_Success(t *testing.T) {
	ts, signed := setupSoundTest(t)

	row := addSound(t, ts, signed.AccessToken, "https://www.tiktok.com/music/Flowers-719359")
	assert.NotEmpty(t, row.ID)
	assert.True(t, row.Importing)
	assert.Equal(t, "Processing...", row.Name)
	assert.Equal(t, "Unknown creator", row.Creator)
	assert.Equal(t, iconPlaceholder, row.IconURL)
	assert.Equal(t, "-", row.Change1D)
	assert.Equal(t, "-", row.Delta1D)
}

func TestListSounds_RowsCarryChangeAndDelta(t *testing.T) {
	ts, signed := setupSoundTest(t)
	row := addSound(t, ts, signed.AccessToken, "https://www.tiktok.com/music/Flowers-719359")

	sound, err := ts.store.GetSound(t.Context(), row.ID)
	require.NoError(t, err)
	sound.ViewHistory = []int64{100, 110, 105}
	require.NoError(t, ts.store.UpdateSound(t.Context(), sound))

	rec := ts.do(t, http.MethodGet, "/api/v1/sounds/", signed.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	envelope := decodeResponse[SoundPage](t, rec)
	require.Len(t, envelope.Data.Items, 1)

	got := envelope.Data.Items[0]
	assert.Equal(t, "-150.00%", got.Change1D)
	assert.Equal(t, "-5", got.Delta1D)
	assert.Equal(t, "-", got.Change1W)
	assert.Equal(t, "-", got.Delta1W)
	assert.Equal(t, "-150.00%", got.Change1M)
	assert.Equal(t, "-5", got.Delta1M)
}

func TestListSounds_SortBy1DChange(t *testing.T) {
	ts, signed := setupSoundTest(t)
	slow := addSound(t, ts, signed.AccessToken, "https://www.tiktok.com/music/Slow-1")
	fast := addSound(t, ts, signed.AccessToken, "https://www.tiktok.com/music/Fast-2")

	seed := func(id string, history []int64) {
		sound, err := ts.store.GetSound(t.Context(), id)
		require.NoError(t, err)
		sound.ViewHistory = history
		require.NoError(t, ts.store.UpdateSound(t.Context(), sound))
	}
	seed(slow.ID, []int64{100, 110, 112}) // growth slowing: -80%
	seed(fast.ID, []int64{100, 110, 150}) // growth accelerating: +300%

	rec := ts.do(t, http.MethodGet, "/api/v1/sounds/?sort=1d", signed.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	envelope := decodeResponse[SoundPage](t, rec)
	require.Len(t, envelope.Data.Items, 2)
	assert.Equal(t, fast.ID, envelope.Data.Items[0].ID)
	assert.Equal(t, slow.ID, envelope.Data.Items[1].ID)

	rec = ts.do(t, http.MethodGet, "/api/v1/sounds/?sort=1d&dir=asc", signed.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	envelope = decodeResponse[SoundPage](t, rec)
	assert.Equal(t, slow.ID, envelope.Data.Items[0].ID)
}

func TestAddSound_InvalidURL(t *testing.T) {
	ts, signed := setupSoundTest(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/sounds/", signed.AccessToken, map[string]any{
		"url": "https://www.youtube.com/watch?v=abc",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddSound_Duplicate(t *testing.T) {
	ts, signed := setupSoundTest(t)
	addSound(t, ts, signed.AccessToken, "https://www.tiktok.com/music/Flowers-719359")

	rec := ts.do(t, http.MethodPost, "/api/v1/sounds/", signed.AccessToken, map[string]any{
		"url": "https://www.tiktok.com/music/Flowers-719359",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	envelope := decodeResponse[any](t, rec)
	assert.Equal(t, "DUPLICATE_URL", envelope.Code)
}

func TestListSounds_Pagination(t *testing.T) {
	ts, signed := setupSoundTest(t)
	for i := range 12 {
		addSound(t, ts, signed.AccessToken, fmt.Sprintf("https://www.tiktok.com/music/Sound-%d", i))
	}

	rec := ts.do(t, http.MethodGet, "/api/v1/sounds/", signed.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeResponse[SoundPage](t, rec)
	assert.Equal(t, 12, envelope.Data.Total)
	assert.Len(t, envelope.Data.Items, 10)
	assert.Equal(t, 2, envelope.Data.PageCount)

	rec = ts.do(t, http.MethodGet, "/api/v1/sounds/?page=2", signed.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	envelope = decodeResponse[SoundPage](t, rec)
	assert.Len(t, envelope.Data.Items, 2)
	assert.Equal(t, 2, envelope.Data.Page)
}

func TestListSounds_Search(t *testing.T) {
	ts, signed := setupSoundTest(t)
	addSound(t, ts, signed.AccessToken, "https://www.tiktok.com/music/Flowers-719359")
	addSound(t, ts, signed.AccessToken, "https://www.tiktok.com/music/Greedy-728178")

	// Imported sounds have no name yet, so the query matches the
	// "Processing..." placeholder for both
	rec := ts.do(t, http.MethodGet, "/api/v1/sounds/?q=processing", signed.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeResponse[SoundPage](t, rec)
	assert.Equal(t, 2, envelope.Data.Total)

	rec = ts.do(t, http.MethodGet, "/api/v1/sounds/?q=nomatch", signed.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	envelope = decodeResponse[SoundPage](t, rec)
	assert.Equal(t, 0, envelope.Data.Total)
}

func TestGetSound_NotFound(t *testing.T) {
	ts, signed := setupSoundTest(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/sounds/sound_missing", signed.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteSound(t *testing.T) {
	ts, signed := setupSoundTest(t)
	row := addSound(t, ts, signed.AccessToken, "https://www.tiktok.com/music/Flowers-719359")

	rec := ts.do(t, http.MethodDelete, "/api/v1/sounds/"+row.ID, signed.AccessToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/sounds/"+row.ID, signed.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSoundTrend(t *testing.T) {
	ts, signed := setupSoundTest(t)
	row := addSound(t, ts, signed.AccessToken, "https://www.tiktok.com/music/Flowers-719359")

	// Seed a view history as the scrape pipeline would
	sound, err := ts.store.GetSound(t.Context(), row.ID)
	require.NoError(t, err)
	sound.ViewHistory = []int64{100, 110, 105}
	require.NoError(t, ts.store.UpdateSound(t.Context(), sound))

	rec := ts.do(t, http.MethodGet, "/api/v1/sounds/"+row.ID+"/trend", signed.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	type trendBody struct {
		SoundID string `json:"sound_id"`
		Path    string `json:"path"`
		Day     struct {
			Percent string `json:"percent"`
		} `json:"day"`
	}
	envelope := decodeResponse[trendBody](t, rec)
	assert.Equal(t, row.ID, envelope.Data.SoundID)
	assert.Contains(t, envelope.Data.Path, "M ")
	assert.Equal(t, "-150.00%", envelope.Data.Day.Percent)
}
