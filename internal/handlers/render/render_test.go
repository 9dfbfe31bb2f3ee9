package render

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_JSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		data := map[string]any{"key1": 1, "key2": "222"}
		JSON(w, data)
	}))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/test")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	assert.Equal(t, "application/json; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"key1":1,"key2":"222"}`+"\n", string(body))
}

func TestRender_JSONWithStatus(t *testing.T) {
	rec := httptest.NewRecorder()

	JSONWithStatus(rec, map[string]string{"status": "unavailable"}, http.StatusServiceUnavailable)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status": "unavailable"}`, rec.Body.String())
}

func TestRender_Redirect(t *testing.T) {
	tests := []struct {
		method       string
		expectedCode int
	}{
		{method: http.MethodGet, expectedCode: http.StatusFound},
		{method: http.MethodHead, expectedCode: http.StatusFound},
		{method: http.MethodPost, expectedCode: http.StatusSeeOther},
	}

	for _, tc := range tests {
		t.Run(tc.method, func(t *testing.T) {
			rec := httptest.NewRecorder()

			Redirect(rec, httptest.NewRequest(tc.method, "/login", nil), "/index")

			require.Equal(t, tc.expectedCode, rec.Code)
			require.Equal(t, "/index", rec.Header().Get("Location"))
		})
	}
}
