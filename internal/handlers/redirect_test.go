package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/microblog/internal/handlers/render"
)

func TestSafeNext(t *testing.T) {
	tests := []struct {
		next     string
		expected string
	}{
		{next: "", expected: "/index"},
		{next: "/dashboard", expected: "/dashboard"},
		{next: "/user/john?page=2", expected: "/user/john?page=2"},
		{next: "/index#posts", expected: "/index#posts"},
		{next: "edit_profile", expected: "edit_profile"},
		{next: "https://evil.example/", expected: "/index"},
		{next: "http://evil.example/index", expected: "/index"},
		{next: "//evil.example", expected: "/index"},
		{next: `/\evil.example`, expected: "/index"},
		{next: `\\evil.example`, expected: "/index"},
		{next: "javascript:alert(1)", expected: "/index"},
		{next: "/\t/evil.example", expected: "/index"},
		{next: "ftp:/evil.example", expected: "/index"},
		{next: `/./\evil.example`, expected: "/index"},
		{next: `/a/../\evil.example`, expected: "/index"},
		{next: `/user\john`, expected: "/index"},
		{next: "/a/../user/john", expected: "/a/../user/john"},
	}

	for _, tc := range tests {
		t.Run(tc.next, func(t *testing.T) {
			assert.Equal(t, tc.expected, SafeNext(tc.next))
		})
	}
}

// Location header must never point to other host once cleaned by http.Redirect
func TestSafeNext_Location(t *testing.T) {
	payloads := []string{
		`/./\evil.example`,
		`/a/../\evil.example`,
		`/.//evil.example`,
		"/a/..//evil.example",
		`./\evil.example`,
	}

	for _, next := range payloads {
		t.Run(next, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/login", nil)
			w := httptest.NewRecorder()

			render.Redirect(w, r, SafeNext(next))

			location := w.Header().Get("Location")
			assert.NotContains(t, location, `\`)
			assert.False(t, strings.HasPrefix(location, "//"), "location %q is scheme relative", location)

			u, err := url.Parse(location)
			require.NoError(t, err)
			assert.Empty(t, u.Host)
		})
	}
}

func TestPageNumber(t *testing.T) {
	tests := map[string]int{
		"":          1,
		"?page=3":   3,
		"?page=0":   1,
		"?page=-2":  1,
		"?page=abc": 1,
	}

	for query, expected := range tests {
		t.Run(query, func(t *testing.T) {
			r := newGetRequest("/index" + query)
			assert.Equal(t, expected, pageNumber(r))
		})
	}
}
