package render

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doGet(t *testing.T, url string) (*http.Response, string) {
	t.Helper()

	resp, err := http.Get(url + "/test")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	return resp, string(body)
}

func TestRender_JSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		data := map[string]any{"key1": 1, "key2": "222"}
		JSON(w, data)
	}))
	defer ts.Close()

	resp, body := doGet(t, ts.URL)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"key1":1,"key2":"222"}`, body)
}

func TestRender_JSONWithStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		JSONWithStatus(w, map[string]any{"message": "created"}, http.StatusCreated)
	}))
	defer ts.Close()

	resp, body := doGet(t, ts.URL)

	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.JSONEq(t, `{"message":"created"}`, body)
}

func TestRender_ServiceError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		ServiceError(w, "something terrible happened", http.StatusForbidden)
	}))
	defer ts.Close()

	resp, body := doGet(t, ts.URL)

	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.JSONEq(t, `{
			"error": "service_error",
			"message": "something terrible happened"
		}`,
		body,
	)
}

func TestRender_BindAndValidate(t *testing.T) {
	type request struct {
		Username string `json:"username" validate:"required,min=2"`
		Email    string `json:"email" validate:"required,email"`
	}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := BindAndValidate[request](w, r)
		if err != nil {
			return
		}
		JSON(w, data)
	}))
	defer ts.Close()

	post := func(t *testing.T, body string) (*http.Response, string) {
		t.Helper()
		resp, err := http.Post(ts.URL+"/test", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		defer resp.Body.Close() //nolint:errcheck
		return resp, string(raw)
	}

	t.Run("valid body passes through", func(t *testing.T) {
		resp, body := post(t, `{"username": "reader", "email": "reader@example.com"}`)

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `{"username": "reader", "email": "reader@example.com"}`, body)
	})

	t.Run("broken json gets decoding error", func(t *testing.T) {
		resp, body := post(t, `not-json`)

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, body, "decoding_failed")
	})

	t.Run("wrong field type named in message", func(t *testing.T) {
		resp, body := post(t, `{"username": 1}`)

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, body, "decoding_failed")
		assert.Contains(t, body, "username", "offending field should be named")
	})

	t.Run("validation errors use json field names", func(t *testing.T) {
		resp, body := post(t, `{"username": "x", "email": "not-an-email"}`)

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.JSONEq(t, `{
			"error": "validation_failed",
			"message": "Request validation failed",
			"fields": {
				"username": "Value is too short (minimum 2)",
				"email": "Must be a valid email address"
			}
		}`, body)
	})
}
