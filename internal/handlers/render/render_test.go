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
	assert.JSONEq(t, `{"key1":1,"key2":"222"}`, string(body))
}

func TestRender_ServiceError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		ServiceError(w, "something terrible happened", http.StatusForbidden)
	}))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/test")
	require.NoError(t, err)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	assert.JSONEq(t, `{
			"error": "service_error",
			"message": "something terrible happened"
		}`,
		string(body),
	)
}

func TestRender_BindAndValidate(t *testing.T) {
	type request struct {
		CounterpartyID string `json:"counterparty_id" validate:"required"`
		Amount         int64  `json:"amount" validate:"required,gt=0"`
	}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		value, err := BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		JSON(w, value)
	}))
	defer ts.Close()

	post := func(t *testing.T, body string) (*http.Response, string) {
		resp, err := http.Post(ts.URL+"/test", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		data, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		defer resp.Body.Close() //nolint:errcheck

		return resp, string(data)
	}

	t.Run("valid request", func(t *testing.T) {
		resp, body := post(t, `{"counterparty_id": "stall-1", "amount": 120}`)

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `{"counterparty_id": "stall-1", "amount": 120}`, body)
	})

	t.Run("broken json", func(t *testing.T) {
		resp, body := post(t, `{"counterparty_id": `)

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, body, DecodingErrorType)
	})

	t.Run("wrong field type", func(t *testing.T) {
		resp, body := post(t, `{"counterparty_id": "stall-1", "amount": "sixty"}`)

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, body, DecodingErrorType)
		assert.Contains(t, body, "amount", "field name should be reported")
	})

	t.Run("fractional amount", func(t *testing.T) {
		resp, body := post(t, `{"counterparty_id": "stall-1", "amount": 10.5}`)

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, body, DecodingErrorType)
	})

	t.Run("missing fields", func(t *testing.T) {
		resp, body := post(t, `{}`)

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.JSONEq(t, `{
				"error": "validation_failed",
				"message": "Request validation failed",
				"fields": {
					"counterparty_id": "This field is required",
					"amount": "This field is required"
				}
			}`,
			body,
		)
	})

	t.Run("json tag names in errors", func(t *testing.T) {
		resp, body := post(t, `{"counterparty_id": "stall-1", "amount": -5}`)

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, body, `"amount"`)
		assert.NotContains(t, body, "Amount", "struct field name should not leak")
	})
}
