package transport

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRequest(t *testing.T) {
	body := bytes.NewBufferString(`{"jsonrpc":"2.0","method":"select_trace","params":{"trace":"run_events.json"},"id":1}`)
	req, err := ParseRequest(body)
	require.NoError(t, err)
	require.Equal(t, "2.0", req.JSONRPC)
	require.Equal(t, "select_trace", req.Method)
	require.Equal(t, json.RawMessage(`{"trace":"run_events.json"}`), req.Params)
}

func TestParseRequest_Invalid(t *testing.T) {
	_, err := ParseRequest(bytes.NewBufferString(`{"jsonrpc":"2.0","id":1}`))
	require.ErrorIs(t, err, ErrInvalidRequest)

	_, err = ParseRequest(bytes.NewBufferString(`[{"jsonrpc":"2.0","method":"get_view","id":1}]`))
	require.ErrorIs(t, err, ErrInvalidRequest)

	_, err = ParseRequest(bytes.NewBufferString(`not json`))
	require.ErrorIs(t, err, ErrParse)
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, 1, ErrInvalidParams, "bad params", nil)

	require.Equal(t, 200, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, ErrInvalidParams, resp.Error.Code)
	require.Equal(t, "bad params", resp.Error.Message)
}
