package echoapi_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carbonschool/dashboard/core/notice"
)

func Test_noticeApi(t *testing.T) {
	app := setup(t)

	req, rec := newRequest(http.MethodGet, "/v1/notices")
	app.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var cur notice.Current
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cur))
	assert.Equal(t, app.conf.Notice.Items, cur.Items)
	require.True(t, cur.Index >= 0 && cur.Index < len(cur.Items))
	assert.Equal(t, cur.Items[cur.Index], cur.Text)
	assert.False(t, cur.NextAt.IsZero())
}

func Test_home(t *testing.T) {
	app := setup(t)

	req, rec := newRequest(http.MethodGet, "/")
	app.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to "+app.conf.AppName+" API!", rec.Body.String())

	// trailing slashes are ignored
	req, rec = newRequest(http.MethodGet, "/v1/notices/")
	app.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
