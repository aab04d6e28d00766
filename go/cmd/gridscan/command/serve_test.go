/*
Copyright 2026 The Gridsql Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package command

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridsql.io/gridsql/go/vt/sqlexec/worker"
	"gridsql.io/gridsql/go/vt/vterrors"
	"gridsql.io/gridsql/go/vt/vtrpc"
)

func newTestAPI(t *testing.T, opts Options) *httptest.Server {
	t.Helper()
	pool := worker.NewPool(2)
	srv := httptest.NewServer(NewAPI(newTestNode(t), pool, opts))
	t.Cleanup(func() {
		srv.Close()
		pool.Close()
	})
	return srv
}

type apiReply struct {
	Result json.RawMessage `json:"result"`
	Error  *errorResponse  `json:"error"`
	Ok     bool            `json:"ok"`
}

func call(t *testing.T, method, u string, body io.Reader) (int, apiReply) {
	t.Helper()
	req, err := http.NewRequest(method, u, body)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var reply apiReply
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&reply))
	return resp.StatusCode, reply
}

func TestAPI(t *testing.T) {
	srv := newTestAPI(t, Options{})

	status, reply := call(t, http.MethodPost, srv.URL+"/api/maps/orders/entries", strings.NewReader(orders))
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"documents": 4, "bytes": 191}`, string(reply.Result))

	status, reply = call(t, http.MethodGet, srv.URL+"/api/maps", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `["orders"]`, string(reply.Result))

	q := url.Values{}
	q.Set("where", "this.customer = $1")
	q.Set("project", "this.amount:BIGINT")
	q.Add("arg", "ann")
	status, reply = call(t, http.MethodGet, srv.URL+"/api/maps/orders/scan?"+q.Encode(), nil)
	require.Equal(t, http.StatusOK, status)
	var res struct {
		Columns []string  `json:"columns"`
		Rows    [][]int64 `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(reply.Result, &res))
	assert.Equal(t, []string{"this.amount:BIGINT"}, res.Columns)
	assert.ElementsMatch(t, [][]int64{{500}, {50}}, res.Rows)

	q = url.Values{}
	q.Set("partitions", "0-3")
	q.Set("where", "this.amount > 100")
	status, reply = call(t, http.MethodGet, srv.URL+"/api/maps/orders/plan?"+q.Encode(), nil)
	require.Equal(t, http.StatusOK, status)
	var plan planResponse
	require.NoError(t, json.Unmarshal(reply.Result, &plan))
	assert.Equal(t, "MapScan(Filter=this.amount > 100, Map=orders, Partitions={0,1,2,3}, Projections=[__key, this])\n", plan.Text)
	assert.Contains(t, plan.Tree, "MapScan(Filter=this.amount > 100")
	assert.Equal(t, "MapScan", plan.Plan.OperatorType)
}

func TestAPIRateLimit(t *testing.T) {
	srv := newTestAPI(t, Options{RateLimit: 0.001, Burst: 1, DisableCompression: true})

	status, _ := call(t, http.MethodGet, srv.URL+"/api/maps", nil)
	assert.Equal(t, http.StatusOK, status)
	status, reply := call(t, http.MethodGet, srv.URL+"/api/maps", nil)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "RESOURCE_EXHAUSTED", reply.Error.Code)
}

func TestAPICompression(t *testing.T) {
	srv := newTestAPI(t, Options{})

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/maps", nil)
	require.NoError(t, err)
	req.Header.Set("Accept-Encoding", "gzip")
	resp, err := http.DefaultTransport.RoundTrip(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "gzip", resp.Header.Get("Content-Encoding"))
}

func TestAPIErrors(t *testing.T) {
	srv := newTestAPI(t, Options{})

	status, reply := call(t, http.MethodGet, srv.URL+"/api/maps/nope/scan", nil)
	assert.Equal(t, http.StatusNotFound, status)
	require.NotNil(t, reply.Error)
	assert.False(t, reply.Ok)
	assert.Equal(t, "NOT_FOUND", reply.Error.Code)
	assert.Equal(t, vterrors.SetupFailed.String(), reply.Error.State)

	status, reply = call(t, http.MethodGet, srv.URL+"/api/maps/nope/scan?where="+url.QueryEscape("a >"), nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_ARGUMENT", reply.Error.Code)

	status, reply = call(t, http.MethodPost, srv.URL+"/api/maps/orders/entries?key_field=sku", strings.NewReader(orders))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "line 1: document has no key field", reply.Error.Message)
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestAPI(t, Options{})

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, "ok\n", string(body))

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHTTPStatus(t *testing.T) {
	testcases := []struct {
		err  error
		want int
	}{
		{err: nil, want: http.StatusOK},
		{err: vterrors.Errorf(vtrpc.Code_ALREADY_EXISTS, "x"), want: http.StatusConflict},
		{err: vterrors.Errorf(vtrpc.Code_UNAVAILABLE, "x"), want: http.StatusServiceUnavailable},
		{err: vterrors.Errorf(vtrpc.Code_DATA_LOSS, "x"), want: http.StatusInternalServerError},
		{err: errors.New("plain"), want: http.StatusInternalServerError},
	}
	for _, tc := range testcases {
		assert.Equal(t, tc.want, NewJSONResponse(nil, tc.err).httpStatus, "%v", tc.err)
	}
}
