package server

import (
	"bytes"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RodgersLuo/DeepBind-code/internal/backend/cpu"
	"github.com/RodgersLuo/DeepBind-code/internal/jobfile"
	"github.com/RodgersLuo/DeepBind-code/internal/logger"
	"github.com/RodgersLuo/DeepBind-code/internal/reference"
	"github.com/RodgersLuo/DeepBind-code/internal/runner"
	"github.com/RodgersLuo/DeepBind-code/internal/tensor"
)

func newTestEcho() *echo.Echo {
	r := runner.New(cpu.New(), reference.DefaultTolerance(tensor.Float32))
	e := echo.New()
	New(r, logger.Discard()).Register(e)
	return e
}

func doJSON(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func jobBody(t *testing.T) string {
	t.Helper()
	rng := rand.New(rand.NewSource(1))
	job := jobfile.Random(rng, jobfile.Shape{Lengths: []int{6, 9, 2}, NFilter: 2, FilterSize: 4, NChannel: 4, SentinelRate: 0.1})
	var buf bytes.Buffer
	require.NoError(t, jobfile.Encode(&buf, job))
	return buf.String()
}

func TestHealth(t *testing.T) {
	t.Parallel()
	rec := doJSON(t, newTestEcho(), http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var h Health
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &h))
	assert.Equal(t, Health{Status: "ok", Backend: "CPU"}, h)
}

func TestFilterGrad(t *testing.T) {
	t.Parallel()
	body := `{"id":"two","filter_size":3,"nchannel":4,"nfilter":1,
		"samples":[0,1,2,3,1,2,2,0,3,1],"delta":[1,1,1,1,1,1,1,1,1,1],"segments":[5,10]}`
	rec := doJSON(t, newTestEcho(), http.MethodPost, "/v1/filter-grad", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	var res jobfile.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "two", res.ID)
	assert.Equal(t, []int{1, 3, 4}, res.Shape)

	// Offset 0 counts every code once per sequence: 0 1 2 3 1 | 2 2 0 3 1.
	assert.Equal(t, []float32{2, 3, 3, 2}, res.Grad[:4])
	var total float32
	for _, v := range res.Grad {
		total += v
	}
	// Each length-5 sequence reads 5+4+3 in-range codes.
	assert.Equal(t, float32(24), total)
}

func TestCheck(t *testing.T) {
	t.Parallel()
	rec := doJSON(t, newTestEcho(), http.MethodPost, "/v1/check", jobBody(t))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var rep jobfile.CheckReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	assert.True(t, rep.OK)
	assert.Equal(t, 32, rep.N)
	assert.Equal(t, -1, rep.FirstMismatch)
}

func TestInvalidJobs(t *testing.T) {
	t.Parallel()
	e := newTestEcho()

	tests := []struct {
		name string
		path string
		body string
	}{
		{"malformed", "/v1/filter-grad", `{"filter_size":`},
		{"unknown field", "/v1/filter-grad", `{"bogus":1}`},
		{"bad segments", "/v1/filter-grad", `{"filter_size":2,"nchannel":4,"nfilter":1,"samples":[0,1],"delta":[1,1],"segments":[3]}`},
		{"bad nchannel", "/v1/check", `{"filter_size":2,"nchannel":0,"nfilter":1,"samples":[0,1],"delta":[1,1]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, e, http.MethodPost, tt.path, tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

			var body struct {
				Error ErrorBody `json:"error"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "invalid_argument", body.Error.Type)
			assert.Contains(t, body.Error.Message, "invalid argument")
		})
	}
}

func TestMetrics(t *testing.T) {
	t.Parallel()
	e := newTestEcho()
	rec := doJSON(t, e, http.MethodPost, "/v1/filter-grad", jobBody(t))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, e, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `seqgrad_jobs_total{backend="CPU",outcome="ok"}`)
}

func TestBodyLimit(t *testing.T) {
	t.Parallel()
	r := runner.New(cpu.New(), reference.DefaultTolerance(tensor.Float32))
	e := echo.New()
	New(r, logger.Discard()).WithBodyLimit(64).Register(e)

	body := jobBody(t)
	require.Greater(t, len(body), 64)
	for _, path := range []string{"/v1/filter-grad", "/v1/check"} {
		rec := doJSON(t, e, http.MethodPost, path, body)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code, path)
	}

	// The default limit admits the same job.
	rec := doJSON(t, newTestEcho(), http.MethodPost, "/v1/filter-grad", body)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}
