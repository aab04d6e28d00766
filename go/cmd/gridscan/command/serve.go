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
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"gridsql.io/gridsql/go/stats/prometheusbackend"
	"gridsql.io/gridsql/go/viperutil"
	"gridsql.io/gridsql/go/vt/log"
	"gridsql.io/gridsql/go/vt/sqlexec/engine"
	"gridsql.io/gridsql/go/vt/sqlexec/node"
	"gridsql.io/gridsql/go/vt/sqlexec/worker"
	"gridsql.io/gridsql/go/vt/vterrors"
	"gridsql.io/gridsql/go/vt/vtrpc"
)

// JSONResponse is the body of every API reply.
type JSONResponse struct {
	Result     any            `json:"result"`
	Error      *errorResponse `json:"error,omitempty"`
	Ok         bool           `json:"ok"`
	httpStatus int
}

type errorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	State   string `json:"state,omitempty"`
}

// NewJSONResponse returns a response carrying value, or err when it is
// not nil.
func NewJSONResponse(value any, err error) *JSONResponse {
	if err != nil {
		code := vterrors.Code(err)
		resp := &JSONResponse{
			Error:      &errorResponse{Message: err.Error(), Code: code.String()},
			httpStatus: httpStatus(code),
		}
		if state := vterrors.ErrState(err); state != vterrors.Undefined {
			resp.Error.State = state.String()
		}
		return resp
	}
	return &JSONResponse{Result: value, Ok: true, httpStatus: http.StatusOK}
}

// WithHTTPStatus forces the status code of the response.
func (r *JSONResponse) WithHTTPStatus(code int) *JSONResponse {
	r.httpStatus = code
	return r
}

// Write marshals the response onto w.
func (r *JSONResponse) Write(w http.ResponseWriter) {
	b, err := json.Marshal(r)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(err.Error()))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(r.httpStatus)
	_, _ = w.Write(b)
}

func httpStatus(code vtrpc.Code) int {
	switch code {
	case vtrpc.Code_OK:
		return http.StatusOK
	case vtrpc.Code_INVALID_ARGUMENT, vtrpc.Code_FAILED_PRECONDITION, vtrpc.Code_OUT_OF_RANGE:
		return http.StatusBadRequest
	case vtrpc.Code_NOT_FOUND:
		return http.StatusNotFound
	case vtrpc.Code_ALREADY_EXISTS:
		return http.StatusConflict
	case vtrpc.Code_PERMISSION_DENIED:
		return http.StatusForbidden
	case vtrpc.Code_UNIMPLEMENTED:
		return http.StatusNotImplemented
	case vtrpc.Code_RESOURCE_EXHAUSTED:
		return http.StatusTooManyRequests
	case vtrpc.Code_UNAVAILABLE:
		return http.StatusServiceUnavailable
	case vtrpc.Code_DEADLINE_EXCEEDED:
		return http.StatusGatewayTimeout
	case vtrpc.Code_CANCELED:
		return 499
	}
	return http.StatusInternalServerError
}

// handler is an API route: it gets the request and returns the reply.
type handler func(ctx context.Context, r *http.Request) *JSONResponse

// Options configures the HTTP API.
type Options struct {
	DisableCompression bool
	// RateLimit caps API requests per second. Zero means no limit.
	RateLimit float64
	Burst     int
}

// API serves the maps of one node over HTTP.
type API struct {
	node   *node.NodeEngine
	pool   *worker.Pool
	router *mux.Router
}

// NewAPI returns the API of n, running scans on pool.
func NewAPI(n *node.NodeEngine, pool *worker.Pool, opts Options) *API {
	api := &API{node: n, pool: pool, router: mux.NewRouter()}

	api.router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok\n"))
	})
	api.router.Handle("/metrics", promhttp.Handler())

	router := api.router.PathPrefix("/api").Subrouter()
	router.HandleFunc("/maps", api.adapt(api.listMaps)).Methods(http.MethodGet).Name("API.ListMaps")
	router.HandleFunc("/maps/{map}/entries", api.adapt(api.loadEntries)).Methods(http.MethodPost).Name("API.LoadEntries")
	router.HandleFunc("/maps/{map}/scan", api.adapt(api.scan)).Methods(http.MethodGet).Name("API.Scan")
	router.HandleFunc("/maps/{map}/plan", api.adapt(api.plan)).Methods(http.MethodGet).Name("API.Plan")
	router.HandleFunc("/debug/config", api.adapt(api.config)).Methods(http.MethodGet).Name("API.Config")

	// Middlewares run in order of addition.
	var middlewares []mux.MiddlewareFunc
	if opts.RateLimit > 0 {
		burst := max(opts.Burst, 1)
		middlewares = append(middlewares, rateLimit(rate.NewLimiter(rate.Limit(opts.RateLimit), burst)))
	}
	if !opts.DisableCompression {
		middlewares = append(middlewares, handlers.CompressHandler)
	}
	router.Use(middlewares...)

	return api
}

func rateLimit(limiter *rate.Limiter) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				NewJSONResponse(nil, vterrors.Errorf(vtrpc.Code_RESOURCE_EXHAUSTED, "request rate limit of %v/s exceeded", limiter.Limit())).Write(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ServeHTTP implements http.Handler.
func (api *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	api.router.ServeHTTP(w, r)
}

func (api *API) adapt(h handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h(r.Context(), r).Write(w)
	}
}

func (api *API) listMaps(ctx context.Context, r *http.Request) *JSONResponse {
	return NewJSONResponse(api.node.MapService().MapNames(), nil)
}

func (api *API) loadEntries(ctx context.Context, r *http.Request) *JSONResponse {
	keyField := r.URL.Query().Get("key_field")
	if keyField == "" {
		keyField = "id"
	}
	st, err := loadDocuments(ctx, api.node.MapService(), mux.Vars(r)["map"], keyField, r.Body)
	return NewJSONResponse(st, err)
}

func scanRequestFrom(r *http.Request) scanRequest {
	query := r.URL.Query()
	return scanRequest{
		Map:        mux.Vars(r)["map"],
		Partitions: query.Get("partitions"),
		Where:      query.Get("where"),
		Project:    query.Get("project"),
		Args:       query["arg"],
	}
}

func (api *API) scan(ctx context.Context, r *http.Request) *JSONResponse {
	res, err := runScan(ctx, api.pool, api.node, scanRequestFrom(r))
	return NewJSONResponse(res, err)
}

type planResponse struct {
	Text string                 `json:"text"`
	Tree string                 `json:"tree"`
	Plan engine.PlanDescription `json:"plan"`
}

func (api *API) plan(ctx context.Context, r *http.Request) *JSONResponse {
	p, err := scanRequestFrom(r).plan(api.node)
	if err != nil {
		return NewJSONResponse(nil, err)
	}
	return NewJSONResponse(planResponse{Text: engine.Explain(p.Root), Tree: engine.ToTree(p.Root), Plan: engine.ExecToPlanDescription(p.Root)}, nil)
}

func (api *API) config(ctx context.Context, r *http.Request) *JSONResponse {
	return NewJSONResponse(viperutil.AllSettings(), nil)
}

var (
	serveAddr    = ":15000"
	serveTimeout = 30 * time.Second
	serveOptions = Options{Burst: 10}
)

// Serve runs the HTTP API until interrupted.
var Serve = &cobra.Command{
	Use:   "serve",
	Short: "Serves loads and scans of an in-memory node over HTTP.",
	Args:  cobra.NoArgs,
	RunE:  commandServe,
}

func commandServe(cmd *cobra.Command, args []string) error {
	n, err := newNode()
	if err != nil {
		return err
	}
	pool := worker.NewPoolFromFlags()
	defer pool.Close()

	prometheusbackend.Init("gridsql")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              serveAddr,
		Handler:           NewAPI(n, pool, serveOptions),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Infof("serving on %s", serveAddr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), serveTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func init() {
	Serve.Flags().StringVar(&serveAddr, "listen-addr", serveAddr, "address the HTTP API listens on")
	Serve.Flags().DurationVar(&serveTimeout, "shutdown-timeout", serveTimeout, "how long in-flight requests get to finish on shutdown")
	Serve.Flags().BoolVar(&serveOptions.DisableCompression, "disable-compression", serveOptions.DisableCompression, "do not gzip API responses")
	Serve.Flags().Float64Var(&serveOptions.RateLimit, "api-rate-limit", serveOptions.RateLimit, "maximum API requests per second, 0 for no limit")
	Serve.Flags().IntVar(&serveOptions.Burst, "api-burst", serveOptions.Burst, "number of API requests allowed above the rate limit in a burst")

	Root.AddCommand(Serve)
}
