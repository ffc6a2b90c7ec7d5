// Read-only HTTP API: search, tool lookup, feeds and speeds, sitemap.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/apex/log"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/hzeller/tooldb/feeds"
	"github.com/hzeller/tooldb/tooldb"
)

const (
	kApiSearch    = "/api/search"
	kApiTool      = "/api/tool"
	kApiFeeds     = "/api/feeds"
	kApiLibraries = "/api/libraries"
	kSitemap      = "/sitemap.txt"
	kMetrics      = "/metrics"

	kDefaultOutLen = 20
	kMaxOutLen     = 100
)

type server struct {
	db         *tooldb.ToolDB
	engine     *feeds.Engine
	siteprefix string

	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	recommendations *prometheus.CounterVec
}

func newServer(db *tooldb.ToolDB, engine *feeds.Engine, siteprefix string) *server {
	s := &server{
		db:         db,
		engine:     engine,
		siteprefix: siteprefix,
		registry:   prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tooldb",
			Name:      "http_requests_total",
			Help:      "HTTP requests by handler, status code and method.",
		}, []string{"handler", "code", "method"}),
		recommendations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tooldb",
			Name:      "feeds_recommendations_total",
			Help:      "Feeds and speeds recommendations by material and operation.",
		}, []string{"material", "operation"}),
	}
	s.registry.MustRegister(
		s.requests,
		s.recommendations,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "tooldb",
			Name:      "tools",
			Help:      "Number of tools served.",
		}, func() float64 { return float64(db.NumTools()) }),
		collectors.NewGoCollector(),
	)
	return s
}

// Handler returns the mux with all endpoints.
func (s *server) Handler() http.Handler {
	mux := http.NewServeMux()
	handle := func(path, name string, h http.HandlerFunc) {
		counter := s.requests.MustCurryWith(prometheus.Labels{"handler": name})
		mux.Handle(path, promhttp.InstrumentHandlerCounter(counter, h))
	}
	handle(kApiSearch, "search", s.apiSearch)
	handle(kApiTool, "tool", s.apiTool)
	handle(kApiFeeds, "feeds", s.apiFeeds)
	handle(kApiLibraries, "libraries", s.apiLibraries)
	handle(kSitemap, "sitemap", s.sitemap)
	mux.Handle(kMetrics, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return mux
}

type JsonTool struct {
	ID      string         `json:"id"`
	Label   string         `json:"label"`
	Shape   string         `json:"shape"`
	Library string         `json:"library"`
	Pocket  int            `json:"pocket"`
	Params  map[string]any `json:"params"`
	Link    string         `json:"link"`
}

type JsonApiSearchResult struct {
	Directlink string     `json:"link"`
	Count      int        `json:"count"`
	Items      []JsonTool `json:"tools"`
}

type JsonLibrary struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Tools int    `json:"tools"`
}

type JsonError struct {
	Error string `json:"error"`
}

func (s *server) toolLink(t *tooldb.Tool) string {
	return s.siteprefix + kApiTool + "?" + url.Values{"id": {t.ID}}.Encode()
}

func (s *server) jsonTool(t *tooldb.Tool) JsonTool {
	result := JsonTool{
		ID:     t.ID,
		Label:  t.Label,
		Shape:  t.Shape,
		Params: t.Params,
		Link:   s.toolLink(t),
	}
	if lib, err := s.db.LibraryOf(t); err == nil {
		result.Library = lib.Label
		result.Pocket, _ = lib.Pocket(t)
	}
	return result
}

func writeJSON(out http.ResponseWriter, status int, v any) {
	content, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		http.Error(out, err.Error(), http.StatusInternalServerError)
		return
	}
	out.Header().Set("Content-Type", "application/json")
	out.WriteHeader(status)
	out.Write(content)
}

func writeError(out http.ResponseWriter, status int, err error) {
	writeJSON(out, status, &JsonError{Error: err.Error()})
}

func (s *server) apiSearch(out http.ResponseWriter, r *http.Request) {
	defer tooldb.ElapsedPrint("Query", time.Now())
	// Allow very brief caching, so that editing the query does not
	// necessarily has to trigger a new server roundtrip.
	out.Header().Set("Cache-Control", "max-age=10")
	query := r.FormValue("q")
	limit, _ := strconv.Atoi(r.FormValue("count"))
	if limit <= 0 {
		limit = kDefaultOutLen
	}
	if limit > kMaxOutLen {
		limit = kMaxOutLen
	}
	var searchResults []*tooldb.Tool
	if query != "" {
		searchResults = s.db.Search(query)
	}
	outlen := min(limit, len(searchResults))
	result := &JsonApiSearchResult{
		Directlink: s.siteprefix + kApiSearch + "?" + url.Values{"q": {query}}.Encode(),
		Count:      len(searchResults),
		Items:      make([]JsonTool, outlen),
	}
	for i := 0; i < outlen; i++ {
		result.Items[i] = s.jsonTool(searchResults[i])
	}
	writeJSON(out, http.StatusOK, result)
}

func (s *server) apiTool(out http.ResponseWriter, r *http.Request) {
	t, err := s.db.GetTool(r.FormValue("id"))
	if err != nil {
		writeError(out, http.StatusNotFound, err)
		return
	}
	writeJSON(out, http.StatusOK, s.jsonTool(t))
}

func (s *server) apiLibraries(out http.ResponseWriter, r *http.Request) {
	libs := s.db.SortedLibraries()
	result := make([]JsonLibrary, len(libs))
	for i, lib := range libs {
		result[i] = JsonLibrary{ID: lib.ID, Label: lib.Label, Tools: lib.Len()}
	}
	writeJSON(out, http.StatusOK, result)
}

// feedsStatus maps recommendation errors to HTTP status codes.
func feedsStatus(err error) int {
	switch {
	case errors.Is(err, feeds.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, feeds.ErrMissingData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, feeds.ErrInvalidQuery):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// apiFeeds answers /api/feeds?material=..&tool=..&op=..&d=..[&flutes=..][&mrr=..]
func (s *server) apiFeeds(out http.ResponseWriter, r *http.Request) {
	q, err := parseQuery([]string{r.FormValue("material"), r.FormValue("tool"),
		r.FormValue("op"), r.FormValue("d")})
	if err != nil {
		writeError(out, feedsStatus(err), err)
		return
	}
	q.Flutes = 2
	if v := r.FormValue("flutes"); v != "" {
		if q.Flutes, err = strconv.Atoi(v); err != nil {
			writeError(out, http.StatusBadRequest, fmt.Errorf("%w: flutes %q", feeds.ErrInvalidQuery, v))
			return
		}
	}
	if v := r.FormValue("mrr"); v != "" {
		if q.RemovalRate, err = strconv.ParseFloat(v, 64); err != nil {
			writeError(out, http.StatusBadRequest, fmt.Errorf("%w: mrr %q", feeds.ErrInvalidQuery, v))
			return
		}
	}
	rec, err := s.engine.Recommend(q)
	if err != nil {
		writeError(out, feedsStatus(err), err)
		return
	}
	s.recommendations.WithLabelValues(rec.Material, string(rec.Operation)).Inc()
	writeJSON(out, http.StatusOK, rec)
}

func (s *server) sitemap(out http.ResponseWriter, r *http.Request) {
	out.Header().Set("Content-Type", "text/plain; charset=utf-8")
	for t := range s.db.GetTools() {
		fmt.Fprintln(out, s.toolLink(t))
	}
}

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "serve the tool database over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			if err := a.v.BindPFlag("serve.port", cmd.Flags().Lookup("port")); err != nil {
				return err
			}
			db, _, err := a.load()
			if err != nil {
				return err
			}
			engine, err := newEngine(a.v)
			if err != nil {
				return err
			}
			s := newServer(db, engine, a.v.GetString("serve.site-prefix"))

			port := a.v.GetInt("serve.port")
			httpServer := &http.Server{
				Addr:              fmt.Sprintf(":%d", port),
				Handler:           s.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				httpServer.Shutdown(shutdownCtx)
			}()

			log.Infof("Listening on :%d", port)
			if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().Int("port", 2000, "port to serve from")
	return cmd
}
