package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/reoring/msgskema/document"
	"github.com/reoring/msgskema/registry"
)

// newStatusRouter serves metrics and the schema currently held by reg.
func newStatusRouter(reg *registry.Registry, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))
	r.Get("/schema", func(w http.ResponseWriter, _ *http.Request) {
		writeDocument(w, document.FromSchema(reg.Get()))
	})
	r.Get("/schema/groups/{name}", func(w http.ResponseWriter, req *http.Request) {
		name := chi.URLParam(req, "name")
		for _, g := range document.FromSchema(reg.Get()).Groups {
			if g.Name == name {
				writeDocument(w, &document.Document{Groups: []document.Group{g}})
				return
			}
		}
		http.Error(w, "unknown group", http.StatusNotFound)
	})
	return r
}

func writeDocument(w http.ResponseWriter, d *document.Document) {
	data, err := d.JSON()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}
