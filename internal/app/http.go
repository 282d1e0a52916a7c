package app

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ykvlv/reminder-bot/internal/scheduler"
)

// scheduleSource is the read side of the scheduler.
type scheduleSource interface {
	Len() int
	Snapshot() []scheduler.Entry
}

type scheduleDump struct {
	Keys int               `json:"keys"`
	Jobs []scheduler.Entry `json:"jobs"`
}

// newHTTPHandler builds the ops router: health, Prometheus metrics and the
// live schedule dump.
func newHTTPHandler(sched scheduleSource, gatherer prometheus.Gatherer) http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	debug := router.PathPrefix("/debug").Subrouter()
	debug.HandleFunc("/schedule", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, scheduleDump{Keys: sched.Len(), Jobs: nonNil(sched.Snapshot())})
	}).Methods(http.MethodGet)
	debug.HandleFunc("/schedule/{chat_id:-?[0-9]+}", func(w http.ResponseWriter, r *http.Request) {
		chatID, err := strconv.ParseInt(mux.Vars(r)["chat_id"], 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid chat id"})
			return
		}
		jobs := []scheduler.Entry{}
		keys := map[string]struct{}{}
		for _, e := range sched.Snapshot() {
			if e.ChatID == chatID {
				jobs = append(jobs, e)
				keys[e.Time] = struct{}{}
			}
		}
		writeJSON(w, http.StatusOK, scheduleDump{Keys: len(keys), Jobs: jobs})
	}).Methods(http.MethodGet)

	return router
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func nonNil(entries []scheduler.Entry) []scheduler.Entry {
	if entries == nil {
		return []scheduler.Entry{}
	}
	return entries
}
