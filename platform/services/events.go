package services

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"nipeihu_platform/platform/auth"
	"nipeihu_platform/platform/realtime"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

// EventService streams committed row changes to clients over server sent
// events, so open consoles see stock and status changes without polling.
type EventService struct {
	db       *gorm.DB
	hub      *realtime.Hub
	userAuth auth.IdentityProvider
}

func (s *EventService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(s.userAuth.AuthMiddleware()...)

		r.Get("/stream", s.Stream)
	})

	return r
}

// streamFilters builds subscription filters from the query string:
// ?tables=products,shipments&columns=stock_quantity
func streamFilters(r *http.Request) []realtime.Filter {
	tablesParam := r.URL.Query().Get("tables")
	if tablesParam == "" {
		return nil
	}

	var columns []string
	if columnsParam := r.URL.Query().Get("columns"); columnsParam != "" {
		columns = strings.Split(columnsParam, ",")
	}

	var filters []realtime.Filter
	for _, table := range strings.Split(tablesParam, ",") {
		filters = append(filters, realtime.Filter{Table: table, Columns: columns})
	}
	return filters
}

func (s *EventService) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming is not supported", http.StatusInternalServerError)
		return
	}

	sub := s.hub.Subscribe(streamFilters(r)...)
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, open := <-sub.C:
			if !open {
				// the hub dropped this subscriber or shut down
				return
			}
			payload, err := json.Marshal(event)
			if err != nil {
				slog.Error("error serializing realtime event", "error", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "event: change\ndata: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
