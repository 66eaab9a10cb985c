package commands

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/EbbDrop/Perma/pkg/core/services"
	"github.com/EbbDrop/Perma/pkg/db"
	"github.com/EbbDrop/Perma/pkg/ics"
)

// ServeCmd creates the serve command, exposing the published schedule as an
// iCalendar feed over HTTP
func ServeCmd(app *AppContext) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve calendar feeds for the published schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = app.Cfg.ListenAddr
			}
			if addr == "" {
				addr = ":8080"
			}

			mux := http.NewServeMux()
			mux.HandleFunc("/calendar.ics", func(w http.ResponseWriter, r *http.Request) {
				serveCalendar(app, w, r)
			})

			app.Logger.Info("Serving calendar feeds", zap.String("addr", addr))
			server := &http.Server{
				Addr:         addr,
				Handler:      mux,
				ReadTimeout:  10 * time.Second,
				WriteTimeout: 10 * time.Second,
			}
			return server.ListenAndServe()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (defaults to the configured listenAddr)")
	return cmd
}

// serveCalendar handles one feed request. Feeds are keyed by group and user
// id; all=1 widens the feed from the user's own slots to the whole group.
func serveCalendar(app *AppContext, w http.ResponseWriter, r *http.Request) {
	groupID := r.URL.Query().Get("group")
	userID := r.URL.Query().Get("user")
	all := r.URL.Query().Get("all") == "1"

	data, err := services.SlotsForCalendar(r.Context(), app.Database, app.Logger, groupID, userID)
	if err != nil {
		if errors.Is(err, db.ErrInvalidReference) {
			http.Error(w, "unknown calendar", http.StatusNotFound)
			return
		}
		app.Logger.Error("Calendar request failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	cal := buildCalendar(data, all)
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	if err := ics.Encode(w, cal, time.Now()); err != nil {
		app.Logger.Error("Failed to write calendar", zap.Error(err))
	}
}

// buildCalendar turns the published schedule into an iCalendar feed. The
// personal feed keeps only the user's own slots and drops performer names
// from the summaries; slots with a hidden time of day become all-day events.
func buildCalendar(data *services.CalendarData, all bool) ics.Calendar {
	cal := ics.Calendar{Name: data.Group.Name}
	if !all {
		cal.Name = fmt.Sprintf("%s: %s", data.Group.Name, data.User.Name)
	}

	for _, cs := range data.Slots {
		if !all && !cs.Mine {
			continue
		}
		summary := cs.Slot.Name
		if all && cs.PerformerName != "" {
			summary = fmt.Sprintf("%s (%s)", cs.PerformerName, cs.Slot.Name)
		}
		cal.Events = append(cal.Events, ics.Event{
			UID:     cs.Slot.ID,
			Summary: summary,
			Start:   cs.Slot.Start,
			End:     cs.Slot.End,
			AllDay:  !cs.Slot.ShowTime,
		})
	}
	return cal
}
