package cmd

/*
Copyright © 2019 NAME HERE <EMAIL ADDRESS>

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

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/francois-poidevin/flighttracker-co2/internal"
	"github.com/francois-poidevin/flighttracker-co2/internal/app"
	"github.com/francois-poidevin/flighttracker-co2/internal/app/service"
	"github.com/francois-poidevin/flighttracker-co2/internal/app/tools"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var autostart bool

// apiServer drives one worker at a time and serves its live set.
type apiServer struct {
	board *service.Service
	run   func(ctx context.Context, board app.Sinker) error

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

type tracksResponse struct {
	Bbox     *tools.Bbox       `json:"bbox,omitempty"`
	Updated  time.Time         `json:"updated"`
	NbTracks int               `json:"nbTracks"`
	Tracks   []app.TrackRecord `json:"tracks"`
}

type statsResponse struct {
	Bbox         *tools.Bbox `json:"bbox,omitempty"`
	Updated      time.Time   `json:"updated"`
	ObservedTime string      `json:"observedTime"`
	Stats        app.Stats   `json:"stats"`
}

// startHttpCmd represents the startHttp command
var startHttpCmd = &cobra.Command{
	Use:   "startHttp",
	Short: "Start the REST API service around the tracking",
	Long: `The HTTP Rest API service start with config parameters. Endpoints:
  GET /api/v1/start                 start the tracking
  GET /api/v1/stop                  stop the tracking
  GET /api/v1/tracks?bbox=SW^NE     live tracks, optionally inside a viewport
  GET /api/v1/stats?bbox=SW^NE      statistics, optionally inside a viewport`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		bindFlags(cmd)
		initConfig()

		s := newAPIServer(func(ctx context.Context, board app.Sinker) error {
			return internal.Execute(ctx, log, *conf, board)
		})
		if autostart {
			s.start(ctx)
		}

		srv := &http.Server{
			Addr:    conf.Http.Listen,
			Handler: s.newRouter(),
		}
		go func() {
			log.WithContext(ctx).WithFields(logrus.Fields{
				"listen": conf.Http.Listen,
			}).Info("REST API listening")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.WithContext(ctx).WithFields(logrus.Fields{
					"Error": err,
				}).Fatal("REST API stopped")
			}
		}()

		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithContext(ctx).WithFields(logrus.Fields{
				"Error": err,
			}).Error("Unable to shutdown REST API")
		}
		s.stop()
	},
}

func init() {
	startHttpCmd.Flags().BoolVar(&autostart, "autostart", false, "start tracking without waiting for /api/v1/start")
	startHttpCmd.Flags().String("listen", ":8080", "REST API listen address")
}

func newAPIServer(run func(ctx context.Context, board app.Sinker) error) *apiServer {
	return &apiServer{
		board: service.New(log),
		run:   run,
	}
}

func (s *apiServer) newRouter() *mux.Router {
	r := mux.NewRouter()

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/start", s.startService).Methods(http.MethodGet)
	api.HandleFunc("/stop", s.stopService).Methods(http.MethodGet)
	api.HandleFunc("/tracks", s.tracksService).Methods(http.MethodGet)
	api.HandleFunc("/stats", s.statsService).Methods(http.MethodGet)
	return r
}

func (s *apiServer) running() bool {
	if s.done == nil {
		return false
	}
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

// start launches a worker unless one is running. It reports whether it did.
func (s *apiServer) start(parent context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running() {
		return false
	}

	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})
	s.cancel, s.done = cancel, done
	go func() {
		defer close(done)
		if errExec := s.run(ctx, s.board); errExec != nil {
			log.WithContext(ctx).WithFields(logrus.Fields{
				"Error": errExec,
			}).Error("Error in Execute processing")
		}
	}()
	return true
}

// stop cancels the running worker and waits for its sinkers to be closed.
func (s *apiServer) stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running() {
		return false
	}
	s.cancel()
	<-s.done
	return true
}

//Start collecting service
func (s *apiServer) startService(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if s.start(context.Background()) {
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte(`{"message": "start tracking service called"}`))
		return
	}
	w.WriteHeader(http.StatusForbidden)
	w.Write([]byte(`{"message": "tracking service already processing"}`))
}

//Stop collecting service
func (s *apiServer) stopService(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if s.stop() {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"message": "stop tracking service called and done"}`))
		return
	}
	w.WriteHeader(http.StatusForbidden)
	w.Write([]byte(`{"message": "tracking service is not processing currently"}`))
}

// viewport reads the optional bbox parameter; without it the whole live set is used.
func viewport(r *http.Request) (*tools.Bbox, error) {
	bboxParam := r.URL.Query().Get("bbox")
	if bboxParam == "" {
		return nil, nil
	}
	bbox, err := tools.GetBbox(bboxParam)
	if err != nil {
		return nil, err
	}
	return &bbox, nil
}

//Live tracks inside the viewport
func (s *apiServer) tracksService(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	bbox, errBBox := viewport(r)
	if errBBox != nil {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(fmt.Sprintf(`{"message": "bbox have to be well formatted (%s)"}`, errBBox.Error())))
		return
	}

	result := s.board.Search(r.Context(), bbox)
	writeJSON(w, tracksResponse{
		Bbox:     bbox,
		Updated:  result.Updated,
		NbTracks: len(result.Tracks),
		Tracks:   result.Tracks,
	})
}

//Statistics of the viewport
func (s *apiServer) statsService(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	bbox, errBBox := viewport(r)
	if errBBox != nil {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(fmt.Sprintf(`{"message": "bbox have to be well formatted (%s)"}`, errBBox.Error())))
		return
	}

	result := s.board.Search(r.Context(), bbox)
	writeJSON(w, statsResponse{
		Bbox:         bbox,
		Updated:      result.Updated,
		ObservedTime: tools.FormatObservedTime(result.Stats),
		Stats:        result.Stats,
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	result, errJsonMarshal := json.Marshal(v)
	if errJsonMarshal != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(fmt.Sprintf(`{"message": "internal server error (%s)"}`, errJsonMarshal.Error())))
		return
	}
	w.Write(result)
}
