// A local stand-in for the HR user directory. It serves a fixed set of
// employees; emp-0 is a manager.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type employee struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	IsManager bool   `json:"isManager"`
}

func main() {
	count := flag.Int("employees", 5000, "number of employees to serve")
	port := flag.String("port", "8081", "listen port")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	employees := make([]employee, *count)
	byID := make(map[string]employee, *count)
	for i := range employees {
		e := employee{
			ID:        fmt.Sprintf("emp-%d", i),
			Email:     fmt.Sprintf("emp-%d@example.com", i),
			Name:      fmt.Sprintf("Employee %d", i),
			IsManager: i == 0,
		}
		employees[i] = e
		byID[e.ID] = e
	}

	r := mux.NewRouter()
	r.HandleFunc("/users", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, employees)
	}).Methods(http.MethodGet)
	r.HandleFunc("/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		e, ok := byID[mux.Vars(r)["id"]]
		if !ok {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		writeJSON(w, e)
	}).Methods(http.MethodGet)

	log.Info().Int("employees", *count).Str("port", *port).Msg("Directory mock server starting")
	if err := http.ListenAndServe(":"+*port, r); err != nil {
		log.Fatal().Err(err).Msg("listen")
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("encode")
	}
}
