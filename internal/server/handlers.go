package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/masterstat/internal/models"
	"github.com/woozymasta/masterstat/internal/vars"
)

// handleServers returns every stored server as JSON.
func (s *Server) handleServers(w http.ResponseWriter, _ *http.Request) {
	servers, err := s.storage.GetServers()
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch servers")
		http.Error(w, "Database Error", http.StatusInternalServerError)
		return
	}

	if servers == nil {
		servers = []models.Server{}
	}

	writeJSON(w, http.StatusOK, servers)
}

// handleGetServer returns one stored server.
// Query params: ?ip=1.2.3.4&port=27500
func (s *Server) handleGetServer(w http.ResponseWriter, r *http.Request) {
	ip, port, err := serverParams(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	server, err := s.storage.GetServer(ip, port)
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch server")
		http.Error(w, "Database Error", http.StatusInternalServerError)
		return
	}

	if server == nil {
		http.NotFound(w, r)
		return
	}

	writeJSON(w, http.StatusOK, server)
}

// handleDeleteServer removes one stored server.
// Query params: ?ip=1.2.3.4&port=27500
func (s *Server) handleDeleteServer(w http.ResponseWriter, r *http.Request) {
	ip, port, err := serverParams(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.storage.DeleteServer(ip, port); err != nil {
		log.Error().Err(err).
			Str("ip", ip).
			Uint16("port", port).
			Msg("Failed to delete server")

		http.Error(w, "Database Error", http.StatusInternalServerError)
		return
	}

	log.Info().
		Str("ip", ip).
		Uint16("port", port).
		Msg("Server deleted manually")

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "Server deleted"})
}

// handleMasters returns the last query status of every master.
func (s *Server) handleMasters(w http.ResponseWriter, _ *http.Request) {
	masters, err := s.storage.GetMasters()
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch masters")
		http.Error(w, "Database Error", http.StatusInternalServerError)
		return
	}

	if masters == nil {
		masters = []models.Master{}
	}

	writeJSON(w, http.StatusOK, masters)
}

func handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, vars.Info())
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func serverParams(r *http.Request) (string, uint16, error) {
	ip := r.URL.Query().Get("ip")
	portStr := r.URL.Query().Get("port")

	if ip == "" || portStr == "" {
		return "", 0, errors.New("missing required params (ip, port)")
	}

	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return "", 0, errors.New("invalid port")
	}

	return ip, uint16(port), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
