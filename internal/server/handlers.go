package server

import (
	"net/http"

	"github.com/aristath/hedgefund/internal/httpx"
)

// ServiceInfo is the response of GET /
type ServiceInfo struct {
	Name          string `json:"name"`
	Version       string `json:"version"`
	Description   string `json:"description"`
	Documentation string `json:"documentation"`
}

// handleRoot describes the service
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	httpx.Write(w, r, http.StatusOK, ServiceInfo{
		Name:          ServiceName,
		Version:       ServiceVersion,
		Description:   ServiceDescription,
		Documentation: "/docs",
	}, s.log)
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httpx.Write(w, r, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"version": ServiceVersion,
		"service": "hedgefund",
	}, s.log)
}
