// Package handlers provides HTTP API request handlers.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/peer-rendezvous/backend/internal/admission"
	"github.com/peer-rendezvous/backend/internal/registry"
	"github.com/peer-rendezvous/backend/internal/ws"
)

// SignalingHandler handles the WebSocket connect endpoint and the
// discovery helpers around it.
type SignalingHandler struct {
	admitter       *admission.Admitter
	registry       *registry.Registry
	allowDiscovery bool
}

// NewSignalingHandler creates a new SignalingHandler.
func NewSignalingHandler(admitter *admission.Admitter, reg *registry.Registry, allowDiscovery bool) *SignalingHandler {
	return &SignalingHandler{
		admitter:       admitter,
		registry:       reg,
		allowDiscovery: allowDiscovery,
	}
}

// Connect handles GET <base>/ws - admits a peer connection.
// Credentials travel as query parameters; rejections are answered with
// an error frame on the upgraded socket, not an HTTP status.
func (h *SignalingHandler) Connect(c *gin.Context) {
	conn, err := ws.Upgrade(c.Writer, c.Request)
	if err != nil {
		// Upgrade already wrote the HTTP error
		return
	}

	client := ws.NewClient(conn)
	go client.WritePump()

	params := admission.Params{
		ID:    c.Query("id"),
		Token: c.Query("token"),
		Key:   c.Query("key"),
	}

	if _, err := h.admitter.Admit(client, params); err != nil {
		// Rejected: the error frame is queued and the client closed;
		// the write pump flushes and drops the socket.
		return
	}

	go client.ReadPump()
}

// MintID handles GET <base>/id - returns a fresh peer identifier.
func (h *SignalingHandler) MintID(c *gin.Context) {
	c.String(http.StatusOK, uuid.New().String())
}

// Peers handles GET <base>/peers - lists live peer identifiers when
// discovery is enabled.
func (h *SignalingHandler) Peers(c *gin.Context) {
	if !h.allowDiscovery {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "discovery is disabled"})
		return
	}
	c.JSON(http.StatusOK, h.registry.LiveIDs())
}

// RegisterRoutes registers the signaling routes on a Gin router group.
func (h *SignalingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/ws", h.Connect)
	rg.GET("/id", h.MintID)
	rg.GET("/peers", h.Peers)
}
