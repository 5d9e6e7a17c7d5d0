package mcp

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/foomo/onenote-mcp/hierarchy"
	"github.com/foomo/onenote-mcp/service"
	"github.com/foomo/onenote-mcp/service/vo"
)

// SSEEvent represents an SSE event structure
type SSEEvent struct {
	ID        string      `json:"id"`
	Event     string      `json:"event"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// SSEClient represents a connected SSE client
type SSEClient struct {
	ID       string
	Writer   http.ResponseWriter
	Flusher  http.Flusher
	Done     chan struct{}
	LastSeen time.Time
}

// SSEServer wraps the MCP server with SSE capabilities for streaming
// hierarchy queries and content transforms.
type SSEServer struct {
	logger       *zap.Logger
	mcpServer    *server.MCPServer
	service      service.Service
	clients      map[string]*SSEClient
	clientsMutex sync.RWMutex
	broadcast    chan SSEEvent
}

// SSEServerConfig holds configuration for the SSE server
type SSEServerConfig struct {
	KeepaliveInterval time.Duration
	BufferSize        int
	ClientTimeout     time.Duration
}

// DefaultSSEServerConfig returns the default configuration for the SSE server
func DefaultSSEServerConfig() *SSEServerConfig {
	return &SSEServerConfig{
		KeepaliveInterval: 30 * time.Second,
		BufferSize:        100,
		ClientTimeout:     60 * time.Second,
	}
}

// NewSSEServer creates a new SSE-capable wrapper around the MCP server
func NewSSEServer(logger *zap.Logger, mcpServer *server.MCPServer, serviceInstance service.Service, config *SSEServerConfig) *SSEServer {
	if config == nil {
		config = DefaultSSEServerConfig()
	}

	sseServer := &SSEServer{
		logger:    logger,
		mcpServer: mcpServer,
		service:   serviceInstance,
		clients:   make(map[string]*SSEClient),
		broadcast: make(chan SSEEvent, config.BufferSize),
	}

	// Start the broadcast loop
	go sseServer.broadcastLoop(config)

	return sseServer
}

// broadcastLoop handles broadcasting events to all connected clients
func (s *SSEServer) broadcastLoop(config *SSEServerConfig) {
	for event := range s.broadcast {
		s.clientsMutex.RLock()
		for clientID, client := range s.clients {
			select {
			case <-client.Done:
				// Client disconnected, remove it
				s.clientsMutex.RUnlock()
				s.removeClient(clientID)
				s.clientsMutex.RLock()
				continue
			default:
				// Send event to client
				if err := s.sendEventToClient(client, event); err != nil {
					s.logger.Error("failed to send event to client", zap.String("clientID", clientID), zap.Error(err))
					s.clientsMutex.RUnlock()
					s.removeClient(clientID)
					s.clientsMutex.RLock()
				}
			}
		}
		s.clientsMutex.RUnlock()
	}
}

// sendEventToClient sends an SSE event to a specific client
func (s *SSEServer) sendEventToClient(client *SSEClient, event SSEEvent) error {
	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	// Format as SSE
	fmt.Fprintf(client.Writer, "id: %s\n", event.ID)
	fmt.Fprintf(client.Writer, "event: %s\n", event.Event)
	fmt.Fprintf(client.Writer, "data: %s\n\n", string(eventJSON))

	client.Flusher.Flush()
	client.LastSeen = time.Now()

	return nil
}

// addClient adds a new SSE client
func (s *SSEServer) addClient(w http.ResponseWriter, r *http.Request) *SSEClient {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return nil
	}

	s.clientsMutex.Lock()
	defer s.clientsMutex.Unlock()

	clientID := uuid.NewString()

	client := &SSEClient{
		ID:       clientID,
		Writer:   w,
		Flusher:  flusher,
		Done:     make(chan struct{}),
		LastSeen: time.Now(),
	}

	s.clients[clientID] = client

	// Send connection confirmation
	connectEvent := SSEEvent{
		ID:        fmt.Sprintf("connect_%d", time.Now().UnixNano()),
		Event:     "connected",
		Data:      map[string]string{"clientID": clientID, "message": "Connected to hierarchy SSE server"},
		Timestamp: time.Now(),
	}

	if err := s.sendEventToClient(client, connectEvent); err != nil {
		s.logger.Error("failed to send connection event", zap.String("clientID", clientID), zap.Error(err))
		delete(s.clients, clientID)
		return nil
	}

	s.logger.Info("SSE client connected", zap.String("clientID", clientID))
	return client
}

// removeClient removes a client from the server
func (s *SSEServer) removeClient(clientID string) {
	s.clientsMutex.Lock()
	defer s.clientsMutex.Unlock()

	if client, exists := s.clients[clientID]; exists {
		close(client.Done)
		delete(s.clients, clientID)
		s.logger.Info("SSE client disconnected", zap.String("clientID", clientID))
	}
}

// broadcastEvent sends an event to all connected clients
func (s *SSEServer) broadcastEvent(event SSEEvent) {
	select {
	case s.broadcast <- event:
	default:
		s.logger.Warn("broadcast channel full, dropping event", zap.String("eventID", event.ID))
	}
}

// HandleSSE handles SSE client connections
func (s *SSEServer) HandleSSE(w http.ResponseWriter, r *http.Request) {
	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Cache-Control")

	client := s.addClient(w, r)
	if client == nil {
		return
	}

	// Keep connection alive and handle client disconnect
	ctx := r.Context()
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.removeClient(client.ID)
				return
			case <-client.Done:
				return
			case <-ticker.C:
				// Send keepalive
				keepaliveEvent := SSEEvent{
					ID:        fmt.Sprintf("keepalive_%d", time.Now().UnixNano()),
					Event:     "keepalive",
					Data:      map[string]interface{}{"timestamp": time.Now()},
					Timestamp: time.Now(),
				}
				if err := s.sendEventToClient(client, keepaliveEvent); err != nil {
					s.removeClient(client.ID)
					return
				}
			}
		}
	}()

	// Wait for client to disconnect
	<-client.Done
}

// HandleQuerySSE handles hierarchy query requests via SSE
func (s *SSEServer) HandleQuerySSE(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Scope       string `json:"scope"`
		StartNodeID string `json:"startNodeId"`
		Name        string `json:"name"`
	}

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if request.Scope == "" {
		http.Error(w, "scope is required", http.StatusBadRequest)
		return
	}
	scope, err := hierarchy.ParseScope(request.Scope)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	// Send start event
	startEvent := SSEEvent{
		ID:        fmt.Sprintf("query_start_%d", time.Now().UnixNano()),
		Event:     "query_start",
		Data:      map[string]string{"scope": request.Scope, "startNodeId": request.StartNodeID},
		Timestamp: time.Now(),
	}
	writeEvent(w, flusher, startEvent)

	// Execute the query in a goroutine and block until the stream is
	// fully written; the ResponseWriter is only valid until the handler
	// returns.
	done := make(chan struct{})
	go func() {
		defer close(done)
		ctx := r.Context()

		node, err := s.service.Query(ctx, scope, request.StartNodeID)
		if err != nil {
			writeEvent(w, flusher, SSEEvent{
				ID:        fmt.Sprintf("query_error_%d", time.Now().UnixNano()),
				Event:     "query_error",
				Data:      map[string]string{"error": err.Error()},
				Timestamp: time.Now(),
			})
			return
		}

		matches := node.Children
		if request.Name != "" {
			matches = s.service.FilterByName(matches, request.Name)
		}

		writeEvent(w, flusher, SSEEvent{
			ID:    fmt.Sprintf("query_result_%d", time.Now().UnixNano()),
			Event: "query_result",
			Data: map[string]interface{}{
				"node":    vo.FromNode(node),
				"matches": vo.FromNodes(matches),
			},
			Timestamp: time.Now(),
		})

		writeEvent(w, flusher, SSEEvent{
			ID:        fmt.Sprintf("query_complete_%d", time.Now().UnixNano()),
			Event:     "query_complete",
			Data:      map[string]string{"status": "completed"},
			Timestamp: time.Now(),
		})
	}()
	<-done
}

// HandleTOCSSE handles TOC rebuild requests via SSE
func (s *SSEServer) HandleTOCSSE(w http.ResponseWriter, r *http.Request) {
	if s.service == nil {
		http.Error(w, "Hierarchy service not available", http.StatusServiceUnavailable)
		return
	}

	var request struct {
		PageID  string `json:"pageId"`
		Persist bool   `json:"persist"`
	}

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if request.PageID == "" {
		http.Error(w, "pageId is required", http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	// Send start event
	startEvent := SSEEvent{
		ID:        fmt.Sprintf("toc_start_%d", time.Now().UnixNano()),
		Event:     "toc_start",
		Data:      map[string]interface{}{"pageId": request.PageID, "persist": request.Persist},
		Timestamp: time.Now(),
	}
	writeEvent(w, flusher, startEvent)

	// Execute the transform in a goroutine and block until the stream is
	// fully written; the ResponseWriter is only valid until the handler
	// returns.
	done := make(chan struct{})
	go func() {
		defer close(done)
		ctx := r.Context()

		result, err := s.service.RebuildTOC(ctx, service.TransformInput{
			PageID:  request.PageID,
			Persist: request.Persist,
		})
		if err != nil {
			writeEvent(w, flusher, SSEEvent{
				ID:        fmt.Sprintf("toc_error_%d", time.Now().UnixNano()),
				Event:     "toc_error",
				Data:      map[string]string{"error": err.Error()},
				Timestamp: time.Now(),
			})
			return
		}

		summary := vo.TransformSummary{
			PageID:    result.Content.PageID(),
			Headings:  result.Headings,
			Changed:   result.Changed,
			Persisted: result.Persisted,
		}
		writeEvent(w, flusher, SSEEvent{
			ID:        fmt.Sprintf("toc_result_%d", time.Now().UnixNano()),
			Event:     "toc_result",
			Data:      summary,
			Timestamp: time.Now(),
		})

		if result.Persisted {
			// Let observers know the page changed on the host side.
			s.broadcastEvent(SSEEvent{
				ID:        fmt.Sprintf("page_persisted_%d", time.Now().UnixNano()),
				Event:     "page_persisted",
				Data:      map[string]string{"pageId": summary.PageID},
				Timestamp: time.Now(),
			})
		}

		writeEvent(w, flusher, SSEEvent{
			ID:        fmt.Sprintf("toc_complete_%d", time.Now().UnixNano()),
			Event:     "toc_complete",
			Data:      map[string]string{"status": "completed"},
			Timestamp: time.Now(),
		})
	}()
	<-done
}

func writeEvent(w http.ResponseWriter, flusher http.Flusher, event SSEEvent) {
	eventJSON, _ := json.Marshal(event)
	fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", event.ID, event.Event, string(eventJSON))
	flusher.Flush()
}

// GetConnectedClients returns information about connected clients
func (s *SSEServer) GetConnectedClients() []map[string]interface{} {
	s.clientsMutex.RLock()
	defer s.clientsMutex.RUnlock()

	clients := make([]map[string]interface{}, 0, len(s.clients))
	for _, client := range s.clients {
		clients = append(clients, map[string]interface{}{
			"id":        client.ID,
			"lastSeen":  client.LastSeen,
			"connected": time.Since(client.LastSeen) < 60*time.Second,
		})
	}
	return clients
}

// GetStats returns server statistics
func (s *SSEServer) GetStats() map[string]interface{} {
	s.clientsMutex.RLock()
	defer s.clientsMutex.RUnlock()

	return map[string]interface{}{
		"connectedClients": len(s.clients),
		"bufferSize":       len(s.broadcast),
		"serverVersion":    Version,
	}
}
