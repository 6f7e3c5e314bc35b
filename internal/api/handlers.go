// Package api serves the read and stream surface over the in-memory stores.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"flowscope/internal/client"
	"flowscope/internal/events"
	"flowscope/internal/graph"
	"flowscope/internal/query"
	"flowscope/internal/store"
)

// Handlers exposes the stores over HTTP. StateFn reports the current stream
// connection state for the stats endpoint; it may be nil.
type Handlers struct {
	flows    *store.FlowStore
	alerts   *store.AlertStore
	bus      *events.Bus
	geo      *client.GeoIPClient
	logger   *logrus.Logger
	upgrader websocket.Upgrader

	StateFn func() string

	// History proxies searches to the external history service when set.
	History *client.HistoryClient
}

// NewHandlers wires the HTTP surface to the stores and the event bus. The
// geo client may be nil when no GeoIP service is configured.
func NewHandlers(flows *store.FlowStore, alerts *store.AlertStore, bus *events.Bus, geo *client.GeoIPClient, logger *logrus.Logger) *Handlers {
	return &Handlers{
		flows:  flows,
		alerts: alerts,
		bus:    bus,
		geo:    geo,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// GetFlows serves one page of the filtered, sorted flow log.
func (h *Handlers) GetFlows(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filters := query.Filters{
		SrcIP: q.Get("src_ip"),
		DstIP: q.Get("dst_ip"),
	}
	if v := q.Get("protocol"); v != "" {
		n, err := strconv.ParseUint(v, 10, 8)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid protocol")
			return
		}
		p := uint8(n)
		filters.Protocol = &p
	}
	if v := q.Get("min_bytes"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid min_bytes")
			return
		}
		filters.MinBytes = &n
	}
	if v := q.Get("max_bytes"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid max_bytes")
			return
		}
		filters.MaxBytes = &n
	}
	if v := q.Get("port"); v != "" {
		n, err := strconv.ParseUint(v, 10, 16)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid port")
			return
		}
		p := uint16(n)
		filters.Port = &p
	}

	s := query.Sort{Key: q.Get("sort"), Descending: q.Get("order") == "desc"}

	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit > 100 {
		limit = 100
	}

	result := query.Run(h.flows.Snapshot(), filters, s, query.Page{Number: page, Size: limit})
	writeJSON(w, http.StatusOK, result)
}

// GetGraph serves the aggregated traffic graph for the filtered flow set.
func (h *Handlers) GetGraph(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.graphFilter(w, r)
	if !ok {
		return
	}
	g := graph.Aggregate(h.flows.Snapshot(), filter)
	writeJSON(w, http.StatusOK, g)
}

// GetNeighborhood serves the one-hop highlight set around a node.
func (h *Handlers) GetNeighborhood(w http.ResponseWriter, r *http.Request) {
	nodeID := r.URL.Query().Get("node")
	if nodeID == "" {
		writeError(w, http.StatusBadRequest, "missing node parameter")
		return
	}

	filter, ok := h.graphFilter(w, r)
	if !ok {
		return
	}

	g := graph.Aggregate(h.flows.Snapshot(), filter)
	n := g.Neighborhood(nodeID)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"node_ids": n.NodeIDs(),
		"edges":    n.Edges,
	})
}

func (h *Handlers) graphFilter(w http.ResponseWriter, r *http.Request) (graph.Filter, bool) {
	q := r.URL.Query()
	var filter graph.Filter

	if v := q.Get("protocol"); v != "" {
		n, err := strconv.ParseUint(v, 10, 8)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid protocol")
			return filter, false
		}
		p := uint8(n)
		filter.Protocol = &p
	}
	if v := q.Get("min_bytes"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid min_bytes")
			return filter, false
		}
		filter.MinBytes = n
	}
	if v := q.Get("max_bytes"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid max_bytes")
			return filter, false
		}
		filter.MaxBytes = n
	}
	if v := q.Get("window_seconds"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid window_seconds")
			return filter, false
		}
		filter.Window = time.Duration(n) * time.Second
	}
	filter.Host = q.Get("host")
	return filter, true
}

// GetAlerts serves the alert list, newest first.
func (h *Handlers) GetAlerts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.alerts.Snapshot())
}

// DeleteAlert dismisses one alert by id.
func (h *Handlers) DeleteAlert(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !h.alerts.Remove(id) {
		writeError(w, http.StatusNotFound, "Alert not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "dismissed", "id": id})
}

// ClearAlerts dismisses every stored alert.
func (h *Handlers) ClearAlerts(w http.ResponseWriter, r *http.Request) {
	h.alerts.Clear()
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// GetStats serves store and connection counters.
func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	state := "unknown"
	if h.StateFn != nil {
		state = h.StateFn()
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"flows":            h.flows.Len(),
		"flows_evicted":    h.flows.Evicted(),
		"alerts":           h.alerts.Len(),
		"alerts_evicted":   h.alerts.Evicted(),
		"connection_state": state,
	})
}

// SearchHistory proxies a single-field search to the history service so
// consumers can find flows beyond the in-memory window.
func (h *Handlers) SearchHistory(w http.ResponseWriter, r *http.Request) {
	if h.History == nil {
		writeError(w, http.StatusServiceUnavailable, "History service not configured")
		return
	}
	field := r.URL.Query().Get("field")
	value := r.URL.Query().Get("value")
	if field == "" || value == "" {
		writeError(w, http.StatusBadRequest, "missing field or value parameter")
		return
	}

	flows, err := h.History.Search(r.Context(), field, value)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, flows)
}

// GetGeoIP resolves one IP through the GeoIP service.
func (h *Handlers) GetGeoIP(w http.ResponseWriter, r *http.Request) {
	if h.geo == nil {
		writeError(w, http.StatusServiceUnavailable, "GeoIP service not configured")
		return
	}
	ip := mux.Vars(r)["ip"]
	data, err := h.geo.Lookup(r.Context(), ip)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, data)
}

// Stream upgrades to a websocket and forwards bus events to the client.
func (h *Handlers) Stream(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Errorf("WebSocket upgrade error: %v", err)
		return
	}
	h.logger.Infof("WebSocket connection established from %s", r.RemoteAddr)

	sub := h.bus.Subscribe(256)
	defer func() {
		h.bus.Unsubscribe(sub)
		conn.Close()
		h.logger.Debugf("WebSocket connection closed for %s", r.RemoteAddr)
	}()

	conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := conn.WriteJSON(map[string]string{"type": "connected"}); err != nil {
		h.logger.Errorf("Failed to send initial message: %v", err)
		return
	}

	// Drain client frames so close and ping control messages are handled.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(ev); err != nil {
				h.logger.Debugf("WebSocket write failed for %s: %v", r.RemoteAddr, err)
				return
			}
		case <-done:
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}
