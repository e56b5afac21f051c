package advisor

import (
	"encoding/json"
	"net/http"
	"time"
)

// Connectivity is satisfied by mqtt.Client.
type Connectivity interface {
	IsConnectionOpen() bool
}

type healthHandler struct {
	mqtt    Connectivity
	writer  *InfluxWriter
	version string
	now     func() time.Time
}

// NewHealthHandler serves /healthz. mqtt and writer may be nil when the
// service runs without a broker or without Influx.
func NewHealthHandler(m Connectivity, w *InfluxWriter, version string) http.Handler {
	return &healthHandler{mqtt: m, writer: w, version: version, now: time.Now}
}

func (h *healthHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	type status struct {
		Status          string  `json:"status"`
		Version         string  `json:"version"`
		Timestamp       string  `json:"timestamp"`
		MQTTConnected   bool    `json:"mqtt_connected"`
		InfluxOK        bool    `json:"influx_ok"`
		LastWriteErrorS float64 `json:"last_write_error_age_sec"`
	}
	st := status{
		Version:         h.version,
		Timestamp:       h.now().UTC().Format(time.RFC3339),
		MQTTConnected:   h.mqtt != nil && h.mqtt.IsConnectionOpen(),
		InfluxOK:        h.writer != nil && h.writer.LastErrorAge() > 30*time.Second,
		LastWriteErrorS: h.writer.LastErrorAge().Seconds(),
	}

	// il motore decisionale non dipende da mqtt/influx: al peggio "degraded"
	st.Status = "ok"
	if (h.mqtt != nil && !st.MQTTConnected) || (h.writer != nil && !st.InfluxOK) {
		st.Status = "degraded"
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(st)
}

// Handler /readyz: 200 solo se le dipendenze configurate sono ok.
type readyHandler struct {
	mqtt     Connectivity
	writer   *InfluxWriter
	minError time.Duration
}

func NewReadyHandler(m Connectivity, w *InfluxWriter, minOkErrorAge time.Duration) http.Handler {
	return &readyHandler{mqtt: m, writer: w, minError: minOkErrorAge}
}

func (h *readyHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	ready := true
	if h.mqtt != nil && !h.mqtt.IsConnectionOpen() {
		ready = false
	}
	if h.writer != nil && h.writer.LastErrorAge() <= h.minError {
		ready = false
	}
	w.Header().Set("Content-Type", "application/json")
	if !ready {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	type resp struct {
		Ready bool `json:"ready"`
	}
	_ = json.NewEncoder(w).Encode(resp{Ready: ready})
}
