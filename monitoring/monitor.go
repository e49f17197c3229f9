// Package monitoring serves the state of a running simulation over HTTP.
package monitoring

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/rs/xid"
	"github.com/sarchlab/csim/cache"
	"github.com/sarchlab/csim/stats"
	"github.com/shirou/gopsutil/process"
	"github.com/sirupsen/logrus"
	"github.com/syifan/goseth"
)

// Monitor can turn a simulation into a server and allows external monitoring
// of the simulation.
type Monitor struct {
	portNumber  int
	openBrowser bool

	stateLock  sync.RWMutex
	cache      *cache.Cache
	aggregator *stats.Aggregator

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar

	server *http.Server
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < 1000 {
		logrus.Warnf("Port number %d is assigned to the monitoring server, "+
			"which is not allowed. Using a random port instead.", portNumber)

		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithBrowser makes the monitor open the default browser once the server
// starts.
func (m *Monitor) WithBrowser(open bool) *Monitor {
	m.openBrowser = open
	return m
}

// RegisterCache registers the cache to be monitored.
func (m *Monitor) RegisterCache(c *cache.Cache) {
	m.cache = c
}

// RegisterAggregator registers where statistics are read from.
func (m *Monitor) RegisterAggregator(a *stats.Aggregator) {
	m.aggregator = a
}

// StateLock returns the lock that the simulation must hold while it mutates
// the registered cache or aggregator.
func (m *Monitor) StateLock() sync.Locker {
	return &m.stateLock
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        xid.New().String(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar to be shown on the webpage.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// Router returns the HTTP routes of the monitor.
func (m *Monitor) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/geometry", m.geometry).Methods(http.MethodGet)
	r.HandleFunc("/api/stats", m.statistics).Methods(http.MethodGet)
	r.HandleFunc("/api/cache", m.cacheDetails).Methods(http.MethodGet)
	r.HandleFunc("/api/field/{json}", m.listFieldValue).Methods(http.MethodGet)
	r.HandleFunc("/api/set/{id}", m.setDetails).Methods(http.MethodGet)
	r.HandleFunc("/api/progress", m.listProgressBars).Methods(http.MethodGet)
	r.HandleFunc("/api/resource", m.listResources).Methods(http.MethodGet)
	r.HandleFunc("/api/profile", m.collectProfile).Methods(http.MethodGet)

	return r
}

func (m *Monitor) listenAddress() string {
	if m.portNumber >= 1000 {
		return ":" + strconv.Itoa(m.portNumber)
	}

	return ":0"
}

// StartServer starts the monitor as a web server and returns its URL.
func (m *Monitor) StartServer() (string, error) {
	listener, err := net.Listen("tcp", m.listenAddress())
	if err != nil {
		return "", fmt.Errorf("starting monitoring server: %w", err)
	}

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)

	fmt.Fprintf(os.Stderr, "Monitoring simulation with %s\n", url)

	m.server = &http.Server{
		Handler:           m.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		err := m.server.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Errorf("monitoring server stopped: %v", err)
		}
	}()

	if m.openBrowser {
		if err := browser.OpenURL(url + "/api/stats"); err != nil {
			logrus.Warnf("cannot open browser: %v", err)
		}
	}

	return url, nil
}

// StopServer shuts the server down.
func (m *Monitor) StopServer() error {
	if m.server == nil {
		return nil
	}

	return m.server.Close()
}

func (m *Monitor) geometry(w http.ResponseWriter, _ *http.Request) {
	if !m.requireCache(w) {
		return
	}

	writeJSON(w, m.cache.Geometry())
}

type statsRsp struct {
	stats.Statistics
	Accesses uint64  `json:"accesses"`
	HitRate  float64 `json:"hit_rate"`
}

func (m *Monitor) statistics(w http.ResponseWriter, _ *http.Request) {
	if m.aggregator == nil {
		http.Error(w, "no statistics registered", http.StatusNotFound)
		return
	}

	m.stateLock.RLock()
	s := m.aggregator.Statistics()
	m.stateLock.RUnlock()

	writeJSON(w, statsRsp{
		Statistics: s,
		Accesses:   s.Accesses(),
		HitRate:    s.HitRate(),
	})
}

func (m *Monitor) cacheDetails(w http.ResponseWriter, _ *http.Request) {
	if !m.requireCache(w) {
		return
	}

	m.stateLock.RLock()
	defer m.stateLock.RUnlock()

	serializer := goseth.NewSerializer()
	serializer.SetRoot(m.cache)
	serializer.SetMaxDepth(1)

	err := serializer.Serialize(w)
	if err != nil {
		logrus.Errorf("serializing cache: %v", err)
	}
}

type fieldReq struct {
	FieldName string `json:"field_name,omitempty"`
}

func (m *Monitor) listFieldValue(w http.ResponseWriter, r *http.Request) {
	if !m.requireCache(w) {
		return
	}

	req := fieldReq{}

	err := json.Unmarshal([]byte(mux.Vars(r)["json"]), &req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	m.stateLock.RLock()
	defer m.stateLock.RUnlock()

	serializer := goseth.NewSerializer()
	serializer.SetRoot(m.cache)
	serializer.SetMaxDepth(1)

	err = serializer.SetEntryPoint(strings.Split(req.FieldName, "."))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err = serializer.Serialize(w)
	if err != nil {
		logrus.Errorf("serializing field %s: %v", req.FieldName, err)
	}
}

func (m *Monitor) setDetails(w http.ResponseWriter, r *http.Request) {
	if !m.requireCache(w) {
		return
	}

	setID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || setID < 0 || setID >= m.cache.Geometry().NumSets() {
		http.Error(w, "set not found", http.StatusNotFound)
		return
	}

	m.stateLock.RLock()
	lines := m.cache.Set(setID)
	m.stateLock.RUnlock()

	writeJSON(w, lines)
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	bars := make([]progressBarSnapshot, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		bars = append(bars, b.snapshot())
	}
	m.progressBarsLock.Unlock()

	writeJSON(w, bars)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	cpuPercent, err := proc.CPUPercent()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	memoryInfo, err := proc.MemoryInfo()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memoryInfo.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, prof)
}

func (m *Monitor) requireCache(w http.ResponseWriter) bool {
	if m.cache == nil {
		http.Error(w, "no cache registered", http.StatusNotFound)
		return false
	}

	return true
}

func writeJSON(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	_, err = w.Write(data)
	if err != nil {
		logrus.Errorf("writing response: %v", err)
	}
}
