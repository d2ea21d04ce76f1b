// Package monitoring serves the state of a running simulation over HTTP and
// lets a browser pause and resume it.
package monitoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strings"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/rs/xid"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"
	"k8s.io/klog/v2"

	"github.com/sarchlab/psmfw/monitoring/web"
	"github.com/sarchlab/psmfw/power"
	"github.com/sarchlab/psmfw/timing"
	"github.com/sarchlab/psmfw/tracing"
)

// Engine is the part of the engine the monitor controls.
type Engine interface {
	timing.TimeTeller
	Pause()
	Continue()
}

// Firmware is the part of the firmware the monitor inspects.
type Firmware interface {
	Name() string
	Sequencer() *power.Sequencer
	Command(req ...uint32) []uint32
}

// Named is anything that can be inspected by name.
type Named interface {
	Name() string
}

// Monitor turns a simulation into a server.
type Monitor struct {
	engine     Engine
	firmware   Firmware
	traces     *tracing.MemoryBackend
	components []Named
	portNumber int

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar
}

// NewMonitor creates a new Monitor.
func NewMonitor() *Monitor {
	return &Monitor{}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < 1000 {
		klog.Warningf("monitor port %d is not allowed, using a random port",
			portNumber)

		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// RegisterEngine registers the engine that replays the simulation.
func (m *Monitor) RegisterEngine(e Engine) {
	m.engine = e
}

// RegisterFirmware registers the firmware and its sequencer as components.
func (m *Monitor) RegisterFirmware(f Firmware) {
	m.firmware = f
	m.RegisterComponent(f)
	m.RegisterComponent(f.Sequencer())
}

// RegisterTraces sets where recent transitions are read from.
func (m *Monitor) RegisterTraces(b *tracing.MemoryBackend) {
	m.traces = b
}

// RegisterComponent registers a component to be inspected.
func (m *Monitor) RegisterComponent(c Named) {
	m.components = append(m.components, c)
}

// CreateProgressBar creates a progress bar. Attach it to the engine to
// count handled events.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		id:        xid.New().String(),
		name:      name,
		startTime: time.Now(),
		total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar from the page.
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

	r.HandleFunc("/api/pause", m.pauseEngine)
	r.HandleFunc("/api/continue", m.continueEngine)
	r.HandleFunc("/api/now", m.now)
	r.HandleFunc("/api/islands", m.listIslands)
	r.HandleFunc("/api/transitions", m.listTransitions)
	r.HandleFunc("/api/command", m.command).Methods(http.MethodPost)
	r.HandleFunc("/api/list_components", m.listComponents)
	r.HandleFunc("/api/component/{name}", m.listComponentDetails)
	r.HandleFunc("/api/field/{json}", m.listFieldValue)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.PathPrefix("/").Handler(http.FileServer(web.GetAssets()))

	return r
}

// StartServer starts serving in the background and returns the URL.
func (m *Monitor) StartServer() (string, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", m.portNumber))
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("http://localhost:%d", listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "Monitoring simulation with %s\n", url)

	go func() {
		if err := http.Serve(listener, m.Router()); err != nil {
			klog.ErrorS(err, "monitor server stopped")
		}
	}()

	return url, nil
}

func (m *Monitor) pauseEngine(w http.ResponseWriter, _ *http.Request) {
	m.engine.Pause()
	w.WriteHeader(http.StatusOK)
}

func (m *Monitor) continueEngine(w http.ResponseWriter, _ *http.Request) {
	m.engine.Continue()
	w.WriteHeader(http.StatusOK)
}

func (m *Monitor) now(w http.ResponseWriter, _ *http.Request) {
	fmt.Fprintf(w, "{\"now\":%d}", m.engine.Now())
}

type islandRsp struct {
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Phase    string `json:"phase"`
	StateBit bool   `json:"state_bit"`
}

func (m *Monitor) listIslands(w http.ResponseWriter, _ *http.Request) {
	var rsp []islandRsp

	for _, st := range m.firmware.Sequencer().Snapshot() {
		rsp = append(rsp, islandRsp{
			Name:     st.Name,
			Kind:     st.Kind.String(),
			Phase:    st.Phase.String(),
			StateBit: st.StateBit,
		})
	}

	writeJSON(w, rsp)
}

type taskRsp struct {
	ID        string `json:"id"`
	Island    string `json:"island"`
	Op        string `json:"op"`
	From      string `json:"from"`
	To        string `json:"to"`
	StartTick uint64 `json:"start_tick"`
	EndTick   uint64 `json:"end_tick"`
	Err       string `json:"err"`
}

func (m *Monitor) listTransitions(w http.ResponseWriter, _ *http.Request) {
	rsp := []taskRsp{}

	if m.traces != nil {
		for _, t := range m.traces.Tasks() {
			rsp = append(rsp, taskRsp{
				ID: t.ID, Island: t.Island, Op: t.Op, From: t.From, To: t.To,
				StartTick: t.StartTick, EndTick: t.EndTick, Err: t.Err,
			})
		}
	}

	writeJSON(w, rsp)
}

func (m *Monitor) command(w http.ResponseWriter, r *http.Request) {
	var req []uint32

	body, err := io.ReadAll(r.Body)
	if err == nil {
		err = json.Unmarshal(body, &req)
	}

	if err != nil || len(req) == 0 {
		http.Error(w, "body must be a non-empty array of words", http.StatusBadRequest)
		return
	}

	writeJSON(w, m.firmware.Command(req...))
}

func (m *Monitor) listComponents(w http.ResponseWriter, _ *http.Request) {
	names := make([]string, 0, len(m.components))
	for _, c := range m.components {
		names = append(names, c.Name())
	}

	writeJSON(w, names)
}

func (m *Monitor) listComponentDetails(w http.ResponseWriter, r *http.Request) {
	component := m.findComponentOr404(w, mux.Vars(r)["name"])
	if component == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(component)
	serializer.SetMaxDepth(1)

	if err := serializer.Serialize(w); err != nil {
		klog.ErrorS(err, "serialize component", "name", component.Name())
	}
}

type fieldReq struct {
	CompName  string `json:"comp_name,omitempty"`
	FieldName string `json:"field_name,omitempty"`
}

func (m *Monitor) listFieldValue(w http.ResponseWriter, r *http.Request) {
	req := fieldReq{}

	if err := json.Unmarshal([]byte(mux.Vars(r)["json"]), &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	component := m.findComponentOr404(w, req.CompName)
	if component == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(component)
	serializer.SetMaxDepth(1)

	if err := serializer.SetEntryPoint(strings.Split(req.FieldName, ".")); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := serializer.Serialize(w); err != nil {
		klog.ErrorS(err, "serialize field", "name", req.CompName,
			"field", req.FieldName)
	}
}

func (m *Monitor) findComponentOr404(w http.ResponseWriter, name string) Named {
	for _, c := range m.components {
		if c.Name() == name {
			return c
		}
	}

	http.Error(w, "Component not found", http.StatusNotFound)

	return nil
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	rsp := make([]progressRsp, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		rsp = append(rsp, b.snapshot())
	}
	m.progressBarsLock.Unlock()

	writeJSON(w, rsp)
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

	memInfo, err := proc.MemoryInfo()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, resourceRsp{CPUPercent: cpuPercent, MemorySize: memInfo.RSS})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	if err := pprof.StartCPUProfile(buf); err != nil {
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

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		klog.ErrorS(err, "write monitor response")
	}
}
