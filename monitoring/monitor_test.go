package monitoring

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/psmfw/firmware"
	"github.com/sarchlab/psmfw/ipi"
	"github.com/sarchlab/psmfw/power"
	"github.com/sarchlab/psmfw/regbus"
	"github.com/sarchlab/psmfw/timing"
	"github.com/sarchlab/psmfw/tracing"
)

type fakeEngine struct {
	now    timing.Ticks
	paused bool
}

func (e *fakeEngine) Now() timing.Ticks { return e.now }
func (e *fakeEngine) Pause()            { e.paused = true }
func (e *fakeEngine) Continue()         { e.paused = false }

type handlerFunc func(evt any) error

func (f handlerFunc) Handle(evt any) error { return f(evt) }

var _ = Describe("Monitor", func() {
	var (
		engine *fakeEngine
		fw     *firmware.Firmware
		traces *tracing.MemoryBackend
		m      *Monitor
		server *httptest.Server
	)

	get := func(path string) (int, string) {
		rsp, err := http.Get(server.URL + path)
		Expect(err).NotTo(HaveOccurred())
		defer rsp.Body.Close()

		body, err := io.ReadAll(rsp.Body)
		Expect(err).NotTo(HaveOccurred())

		return rsp.StatusCode, string(body)
	}

	post := func(path, body string) (int, string) {
		rsp, err := http.Post(server.URL+path, "application/json", strings.NewReader(body))
		Expect(err).NotTo(HaveOccurred())
		defer rsp.Body.Close()

		out, err := io.ReadAll(rsp.Body)
		Expect(err).NotTo(HaveOccurred())

		return rsp.StatusCode, string(out)
	}

	BeforeEach(func() {
		clock := timing.NewSimClock()
		target := power.MustVersal()
		bus := regbus.NewSimBus(clock)
		power.AttachSimulatedHardware(bus, target, 2)

		channel := ipi.DefaultChannelConfig()
		bus.AddIRQBlock(channel.Local)
		bus.AddIRQBlock(channel.Remote)

		fw = firmware.MakeBuilder().
			WithBus(bus).
			WithClock(clock).
			WithTarget(target).
			WithIPIChannel(channel).
			Build("PSM")
		traces = tracing.NewMemoryBackend(16)
		fw.Sequencer().AcceptHook(tracing.NewTransitionTracer(clock, traces))
		fw.Init()

		engine = &fakeEngine{now: 42}
		m = NewMonitor()
		m.RegisterEngine(engine)
		m.RegisterFirmware(fw)
		m.RegisterTraces(traces)

		server = httptest.NewServer(m.Router())
	})

	AfterEach(func() {
		server.Close()
	})

	It("should report the current tick", func() {
		code, body := get("/api/now")

		Expect(code).To(Equal(http.StatusOK))
		Expect(body).To(MatchJSON(`{"now":42}`))
	})

	It("should pause and continue the engine", func() {
		get("/api/pause")
		Expect(engine.paused).To(BeTrue())

		get("/api/continue")
		Expect(engine.paused).To(BeFalse())
	})

	It("should list the islands", func() {
		Expect(fw.Sequencer().MemPowerUp(power.OCM3)).To(Succeed())

		_, body := get("/api/islands")

		var islands []islandRsp
		Expect(json.Unmarshal([]byte(body), &islands)).To(Succeed())
		Expect(islands).To(HaveLen(int(power.NumIslands)))
		Expect(islands[power.OCM3]).To(Equal(islandRsp{
			Name:     "OCM3",
			Kind:     power.KindOCM.String(),
			Phase:    power.PhasePoweredUp.String(),
			StateBit: true,
		}))
	})

	It("should list recent transitions", func() {
		Expect(fw.Sequencer().MemPowerUp(power.L2)).To(Succeed())

		_, body := get("/api/transitions")

		var tasks []taskRsp
		Expect(json.Unmarshal([]byte(body), &tasks)).To(Succeed())
		Expect(tasks).To(HaveLen(1))
		Expect(tasks[0].Island).To(Equal("L2"))
		Expect(tasks[0].Op).To(Equal(string(power.OpPowerUp)))
	})

	It("should run commands", func() {
		code, body := post("/api/command", "[5]")

		Expect(code).To(Equal(http.StatusOK))
		Expect(body).To(MatchJSON(`[0, 1]`))
	})

	It("should reject malformed commands", func() {
		code, _ := post("/api/command", "{}")
		Expect(code).To(Equal(http.StatusBadRequest))

		code, _ = post("/api/command", "[]")
		Expect(code).To(Equal(http.StatusBadRequest))
	})

	It("should list the components", func() {
		_, body := get("/api/list_components")

		Expect(body).To(MatchJSON(`["PSM", "PSM.Sequencer"]`))
	})

	It("should serialize a component", func() {
		code, body := get("/api/component/PSM.Sequencer")

		Expect(code).To(Equal(http.StatusOK))
		Expect(body).NotTo(BeEmpty())
	})

	It("should answer 404 for an unknown component", func() {
		code, _ := get("/api/component/NoSuchThing")

		Expect(code).To(Equal(http.StatusNotFound))
	})

	It("should serve the page", func() {
		code, body := get("/")

		Expect(code).To(Equal(http.StatusOK))
		Expect(body).To(ContainSubstring("PSM monitor"))
	})

	It("should track progress", func() {
		clock := timing.NewSimClock()
		eng := timing.NewSerialEngine(clock)
		bar := m.CreateProgressBar("scenario", 3)
		eng.AcceptHook(bar)

		ok := handlerFunc(func(any) error { return nil })
		bad := handlerFunc(func(any) error { return errors.New("stop") })
		eng.Schedule(timing.ScheduledEvent{Time: 1, Handler: ok})
		eng.Schedule(timing.ScheduledEvent{Time: 2, Handler: bad})
		Expect(eng.Run()).To(HaveOccurred())
		Expect(bar.Finished()).To(Equal(uint64(2)))

		_, body := get("/api/progress")

		var bars []progressRsp
		Expect(json.Unmarshal([]byte(body), &bars)).To(Succeed())
		Expect(bars).To(HaveLen(1))
		Expect(bars[0].Total).To(Equal(uint64(3)))
		Expect(bars[0].Failed).To(Equal(uint64(1)))

		m.CompleteProgressBar(bar)
		_, body = get("/api/progress")
		Expect(body).To(MatchJSON(`[]`))
	})
})
