package scenario

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"k8s.io/klog/v2"

	"github.com/sarchlab/psmfw/firmware"
	"github.com/sarchlab/psmfw/ipi"
	"github.com/sarchlab/psmfw/power"
	"github.com/sarchlab/psmfw/regbus"
	"github.com/sarchlab/psmfw/timing"
	"github.com/sarchlab/psmfw/tracing"
)

// maxSettleRounds bounds the firmware and companion exchanges after a step.
const maxSettleRounds = 64

// ErrNotSettled is returned when the firmware keeps finding work after a
// step.
var ErrNotSettled = errors.New("scenario: firmware did not settle")

// Failure is an expectation that did not hold.
type Failure struct {
	Step int
	At   timing.Ticks
	Msg  string
}

func (f Failure) String() string {
	return fmt.Sprintf("step %d @ %d: %s", f.Step, f.At, f.Msg)
}

// Report summarizes a run.
type Report struct {
	Name          string
	Ticks         timing.Ticks
	Failures      []Failure
	Errors        []string
	Islands       []power.IslandStatus
	Notifications []Notification
}

// OK reports whether every expectation held.
func (r Report) OK() bool {
	return len(r.Failures) == 0
}

// Simulation is a firmware instance wired to simulated hardware and a
// companion model.
type Simulation struct {
	script *Script

	clock     *timing.SimClock
	engine    *timing.SerialEngine
	bus       *regbus.SimBus
	fw        *firmware.Firmware
	companion *Companion

	lastNotified int
	report       Report
}

// Builder can build Simulations.
type Builder struct {
	target    *power.Target
	house     firmware.Housekeeper
	coherency firmware.CoherencyConfigurer
	backend   tracing.Backend
}

// MakeBuilder returns a Builder for the built-in target.
func MakeBuilder() Builder {
	return Builder{}
}

// WithTarget sets the island table.
func (b Builder) WithTarget(target *power.Target) Builder {
	b.target = target
	return b
}

// WithHousekeeper sets the full-power domain housekeeping collaborator.
func (b Builder) WithHousekeeper(h firmware.Housekeeper) Builder {
	b.house = h
	return b
}

// WithCoherency sets the coherency collaborator.
func (b Builder) WithCoherency(c firmware.CoherencyConfigurer) Builder {
	b.coherency = c
	return b
}

// WithTraceBackend records every island transition into backend.
func (b Builder) WithTraceBackend(backend tracing.Backend) Builder {
	b.backend = backend
	return b
}

// Build creates a Simulation of script with the firmware initialized.
func (b Builder) Build(script *Script) *Simulation {
	target := b.target
	if target == nil {
		target = power.MustVersal()
	}

	s := &Simulation{script: script}
	s.clock = timing.NewSimClock()
	s.engine = timing.NewSerialEngine(s.clock)
	s.bus = regbus.NewSimBus(s.clock)

	power.AttachSimulatedHardware(s.bus, target, timing.Ticks(script.AckDelay))

	channel := ipi.DefaultChannelConfig()
	s.bus.AddIRQBlock(channel.Local)
	s.bus.AddIRQBlock(channel.Remote)

	fb := firmware.MakeBuilder().
		WithBus(s.bus).
		WithClock(s.clock).
		WithTarget(target).
		WithIPIChannel(channel)
	if b.house != nil {
		fb = fb.WithHousekeeper(b.house)
	}

	if b.coherency != nil {
		fb = fb.WithCoherency(b.coherency)
	}

	s.fw = fb.Build("PSM")

	if b.backend != nil {
		s.fw.Sequencer().AcceptHook(tracing.NewTransitionTracer(s.clock, b.backend))
	}

	s.companion = &Companion{
		mb:             s.fw.Mailbox(),
		peer:           ipi.NewPeer(s.bus, channel),
		target:         target,
		isUp:           s.fw.Sequencer().IsUp,
		deferPowerDown: script.DeferPowerDown,
	}

	s.fw.Init()
	s.report.Name = script.Name

	return s
}

// Engine returns the engine that replays the steps.
func (s *Simulation) Engine() *timing.SerialEngine {
	return s.engine
}

// Firmware returns the firmware under simulation.
func (s *Simulation) Firmware() *firmware.Firmware {
	return s.fw
}

// Bus returns the simulated register file.
func (s *Simulation) Bus() *regbus.SimBus {
	return s.bus
}

// Companion returns the companion model.
func (s *Simulation) Companion() *Companion {
	return s.companion
}

type stepEvent struct {
	index int
	step  Step
}

// Run replays every step and returns the report. The error is set when
// the run stopped early: an invalid step, a halted firmware, or a firmware
// that never settles.
func (s *Simulation) Run() (Report, error) {
	for i, st := range s.script.Steps {
		s.engine.Schedule(timing.ScheduledEvent{
			Event:   stepEvent{index: i, step: st},
			Time:    timing.Ticks(st.At),
			Handler: s,
		})
	}

	err := s.engine.Run()

	s.report.Ticks = s.clock.Now()
	s.report.Islands = s.fw.Sequencer().Snapshot()
	s.report.Notifications = s.companion.Received()

	return s.report, err
}

// Handle implements timing.Handler.
func (s *Simulation) Handle(evt any) error {
	se, ok := evt.(stepEvent)
	if !ok {
		return fmt.Errorf("scenario: unexpected event %T", evt)
	}

	klog.V(4).InfoS("scenario step", "step", se.index, "action", se.step.Action,
		"tick", s.clock.Now())

	if err := s.apply(se); err != nil {
		return err
	}

	return s.settle()
}

func (s *Simulation) apply(se stepEvent) error {
	st := se.step

	switch st.Action {
	case ActionRequest:
		return s.request(se.index, st)
	case ActionIdle, ActionResume:
		isl, err := s.core(se.index, st.Island)
		if err != nil {
			return err
		}

		if st.Action == ActionIdle {
			s.fw.Mailbox().SetCPUIdle(isl.Mailbox, st.Idle)
		} else {
			s.fw.Mailbox().SetResumeAddress(isl.Mailbox, st.Address)
		}
	case ActionIPI:
		s.companion.Send(st.Words, func(resp []uint32) {
			if st.Status != nil && resp[0] != *st.Status {
				s.fail(se.index, "IPI %v answered status %d, want %d",
					st.Words, resp[0], *st.Status)
			}
		})
	case ActionWrite:
		s.bus.Write32(uint32(st.Address), st.Value)
	case ActionExpect:
		s.expect(se.index, st)
	}

	return nil
}

func (s *Simulation) request(index int, st Step) error {
	target := s.fw.Target()

	blocks := map[string]regbus.IRQBlock{
		"pwrup":  target.PwrUp,
		"pwrdwn": target.PwrDwn,
		"wakeup": target.Wakeup,
		"pwrctl": target.PwrCtl,
		"swrst":  target.SwRst,
	}

	blk, ok := blocks[strings.ToLower(st.Category)]
	if !ok {
		return fmt.Errorf("%w: step %d has unknown category %q",
			ErrInvalidStep, index, st.Category)
	}

	var mask uint32

	for _, name := range st.Islands {
		switch {
		case blk == target.SwRst && name == "FPDDomain":
			mask |= target.FPDDomainReqMask
		case blk == target.SwRst && name == "RPUDomain":
			mask |= target.RPUDomainReqMask
		default:
			isl, err := s.island(index, name)
			if err != nil {
				return err
			}

			mask |= isl.ReqMask
		}
	}

	s.bus.Write32(blk.Trigger, mask)

	return nil
}

func (s *Simulation) island(index int, name string) (*power.Island, error) {
	id, err := power.ParseIslandID(name)
	if err != nil {
		return nil, fmt.Errorf("%w: step %d: %w", ErrInvalidStep, index, err)
	}

	return s.fw.Target().Island(id)
}

func (s *Simulation) core(index int, name string) (*power.Island, error) {
	isl, err := s.island(index, name)
	if err != nil {
		return nil, err
	}

	if !isl.HasMailbox {
		return nil, fmt.Errorf("%w: step %d: %s has no mailbox slot",
			ErrInvalidStep, index, name)
	}

	return isl, nil
}

func (s *Simulation) expect(index int, st Step) {
	check := func(names []string, want bool) {
		for _, name := range names {
			id, err := power.ParseIslandID(name)
			if err != nil {
				s.fail(index, "%v", err)
				continue
			}

			if got := s.fw.Sequencer().IsUp(id); got != want {
				s.fail(index, "%s up = %t, want %t (phase %s)",
					name, got, want, s.fw.Sequencer().Phase(id))
			}
		}
	}

	check(st.Up, true)
	check(st.Down, false)

	received := s.companion.Received()
	fresh := make([]string, 0, len(received)-s.lastNotified)

	for _, n := range received[s.lastNotified:] {
		fresh = append(fresh, n.String())
	}

	s.lastNotified = len(received)

	if st.Notified != nil && !slices.Equal(fresh, st.Notified) {
		s.fail(index, "notified %v, want %v", fresh, st.Notified)
	}
}

func (s *Simulation) fail(index int, format string, args ...any) {
	f := Failure{Step: index, At: s.clock.Now(), Msg: fmt.Sprintf(format, args...)}
	s.report.Failures = append(s.report.Failures, f)

	klog.Warningf("scenario %s: %s", s.script.Name, f)
}

// settle lets the firmware and the companion exchange until both are idle.
func (s *Simulation) settle() error {
	for i := 0; i < maxSettleRounds; i++ {
		p, err := s.fw.Step()
		if err != nil {
			s.report.Errors = append(s.report.Errors, err.Error())

			if halted := s.fw.Halted(); halted != nil {
				return fmt.Errorf("%w: %w", firmware.ErrHalted, halted)
			}
		}

		if !s.companion.Poll(s.clock.Now()) && p == 0 {
			return nil
		}
	}

	return ErrNotSettled
}
