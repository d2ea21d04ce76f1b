// Package hooking lets instrumentation observe the sequencer without the
// sequencer knowing who is listening.
package hooking

import "reflect"

// HookPos names a site at which hooks are invoked.
type HookPos struct {
	Name string
}

// HookCtx is the context that holds all the information about the site that a
// hook is triggered.
type HookCtx struct {
	// Domain is the hookable object that is raising this hook.
	Domain Hookable

	// Pos identifies the site the hook is firing from.
	Pos *HookPos

	// Item carries the primary subject (register access, transition, event).
	Item any

	// Detail holds optional auxiliary data; hook sites may leave it nil.
	Detail any
}

// Hookable defines an object that accept Hooks.
type Hookable interface {
	// AcceptHook registers a hook. Hooks are registered while the firmware
	// is being built and stay attached for its lifetime.
	AcceptHook(hook Hook)

	// NumHooks returns the number of hooks registered.
	NumHooks() int

	// InvokeHook triggers the registered Hooks.
	InvokeHook(ctx HookCtx)
}

// Hook is a short piece of program that can be invoked by a hookable object.
type Hook interface {
	// Func determines what to do if hook is invoked.
	Func(ctx HookCtx)
}

// HookFunc adapts a plain function into a Hook.
type HookFunc func(ctx HookCtx)

// Func calls f.
func (f HookFunc) Func(ctx HookCtx) {
	f(ctx)
}

// PosFilter wraps a hook so that it only sees the listed positions.
func PosFilter(hook Hook, positions ...*HookPos) Hook {
	return &posFilter{hook: hook, positions: positions}
}

type posFilter struct {
	hook      Hook
	positions []*HookPos
}

func (f *posFilter) Func(ctx HookCtx) {
	for _, p := range f.positions {
		if p == ctx.Pos {
			f.hook.Func(ctx)
			return
		}
	}
}

// A HookableBase provides some utility function for other type that implement
// the Hookable interface.
type HookableBase struct {
	hookList []Hook
}

// NewHookableBase creates a HookableBase object.
func NewHookableBase() *HookableBase {
	return &HookableBase{hookList: make([]Hook, 0)}
}

// NumHooks returns the number of hooks registered.
func (h *HookableBase) NumHooks() int {
	return len(h.hookList)
}

// AcceptHook registers a hook. Registering the same hook twice is a
// programming error.
func (h *HookableBase) AcceptHook(hook Hook) {
	comparable := reflect.TypeOf(hook).Comparable()
	for _, existing := range h.hookList {
		if comparable && existing == hook {
			panic("duplicated hook")
		}
	}

	h.hookList = append(h.hookList, hook)
}

// InvokeHook triggers the registered Hooks in registration order.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.hookList {
		hook.Func(ctx)
	}
}

var _ Hookable = (*HookableBase)(nil)
