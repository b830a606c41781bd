package service

import (
	"context"
)

type Method string

const (
	MethodFind   Method = "find"
	MethodGet    Method = "get"
	MethodCreate Method = "create"
	MethodPatch  Method = "patch"
	MethodRemove Method = "remove"
)

type Phase int

const (
	PhaseBefore Phase = iota
	PhaseAfter
)

func (p Phase) String() string {
	if p == PhaseAfter {
		return "after"
	}
	return "before"
}

// Params carries the caller side of a service call.
type Params struct {
	// External is false for calls made from inside the process; guards that
	// only apply to client requests let those through.
	External       bool
	Query          map[string]any
	User           map[string]any
	Authentication AuthRequest
}

// HookContext is the request a hook inspects and rewrites. A before hook that
// sets Result short-circuits the store call.
type HookContext struct {
	Service        string
	Method         Method
	Phase          Phase
	ID             string
	Data           map[string]any
	Query          map[string]any
	User           map[string]any
	Authentication AuthRequest
	External       bool
	Result         map[string]any

	// loggingOut is set once the logout hook has resolved a refresh token.
	loggingOut bool
}

func newHookContext(service string, method Method, id string, data map[string]any, params Params) *HookContext {
	return &HookContext{
		Service:        service,
		Method:         method,
		ID:             id,
		Data:           data,
		Query:          params.Query,
		User:           params.User,
		Authentication: params.Authentication,
		External:       params.External,
	}
}

type Hook func(ctx context.Context, hc *HookContext) error

type Hooks struct {
	Before map[Method][]Hook
	After  map[Method][]Hook
}

func (h *Hooks) Use(phase Phase, method Method, hooks ...Hook) {
	target := &h.Before
	if phase == PhaseAfter {
		target = &h.After
	}
	if *target == nil {
		*target = make(map[Method][]Hook)
	}
	(*target)[method] = append((*target)[method], hooks...)
}

// run executes before hooks, call (unless a before hook produced a result)
// and then after hooks.
func (h *Hooks) run(ctx context.Context, hc *HookContext, call func(context.Context, *HookContext) error) error {
	hc.Phase = PhaseBefore
	for _, hook := range h.Before[hc.Method] {
		if err := hook(ctx, hc); err != nil {
			return err
		}
	}

	if hc.Result == nil && call != nil {
		if err := call(ctx, hc); err != nil {
			return err
		}
	}

	hc.Phase = PhaseAfter
	for _, hook := range h.After[hc.Method] {
		if err := hook(ctx, hc); err != nil {
			return err
		}
	}
	return nil
}
