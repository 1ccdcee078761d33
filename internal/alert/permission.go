package alert

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// PermissionKey is the key-value entry holding the permission state.
const PermissionKey = "notificationPermission"

// PermissionState mirrors the three states of a platform notification
// permission.
type PermissionState string

const (
	PermissionDefault PermissionState = "default"
	PermissionGranted PermissionState = "granted"
	PermissionDenied  PermissionState = "denied"
)

// KV is the key-value storage the permission is persisted in.
type KV interface {
	GetValue(ctx context.Context, key string) (string, bool, error)
	SetValue(ctx context.Context, key, value string) error
}

// Prompter asks the user a yes/no question.
type Prompter interface {
	Confirm(ctx context.Context, question string) (bool, error)
}

// Permission gates alert delivery.
type Permission struct {
	kv     KV
	prompt Prompter
}

// NewPermission returns a permission backed by kv. prompt may be nil, in
// which case Request never grants from the default state.
func NewPermission(kv KV, prompt Prompter) *Permission {
	return &Permission{kv: kv, prompt: prompt}
}

// State returns the stored state. A missing or unrecognized value is
// PermissionDefault.
func (p *Permission) State(ctx context.Context) (PermissionState, error) {
	v, ok, err := p.kv.GetValue(ctx, PermissionKey)
	if err != nil {
		return PermissionDefault, fmt.Errorf("read permission: %w", err)
	}
	if !ok {
		return PermissionDefault, nil
	}
	switch s := PermissionState(v); s {
	case PermissionGranted, PermissionDenied:
		return s, nil
	default:
		return PermissionDefault, nil
	}
}

// Granted reports whether alerts may be delivered.
func (p *Permission) Granted(ctx context.Context) (bool, error) {
	s, err := p.State(ctx)
	return s == PermissionGranted, err
}

// Request asks for permission. A decided state is returned without asking;
// only the default state prompts, and the answer is persisted.
func (p *Permission) Request(ctx context.Context) (bool, error) {
	s, err := p.State(ctx)
	if err != nil {
		return false, err
	}
	switch s {
	case PermissionGranted:
		return true, nil
	case PermissionDenied:
		return false, nil
	}
	if p.prompt == nil {
		return false, nil
	}

	ok, err := p.prompt.Confirm(ctx, "Allow expiry notifications?")
	if err != nil {
		return false, fmt.Errorf("prompt: %w", err)
	}
	next := PermissionDenied
	if ok {
		next = PermissionGranted
	}
	if err := p.set(ctx, next); err != nil {
		return false, err
	}
	return ok, nil
}

// Deny records a refusal.
func (p *Permission) Deny(ctx context.Context) error {
	return p.set(ctx, PermissionDenied)
}

// Reset returns to the default state so the next Request prompts again.
func (p *Permission) Reset(ctx context.Context) error {
	return p.set(ctx, PermissionDefault)
}

func (p *Permission) set(ctx context.Context, s PermissionState) error {
	if err := p.kv.SetValue(ctx, PermissionKey, string(s)); err != nil {
		return fmt.Errorf("write permission: %w", err)
	}
	return nil
}

// LinePrompter asks on Out and reads a y/n answer from In.
type LinePrompter struct {
	In  io.Reader
	Out io.Writer
}

func (lp LinePrompter) Confirm(ctx context.Context, question string) (bool, error) {
	fmt.Fprintf(lp.Out, "%s [y/N] ", question)

	type answer struct {
		line string
		err  error
	}
	ch := make(chan answer, 1)
	go func() {
		line, err := bufio.NewReader(lp.In).ReadString('\n')
		if err == io.EOF && line != "" {
			err = nil
		}
		ch <- answer{line, err}
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case a := <-ch:
		if a.err == io.EOF {
			return false, nil
		}
		if a.err != nil {
			return false, a.err
		}
		switch strings.ToLower(strings.TrimSpace(a.line)) {
		case "y", "yes":
			return true, nil
		}
		return false, nil
	}
}
