package workflow

import (
	"context"
	"errors"
	"testing"
)

const (
	stateDraft     State = "DRAFT"
	stateSubmitted State = "SUBMITTED"
	stateApproved  State = "APPROVED"
	stateRejected  State = "REJECTED"
	stateCanceled  State = "CANCELED"
)

func TestState_String(t *testing.T) {
	if got := stateDraft.String(); got != "DRAFT" {
		t.Errorf("State.String() = %v, want %v", got, "DRAFT")
	}
}

func TestTrigger_String(t *testing.T) {
	if got := TriggerSubmit.String(); got != "SUBMIT" {
		t.Errorf("Trigger.String() = %v, want %v", got, "SUBMIT")
	}
}

func TestBuilder_Configure(t *testing.T) {
	builder := NewBuilder()

	config := builder.Configure(stateDraft)
	if config == nil {
		t.Fatal("Configure() returned nil")
	}

	// Configuring the same state again returns the same configuration.
	config2 := builder.Configure(stateDraft)
	if config != config2 {
		t.Error("Configure() should return same config for same state")
	}
}

func documentBuilder() StateMachineBuilder {
	builder := NewBuilder()
	builder.Configure(stateDraft).
		Permit(TriggerSubmit, stateSubmitted).
		Permit(TriggerCancel, stateCanceled)
	builder.Configure(stateSubmitted).
		Permit(TriggerApprove, stateApproved).
		Permit(TriggerReject, stateRejected)
	return builder
}

func TestStateMachine_Fire(t *testing.T) {
	machine := documentBuilder().Build(stateDraft)

	if err := machine.Fire(context.Background(), TriggerSubmit); err != nil {
		t.Fatalf("Fire() error = %v", err)
	}
	if got := machine.State(); got != stateSubmitted {
		t.Errorf("State() = %v, want %v", got, stateSubmitted)
	}

	if err := machine.Fire(context.Background(), TriggerApprove); err != nil {
		t.Fatalf("Fire() error = %v", err)
	}
	if got := machine.State(); got != stateApproved {
		t.Errorf("State() = %v, want %v", got, stateApproved)
	}
}

func TestStateMachine_FireInvalidTransition(t *testing.T) {
	tests := []struct {
		name    string
		initial State
		trigger Trigger
	}{
		{"approve from draft", stateDraft, TriggerApprove},
		{"submit from submitted", stateSubmitted, TriggerSubmit},
		{"anything from a terminal state", stateRejected, TriggerSubmit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			machine := documentBuilder().Build(tt.initial)

			err := machine.Fire(context.Background(), tt.trigger)
			if !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("Fire() error = %v, want ErrInvalidTransition", err)
			}
			if got := machine.State(); got != tt.initial {
				t.Errorf("State() after failed Fire = %v, want %v", got, tt.initial)
			}
		})
	}
}

func TestStateMachine_CanFire(t *testing.T) {
	machine := documentBuilder().Build(stateDraft)

	if !machine.CanFire(TriggerSubmit) {
		t.Error("CanFire(TriggerSubmit) should be true in DRAFT")
	}
	if machine.CanFire(TriggerApprove) {
		t.Error("CanFire(TriggerApprove) should be false in DRAFT")
	}
}

func TestStateMachine_PermittedTriggers(t *testing.T) {
	machine := documentBuilder().Build(stateDraft)

	triggers := machine.PermittedTriggers()
	if len(triggers) != 2 {
		t.Fatalf("PermittedTriggers() = %v, want 2 triggers", triggers)
	}

	seen := map[Trigger]bool{}
	for _, trigger := range triggers {
		seen[trigger] = true
	}
	if !seen[TriggerSubmit] || !seen[TriggerCancel] {
		t.Errorf("PermittedTriggers() = %v, want submit and cancel", triggers)
	}

	terminal := documentBuilder().Build(stateRejected)
	if got := terminal.PermittedTriggers(); len(got) != 0 {
		t.Errorf("PermittedTriggers() in terminal state = %v, want none", got)
	}
}

func TestStateMachine_GuardedTransitions(t *testing.T) {
	const (
		statePartial  State = "PARTIALLY_RECEIVED"
		stateReceived State = "RECEIVED"
	)

	build := func(complete bool) StateMachine {
		builder := NewBuilder()
		builder.Configure(stateApproved).
			PermitIf(TriggerReceive, stateReceived, func(context.Context) bool { return complete }).
			Permit(TriggerReceive, statePartial)
		return builder.Build(stateApproved)
	}

	t.Run("guard passes", func(t *testing.T) {
		machine := build(true)
		if err := machine.Fire(context.Background(), TriggerReceive); err != nil {
			t.Fatalf("Fire() error = %v", err)
		}
		if got := machine.State(); got != stateReceived {
			t.Errorf("State() = %v, want %v", got, stateReceived)
		}
	})

	t.Run("guard fails, unguarded fallback wins", func(t *testing.T) {
		machine := build(false)
		if err := machine.Fire(context.Background(), TriggerReceive); err != nil {
			t.Fatalf("Fire() error = %v", err)
		}
		if got := machine.State(); got != statePartial {
			t.Errorf("State() = %v, want %v", got, statePartial)
		}
	})

	t.Run("all guards fail", func(t *testing.T) {
		builder := NewBuilder()
		builder.Configure(stateApproved).
			PermitIf(TriggerReceive, stateReceived, func(context.Context) bool { return false })
		machine := builder.Build(stateApproved)

		err := machine.Fire(context.Background(), TriggerReceive)
		if !errors.Is(err, ErrGuardFailed) {
			t.Errorf("Fire() error = %v, want ErrGuardFailed", err)
		}
		if got := machine.State(); got != stateApproved {
			t.Errorf("State() after failed guard = %v, want unchanged", got)
		}
	})
}

func TestBuilder_BuildIsolation(t *testing.T) {
	builder := documentBuilder()

	first := builder.Build(stateDraft)
	second := builder.Build(stateDraft)

	if err := first.Fire(context.Background(), TriggerSubmit); err != nil {
		t.Fatalf("Fire() error = %v", err)
	}
	if got := second.State(); got != stateDraft {
		t.Errorf("sibling machine state = %v, want %v", got, stateDraft)
	}
}
