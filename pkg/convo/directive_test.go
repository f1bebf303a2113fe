package convo

import (
	"strings"
	"testing"
)

func TestDirectiveTable_Exhaustive(t *testing.T) {
	t.Parallel()

	for _, phase := range Phases {
		if _, ok := directiveTable[phase]; !ok {
			t.Errorf("no directive registered for phase %s", phase)
		}
	}
	if len(directiveTable) != len(Phases) {
		t.Fatalf("directive table has %d entries, want %d", len(directiveTable), len(Phases))
	}
}

func TestRenderDirective_EmbedsPhaseAndVoiceContract(t *testing.T) {
	t.Parallel()

	for _, phase := range Phases {
		state := NewSessionState()
		state.Phase = phase
		directive, _ := RenderDirective(state)
		if !strings.Contains(directive, string(phase)) {
			t.Errorf("directive for %s does not name the phase: %q", phase, directive)
		}
		if !strings.Contains(directive, "one to three sentences") {
			t.Errorf("directive for %s is missing the voice contract", phase)
		}
	}
}

func TestRenderDirective_UnknownPhaseFallsBack(t *testing.T) {
	t.Parallel()

	state := NewSessionState()
	state.Phase = ConversationPhase("totally_new_phase")
	directive, _ := RenderDirective(state)
	if directive == "" {
		t.Fatal("unknown phase must resolve to a generic directive, not fail")
	}
	if !strings.Contains(directive, "totally_new_phase") {
		t.Fatalf("generic directive should still name the phase: %q", directive)
	}
}

func TestRenderDirective_CollectContactForbidsFabrication(t *testing.T) {
	t.Parallel()

	state := NewSessionState()
	state.Phase = PhaseBookingCollectContact
	directive, _ := RenderDirective(state)
	for _, required := range []string{"never infer", "explicitly", "Do not call get_available_slots"} {
		if !strings.Contains(directive, required) {
			t.Errorf("collect-contact directive missing %q: %s", required, directive)
		}
	}
}

func TestRenderDirective_FounderBranch(t *testing.T) {
	t.Parallel()

	state := NewSessionState()
	state.Phase = PhaseDiscoverIntent
	state.Intent = IntentFounder
	directive, _ := RenderDirective(state)
	if !strings.Contains(directive, "founder") {
		t.Fatalf("founder branch should mention the founder fit: %q", directive)
	}
	if !strings.Contains(directive, "Do not ask for their name or email") {
		t.Fatalf("founder branch must suppress contact collection: %q", directive)
	}
}

func TestComposeMemoryNote(t *testing.T) {
	t.Parallel()

	// No signal, no note.
	state := NewSessionState()
	if _, note := RenderDirective(state); note != "" {
		t.Fatalf("expected empty memory note, got %q", note)
	}

	// External hint wins over composed profile signals.
	state.MemoryHint = "met at a conference last month"
	state.Company = "Acme"
	_, note := RenderDirective(state)
	if !strings.Contains(note, "met at a conference") {
		t.Fatalf("hint not used: %q", note)
	}
	if strings.Contains(note, "Acme") {
		t.Fatalf("composed signals must not leak when a hint is present: %q", note)
	}

	// Composed note hedges every signal.
	state.MemoryHint = ""
	state.BookedBefore = true
	state.Intent = IntentHiring
	_, note = RenderDirective(state)
	for _, want := range []string{"Acme", "booked", "hiring", "mention with uncertainty"} {
		if !strings.Contains(note, want) {
			t.Errorf("composed note missing %q: %s", want, note)
		}
	}
}

func TestBuildCoreInstructions_ContainsAllSections(t *testing.T) {
	t.Parallel()

	instructions := BuildCoreInstructions()
	for _, marker := range []string{
		"You are Melvin",
		"Voice-safe responses only",
		"Primary goal",
		"Guardrails",
		"DebtEase",
		"Soft booking behavior",
		"get_current_datetime",
	} {
		if !strings.Contains(instructions, marker) {
			t.Errorf("core instructions missing %q", marker)
		}
	}
}
