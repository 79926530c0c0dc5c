package script

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/AfikDanan/DayZeroAI/internal/models"
)

type fakeCompleter struct {
	response string
	err      error
	system   string
	prompt   string
}

func (f *fakeCompleter) Complete(_ context.Context, system, prompt string) (string, error) {
	f.system = system
	f.prompt = prompt
	return f.response, f.err
}

func sampleEmployee() models.Employee {
	return models.Employee{
		EmployeeID: "emp-1",
		Name:       "Ana Lee",
		Email:      "ana@example.com",
		Position:   "Backend Engineer",
		Team:       "Platform",
		Manager:    "Sam Field",
		StartDate:  "2026-10-01",
		Office:     "Berlin",
		TechStack:  []string{"Go", "Redis"},
		FirstDaySchedule: []models.ScheduleItem{
			{Time: "9:00", Activity: "Welcome"},
		},
		FirstWeekSchedule: map[string]string{"Monday": "Orientation"},
	}
}

func TestGeneratorParsesResponse(t *testing.T) {
	fake := &fakeCompleter{response: "Alex: Hello Ana!\nJordan: Welcome to Platform."}
	gen := NewGenerator(fake, zap.NewNop())

	got, err := gen.Generate(context.Background(), sampleEmployee())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(got) != 2 || got[0].Speaker != models.Host1 || got[1].Speaker != models.Host2 {
		t.Fatalf("unexpected script: %#v", got)
	}
}

func TestGeneratorPromptIncludesAttributes(t *testing.T) {
	fake := &fakeCompleter{response: "Alex: hi"}
	gen := NewGenerator(fake, zap.NewNop())

	if _, err := gen.Generate(context.Background(), sampleEmployee()); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for _, want := range []string{"Ana Lee", "Backend Engineer", "Platform", "Sam Field", "Go, Redis", "9:00: Welcome", "Monday: Orientation"} {
		if !strings.Contains(fake.prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, fake.prompt)
		}
	}
	if !strings.Contains(fake.system, "Alex") || !strings.Contains(fake.system, "Jordan") {
		t.Errorf("system instruction missing host names")
	}
}

func TestGeneratorPropagatesCompleterError(t *testing.T) {
	boom := errors.New("model unavailable")
	gen := NewGenerator(&fakeCompleter{err: boom}, zap.NewNop())

	_, err := gen.Generate(context.Background(), sampleEmployee())
	if !errors.Is(err, boom) {
		t.Fatalf("want wrapped completer error, got %v", err)
	}
}

func TestGeneratorRejectsUnparseableScript(t *testing.T) {
	gen := NewGenerator(&fakeCompleter{response: "no dialogue here\nstill nothing"}, zap.NewNop())

	_, err := gen.Generate(context.Background(), sampleEmployee())
	if !errors.Is(err, ErrEmptyScript) {
		t.Fatalf("want ErrEmptyScript, got %v", err)
	}
}
