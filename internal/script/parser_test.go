package script

import (
	"reflect"
	"testing"

	"github.com/AfikDanan/DayZeroAI/internal/models"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want models.Script
	}{
		{
			name: "canonical two host exchange",
			raw:  "Alex: Welcome aboard!\nJordan: We're thrilled to have you.",
			want: models.Script{
				{Speaker: models.Host1, Text: "Welcome aboard!"},
				{Speaker: models.Host2, Text: "We're thrilled to have you."},
			},
		},
		{
			name: "aliases normalize to canonical roles",
			raw:  "HOST1: hi\nspeaker2: there\nSpeaker1: again",
			want: models.Script{
				{Speaker: models.Host1, Text: "hi"},
				{Speaker: models.Host2, Text: "there"},
				{Speaker: models.Host1, Text: "again"},
			},
		},
		{
			name: "unknown speakers are dropped not defaulted",
			raw:  "Narrator: should vanish\nAlex: kept",
			want: models.Script{{Speaker: models.Host1, Text: "kept"}},
		},
		{
			name: "lines without separator are dropped",
			raw:  "just some prose\nAlex: kept",
			want: models.Script{{Speaker: models.Host1, Text: "kept"}},
		},
		{
			name: "empty text after separator is dropped",
			raw:  "Alex:   \nJordan: kept",
			want: models.Script{{Speaker: models.Host2, Text: "kept"}},
		},
		{
			name: "colon inside utterance stays intact",
			raw:  "Alex: remember: lunch at noon",
			want: models.Script{{Speaker: models.Host1, Text: "remember: lunch at noon"}},
		},
		{
			name: "blank input yields empty script",
			raw:  "\n\n  \n",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Parse() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestParseDeterministic(t *testing.T) {
	raw := "Alex: one\nweird line\nJordan: two\nBob: three\n"
	first := Parse(raw)
	for i := 0; i < 10; i++ {
		if got := Parse(raw); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differed: %#v vs %#v", i, got, first)
		}
	}
}

func TestNormalizeSpeaker(t *testing.T) {
	cases := map[string]struct {
		speaker models.Speaker
		ok      bool
	}{
		"alex":     {models.Host1, true},
		"host1":    {models.Host1, true},
		"speaker1": {models.Host1, true},
		"jordan":   {models.Host2, true},
		"host2":    {models.Host2, true},
		"speaker2": {models.Host2, true},
		"narrator": {"", false},
		"":         {"", false},
	}
	for raw, want := range cases {
		got, ok := models.NormalizeSpeaker(raw)
		if got != want.speaker || ok != want.ok {
			t.Errorf("NormalizeSpeaker(%q) = (%q, %v), want (%q, %v)", raw, got, ok, want.speaker, want.ok)
		}
	}
}
