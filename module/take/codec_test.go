package take

import (
	"reflect"
	"testing"
)

func TestParseAnswerSet(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    AnswerSet
		wantErr bool
	}{
		{"single choice per question", "A;X", AnswerSet{{"A"}, {"X"}}, false},
		{"multi select", "A,B;X", AnswerSet{{"A", "B"}, {"X"}}, false},
		{"one question", "C", AnswerSet{{"C"}}, false},
		{"empty string", "", nil, true},
		{"blank string", "   ", nil, true},
		{"empty segment", "A;;B", nil, true},
		{"trailing separator", "A;", nil, true},
		{"empty choice", "A,,B;X", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAnswerSet(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAnswerSet(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err == nil && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseAnswerSet(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	in := "A,B;X;C,D,E"
	set, err := ParseAnswerSet(in)
	if err != nil {
		t.Fatalf("ParseAnswerSet() error = %v", err)
	}
	if out := set.Encode(); out != in {
		t.Errorf("Encode() = %q, want %q", out, in)
	}
}

func TestValidate(t *testing.T) {
	t.Run("valid set", func(t *testing.T) {
		set := AnswerSet{{"A", "B"}, {"X"}}
		if err := set.Validate(); err != nil {
			t.Errorf("Validate() = %v, want nil", err)
		}
	})

	t.Run("delimiter in choice", func(t *testing.T) {
		// 编码无转义，含分隔符的选项必须在提交时拒绝
		for _, bad := range []AnswerSet{{{"A;B"}}, {{"A,B"}}} {
			if err := bad.Validate(); err == nil {
				t.Errorf("Validate(%v) = nil, want error", bad)
			}
		}
	})

	t.Run("empty cases", func(t *testing.T) {
		for _, bad := range []AnswerSet{nil, {}, {{}}, {{""}}} {
			if err := bad.Validate(); err == nil {
				t.Errorf("Validate(%v) = nil, want error", bad)
			}
		}
	})
}
