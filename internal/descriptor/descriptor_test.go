package descriptor

import "testing"

func TestParseMethodDescriptor(t *testing.T) {
	t.Run("void no args", func(t *testing.T) {
		d, err := ParseMethod("()V")
		if err != nil {
			t.Fatalf("ParseMethod: %v", err)
		}
		if len(d.Params) != 0 {
			t.Errorf("params: got %d, want 0", len(d.Params))
		}
		if !d.Ret.Equal(Base('V')) {
			t.Errorf("return: got %v, want V", d.Ret)
		}
	})

	t.Run("array of strings return", func(t *testing.T) {
		d, err := ParseMethod("()[Ljava/lang/String;")
		if err != nil {
			t.Fatalf("ParseMethod: %v", err)
		}
		want := Array(Object("java/lang/String"))
		if !d.Ret.Equal(want) {
			t.Errorf("return: got %v, want %v", d.Ret, want)
		}
	})

	t.Run("mixed parameters", func(t *testing.T) {
		d, err := ParseMethod("(IJ[[Ljava/lang/String;)I")
		if err != nil {
			t.Fatalf("ParseMethod: %v", err)
		}
		want := MethodDescriptor{
			Params: []FieldType{
				Base('I'),
				Base('J'),
				Array(Array(Object("java/lang/String"))),
			},
			Ret: Base('I'),
		}
		if !d.Equal(want) {
			t.Errorf("got %s, want %s", d, want)
		}
	})

	t.Run("V in parameter position is rejected", func(t *testing.T) {
		if _, err := ParseMethod("(IV)I"); err == nil {
			t.Error("ParseMethod(\"(IV)I\") succeeded, want error")
		}
	})

	t.Run("trailing garbage is rejected", func(t *testing.T) {
		if _, err := ParseMethod("(I)I "); err == nil {
			t.Error("ParseMethod(\"(I)I \") succeeded, want error")
		}
	})

	t.Run("missing paren", func(t *testing.T) {
		if _, err := ParseMethod("I)I"); err == nil {
			t.Error("want error for descriptor without '('")
		}
		if _, err := ParseMethod("(I"); err == nil {
			t.Error("want error for descriptor without ')'")
		}
	})
}

func TestParseFieldDescriptor(t *testing.T) {
	tests := []struct {
		in   string
		want FieldType
	}{
		{"I", Base('I')},
		{"J", Base('J')},
		{"Z", Base('Z')},
		{"Ljava/lang/Object;", Object("java/lang/Object")},
		{"[I", Array(Base('I'))},
		{"[[D", Array(Array(Base('D')))},
		{"[Ljava/lang/String;", Array(Object("java/lang/String"))},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseField(tt.in)
			if err != nil {
				t.Fatalf("ParseField(%q): %v", tt.in, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseField(%q): got %v, want %v", tt.in, got, tt.want)
			}
		})
	}

	t.Run("rejects bad input", func(t *testing.T) {
		for _, in := range []string{"", "V", "X", "L;", "Lfoo", "[", "II"} {
			if _, err := ParseField(in); err == nil {
				t.Errorf("ParseField(%q) succeeded, want error", in)
			}
		}
	})
}

func TestDescriptorRoundTrip(t *testing.T) {
	corpus := []string{
		"()V",
		"(I)I",
		"(IJ[[Ljava/lang/String;)I",
		"(Ljava/lang/Object;)Z",
		"([B[C)Ljava/lang/String;",
		"(DDD)D",
		"()[[[J",
	}
	for _, s := range corpus {
		d, err := ParseMethod(s)
		if err != nil {
			t.Fatalf("ParseMethod(%q): %v", s, err)
		}
		if got := d.String(); got != s {
			t.Errorf("round trip: got %q, want %q", got, s)
		}
		back, err := ParseMethod(d.String())
		if err != nil {
			t.Fatalf("re-parse %q: %v", d.String(), err)
		}
		if !back.Equal(d) {
			t.Errorf("parse(unparse(%q)) differs", s)
		}
	}
}
