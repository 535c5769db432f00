package dns

import (
	"errors"
	"strings"
	"testing"
)

func TestRDataRoundTrip(t *testing.T) {
	tests := []struct {
		recordType string
		value      Value
		rdata      string
	}{
		{TypeA, Value{Target: "1.2.3.4"}, "1.2.3.4"},
		{TypeAAAA, Value{Target: "2001:db8::1"}, "2001:db8::1"},
		{TypeALIAS, Value{Target: "www.unit.tests."}, "www.unit.tests."},
		{TypeCNAME, Value{Target: "unit.tests."}, "unit.tests."},
		{TypeNS, Value{Target: "ns1.unit.tests."}, "ns1.unit.tests."},
		{TypePTR, Value{Target: "foo.bar.com."}, "foo.bar.com."},
		{TypeMX, Value{Priority: 10, Target: "mx1.unit.tests."}, "10 mx1.unit.tests."},
		{TypeSRV, Value{Priority: 10, Weight: 20, Port: 30, Target: "foo-1.unit.tests."}, "10 20 30 foo-1.unit.tests."},
		{TypeCAA, Value{Flags: 0, Tag: "issue", Target: "ca.unit.tests"}, `0 issue "ca.unit.tests"`},
		{TypeSVCB, Value{Priority: 1, Target: "svc.unit.tests.", Params: "alpn=h2"}, "1 svc.unit.tests. alpn=h2"},
		{TypeHTTPS, Value{Priority: 1, Target: ".", Params: "alpn=h2,h3"}, "1 . alpn=h2,h3"},
		{TypeHTTPS, Value{Priority: 0, Target: "alias.unit.tests."}, "0 alias.unit.tests."},
		{TypeTXT, Value{Target: "v=spf1 -all"}, "v=spf1 -all"},
	}

	for _, tt := range tests {
		t.Run(tt.recordType+" "+tt.rdata, func(t *testing.T) {
			rdata, err := FormatRData(tt.recordType, tt.value)
			if err != nil {
				t.Fatalf("FormatRData: %v", err)
			}
			if rdata != tt.rdata {
				t.Errorf("FormatRData: got %q, want %q", rdata, tt.rdata)
			}

			v, err := ParseRData(tt.recordType, rdata)
			if err != nil {
				t.Fatalf("ParseRData: %v", err)
			}
			if v != tt.value {
				t.Errorf("ParseRData: got %+v, want %+v", v, tt.value)
			}
		})
	}
}

func TestParseRData_CAAUnquoted(t *testing.T) {
	v, err := ParseRData(TypeCAA, "0 issue ca.unit.tests")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Value{Flags: 0, Tag: "issue", Target: "ca.unit.tests"}
	if v != want {
		t.Errorf("got %+v, want %+v", v, want)
	}
}

func TestParseRData_TXTEscapedSemicolon(t *testing.T) {
	v, err := ParseRData(TypeTXT, `v=DKIM1\;k=rsa\;p=abc`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Target != "v=DKIM1;k=rsa;p=abc" {
		t.Errorf("got %q", v.Target)
	}
}

func TestParseRData_TXTQuotedChunks(t *testing.T) {
	v, err := ParseRData(TypeTXT, `"hello " "wor\"ld"`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Target != `hello wor"ld` {
		t.Errorf("got %q", v.Target)
	}
}

func TestFormatRData_LongTXT(t *testing.T) {
	text := strings.Repeat("a", 300) + `"b`
	rdata, err := FormatRData(TypeTXT, Value{Target: text})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(rdata, `"`+strings.Repeat("a", maxTXTChunk)+`" "`) {
		t.Errorf("expected long TXT to be split at %d bytes, got %q", maxTXTChunk, rdata)
	}

	v, err := ParseRData(TypeTXT, rdata)
	if err != nil {
		t.Fatalf("ParseRData: %v", err)
	}
	if v.Target != text {
		t.Errorf("round trip mismatch: got %q", v.Target)
	}
}

func TestFormatRData_Invalid(t *testing.T) {
	tests := []struct {
		name       string
		recordType string
		value      Value
	}{
		{"bad ipv4", TypeA, Value{Target: "not-an-ip"}},
		{"ipv4 as AAAA", TypeAAAA, Value{Target: "1.2.3.4"}},
		{"empty TXT", TypeTXT, Value{}},
		{"ALIAS with spaces", TypeALIAS, Value{Target: "foo bar."}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FormatRData(tt.recordType, tt.value); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestRData_UnsupportedType(t *testing.T) {
	if _, err := FormatRData("SPF", Value{Target: "v=spf1 -all"}); !errors.Is(err, ErrUnsupportedRecord) {
		t.Errorf("FormatRData: expected ErrUnsupportedRecord, got %v", err)
	}
	if _, err := ParseRData(TypeA, "   "); err == nil {
		t.Error("ParseRData: expected error for empty rdata")
	}
}

func TestRDataRoundTrip_EscapedAndUnusual(t *testing.T) {
	tests := []struct {
		recordType string
		value      Value
	}{
		{TypeAAAA, Value{Target: "::ffff:192.0.2.1"}},
		{TypeCNAME, Value{Target: "WWW.Unit.Tests."}},
		{TypeMX, Value{Priority: 0, Target: "."}},
		{TypeCAA, Value{Flags: 0, Tag: "iodef", Target: `mailto:a"b@unit.tests`}},
		{TypeCAA, Value{Flags: 128, Tag: "issue", Target: `back\slash; policy=ev`}},
		{TypeTXT, Value{Target: `"quoted" text`}},
		{TypeTXT, Value{Target: `a\;b`}},
		{TypeTXT, Value{Target: "a;b"}},
		{TypeTXT, Value{Target: " leading and trailing "}},
		{TypeTXT, Value{Target: `say "hi"`}},
		{TypeTXT, Value{Target: strings.Repeat(`\"`, 200)}},
	}

	for _, tt := range tests {
		t.Run(tt.recordType+" "+tt.value.Target, func(t *testing.T) {
			rdata, err := FormatRData(tt.recordType, tt.value)
			if err != nil {
				t.Fatalf("FormatRData: %v", err)
			}
			v, err := ParseRData(tt.recordType, rdata)
			if err != nil {
				t.Fatalf("ParseRData(%q): %v", rdata, err)
			}
			if v != tt.value {
				t.Errorf("round trip through %q: got %+v, want %+v", rdata, v, tt.value)
			}
		})
	}
}

func TestNormalizeValue(t *testing.T) {
	tests := []struct {
		recordType string
		in         Value
		want       Value
	}{
		{TypeAAAA, Value{Target: "2001:DB8::1"}, Value{Target: "2001:db8::1"}},
		{TypeAAAA, Value{Target: "2001:0db8:0000::0001"}, Value{Target: "2001:db8::1"}},
		{TypeSVCB, Value{Priority: 1, Target: "svc.unit.tests.", Params: `alpn="h2"`}, Value{Priority: 1, Target: "svc.unit.tests.", Params: "alpn=h2"}},
		{TypeA, Value{Target: "1.2.3.4"}, Value{Target: "1.2.3.4"}},
	}

	for _, tt := range tests {
		t.Run(tt.recordType+" "+tt.in.Target+tt.in.Params, func(t *testing.T) {
			got, err := NormalizeValue(tt.recordType, tt.in)
			if err != nil {
				t.Fatalf("NormalizeValue: %v", err)
			}
			if got != tt.want {
				t.Errorf("NormalizeValue: got %+v, want %+v", got, tt.want)
			}
			if _, err := FormatRData(tt.recordType, got); err != nil {
				t.Errorf("normalized value rejected by FormatRData: %v", err)
			}
			if tt.in != tt.want {
				if _, err := FormatRData(tt.recordType, tt.in); err == nil {
					t.Errorf("expected FormatRData to reject non-canonical %+v", tt.in)
				}
			}
		})
	}
}

func TestFormatRData_RelativeTargets(t *testing.T) {
	tests := []struct {
		recordType string
		value      Value
	}{
		{TypeCNAME, Value{Target: "www.unit.tests"}},
		{TypeALIAS, Value{Target: "www"}},
		{TypeNS, Value{Target: "ns1.unit.tests"}},
		{TypePTR, Value{Target: "foo.bar.com"}},
		{TypeMX, Value{Priority: 10, Target: "mx1"}},
		{TypeSRV, Value{Priority: 10, Weight: 20, Port: 30, Target: "foo-1.unit.tests"}},
		{TypeHTTPS, Value{Priority: 1, Target: "svc"}},
	}

	for _, tt := range tests {
		t.Run(tt.recordType+" "+tt.value.Target, func(t *testing.T) {
			if _, err := FormatRData(tt.recordType, tt.value); err == nil {
				t.Error("FormatRData: expected error for relative target")
			}
			if _, err := NormalizeValue(tt.recordType, tt.value); err == nil {
				t.Error("NormalizeValue: expected error for relative target")
			}
		})
	}
}

func TestParseRData_Escapes(t *testing.T) {
	tests := []struct {
		recordType string
		rdata      string
		want       string
	}{
		{TypeCAA, `0 iodef "mailto:a\"b@unit.tests"`, `mailto:a"b@unit.tests`},
		{TypeTXT, `"a\059b"`, "a;b"},
		{TypeTXT, `"back\\slash"`, `back\slash`},
	}

	for _, tt := range tests {
		t.Run(tt.rdata, func(t *testing.T) {
			v, err := ParseRData(tt.recordType, tt.rdata)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if v.Target != tt.want {
				t.Errorf("got %q, want %q", v.Target, tt.want)
			}
		})
	}
}
