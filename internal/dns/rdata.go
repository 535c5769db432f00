package dns

import (
	"fmt"
	"net/netip"
	"strings"

	mdns "github.com/miekg/dns"
)

// maxTXTChunk is the longest character-string a TXT RDATA segment can hold.
const maxTXTChunk = 255

// FormatRData renders v as the RDATA presentation text for recordType.
// Only values already in canonical form are accepted, so reading the result
// back with ParseRData yields v unchanged. NormalizeValue produces that form.
func FormatRData(recordType string, v Value) (string, error) {
	rdata, err := buildRData(recordType, v)
	if err != nil {
		return "", err
	}
	parsed, err := ParseRData(recordType, rdata)
	if err != nil {
		return "", err
	}
	if parsed != v {
		return "", fmt.Errorf("format %s rdata: value %+v is not canonical, use %+v", recordType, v, parsed)
	}
	return rdata, nil
}

// NormalizeValue returns v in the canonical form FormatRData accepts:
// lower-case IPv6 addresses, unquoted SvcParams and so on. Host names must
// already be fully qualified.
func NormalizeValue(recordType string, v Value) (Value, error) {
	rdata, err := buildRData(recordType, v)
	if err != nil {
		return Value{}, err
	}
	return ParseRData(recordType, rdata)
}

func buildRData(recordType string, v Value) (string, error) {
	switch recordType {
	case TypeALIAS, TypeCNAME, TypeNS, TypePTR, TypeMX, TypeSRV, TypeSVCB, TypeHTTPS:
		if !strings.HasSuffix(v.Target, ".") {
			return "", fmt.Errorf("format %s rdata: target %q is not fully qualified", recordType, v.Target)
		}
	}

	switch recordType {
	case TypeA, TypeAAAA, TypeALIAS, TypeCNAME, TypeNS, TypePTR:
		return v.Target, nil
	case TypeMX:
		return fmt.Sprintf("%d %s", v.Priority, v.Target), nil
	case TypeSRV:
		return fmt.Sprintf("%d %d %d %s", v.Priority, v.Weight, v.Port, v.Target), nil
	case TypeCAA:
		return fmt.Sprintf("%d %s %s", v.Flags, v.Tag, quote(v.Target)), nil
	case TypeSVCB, TypeHTTPS:
		rdata := fmt.Sprintf("%d %s", v.Priority, v.Target)
		if v.Params != "" {
			rdata += " " + v.Params
		}
		return rdata, nil
	case TypeTXT:
		if v.Target == "" {
			return "", fmt.Errorf("format TXT rdata: empty")
		}
		return formatTXT(v.Target), nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedRecord, recordType)
}

// ParseRData parses RDATA presentation text into a Value.
func ParseRData(recordType, rdata string) (Value, error) {
	rdata = strings.TrimSpace(rdata)
	if rdata == "" {
		return Value{}, fmt.Errorf("parse %s rdata: empty", recordType)
	}

	switch recordType {
	case TypeTXT:
		return Value{Target: parseTXT(rdata)}, nil
	case TypeALIAS:
		// ALIAS is a provider extension; miekg/dns has no RR type for it.
		if strings.ContainsAny(rdata, " \t") {
			return Value{}, fmt.Errorf("parse ALIAS rdata %q: unexpected whitespace", rdata)
		}
		return Value{Target: rdata}, nil
	}

	rr, err := mdns.NewRR(". 0 IN " + recordType + " " + rdata)
	if err != nil {
		return Value{}, fmt.Errorf("parse %s rdata %q: %w", recordType, rdata, err)
	}
	if rr == nil {
		return Value{}, fmt.Errorf("parse %s rdata %q: no record", recordType, rdata)
	}

	switch r := rr.(type) {
	case *mdns.A:
		addr, _ := netip.AddrFromSlice(r.A.To4())
		return Value{Target: addr.String()}, nil
	case *mdns.AAAA:
		// A 16-byte slice keeps IPv4-mapped addresses in ::ffff: form.
		addr, _ := netip.AddrFromSlice(r.AAAA.To16())
		return Value{Target: addr.String()}, nil
	case *mdns.CNAME:
		return Value{Target: r.Target}, nil
	case *mdns.NS:
		return Value{Target: r.Ns}, nil
	case *mdns.PTR:
		return Value{Target: r.Ptr}, nil
	case *mdns.MX:
		return Value{Priority: r.Preference, Target: r.Mx}, nil
	case *mdns.SRV:
		return Value{Priority: r.Priority, Weight: r.Weight, Port: r.Port, Target: r.Target}, nil
	case *mdns.CAA:
		return Value{Flags: r.Flag, Tag: r.Tag, Target: unescape(r.Value)}, nil
	case *mdns.HTTPS:
		return svcbValue(&r.SVCB), nil
	case *mdns.SVCB:
		return svcbValue(r), nil
	}
	return Value{}, fmt.Errorf("%w: %s", ErrUnsupportedRecord, recordType)
}

func svcbValue(r *mdns.SVCB) Value {
	params := make([]string, 0, len(r.Value))
	for _, kv := range r.Value {
		p := kv.Key().String()
		if s := kv.String(); s != "" {
			p += "=" + s
		}
		params = append(params, p)
	}
	return Value{Priority: r.Priority, Target: r.Target, Params: strings.Join(params, " ")}
}

func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

// formatTXT leaves short plain text untouched and quotes everything else,
// splitting long text into character-strings.
func formatTXT(text string) string {
	if len(text) <= maxTXTChunk && !needsQuoting(text) {
		return text
	}
	var chunks []string
	for len(text) > maxTXTChunk {
		chunks = append(chunks, quote(text[:maxTXTChunk]))
		text = text[maxTXTChunk:]
	}
	if text != "" {
		chunks = append(chunks, quote(text))
	}
	return strings.Join(chunks, " ")
}

// needsQuoting reports whether bare text would read back differently.
func needsQuoting(text string) bool {
	return strings.HasPrefix(text, `"`) ||
		strings.Contains(text, `\`) ||
		strings.TrimSpace(text) != text
}

// parseTXT joins quoted character-strings. Bare text is returned as is, with
// escaped semicolons restored.
func parseTXT(rdata string) string {
	if !strings.HasPrefix(rdata, `"`) {
		return strings.ReplaceAll(rdata, `\;`, ";")
	}

	var b strings.Builder
	inQuote := false
	for i := 0; i < len(rdata); i++ {
		c := rdata[i]
		switch {
		case c == '\\' && inQuote && i+1 < len(rdata):
			i += unescapeAt(&b, rdata[i+1:])
		case c == '"':
			inQuote = !inQuote
		case inQuote:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// unescape decodes presentation escapes (\X and \DDD).
func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i += unescapeAt(&b, s[i+1:])
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// unescapeAt writes the character escaped at the start of rest and returns
// how many bytes of rest it consumed.
func unescapeAt(b *strings.Builder, rest string) int {
	if len(rest) >= 3 && isDigit(rest[0]) && isDigit(rest[1]) && isDigit(rest[2]) {
		n := int(rest[0]-'0')*100 + int(rest[1]-'0')*10 + int(rest[2]-'0')
		if n <= 255 {
			b.WriteByte(byte(n))
			return 3
		}
	}
	b.WriteByte(rest[0])
	return 1
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
