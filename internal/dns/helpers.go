package dns

import (
	"strings"
)

// Fqdn appends a trailing dot to name unless it is empty or already has one.
func Fqdn(name string) string {
	if name == "" || strings.HasSuffix(name, ".") {
		return name
	}
	return name + "."
}

// TrimDot removes a single trailing dot.
func TrimDot(name string) string {
	return strings.TrimSuffix(name, ".")
}

// RelativeName converts an owner name to its zone-relative form. The apex
// ("@" or the zone itself) becomes "".
func RelativeName(name, zone string) string {
	name = TrimDot(name)
	zone = TrimDot(zone)
	switch {
	case name == "@" || strings.EqualFold(name, zone):
		return ""
	case zone != "" && strings.HasSuffix(strings.ToLower(name), "."+strings.ToLower(zone)):
		return name[:len(name)-len(zone)-1]
	}
	return name
}
