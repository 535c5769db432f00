package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/yuriy-kovalchuk/sakuracloud-dns/internal/dns"
)

// DefaultRecordTTL is used for zone file records that omit ttl.
const DefaultRecordTTL = 3600

// ZoneFile is the desired state of one zone as kept in version control.
type ZoneFile struct {
	Zone    string
	Records []dns.Record
}

type zoneFileYAML struct {
	Zone    string       `yaml:"zone"`
	Records []recordYAML `yaml:"records"`
}

type recordYAML struct {
	Name   string      `yaml:"name"`
	Type   string      `yaml:"type"`
	TTL    *uint32     `yaml:"ttl,omitempty"`
	Values []dns.Value `yaml:"values"`
}

// LoadZoneFile reads a YAML zone file. Records must be unique by name and
// type and carry at least one value. Types are upper-cased and values of
// known types are normalized, so a synced zone lists back without changes.
func LoadZoneFile(path string) (*ZoneFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading zone file: %w", err)
	}

	var raw zoneFileYAML
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing zone file: %w", err)
	}

	zf := &ZoneFile{Zone: dns.Fqdn(raw.Zone), Records: make([]dns.Record, 0, len(raw.Records))}
	seen := make(map[string]bool, len(raw.Records))
	for i, r := range raw.Records {
		rec := dns.Record{
			Name:   dns.RelativeName(r.Name, raw.Zone),
			Type:   strings.ToUpper(r.Type),
			TTL:    DefaultRecordTTL,
			Values: make([]dns.Value, 0, len(r.Values)),
		}
		if r.TTL != nil {
			rec.TTL = *r.TTL
		}
		if rec.Type == "" {
			return nil, fmt.Errorf("zone file: records[%d]: missing type", i)
		}
		for j, v := range r.Values {
			nv, err := dns.NormalizeValue(rec.Type, v)
			switch {
			case errors.Is(err, dns.ErrUnsupportedRecord):
				// Left to the provider to reject.
				nv = v
			case err != nil:
				return nil, fmt.Errorf("zone file: records[%d] %s %q: values[%d]: %w", i, rec.Type, rec.Name, j, err)
			}
			rec.Values = append(rec.Values, nv)
		}
		if len(rec.Values) == 0 {
			return nil, fmt.Errorf("zone file: records[%d] %s %q: no values", i, rec.Type, rec.Name)
		}
		if seen[rec.Key()] {
			return nil, fmt.Errorf("zone file: records[%d] %s %q: duplicate record", i, rec.Type, rec.Name)
		}
		seen[rec.Key()] = true
		zf.Records = append(zf.Records, rec)
	}
	return zf, nil
}

// MarshalZoneFile renders records in the format LoadZoneFile reads.
func MarshalZoneFile(zone string, records []dns.Record) ([]byte, error) {
	out := zoneFileYAML{Zone: dns.Fqdn(zone), Records: make([]recordYAML, 0, len(records))}
	for _, r := range records {
		ttl := r.TTL
		out.Records = append(out.Records, recordYAML{
			Name:   r.Name,
			Type:   r.Type,
			TTL:    &ttl,
			Values: r.Values,
		})
	}
	return yaml.Marshal(out)
}
