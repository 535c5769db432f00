package dns

import "context"

// Record types understood by the providers in this module.
const (
	TypeA     = "A"
	TypeAAAA  = "AAAA"
	TypeALIAS = "ALIAS"
	TypeCAA   = "CAA"
	TypeCNAME = "CNAME"
	TypeHTTPS = "HTTPS"
	TypeMX    = "MX"
	TypeNS    = "NS"
	TypePTR   = "PTR"
	TypeSRV   = "SRV"
	TypeSVCB  = "SVCB"
	TypeTXT   = "TXT"
)

// Value is a single piece of RDATA. Which fields are meaningful depends on the
// record type: Target is the address, host name, text or CAA value; Priority is
// the MX preference, SRV priority or SVCB/HTTPS SvcPriority.
type Value struct {
	Priority uint16 `yaml:"priority,omitempty"`
	Weight   uint16 `yaml:"weight,omitempty"`
	Port     uint16 `yaml:"port,omitempty"`
	Flags    uint8  `yaml:"flags,omitempty"`
	Tag      string `yaml:"tag,omitempty"`
	Target   string `yaml:"value"`
	Params   string `yaml:"params,omitempty"` // SVCB/HTTPS SvcParams, e.g. "alpn=h2 port=8443"
}

// Record is an RRset: every value sharing a name and type within a zone.
type Record struct {
	Name   string  `yaml:"name"` // relative to the zone, "" for the apex
	Type   string  `yaml:"type"`
	TTL    uint32  `yaml:"ttl"`
	Values []Value `yaml:"values"`
}

// Key identifies the RRset within its zone.
func (r Record) Key() string {
	return r.Name + "\x00" + r.Type
}

// IsRootNS reports whether r is the NS RRset at the zone apex.
func (r Record) IsRootNS() bool {
	return r.Type == TypeNS && (r.Name == "" || r.Name == "@")
}

// Action is the kind of change applied to a record.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Change is one planned modification. Existing is set for updates and
// deletes, Desired for creates and updates.
type Change struct {
	Action   Action
	Existing *Record
	Desired  *Record
}

// Record returns the record the change operates on: the desired state when
// there is one, otherwise the existing state.
func (c Change) Record() Record {
	if c.Desired != nil {
		return *c.Desired
	}
	if c.Existing != nil {
		return *c.Existing
	}
	return Record{}
}

// Provider is the interface that DNS providers must implement.
type Provider interface {
	// ListZones returns the zone names (with trailing dot) the account hosts.
	ListZones(ctx context.Context) ([]string, error)
	// ListRecords returns every supported record in zone. A zone with no
	// records yields an empty slice.
	ListRecords(ctx context.Context, zone string) ([]Record, error)
	// Apply submits changes to zone in order. Changes applied before a
	// failure are not rolled back; see ApplyError.
	Apply(ctx context.Context, zone string, changes []Change) error
	// Supports reports whether recordType can be read and written.
	Supports(recordType string) bool
}
