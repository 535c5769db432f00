// Package sakuracloud implements dns.Provider for the Sakura Cloud DNS service.
//
// Zones live in the API as CommonServiceItems whose ResourceRecordSets hold
// one entry per RDATA. Every change submitted through Apply is written with a
// single PUT of the zone's full record list.
package sakuracloud

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/samber/lo"

	"github.com/yuriy-kovalchuk/sakuracloud-dns/internal/dns"
	"github.com/yuriy-kovalchuk/sakuracloud-dns/internal/metrics"
)

const (
	providerName    = "sakuracloud"
	serviceClassDNS = "cloud/dns"

	// DefaultEndpoint is the Ishikari first zone. The DNS service is global,
	// so any zone endpoint works.
	DefaultEndpoint = "https://secure.sakura.ad.jp/cloud/zone/is1a/api/cloud/1.1"
	DefaultTimeout  = 60 * time.Second
	// DefaultTTL is what the API assumes when an entry carries no TTL.
	DefaultTTL = 3600
)

var supportedTypes = []string{
	dns.TypeA,
	dns.TypeAAAA,
	dns.TypeALIAS,
	dns.TypeCAA,
	dns.TypeCNAME,
	dns.TypeHTTPS,
	dns.TypeMX,
	dns.TypeNS,
	dns.TypePTR,
	dns.TypeSRV,
	dns.TypeSVCB,
	dns.TypeTXT,
}

func init() {
	dns.Register(providerName, func(log logr.Logger, settings map[string]string) (dns.Provider, error) {
		return New(log, settings)
	})
}

// Provider implements dns.Provider for Sakura Cloud DNS.
type Provider struct {
	api        *client
	defaultTTL int
	log        logr.Logger
}

var _ dns.Provider = (*Provider)(nil)

// New creates a Sakura Cloud DNS provider from the given settings map.
// Required settings: access_token, access_token_secret.
// Optional settings: endpoint, timeout (duration or seconds, default 60s),
// default_ttl (default 3600).
func New(log logr.Logger, settings map[string]string) (*Provider, error) {
	token := settings["access_token"]
	if token == "" {
		return nil, fmt.Errorf("sakuracloud: missing required setting 'access_token': %w", dns.ErrAuth)
	}
	secret := settings["access_token_secret"]
	if secret == "" {
		return nil, fmt.Errorf("sakuracloud: missing required setting 'access_token_secret': %w", dns.ErrAuth)
	}

	endpoint := settings["endpoint"]
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	timeout := DefaultTimeout
	if v := settings["timeout"]; v != "" {
		parsed, err := parseTimeout(v)
		if err != nil {
			return nil, fmt.Errorf("sakuracloud: invalid timeout %q: %w", v, err)
		}
		timeout = parsed
	}

	defaultTTL := DefaultTTL
	if v := settings["default_ttl"]; v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 || int64(parsed) > math.MaxUint32 {
			return nil, fmt.Errorf("sakuracloud: invalid default_ttl %q", v)
		}
		defaultTTL = parsed
	}

	return &Provider{
		api:        newClient(log, endpoint, token, secret, timeout),
		defaultTTL: defaultTTL,
		log:        log,
	}, nil
}

func parseTimeout(v string) (time.Duration, error) {
	if secs, err := strconv.Atoi(v); err == nil {
		if secs <= 0 {
			return 0, fmt.Errorf("must be positive")
		}
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive")
	}
	return d, nil
}

// Supports reports whether recordType can be read and written.
func (p *Provider) Supports(recordType string) bool {
	return lo.Contains(supportedTypes, recordType)
}

// SupportedTypes returns the record types this provider handles.
func (p *Provider) SupportedTypes() []string {
	return append([]string(nil), supportedTypes...)
}

// ListZones returns the sorted names of all DNS zones in the account.
func (p *Provider) ListZones(ctx context.Context) ([]string, error) {
	p.log.V(1).Info("listing zones")
	zones, err := p.api.zones(ctx)
	if err != nil {
		return nil, err
	}
	names := lo.Keys(zones)
	sort.Strings(names)
	return names, nil
}

// ZoneExists reports whether the account hosts zone.
func (p *Provider) ZoneExists(ctx context.Context, zone string) (bool, error) {
	item, err := p.api.findZone(ctx, zone)
	if err != nil {
		return false, err
	}
	return item != nil, nil
}

// ListRecords returns the records of zone. A zone that does not exist yet
// has no records.
func (p *Provider) ListRecords(ctx context.Context, zone string) ([]dns.Record, error) {
	item, err := p.api.findZone(ctx, zone)
	if err != nil {
		return nil, err
	}
	if item == nil {
		p.log.Info("zone not found", "zone", zone)
		return []dns.Record{}, nil
	}

	records, err := p.toRecords(item.records())
	if err != nil {
		return nil, err
	}
	p.log.Info("listed records", "zone", zone, "count", len(records))
	return records, nil
}

// toRecords groups API entries into RRsets, keeping first-seen order. Owner
// names compare case-insensitively; an RRset keeps the first spelling seen.
func (p *Provider) toRecords(rrs []resourceRecord) ([]dns.Record, error) {
	records := []dns.Record{}
	index := make(map[string]int)

	for _, rr := range rrs {
		if !p.Supports(rr.Type) {
			p.log.V(1).Info("skipping unsupported record", "name", rr.Name, "type", rr.Type)
			continue
		}
		name := rr.Name
		if name == "@" {
			name = ""
		}
		if rr.Type == dns.TypeNS && name == "" {
			continue
		}

		value, err := dns.ParseRData(rr.Type, rr.RData)
		if err != nil {
			return nil, &APIError{Op: fmt.Sprintf("read %s %q", rr.Type, rr.Name), Err: err}
		}

		key := rrsetKey(name, rr.Type)
		if i, ok := index[key]; ok {
			records[i].Values = append(records[i].Values, value)
			continue
		}
		ttl := p.defaultTTL
		if rr.TTL != nil {
			if *rr.TTL < 0 || int64(*rr.TTL) > math.MaxUint32 {
				return nil, &APIError{Op: fmt.Sprintf("read %s %q", rr.Type, rr.Name), Err: fmt.Errorf("unexpected TTL %d", *rr.TTL)}
			}
			ttl = *rr.TTL
		}
		index[key] = len(records)
		records = append(records, dns.Record{
			Name:   name,
			Type:   rr.Type,
			TTL:    uint32(ttl),
			Values: []dns.Value{value},
		})
	}
	return records, nil
}

// toResourceRecords expands a record into one API entry per value.
func (p *Provider) toResourceRecords(record dns.Record) ([]resourceRecord, error) {
	name := apiName(record.Name)
	rrs := make([]resourceRecord, 0, len(record.Values))
	for _, v := range record.Values {
		rdata, err := dns.FormatRData(record.Type, v)
		if err != nil {
			return nil, err
		}
		rr := resourceRecord{Name: name, Type: record.Type, RData: rdata}
		if int(record.TTL) != p.defaultTTL {
			ttl := int(record.TTL)
			rr.TTL = &ttl
		}
		rrs = append(rrs, rr)
	}
	return rrs, nil
}

// rrsetKey identifies an RRset the way the DNS does: owner names are
// case-insensitive and "@" is the apex.
func rrsetKey(name, recordType string) string {
	if name == "@" {
		name = ""
	}
	return strings.ToLower(name) + "\x00" + recordType
}

func apiName(name string) string {
	if name == "" {
		return "@"
	}
	return name
}

// Apply submits changes to zone, one PUT per change. The zone is created
// when it does not exist. Root NS changes are dropped. Changes already
// written are kept when a later one fails; the returned *dns.ApplyError
// lists them.
func (p *Provider) Apply(ctx context.Context, zone string, changes []dns.Change) error {
	if err := p.validate(changes); err != nil {
		return err
	}

	pending := lo.Reject(changes, func(c dns.Change, _ int) bool {
		if c.Record().IsRootNS() {
			p.log.V(1).Info("skipping root NS change", "zone", zone, "action", c.Action)
			return true
		}
		return false
	})
	p.log.Info("applying changes", "zone", zone, "changes", len(pending))
	if len(pending) == 0 {
		return nil
	}

	item, err := p.api.findZone(ctx, zone)
	if err != nil {
		return err
	}
	if item == nil {
		p.log.Info("creating zone", "zone", zone)
		if item, err = p.api.createZone(ctx, zone); err != nil {
			return err
		}
	}

	id := item.ID
	current := item.records()
	applied := make([]dns.Change, 0, len(pending))
	for _, change := range pending {
		next, err := p.mutate(current, change)
		if err == nil {
			item, err = p.api.putRecords(ctx, id, next)
		}
		if err != nil {
			return &dns.ApplyError{Zone: zone, Applied: applied, Failed: change, Err: err}
		}

		current = next
		if item.Settings != nil {
			current = item.records()
		}
		applied = append(applied, change)
		metrics.IncrementApplied(providerName, string(change.Action))

		r := change.Record()
		p.log.Info("applied change", "zone", zone, "action", change.Action, "name", r.Name, "type", r.Type)
	}
	return nil
}

// validate rejects changes the provider cannot express before anything is
// sent.
func (p *Provider) validate(changes []dns.Change) error {
	for _, c := range changes {
		for _, r := range []*dns.Record{c.Existing, c.Desired} {
			if r != nil && !p.Supports(r.Type) {
				return &dns.UnsupportedRecordError{Name: r.Name, Type: r.Type}
			}
		}
		switch c.Action {
		case dns.ActionCreate:
			if c.Desired == nil {
				return fmt.Errorf("sakuracloud: create change without desired record")
			}
		case dns.ActionUpdate:
			if c.Desired == nil || c.Existing == nil {
				return fmt.Errorf("sakuracloud: update change needs existing and desired records")
			}
		case dns.ActionDelete:
			if c.Existing == nil {
				return fmt.Errorf("sakuracloud: delete change without existing record")
			}
		default:
			return fmt.Errorf("sakuracloud: unknown change action %q", c.Action)
		}
		if c.Desired != nil {
			if _, err := p.toResourceRecords(*c.Desired); err != nil {
				return fmt.Errorf("sakuracloud: %s %s %q: %w", c.Action, c.Desired.Type, c.Desired.Name, err)
			}
		}
	}
	return nil
}

// mutate returns a copy of rrs with change applied.
func (p *Provider) mutate(rrs []resourceRecord, change dns.Change) ([]resourceRecord, error) {
	r := change.Record()
	op := fmt.Sprintf("%s %s %q", change.Action, r.Type, r.Name)

	present := make(map[string]bool, len(rrs))
	for _, rr := range rrs {
		present[rrsetKey(rr.Name, rr.Type)] = true
	}

	var removeKey string
	switch change.Action {
	case dns.ActionCreate:
		if present[rrsetKey(change.Desired.Name, change.Desired.Type)] {
			return nil, &APIError{Op: op, Err: dns.ErrRecordExists}
		}
	default:
		removeKey = rrsetKey(change.Existing.Name, change.Existing.Type)
		if !present[removeKey] {
			return nil, &APIError{Op: op, Err: dns.ErrRecordNotFound}
		}
		if change.Desired != nil {
			if key := rrsetKey(change.Desired.Name, change.Desired.Type); key != removeKey && present[key] {
				return nil, &APIError{Op: op, Err: dns.ErrRecordExists}
			}
		}
	}

	next := lo.Reject(rrs, func(rr resourceRecord, _ int) bool {
		return removeKey != "" && rrsetKey(rr.Name, rr.Type) == removeKey
	})
	if change.Desired == nil {
		return next, nil
	}
	add, err := p.toResourceRecords(*change.Desired)
	if err != nil {
		return nil, &APIError{Op: op, Err: err}
	}
	return append(next, add...), nil
}
