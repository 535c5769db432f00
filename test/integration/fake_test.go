package integration

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

const (
	apiPrefix  = "/cloud/zone/is1a/api/cloud/1.1"
	testToken  = "test-token"
	testSecret = "test-secret"
)

type rrJSON struct {
	Name  string `json:"Name"`
	Type  string `json:"Type"`
	RData string `json:"RData"`
	TTL   *int   `json:"TTL,omitempty"`
}

type zoneItem struct {
	ID           string
	Zone         string
	ServiceClass string
	Records      []rrJSON
}

// fakeSakura is a minimal in-memory CommonServiceItem API.
type fakeSakura struct {
	mu      sync.Mutex
	items   []*zoneItem
	nextID  int
	calls   []string // "METHOD path", in order
	puts    [][]rrJSON
	failPut int // reject the n-th PUT (1-based) with a 500; 0 disables
}

func newFakeSakura() *fakeSakura {
	return &fakeSakura{nextID: 100000000000}
}

func (f *fakeSakura) addZone(zone string, records ...rrJSON) *zoneItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	item := &zoneItem{ID: fmt.Sprint(f.nextID), Zone: zone, ServiceClass: "cloud/dns", Records: records}
	f.items = append(f.items, item)
	return item
}

func (f *fakeSakura) addOtherItem(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.items = append(f.items, &zoneItem{ID: fmt.Sprint(f.nextID), Zone: name, ServiceClass: "cloud/foo"})
}

func (f *fakeSakura) callCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if strings.HasPrefix(c, method+" ") {
			n++
		}
	}
	return n
}

func (f *fakeSakura) zone(name string) *zoneItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, it := range f.items {
		if it.Zone == name && it.ServiceClass == "cloud/dns" {
			return it
		}
	}
	return nil
}

func (f *fakeSakura) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.calls = append(f.calls, r.Method+" "+r.URL.Path)
	f.mu.Unlock()

	if user, pass, ok := r.BasicAuth(); !ok || user != testToken || pass != testSecret {
		writeError(w, http.StatusUnauthorized, "unauthorized", "error-unauthorized")
		return
	}

	path := strings.TrimPrefix(r.URL.Path, apiPrefix)
	switch {
	case r.Method == http.MethodGet && path == "/commonserviceitem":
		f.handleList(w)
	case r.Method == http.MethodPost && path == "/commonserviceitem":
		f.handleCreate(w, r)
	case r.Method == http.MethodPut && strings.HasPrefix(path, "/commonserviceitem/"):
		f.handlePut(w, r, strings.TrimPrefix(path, "/commonserviceitem/"))
	default:
		writeError(w, http.StatusNotFound, "not_found", "error-not-found")
	}
}

func (f *fakeSakura) itemJSON(it *zoneItem) map[string]interface{} {
	out := map[string]interface{}{
		"ID":           it.ID,
		"Name":         it.Zone,
		"ServiceClass": it.ServiceClass,
		"Availability": "available",
		"Provider":     map[string]interface{}{"Class": strings.TrimPrefix(it.ServiceClass, "cloud/")},
	}
	if it.ServiceClass == "cloud/dns" {
		records := it.Records
		if records == nil {
			records = []rrJSON{}
		}
		out["Settings"] = map[string]interface{}{"DNS": map[string]interface{}{"ResourceRecordSets": records}}
		out["Status"] = map[string]interface{}{"Zone": it.Zone, "NS": []string{"ns1.gslb1.sakura.ne.jp", "ns2.gslb1.sakura.ne.jp"}}
	}
	return out
}

func (f *fakeSakura) handleList(w http.ResponseWriter) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := make([]map[string]interface{}, 0, len(f.items))
	for i, it := range f.items {
		j := f.itemJSON(it)
		j["Index"] = i
		items = append(items, j)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"From": 0, "Count": len(items), "Total": len(items),
		"CommonServiceItems": items,
		"is_ok":              true,
	})
}

func (f *fakeSakura) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		CommonServiceItem struct {
			Name   string `json:"Name"`
			Status struct {
				Zone string `json:"Zone"`
			} `json:"Status"`
			Provider struct {
				Class string `json:"Class"`
			} `json:"Provider"`
		} `json:"CommonServiceItem"`
	}
	if err := readJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if payload.CommonServiceItem.Provider.Class != "dns" {
		writeError(w, http.StatusBadRequest, "bad_request", "unexpected provider class")
		return
	}
	item := f.addZone(payload.CommonServiceItem.Status.Zone)

	f.mu.Lock()
	defer f.mu.Unlock()
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"CommonServiceItem": f.itemJSON(item), "Success": true, "is_ok": true,
	})
}

func (f *fakeSakura) handlePut(w http.ResponseWriter, r *http.Request, id string) {
	var payload struct {
		CommonServiceItem struct {
			Settings struct {
				DNS struct {
					ResourceRecordSets []rrJSON `json:"ResourceRecordSets"`
				} `json:"DNS"`
			} `json:"Settings"`
		} `json:"CommonServiceItem"`
	}
	if err := readJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPut > 0 && len(f.puts)+1 == f.failPut {
		f.puts = append(f.puts, nil)
		writeError(w, http.StatusInternalServerError, "internal_error", "error-internal &amp; retry")
		return
	}
	rrs := payload.CommonServiceItem.Settings.DNS.ResourceRecordSets
	f.puts = append(f.puts, rrs)
	for _, it := range f.items {
		if it.ID == id {
			it.Records = rrs
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"CommonServiceItem": f.itemJSON(it), "Success": true, "is_ok": true,
			})
			return
		}
	}
	writeError(w, http.StatusNotFound, "not_found", "error-not-found")
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"is_fatal":   true,
		"serial":     "ffffffffffffffffffffffffffffffff",
		"status":     fmt.Sprintf("%d %s", status, http.StatusText(status)),
		"error_code": code,
		"error_msg":  msg,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, v interface{}) error {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func ttl(n int) *int { return &n }
