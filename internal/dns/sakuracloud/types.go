package sakuracloud

// resourceRecord is one entry of Settings.DNS.ResourceRecordSets. The API
// stores one RDATA per entry; an RRset is every entry sharing Name and Type.
type resourceRecord struct {
	Name  string `json:"Name"`
	Type  string `json:"Type"`
	RData string `json:"RData"`
	TTL   *int   `json:"TTL,omitempty"`
}

type dnsSettings struct {
	ResourceRecordSets []resourceRecord `json:"ResourceRecordSets"`
}

type itemSettings struct {
	DNS dnsSettings `json:"DNS"`
}

type itemStatus struct {
	Zone string   `json:"Zone"`
	NS   []string `json:"NS,omitempty"`
}

type itemProvider struct {
	ID           int64  `json:"ID,omitempty"`
	Class        string `json:"Class"`
	Name         string `json:"Name,omitempty"`
	ServiceClass string `json:"ServiceClass,omitempty"`
}

// commonServiceItem is the API object that holds a DNS zone.
type commonServiceItem struct {
	ID           string        `json:"ID,omitempty"`
	Name         string        `json:"Name,omitempty"`
	Description  string        `json:"Description,omitempty"`
	Settings     *itemSettings `json:"Settings,omitempty"`
	SettingsHash string        `json:"SettingsHash,omitempty"`
	Status       *itemStatus   `json:"Status,omitempty"`
	ServiceClass string        `json:"ServiceClass,omitempty"`
	Availability string        `json:"Availability,omitempty"`
	Provider     *itemProvider `json:"Provider,omitempty"`
}

func (i *commonServiceItem) records() []resourceRecord {
	if i.Settings == nil {
		return nil
	}
	return i.Settings.DNS.ResourceRecordSets
}

func (i *commonServiceItem) zone() string {
	if i.Status == nil {
		return ""
	}
	return i.Status.Zone
}

type listResponse struct {
	From               int                  `json:"From"`
	Count              int                  `json:"Count"`
	Total              int                  `json:"Total"`
	CommonServiceItems *[]commonServiceItem `json:"CommonServiceItems"`
}

type itemRequest struct {
	CommonServiceItem commonServiceItem `json:"CommonServiceItem"`
}

type itemResponse struct {
	CommonServiceItem *commonServiceItem `json:"CommonServiceItem"`
	Success           bool               `json:"Success"`
}

// errorResponse is the body returned with non-2xx statuses.
type errorResponse struct {
	IsFatal   bool   `json:"is_fatal"`
	Serial    string `json:"serial"`
	Status    string `json:"status"`
	ErrorCode string `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`
}
