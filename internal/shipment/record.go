package shipment

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidAmount indicates an amount value that is neither digits nor "<N> thousand".
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrEmptyInput indicates that nothing parseable was supplied.
	ErrEmptyInput = errors.New("empty input")
)

// PhoneUnknown is the placeholder used by the free-text collector when no phone was found.
const PhoneUnknown = "غير محدد"

// Record is one parsed shipment order.
type Record struct {
	MerchantLoginID string `json:"merchantLoginId,omitempty"`
	ShopName        string `json:"shopName,omitempty"`
	CustomerName    string `json:"customerName"`
	Phone           string `json:"phone"`
	AmountIQD       int64  `json:"amountIQD"`
	StateName       string `json:"stateName"`
	DistrictName    string `json:"districtName"`
	Address         string `json:"address"`
	Notes           string `json:"notes"`
	Raw             string `json:"raw,omitempty"`
	ClientRef       string `json:"clientRef,omitempty"`
}

// Payload is the record shape emitted by the bulk parser.
type Payload struct {
	MerchantLoginID string `json:"merchantLoginId"`
	ShopName        string `json:"shopName"`
	CustomerName    string `json:"customerName"`
	Phone           string `json:"phone"`
	AmountIQD       int64  `json:"amountIQD"`
	StateName       string `json:"stateName"`
	DistrictName    string `json:"districtName"`
	Address         string `json:"address"`
	Notes           string `json:"notes"`
	ClientRef       string `json:"clientRef"`
}

// Payload converts the record into the bulk emission shape.
func (r Record) Payload() Payload {
	return Payload{
		MerchantLoginID: r.MerchantLoginID,
		ShopName:        r.ShopName,
		CustomerName:    r.CustomerName,
		Phone:           r.Phone,
		AmountIQD:       r.AmountIQD,
		StateName:       r.StateName,
		DistrictName:    r.DistrictName,
		Address:         r.Address,
		Notes:           r.Notes,
		ClientRef:       r.ClientRef,
	}
}

// Summary renders a one-line description used in previews.
func (r Record) Summary() string {
	parts := make([]string, 0, 5)
	for _, v := range []string{r.CustomerName, r.Phone, r.StateName, r.DistrictName} {
		if v = strings.TrimSpace(v); v != "" {
			parts = append(parts, v)
		}
	}
	parts = append(parts, fmt.Sprintf("%d IQD", r.AmountIQD))
	return strings.Join(parts, " | ")
}

// GuidedPayload is the narrower shape produced by the step-by-step form.
type GuidedPayload struct {
	ShopName     string `json:"shopName"`
	CustomerName string `json:"customerName"`
	Phone        string `json:"phone"`
	District     string `json:"district"`
	Address      string `json:"address"`
	AmountIQD    int64  `json:"amountIQD"`
	Notes        string `json:"notes"`
}

// Draft holds the raw labeled values of one chunk before normalization.
type Draft struct {
	MerchantLoginID string
	ShopName        string
	CustomerName    string
	Phone           string
	Amount          string
	StateName       string
	DistrictName    string
	Address         string
	Notes           string
	Raw             string
}

// WithDefaults fills the shared fields that are empty in d from the global defaults block.
func (d Draft) WithDefaults(global Draft) Draft {
	if d.MerchantLoginID == "" {
		d.MerchantLoginID = global.MerchantLoginID
	}
	if d.ShopName == "" {
		d.ShopName = global.ShopName
	}
	if d.StateName == "" {
		d.StateName = global.StateName
	}
	return d
}

// HeaderOnly reports whether the draft carries no order of its own.
func (d Draft) HeaderOnly() bool {
	return d.Phone == "" && d.CustomerName == ""
}

// Build normalizes the draft into a record tagged with ref.
func (d Draft) Build(ref string) (Record, error) {
	amount, err := NormalizeAmount(d.Amount)
	if err != nil {
		return Record{}, err
	}
	return Record{
		MerchantLoginID: d.MerchantLoginID,
		ShopName:        d.ShopName,
		CustomerName:    d.CustomerName,
		Phone:           NormalizePhone(d.Phone),
		AmountIQD:       amount,
		StateName:       d.StateName,
		DistrictName:    d.DistrictName,
		Address:         d.Address,
		Notes:           d.Notes,
		Raw:             d.Raw,
		ClientRef:       ref,
	}, nil
}
