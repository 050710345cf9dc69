package parser

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"shipment-bot/internal/shipment"
)

type field int

const (
	fieldNone field = iota
	fieldName
	fieldPhone
	fieldAmount
	fieldState
	fieldDistrict
	fieldAddress
	fieldNotes
	fieldMerchant
	fieldShop
)

// multiline fields keep collecting unlabeled lines that follow them.
func (f field) multiline() bool {
	return f == fieldAddress || f == fieldNotes
}

type label struct {
	text  string
	field field
}

var fieldLabels = map[field][]string{
	fieldName:     {"name", "customer", "customer name", "customername", "اسم", "الاسم", "اسم الزبون", "الزبون", "اسم العميل", "العميل", "المستلم", "اسم المستلم"},
	fieldPhone:    {"phone", "mobile", "tel", "هاتف", "الهاتف", "رقم الهاتف", "رقم", "الرقم", "موبايل"},
	fieldAmount:   {"amount", "price", "cod", "المبلغ", "مبلغ", "السعر", "سعر"},
	fieldState:    {"city", "state", "statename", "province", "governorate", "المحافظة", "محافظة", "المدينة", "مدينة"},
	fieldDistrict: {"district", "districtname", "area", "region", "المنطقة", "منطقة", "الحي", "حي", "القضاء"},
	fieldAddress:  {"address", "العنوان", "عنوان"},
	fieldNotes:    {"notes", "note", "ملاحظات", "الملاحظات", "ملاحظة"},
	fieldMerchant: {"merchant login id", "merchantloginid", "merchant id", "merchant", "login", "حساب التاجر", "التاجر"},
	fieldShop:     {"shop name", "shopname", "shop", "store", "اسم المتجر", "المتجر", "متجر", "اسم المحل", "المحل"},
}

// labels is ordered longest first so "اسم المتجر" wins over "اسم".
var labels = func() []label {
	var out []label
	for f, names := range fieldLabels {
		for _, n := range names {
			out = append(out, label{text: n, field: f})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i].text) != len(out[j].text) {
			return len(out[i].text) > len(out[j].text)
		}
		return out[i].text < out[j].text
	})
	return out
}()

var freeAmountPattern = regexp.MustCompile(`(?i)(?:amount|price|المبلغ|مبلغ|السعر)\s*[:：=]?\s*(` + digitClass + `(?:[,،٬]?` + digitClass + `){2,})`)

const digitClass = `[0-9\x{0660}-\x{0669}\x{06F0}-\x{06F9}]`

// matchLabel recognizes "<label>: value" at the start of a line.
func matchLabel(line string) (field, string, bool) {
	trimmed := strings.TrimLeft(strings.TrimSpace(line), "-•*· \t")
	lower := strings.ToLower(trimmed)
	for _, l := range labels {
		if !strings.HasPrefix(lower, l.text) {
			continue
		}
		rest := strings.TrimSpace(trimmed[len(l.text):])
		for _, sep := range []string{":", "：", "="} {
			if strings.HasPrefix(rest, sep) {
				return l.field, strings.TrimSpace(rest[len(sep):]), true
			}
		}
	}
	return fieldNone, "", false
}

// scan walks the chunk line by line; the first occurrence of each label wins.
func scan(chunk string) (map[field]string, map[field]bool) {
	values := make(map[field]string)
	seen := make(map[field]bool)
	current := fieldNone
	for _, line := range strings.Split(chunk, "\n") {
		if f, v, ok := matchLabel(line); ok {
			if seen[f] {
				current = fieldNone
				continue
			}
			seen[f] = true
			values[f] = v
			current = f
			continue
		}
		if !current.multiline() {
			current = fieldNone
			continue
		}
		if extra := strings.TrimSpace(line); extra != "" {
			if values[current] == "" {
				values[current] = extra
			} else {
				values[current] += "\n" + extra
			}
		}
	}
	return values, seen
}

// firstPhone returns the first phone occurrence in text, normalized.
func firstPhone(text string) string {
	if m := shipment.PhonePattern.FindString(text); m != "" {
		return shipment.NormalizePhone(m)
	}
	return ""
}

// Extract reads the labeled fields of one chunk for the strict bulk parser.
// The phone is the first phone occurrence, falling back to the labeled value.
func Extract(chunk string) shipment.Draft {
	values, _ := scan(chunk)
	phone := firstPhone(chunk)
	if phone == "" && values[fieldPhone] != "" {
		phone = shipment.NormalizePhone(values[fieldPhone])
	}
	return shipment.Draft{
		MerchantLoginID: values[fieldMerchant],
		ShopName:        values[fieldShop],
		CustomerName:    firstLine(values[fieldName]),
		Phone:           phone,
		Amount:          values[fieldAmount],
		StateName:       firstLine(values[fieldState]),
		DistrictName:    firstLine(values[fieldDistrict]),
		Address:         values[fieldAddress],
		Notes:           values[fieldNotes],
		Raw:             chunk,
	}
}

// ExtractFreeText builds a best-effort record from one chunk of free text.
// Missing phone becomes a placeholder, missing amount becomes 0 and, without a
// notes label, the whole chunk is kept as notes.
func ExtractFreeText(chunk string) shipment.Record {
	values, seen := scan(chunk)
	phone := firstPhone(chunk)
	if phone == "" {
		phone = shipment.PhoneUnknown
	}
	notes := values[fieldNotes]
	if !seen[fieldNotes] {
		notes = chunk
	}
	return shipment.Record{
		MerchantLoginID: values[fieldMerchant],
		ShopName:        values[fieldShop],
		CustomerName:    firstLine(values[fieldName]),
		Phone:           phone,
		AmountIQD:       freeTextAmount(chunk),
		StateName:       firstLine(values[fieldState]),
		DistrictName:    firstLine(values[fieldDistrict]),
		Address:         values[fieldAddress],
		Notes:           notes,
		Raw:             chunk,
	}
}

func freeTextAmount(chunk string) int64 {
	m := freeAmountPattern.FindStringSubmatch(chunk)
	if m == nil {
		return 0
	}
	digits := strings.NewReplacer(",", "", "،", "", "٬", "").Replace(shipment.FoldDigits(m[1]))
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
