// Package i18n translates the labels used on settlement statements.
package i18n

import (
	"context"
	"strings"
)

const (
	English = "en"
	Hindi   = "hi"

	Default = English
)

var catalogs = map[string]map[string]string{
	English: {
		"required":             "Required",
		"must_not_be_negative": "Must not be negative",
		"must_be_greater":      "Must be greater",
		"invalid_value":        "Invalid value",
		"mixed_ledgers":        "Self and fleet trips cannot be settled together",
		"duplicate":            "Listed more than once",
		"ledger_changed":       "Trip entries changed after this settlement was saved; totals show the saved values.",

		"statement_title":  "Settlement statement",
		"driver":           "Driver",
		"fleet_owner":      "Fleet owner",
		"calculation_id":   "Calculation",
		"date":             "Date",
		"trip":             "Trip",
		"amount":           "Amount",
		"reason":           "Reason",
		"recipient":        "Paid to",
		"advances":         "Advances",
		"expenses":         "Expenses",
		"no_records":       "No records",
		"km_block":         "Kilometres",
		"summary":          "Summary",
		"old_km":           "Old KM",
		"new_km":           "New KM",
		"total_km":         "Total KM",
		"per_km_rate":      "Rate per KM",
		"km_value":         "KM value",
		"next_service_km":  "Next service KM",
		"total_expenses":   "Total expenses",
		"previous_balance": "Previous balance",
		"total":            "Total",
		"total_advances":   "Total advances",
		"due":              "Due",
		"pod_block":        "POD balances",
		"pod_total":        "Total POD balance",
		"net_after_pod":    "Net after POD",

		"to_be_paid_to_driver":      "to be paid to driver",
		"to_be_paid_by_driver":      "to be paid by driver",
		"to_be_paid_to_fleet_owner": "to be paid to fleet owner",
		"to_be_paid_by_fleet_owner": "to be paid by fleet owner",
		"no_outstanding_balance":    "no outstanding balance",

		"email_subject": "Settlement statement",
		"email_body":    "Please find your settlement statement attached.",
	},
	Hindi: {
		"required":             "आवश्यक",
		"must_not_be_negative": "ऋणात्मक नहीं होना चाहिए",
		"must_be_greater":      "अधिक होना चाहिए",
		"invalid_value":        "अमान्य मान",
		"mixed_ledgers":        "सेल्फ और फ्लीट ट्रिप एक साथ नहीं हो सकते",
		"duplicate":            "एक से अधिक बार दर्ज",
		"ledger_changed":       "हिसाब सेव होने के बाद ट्रिप प्रविष्टियाँ बदली गईं; कुल राशि सेव किए गए मान दिखाती है।",

		"statement_title":  "हिसाब विवरण",
		"driver":           "ड्राइवर",
		"fleet_owner":      "फ्लीट मालिक",
		"calculation_id":   "हिसाब",
		"date":             "तारीख",
		"trip":             "ट्रिप",
		"amount":           "राशि",
		"reason":           "कारण",
		"recipient":        "प्राप्तकर्ता",
		"advances":         "एडवांस",
		"expenses":         "खर्च",
		"no_records":       "कोई रिकॉर्ड नहीं",
		"km_block":         "किलोमीटर",
		"summary":          "सारांश",
		"old_km":           "पुराना KM",
		"new_km":           "नया KM",
		"total_km":         "कुल KM",
		"per_km_rate":      "प्रति KM दर",
		"km_value":         "KM राशि",
		"next_service_km":  "अगली सर्विस KM",
		"total_expenses":   "कुल खर्च",
		"previous_balance": "पिछला बकाया",
		"total":            "कुल",
		"total_advances":   "कुल एडवांस",
		"due":              "देय",
		"pod_block":        "POD बकाया",
		"pod_total":        "कुल POD बकाया",
		"net_after_pod":    "POD के बाद शुद्ध",

		"to_be_paid_to_driver":      "ड्राइवर को देना है",
		"to_be_paid_by_driver":      "ड्राइवर से लेना है",
		"to_be_paid_to_fleet_owner": "फ्लीट मालिक को देना है",
		"to_be_paid_by_fleet_owner": "फ्लीट मालिक से लेना है",
		"no_outstanding_balance":    "कोई बकाया नहीं",

		"email_subject": "हिसाब विवरण",
		"email_body":    "आपका हिसाब विवरण संलग्न है।",
	},
}

// Supported reports whether lang has a catalog.
func Supported(lang string) bool {
	_, ok := catalogs[lang]
	return ok
}

// DetectLanguage picks the first supported language of an Accept-Language
// header, or the default.
func DetectLanguage(accept string) string {
	for _, part := range strings.Split(accept, ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		base := strings.ToLower(strings.SplitN(tag, "-", 2)[0])
		if Supported(base) {
			return base
		}
	}
	return Default
}

// T returns the translation of code, falling back to English, then to code.
func T(lang, code string) string {
	if c, ok := catalogs[lang]; ok {
		if s, ok := c[code]; ok {
			return s
		}
	}
	if s, ok := catalogs[Default][code]; ok {
		return s
	}
	return code
}

type ctxKey struct{}

func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, ctxKey{}, lang)
}

// LangFrom returns the language stored in ctx, or the default.
func LangFrom(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKey{}).(string); ok && v != "" {
		return v
	}
	return Default
}
