// Package intent defines the classified purpose of an inbound event and the
// slot fields extracted alongside it.
package intent

// Kind enumerates the intents the dispatcher can route.
type Kind string

// Supported intent kinds.
const (
	KindSchedule   Kind = "schedule"
	KindFAQ        Kind = "faq"
	KindContact    Kind = "contact"
	KindCancel     Kind = "cancel"
	KindReschedule Kind = "reschedule"
	KindUnknown    Kind = "unknown"
)

// ParseKind maps a classifier-provided string to a Kind, defaulting to
// KindUnknown for anything unrecognized.
func ParseKind(s string) Kind {
	switch Kind(s) {
	case KindSchedule, KindFAQ, KindContact, KindCancel, KindReschedule:
		return Kind(s)
	}
	return KindUnknown
}

// Well-known slot names extracted from free text. Absent slots are absent
// from the map; an empty string is never used as a sentinel.
const (
	SlotDate     = "date"
	SlotTime     = "time"
	SlotTimezone = "timezone"
	SlotName     = "name"
	SlotEmail    = "email"
	SlotPhone    = "phone"
)

// Intent is a typed classification result.
type Intent struct {
	Kind       Kind
	Confidence float64
	Fields     map[string]string
}

// Unknown returns the zero-confidence unknown intent. Classifier failures
// degrade to this value instead of propagating.
func Unknown() Intent {
	return Intent{Kind: KindUnknown, Confidence: 0}
}

// Field returns the named slot value and whether it is present and non-empty.
func (in Intent) Field(name string) (string, bool) {
	v, ok := in.Fields[name]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// ApplyThreshold forces Kind to unknown when confidence falls below min,
// regardless of what slots were extracted. Extracted fields are kept for
// auditing.
func ApplyThreshold(in Intent, min float64) Intent {
	if in.Confidence < min {
		in.Kind = KindUnknown
	}
	return in
}
