package model

// Outcome is the identification assigned to one evaluated region.
type Outcome int

const (
	Unidentified Outcome = iota
	Type618Confirmed
	Type623Confirmed
	Type618Visual
	Type623Visual
)

// Product type markers.
const (
	Product618 = "618"
	Product623 = "623"
)

var outcomeNames = map[Outcome]string{
	Unidentified:     "unidentified",
	Type618Confirmed: "type_618_confirmed",
	Type623Confirmed: "type_623_confirmed",
	Type618Visual:    "type_618_visual",
	Type623Visual:    "type_623_visual",
}

func (o Outcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return "unidentified"
}

// ParseOutcome is the inverse of String. Unknown names map to Unidentified.
func ParseOutcome(s string) Outcome {
	for o, name := range outcomeNames {
		if name == s {
			return o
		}
	}
	return Unidentified
}

// ProductType returns "618", "623" or "" for Unidentified.
func (o Outcome) ProductType() string {
	switch o {
	case Type618Confirmed, Type618Visual:
		return Product618
	case Type623Confirmed, Type623Visual:
		return Product623
	}
	return ""
}

// IsConfirmed reports whether the outcome came from barcode evidence.
func (o Outcome) IsConfirmed() bool {
	return o == Type618Confirmed || o == Type623Confirmed
}

// IsVisual reports whether the outcome came from text or appearance evidence.
func (o Outcome) IsVisual() bool {
	return o == Type618Visual || o == Type623Visual
}
