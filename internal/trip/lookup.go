package trip

// cityNames maps common IATA city codes to display names. The parse step
// normalizes cities to codes; the hotel step maps the destination back to
// a name the hotel provider's city search understands.
var cityNames = map[string]string{
	"DEL": "Delhi",
	"GOI": "Goa",
	"BOM": "Mumbai",
	"BLR": "Bengaluru",
	"MAA": "Chennai",
	"CCU": "Kolkata",
	"JAI": "Jaipur",
	"LON": "London",
	"LHR": "London",
	"NYC": "New York",
	"JFK": "New York",
	"SFO": "San Francisco",
	"LAX": "Los Angeles",
	"PAR": "Paris",
	"CDG": "Paris",
	"MAD": "Madrid",
	"BCN": "Barcelona",
	"ROM": "Rome",
	"TYO": "Tokyo",
	"SIN": "Singapore",
	"DXB": "Dubai",
	"BKK": "Bangkok",
	"SYD": "Sydney",
}

// DisplayName maps a short location code to a fuller display name.
// Unmapped inputs pass through unchanged.
func DisplayName(code string) string {
	if name, ok := cityNames[code]; ok {
		return name
	}
	return code
}
