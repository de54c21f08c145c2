package item

// dropoffDesks maps campus buildings to the desk where found items are handed in.
var dropoffDesks = map[string]string{
	"Bowman-Oddy- Biology":            "BO 2045",
	"Bowman-Oddy- Chemistry":          "BO 2022",
	"Bowman-Oddy- Storeroom":          "BO 1059",
	"Carlson Library":                 "Circulation Desk",
	"CPA":                             "Box Office",
	"Field House":                     "2100",
	"Gillham":                         "3100",
	"Health and Human Services":       "1400",
	"Honors Academic Village":         "Front Desk",
	"Law Center":                      "1000",
	"McMaster":                        "Front Desk",
	"Nitschke":                        "1600",
	"Ottawa East":                     "Front Desk",
	"Ottawa West":                     "Front Desk",
	"Parks Tower":                     "Front Desk",
	"Presidents Hall":                 "Front Desk",
	"Rocket Hall":                     "RSC 1200",
	"Rocket Hall Computer lab":        "Computer Lab",
	"Savage Arena/Glass Bowl":         "Executive Assistant",
	"Snyder":                          "3000",
	"Stranahan North/Savage Business": "3130",
	"Stranahan South":                 "5017",
	"Student REC":                     "Front Center",
	"Student Union/Rocket Copy":       "2525",
	"Tucker/Eberly Center":            "168",
	"University Hall":                 "4260",
	"Wolfe":                           "1227",
	"Health Science Campus":           "Mulford Library 007",
}

// DropoffFor returns the drop-off desk for a building, or "" if none is known.
func DropoffFor(building string) string {
	return dropoffDesks[building]
}
