package catalog

// Collection names double as the file names under the data directory and as
// the import type tags. Field names on the wire and on disk stay German to
// remain compatible with existing data files and exports.
const (
	CollectionDepartments = "fachbereiche"
	CollectionProfiles    = "laborprofile"
	CollectionLabValues   = "laborwerte"
	CollectionLinks       = "profil_werte"
)

// Id prefixes per entity type.
const (
	PrefixDepartment = "fb"
	PrefixProfile    = "profil"
	PrefixLabValue   = "wert"
	PrefixLink       = "pv"
)

// Department (Fachbereich) is the top-level medical specialty grouping.
// Optional fields are pointers so they persist as explicit JSON null rather
// than being dropped.
type Department struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Beschreibung *string `json:"beschreibung"`
}

// Profile (Laborprofil) is a named bundle of lab values scoped to one
// department. The department reference is not validated at write time;
// dangling references render as "Unbekannt" downstream.
type Profile struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	FachbereichID string  `json:"fachbereich_id"`
	Beschreibung  *string `json:"beschreibung"`
}

// LabValue (Laborwert) is a single catalog entry describing one laboratory
// test.
type LabValue struct {
	ID                      string   `json:"id"`
	Name                    string   `json:"name"`
	EBMZiffer               *string  `json:"ebm_ziffer"`
	Verguetung              *float64 `json:"verguetung"`
	Referenzbereich         *string  `json:"referenzbereich"`
	Erklaerung              *string  `json:"erklaerung"`
	GruendeErhoehteWerte    *string  `json:"gruende_erhoehte_werte"`
	BehandlungErhoehteWerte *string  `json:"behandlung_erhoehte_werte"`
	GruendeNiedrigeWerte    *string  `json:"gruende_niedrige_werte"`
	BehandlungNiedrigeWerte *string  `json:"behandlung_niedrige_werte"`
}

// ProfileValue (Profil-Wert-Zuordnung) is the ordered many-to-many link
// between a profile and a lab value.
type ProfileValue struct {
	ID          string `json:"id"`
	ProfilID    string `json:"profil_id"`
	WertID      string `json:"wert_id"`
	Reihenfolge *int   `json:"reihenfolge"`
}

// OrderedLabValue is a lab value joined with its position inside a profile.
type OrderedLabValue struct {
	LabValue
	Reihenfolge *int `json:"reihenfolge"`
}

// ProfileWithDepartment is a profile joined with its department's display
// name for the "which profiles contain this value" view.
type ProfileWithDepartment struct {
	Profile
	FachbereichName string `json:"fachbereich_name"`
}

// order returns the sort key for a link, treating a null Reihenfolge as 0.
func (pv ProfileValue) order() int {
	if pv.Reihenfolge == nil {
		return 0
	}
	return *pv.Reihenfolge
}

func (v OrderedLabValue) order() int {
	if v.Reihenfolge == nil {
		return 0
	}
	return *v.Reihenfolge
}
