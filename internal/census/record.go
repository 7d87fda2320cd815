package census

// AccidentRecord is one crash-level row from a FARS vintage file. The core
// columns are always populated; the remaining fields carry what the file
// provides and stay zero otherwise.
type AccidentRecord struct {
	State     int     // STATE: GSA geographic state code
	Month     int     // MONTH: 1-12
	Longitude float64 // LONGITUD: decimal degrees, unknown coded above 900
	Latitude  float64 // LATITUDE: decimal degrees, unknown coded above 90

	Case   int // ST_CASE: unique within a vintage
	Year   int // YEAR: vintage year as recorded in the file
	Fatals int // FATALS: persons killed in the crash
}

// Dataset holds the ordered contents of a single vintage file. A dataset may
// be shared between callers (see CachedReader), so consumers treat it as
// read-only; the accessors below copy rather than alias the records.
type Dataset struct {
	Records []AccidentRecord
}

// Len returns the number of records.
func (d *Dataset) Len() int { return len(d.Records) }

// StateSet returns the distinct STATE codes present in the dataset. This is
// the domain state validation runs against.
func (d *Dataset) StateSet() map[int]bool {
	set := make(map[int]bool)
	for i := range d.Records {
		set[d.Records[i].State] = true
	}
	return set
}

// FilterState returns the records whose STATE equals code, preserving file
// order. The returned slice shares no backing array with the dataset.
func (d *Dataset) FilterState(code int) []AccidentRecord {
	var out []AccidentRecord
	for _, r := range d.Records {
		if r.State == code {
			out = append(out, r)
		}
	}
	return out
}
