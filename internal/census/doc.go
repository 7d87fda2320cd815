// Package census models FARS traffic fatality census data.
//
// # Data Source
//
// Records originate from the NHTSA Fatality Analysis Reporting System (FARS),
// a yearly census of fatal motor vehicle crashes on US public roads. Each
// vintage (one year's complete file) is distributed as a bzip2-compressed CSV
// named after the year it covers.
//
// # File Convention
//
// Vintage filenames follow a fixed pattern:
//
//	accident_<year>.csv.bz2   →  e.g. accident_2013.csv.bz2
//
// Year inputs that cannot be coerced to an integer resolve to the NA
// placeholder name, accident_NA.csv.bz2. Resolution itself never fails; an
// undefined year simply produces a filename that no vintage on disk matches,
// so the failure surfaces at read time as a missing file.
//
// # Columns
//
// A vintage file carries several dozen crash attributes. This package reads:
//
//	STATE     GSA geographic state code (see below)       required
//	MONTH     month of the crash, 1-12                    required
//	LONGITUD  decimal degrees (FARS spells it this way)   required
//	LATITUDE  decimal degrees                             required
//	ST_CASE   case number, unique within a vintage        optional
//	YEAR      year as recorded in the file                optional
//	FATALS    persons killed in the crash                 optional
//
// All other columns are ignored. Optional columns default to zero when the
// file omits them.
//
// # Unknown Coordinates
//
// The census encodes unknown positions in-domain rather than leaving cells
// blank: LONGITUD values above 900 and LATITUDE values above 90 (the
// 999.9999 / 99.9999 code families) mean the crash location was not known.
// Readers keep these values verbatim; the map path rewrites them to missing
// before any geometric use. See the statemap package.
//
// # State Codes
//
// STATE holds the GSA geographic codes used by FARS, which follow FIPS for
// the fifty states and DC and additionally assign 43 to Puerto Rico and 52
// to the Virgin Islands. The embedded states table maps codes to display
// names for plot titles; membership validation against a dataset uses the
// data's own STATE domain, never the table.
package census
