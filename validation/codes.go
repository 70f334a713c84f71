package validation

// Code identifies a single conformance rule from the OCFL 1.0 spec.
// Error codes (Exxx) mark spec violations, warning codes (Wxxx) mark
// violated recommendations.
type Code string

const (
	// E001 unexpected file or directory in the object root
	E001 Code = "E001"

	// E003 object version declaration missing
	E003 Code = "E003"

	// E007 object version declaration has the wrong content
	E007 Code = "E007"

	// E008 inventory defines no versions
	E008 Code = "E008"

	// E015 unexpected file in a version directory
	E015 Code = "E015"

	// E017 content directory value malformed
	E017 Code = "E017"

	// E018 content directory contains a path separator
	E018 Code = "E018"

	// E019 content directory is . or ..
	E019 Code = "E019"

	// E023 content file not referenced by the manifest
	E023 Code = "E023"

	// E025 digest algorithm not permitted for the manifest
	E025 Code = "E025"

	// E033 inventory is not a well formed JSON document
	E033 Code = "E033"

	// E034 inventory missing from the object root
	E034 Code = "E034"

	// E036 required inventory field missing
	E036 Code = "E036"

	// E037 inventory id inconsistent between versions
	E037 Code = "E037"

	// E038 inventory type is not the OCFL 1.0 inventory URI
	E038 Code = "E038"

	// E040 inventory head malformed or not the highest version
	E040 Code = "E040"

	// E041 inventory manifest missing
	E041 Code = "E041"

	// E044 inventory versions block missing an entry
	E044 Code = "E044"

	// E046 version directory missing from the object root
	E046 Code = "E046"

	// E048 version missing its created timestamp or state
	E048 Code = "E048"

	// E049 version created timestamp malformed
	E049 Code = "E049"

	// E050 version state malformed
	E050 Code = "E050"

	// E054 version user block malformed
	E054 Code = "E054"

	// E056 inventory fixity block malformed
	E056 Code = "E056"

	// E058 inventory sidecar missing
	E058 Code = "E058"

	// E060 inventory does not match its sidecar digest
	E060 Code = "E060"

	// E061 inventory sidecar malformed
	E061 Code = "E061"

	// E063 object root inventory missing
	E063 Code = "E063"

	// E064 version inventory differs from the root inventory
	E064 Code = "E064"

	// E067 file in the object extensions directory
	E067 Code = "E067"

	// E092 manifest content path missing from storage, or fixity failure
	E092 Code = "E092"

	// E094 version message malformed
	E094 Code = "E094"

	// E095 conflicting logical paths within a version state
	E095 Code = "E095"

	// E099 content path breaches a portability constraint
	E099 Code = "E099"

	// E102 unknown property in the inventory
	E102 Code = "E102"

	// W001 zero-padded version directory names
	W001 Code = "W001"

	// W002 unexpected directory in a version directory
	W002 Code = "W002"

	// W003 empty extensions directory
	W003 Code = "W003"

	// W004 digest algorithm other than sha512
	W004 Code = "W004"

	// W005 inventory id is not a URI
	W005 Code = "W005"

	// W007 version missing its user or message
	W007 Code = "W007"

	// W008 version user missing an address
	W008 Code = "W008"

	// W009 version user address is not a URI
	W009 Code = "W009"

	// W010 version missing its own inventory copy
	W010 Code = "W010"

	// W011 version inventory metadata diverges from the root inventory
	W011 Code = "W011"

	// W013 unregistered extension in the extensions directory
	W013 Code = "W013"
)

// Severity ranks the conformance impact of an issue
type Severity int

const (
	// Error marks a violated spec requirement; the object is non-conformant
	Error Severity = iota

	// Warning marks a violated spec recommendation; the object remains conformant
	Warning

	// Info marks an observation with no conformance impact
	Info
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Info:
		return "info"
	}
	return "unknown"
}

// Severity of the rule the code belongs to
func (c Code) Severity() Severity {
	switch {
	case len(c) > 0 && c[0] == 'E':
		return Error
	case len(c) > 0 && c[0] == 'W':
		return Warning
	}
	return Info
}
