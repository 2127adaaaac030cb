package model

// AccessMode declares which producers/consumers may touch a pool,
// parameterized by single/multiple reader (popper) and single/multiple
// writer (pusher). It is immutable once a pool is constructed.
type AccessMode int

const (
	// PRW is private-reader/private-writer: only the owning ES may pop or push.
	PRW AccessMode = iota
	// PRPW is private-reader/public-writer: only the owning ES may pop;
	// any ES may push.
	PRPW
	// PRSW is private-reader/shared-writer: only the owning ES may pop;
	// multiple ESs may push concurrently.
	PRSW
	// SRPW is shared-reader/private-writer: multiple ESs may pop;
	// only one ES may push.
	SRPW
	// SRSW is shared-reader/shared-writer: any ES may pop or push.
	SRSW
)

func (a AccessMode) String() string {
	switch a {
	case PRW:
		return "PRW"
	case PRPW:
		return "PR_PW"
	case PRSW:
		return "PR_SW"
	case SRPW:
		return "SR_PW"
	case SRSW:
		return "SR_SW"
	default:
		return "UNKNOWN"
	}
}

// SharedReader reports whether more than one ES may pop from a pool with
// this access mode.
func (a AccessMode) SharedReader() bool {
	return a == SRPW || a == SRSW
}

// SharedWriter reports whether more than one ES may push into a pool with
// this access mode.
func (a AccessMode) SharedWriter() bool {
	return a == PRSW || a == SRSW
}
