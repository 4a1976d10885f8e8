package enums

// SessionKind distinguishes guest sessions from authenticated ones.
type SessionKind string

const (
	SessionKindGuest         SessionKind = "guest"
	SessionKindAuthenticated SessionKind = "authenticated"
)

// String implements fmt.Stringer.
func (k SessionKind) String() string {
	return string(k)
}
