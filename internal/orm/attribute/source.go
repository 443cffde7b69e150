package attribute

import "fmt"

// Source describes how an attribute's raw value arrived
type Source uint8

const (
	// SourceUninitialized marks a declared attribute that holds no value
	SourceUninitialized Source = iota
	// SourceFromDatabase values were read from storage and are deserialized
	SourceFromDatabase
	// SourceFromUser values were assigned explicitly and are cast
	SourceFromUser
	// SourcePreCast values are already in their cast form
	SourcePreCast
	// SourceUserProvidedDefault values come from a declared default and are cast
	SourceUserProvidedDefault
)

// String returns the portable tag for the source
func (s Source) String() string {
	switch s {
	case SourceUninitialized:
		return "uninitialized"
	case SourceFromDatabase:
		return "from_database"
	case SourceFromUser:
		return "from_user"
	case SourcePreCast:
		return "pre_cast"
	case SourceUserProvidedDefault:
		return "user_provided_default"
	default:
		return "unknown"
	}
}

// ParseSource converts a portable tag to a Source
func ParseSource(s string) (Source, error) {
	switch s {
	case "uninitialized":
		return SourceUninitialized, nil
	case "from_database":
		return SourceFromDatabase, nil
	case "from_user":
		return SourceFromUser, nil
	case "pre_cast":
		return SourcePreCast, nil
	case "user_provided_default":
		return SourceUserProvidedDefault, nil
	default:
		return 0, fmt.Errorf("unknown attribute source: %s", s)
	}
}
