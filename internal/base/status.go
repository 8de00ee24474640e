package base

// Status is the result code returned by every Index operation. It mirrors
// the caller-facing status codes named in the on-disk/API contract rather
// than a Go error, so that callers who only care about control flow don't
// need to unwrap a chain of %w wrapping.
type Status int

const (
	OK Status = iota
	KeyNotFound
	DuplicateKey
	CursorIsNil
	InvParameter
	PluginNotFound
	ParserError
	InternalError
)

func (s Status) String() string {
	switch s {
	case OK:
		return "OK"
	case KeyNotFound:
		return "KEY_NOT_FOUND"
	case DuplicateKey:
		return "DUPLICATE_KEY"
	case CursorIsNil:
		return "CURSOR_IS_NIL"
	case InvParameter:
		return "INV_PARAMETER"
	case PluginNotFound:
		return "PLUGIN_NOT_FOUND"
	case ParserError:
		return "PARSER_ERROR"
	case InternalError:
		return "INTERNAL_ERROR"
	default:
		return "UNKNOWN_STATUS"
	}
}
