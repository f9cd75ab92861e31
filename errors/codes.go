package errors

// Code classifies where or why a stage failed.
type Code string

// Pipeline roles
const (
	// CodeSource indicates a source failed to produce an item.
	CodeSource Code = "SOURCE"
	// CodeWork indicates a work stage failed on an item.
	CodeWork Code = "WORK"
	// CodeDest indicates a destination failed to consume an item.
	CodeDest Code = "DEST"
	// CodeClosed indicates a channel or stream was used after close.
	CodeClosed Code = "CLOSED"
	// CodeTimeout indicates a stage exceeded its deadline.
	CodeTimeout Code = "TIMEOUT"
)

// Content errors
const (
	// CodeInvalidPath indicates a package path is absolute or escapes its root.
	CodeInvalidPath Code = "INVALID_PATH"
	// CodeInvalidInput indicates an item was malformed for the stage.
	CodeInvalidInput Code = "INVALID_INPUT"
	// CodeDecode indicates content could not be decoded.
	CodeDecode Code = "DECODE"
	// CodeEncode indicates content could not be encoded.
	CodeEncode Code = "ENCODE"
	// CodeUnsupported indicates a format or MIME type has no handler.
	CodeUnsupported Code = "UNSUPPORTED"
)

// Boundary errors
const (
	// CodeIO indicates a filesystem operation failed.
	CodeIO Code = "IO"
	// CodeNotFound indicates a file or object does not exist.
	CodeNotFound Code = "NOT_FOUND"
	// CodeExternal indicates a remote service returned an error.
	CodeExternal Code = "EXTERNAL"
	// CodeScript indicates a script task raised an error.
	CodeScript Code = "SCRIPT"
	// CodeInternal indicates an unexpected failure.
	CodeInternal Code = "INTERNAL"
)
