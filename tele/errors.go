package tele

import "fmt"

// Every public operation reports one of these as errors.Cause of returned error.
var (
	ErrFieldCountExceeded    = fmt.Errorf("too much JSON fields passed")
	ErrSerializationOverflow = fmt.Errorf("too small buffer for JSON data")
	ErrValueSerialization    = fmt.Errorf("unable to serialize data")
	ErrDecode                = fmt.Errorf("unable to de-serialize RPC")
	ErrMissingMethod         = fmt.Errorf("RPC method is missing")
	ErrNoMatchingHandler     = fmt.Errorf("no RPC handler for method")
	ErrTransport             = fmt.Errorf("transport failure")
	ErrInvalidConfiguration  = fmt.Errorf("invalid configuration")
	ErrNotSupported          = fmt.Errorf("not supported by transport")
	ErrAlreadySubscribed     = fmt.Errorf("RPC already subscribed")
	ErrNotConnected          = fmt.Errorf("not connected")
)
