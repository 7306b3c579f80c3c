package instrument

import "context"

type correlationIDKey struct{}

const invalidCorrelationID = "[invalid_chain_id]"

// SetCorrelationID stores the request correlation ID in the context.
func SetCorrelationID(ctx context.Context, cID string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, cID)
}

// GetCorrelationID returns the correlation ID carried by the context. It
// returns the empty string when none is set, and a sentinel when the stored
// value is not a string so the record is still identifiable in logs.
func GetCorrelationID(ctx context.Context) string {
	v := ctx.Value(correlationIDKey{})
	if v == nil {
		return ""
	}

	cID, ok := v.(string)
	if !ok {
		return invalidCorrelationID
	}
	return cID
}
