package validator

// Validator validates structs using field tags.
type Validator interface {
	// Validate returns an error describing the first set of failed rules, or
	// nil when data is valid.
	Validate(data any) error
}
