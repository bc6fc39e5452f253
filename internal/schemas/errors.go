package schemas

import "fmt"

// MalformedArtifactError indicates an AI response failed structural or semantic
// validation for its artifact type. It is retryable by the retry executor.
type MalformedArtifactError struct {
	Field   string
	Message string
}

func (e *MalformedArtifactError) Error() string {
	return fmt.Sprintf("malformed artifact: %s: %s", e.Field, e.Message)
}
