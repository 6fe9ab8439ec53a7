package resolver

import "fmt"

const (
	PlaceholderUnauthorized   = "Unable to load content: the ElevenLabs API key was rejected. Check the API key configuration."
	PlaceholderForbidden      = "Unable to load content: access to this document is forbidden for the configured API key."
	PlaceholderNoReadableText = "No readable text content was found in this document."
)

func placeholderNotFound(id string) string {
	return fmt.Sprintf("Content for document %s was not found. It may have been deleted or is still being processed.", id)
}

func placeholderAPIError(status int, statusText string) string {
	return fmt.Sprintf("Unable to load content: API error (%d: %s)", status, statusText)
}

func placeholderNetwork(err error) string {
	return fmt.Sprintf("Unable to load content: the knowledge base service could not be reached (%v).", err)
}
