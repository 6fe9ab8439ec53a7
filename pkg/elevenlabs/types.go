package elevenlabs

import "encoding/json"

// KnowledgeDocument is a document as listed by the external store.
type KnowledgeDocument struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	Name     string         `json:"name"`
	URL      string         `json:"url,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// UnmarshalJSON accepts document_id as an alias for id, numeric ids, and
// drops metadata that is not a JSON object.
func (d *KnowledgeDocument) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID         json.RawMessage `json:"id"`
		DocumentID json.RawMessage `json:"document_id"`
		Type       string          `json:"type"`
		Name       string          `json:"name"`
		URL        string          `json:"url"`
		Metadata   json.RawMessage `json:"metadata"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*d = KnowledgeDocument{Type: raw.Type, Name: raw.Name, URL: raw.URL}
	d.ID = scalarString(raw.ID)
	if d.ID == "" {
		d.ID = scalarString(raw.DocumentID)
	}

	var meta map[string]any
	if err := json.Unmarshal(raw.Metadata, &meta); err == nil {
		d.Metadata = meta
	}
	return nil
}

// scalarString renders a JSON string or number as text. Anything else is "".
func scalarString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// DependentAgent references a voice agent that uses a document.
type DependentAgent struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// CreatedDocument is the body returned by the create endpoints.
type CreatedDocument struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RawResponse is the undecoded result of Probe.
type RawResponse struct {
	StatusCode  int
	Status      string
	ContentType string
	Body        []byte
}

// StatusText returns the reason phrase without the numeric prefix.
func (r *RawResponse) StatusText() string {
	return statusText(r.StatusCode, r.Status)
}
