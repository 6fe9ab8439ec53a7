package dto

const (
	ConsoleActionSelectDocument  = "select_document"
	ConsoleActionClearSelection  = "clear_selection"
	ConsoleActionSubscribeList   = "subscribe_list"
	ConsoleActionUnsubscribeList = "unsubscribe_list"

	ConsoleMessageDocumentDetail = "document_detail"
	ConsoleMessageKnowledgeList  = "knowledge_list"
	ConsoleMessageKnowledgeEvent = "knowledge_event"
	ConsoleMessageError          = "error"
)

// ConsoleCommand is sent by the browser over the console websocket.
type ConsoleCommand struct {
	Action     string `json:"action"`
	DocumentId string `json:"document_id,omitempty"`
	Search     string `json:"search,omitempty"`
	Type       string `json:"type,omitempty"`
}

// ConsoleMessage is pushed to the browser.
type ConsoleMessage struct {
	Type       string `json:"type"`
	Seq        uint64 `json:"seq,omitempty"`
	DocumentId string `json:"document_id,omitempty"`
	Data       any    `json:"data,omitempty"`
	Error      string `json:"error,omitempty"`
}
