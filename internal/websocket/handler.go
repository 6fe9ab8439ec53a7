package websocket

// ServeWs registers the connection, starts its write pump and blocks reading
// commands until the peer goes away.
func ServeWs(hub *Hub, client *Client) {
	hub.register <- client

	go client.writePump()
	client.readPump()
}
