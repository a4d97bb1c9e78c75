// Package stream maintains the websocket connection to the pipeline's push
// event endpoint.
//
// Manager.Run dials, reads text frames, decodes them with banana.ParseEvent
// and hands them to a Sink in arrival order. When the connection closes or
// cannot be opened it waits a fixed delay (3s by default) and tries again,
// forever, one attempt at a time. Malformed frames are logged and dropped;
// they never close the connection.
package stream
