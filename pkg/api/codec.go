// Package api defines the wire messages of the receipt service.
//
// Messages are plain Go structs carried as JSON over the Connect protocol.
// Money values are decimal strings with two places ("9.00") so clients
// never round through binary floats.
package api

import "encoding/json"

// Codec is the Connect codec for api messages. It registers under the
// name "json", so requests use Content-Type application/json.
type Codec struct{}

func (Codec) Name() string { return "json" }

func (Codec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (Codec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, msg)
}
