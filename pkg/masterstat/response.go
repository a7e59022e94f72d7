package masterstat

import (
	"bytes"
	"errors"
)

var (
	// serversCommand asks a master for its full server list.
	serversCommand = []byte{0x63, 0x0a, 0x00}

	// serversResponseHeader prefixes every server list reply.
	serversResponseHeader = []byte{0xff, 0xff, 0xff, 0xff, 0x64, 0x0a}
)

// ErrInvalidResponse is returned when a reply does not start with the server list header.
var ErrInvalidResponse = errors.New("invalid response")

// ParseServersResponse decodes a master server reply into addresses, in wire order.
// A trailing partial record is ignored.
func ParseServersResponse(response []byte) ([]ServerAddress, error) {
	if !bytes.HasPrefix(response, serversResponseHeader) {
		return nil, ErrInvalidResponse
	}

	body := response[len(serversResponseHeader):]
	servers := make([]ServerAddress, 0, len(body)/rawAddressSize)
	for len(body) >= rawAddressSize {
		servers = append(servers, rawServerAddress(body[:rawAddressSize]).decode())
		body = body[rawAddressSize:]
	}

	return servers, nil
}

// EncodeServersResponse builds a reply datagram for the given addresses.
// Addresses whose IP is not a dotted IPv4 literal are skipped.
func EncodeServersResponse(servers []ServerAddress) []byte {
	out := make([]byte, 0, len(serversResponseHeader)+len(servers)*rawAddressSize)
	out = append(out, serversResponseHeader...)
	for _, s := range servers {
		if raw, ok := encodeRecord(s); ok {
			out = append(out, raw[:]...)
		}
	}

	return out
}

// IsServersCommand reports whether b is the server list request.
func IsServersCommand(b []byte) bool {
	return bytes.Equal(b, serversCommand)
}
